package server

import (
	"github.com/gin-gonic/gin"

	"fellowship-backend/internal/applications"
	"fellowship-backend/internal/auth"
	"fellowship-backend/internal/services/health"
	"fellowship-backend/internal/shared/config"
	"fellowship-backend/internal/shared/server/middleware"
	"fellowship-backend/internal/shared/server/respond"
	"fellowship-backend/internal/users"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config              config.Config
	Health              *health.Service
	AuthHandler         *auth.Handler
	ApplicationsHandler *applications.Handler
	UsersHandler        *users.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil)
	}
	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.OK(c, healthSvc.Status(c.Request.Context()))
	})

	// Login endpoints take the brunt of abuse; everything else is either
	// public form traffic or behind a session.
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimit(middleware.RateLimitRule{Rate: 0.5, Burst: 5}, nil))
	deps.AuthHandler.RegisterRoutes(authGroup)

	deps.ApplicationsHandler.RegisterPublicRoutes(api)

	authed := api.Group("/auth")
	authed.Use(middleware.Auth())
	deps.AuthHandler.RegisterAuthedRoutes(authed)

	admin := api.Group("/admin")
	admin.Use(middleware.Auth(), middleware.RequireRole(users.RoleAdmin, users.RoleSuperAdmin))
	deps.ApplicationsHandler.RegisterAdminRoutes(admin)

	superAdmin := admin.Group("/users")
	superAdmin.Use(middleware.RequireRole(users.RoleSuperAdmin))
	deps.UsersHandler.RegisterRoutes(superAdmin)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
