package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fellowship-backend/internal/applications"
	"fellowship-backend/internal/auth"
	"fellowship-backend/internal/documents"
	"fellowship-backend/internal/mailer"
	"fellowship-backend/internal/otp"
	"fellowship-backend/internal/services/health"
	"fellowship-backend/internal/shared/config"
	"fellowship-backend/internal/shared/server"
	"fellowship-backend/internal/shared/storage/db"
	"fellowship-backend/internal/shared/storage/object"
	localstore "fellowship-backend/internal/shared/storage/object/local"
	s3store "fellowship-backend/internal/shared/storage/object/s3"
	"fellowship-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Mailer mailer.Mailer
	OTP    *otp.Manager

	UsersRepo        users.Repo
	ApplicationsRepo applications.Repo
	DocumentsRepo    documents.Repo

	UsersService        *users.Service
	AuthService         *auth.Service
	ApplicationsService *applications.Service

	AuthHandler         *auth.Handler
	UsersHandler        *users.Handler
	ApplicationsHandler *applications.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Mailer: buildMailer(cfg),
		OTP:    otp.NewManager(),
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:              app.Config,
		Health:              health.NewService(app.DB),
		AuthHandler:         app.AuthHandler,
		ApplicationsHandler: app.ApplicationsHandler,
		UsersHandler:        app.UsersHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildMailer(cfg config.Config) mailer.Mailer {
	if strings.TrimSpace(cfg.SMTPHost) == "" || strings.TrimSpace(cfg.SMTPFrom) == "" {
		log.Printf("bootstrap: SMTP not configured; emails will be logged only")
		return mailer.LogMailer{}
	}
	return mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
}

func buildServices(app *App) {
	if app.DB != nil {
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.ApplicationsRepo = &applications.PGRepo{DB: app.DB}
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
	} else {
		app.UsersRepo = users.NewMemoryRepo()
		app.ApplicationsRepo = applications.NewMemoryRepo()
		app.DocumentsRepo = documents.NewMemoryRepo()
	}

	app.UsersService = users.NewService(app.UsersRepo)
	app.ApplicationsService = applications.NewService(
		app.ApplicationsRepo,
		app.DocumentsRepo,
		app.Store,
		app.Mailer,
		app.Config.AppBaseURL,
	)
	app.AuthService = auth.NewService(
		app.UsersService,
		app.OTP,
		app.Mailer,
		time.Duration(app.Config.OTPTTLMinutes)*time.Minute,
	)

	secureCookies := app.Config.Env == "production" || app.Config.Env == "staging"
	app.AuthHandler = auth.NewHandler(app.AuthService, secureCookies)
	app.UsersHandler = users.NewHandler(app.UsersService)
	app.ApplicationsHandler = applications.NewHandler(app.ApplicationsService)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
