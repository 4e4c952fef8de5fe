package main

// Seed an admin account:
//   go run ./cmd/createadmin -email admin@example.com -name "Ada Admin" -password secret123 -role admin

import (
	"context"
	"flag"
	"log"
	"os"

	"fellowship-backend/internal/shared/config"
	"fellowship-backend/internal/shared/storage/db"
	"fellowship-backend/internal/users"
)

func main() {
	email := flag.String("email", "", "admin email address")
	name := flag.String("name", "", "display name")
	password := flag.String("password", "", "login password (min 8 chars)")
	role := flag.String("role", users.RoleAdmin, "role: admin or super_admin")
	flag.Parse()

	if *email == "" || *name == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *role != users.RoleAdmin && *role != users.RoleSuperAdmin {
		log.Printf("role must be admin or super_admin")
		os.Exit(2)
	}

	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	svc := users.NewService(&users.PGRepo{DB: sqlDB})
	user, err := svc.Create(ctx, users.CreateInput{
		Email:    *email,
		Name:     *name,
		Password: *password,
		Role:     *role,
	})
	if err != nil {
		log.Printf("failed to create user: %v", err)
		os.Exit(1)
	}

	log.Printf("created %s user %s (%s)", user.Role, user.Email, user.ID)
}
