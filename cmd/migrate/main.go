package main

// Apply database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"log"

	"fellowship-backend/internal/shared/config"
	"fellowship-backend/internal/shared/storage/db"
)

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return db.RunMigrations(ctx, sqlDB)
}
