package main

import (
	"context"
	"fmt"

	"library-lite/internal/config"
	"library-lite/internal/infrastructure/database"
)

// openDatabase chỉ cần PostgreSQL, dùng cho migrate và seed (không cần Redis)
func openDatabase(ctx context.Context) (*config.Config, *database.PostgresDB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	dbConfig, err := cfg.LoadDatabaseConfig()
	if err != nil {
		return nil, nil, err
	}

	db := database.NewPostgresDB(dbConfig)
	if err := db.Connect(ctx); err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
