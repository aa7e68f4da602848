package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/recipebook/api/pkg/config"
	"github.com/recipebook/api/pkg/database"
	"github.com/recipebook/api/pkg/logger"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.Open(context.Background(), cfg.DatabaseURL, false)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	fmt.Fprintln(os.Stdout, "migrations completed")
}
