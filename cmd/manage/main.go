// Command manage runs account administration tasks against the configured
// database.
//
//	manage createsuperuser -email admin@example.com [-password secret]
//	manage activate -email user@example.com
//	manage deactivate -email user@example.com
//	manage deleteuser -email user@example.com
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/recipebook/api/internal/repository"
	"github.com/recipebook/api/internal/services"
	"github.com/recipebook/api/internal/storage"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL, false)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}

	images, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal("failed to set up image storage", zap.Error(err))
	}

	tokens := services.NewJWTIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	auth := services.NewAuthService(repository.NewUserRepository(db), tokens, images)

	if err := run(ctx, auth, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
