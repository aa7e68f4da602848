package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/recipebook/api/internal/api"
	"github.com/recipebook/api/internal/api/handlers"
	mw "github.com/recipebook/api/internal/api/middleware"
	"github.com/recipebook/api/internal/api/validators"
	"github.com/recipebook/api/internal/repository"
	"github.com/recipebook/api/internal/services"
	"github.com/recipebook/api/internal/storage"
	"github.com/recipebook/api/pkg/config"
	"github.com/recipebook/api/pkg/database"
	"github.com/recipebook/api/pkg/logger"

	_ "github.com/recipebook/api/docs"
)

// @title           Recipe API
// @version         1.0
// @description     Recipes, tags and ingredients owned per user.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token.

func main() {
	cfg := config.MustLoad()

	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("starting recipe api",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("storage", cfg.StorageBackend),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.AppEnv == "development")
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get sql.DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		log.Info("schema migrated")
	}

	images, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal("failed to set up image storage", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	tagRepo := repository.NewTagRepository(db)
	ingredientRepo := repository.NewIngredientRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)

	tokens := services.NewJWTIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	authSvc := services.NewAuthService(userRepo, tokens, images)
	recipeSvc := services.NewRecipeService(db, recipeRepo, tagRepo, ingredientRepo, images)

	v := validators.New()

	limiter := mw.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx, 5*time.Minute, 10*time.Minute)

	deps := api.Dependencies{
		Tokens:             tokens,
		Users:              authSvc,
		RateLimiter:        limiter,
		HealthHandler:      handlers.NewHealthHandler(sqlDB),
		UsersHandler:       handlers.NewUsersHandler(authSvc, v),
		RecipesHandler:     handlers.NewRecipesHandler(recipeSvc, v, cfg.MaxUploadBytes),
		TagsHandler:        handlers.NewTagsHandler(services.NewTagService(tagRepo), v),
		IngredientsHandler: handlers.NewIngredientsHandler(services.NewIngredientService(ingredientRepo), v),
	}
	if local, ok := images.(*storage.LocalStore); ok {
		deps.Media = local
		deps.MediaURL = cfg.MediaURL
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
