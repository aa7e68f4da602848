package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from environment variables or config files.
type Config struct {
	AppEnv          string        `mapstructure:"APP_ENV" validate:"required,oneof=development staging production test"`
	HTTPAddr        string        `mapstructure:"HTTP_ADDR" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"required"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"required,oneof=json console"`

	// DatabaseURL is a postgres URL or sqlite://<path>.
	DatabaseURL string `mapstructure:"DATABASE_URL" validate:"required,url|uri"`
	AutoMigrate bool   `mapstructure:"AUTO_MIGRATE"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL" validate:"required"`

	StorageBackend string `mapstructure:"STORAGE_BACKEND" validate:"required,oneof=local s3"`
	MediaRoot      string `mapstructure:"MEDIA_ROOT" validate:"required_if=StorageBackend local"`
	MediaURL       string `mapstructure:"MEDIA_URL" validate:"required,startswith=/"`
	MaxUploadBytes int64  `mapstructure:"MAX_UPLOAD_BYTES" validate:"gte=1024"`

	S3Bucket    string `mapstructure:"S3_BUCKET" validate:"required_if=StorageBackend s3"`
	S3Region    string `mapstructure:"S3_REGION" validate:"required_if=StorageBackend s3"`
	S3Endpoint  string `mapstructure:"S3_ENDPOINT" validate:"omitempty,url"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3PublicURL string `mapstructure:"S3_PUBLIC_URL" validate:"omitempty,url"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS" validate:"gte=0"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST" validate:"gte=0"`

	GoMaxProcs int `mapstructure:"GOMAXPROCS" validate:"gte=0,lte=4096"`
}

// IsDev reports whether insecure development defaults are acceptable.
func (c *Config) IsDev() bool {
	return c.AppEnv == "development" || c.AppEnv == "test"
}

var (
	cfg      *Config
	validate = validator.New(validator.WithRequiredStructEnabled())
)

const devJWTSecret = "change-me-in-production-please"

// Load initializes configuration using Viper. It loads from .env if present,
// applies defaults, binds env vars, and validates the result.
func Load() (*Config, error) {
	// Load .env if present (non-fatal)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_ADDR", "0.0.0.0:8080")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("AUTO_MIGRATE", false)
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("STORAGE_BACKEND", "local")
	v.SetDefault("MEDIA_ROOT", "./media")
	v.SetDefault("MEDIA_URL", "/media/")
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("GOMAXPROCS", 0)

	// Optional config file
	_ = v.ReadInConfig()

	keys := []string{
		"APP_ENV",
		"HTTP_ADDR",
		"SHUTDOWN_TIMEOUT",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"DATABASE_URL",
		"AUTO_MIGRATE",
		"JWT_SECRET",
		"TOKEN_TTL",
		"STORAGE_BACKEND",
		"MEDIA_ROOT",
		"MEDIA_URL",
		"MAX_UPLOAD_BYTES",
		"S3_BUCKET",
		"S3_REGION",
		"S3_ENDPOINT",
		"S3_ACCESS_KEY",
		"S3_SECRET_KEY",
		"S3_PUBLIC_URL",
		"RATE_LIMIT_RPS",
		"RATE_LIMIT_BURST",
		"GOMAXPROCS",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	// Parse duration types that may come as string
	for key, dst := range map[string]*time.Duration{
		"SHUTDOWN_TIMEOUT": &c.ShutdownTimeout,
		"TOKEN_TTL":        &c.TokenTTL,
	} {
		if s := v.GetString(key); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if c.JWTSecret == "" {
		if !c.IsDev() {
			return nil, fmt.Errorf("invalid configuration: JWT_SECRET is required in %s", c.AppEnv)
		}
		c.JWTSecret = devJWTSecret
	}

	if c.GoMaxProcs > 0 {
		runtime.GOMAXPROCS(c.GoMaxProcs)
	}

	cfg = &c
	return cfg, nil
}

// MustLoad loads configuration or exits the process on failure.
func MustLoad() *Config {
	c, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return c
}

// Get returns the loaded configuration. Panics if not loaded.
func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call config.Load or config.MustLoad first")
	}
	return cfg
}
