// Package config collects the service settings from .env, the environment
// and command line flags, in that order of precedence (flags win).
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type (
	// Storage selects and parameterises the card store.
	Storage struct {
		Type           string
		LocalPath      string
		DataSourceName string
		S3Bucket       string
	}

	// Generation configures the Gemini client.
	Generation struct {
		APIKey       string
		TextModel    string
		ImageModel   string
		Language     string
		RateInterval time.Duration
	}

	// Export configures the headless PNG capture.
	Export struct {
		BrowserBin  string
		CacheTTL    time.Duration
		TailwindURL string
	}

	// Auth configures GitHub sign-in and token signing.
	Auth struct {
		JWTSecret          string
		GitHubClientID     string
		GitHubClientSecret string
		GitHubRedirectURL  string
	}

	Config struct {
		Listen   string
		LogLevel string

		Storage    Storage
		Generation Generation
		Export     Export
		Auth       Auth
	}
)

const (
	DefaultListen         = ":3002"
	DefaultTextModel      = "gemini-2.5-flash"
	DefaultImageModel     = "gemini-2.5-flash-image"
	DefaultLanguage       = "English"
	DefaultRateInterval   = 2 * time.Second
	DefaultExportCacheTTL = 10 * time.Minute
	DefaultTailwindURL    = "https://cdn.tailwindcss.com"
)

// Load reads .env (if present), the environment and args.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}
	return FromEnv(os.Getenv, args)
}

// FromEnv builds a Config from getenv and args without touching the process
// environment.
func FromEnv(getenv func(string) string, args []string) (*Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Storage: Storage{
			Type:           env("STORAGE_TYPE", "memory"),
			LocalPath:      env("LOCAL_STORAGE_PATH", "./data"),
			DataSourceName: env("DATA_SOURCE_NAME", "cards.db"),
			S3Bucket:       env("S3_BUCKET_NAME", ""),
		},
		Generation: Generation{
			APIKey:     env("GEMINI_API_KEY", ""),
			TextModel:  env("GEMINI_TEXT_MODEL", DefaultTextModel),
			ImageModel: env("GEMINI_IMAGE_MODEL", DefaultImageModel),
			Language:   env("CARD_LANGUAGE", DefaultLanguage),
		},
		Export: Export{
			BrowserBin:  env("EXPORT_BROWSER_BIN", ""),
			TailwindURL: env("TAILWIND_URL", DefaultTailwindURL),
		},
		Auth: Auth{
			JWTSecret:          env("JWT_SECRET", ""),
			GitHubClientID:     env("GITHUB_CLIENT_ID", ""),
			GitHubClientSecret: env("GITHUB_CLIENT_SECRET", ""),
			GitHubRedirectURL:  env("GITHUB_REDIRECT_URL", ""),
		},
	}

	var err error
	if cfg.Generation.RateInterval, err = duration(env("GENERATION_RATE_INTERVAL", ""), DefaultRateInterval); err != nil {
		return nil, fmt.Errorf("GENERATION_RATE_INTERVAL: %w", err)
	}
	if cfg.Export.CacheTTL, err = duration(env("EXPORT_CACHE_TTL", ""), DefaultExportCacheTTL); err != nil {
		return nil, fmt.Errorf("EXPORT_CACHE_TTL: %w", err)
	}

	fs := flag.NewFlagSet("cardstudio", flag.ContinueOnError)
	fs.StringVar(&cfg.Listen, "listen", env("LISTEN", DefaultListen), "The address to listen on.")
	fs.StringVar(&cfg.LogLevel, "loglevel", env("LOG_LEVEL", "info"), "The log level (debug, info, warn, error).")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "s3" && cfg.Storage.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET_NAME environment variable must be set for s3 storage type")
	}
	return cfg, nil
}

func duration(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	return time.ParseDuration(raw)
}
