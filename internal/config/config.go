// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Cache backend names accepted in CACHE_BACKEND.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration. It is loaded once at startup
// and passed into constructors; nothing else reads the environment.
type Config struct {
	PrimaryWebhookURL  string
	LogWebhookURL      string
	MentionUserID      string
	YouTubeAPIKey      string
	AutomatedRun       bool
	CachePath          string
	CacheBackend       string
	InsecureSkipVerify bool
	LogLevel           string
}

// Load reads configuration from environment variables. A local .env file is
// applied first when present. Missing webhook URLs or the API key are not
// errors; the features they back degrade instead.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cachePath := os.Getenv("CACHE_PATH")
	if cachePath == "" {
		cachePath = "cache.json"
	}

	backend := os.Getenv("CACHE_BACKEND")
	if backend == "" {
		backend = BackendFile
	}
	if backend != BackendFile && backend != BackendSQLite {
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		PrimaryWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
		LogWebhookURL:     os.Getenv("DISCORD_LOG_WEBHOOK_URL"),
		MentionUserID:     os.Getenv("DISCORD_USER_ID"),
		YouTubeAPIKey:     os.Getenv("YOUTUBE_API_KEY"),
		AutomatedRun:      os.Getenv("GITHUB_ACTIONS") == "true",
		CachePath:         cachePath,
		CacheBackend:      backend,
		// Some source platforms sit behind intermediaries with broken
		// certificate chains; verification is opt-in via TLS_VERIFY=true.
		InsecureSkipVerify: os.Getenv("TLS_VERIFY") != "true",
		LogLevel:           logLevel,
	}, nil
}
