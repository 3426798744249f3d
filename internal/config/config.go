// Package config loads the application configuration from the
// environment once at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application-wide configuration. It is loaded once
// from environment variables at startup and treated as immutable.
type Config struct {
	// Object storage
	ContentBucketURL    string // base URL of the news content bucket (trailing slash)
	InterviewsBucketURL string // base URL of the interviews bucket (trailing slash)

	// Fetch
	FetchTimeout       time.Duration
	FetchMaxSize       int64
	FetchMaxConcurrent int

	// Opinions
	OpinionsFile  string
	OpinionsLimit int

	// Uploads
	UploadMaxSize int64

	// Admin gate
	AdminUser     string
	AdminPassword string

	// Rate limit (requests per minute)
	RateLimitGeneral int
	RateLimitOpinion int

	// Server
	ServerPort      string
	DefaultLanguage string

	// CORS
	CORSAllowedOrigin string
}

// Load reads the Config from environment variables. A .env file in the
// working directory is loaded first when present (development
// convenience; real deployments set the environment directly).
// Missing required variables are reported together in one error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.ContentBucketURL = os.Getenv("CONTENT_BUCKET_URL")
	if cfg.ContentBucketURL == "" {
		missing = append(missing, "CONTENT_BUCKET_URL")
	}

	cfg.InterviewsBucketURL = os.Getenv("INTERVIEWS_BUCKET_URL")
	if cfg.InterviewsBucketURL == "" {
		missing = append(missing, "INTERVIEWS_BUCKET_URL")
	}

	cfg.AdminUser = os.Getenv("ADMIN_USER")
	if cfg.AdminUser == "" {
		missing = append(missing, "ADMIN_USER")
	}

	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	if cfg.AdminPassword == "" {
		missing = append(missing, "ADMIN_PASSWORD")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 10*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 2097152)
	cfg.FetchMaxConcurrent = getEnvInt("FETCH_MAX_CONCURRENT", 8)
	cfg.OpinionsFile = getEnvString("OPINIONS_FILE", "opiniones.json")
	cfg.OpinionsLimit = getEnvInt("OPINIONS_LIMIT", 5)
	cfg.UploadMaxSize = getEnvInt64("UPLOAD_MAX_SIZE", 500*1024*1024)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitOpinion = getEnvInt("RATE_LIMIT_OPINION", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.DefaultLanguage = getEnvString("DEFAULT_LANGUAGE", "es")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
