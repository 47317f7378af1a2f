// ===============================
// internal/config/config.go - Application Configuration
// ===============================

package config

import (
	"fmt"
	"os"
	"strings"
)

// Catalog backend variants.
const (
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

// R2Config holds Cloudflare R2 configuration for thumbnail uploads.
type R2Config struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

// Enabled reports whether enough R2 configuration is present to serve uploads.
func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.AccessKey != "" && r.SecretKey != ""
}

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Environment string
	Port        string

	// Catalog backend: postgres (default), firestore, or memory
	CatalogBackend string

	// Database configuration (postgres backend)
	DatabaseURL string

	// Firebase configuration (firestore backend and admin auth)
	FirebaseProjectID   string
	FirebaseCredentials string // Path to service account JSON file

	// R2 storage configuration (thumbnail uploads, optional)
	R2Config R2Config

	// CORS configuration
	AllowedOrigins []string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	config := &Config{
		Environment:         getEnv("GIN_MODE", "debug"),
		Port:                getEnv("PORT", "8080"),
		CatalogBackend:      getEnv("CATALOG_BACKEND", BackendPostgres),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		FirebaseProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
		R2Config: R2Config{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", "seoulflixmedia"),
		},
	}

	// Set public URL for R2
	if config.R2Config.AccountID != "" && config.R2Config.BucketName != "" {
		config.R2Config.PublicURL = fmt.Sprintf("https://%s.%s.r2.cloudflarestorage.com",
			config.R2Config.BucketName, config.R2Config.AccountID)
	}

	// Parse allowed origins
	originsStr := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	config.AllowedOrigins = strings.Split(originsStr, ",")
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	// Validate required configuration per backend
	switch config.CatalogBackend {
	case BackendPostgres:
		if config.DatabaseURL == "" {
			return nil, ErrMissingDatabaseURL
		}
	case BackendFirestore:
		if config.FirebaseProjectID == "" {
			return nil, ErrMissingFirebaseConfig
		}
	case BackendMemory:
		// no external store
	default:
		return nil, ConfigError{Message: fmt.Sprintf(
			"CATALOG_BACKEND must be one of %s, %s, %s",
			BackendPostgres, BackendFirestore, BackendMemory)}
	}

	return config, nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Configuration errors
var (
	ErrMissingDatabaseURL    = ConfigError{Message: "DATABASE_URL environment variable is required"}
	ErrMissingFirebaseConfig = ConfigError{Message: "FIREBASE_PROJECT_ID is required for the firestore backend"}
)

// ConfigError represents a configuration error. Fatal at startup; the
// process never serves traffic with incomplete configuration.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
