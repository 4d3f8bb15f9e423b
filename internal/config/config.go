package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	MediaPath       string
	SessionDuration time.Duration
	UploadMaxSize   int64
	CSRFSecret      string
	InviteSecret    string
	InviteDuration  time.Duration
	AppBaseURL      string

	// Amazon SES (email disabled when SESFromEmail is empty)
	SESRegion    string
	SESFromEmail string
	SESFromName  string

	// Google sign-in for members
	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./familyvault.db"),
		DatabaseURL:     getEnv("DB_URL", ""),
		MediaPath:       getEnv("MEDIA_PATH", "./media"),
		SessionDuration: 24 * time.Hour,
		UploadMaxSize:   getEnvInt64("UPLOAD_MAX_SIZE", 25*1024*1024),
		CSRFSecret:      getEnv("CSRF_SECRET", "familyvault-dev-secret"),
		InviteSecret:    getEnv("INVITE_SECRET", "familyvault-dev-invite-secret"),
		InviteDuration:  7 * 24 * time.Hour,
		AppBaseURL:      getEnv("APP_BASE_URL", "http://localhost:8080"),

		SESRegion:    getEnv("SES_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "FamilyVault"),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", ""),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt64 reads an integer environment variable or returns a default value
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
