package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseDBURL   string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	CORSOrigins     string
	TablePrefix     string
	PublicURL       string // Prefix for local attachment links
	ExportTimezone  string // IANA zone for times printed in exports
	// Inference webhook
	WebhookBaseURL string
	WebhookToken   string
	WebhookTimeout time.Duration
	// Prompt store (REST document database)
	PromptStoreURL  string
	PromptStoreAuth string
	// In-flight guard; empty uses the in-process guard
	RedisURL string
	// Attachment storage
	StorageBackend   string // "local" or "s3"
	StorageLocalPath string
	S3Endpoint       string
	S3Region         string
	S3Bucket         string
	S3AccessKeyID    string
	S3SecretKey      string
	S3UsePathStyle   bool
	S3PublicURL      string
	// Logging
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)
	supabaseURL := getEnv("SUPABASE_URL", "")

	// Construct JWKS URL from Supabase URL
	jwksURL := supabaseURL + "/auth/v1/.well-known/jwks.json"

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		SupabaseURL:     supabaseURL,
		SupabaseDBURL:   getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL: jwksURL,
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:     tablePrefix,
		PublicURL:       getEnv("PUBLIC_URL", ""),
		ExportTimezone:  getEnv("EXPORT_TIMEZONE", "UTC"),

		WebhookBaseURL: getEnv("WEBHOOK_BASE_URL", "http://localhost:5678"),
		WebhookToken:   getEnv("WEBHOOK_TOKEN", ""),
		WebhookTimeout: getDuration("WEBHOOK_TIMEOUT", 120*time.Second),

		PromptStoreURL:  getEnv("PROMPT_STORE_URL", ""),
		PromptStoreAuth: getEnv("PROMPT_STORE_AUTH", ""),

		RedisURL: getEnv("REDIS_URL", ""),

		StorageBackend:   getEnv("STORAGE_BACKEND", "local"),
		StorageLocalPath: getEnv("STORAGE_LOCAL_PATH", "./data/attachments"),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		S3Region:         getEnv("S3_REGION", "us-east-1"),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		S3AccessKeyID:    getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:      getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3UsePathStyle:   getEnv("S3_USE_PATH_STYLE", "false") == "true",
		S3PublicURL:      getEnv("S3_PUBLIC_URL", ""),

		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getInt("LOG_MAX_FILES", 10),

		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
