package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// dotEnvFiles are loaded in priority order. godotenv never overwrites
// variables that are already set, so the process environment always wins
// and .env.local wins over .env.
var dotEnvFiles = []string{".env.local", ".env"}

// loadDotEnv loads the dotenv files that exist and returns their names.
func loadDotEnv() []string {
	var loaded []string
	for _, f := range dotEnvFiles {
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}

// parseEnv overlays NOTSY_* environment variables onto config. Variables
// that are unset or fail to parse leave the current value in place.
func parseEnv(config *Config) {
	loadDotEnv()

	envString("NOTSY_HTTP_ADDR", &config.EndpointAddrHTTP)
	envString("NOTSY_SQL_DB", &config.DatabaseDSN)
	envString("NOTSY_STORAGE_MODE", &config.StorageMode)
	envBool("NOTSY_DATABASE_IAM_AUTH", &config.DatabaseIAMAuth)
	envString("NOTSY_CLIENT_ID", &config.ClientID)
	envString("NOTSY_S3_ROOT_USER", &config.S3RootUser)
	envString("NOTSY_S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("NOTSY_CONTAINER_NAME", &config.S3Bucket)
	envString("NOTSY_S3_REGION", &config.S3Region)
	envString("NOTSY_STORAGE_ACCOUNT", &config.S3BaseEndpoint)
	envString("NOTSY_S3_PUBLIC_URL", &config.S3PublicURL)
	envInt64("NOTSY_MAX_IMAGE_BYTES", &config.MaxImageBytes)
	envInt("NOTSY_RATE_LIMIT_RPS", &config.RateLimitRPS)
	envInt("NOTSY_RATE_LIMIT_BURST", &config.RateLimitBurst)
	envString("NOTSY_CORS_ALLOWED_ORIGINS", &config.CORSAllowedOrigins)
	envDuration("NOTSY_SHUTDOWN_TIMEOUT", &config.ShutdownTimeout)
	envString("NOTSY_LOG_LEVEL", &config.LogLevel)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envInt64(key string, dst *int64) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
