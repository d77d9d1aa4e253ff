package config

import (
	"strings"

	"github.com/joho/godotenv"
)

type lookupFunc func(key string) (string, bool)

// loadDotEnv reads .env into the process environment. Variables already set
// win, and a missing file is not an error.
func loadDotEnv() {
	_ = godotenv.Load()
}

func parseEnv(cfg *Config, lookup lookupFunc) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				return
			}
		}
	}

	str(&cfg.StorageDriver, "CYPHERVAULT_STORAGE")
	str(&cfg.PostgresDSN, "CYPHERVAULT_PG_DSN")
	str(&cfg.GeminiAPIKey, "API_KEY", "GEMINI_API_KEY")
	str(&cfg.S3Bucket, "CYPHERVAULT_S3_BUCKET")
	str(&cfg.S3Region, "CYPHERVAULT_S3_REGION")
	str(&cfg.S3BaseEndpoint, "CYPHERVAULT_S3_BASE_ENDPOINT")
	str(&cfg.S3AccessKey, "CYPHERVAULT_S3_ACCESS_KEY")
	str(&cfg.S3SecretKey, "CYPHERVAULT_S3_SECRET_KEY")
	str(&cfg.LogLevel, "CYPHERVAULT_LOG_LEVEL")
}
