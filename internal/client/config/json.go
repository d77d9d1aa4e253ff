package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/cyphervault/internal/flagx"
	"github.com/dmitrijs2005/cyphervault/internal/timex"
)

// JsonConfig mirrors Config for unmarshalling. Absent or zero fields leave
// the current value alone.
type JsonConfig struct {
	StorageDriver string `json:"storage_driver"`
	DatabasePath  string `json:"database_path"`
	PostgresDSN   string `json:"postgres_dsn"`

	SessionPath string         `json:"session_path"`
	SessionTTL  timex.Duration `json:"session_ttl"`

	GeminiAPIKey      string         `json:"gemini_api_key"`
	GeminiModel       string         `json:"gemini_model"`
	AdvisoryTimeout   timex.Duration `json:"advisory_timeout"`
	AdvisoryPerMinute int            `json:"advisory_per_minute"`

	BackupDir      string `json:"backup_dir"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`

	LogLevel string `json:"log_level"`
}

func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.StorageDriver, jc.StorageDriver)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.PostgresDSN, jc.PostgresDSN)
	setString(&cfg.SessionPath, jc.SessionPath)
	setDuration(&cfg.SessionTTL, jc.SessionTTL)
	setString(&cfg.GeminiAPIKey, jc.GeminiAPIKey)
	setString(&cfg.GeminiModel, jc.GeminiModel)
	setDuration(&cfg.AdvisoryTimeout, jc.AdvisoryTimeout)
	if jc.AdvisoryPerMinute != 0 {
		cfg.AdvisoryPerMinute = jc.AdvisoryPerMinute
	}
	setString(&cfg.BackupDir, jc.BackupDir)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.LogLevel, jc.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
