package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/cyphervault/internal/client/advisory"
	"github.com/dmitrijs2005/cyphervault/internal/common"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	StorageDriver string
	DatabasePath  string
	PostgresDSN   string

	SessionPath string
	SessionTTL  time.Duration

	GeminiAPIKey      string
	GeminiModel       string
	AdvisoryTimeout   time.Duration
	AdvisoryPerMinute int

	BackupDir      string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string

	LogLevel string
}

func (c *Config) LoadDefaults() {
	c.StorageDriver = DriverSQLite
	c.DatabasePath = "vault.db"
	c.SessionPath = filepath.Join(os.TempDir(), common.AppName, "session.db")
	c.SessionTTL = 12 * time.Hour
	c.GeminiModel = advisory.DefaultModel
	c.AdvisoryTimeout = advisory.DefaultTimeout
	c.AdvisoryPerMinute = 10
	c.BackupDir = "backups"
	c.S3Region = "us-east-1"
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, the environment, the optional
// JSON file and os.Args. Malformed JSON or flag values panic.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	loadDotEnv()
	parseEnv(cfg, os.LookupEnv)
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}
