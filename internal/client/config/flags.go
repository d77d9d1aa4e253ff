package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cyphervault/internal/flagx"
)

// parseFlags applies the flags this package owns. Anything else on the
// command line is ignored.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, "driver", "d", "s", "m", "t", "l")

	fs := flag.NewFlagSet("cyphervault", flag.ContinueOnError)

	fs.StringVar(&cfg.StorageDriver, "driver", cfg.StorageDriver, "storage backend (sqlite or postgres)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the vault database")
	fs.StringVar(&cfg.SessionPath, "s", cfg.SessionPath, "path to the session database")
	fs.StringVar(&cfg.GeminiModel, "m", cfg.GeminiModel, "Gemini model name")
	timeout := fs.Int("t", int(cfg.AdvisoryTimeout.Seconds()), "advisory request timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	switch cfg.StorageDriver {
	case DriverSQLite, DriverPostgres:
	default:
		panic(fmt.Sprintf("unknown storage driver %q", cfg.StorageDriver))
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.AdvisoryTimeout = time.Duration(*timeout) * time.Second
		}
	})
}
