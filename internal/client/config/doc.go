// Package config loads runtime settings for the cyphervault CLI.
//
// Sources are applied in order, later ones overriding earlier ones:
//
//  1. Built-in defaults, see (*Config).LoadDefaults.
//  2. Environment variables. A .env file in the working directory is loaded
//     first when present.
//  3. A JSON file named by -c or -config.
//  4. Command-line flags.
//
// Flags:
//
//	-driver string  storage backend: sqlite or postgres
//	-d string       path to the SQLite vault database
//	-s string       path to the SQLite session database
//	-m string       Gemini model name
//	-t int          advisory request timeout (seconds)
//	-l string       log level: debug, info, warn, error
//
// JSON durations accept either "20s"-style strings or integer nanoseconds:
//
//	{
//	  "storage_driver": "sqlite",
//	  "database_path": "vault.db",
//	  "session_ttl": "12h",
//	  "advisory_timeout": "20s",
//	  "s3_bucket": "vault-backups"
//	}
package config
