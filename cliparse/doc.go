// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Commands that own their flag set register the flags and load afterwards:

	cliparse.RegisterFlags(cmd.PersistentFlags())
	// after parsing
	cfg, err := cliparse.Load(cmd.Flags())

# Config Fields

  - Port: Server listen port (default: 8000)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - DatabaseURL: SQLite file path or PostgreSQL URL (default: ./data/ppp.db)
  - UploadDir: Where uploaded files are kept (default: ./data/uploads)
  - BatchSize: Rows per insert during ingest (default: 500)
  - MaxUploadBytes: Upload size limit (default: 256 MiB)
  - LogLevel, LogFormat: zap level and console/json encoding
  - CORSOrigins: Allowed browser origins

# Sources

Values are layered, later sources winning:

 1. Defaults
 2. YAML file from --config or PUBLICPULSE_CONFIG, with ${VAR} expansion
 3. Environment variables
 4. Flags given on the command line

LoadDotEnv reads a .env file into the environment first without
overriding variables that are already set.

# CLI Flags

	-p, --port              Server port
	-d, --database-url      Database URL
	-t, --database-type     sqlite or postgres
	    --upload-dir        Upload directory
	    --batch-size        Rows per insert batch
	    --max-upload-bytes  Upload size limit
	    --log-level         debug, info, warn, error
	    --log-format        console or json
	    --cors-origins      Comma-separated origins
	-c, --config            YAML config file

# Environment Variables

	PORT              → --port
	DATABASE_URL      → --database-url
	DATABASE_TYPE     → --database-type
	UPLOAD_DIR        → --upload-dir
	INGEST_BATCH_SIZE → --batch-size
	MAX_UPLOAD_BYTES  → --max-upload-bytes
	LOG_LEVEL         → --log-level
	LOG_FORMAT        → --log-format
	CORS_ORIGINS      → --cors-origins

# Validation

Load returns an error for an out-of-range port, an unknown database type or
log setting, a non-positive batch size or upload limit, or an empty
database URL or upload directory.
*/
package cliparse
