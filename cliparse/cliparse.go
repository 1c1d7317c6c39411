package cliparse

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           int      `yaml:"port"`
	DatabaseURL    string   `yaml:"database_url"`
	DatabaseType   string   `yaml:"database_type"`
	UploadDir      string   `yaml:"upload_dir"`
	BatchSize      int      `yaml:"batch_size"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
	LogLevel       string   `yaml:"log_level"`
	LogFormat      string   `yaml:"log_format"`
	CORSOrigins    []string `yaml:"cors_origins"`
}

// ConfigEnv names the environment variable holding a YAML config path.
const ConfigEnv = "PUBLICPULSE_CONFIG"

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Port:           8000,
		DatabaseURL:    "./data/ppp.db",
		DatabaseType:   "sqlite",
		UploadDir:      "./data/uploads",
		BatchSize:      500,
		MaxUploadBytes: 256 << 20,
		LogLevel:       "info",
		LogFormat:      "console",
		CORSOrigins:    []string{"http://localhost:3000"},
	}
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()

	// Network config (can be CLI args, env, or config file)
	fs.IntP("port", "p", d.Port, "Server port")
	fs.StringP("database-url", "d", d.DatabaseURL, "Database URL or SQLite file path")
	fs.StringP("database-type", "t", d.DatabaseType, "Database type (sqlite or postgres)")

	fs.String("upload-dir", d.UploadDir, "Directory for uploaded files")
	fs.Int("batch-size", d.BatchSize, "Rows per insert batch during ingest")
	fs.Int64("max-upload-bytes", d.MaxUploadBytes, "Largest accepted upload in bytes")
	fs.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-format", d.LogFormat, "Log format (console or json)")
	fs.StringSlice("cors-origins", d.CORSOrigins, "Allowed CORS origins")
	fs.StringP("config", "c", "", "Path to a YAML config file")
}

// ParseFlags parses args and resolves the configuration
func ParseFlags(args []string) (Config, error) {
	fs := pflag.NewFlagSet("publicpulse", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return Load(fs)
}

// Load resolves the configuration from flags already parsed into fs.
// Precedence, lowest first: defaults, YAML file, environment, explicit flags.
func Load(fs *pflag.FlagSet) (Config, error) {
	cfg := Defaults()

	path, _ := fs.GetString("config")
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := applyFlags(fs, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from paths (default ".env") into the
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// loadFile overlays the YAML file at path onto cfg. ${VAR} references in
// the file are expanded from the environment.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}
	return nil
}

// Fall back to environment variables
func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("invalid PORT env variable")
		}
		cfg.Port = port
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("DATABASE_TYPE"); v != "" {
		cfg.DatabaseType = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		cfg.UploadDir = v
	}
	if v := os.Getenv("INGEST_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("invalid INGEST_BATCH_SIZE env variable")
		}
		cfg.BatchSize = n
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.New("invalid MAX_UPLOAD_BYTES env variable")
		}
		cfg.MaxUploadBytes = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	return nil
}

// CLI flags override everything else, but only when given
func applyFlags(fs *pflag.FlagSet, cfg *Config) error {
	var err error
	set := func(name string, apply func() error) {
		if err == nil && fs.Changed(name) {
			err = apply()
		}
	}

	set("port", func() (e error) { cfg.Port, e = fs.GetInt("port"); return })
	set("database-url", func() (e error) { cfg.DatabaseURL, e = fs.GetString("database-url"); return })
	set("database-type", func() (e error) { cfg.DatabaseType, e = fs.GetString("database-type"); return })
	set("upload-dir", func() (e error) { cfg.UploadDir, e = fs.GetString("upload-dir"); return })
	set("batch-size", func() (e error) { cfg.BatchSize, e = fs.GetInt("batch-size"); return })
	set("max-upload-bytes", func() (e error) { cfg.MaxUploadBytes, e = fs.GetInt64("max-upload-bytes"); return })
	set("log-level", func() (e error) { cfg.LogLevel, e = fs.GetString("log-level"); return })
	set("log-format", func() (e error) { cfg.LogFormat, e = fs.GetString("log-format"); return })
	set("cors-origins", func() (e error) { cfg.CORSOrigins, e = fs.GetStringSlice("cors-origins"); return })
	return err
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.DatabaseType {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid database type %q (use sqlite or postgres)", c.DatabaseType)
	}
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if c.UploadDir == "" {
		return errors.New("upload directory required")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("invalid batch size %d", c.BatchSize)
	}
	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("invalid max upload bytes %d", c.MaxUploadBytes)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q (use console or json)", c.LogFormat)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
