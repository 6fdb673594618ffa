// Package config loads the receptionist gateway configuration from defaults,
// an optional YAML file and the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every structured environment override.
const EnvPrefix = "RECEPTIONIST_"

// DefaultPath is the config file read when no path is given.
const DefaultPath = "config.yaml"

const (
	StoreSupabase = "supabase"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Completion CompletionConfig `koanf:"completion"`
	Store      StoreConfig      `koanf:"store"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Log        LogConfig        `koanf:"log"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// CompletionConfig configures the upstream chat-completions API.
type CompletionConfig struct {
	BaseURL     string        `koanf:"base_url"`
	APIKey      string        `koanf:"api_key"`
	Model       string        `koanf:"model"`
	Temperature float64       `koanf:"temperature"`
	Timeout     time.Duration `koanf:"timeout"`
}

// StoreConfig selects and configures the tenant store.
type StoreConfig struct {
	Driver   string         `koanf:"driver"` // supabase, postgres, sqlite, memory
	Supabase SupabaseConfig `koanf:"supabase"`
	Postgres PostgresConfig `koanf:"postgres"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Memory   MemoryConfig   `koanf:"memory"`
}

type SupabaseConfig struct {
	URL        string `koanf:"url"`
	ServiceKey string `koanf:"service_key"`
	Table      string `koanf:"table"`
}

type PostgresConfig struct {
	DSN   string `koanf:"dsn"`
	Table string `koanf:"table"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// MemoryConfig declares tenants inline; each entry is a full company record.
type MemoryConfig struct {
	Tenants []map[string]any `koanf:"tenants"`
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, text
}

// legacyEnv maps the conventional deployment environment names to
// config keys. RECEPTIONIST_ variables take precedence over these.
var legacyEnv = map[string]string{
	"OPENAI_API_KEY":       "completion.api_key",
	"SUPABASE_URL":         "store.supabase.url",
	"SUPABASE_SERVICE_KEY": "store.supabase.service_key",
	"DATABASE_URL":         "store.postgres.dsn",
	"PORT":                 "server.port",
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads configuration. An empty path means DefaultPath; a missing file
// is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	k := koanf.New(".")

	k.Set("server.port", 8080)
	k.Set("server.request_timeout", 45*time.Second)
	k.Set("server.shutdown_timeout", 15*time.Second)
	k.Set("completion.base_url", "https://api.openai.com/v1")
	k.Set("completion.model", "gpt-5")
	k.Set("completion.temperature", 0.5)
	k.Set("completion.timeout", 30*time.Second)
	k.Set("store.driver", StoreSupabase)
	k.Set("store.supabase.table", "companies")
	k.Set("store.postgres.table", "companies")
	k.Set("store.sqlite.path", "./data/receptionist.db")
	k.Set("telemetry.service_name", "receptionist-gateway")
	k.Set("log.level", "info")
	k.Set("log.format", "json")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// Empty variables are skipped so they never clobber defaults.
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return legacyEnv[key], value
	}), nil); err != nil {
		return nil, err
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return strings.Replace(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "__", ".", -1), value
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.Completion.APIKey = substituteEnvVars(cfg.Completion.APIKey)
	cfg.Completion.BaseURL = substituteEnvVars(cfg.Completion.BaseURL)
	cfg.Store.Supabase.URL = substituteEnvVars(cfg.Store.Supabase.URL)
	cfg.Store.Supabase.ServiceKey = substituteEnvVars(cfg.Store.Supabase.ServiceKey)
	cfg.Store.Postgres.DSN = substituteEnvVars(cfg.Store.Postgres.DSN)
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the process cannot run with at all.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreSupabase, StorePostgres, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Completion.Timeout <= 0 {
		return fmt.Errorf("completion timeout must be positive, got %s", c.Completion.Timeout)
	}
	if c.Completion.Temperature < 0 || c.Completion.Temperature > 2 {
		return fmt.Errorf("completion temperature %v out of range [0, 2]", c.Completion.Temperature)
	}
	return nil
}

// Missing lists required settings that are unset. The gateway still starts
// without them, but requests depending on them fail.
func (c *Config) Missing() []string {
	var missing []string
	if c.Completion.APIKey == "" {
		missing = append(missing, "completion.api_key (OPENAI_API_KEY)")
	}
	switch c.Store.Driver {
	case StoreSupabase:
		if c.Store.Supabase.URL == "" {
			missing = append(missing, "store.supabase.url (SUPABASE_URL)")
		}
		if c.Store.Supabase.ServiceKey == "" {
			missing = append(missing, "store.supabase.service_key (SUPABASE_SERVICE_KEY)")
		}
	case StorePostgres:
		if c.Store.Postgres.DSN == "" {
			missing = append(missing, "store.postgres.dsn (DATABASE_URL)")
		}
	case StoreSQLite:
		if c.Store.SQLite.Path == "" {
			missing = append(missing, "store.sqlite.path")
		}
	}
	return missing
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
