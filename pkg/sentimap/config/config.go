package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/sentimap/pkg/sentimap/internalerr"
)

// Job store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreValkey = "valkey"
)

// Config is the service configuration.
type Config struct {
	LogLevel       string         `yaml:"log_level"`
	VocabularyPath string         `yaml:"vocabulary"`
	LexiconPath    string         `yaml:"lexicon"`
	Server         ServerConfig   `yaml:"server"`
	Analysis       AnalysisConfig `yaml:"analysis"`
	Jobs           JobsConfig     `yaml:"jobs"`
	Valkey         ValkeyConfig   `yaml:"valkey"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	CORSOrigins    []string `yaml:"cors_origins"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
}

// AnalysisConfig configures the engine.
type AnalysisConfig struct {
	Workers      int     `yaml:"workers"`
	ExtractShare float64 `yaml:"extract_share"`
	// Segmenter is "punkt" or "simple".
	Segmenter string `yaml:"segmenter"`
}

// JobsConfig configures job state retention.
type JobsConfig struct {
	Store         string        `yaml:"store"`
	SQLitePath    string        `yaml:"sqlite_path"`
	Retention     time.Duration `yaml:"retention"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// ValkeyConfig configures the valkey job store.
type ValkeyConfig struct {
	Address   string `yaml:"address"`
	Password  string `yaml:"password"`
	TLS       bool   `yaml:"tls"`
	KeyPrefix string `yaml:"key_prefix"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr:           ":5000",
			CORSOrigins:    []string{"*"},
			MaxUploadBytes: 32 << 20,
		},
		Analysis: AnalysisConfig{
			ExtractShare: 0.8,
			Segmenter:    "punkt",
		},
		Jobs: JobsConfig{
			Store:         StoreMemory,
			SQLitePath:    "sentimap.db",
			Retention:     time.Hour,
			SweepInterval: time.Minute,
		},
		Valkey: ValkeyConfig{
			KeyPrefix: "sentimap:job:",
		},
	}
}

// Load reads a YAML config over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse config %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// LoadEnv loads a .env file into the process environment. A missing file
// only logs a warning.
func LoadEnv(path string) {
	if path == "" {
		return
	}
	if err := gotenv.Load(path); err != nil {
		slog.Warn("[Config] No .env file found, using OS environment", slog.String("path", path))
	}
}

// ApplyEnv overrides cfg from SENTIMAP_* variables read through lookup
// (normally os.LookupEnv).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []string
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s=%q", key, v))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s=%q", key, v))
				return
			}
			*dst = d
		}
	}

	str("SENTIMAP_LOG_LEVEL", &c.LogLevel)
	str("SENTIMAP_VOCABULARY", &c.VocabularyPath)
	str("SENTIMAP_LEXICON", &c.LexiconPath)
	str("SENTIMAP_ADDR", &c.Server.Addr)
	if v, ok := lookup("SENTIMAP_CORS_ORIGINS"); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	integer("SENTIMAP_WORKERS", &c.Analysis.Workers)
	str("SENTIMAP_SEGMENTER", &c.Analysis.Segmenter)
	str("SENTIMAP_JOB_STORE", &c.Jobs.Store)
	str("SENTIMAP_SQLITE_PATH", &c.Jobs.SQLitePath)
	duration("SENTIMAP_RETENTION", &c.Jobs.Retention)
	duration("SENTIMAP_SWEEP_INTERVAL", &c.Jobs.SweepInterval)
	// The valkey client variables follow the names valkey deployments
	// already export.
	str("VALKEY_INIT_ADDRESS", &c.Valkey.Address)
	str("SENTIMAP_VALKEY_ADDRESS", &c.Valkey.Address)
	str("VALKEY_PASSWORD", &c.Valkey.Password)
	str("SENTIMAP_VALKEY_PASSWORD", &c.Valkey.Password)
	if v, ok := lookup("VALKEY_TLS"); ok && v != "" {
		c.Valkey.TLS = v == "true"
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: bad environment values: %s", internalerr.ErrInvalidConfig, strings.Join(errs, ", "))
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks value ranges and backend names.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", internalerr.ErrInvalidConfig, c.LogLevel)
	}
	if c.Analysis.ExtractShare <= 0 || c.Analysis.ExtractShare > 1 {
		return fmt.Errorf("%w: extract_share must be in (0, 1], got %v", internalerr.ErrInvalidConfig, c.Analysis.ExtractShare)
	}
	switch c.Analysis.Segmenter {
	case "punkt", "simple":
	default:
		return fmt.Errorf("%w: unknown segmenter %q", internalerr.ErrInvalidConfig, c.Analysis.Segmenter)
	}
	switch c.Jobs.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.Jobs.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite store needs jobs.sqlite_path", internalerr.ErrInvalidConfig)
		}
	case StoreValkey:
		if c.Valkey.Address == "" {
			return fmt.Errorf("%w: valkey store needs valkey.address", internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown job store %q", internalerr.ErrInvalidConfig, c.Jobs.Store)
	}
	if c.Jobs.Retention <= 0 {
		return fmt.Errorf("%w: jobs.retention must be positive", internalerr.ErrInvalidConfig)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: server.max_upload_bytes must be positive", internalerr.ErrInvalidConfig)
	}
	return nil
}
