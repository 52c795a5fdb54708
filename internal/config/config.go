package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/service"
)

// EnvPrefix prefixes every environment variable that overrides a config key, so
// training.seed is read from CARPRICE_TRAINING_SEED.
const EnvPrefix = "CARPRICE"

// Environments.
const (
	EnvLocal = "local"
	EnvCloud = "cloud"
)

// Storage backends.
const (
	BackendFS = "fs"
	BackendS3 = "s3"
)

// Config is the full application configuration.
type Config struct {
	Environment string         `mapstructure:"environment"`
	Logging     LoggingConfig  `mapstructure:"logging"`
	Server      ServerConfig   `mapstructure:"server"`
	Storage     StorageConfig  `mapstructure:"storage"`
	Database    DatabaseConfig `mapstructure:"database"`
	Model       ModelConfig    `mapstructure:"model"`
	Training    TrainingConfig `mapstructure:"training"`
	Schema      SchemaConfig   `mapstructure:"schema"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	APIKey          string        `mapstructure:"api_key"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	// TLSDir enables HTTPS with a self-signed certificate kept in this directory.
	TLSDir string `mapstructure:"tls_dir"`
}

// StorageConfig selects the object store. The fs backend maps keys under Root; the s3
// backend uses Bucket with credentials from the default AWS chain or Profile.
type StorageConfig struct {
	Backend  string `mapstructure:"backend"`
	Bucket   string `mapstructure:"bucket"`
	Region   string `mapstructure:"region"`
	Profile  string `mapstructure:"profile"`
	Endpoint string `mapstructure:"endpoint"`
	Root     string `mapstructure:"root"`
	Retries  int    `mapstructure:"retries"`
}

// DatabaseConfig locates the run history database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ModelConfig controls where models are published and how they are fitted.
type ModelConfig struct {
	// Dir caches models downloaded from the object store.
	Dir string `mapstructure:"dir"`
	// Path is the model file served in the local environment.
	Path   string  `mapstructure:"path"`
	Prefix string  `mapstructure:"prefix"`
	Ridge  float64 `mapstructure:"ridge"`
}

// TrainingConfig holds the key layout and split parameters of the batch jobs.
type TrainingConfig struct {
	RawPrefix       string  `mapstructure:"raw_prefix"`
	ProcessedPrefix string  `mapstructure:"processed_prefix"`
	VersionPrefix   string  `mapstructure:"version_prefix"`
	TestFraction    float64 `mapstructure:"test_fraction"`
	Seed            int64   `mapstructure:"seed"`
}

// SchemaConfig optionally replaces the embedded feature schema.
type SchemaConfig struct {
	Path string `mapstructure:"path"`
}

// SetDefaults registers the default of every key. Keys must be known to viper for
// environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("environment", EnvLocal)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.max_body_bytes", 64<<10)
	v.SetDefault("server.tls_dir", "")

	v.SetDefault("storage.backend", BackendFS)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.profile", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.root", "~/.local/share/carprice/store")
	v.SetDefault("storage.retries", 3)

	v.SetDefault("database.path", "~/.local/share/carprice/runs.db")

	v.SetDefault("model.dir", "~/.cache/carprice/models")
	v.SetDefault("model.path", "~/.local/share/carprice/model.gob")
	v.SetDefault("model.prefix", "models")
	v.SetDefault("model.ridge", 1.0)

	v.SetDefault("training.raw_prefix", "data/raw")
	v.SetDefault("training.processed_prefix", "data/processed")
	v.SetDefault("training.version_prefix", "versions")
	v.SetDefault("training.test_fraction", 0.1)
	v.SetDefault("training.seed", 21)

	v.SetDefault("schema.path", "")
}

// Load reads the configuration from v, layering defaults, the config file already read
// into v, and CARPRICE_ environment variables. The result is validated.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	// Fall back to the standard AWS variables when not set
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = os.Getenv("AWS_REGION")
	}
	if cfg.Storage.Profile == "" {
		cfg.Storage.Profile = os.Getenv("AWS_PROFILE")
	}

	cfg.Storage.Root = ExpandPath(cfg.Storage.Root)
	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Model.Dir = ExpandPath(cfg.Model.Dir)
	cfg.Model.Path = ExpandPath(cfg.Model.Path)
	cfg.Schema.Path = ExpandPath(cfg.Schema.Path)
	cfg.Server.TLSDir = ExpandPath(cfg.Server.TLSDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvLocal, EnvCloud:
	default:
		return invalid("environment must be %q or %q, got %q", EnvLocal, EnvCloud, c.Environment)
	}

	switch c.Storage.Backend {
	case BackendFS:
		if c.Storage.Root == "" {
			return fmt.Errorf("%w: storage.root is required for the fs backend", common.ErrMissingConfig)
		}
	case BackendS3:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("%w: storage.bucket is required for the s3 backend", common.ErrMissingConfig)
		}
	default:
		return invalid("storage.backend must be %q or %q, got %q", BackendFS, BackendS3, c.Storage.Backend)
	}
	if c.Storage.Retries < 1 {
		return invalid("storage.retries must be at least 1, got %d", c.Storage.Retries)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return invalid("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}

	if c.Training.TestFraction <= 0 || c.Training.TestFraction >= 1 {
		return invalid("training.test_fraction must be strictly between 0 and 1, got %v", c.Training.TestFraction)
	}
	if c.Model.Ridge < 0 {
		return invalid("model.ridge must be non-negative, got %v", c.Model.Ridge)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", common.ErrMissingConfig)
	}
	return nil
}

// RetryOptions returns the backoff used for object store calls.
func (c *Config) RetryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  c.Storage.Retries,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
	}
}

// ModelCacheDir returns the directory downloaded models are written to.
func (c *Config) ModelCacheDir() string {
	if c.Model.Dir == "" {
		return filepath.Join(os.TempDir(), "carprice-models")
	}
	return c.Model.Dir
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrInvalidConfig, fmt.Sprintf(format, args...))
}
