// Package config loads and validates the vaultbox server/CLI
// configuration from file, environment, and defaults.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (VAULTBOX_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// An environment variable overrides only a key that the configuration
// file sets. When no configuration file is found, Load returns the
// defaults and reads no environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is the full vaultbox configuration.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing and
	// continuous profiling
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Server contains the HTTP API server configuration
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Dataserver selects and configures the untrusted byte-store backend
	Dataserver DataserverConfig `mapstructure:"dataserver" yaml:"dataserver"`

	// Keyserver selects and configures the trusted public-key directory
	// backend
	Keyserver KeyserverConfig `mapstructure:"keyserver" yaml:"keyserver"`

	// Session configures HTTP session tokens
	Session SessionConfig `mapstructure:"session" yaml:"session"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format: text or json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file
	// path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure disables TLS on the OTLP connection
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the trace sampling rate (0.0 to 1.0)
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1" yaml:"sample_rate"`

	// Profiling configures Pyroscope continuous profiling
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether profiling is enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// Enabled is decoded but not consulted: the serve command starts the
	// HTTP API server whatever its value
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP listen port
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout bounds how long reading a request may take
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout bounds how long writing a response may take
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout bounds keep-alive connection idle time
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and the HTTP server
	// are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// DataserverConfig selects the untrusted byte-store backend.
type DataserverConfig struct {
	// Backend is one of: memory, badger, s3
	Backend string `mapstructure:"backend" validate:"required,oneof=memory badger s3" yaml:"backend"`

	// Badger configures the badger backend
	Badger BadgerConfig `mapstructure:"badger" yaml:"badger"`

	// S3 configures the s3 backend
	S3 S3Config `mapstructure:"s3" yaml:"s3"`
}

// BadgerConfig configures the BadgerDB dataserver backend.
type BadgerConfig struct {
	// Path is the directory holding the badger database
	Path string `mapstructure:"path" yaml:"path"`
}

// S3Config configures the S3 dataserver backend.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `mapstructure:"region" yaml:"region"`

	// Endpoint overrides the S3 endpoint (LocalStack, MinIO)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// KeyPrefix is prepended to every object key
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`

	// AccessKeyID / SecretAccessKey are static credentials; leave empty
	// to use the default AWS credential chain
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`

	// UsePathStyle forces path-style addressing (required by most
	// S3-compatible test endpoints)
	UsePathStyle bool `mapstructure:"use_path_style" yaml:"use_path_style"`
}

// KeyserverConfig selects the trusted public-key directory backend.
type KeyserverConfig struct {
	// Backend is one of: memory, sqlite, postgres
	Backend string `mapstructure:"backend" validate:"required,oneof=memory sqlite postgres" yaml:"backend"`

	// SQLite configures the sqlite backend
	SQLite SQLiteConfig `mapstructure:"sqlite" yaml:"sqlite"`

	// Postgres configures the postgres backend
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// SQLiteConfig configures the SQLite keyserver backend.
type SQLiteConfig struct {
	// Path is the path to the SQLite database file
	Path string `mapstructure:"path" yaml:"path"`
}

// PostgresConfig configures the PostgreSQL keyserver backend.
type PostgresConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
	Database string `mapstructure:"database" yaml:"database"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	SSLMode  string `mapstructure:"ssl_mode" yaml:"ssl_mode"`
}

// DSN returns the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)
	if c.SSLMode != "" {
		dsn += fmt.Sprintf(" sslmode=%s", c.SSLMode)
	}
	return dsn
}

// SessionConfig configures HTTP session tokens.
type SessionConfig struct {
	// Secret signs session JWTs. Generated at startup when empty, which
	// invalidates sessions across restarts.
	Secret string `mapstructure:"secret" yaml:"secret,omitempty"`

	// TTL is how long a session token stays valid
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// Load reads, decodes, defaults, and validates the configuration.
// configPath may be empty, in which case the default location
// ($XDG_CONFIG_HOME/vaultbox/config.yaml) is searched and missing-file
// falls back to pure defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration against its struct tags plus the
// cross-field rules the tags cannot express.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}

	if cfg.Dataserver.Backend == "badger" && cfg.Dataserver.Badger.Path == "" {
		return fmt.Errorf("dataserver.badger.path is required for the badger backend")
	}
	if cfg.Dataserver.Backend == "s3" && cfg.Dataserver.S3.Bucket == "" {
		return fmt.Errorf("dataserver.s3.bucket is required for the s3 backend")
	}
	if cfg.Keyserver.Backend == "sqlite" && cfg.Keyserver.SQLite.Path == "" {
		return fmt.Errorf("keyserver.sqlite.path is required for the sqlite backend")
	}
	if cfg.Keyserver.Backend == "postgres" {
		pg := cfg.Keyserver.Postgres
		if pg.Host == "" || pg.Database == "" || pg.User == "" {
			return fmt.Errorf("keyserver.postgres requires host, database, and user")
		}
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}

	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the VAULTBOX_ prefix and underscores.
	// Example: VAULTBOX_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("VAULTBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns the combined decode hook for custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook parses "30s"/"5m" strings into time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		return time.ParseDuration(data.(string))
	}
}

func getConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "vaultbox")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "vaultbox")
}

// GetDefaultConfigPath returns the default config file location.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
