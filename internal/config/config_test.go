package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config fails validation: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("default log level = %q, want INFO", cfg.Logging.Level)
	}
	if cfg.Dataserver.Backend != "memory" {
		t.Errorf("default dataserver backend = %q, want memory", cfg.Dataserver.Backend)
	}
	if cfg.Keyserver.Backend != "memory" {
		t.Errorf("default keyserver backend = %q, want memory", cfg.Keyserver.Backend)
	}
	if cfg.Session.TTL != time.Hour {
		t.Errorf("default session TTL = %v, want 1h", cfg.Session.TTL)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8660 {
		t.Errorf("port = %d, want default 8660", cfg.Server.Port)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: debug
  format: json
server:
  port: 9000
  shutdown_timeout: 5s
dataserver:
  backend: badger
  badger:
    path: /tmp/vaultbox-test-badger
keyserver:
  backend: sqlite
  sqlite:
    path: /tmp/vaultbox-test-keys.db
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("level = %q, want DEBUG (normalized)", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("format = %q, want json", cfg.Logging.Format)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("shutdown timeout = %v, want 5s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Dataserver.Backend != "badger" {
		t.Errorf("dataserver backend = %q, want badger", cfg.Dataserver.Backend)
	}
	// Unset fields still get defaults.
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("read timeout = %v, want default 30s", cfg.Server.ReadTimeout)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"invalid log level", func(c *Config) { c.Logging.Level = "LOUD" }},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"invalid server port", func(c *Config) { c.Server.Port = 70000 }},
		{"unknown dataserver backend", func(c *Config) { c.Dataserver.Backend = "floppy" }},
		{"badger without path", func(c *Config) { c.Dataserver.Backend = "badger"; c.Dataserver.Badger.Path = "" }},
		{"s3 without bucket", func(c *Config) { c.Dataserver.Backend = "s3"; c.Dataserver.S3.Bucket = "" }},
		{"sqlite without path", func(c *Config) { c.Keyserver.Backend = "sqlite"; c.Keyserver.SQLite.Path = "" }},
		{"postgres without host", func(c *Config) { c.Keyserver.Backend = "postgres" }},
		{"telemetry without endpoint", func(c *Config) { c.Telemetry.Enabled = true; c.Telemetry.Endpoint = "" }},
		{"sample rate out of range", func(c *Config) { c.Telemetry.SampleRate = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestEnvironmentOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("VAULTBOX_LOGGING_LEVEL", "ERROR")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "ERROR" {
		t.Errorf("level = %q, want ERROR from environment", cfg.Logging.Level)
	}
}

func TestPostgresDSN(t *testing.T) {
	pg := PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		Database: "vaultbox",
		User:     "vb",
		Password: "secret",
		SSLMode:  "require",
	}
	dsn := pg.DSN()
	want := "host=db.internal port=5433 user=vb password=secret dbname=vaultbox sslmode=require"
	if dsn != want {
		t.Errorf("DSN = %q, want %q", dsn, want)
	}
}
