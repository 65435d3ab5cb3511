// Package sqlstore provides relational persistence for the keyserver:
// SQLite for single-node deployments, PostgreSQL for shared ones. The
// directory is a single append-only table; write-once semantics come
// from the primary-key constraint, so two concurrent registrations of
// the same name race safely at the database rather than in Go.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/brown-csci1660/vaultbox/internal/keyserver"
	"github.com/brown-csci1660/vaultbox/internal/logger"
)

// DatabaseType defines the supported database backends.
type DatabaseType string

const (
	// DatabaseTypeSQLite uses SQLite (single-node, default).
	DatabaseTypeSQLite DatabaseType = "sqlite"

	// DatabaseTypePostgres uses PostgreSQL (shared deployments).
	DatabaseTypePostgres DatabaseType = "postgres"
)

// Config contains database configuration.
type Config struct {
	Type DatabaseType

	// SQLitePath is the SQLite database file (sqlite only).
	SQLitePath string

	// PostgresDSN is the connection string (postgres only).
	PostgresDSN string
}

// publicKey is the directory's single table: one row per published name.
type publicKey struct {
	Name      string    `gorm:"primaryKey;column:name"`
	KeyDER    []byte    `gorm:"column:key_der;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (publicKey) TableName() string { return "public_keys" }

// Store is a SQL-backed keyserver.Directory.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured database and ensures the schema
// exists: AutoMigrate for SQLite, the embedded golang-migrate migrations
// for PostgreSQL.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var (
		db  *gorm.DB
		err error
	)

	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	switch cfg.Type {
	case DatabaseTypeSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o700); err != nil {
			return nil, fmt.Errorf("sqlstore: creating sqlite directory: %w", err)
		}
		db, err = gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: opening sqlite %q: %w", cfg.SQLitePath, err)
		}
		if err := db.WithContext(ctx).AutoMigrate(&publicKey{}); err != nil {
			return nil, fmt.Errorf("sqlstore: migrating sqlite schema: %w", err)
		}
		logger.Debug("sqlite keyserver opened", logger.KeyPath, cfg.SQLitePath)

	case DatabaseTypePostgres:
		if err := runMigrations(ctx, cfg.PostgresDSN); err != nil {
			return nil, err
		}
		db, err = gorm.Open(postgres.Open(cfg.PostgresDSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: opening postgres: %w", err)
		}
		logger.Debug("postgres keyserver opened")

	default:
		return nil, fmt.Errorf("sqlstore: unsupported database type %q", cfg.Type)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Set implements keyserver.Directory. Names are write-once: a duplicate
// insert fails on the primary key and is reported as ErrAlreadyExists.
func (s *Store) Set(name string, key []byte) error {
	row := publicKey{Name: name, KeyDER: key, CreatedAt: time.Now().UTC()}
	err := s.db.Create(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return keyserver.ErrAlreadyExists
		}
		return fmt.Errorf("sqlstore: inserting %q: %w", name, err)
	}
	return nil
}

// Get implements keyserver.Directory.
func (s *Store) Get(name string) ([]byte, error) {
	var row publicKey
	err := s.db.First(&row, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, keyserver.ErrNotFound
		}
		return nil, fmt.Errorf("sqlstore: fetching %q: %w", name, err)
	}
	return row.KeyDER, nil
}

// Clear implements keyserver.Directory. Used by test harnesses only.
func (s *Store) Clear() {
	_ = s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&publicKey{}).Error
}

// isUniqueViolation catches the driver-specific duplicate-key errors
// gorm does not always normalize: SQLSTATE 23505 for postgres, the
// UNIQUE-constraint message for sqlite.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key")
}

var _ keyserver.Directory = (*Store)(nil)
