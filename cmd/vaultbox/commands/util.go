package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/brown-csci1660/vaultbox/internal/config"
	"github.com/brown-csci1660/vaultbox/internal/dataserver"
	"github.com/brown-csci1660/vaultbox/internal/dataserver/badgerstore"
	dsmemory "github.com/brown-csci1660/vaultbox/internal/dataserver/memorystore"
	"github.com/brown-csci1660/vaultbox/internal/dataserver/s3store"
	"github.com/brown-csci1660/vaultbox/internal/keyserver"
	ksmemory "github.com/brown-csci1660/vaultbox/internal/keyserver/memorystore"
	"github.com/brown-csci1660/vaultbox/internal/keyserver/sqlstore"
	"github.com/brown-csci1660/vaultbox/internal/logger"
)

// buildStores constructs the dataserver and keyserver backends the
// configuration selects. The returned closer releases whatever the
// backends hold open (databases, connection pools); memory backends
// close to a no-op.
func buildStores(ctx context.Context, cfg *config.Config) (dataserver.Store, keyserver.Directory, io.Closer, error) {
	var closers multiCloser

	var store dataserver.Store
	switch cfg.Dataserver.Backend {
	case "memory":
		store = dsmemory.New()
	case "badger":
		b, err := badgerstore.Open(cfg.Dataserver.Badger.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		closers = append(closers, b)
		store = b
	case "s3":
		s, err := s3store.NewFromConfig(ctx, s3store.Config{
			Bucket:          cfg.Dataserver.S3.Bucket,
			Region:          cfg.Dataserver.S3.Region,
			Endpoint:        cfg.Dataserver.S3.Endpoint,
			KeyPrefix:       cfg.Dataserver.S3.KeyPrefix,
			AccessKeyID:     cfg.Dataserver.S3.AccessKeyID,
			SecretAccessKey: cfg.Dataserver.S3.SecretAccessKey,
			ForcePathStyle:  cfg.Dataserver.S3.UsePathStyle,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		store = s
	default:
		return nil, nil, nil, fmt.Errorf("unknown dataserver backend %q", cfg.Dataserver.Backend)
	}

	var dir keyserver.Directory
	switch cfg.Keyserver.Backend {
	case "memory":
		dir = ksmemory.New()
	case "sqlite":
		s, err := sqlstore.Open(ctx, sqlstore.Config{
			Type:       sqlstore.DatabaseTypeSQLite,
			SQLitePath: cfg.Keyserver.SQLite.Path,
		})
		if err != nil {
			closers.Close()
			return nil, nil, nil, err
		}
		closers = append(closers, s)
		dir = s
	case "postgres":
		s, err := sqlstore.Open(ctx, sqlstore.Config{
			Type:        sqlstore.DatabaseTypePostgres,
			PostgresDSN: cfg.Keyserver.Postgres.DSN(),
		})
		if err != nil {
			closers.Close()
			return nil, nil, nil, err
		}
		closers = append(closers, s)
		dir = s
	default:
		closers.Close()
		return nil, nil, nil, fmt.Errorf("unknown keyserver backend %q", cfg.Keyserver.Backend)
	}

	logger.Info("stores initialized",
		"dataserver", cfg.Dataserver.Backend,
		"keyserver", cfg.Keyserver.Backend,
	)
	return store, dir, closers, nil
}

// multiCloser closes a list of closers, keeping the first error.
type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
