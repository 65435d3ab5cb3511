//go:build integration

package sqlstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/brown-csci1660/vaultbox/internal/keyserver"
)

// startPostgres launches a throwaway PostgreSQL container and returns a
// DSN pointing at it.
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("vaultbox_test"),
		tcpostgres.WithUsername("vaultbox"),
		tcpostgres.WithPassword("vaultbox"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminating postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	return fmt.Sprintf("host=%s port=%d user=vaultbox password=vaultbox dbname=vaultbox_test sslmode=disable",
		host, port.Int())
}

func openPostgres(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), Config{
		Type:        DatabaseTypePostgres,
		PostgresDSN: startPostgres(t),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresSetGet(t *testing.T) {
	s := openPostgres(t)

	if err := s.Set("alice/enc", []byte("key-bytes")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get("alice/enc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte("key-bytes")) {
		t.Errorf("Get = %q, want %q", got, "key-bytes")
	}
}

func TestPostgresWriteOnce(t *testing.T) {
	s := openPostgres(t)

	if err := s.Set("alice/enc", []byte("first")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	err := s.Set("alice/enc", []byte("second"))
	if !errors.Is(err, keyserver.ErrAlreadyExists) {
		t.Errorf("duplicate Set: got %v, want ErrAlreadyExists", err)
	}
}

func TestPostgresMigrationsIdempotent(t *testing.T) {
	dsn := startPostgres(t)

	for i := 0; i < 2; i++ {
		s, err := Open(context.Background(), Config{
			Type:        DatabaseTypePostgres,
			PostgresDSN: dsn,
		})
		if err != nil {
			t.Fatalf("Open (pass %d): %v", i+1, err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close (pass %d): %v", i+1, err)
		}
	}
}
