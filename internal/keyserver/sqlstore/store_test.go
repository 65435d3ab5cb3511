package sqlstore

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/brown-csci1660/vaultbox/internal/keyserver"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), Config{
		Type:       DatabaseTypeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "keyserver.db"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteSetGet(t *testing.T) {
	s := openSQLite(t)

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

func TestSQLiteWriteOnce(t *testing.T) {
	s := openSQLite(t)

	if err := s.Set("alice/enc", []byte("first")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	err := s.Set("alice/enc", []byte("second"))
	if !errors.Is(err, keyserver.ErrAlreadyExists) {
		t.Errorf("duplicate Set: got %v, want ErrAlreadyExists", err)
	}

	got, err := s.Get("alice/enc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte("first")) {
		t.Errorf("Get after duplicate Set = %q, want %q", got, "first")
	}
}

func TestSQLiteGetMissing(t *testing.T) {
	s := openSQLite(t)
	if _, err := s.Get("nobody/enc"); !errors.Is(err, keyserver.ErrNotFound) {
		t.Errorf("Get missing: got %v, want ErrNotFound", err)
	}
}

func TestSQLiteClear(t *testing.T) {
	s := openSQLite(t)

	_ = s.Set("alice/enc", []byte("x"))
	_ = s.Set("bob/enc", []byte("y"))
	s.Clear()

	if _, err := s.Get("alice/enc"); !errors.Is(err, keyserver.ErrNotFound) {
		t.Errorf("Get after Clear: got %v, want ErrNotFound", err)
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keyserver.db")

	s, err := Open(context.Background(), Config{Type: DatabaseTypeSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set("alice/verify", []byte("persisted")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(context.Background(), Config{Type: DatabaseTypeSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get("alice/verify")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if !bytes.Equal(got, []byte("persisted")) {
		t.Errorf("Get after reopen = %q, want %q", got, "persisted")
	}
}

func TestUnsupportedDatabaseType(t *testing.T) {
	if _, err := Open(context.Background(), Config{Type: "oracle"}); err == nil {
		t.Error("Open with unsupported type succeeded")
	}
}
