package memorystore

import (
	"bytes"
	"errors"
	"testing"

	"github.com/brown-csci1660/vaultbox/internal/dataserver"
	"github.com/brown-csci1660/vaultbox/internal/memloc"
)

func TestSetGetRoundTrip(t *testing.T) {
	s := New()
	h := memloc.Make()
	want := []byte("hello world")

	s.Set(h, want)
	got, err := s.Get(h)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Get() = %q, want %q", got, want)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := New()
	_, err := s.Get(memloc.Make())
	var nf *dataserver.ErrNotFound
	if err == nil {
		t.Fatal("Get() on unset handle should error")
	}
	if !errors.As(err, &nf) {
		t.Errorf("Get() error = %v, want *dataserver.ErrNotFound", err)
	}
}

func TestSet_CopiesInput(t *testing.T) {
	s := New()
	h := memloc.Make()
	data := []byte("original")

	s.Set(h, data)
	data[0] = 'X'

	got, err := s.Get(h)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got[0] == 'X' {
		t.Error("Set() retained a reference to the caller's slice")
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := New()
	h := memloc.Make()
	s.Set(h, []byte("immutable"))

	got, err := s.Get(h)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got[0] = 'X'

	got2, err := s.Get(h)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got2[0] == 'X' {
		t.Error("Get() returned an internal reference, mutation leaked")
	}
}

func TestDeleteAndClear(t *testing.T) {
	s := New()
	h1, h2 := memloc.Make(), memloc.Make()
	s.Set(h1, []byte("a"))
	s.Set(h2, []byte("b"))

	s.Delete(h1)
	if _, err := s.Get(h1); err == nil {
		t.Error("Get() after Delete() should error")
	}

	s.Clear()
	if _, err := s.Get(h2); err == nil {
		t.Error("Get() after Clear() should error")
	}
}
