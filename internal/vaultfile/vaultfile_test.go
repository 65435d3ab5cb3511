package vaultfile

import (
	"bytes"
	"testing"

	dsmemory "github.com/brown-csci1660/vaultbox/internal/dataserver/memorystore"
)

func TestCreateDownload(t *testing.T) {
	store := dsmemory.New()
	key := NewFileKey()

	header, err := CreateFile(store, key, "alice", []byte("hello"))
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	got, err := Download(store, key, header)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Errorf("Download = %q, want %q", got, "hello")
	}
}

func TestAppendOrder(t *testing.T) {
	store := dsmemory.New()
	key := NewFileKey()

	header, err := CreateFile(store, key, "alice", []byte("a"))
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	for _, chunk := range []string{"bc", "def", "", "g"} {
		if err := Append(store, key, header, []byte(chunk)); err != nil {
			t.Fatalf("Append(%q): %v", chunk, err)
		}
	}

	got, err := Download(store, key, header)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !bytes.Equal(got, []byte("abcdefg")) {
		t.Errorf("Download = %q, want %q", got, "abcdefg")
	}

	h, err := ReadHeader(store, key, header)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.Count != 5 {
		t.Errorf("chunk count = %d, want 5", h.Count)
	}
	if h.Owner != "alice" {
		t.Errorf("owner = %q, want alice", h.Owner)
	}
}

func TestAppendDoesNotRewriteChunks(t *testing.T) {
	store := dsmemory.New()
	key := NewFileKey()

	header, err := CreateFile(store, key, "alice", []byte("first"))
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	h, err := ReadHeader(store, key, header)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	firstChunkRaw, err := store.Get(h.HeadChunk)
	if err != nil {
		t.Fatalf("Get head chunk: %v", err)
	}

	if err := Append(store, key, header, []byte("second")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// The first chunk's ciphertext is untouched by the append.
	afterAppend, err := store.Get(h.HeadChunk)
	if err != nil {
		t.Fatalf("Get head chunk after append: %v", err)
	}
	if !bytes.Equal(firstChunkRaw, afterAppend) {
		t.Error("append rewrote an existing chunk")
	}
}

func TestOverwriteKeepsHandleAndKey(t *testing.T) {
	store := dsmemory.New()
	key := NewFileKey()

	header, err := CreateFile(store, key, "alice", []byte("v1"))
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := Append(store, key, header, []byte("tail")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := Overwrite(store, key, header, "alice", []byte("v2 only")); err != nil {
		t.Fatalf("Overwrite: %v", err)
	}

	got, err := Download(store, key, header)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !bytes.Equal(got, []byte("v2 only")) {
		t.Errorf("Download = %q, want %q", got, "v2 only")
	}

	h, err := ReadHeader(store, key, header)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.Count != 1 {
		t.Errorf("chunk count after overwrite = %d, want 1", h.Count)
	}
}

func TestWrongKeyFails(t *testing.T) {
	store := dsmemory.New()
	key := NewFileKey()

	header, err := CreateFile(store, key, "alice", []byte("secret"))
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	if _, err := Download(store, NewFileKey(), header); err == nil {
		t.Error("download under a different key succeeded")
	}
}

func TestRekey(t *testing.T) {
	store := dsmemory.New()
	oldKey := NewFileKey()

	header, err := CreateFile(store, oldKey, "alice", []byte("part1 "))
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := Append(store, oldKey, header, []byte("part2")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	newKey := NewFileKey()
	newHeader, err := Rekey(store, oldKey, header, newKey, "alice")
	if err != nil {
		t.Fatalf("Rekey: %v", err)
	}

	got, err := Download(store, newKey, newHeader)
	if err != nil {
		t.Fatalf("Download after rekey: %v", err)
	}
	if !bytes.Equal(got, []byte("part1 part2")) {
		t.Errorf("Download = %q, want %q", got, "part1 part2")
	}

	// The old header is garbled: the old capability no longer works.
	if _, err := Download(store, oldKey, header); err == nil {
		t.Error("old capability still works after rekey")
	}
	// And the new file never authenticates under the old key.
	if _, err := Download(store, oldKey, newHeader); err == nil {
		t.Error("new header readable under old key")
	}
}

func TestTamperedChunkDetected(t *testing.T) {
	store := dsmemory.New()
	key := NewFileKey()

	header, err := CreateFile(store, key, "alice", []byte("hello world"))
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	h, err := ReadHeader(store, key, header)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	raw, err := store.Get(h.TailChunk)
	if err != nil {
		t.Fatalf("Get chunk: %v", err)
	}
	raw[len(raw)/2] ^= 0x01
	store.Set(h.TailChunk, raw)

	if _, err := Download(store, key, header); err == nil {
		t.Error("tampered chunk went undetected")
	}
}
