package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	ctx := context.Background()
	payload := []byte("image-bytes")
	key, err := s.Write(ctx, "results/one.png", payload)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if key != "results/one.png" {
		t.Fatalf("key = %q", key)
	}

	got, err := s.Read(ctx, key)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("read back %q, want %q", got, payload)
	}

	if _, err := os.Stat(filepath.Join(dir, "results", "one.png")); err != nil {
		t.Fatalf("file not on disk: %v", err)
	}
}

func TestWriteRejectsTraversal(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"", "..", "../escape.png", "a/../../escape.png"} {
		if _, err := s.Write(ctx, key, []byte("x")); err == nil {
			t.Fatalf("key %q should be rejected", key)
		}
	}
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	if _, err := NewFileStore("  "); err == nil {
		t.Fatalf("blank base path should be rejected")
	}
}
