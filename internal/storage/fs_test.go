package storage_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mind-engage/mindengage-sheetgrader/internal/storage"
)

func TestFSStoreRoundTrip(t *testing.T) {
	base := t.TempDir()
	s, err := storage.NewFSStore(base)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	key := storage.ScanKey("k1", "Sheet.PNG")
	if !strings.HasPrefix(key, "scans/k1/") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("ScanKey = %q", key)
	}
	got, err := s.Put(key, strings.NewReader("image-bytes"))
	if err != nil || got != key {
		t.Fatalf("Put = %q, %v", got, err)
	}
	rc, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if string(b) != "image-bytes" {
		t.Fatalf("content = %q", b)
	}
	if err := s.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(key); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
}

func TestFSStoreStaysInBase(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "blobs")
	s, err := storage.NewFSStore(base)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	k, err := s.Put("../../escape.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if k != "escape.txt" {
		t.Fatalf("key = %q", k)
	}
	if _, err := os.Stat(filepath.Join(base, "escape.txt")); err != nil {
		t.Fatalf("file not under base: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.txt")); err == nil {
		t.Fatalf("file escaped base")
	}
	if _, err := s.Put("", strings.NewReader("x")); err == nil {
		t.Fatalf("empty key accepted")
	}
}
