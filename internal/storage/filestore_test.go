package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T, maxBytes int64) *FileStore {
	t.Helper()

	names := []string{"first", "second", "third"}
	store, err := NewFileStore(filepath.Join(t.TempDir(), "uploads"), maxBytes, func() string {
		name := names[0]
		names = names[1:]
		return name
	})
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return store
}

func TestFileStore_SaveAndOpen(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, 64)
	name, size, err := store.Save(context.Background(), strings.NewReader("lecture notes"), ".txt")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if name != "first.txt" || size != int64(len("lecture notes")) {
		t.Fatalf("unexpected result: name=%q size=%d", name, size)
	}

	file, info, err := store.Open(name)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(body) != "lecture notes" || info.Size() != size {
		t.Fatalf("unexpected content %q (size %d)", body, info.Size())
	}
}

func TestFileStore_RejectsOversizedContent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, 4)
	if _, _, err := store.Save(context.Background(), strings.NewReader("12345"), "pdf"); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected partial file to be removed, found %d entries", len(entries))
	}

	name, _, err := store.Save(context.Background(), strings.NewReader("1234"), "pdf")
	if err != nil {
		t.Fatalf("content at the ceiling should be accepted: %v", err)
	}
	if name != "second.pdf" {
		t.Fatalf("unexpected name %q", name)
	}
}

func TestFileStore_MissingFiles(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, 0)
	name, _, err := store.Save(context.Background(), strings.NewReader("x"), "txt")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Remove(name); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := store.Remove(name); err != nil {
		t.Fatalf("second Remove should be a no-op: %v", err)
	}
	if _, _, err := store.Open(name); !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
}

func TestFileStore_RejectsTraversal(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, 0)
	for _, name := range []string{"", "..", "../secret", "a/b", `a\b`} {
		if _, _, err := store.Open(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Open(%q): expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestFileStore_HonoursCancellation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := store.Save(ctx, strings.NewReader("x"), "txt"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
