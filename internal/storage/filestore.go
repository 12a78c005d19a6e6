// Package storage keeps uploaded material files in a local content directory.
// Files are stored under generated names so that user supplied titles never
// reach the filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrMissing is returned when a stored file no longer exists.
	ErrMissing = errors.New("storage: file missing")
	// ErrTooLarge is returned when content exceeds the configured ceiling.
	ErrTooLarge = errors.New("storage: file too large")
	// ErrInvalidName is returned for names that would escape the content directory.
	ErrInvalidName = errors.New("storage: invalid file name")
)

// FileStore writes and reads files inside a single directory.
type FileStore struct {
	dir           string
	maxBytes      int64
	nameGenerator func() string
}

// NewFileStore prepares dir (creating it when needed) and returns a store that
// rejects content larger than maxBytes. nameGenerator supplies the base of every
// stored file name.
func NewFileStore(dir string, maxBytes int64, nameGenerator func() string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if nameGenerator == nil {
		return nil, fmt.Errorf("name generator is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{dir: dir, maxBytes: maxBytes, nameGenerator: nameGenerator}, nil
}

// Dir returns the content directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save copies content into a new file named "<generated>.<ext>" and returns the
// stored name and size. Partial files are removed on any failure.
func (s *FileStore) Save(ctx context.Context, content io.Reader, ext string) (name string, size int64, err error) {
	if err = ctx.Err(); err != nil {
		return "", 0, err
	}

	name = s.nameGenerator()
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		name += "." + ext
	}
	path, err := s.path(name)
	if err != nil {
		return "", 0, err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create stored file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close stored file: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(path)
			name, size = "", 0
		}
	}()

	reader := content
	if s.maxBytes > 0 {
		reader = io.LimitReader(content, s.maxBytes+1)
	}
	size, err = io.Copy(file, reader)
	if err != nil {
		return "", 0, fmt.Errorf("failed to write stored file: %w", err)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return "", 0, ErrTooLarge
	}
	return name, size, nil
}

// Open returns the stored file and its metadata. The caller closes the file.
func (s *FileStore) Open(name string) (*os.File, fs.FileInfo, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrMissing
		}
		return nil, nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("failed to stat stored file: %w", err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, nil, ErrMissing
	}
	return file, info, nil
}

// Remove deletes a stored file. Removing a missing file is not an error.
func (s *FileStore) Remove(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stored file: %w", err)
	}
	return nil
}

func (s *FileStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name), nil
}
