package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// CorruptedSuffix is appended to the save file name when a corrupted file is kept aside.
const CorruptedSuffix = "_Corrupted"

const filePerms = 0o666

// FileBackend keeps the document in a single JSON file.
type FileBackend struct {
	path string
}

// NewFileBackend stores the document at path, creating its directory if needed.
func NewFileBackend(path string) (*FileBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("error creating save directory for %s: %w", path, err)
	}

	return &FileBackend{path: path}, nil
}

// Read implements Backend.
func (f *FileBackend) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSaveFile
	}

	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", f.path, err)
	}

	return data, nil
}

// Write implements Backend. The file is replaced atomically so a crash never leaves half a document.
func (f *FileBackend) Write(_ context.Context, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("error creating temp file for %s: %w", f.path, err)
	}

	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()

		return fmt.Errorf("error writing %s: %w", tmp.Name(), err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing %s: %w", tmp.Name(), err)
	}

	if err := os.Chmod(tmp.Name(), filePerms); err != nil {
		return fmt.Errorf("error setting permissions on %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("error replacing %s: %w", f.path, err)
	}

	return nil
}

// Rescue implements Backend by writing data to <path>_Corrupted.
func (f *FileBackend) Rescue(_ context.Context, data []byte) (string, error) {
	rescuePath := f.path + CorruptedSuffix

	if err := os.WriteFile(rescuePath, data, filePerms); err != nil {
		return "", fmt.Errorf("error writing %s: %w", rescuePath, err)
	}

	return rescuePath, nil
}

// Location implements Backend.
func (f *FileBackend) Location() string {
	return f.path
}

// Close implements Backend.
func (f *FileBackend) Close() error {
	return nil
}
