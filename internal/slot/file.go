package slot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileSlot stores the document in a single JSON file.
type FileSlot struct {
	path string
}

// NewFileSlot returns a FileSlot at path, creating the parent directory.
func NewFileSlot(path string) (*FileSlot, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating slot directory: %w", err)
	}
	return &FileSlot{path: path}, nil
}

// Path returns the file backing the slot.
func (f *FileSlot) Path() string { return f.path }

// Write replaces the file contents via a temp file + os.Rename.
func (f *FileSlot) Write(data []byte) (err error) {
	// Same directory so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write slot: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write slot: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write slot: %w", err)
	}
	if err = os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to write slot: %w", err)
	}
	return nil
}

// Read returns the file contents, or ErrEmpty if the file does not exist.
func (f *FileSlot) Read() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("failed to read slot: %w", err)
	}
	return data, nil
}

// Clear removes the file. Clearing an empty slot is not an error.
func (f *FileSlot) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear slot: %w", err)
	}
	return nil
}
