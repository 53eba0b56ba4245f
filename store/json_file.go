package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// DefaultFileName is the name of the JSON document inside the data directory.
const DefaultFileName = "db.json"

// FileResource stores the Database as one JSON file on disk.
//
// Layout:
//
//	data_dir/
//	  db.json   # {"crops": [...], "livestock": [...], ...}
type FileResource struct {
	path string
}

// NewFileResource creates dir if needed and returns a resource for dir/name.
func NewFileResource(dir, name string) (*FileResource, error) {
	if name == "" {
		name = DefaultFileName
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileResource{path: filepath.Join(dir, name)}, nil
}

// Path returns the file location.
func (f *FileResource) Path() string {
	return f.path
}

func (f *FileResource) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, f.path)
	}
	return data, err
}

// Write replaces the file via a temp file and rename in the same directory.
func (f *FileResource) Write(_ context.Context, data []byte) error {
	return atomic.WriteFile(f.path, bytes.NewReader(data))
}

func (f *FileResource) String() string {
	return "file:" + f.path
}
