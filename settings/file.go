package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const appDir = "projectverify"

// DefaultDir returns the per-user configuration directory used by the File store
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, appDir), nil
}

// NewFile returns a File store writing into dir. An empty dir means DefaultDir.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}

	return &File{
		path: filepath.Join(dir, StorageKey+".json"),
	}, nil
}

// File stores the settings as a JSON document on the local filesystem
type File struct {
	lock sync.Mutex
	path string
}

// Path returns the location of the JSON document
func (f *File) Path() string {
	return f.path
}

func (f *File) Load(ctx context.Context) (Settings, error) {
	if ctx.Err() != nil {
		return Settings{}, ctx.Err()
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Settings{}, ErrNotFound
	}

	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := json.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("unable to decode %q %w", f.path, err)
	}

	return s, nil
}

// Save replaces the document atomically
func (f *File) Save(ctx context.Context, s Settings) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	b, err := json.Marshal(s)
	if err != nil {
		return err
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, StorageKey+".*.tmp")
	if err != nil {
		return err
	}

	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), f.path)
}

func (f *File) Close() error {
	return nil
}
