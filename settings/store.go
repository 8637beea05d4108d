package settings

import (
	"context"
	"io"
)

// Store persists a single Settings value under StorageKey
type Store interface {
	// Load returns ErrNotFound when nothing was saved before
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error

	io.Closer
}
