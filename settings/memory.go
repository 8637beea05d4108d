package settings

import (
	"context"
	"sync"
)

func NewMemory() *Memory {
	return &Memory{}
}

// Memory keeps the settings for the lifetime of the process
type Memory struct {
	lock  sync.RWMutex
	value *Settings
}

func (m *Memory) Load(ctx context.Context) (Settings, error) {
	if ctx.Err() != nil {
		return Settings{}, ctx.Err()
	}

	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.value == nil {
		return Settings{}, ErrNotFound
	}

	return *m.value, nil
}

func (m *Memory) Save(ctx context.Context, s Settings) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	m.lock.Lock()
	m.value = &s
	m.lock.Unlock()

	return nil
}

func (m *Memory) Close() error {
	return nil
}
