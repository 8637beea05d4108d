package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStoreRoundTrip(t *testing.T, newStore func() Store) {
	t.Helper()
	ctx := context.Background()

	s := newStore()
	defer s.Close()

	_, err := s.Load(ctx)
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound on an empty store, got %v", err)

	want := Settings{Provider: provider.SuperSend, BatchSize: 12, Timeout: 1500}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	want.BatchSize = 3
	require.NoError(t, s.Save(ctx, want))

	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMemory(t *testing.T) {
	testStoreRoundTrip(t, func() Store {
		return NewMemory()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, NewMemory().Save(ctx, Defaults()))
}

func TestFile(t *testing.T) {
	dir := t.TempDir()

	testStoreRoundTrip(t, func() Store {
		s, err := NewFile(filepath.Join(dir, "nested"))
		require.NoError(t, err)
		return s
	})

	t.Run("survives a new instance", func(t *testing.T) {
		ctx := context.Background()
		first, err := NewFile(dir)
		require.NoError(t, err)

		want := Settings{Provider: provider.Bazzigate, BatchSize: 1, Timeout: 0}
		require.NoError(t, first.Save(ctx, want))

		second, err := NewFile(dir)
		require.NoError(t, err)

		got, err := second.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, filepath.Join(dir, "emailValidationSettings.json"), second.Path())
	})

	t.Run("corrupt document", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, StorageKey+".json"), []byte("{nope"), 0o600))

		s, err := NewFile(dir)
		require.NoError(t, err)

		_, err = s.Load(context.Background())
		assert.Error(t, err)
		assert.False(t, errors.Is(err, ErrNotFound))
	})
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("SETTINGS_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("SETTINGS_TEST_POSTGRES_URL not set, skipping")
	}

	logger, _ := test.NewNullLogger()

	p, err := OpenPostgres(dsn, logger)
	require.NoError(t, err)

	_, err = p.db.Exec(`CREATE TABLE IF NOT EXISTS settings (name TEXT PRIMARY KEY, value JSONB NOT NULL, updated_at TIMESTAMPTZ NOT NULL DEFAULT now())`)
	require.NoError(t, err)

	_, err = p.db.Exec(`DELETE FROM settings WHERE name = $1`, StorageKey)
	require.NoError(t, err)

	testStoreRoundTrip(t, func() Store {
		return p
	})
}

func TestOpen(t *testing.T) {
	logger, _ := test.NewNullLogger()

	s, err := Open(KindMemory, "", logger)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	dir := t.TempDir()
	s, err = Open(KindFile, dir, logger)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, StorageKey+".json"), s.(*File).Path())

	_, err = Open("redis", "", logger)
	assert.True(t, errors.Is(err, ErrUnknownStore))
}
