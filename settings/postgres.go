package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	// Registers the "postgres" driver
	_ "github.com/lib/pq"
)

// OpenPostgres connects to dsn and returns a Postgres store on it
func OpenPostgres(dsn string, logger logrus.FieldLogger) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		deferClose(db, logger)
		return nil, err
	}

	return NewPostgres(db, logger), nil
}

func NewPostgres(db *sql.DB, logger logrus.FieldLogger) *Postgres {
	return &Postgres{
		db:     db,
		logger: logger,
	}
}

// Postgres shares the settings between every process using the same database. It expects:
//
//	CREATE TABLE settings (name TEXT PRIMARY KEY, value JSONB NOT NULL, updated_at TIMESTAMPTZ NOT NULL DEFAULT now())
type Postgres struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) Load(ctx context.Context) (Settings, error) {
	stmt, err := p.db.PrepareContext(ctx, `
		SELECT
			value
		FROM
			settings
		WHERE
			name = $1`)

	if err != nil {
		return Settings{}, err
	}

	defer deferClose(stmt, p.logger)

	var raw []byte
	err = stmt.QueryRowContext(ctx, StorageKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, ErrNotFound
	}

	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("unable to decode persisted settings %w", err)
	}

	return s, nil
}

func (p *Postgres) Save(ctx context.Context, s Settings) error {
	value, err := json.Marshal(s)
	if err != nil {
		return err
	}

	stmt, err := p.db.PrepareContext(ctx, `
		INSERT INTO
			settings (name, value, updated_at)
		VALUES
			($1, $2::jsonb, now())
		ON CONFLICT (name) DO UPDATE
		SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at`)

	if err != nil {
		return err
	}

	defer deferClose(stmt, p.logger)
	_, err = stmt.ExecContext(ctx, StorageKey, string(value))

	return err
}

func deferClose(toClose io.Closer, log logrus.FieldLogger) {
	if toClose == nil {
		return
	}

	err := toClose.Close()
	if err != nil {
		if log == nil {
			fmt.Printf("error failed to close handle %s", err)
			return
		}

		log.WithError(err).Error("Failed to close handle")
	}
}
