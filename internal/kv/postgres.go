package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresProvider stores session values in the session_kv table.
type PostgresProvider struct {
	db *sql.DB
}

func NewPostgresProvider(db *sql.DB) *PostgresProvider {
	return &PostgresProvider{db: db}
}

func (p *PostgresProvider) ForSession(sessionID string) Storage {
	return &postgresStorage{db: p.db, sessionID: sessionID}
}

type postgresStorage struct {
	db        *sql.DB
	sessionID string
}

func (s *postgresStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_kv WHERE session_id = $1 AND key = $2`,
		s.sessionID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select session value: %w", err)
	}
	return value, true, nil
}

func (s *postgresStorage) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_kv (session_id, key, value, updated_at)
         VALUES ($1, $2, $3, now())
         ON CONFLICT (session_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		s.sessionID, key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert session value: %w", err)
	}
	return nil
}

func (s *postgresStorage) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM session_kv WHERE session_id = $1 AND key = $2`,
		s.sessionID, key,
	)
	if err != nil {
		return fmt.Errorf("delete session value: %w", err)
	}
	return nil
}
