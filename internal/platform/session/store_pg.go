package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore keeps the session blob in a key/value table.
type PGStore struct {
	pool *pgxpool.Pool
	key  string
}

func NewPGStore(pool *pgxpool.Pool, key string) *PGStore {
	return &PGStore{pool: pool, key: key}
}

// EnsureSchema creates console_sessions if it does not exist.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS console_sessions (
			key        VARCHAR(255) PRIMARY KEY,
			blob       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create console_sessions: %w", err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context) (*Session, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT blob FROM console_sessions WHERE key = $1`, s.key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *PGStore) Set(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO console_sessions (key, blob, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET blob = EXCLUDED.blob, updated_at = NOW()`,
		s.key, data)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (s *PGStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM console_sessions WHERE key = $1`, s.key); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
