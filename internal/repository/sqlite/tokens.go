// Package sqlite persists bearer tokens per chat so a session can pick its
// credentials back up after a restart.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS tokens (
    chat_id    INTEGER PRIMARY KEY,
    token      TEXT     NOT NULL,
    updated_at DATETIME NOT NULL
);
`

type TokenStore struct {
	db *sql.DB
}

// NewTokenStore opens (or creates) the database at path.
func NewTokenStore(path string) (*TokenStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.NewTokenStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.NewTokenStore: apply schema: %w", err)
	}

	return &TokenStore{db: db}, nil
}

// Token returns the stored token for chatID, or "" if there is none.
func (s *TokenStore) Token(ctx context.Context, chatID int64) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `SELECT token FROM tokens WHERE chat_id = ?`, chatID).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlite.Token: %w", err)
	}
	return token, nil
}

// SaveToken stores token for chatID; an empty token deletes it.
func (s *TokenStore) SaveToken(ctx context.Context, chatID int64, token string) error {
	if token == "" {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE chat_id = ?`, chatID); err != nil {
			return fmt.Errorf("sqlite.SaveToken: delete: %w", err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tokens (chat_id, token, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at`,
		chatID, token, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite.SaveToken: upsert: %w", err)
	}
	return nil
}

func (s *TokenStore) Close() error {
	return s.db.Close()
}
