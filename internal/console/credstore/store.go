// Package credstore persists console credentials (token, role, username) in
// a local sqlite key-value table so a login survives console restarts.
// Cleared on logout and on token expiry.
package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/mealqr/console/internal/console/api"
	"github.com/mealqr/console/internal/dbx"
)

const (
	keyToken    = "token"
	keyRole     = "role"
	keyUsername = "username"
)

// Store is a sqlite-backed api.CredentialStore.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the credential database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS credentials (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing credential store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the stored credentials, or zero credentials when none are
// stored. A partial record (missing role or username) is treated as absent,
// keeping the token/role/username invariant intact.
func (s *Store) Load(ctx context.Context) (api.Credentials, error) {
	get := func(key string) (string, error) {
		var v string
		err := s.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, key).Scan(&v)
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return v, err
	}

	var creds api.Credentials
	var err error
	if creds.Token, err = get(keyToken); err != nil {
		return api.Credentials{}, err
	}
	if creds.Role, err = get(keyRole); err != nil {
		return api.Credentials{}, err
	}
	if creds.Username, err = get(keyUsername); err != nil {
		return api.Credentials{}, err
	}
	if creds.Token == "" || creds.Role == "" || creds.Username == "" {
		return api.Credentials{}, nil
	}
	return creds, nil
}

// Save writes all three values in a single transaction.
func (s *Store) Save(ctx context.Context, c api.Credentials) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for key, value := range map[string]string{
			keyToken:    c.Token,
			keyRole:     c.Role,
			keyUsername: c.Username,
		} {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO credentials (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear wipes stored credentials. Idempotent.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials`)
	return err
}
