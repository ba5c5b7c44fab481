// Package session persists the signed-in credential in a dedicated SQLite
// store under the application data directory. The store is namespaced to
// this application; nothing else reads or writes it.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/custodia-labs/relay-cli/internal/core/domain"
	"github.com/custodia-labs/relay-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.CredentialStore = (*Store)(nil)

// staleLockAge is how old an interaction lock may be before it is considered
// abandoned (a crashed process that never released it) and stolen.
const staleLockAge = 10 * time.Minute

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	access_token  TEXT NOT NULL,
	refresh_token TEXT NOT NULL DEFAULT '',
	token_type    TEXT NOT NULL DEFAULT '',
	expiry        TEXT NOT NULL DEFAULT '',
	account_id    TEXT NOT NULL DEFAULT '',
	username      TEXT NOT NULL DEFAULT '',
	display_name  TEXT NOT NULL DEFAULT '',
	updated_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS interaction_lock (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	acquired_at TEXT NOT NULL
);
`

// Store is the SQLite-backed credential store.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the store. An empty path uses the default
// location under the user's home directory.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir := filepath.Join(home, ".relay", "data")
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		path = filepath.Join(dir, "relay.db")
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialise session store: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the stored credential, or nil when none is stored.
func (s *Store) Load(ctx context.Context) (*domain.Credential, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, token_type, expiry, account_id, username, display_name
		FROM credentials WHERE id = 1`)

	var cred domain.Credential
	var expiry string
	err := row.Scan(&cred.AccessToken, &cred.RefreshToken, &cred.TokenType,
		&expiry, &cred.AccountID, &cred.Username, &cred.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}

	if expiry != "" {
		t, err := time.Parse(time.RFC3339, expiry)
		if err != nil {
			return nil, fmt.Errorf("parse stored expiry: %w", err)
		}
		cred.Expiry = t
	}
	return &cred, nil
}

// Save stores the credential, replacing any previous one.
func (s *Store) Save(ctx context.Context, cred *domain.Credential) error {
	expiry := ""
	if !cred.Expiry.IsZero() {
		expiry = cred.Expiry.UTC().Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (id, access_token, refresh_token, token_type, expiry, account_id, username, display_name, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type    = excluded.token_type,
			expiry        = excluded.expiry,
			account_id    = excluded.account_id,
			username      = excluded.username,
			display_name  = excluded.display_name,
			updated_at    = excluded.updated_at`,
		cred.AccessToken, cred.RefreshToken, cred.TokenType, expiry,
		cred.AccountID, cred.Username, cred.DisplayName, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

// Clear removes the stored credential and any stale interaction lock.
// Clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM interaction_lock`); err != nil {
		return fmt.Errorf("clear interaction lock: %w", err)
	}
	return nil
}

// AcquireInteractionLock marks an interactive sign-in as in progress. A lock
// older than staleLockAge is treated as abandoned and taken over.
func (s *Store) AcquireInteractionLock(ctx context.Context) error {
	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO interaction_lock (id, acquired_at) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET acquired_at = excluded.acquired_at
		WHERE interaction_lock.acquired_at < ?`,
		now.Format(time.RFC3339), now.Add(-staleLockAge).Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("acquire interaction lock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("acquire interaction lock: %w", err)
	}
	if affected == 0 {
		return domain.ErrInteractionInProgress
	}
	return nil
}

// ReleaseInteractionLock clears the in-progress marker. Releasing an
// unheld lock is a no-op.
func (s *Store) ReleaseInteractionLock(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM interaction_lock`); err != nil {
		return fmt.Errorf("release interaction lock: %w", err)
	}
	return nil
}
