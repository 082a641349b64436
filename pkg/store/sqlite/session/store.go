package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/wasteops/pkg/store/kv"
	"github.com/de-tools/wasteops/pkg/store/sqlite"
)

// Store keeps per-session context values in SQLite. Use NewSessionStorage to
// bind it to a single session when a kv.Storage is needed.
type Store interface {
	Touch(ctx context.Context, session string) error
	Clear(ctx context.Context, session string) error
	Prune(ctx context.Context, before time.Time) (int64, error)
	Storage(session string) (kv.Storage, error)
}

type sessionStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &sessionStore{db: db}, nil
}

func (s *sessionStore) Touch(ctx context.Context, session string) error {
	_, err := sqlite.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO sessions (id) VALUES (?)
		ON CONFLICT (id) DO UPDATE SET last_seen_at = CURRENT_TIMESTAMP`,
		session,
	)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// Clear removes the session and every context value stored for it in one transaction.
func (s *sessionStore) Clear(ctx context.Context, session string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txCtx := sqlite.WithTransaction(ctx, tx)
	for _, query := range []string{
		`DELETE FROM context_values WHERE session = ?`,
		`DELETE FROM sessions WHERE id = ?`,
	} {
		if _, err := sqlite.Conn(txCtx, s.db).ExecContext(txCtx, query, session); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
	}
	return tx.Commit()
}

// Prune deletes every session last seen before the cutoff together with its
// context values and reports how many sessions were removed.
func (s *sessionStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	cutoff := before.UTC().Format(sqlite.TimestampLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txCtx := sqlite.WithTransaction(ctx, tx)
	conn := sqlite.Conn(txCtx, s.db)
	if _, err := conn.ExecContext(txCtx, `
		DELETE FROM context_values
		WHERE session IN (SELECT id FROM sessions WHERE last_seen_at < ?)`, cutoff); err != nil {
		return 0, fmt.Errorf("prune context values: %w", err)
	}
	res, err := conn.ExecContext(txCtx, `DELETE FROM sessions WHERE last_seen_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return n, nil
}

func (s *sessionStore) Storage(session string) (kv.Storage, error) {
	return NewSessionStorage(s.db, session)
}

type sessionStorage struct {
	db      *sql.DB
	session string
}

// NewSessionStorage returns a kv.Storage bound to a specific session.
func NewSessionStorage(db *sql.DB, session string) (kv.Storage, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if session == "" {
		return nil, fmt.Errorf("session is required for context storage")
	}
	return &sessionStorage{db: db, session: session}, nil
}

func (s *sessionStorage) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := sqlite.Conn(ctx, s.db).
		QueryRowContext(ctx, `SELECT value FROM context_values WHERE session = ? AND key = ?`, s.session, key).
		Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

func (s *sessionStorage) Set(ctx context.Context, key, value string) error {
	_, err := sqlite.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO context_values (session, key, value) VALUES (?, ?, ?)
		ON CONFLICT (session, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		s.session, key, value,
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *sessionStorage) Remove(ctx context.Context, key string) error {
	_, err := sqlite.Conn(ctx, s.db).
		ExecContext(ctx, `DELETE FROM context_values WHERE session = ? AND key = ?`, s.session, key)
	if err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
