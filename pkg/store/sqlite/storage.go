package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const ContextValuesSchema = `
	CREATE TABLE IF NOT EXISTS context_values (
		session VARCHAR NOT NULL,
		key VARCHAR NOT NULL,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (session, key)
	);
`

const SessionsSchema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id VARCHAR NOT NULL PRIMARY KEY,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_seen_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

// TimestampLayout matches the text SQLite stores for CURRENT_TIMESTAMP.
const TimestampLayout = "2006-01-02 15:04:05"

var bootQueries = []string{
	ContextValuesSchema,
	SessionsSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", settings.DbPath))
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared across callers
	if settings.DbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	for _, query := range bootQueries {
		if _, err := db.ExecContext(context.Background(), query); err != nil {
			db.Close()
			return nil, fmt.Errorf("boot query: %w", err)
		}
	}
	return db, nil
}
