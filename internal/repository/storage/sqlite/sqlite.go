package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// import the SQLite driver to register it with the database/sql package.
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS archived_games (
	id          TEXT PRIMARY KEY,
	type        TEXT    NOT NULL,
	winner      TEXT    NOT NULL,
	white_id    TEXT    NOT NULL DEFAULT '',
	black_id    TEXT    NOT NULL DEFAULT '',
	white_score INTEGER NOT NULL,
	black_score INTEGER NOT NULL,
	save_data   TEXT    NOT NULL,
	finished_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_archived_games_white ON archived_games (white_id);
CREATE INDEX IF NOT EXISTS idx_archived_games_black ON archived_games (black_id);
`

type Storage struct {
	Connection *sql.DB
}

func New(path string) (*Storage, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Storage{Connection: conn}, nil
}

func (that *Storage) Init(ctx context.Context) error {
	if _, err := that.Connection.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("can't create tables: %w", err)
	}

	return nil
}

func (that *Storage) Close() error {
	if err := that.Connection.Close(); err != nil {
		return fmt.Errorf("can't close database: %w", err)
	}

	return nil
}
