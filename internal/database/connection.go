package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens a sqlite3 or postgres database and creates the schema.
// For sqlite3 file paths the parent directory is created when missing.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case "sqlite3":
		if dir := sqliteDir(dsn); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	case "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// sqliteDir returns the directory of a file-backed sqlite DSN, or "" for
// in-memory databases
func sqliteDir(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return ""
	}
	return dir
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	seq := "seq INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "postgres" {
		seq = "seq BIGSERIAL PRIMARY KEY"
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schedule_events (
			` + seq + `,
			id TEXT NOT NULL UNIQUE,
			user_id BIGINT NOT NULL,
			title TEXT NOT NULL,
			event_date TEXT NOT NULL,
			start_minute INTEGER NOT NULL,
			duration_minutes INTEGER NOT NULL,
			status INTEGER NOT NULL,
			learning_method TEXT NOT NULL,
			content TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			version INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schedule_events table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_schedule_events_user_date ON schedule_events (user_id, event_date)`)
	if err != nil {
		return fmt.Errorf("failed to create schedule_events index: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_schedule_events_date_status ON schedule_events (event_date, status)`)
	if err != nil {
		return fmt.Errorf("failed to create schedule_events index: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS user_profiles (
			user_id BIGINT PRIMARY KEY,
			topic TEXT NOT NULL DEFAULT '',
			time_availability TEXT NOT NULL DEFAULT '',
			learning_style TEXT NOT NULL DEFAULT '',
			preference TEXT NOT NULL DEFAULT '',
			goal TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create user_profiles table: %w", err)
	}
	return nil
}
