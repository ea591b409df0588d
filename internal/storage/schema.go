package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS courses (
		career TEXT NOT NULL,
		position INTEGER NOT NULL,
		code TEXT NOT NULL,
		payload TEXT NOT NULL,
		cached_at INTEGER NOT NULL,
		PRIMARY KEY (career, position)
	);
	CREATE INDEX IF NOT EXISTS idx_courses_code ON courses(code);
	CREATE INDEX IF NOT EXISTS idx_courses_cached_at ON courses(cached_at);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create courses table: %w", err)
	}
	return nil
}
