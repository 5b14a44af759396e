package db

import (
	"context"
	"database/sql"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username VARCHAR(50) NOT NULL,
		email VARCHAR(50) NOT NULL,
		password VARCHAR(500) NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		CONSTRAINT users_username_key UNIQUE (username),
		CONSTRAINT users_email_key UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id SERIAL PRIMARY KEY,
		created TIMESTAMPTZ NOT NULL,
		title VARCHAR(100) NOT NULL,
		content TEXT NOT NULL,
		author_id INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT
	)`,
	`CREATE INDEX IF NOT EXISTS posts_author_id_idx ON posts (author_id)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id VARCHAR(36) PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS post_events (
		id SERIAL PRIMARY KEY,
		event_type VARCHAR(32) NOT NULL,
		post_id INTEGER NOT NULL,
		author_id INTEGER NOT NULL,
		title VARCHAR(100) NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username VARCHAR(50) NOT NULL UNIQUE,
		email VARCHAR(50) NOT NULL UNIQUE,
		password VARCHAR(500) NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created DATETIME NOT NULL,
		title VARCHAR(100) NOT NULL,
		content TEXT NOT NULL,
		author_id INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT
	)`,
	`CREATE INDEX IF NOT EXISTS posts_author_id_idx ON posts (author_id)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id VARCHAR(36) PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS post_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type VARCHAR(32) NOT NULL,
		post_id INTEGER NOT NULL,
		author_id INTEGER NOT NULL,
		title VARCHAR(100) NOT NULL,
		occurred_at DATETIME NOT NULL,
		recorded_at DATETIME NOT NULL
	)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, database *sql.DB, dialect Dialect) error {
	statements := postgresSchema
	if dialect == SQLite {
		statements = sqliteSchema
	}

	for _, stmt := range statements {
		if _, err := database.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}

	return nil
}
