package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

const pgUniqueViolation = "23505"

// UniqueViolation reports whether err is a unique-constraint failure and, when it
// can tell, which column of which table caused it (e.g. "email").
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return columnFromConstraint(pgErr.ConstraintName, pgErr.TableName), true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return columnFromSQLiteMessage(liteErr.Error()), true
	}

	return "", false
}

// IsUniqueViolation is UniqueViolation without the column.
func IsUniqueViolation(err error) bool {
	_, ok := UniqueViolation(err)
	return ok
}

// users_email_key -> email
func columnFromConstraint(constraint, table string) string {
	name := strings.TrimSuffix(constraint, "_key")
	if table != "" {
		name = strings.TrimPrefix(name, table+"_")
	}
	return name
}

// "UNIQUE constraint failed: users.email" -> email
func columnFromSQLiteMessage(msg string) string {
	i := strings.LastIndex(msg, ":")
	if i < 0 {
		return ""
	}
	cols := strings.TrimSpace(msg[i+1:])
	if comma := strings.Index(cols, ","); comma >= 0 {
		cols = cols[:comma]
	}
	if dot := strings.LastIndex(cols, "."); dot >= 0 {
		cols = cols[dot+1:]
	}
	return cols
}
