package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog_service/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var ErrUnsupportedURI = errors.New("unsupported database URI")

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ParseURI maps a DATABASE_URI onto a registered driver name and its DSN.
func ParseURI(uri string) (Dialect, string, string, error) {
	switch {
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return Postgres, "pgx", uri, nil
	case strings.HasPrefix(uri, "sqlite://"):
		path := strings.TrimPrefix(uri, "sqlite://")
		if path == "" {
			return "", "", "", fmt.Errorf("%w: empty sqlite path", ErrUnsupportedURI)
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return SQLite, "sqlite3", path + sep + "_foreign_keys=on", nil
	default:
		return "", "", "", fmt.Errorf("%w: %q", ErrUnsupportedURI, redact(uri))
	}
}

// Open connects to uri and applies the schema.
func Open(ctx context.Context, uri string) (*sql.DB, error) {
	dialect, driver, dsn, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	database, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	configurePool(database, dialect)

	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	if err := Migrate(ctx, database, dialect); err != nil {
		_ = database.Close()
		return nil, err
	}

	return database, nil
}

// Init opens the configured database, retrying while it comes up, and exits the
// process if it never does.
func Init(DBCfg *config.DBConfig) *sql.DB {
	var database *sql.DB
	var err error

	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		database, err = Open(ctx, DBCfg.URI)
		cancel()
		if err == nil {
			break
		}
		if errors.Is(err, ErrUnsupportedURI) {
			break
		}

		logrus.WithError(err).Warnf("Failed to connect to database (attempt %d/%d)", i+1, maxRetries)
		time.Sleep(time.Duration(i+1) * time.Second)
	}

	if err != nil {
		logrus.WithError(err).Fatalf("Failed to connect to database after %d attempts", maxRetries)
	}

	logrus.Info("Database connection established successfully")
	return database
}

func configurePool(database *sql.DB, dialect Dialect) {
	if dialect == SQLite {
		// One connection keeps :memory: databases alive and serialises writers.
		database.SetMaxOpenConns(1)
		return
	}

	database.SetMaxOpenConns(100)
	database.SetMaxIdleConns(10)
	database.SetConnMaxLifetime(30 * time.Minute)
	database.SetConnMaxIdleTime(5 * time.Minute)
}

func redact(uri string) string {
	if i := strings.Index(uri, "@"); i >= 0 {
		if j := strings.Index(uri, "://"); j >= 0 && j < i {
			return uri[:j+3] + "***" + uri[i:]
		}
	}
	return uri
}
