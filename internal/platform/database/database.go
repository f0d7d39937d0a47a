package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"pollhub/internal/retry"
)

// Dialects understood by Open and Migrate.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

//go:embed migrations
var migrations embed.FS

// Open connects to dialect at dsn and waits for the server to answer.
func Open(ctx context.Context, dialect, dsn string) (*sqlx.DB, error) {
	var driverName string
	switch dialect {
	case Postgres:
		driverName = "pgx"
	case SQLite:
		driverName = "sqlite"
		dsn = withForeignKeys(dsn)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	if dialect == SQLite {
		// one writer; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	err = retry.DoWithRetry(pingCtx, 6, 500*time.Millisecond, func() error {
		attemptCtx, cancel := context.WithTimeout(pingCtx, 2*time.Second)
		defer cancel()
		return db.PingContext(attemptCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate applies the embedded schema files for dialect in name order.
// Every statement is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB, dialect string) error {
	dir := "migrations/" + dialect
	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return fmt.Errorf("no migrations for dialect %q: %w", dialect, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrations.ReadFile(dir + "/" + name)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}
