// Package storage opens the client databases and brings their schema up to
// date with the embedded goose migrations.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/dmitrijs2005/cyphervault/internal/client/migrations"
	"github.com/dmitrijs2005/cyphervault/internal/filex"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// goose keeps its FS and dialect in package globals.
var gooseMu sync.Mutex

// RunMigrations applies all pending migrations for dialect.
func RunMigrations(ctx context.Context, db *sql.DB, dialect Dialect) error {
	dir := migrations.SQLiteDir
	if dialect == DialectPostgres {
		dir = migrations.PostgresDir
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(log.New(io.Discard, "", 0))

	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// OpenSQLite opens (creating if needed) the SQLite file at path and migrates it.
// The pool is limited to one connection so ":memory:" databases stay coherent
// and writers never contend for the file lock.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := filex.EnsureParentDir(path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	if err := RunMigrations(ctx, db, DialectSQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenPostgres connects through the pgx stdlib driver and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := RunMigrations(ctx, db, DialectPostgres); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
