package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// dbOps is satisfied by both *sqlx.DB and *sqlx.Tx so repository methods run
// unchanged inside RunInTx.
type dbOps interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
}

type DB struct {
	dbOps
	root *sqlx.DB
}

// connection pragmas are applied per pooled connection through the DSN
const sqlitePragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(30000)&_pragma=foreign_keys(1)&_txlock=immediate"

func NewSQLiteDB(dsn string) (*DB, error) {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	db, err := sqlx.Open("sqlite", dsn+sep+sqlitePragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	store := &DB{dbOps: db, root: db}

	if err := store.dedupeShowPaths(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to dedupe shows: %w", err)
	}

	if _, err := db.Exec(Indexes); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply indexes: %w", err)
	}

	return store, nil
}

// RunInTx runs fn against a DB bound to a single transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
func (db *DB) RunInTx(ctx context.Context, fn func(txDB *DB) error) error {
	tx, err := db.root.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	txDB := &DB{
		dbOps: tx,
		root:  db.root,
	}

	if err := fn(txDB); err != nil {
		return err
	}
	return tx.Commit()
}

// Ping runs a trivial query to prove the database answers.
func (db *DB) Ping(ctx context.Context) error {
	var one int
	return db.GetContext(ctx, &one, "SELECT 1")
}

func (db *DB) Close() error {
	return db.root.Close()
}

// dedupeShowPaths keeps the newest row for every duplicated show path and
// points any jobs at the survivor. Databases created before the unique path
// index existed may hold duplicates.
func (db *DB) dedupeShowPaths(ctx context.Context) error {
	return db.RunInTx(ctx, func(tx *DB) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE jobs SET show_id = (
				SELECT keep.id FROM shows keep
				WHERE keep.path = (SELECT dup.path FROM shows dup WHERE dup.id = jobs.show_id)
				ORDER BY keep.rowid DESC LIMIT 1
			)
			WHERE show_id IN (
				SELECT id FROM shows WHERE rowid NOT IN (SELECT MAX(rowid) FROM shows GROUP BY path)
			)`); err != nil {
			return fmt.Errorf("repoint jobs: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM shows WHERE rowid NOT IN (SELECT MAX(rowid) FROM shows GROUP BY path)`); err != nil {
			return fmt.Errorf("delete duplicates: %w", err)
		}
		return nil
	})
}
