package sqlite

import (
	"context"
	"database/sql"

	"github.com/juju/errors"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/workorders/internal/storage"
)

// SQLiteStorage implements storage.Store and storage.ChangeFeed on SQLite.
// Every Put appends to the change log in the same transaction, so the feed
// never misses or invents a mutation.
type SQLiteStorage struct {
	db *sql.DB
}

var (
	_ storage.Store      = (*SQLiteStorage)(nil)
	_ storage.ChangeFeed = (*SQLiteStorage)(nil)
)

// New creates a new SQLite storage instance.
func New(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, errors.Annotatef(err, "opening %s", path)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with single connection for writes
	db.SetMaxIdleConns(1)

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.db)
}

// withTx runs fn in a transaction, committing only if fn succeeds.
func (s *SQLiteStorage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
