package sqlite

import (
	"context"
	"database/sql"
)

// Migrate runs all database migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		// Work orders table
		`CREATE TABLE IF NOT EXISTS work_orders (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			description TEXT NOT NULL,
			delivery_date TEXT NOT NULL,
			status TEXT NOT NULL,
			cancellation_reason TEXT
		)`,

		// Change log, one row per mutation of work_orders
		`CREATE TABLE IF NOT EXISTS changes (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			work_order_id TEXT NOT NULL,
			operation TEXT NOT NULL,
			image_json TEXT,
			recorded_at DATETIME NOT NULL
		)`,

		// Change feed consumer positions
		`CREATE TABLE IF NOT EXISTS feed_cursors (
			consumer TEXT PRIMARY KEY,
			position INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL
		)`,

		// Outbox channels
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			channel TEXT NOT NULL,
			dedup_key TEXT NOT NULL,
			group_key TEXT NOT NULL,
			routing_attribute TEXT,
			payload TEXT NOT NULL,
			published_at DATETIME NOT NULL,
			UNIQUE(channel, dedup_key)
		)`,

		// Indexes for efficient queries
		`CREATE INDEX IF NOT EXISTS idx_work_orders_created ON work_orders(created_at, id)`,
		`CREATE INDEX IF NOT EXISTS idx_changes_work_order ON changes(work_order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(channel, id)`,
	}

	for _, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return err
		}
	}

	return nil
}
