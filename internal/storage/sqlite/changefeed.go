package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/example/workorders/internal/attr"
	"github.com/example/workorders/internal/storage"
)

// ReadChanges returns up to limit change records after the given sequence.
func (s *SQLiteStorage) ReadChanges(ctx context.Context, after int64, limit int) ([]*storage.ChangeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, work_order_id, operation, image_json, recorded_at
		FROM changes WHERE seq > ? ORDER BY seq LIMIT ?
	`, after, limit)
	if err != nil {
		return nil, storage.Wrap("read changes", err)
	}
	defer rows.Close()

	var records []*storage.ChangeRecord
	for rows.Next() {
		rec := &storage.ChangeRecord{}
		var (
			operation string
			imageJSON sql.NullString
		)
		if err := rows.Scan(&rec.Sequence, &rec.Key, &operation, &imageJSON, &rec.RecordedAt); err != nil {
			return nil, storage.Wrap("read changes", err)
		}
		rec.Kind = storage.OperationKind(operation)
		if imageJSON.Valid && imageJSON.String != "" {
			var img attr.Image
			if err := json.Unmarshal([]byte(imageJSON.String), &img); err != nil {
				return nil, storage.Wrap("read changes", err)
			}
			rec.Image = img
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Wrap("read changes", err)
	}
	return records, nil
}

// Cursor returns the consumer's last committed sequence, zero if it has
// never committed one.
func (s *SQLiteStorage) Cursor(ctx context.Context, consumer string) (int64, error) {
	var position int64
	err := s.db.QueryRowContext(ctx, `SELECT position FROM feed_cursors WHERE consumer = ?`, consumer).Scan(&position)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, storage.Wrap("read cursor", err)
	}
	return position, nil
}

// SaveCursor records the consumer's position.
func (s *SQLiteStorage) SaveCursor(ctx context.Context, consumer string, position int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feed_cursors (consumer, position, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(consumer) DO UPDATE SET position = excluded.position, updated_at = excluded.updated_at
	`, consumer, position, time.Now().UTC())
	return storage.Wrap("save cursor", err)
}
