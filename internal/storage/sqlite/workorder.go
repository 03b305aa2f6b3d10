package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/example/workorders/internal/attr"
	"github.com/example/workorders/internal/domain"
	"github.com/example/workorders/internal/storage"
)

// Put stores wo. A new ID is recorded as a created change, a changed record
// as an updated change, and an identical record as nothing at all.
func (s *SQLiteStorage) Put(ctx context.Context, wo *domain.WorkOrder) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := getWorkOrder(ctx, tx, wo.ID)
		if err != nil {
			return err
		}

		var kind storage.OperationKind
		switch {
		case existing == nil:
			kind = storage.OperationCreated
			_, err = tx.ExecContext(ctx, `
				INSERT INTO work_orders (id, created_at, description, delivery_date, status, cancellation_reason)
				VALUES (?, ?, ?, ?, ?, ?)
			`, wo.ID, formatCreatedAt(wo.CreatedAt), wo.Description, wo.DeliveryDate, string(wo.Status), nullString(wo.CancellationReason))
		case existing.Equal(wo):
			return nil
		default:
			kind = storage.OperationUpdated
			_, err = tx.ExecContext(ctx, `
				UPDATE work_orders
				SET created_at = ?, description = ?, delivery_date = ?, status = ?, cancellation_reason = ?
				WHERE id = ?
			`, formatCreatedAt(wo.CreatedAt), wo.Description, wo.DeliveryDate, string(wo.Status), nullString(wo.CancellationReason), wo.ID)
		}
		if err != nil {
			return err
		}

		return appendChange(ctx, tx, kind, wo)
	})
	return storage.Wrap("put", err)
}

// Scan returns all work orders ordered by creation time.
func (s *SQLiteStorage) Scan(ctx context.Context) (*storage.ScanResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, description, delivery_date, status, cancellation_reason
		FROM work_orders ORDER BY created_at, id
	`)
	if err != nil {
		return nil, storage.Wrap("scan", err)
	}
	defer rows.Close()

	result := &storage.ScanResult{Items: []*domain.WorkOrder{}}
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, storage.Wrap("scan", err)
		}
		result.Items = append(result.Items, wo)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Wrap("scan", err)
	}
	result.Total = len(result.Items)
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func getWorkOrder(ctx context.Context, tx *sql.Tx, id string) (*domain.WorkOrder, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, created_at, description, delivery_date, status, cancellation_reason
		FROM work_orders WHERE id = ?
	`, id)
	wo, err := scanWorkOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return wo, err
}

func scanWorkOrder(row rowScanner) (*domain.WorkOrder, error) {
	wo := &domain.WorkOrder{}
	var (
		createdAt, status string
		reason            sql.NullString
	)
	if err := row.Scan(&wo.ID, &createdAt, &wo.Description, &wo.DeliveryDate, &status, &reason); err != nil {
		return nil, err
	}

	t, err := time.Parse(createdAtColumnLayout, createdAt)
	if err != nil {
		return nil, err
	}
	wo.CreatedAt = t.UTC()
	wo.Status = domain.Status(status)
	if reason.Valid {
		r := reason.String
		wo.CancellationReason = &r
	}
	return wo, nil
}

func appendChange(ctx context.Context, tx *sql.Tx, kind storage.OperationKind, wo *domain.WorkOrder) error {
	image, err := json.Marshal(attr.EncodeWorkOrder(wo))
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO changes (work_order_id, operation, image_json, recorded_at)
		VALUES (?, ?, ?, ?)
	`, wo.ID, string(kind), string(image), time.Now().UTC())
	return err
}

// createdAtColumnLayout is fixed width so the column sorts chronologically.
const createdAtColumnLayout = "2006-01-02T15:04:05.000000000Z"

func formatCreatedAt(t time.Time) string {
	return t.UTC().Format(createdAtColumnLayout)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
