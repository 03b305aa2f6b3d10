package storage

import (
	"context"
	"time"

	"github.com/example/workorders/internal/attr"
	"github.com/example/workorders/internal/domain"
)

// ScanResult is the full logical set of stored work orders.
type ScanResult struct {
	Items []*domain.WorkOrder
	Total int
}

// Store provides access to the durable work order records.
type Store interface {
	// Put persists one record keyed by its ID. Putting an identical record
	// again has no effect.
	Put(ctx context.Context, wo *domain.WorkOrder) error

	// Scan returns every stored record. Stores that page internally
	// aggregate all pages before returning.
	Scan(ctx context.Context) (*ScanResult, error)

	// Close releases the underlying client.
	Close() error
}

// OperationKind is the kind of mutation a change record describes.
type OperationKind string

const (
	OperationCreated OperationKind = "created"
	OperationUpdated OperationKind = "updated"
	OperationRemoved OperationKind = "removed"
)

// ChangeRecord is one entry of a store's change feed. Image is the
// post-change record and is nil for removals.
type ChangeRecord struct {
	Sequence   int64
	Kind       OperationKind
	Key        string
	Image      attr.Image
	RecordedAt time.Time
}

// ChangeFeed exposes an ordered log of store mutations together with
// per-consumer positions in it.
type ChangeFeed interface {
	// ReadChanges returns up to limit records with Sequence > after, in order.
	ReadChanges(ctx context.Context, after int64, limit int) ([]*ChangeRecord, error)

	// Cursor returns the last sequence the consumer has finished with.
	Cursor(ctx context.Context, consumer string) (int64, error)

	// SaveCursor records the consumer's position.
	SaveCursor(ctx context.Context, consumer string, position int64) error
}
