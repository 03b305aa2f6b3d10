// Package cdc routes stored work orders from a store's change feed.
package cdc

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/example/workorders/internal/attr"
	"github.com/example/workorders/internal/domain"
	"github.com/example/workorders/internal/observability"
	"github.com/example/workorders/internal/routing"
	"github.com/example/workorders/internal/storage"
)

var logger = loggo.GetLogger("workorders.cdc")

// Router publishes one work order.
type Router interface {
	Route(ctx context.Context, wo *domain.WorkOrder) (*routing.PublishResult, error)
}

// BatchResult counts what happened to a batch of change records.
// Processed == Published + Skipped + Failed.
type BatchResult struct {
	Processed int
	Published int
	Skipped   int
	Failed    int
}

// Adapter decodes change record images and routes the work orders.
type Adapter struct {
	router  Router
	metrics *observability.Metrics
}

// NewAdapter creates a new Adapter. metrics may be nil.
func NewAdapter(router Router, metrics *observability.Metrics) *Adapter {
	return &Adapter{router: router, metrics: metrics}
}

// Process routes every created or updated record in order. Removals and
// unknown kinds are skipped. A record that fails to decode or publish is
// logged and counted; it never stops the rest of the batch.
func (a *Adapter) Process(ctx context.Context, records []*storage.ChangeRecord) BatchResult {
	var res BatchResult
	for _, rec := range records {
		res.Processed++
		switch rec.Kind {
		case storage.OperationCreated, storage.OperationUpdated:
		default:
			logger.Debugf("skipping %s record %d for %s", rec.Kind, rec.Sequence, rec.Key)
			a.metrics.ObserveChangeRecord(string(rec.Kind), observability.OutcomeSkipped)
			res.Skipped++
			continue
		}

		if err := a.route(ctx, rec); err != nil {
			logger.Errorf("change record %d (%s %s): %v", rec.Sequence, rec.Kind, rec.Key, err)
			a.metrics.ObserveChangeRecord(string(rec.Kind), outcomeOf(err))
			res.Failed++
			continue
		}
		a.metrics.ObserveChangeRecord(string(rec.Kind), observability.OutcomeSuccess)
		res.Published++
	}
	return res
}

func (a *Adapter) route(ctx context.Context, rec *storage.ChangeRecord) error {
	if rec.Image == nil {
		return &attr.DecodeError{Reason: "record has no image"}
	}
	wo, err := attr.DecodeWorkOrder(rec.Image)
	if err != nil {
		return err
	}
	_, err = a.router.Route(ctx, wo)
	return err
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrDecode):
		return observability.OutcomeDecodeError
	case errors.Is(err, domain.ErrUnroutableStatus):
		return observability.OutcomeUnroutable
	default:
		return observability.OutcomeFailure
	}
}
