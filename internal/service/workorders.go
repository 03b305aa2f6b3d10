package service

import (
	"context"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/example/workorders/internal/domain"
	"github.com/example/workorders/internal/observability"
	"github.com/example/workorders/internal/storage"
	"github.com/example/workorders/pkg/id"
)

var logger = loggo.GetLogger("workorders.service")

// WorkOrderService creates and lists work orders. What happens after a
// record is persisted is decided by its PublishStrategy.
type WorkOrderService struct {
	store    storage.Store
	strategy PublishStrategy
	newID    id.Generator
	clock    clock.Clock
	metrics  *observability.Metrics
}

// Option configures a WorkOrderService.
type Option func(*WorkOrderService)

// WithClock sets the clock that stamps createdAt.
func WithClock(c clock.Clock) Option {
	return func(s *WorkOrderService) { s.clock = c }
}

// WithIDGenerator sets the work order ID generator.
func WithIDGenerator(g id.Generator) Option {
	return func(s *WorkOrderService) { s.newID = g }
}

// WithMetrics records creation and validation outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *WorkOrderService) { s.metrics = m }
}

// NewWorkOrderService creates a new WorkOrderService.
func NewWorkOrderService(store storage.Store, strategy PublishStrategy, opts ...Option) *WorkOrderService {
	s := &WorkOrderService{
		store:    store,
		strategy: strategy,
		newID:    id.Generate,
		clock:    clock.WallClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Strategy returns the service's publish strategy.
func (s *WorkOrderService) Strategy() PublishStrategy {
	return s.strategy
}

// Create validates raw input, persists the new work order and hands it to
// the publish strategy. Validation failures are *domain.ValidationError;
// persistence failures match domain.ErrStorage and leave nothing published.
// Publish failures never fail the call.
func (s *WorkOrderService) Create(ctx context.Context, raw map[string]any) (*domain.WorkOrder, error) {
	in, err := domain.ValidateCreate(raw)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			s.metrics.ObserveValidationFailure(string(verr.Kind))
		}
		return nil, err
	}

	wo := domain.NewWorkOrder(s.newID(), s.clock.Now(), in)
	if err := s.store.Put(ctx, wo); err != nil {
		logger.Errorf("persisting work order %s: %v", wo.ID, err)
		return nil, err
	}
	s.metrics.ObserveCreated(string(wo.Status))
	logger.Infof("created work order %s (%s)", wo.ID, wo.Status)

	s.strategy.AfterPersist(ctx, wo)
	return wo, nil
}

// List returns every stored work order.
func (s *WorkOrderService) List(ctx context.Context) (*storage.ScanResult, error) {
	result, err := s.store.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return result, nil
}
