package service

import (
	"context"

	"github.com/example/workorders/internal/domain"
	"github.com/example/workorders/internal/routing"
)

// PublishStrategy decides how a persisted work order reaches its channel.
type PublishStrategy interface {
	// Name identifies the strategy in logs.
	Name() string

	// AfterPersist runs once the record is durable. It must not fail the
	// creation: the record is the source of truth and delivery is best
	// effort.
	AfterPersist(ctx context.Context, wo *domain.WorkOrder)
}

// InlinePublish routes each work order as soon as it is persisted.
type InlinePublish struct {
	router *routing.Router
}

// NewInlinePublish creates an InlinePublish strategy.
func NewInlinePublish(router *routing.Router) *InlinePublish {
	return &InlinePublish{router: router}
}

func (p *InlinePublish) Name() string { return "inline" }

// AfterPersist implements PublishStrategy.
func (p *InlinePublish) AfterPersist(ctx context.Context, wo *domain.WorkOrder) {
	res, err := p.router.Route(ctx, wo)
	if err != nil {
		logger.Warningf("work order %s persisted but not published: %v", wo.ID, err)
		return
	}
	logger.Debugf("work order %s published to %s as %s", wo.ID, res.Channel, res.MessageID)
}

// DeferredPublish leaves publication to a change feed consumer.
type DeferredPublish struct{}

func (DeferredPublish) Name() string { return "deferred" }

// AfterPersist implements PublishStrategy.
func (DeferredPublish) AfterPersist(ctx context.Context, wo *domain.WorkOrder) {
	logger.Tracef("work order %s left for the change feed", wo.ID)
}
