// Package routing maps work orders to destination channels and publishes
// them as message envelopes.
package routing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/retry"

	"github.com/example/workorders/internal/domain"
	"github.com/example/workorders/internal/observability"
)

var logger = loggo.GetLogger("workorders.routing")

// RoutingAttribute is the envelope attribute subscribers filter on when a
// channel is shared between statuses.
const RoutingAttribute = "status"

// Envelope is one outbound message.
type Envelope struct {
	Channel string
	// Payload is the full work order as a JSON document.
	Payload []byte
	// DedupKey suppresses duplicate deliveries; it is the work order ID.
	DedupKey string
	// GroupKey orders deliveries within a channel; it is the status.
	GroupKey string
	// RoutingAttribute is the status for shared channels, empty otherwise.
	RoutingAttribute string
}

// Publisher delivers envelopes to a transport and returns the transport's
// message identifier.
type Publisher interface {
	Publish(ctx context.Context, env *Envelope) (string, error)
}

// PublishResult describes a delivered envelope.
type PublishResult struct {
	Channel          string
	MessageID        string
	DedupKey         string
	GroupKey         string
	RoutingAttribute string
	Attempts         int
}

// RetryPolicy bounds how hard Route tries a failing publisher.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns reasonable defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 3,
		Delay:    100 * time.Millisecond,
		MaxDelay: time.Second,
	}
}

// Option configures a Router.
type Option func(*Router)

// WithRetryPolicy sets the publish retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(r *Router) { r.retry = p }
}

// WithClock sets the clock used between retries.
func WithClock(c clock.Clock) Option {
	return func(r *Router) { r.clock = c }
}

// WithMetrics records publish outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// Router selects a channel for a work order and publishes its envelope.
// It holds only read-only configuration and is safe for concurrent use.
type Router struct {
	channels  ChannelMap
	publisher Publisher
	retry     RetryPolicy
	clock     clock.Clock
	metrics   *observability.Metrics
}

// NewRouter creates a Router over the given channel map and publisher.
func NewRouter(channels ChannelMap, publisher Publisher, opts ...Option) *Router {
	r := &Router{
		channels:  channels,
		publisher: publisher,
		retry:     DefaultRetryPolicy(),
		clock:     clock.WallClock,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.retry.Attempts < 1 {
		r.retry.Attempts = 1
	}
	if r.retry.Delay <= 0 {
		r.retry.Delay = DefaultRetryPolicy().Delay
	}
	return r
}

// Channels returns the router's channel map.
func (r *Router) Channels() ChannelMap {
	return r.channels
}

// Envelope builds the outbound message for wo without publishing it.
func (r *Router) Envelope(wo *domain.WorkOrder) (*Envelope, error) {
	channel, ok := r.channels.Lookup(wo.Status)
	if !ok {
		return nil, &UnroutableError{Status: wo.Status}
	}
	payload, err := json.Marshal(wo)
	if err != nil {
		return nil, errors.Annotatef(err, "encoding work order %s", wo.ID)
	}
	env := &Envelope{
		Channel:  channel,
		Payload:  payload,
		DedupKey: wo.ID,
		GroupKey: string(wo.Status),
	}
	if r.channels.Filtered() {
		env.RoutingAttribute = string(wo.Status)
	}
	return env, nil
}

// Route publishes wo to the channel for its status. Transient failures are
// retried under the router's policy; the final failure is a *PublishError.
// A status without a channel yields an *UnroutableError.
func (r *Router) Route(ctx context.Context, wo *domain.WorkOrder) (*PublishResult, error) {
	env, err := r.Envelope(wo)
	if err != nil {
		if errors.Is(err, domain.ErrUnroutableStatus) {
			logger.Criticalf("work order %s: %v", wo.ID, err)
			r.metrics.ObservePublish("", observability.OutcomeUnroutable, 0)
		}
		return nil, err
	}

	start := r.clock.Now()
	var (
		messageID string
		attempts  int
		lastErr   error
	)
	err = retry.Call(retry.CallArgs{
		Func: func() error {
			attempts++
			id, err := r.publisher.Publish(ctx, env)
			if err != nil {
				lastErr = err
				return err
			}
			messageID = id
			return nil
		},
		IsFatalError: func(err error) bool {
			return ctx.Err() != nil || !retryable(err)
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Debugf("publish %s to %s: attempt %d: %v", env.DedupKey, env.Channel, attempt, err)
		},
		Attempts:    r.retry.Attempts,
		Delay:       r.retry.Delay,
		MaxDelay:    r.retry.MaxDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       r.clock,
		Stop:        ctx.Done(),
	})
	elapsed := r.clock.Now().Sub(start)
	if err != nil {
		cause := lastErr
		if cause == nil {
			// Stopped before the first attempt.
			cause = err
		}
		r.metrics.ObservePublish(env.Channel, observability.OutcomeFailure, elapsed)
		return nil, &PublishError{Channel: env.Channel, Code: errorCode(cause), Err: cause}
	}

	r.metrics.ObservePublish(env.Channel, observability.OutcomeSuccess, elapsed)
	logger.Debugf("published %s to %s as %s", env.DedupKey, env.Channel, messageID)
	return &PublishResult{
		Channel:          env.Channel,
		MessageID:        messageID,
		DedupKey:         env.DedupKey,
		GroupKey:         env.GroupKey,
		RoutingAttribute: env.RoutingAttribute,
		Attempts:         attempts,
	}, nil
}
