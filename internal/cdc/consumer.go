package cdc

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"gopkg.in/tomb.v2"

	"github.com/example/workorders/internal/observability"
	"github.com/example/workorders/internal/storage"
)

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	Name         string        // Cursor name in the change feed
	PollInterval time.Duration // How often to poll when the feed is drained
	BatchSize    int           // Maximum records per batch
}

// DefaultConsumerConfig returns reasonable defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Name:         "router",
		PollInterval: time.Second,
		BatchSize:    100,
	}
}

// Consumer polls a change feed and hands each batch to an Adapter. The
// cursor only moves after a batch has been processed, so a crash replays
// the batch rather than losing it.
type Consumer struct {
	feed    storage.ChangeFeed
	adapter *Adapter
	config  ConsumerConfig
	clock   clock.Clock
	metrics *observability.Metrics
	tomb    tomb.Tomb
}

// NewConsumer creates a new Consumer. metrics may be nil.
func NewConsumer(feed storage.ChangeFeed, adapter *Adapter, config ConsumerConfig, clk clock.Clock, metrics *observability.Metrics) *Consumer {
	def := DefaultConsumerConfig()
	if config.Name == "" {
		config.Name = def.Name
	}
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &Consumer{
		feed:    feed,
		adapter: adapter,
		config:  config,
		clock:   clk,
		metrics: metrics,
	}
}

// Start begins polling.
func (c *Consumer) Start() {
	logger.Infof("consumer %q polling every %s", c.config.Name, c.config.PollInterval)
	c.tomb.Go(c.loop)
}

// Stop stops polling and waits for the current batch to finish.
func (c *Consumer) Stop() error {
	c.tomb.Kill(nil)
	return c.tomb.Wait()
}

func (c *Consumer) loop() error {
	ctx := c.tomb.Context(context.Background())
	for {
		res, err := c.RunOnce(ctx)
		if err != nil {
			logger.Warningf("consumer %q: %v", c.config.Name, err)
		}
		if err == nil && res.Processed == c.config.BatchSize {
			// More may be waiting.
			select {
			case <-c.tomb.Dying():
				return nil
			default:
				continue
			}
		}

		select {
		case <-c.tomb.Dying():
			return nil
		case <-c.clock.After(c.config.PollInterval):
		}
	}
}

// RunOnce processes the next batch after the consumer's cursor and then
// advances the cursor past it.
func (c *Consumer) RunOnce(ctx context.Context) (BatchResult, error) {
	position, err := c.feed.Cursor(ctx, c.config.Name)
	if err != nil {
		return BatchResult{}, errors.Annotate(err, "reading cursor")
	}
	records, err := c.feed.ReadChanges(ctx, position, c.config.BatchSize)
	if err != nil {
		return BatchResult{}, errors.Annotatef(err, "reading changes after %d", position)
	}
	if len(records) == 0 {
		return BatchResult{}, nil
	}

	res := c.adapter.Process(ctx, records)
	last := records[len(records)-1].Sequence
	if err := c.feed.SaveCursor(ctx, c.config.Name, last); err != nil {
		return res, errors.Annotatef(err, "saving cursor %d", last)
	}
	c.metrics.SetFeedPosition(c.config.Name, last)
	logger.Debugf("consumer %q: processed=%d published=%d skipped=%d failed=%d position=%d",
		c.config.Name, res.Processed, res.Published, res.Skipped, res.Failed, last)
	return res, nil
}
