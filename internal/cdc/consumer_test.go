package cdc

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/juju/clock/testclock"

	"github.com/example/workorders/internal/domain"
	"github.com/example/workorders/internal/routing"
	"github.com/example/workorders/internal/storage/sqlite"
)

type consumerEnv struct {
	store    *sqlite.SQLiteStorage
	clock    *testclock.Clock
	consumer *Consumer
}

func newConsumerEnv(t *testing.T, batchSize int) *consumerEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "cdc_test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	router := routing.NewRouter(routing.PerStatus(map[domain.Status]string{
		domain.StatusReceived:   "received",
		domain.StatusInProgress: "in-progress",
		domain.StatusCompleted:  "completed",
		domain.StatusCanceled:   "canceled",
	}), store.Outbox())

	clk := testclock.NewClock(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	consumer := NewConsumer(store, NewAdapter(router, nil), ConsumerConfig{
		Name:         "test",
		PollInterval: time.Second,
		BatchSize:    batchSize,
	}, clk, nil)
	return &consumerEnv{store: store, clock: clk, consumer: consumer}
}

func (e *consumerEnv) put(t *testing.T, id string, status domain.Status) {
	t.Helper()
	wo := &domain.WorkOrder{
		ID:           id,
		CreatedAt:    time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC),
		Description:  "Repaint " + id,
		DeliveryDate: "2025-02-14T12:00:00Z",
		Status:       status,
	}
	if err := e.store.Put(context.Background(), wo); err != nil {
		t.Fatalf("Put(%s): %v", id, err)
	}
}

func (e *consumerEnv) messages(t *testing.T) int {
	t.Helper()
	msgs, err := e.store.Outbox().Messages(context.Background(), "")
	if err != nil {
		t.Fatalf("reading outbox: %v", err)
	}
	return len(msgs)
}

func TestRunOnceAdvancesCursor(t *testing.T) {
	c := qt.New(t)
	env := newConsumerEnv(t, 2)
	ctx := context.Background()

	env.put(t, "wo-1", domain.StatusReceived)
	env.put(t, "wo-2", domain.StatusInProgress)
	env.put(t, "wo-3", domain.StatusCompleted)

	res, err := env.consumer.RunOnce(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(res, qt.Equals, BatchResult{Processed: 2, Published: 2})

	res, err = env.consumer.RunOnce(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(res, qt.Equals, BatchResult{Processed: 1, Published: 1})

	res, err = env.consumer.RunOnce(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(res, qt.Equals, BatchResult{})

	position, err := env.store.Cursor(ctx, "test")
	c.Assert(err, qt.IsNil)
	c.Assert(position, qt.Equals, int64(3))
	c.Assert(env.messages(t), qt.Equals, 3)
}

func TestReplayIsSuppressedByOutbox(t *testing.T) {
	c := qt.New(t)
	env := newConsumerEnv(t, 10)
	ctx := context.Background()

	env.put(t, "wo-1", domain.StatusReceived)
	_, err := env.consumer.RunOnce(ctx)
	c.Assert(err, qt.IsNil)

	// Simulate a crash before the cursor was saved.
	c.Assert(env.store.SaveCursor(ctx, "test", 0), qt.IsNil)
	res, err := env.consumer.RunOnce(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Published, qt.Equals, 1)
	c.Assert(env.messages(t), qt.Equals, 1)
}

func TestConsumerPollsUntilStopped(t *testing.T) {
	c := qt.New(t)
	env := newConsumerEnv(t, 10)

	env.put(t, "wo-1", domain.StatusReceived)
	env.consumer.Start()

	// The first pass has finished once the loop waits on the clock.
	c.Assert(env.clock.WaitAdvance(time.Second, 5*time.Second, 1), qt.IsNil)
	c.Assert(env.messages(t), qt.Equals, 1)

	env.put(t, "wo-2", domain.StatusCanceled)
	// The pass woken by the first advance may have read before the put.
	c.Assert(env.clock.WaitAdvance(time.Second, 5*time.Second, 1), qt.IsNil)
	c.Assert(env.clock.WaitAdvance(time.Second, 5*time.Second, 1), qt.IsNil)
	c.Assert(env.messages(t), qt.Equals, 2)

	c.Assert(env.consumer.Stop(), qt.IsNil)
}
