package e2e

import (
	"testing"
	"time"

	"github.com/example/workorders/internal/config"
)

// TestStreamPublishesFromChangeFeed checks the API only persists and the
// consumer publishes afterwards.
func TestStreamPublishesFromChangeFeed(t *testing.T) {
	env := NewTestEnv(t, config.TopologyStream)
	defer env.Stop()

	id := env.Create("Rewire panel", "2025-02-14T12:00:00Z", "received", "")
	if n := len(env.Messages("")); n != 0 {
		t.Fatalf("stream topology published %d messages inline", n)
	}

	env.Start()
	msgs := env.WaitForMessages("received", 1, 2*time.Second)
	if msgs[0].Envelope.DedupKey != id {
		t.Errorf("dedup key = %q, want %q", msgs[0].Envelope.DedupKey, id)
	}

	env.Create("Close out", "2025-02-20T08:00:00Z", "canceled", "no access")
	env.WaitForMessages("canceled", 1, 2*time.Second)
}

// TestStreamConsumerResumesFromCursor restarts the consumer and checks
// nothing is published twice.
func TestStreamConsumerResumesFromCursor(t *testing.T) {
	env := NewTestEnv(t, config.TopologyStream)

	env.Create("One", "2025-02-14T12:00:00Z", "completed", "")
	env.Start()
	env.WaitForMessages("completed", 1, 2*time.Second)
	if err := env.Consumer.Stop(); err != nil {
		t.Fatalf("stopping consumer: %v", err)
	}

	consumer, err := env.App.Consumer()
	if err != nil {
		t.Fatalf("creating consumer: %v", err)
	}
	env.Consumer = consumer
	defer env.Stop()

	env.Create("Two", "2025-02-14T12:00:00Z", "completed", "")
	env.Start()
	msgs := env.WaitForMessages("completed", 2, 2*time.Second)
	time.Sleep(100 * time.Millisecond)
	if msgs = env.Messages("completed"); len(msgs) != 2 {
		t.Errorf("got %d messages, want 2", len(msgs))
	}
}
