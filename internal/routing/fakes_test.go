package routing

import (
	"context"
	"fmt"
	"sync"
)

// fakePublisher records envelopes and fails the first failN calls with err.
type fakePublisher struct {
	mu        sync.Mutex
	envelopes []*Envelope
	failN     int
	err       error
	calls     int
}

func (p *fakePublisher) Publish(ctx context.Context, env *Envelope) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failN {
		return "", p.err
	}
	p.envelopes = append(p.envelopes, env)
	return fmt.Sprintf("msg-%d", len(p.envelopes)), nil
}
