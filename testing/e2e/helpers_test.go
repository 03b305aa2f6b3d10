package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/workorders/internal/cdc"
	"github.com/example/workorders/internal/config"
	"github.com/example/workorders/internal/storage/sqlite"
	"github.com/example/workorders/internal/web"
	"github.com/example/workorders/internal/wire"
)

// TestEnv runs the HTTP API over a temp sqlite database with the outbox
// transport, plus the change feed consumer for the stream topology.
type TestEnv struct {
	App      *wire.App
	Server   *httptest.Server
	Consumer *cdc.Consumer

	t *testing.T
}

// NewTestEnv creates a test environment for the given topology.
func NewTestEnv(t *testing.T, topology config.Topology) *TestEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Topology = topology
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "workorders_e2e.db")
	cfg.SharedChannel = "workorders"
	cfg.Feed.PollInterval = 20 * time.Millisecond
	cfg.LogLevel = "WARNING"

	app, err := wire.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to wire app: %v", err)
	}

	env := &TestEnv{
		App:    app,
		Server: httptest.NewServer(web.NewServer(":0", app.Handler, app.Metrics).Handler()),
		t:      t,
	}
	if cfg.Deferred() {
		env.Consumer, err = app.Consumer()
		if err != nil {
			t.Fatalf("failed to create consumer: %v", err)
		}
	}
	return env
}

// Start starts the change feed consumer, if any.
func (e *TestEnv) Start() {
	if e.Consumer != nil {
		e.Consumer.Start()
	}
}

// Stop stops everything and closes storage.
func (e *TestEnv) Stop() {
	e.Server.Close()
	if e.Consumer != nil {
		e.Consumer.Stop()
	}
	e.App.Close()
}

// Do sends a request to the API and decodes the JSON response.
func (e *TestEnv) Do(method, body string) (int, map[string]any) {
	e.t.Helper()
	code, out, err := e.send(method, body)
	if err != nil {
		e.t.Fatalf("%s /workorders: %v", method, err)
	}
	return code, out
}

// send is Do for goroutines other than the test's.
func (e *TestEnv) send(method, body string) (int, map[string]any, error) {
	req, err := http.NewRequest(method, e.Server.URL+"/workorders", bytes.NewBufferString(body))
	if err != nil {
		return 0, nil, err
	}
	resp, err := e.Server.Client().Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, nil, fmt.Errorf("response %q is not JSON: %w", data, err)
	}
	return resp.StatusCode, out, nil
}

// Create posts a work order and returns its id, failing the test unless it
// was created.
func (e *TestEnv) Create(description, deliveryDate, status, reason string) string {
	e.t.Helper()

	in := map[string]string{
		"description":  description,
		"deliveryDate": deliveryDate,
		"status":       status,
	}
	if reason != "" {
		in["cancellationReason"] = reason
	}
	body, _ := json.Marshal(in)

	code, out := e.Do(http.MethodPost, string(body))
	if code != http.StatusCreated {
		e.t.Fatalf("create %s: status %d: %v", status, code, out)
	}
	return out["data"].(map[string]any)["id"].(string)
}

// Messages returns the outbox messages for channel, all channels if empty.
func (e *TestEnv) Messages(channel string) []*sqlite.Message {
	e.t.Helper()
	msgs, err := e.App.SQLite.Outbox().Messages(context.Background(), channel)
	if err != nil {
		e.t.Fatalf("reading outbox: %v", err)
	}
	return msgs
}

// WaitForMessages polls the outbox until channel holds n messages.
func (e *TestEnv) WaitForMessages(channel string, n int, timeout time.Duration) []*sqlite.Message {
	e.t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		msgs := e.Messages(channel)
		if len(msgs) >= n {
			return msgs
		}
		if time.Now().After(deadline) {
			e.t.Fatalf("channel %q: got %d messages after %v, want %d", channel, len(msgs), timeout, n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
