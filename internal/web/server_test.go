package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/example/workorders/internal/domain"
	"github.com/example/workorders/internal/ingress"
	"github.com/example/workorders/internal/observability"
	"github.com/example/workorders/internal/routing"
	"github.com/example/workorders/internal/service"
	"github.com/example/workorders/internal/storage/sqlite"
)

// testEnv provides a minimal test environment for web tests.
type testEnv struct {
	storage *sqlite.SQLiteStorage
	metrics *observability.Metrics
	server  *Server
	dbPath  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx := context.Background()
	metrics := observability.NewMetrics()

	dbPath := filepath.Join(t.TempDir(), "workorders_web_test.db")
	storage, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	router := routing.NewRouter(routing.Shared("workorders-topic"), storage.Outbox(), routing.WithMetrics(metrics))
	svc := service.NewWorkOrderService(storage, service.NewInlinePublish(router), service.WithMetrics(metrics))
	server := NewServer(":0", ingress.NewHandler(svc), metrics)

	return &testEnv{
		storage: storage,
		metrics: metrics,
		server:  server,
		dbPath:  dbPath,
	}
}

func (e *testEnv) cleanup() {
	e.storage.Close()
	os.Remove(e.dbPath)
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rr, req)
	return rr
}

func TestWorkOrderRoutes(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	valid := `{"description":"Replace filter","deliveryDate":"2025-02-14T12:00:00Z","status":"in_progress"}`

	tests := []struct {
		name          string
		method        string
		path          string
		body          string
		wantStatus    int
		wantJSONField string
	}{
		{
			name:          "create",
			method:        http.MethodPost,
			path:          "/workorders",
			body:          valid,
			wantStatus:    http.StatusCreated,
			wantJSONField: "data",
		},
		{
			name:          "create with trailing slash",
			method:        http.MethodPost,
			path:          "/workorders/",
			body:          valid,
			wantStatus:    http.StatusCreated,
			wantJSONField: "data",
		},
		{
			name:          "create invalid",
			method:        http.MethodPost,
			path:          "/workorders",
			body:          `{"description":"x"}`,
			wantStatus:    http.StatusBadRequest,
			wantJSONField: "missingFields",
		},
		{
			name:          "list",
			method:        http.MethodGet,
			path:          "/workorders",
			wantStatus:    http.StatusOK,
			wantJSONField: "data",
		},
		{
			name:          "delete not allowed",
			method:        http.MethodDelete,
			path:          "/workorders",
			wantStatus:    http.StatusMethodNotAllowed,
			wantJSONField: "message",
		},
		{
			name:       "unknown path",
			method:     http.MethodGet,
			path:       "/workplans",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(tt.method, tt.path, tt.body)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if tt.wantJSONField == "" {
				return
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			var result map[string]any
			if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
				t.Fatalf("response is not valid JSON: %v; body: %s", err, rr.Body.String())
			}
			if _, ok := result[tt.wantJSONField]; !ok {
				t.Errorf("response missing field %q: %s", tt.wantJSONField, rr.Body.String())
			}
		})
	}
}

func TestCreatePublishesToSharedChannel(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	rr := env.do(http.MethodPost, "/workorders",
		`{"description":"Close ticket","deliveryDate":"2025-03-01T09:30:00Z","status":"canceled","cancellationReason":"duplicate"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d; body: %s", rr.Code, rr.Body.String())
	}

	var created ingress.CreatedBody
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if created.Data.Status != domain.StatusCanceled {
		t.Errorf("status = %q, want canceled", created.Data.Status)
	}

	msgs, err := env.storage.Outbox().Messages(context.Background(), "workorders-topic")
	if err != nil {
		t.Fatalf("reading outbox: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if got := msgs[0].Envelope.RoutingAttribute; got != "canceled" {
		t.Errorf("routing attribute = %q, want canceled", got)
	}
	if got := msgs[0].Envelope.DedupKey; got != created.Data.ID {
		t.Errorf("dedup key = %q, want %q", got, created.Data.ID)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	rr := env.do(http.MethodOptions, "/workorders", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestRequestMetrics(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	env.do(http.MethodGet, "/workorders", "")
	env.do(http.MethodPut, "/workorders", "")

	if n := testutil.CollectAndCount(env.metrics.RequestDuration()); n != 2 {
		t.Errorf("request duration series = %d, want 2", n)
	}
}
