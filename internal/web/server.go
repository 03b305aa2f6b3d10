// Package web serves the work order API over HTTP.
package web

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/juju/loggo"

	"github.com/example/workorders/internal/ingress"
	"github.com/example/workorders/internal/observability"
)

var logger = loggo.GetLogger("workorders.web")

// maxBodyBytes bounds a creation request body.
const maxBodyBytes = 1 << 20

// Server is the work order HTTP server.
type Server struct {
	addr    string
	handler *ingress.Handler
	metrics *observability.Metrics
	router  *mux.Router
	srv     *http.Server
}

// NewServer creates a new web server. metrics may be nil.
func NewServer(addr string, handler *ingress.Handler, metrics *observability.Metrics) *Server {
	s := &Server{
		addr:    addr,
		handler: handler,
		metrics: metrics,
		router:  mux.NewRouter(),
	}
	s.setupRoutes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.corsMiddleware, s.metricsMiddleware)
	// Every method reaches the ingress handler so it can answer 405 itself.
	s.router.HandleFunc("/workorders", s.serveWorkOrders)
	s.router.HandleFunc("/workorders/", s.serveWorkOrders)
}

func (s *Server) serveWorkOrders(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if r.Method == http.MethodPost {
		b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			logger.Warningf("reading request body: %v", err)
		}
		body = b
	}

	resp := s.handler.Handle(r.Context(), ingress.Request{Method: r.Method, Body: body})
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		logger.Debugf("writing response: %v", err)
	}
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.ObserveRequest(r.Method, strconv.Itoa(rec.status), time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	logger.Infof("starting web server on %s", s.addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the HTTP handler for the server
func (s *Server) Handler() http.Handler {
	return s.router
}
