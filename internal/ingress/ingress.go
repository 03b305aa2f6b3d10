// Package ingress turns create and list requests into work order service
// calls and renders their JSON responses. It is transport neutral: the
// HTTP server and the Lambda API entry point both adapt to it.
package ingress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/example/workorders/internal/domain"
	"github.com/example/workorders/internal/storage"
)

var logger = loggo.GetLogger("workorders.ingress")

const (
	MessageCreated          = "Resource created successfully"
	MessageMethodNotAllowed = "Method Not Allowed"
)

// WorkOrders is the service surface the handler drives.
type WorkOrders interface {
	Create(ctx context.Context, raw map[string]any) (*domain.WorkOrder, error)
	List(ctx context.Context) (*storage.ScanResult, error)
}

// Request is one inbound call.
type Request struct {
	Method string
	Body   []byte
}

// Response is the rendered outcome of a Request.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// CreatedBody is the 201 payload.
type CreatedBody struct {
	Message string            `json:"message"`
	Data    *domain.WorkOrder `json:"data"`
}

// ListBody is the 200 payload.
type ListBody struct {
	Data ListData `json:"data"`
}

// ListData holds every stored work order and their count.
type ListData struct {
	Items []*domain.WorkOrder `json:"items"`
	Total int                 `json:"total"`
}

// Handler serves create and list requests. It holds no per-request state.
type Handler struct {
	orders WorkOrders
}

// NewHandler creates a new Handler.
func NewHandler(orders WorkOrders) *Handler {
	return &Handler{orders: orders}
}

// Handle dispatches req by method. It never panics: an unexpected failure
// anywhere below becomes a 500 response.
func (h *Handler) Handle(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("%s request panicked: %v", req.Method, r)
			resp = messageResponse(http.StatusInternalServerError, fmt.Sprint(r))
		}
	}()

	switch req.Method {
	case http.MethodPost:
		return h.create(ctx, req.Body)
	case http.MethodGet:
		return h.list(ctx)
	default:
		return messageResponse(http.StatusMethodNotAllowed, MessageMethodNotAllowed)
	}
}

func (h *Handler) create(ctx context.Context, body []byte) Response {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return validationResponse(domain.InvalidBodyError())
	}

	wo, err := h.orders.Create(ctx, raw)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return validationResponse(verr)
		}
		logger.Errorf("creating work order: %v", err)
		return messageResponse(http.StatusInternalServerError, err.Error())
	}
	return jsonResponse(http.StatusCreated, CreatedBody{Message: MessageCreated, Data: wo})
}

func (h *Handler) list(ctx context.Context) Response {
	result, err := h.orders.List(ctx)
	if err != nil {
		logger.Errorf("listing work orders: %v", err)
		return messageResponse(http.StatusInternalServerError, err.Error())
	}
	items := result.Items
	if items == nil {
		items = []*domain.WorkOrder{}
	}
	return jsonResponse(http.StatusOK, ListBody{Data: ListData{Items: items, Total: result.Total}})
}

func validationResponse(verr *domain.ValidationError) Response {
	body := make(map[string]any, len(verr.Details)+1)
	for k, v := range verr.Details {
		body[k] = v
	}
	body["message"] = verr.Message
	return jsonResponse(http.StatusBadRequest, body)
}

func messageResponse(code int, message string) Response {
	return jsonResponse(code, map[string]string{"message": message})
}

func jsonResponse(code int, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("encoding %d response: %v", code, err)
		code = http.StatusInternalServerError
		body = []byte(`{"message":"failed to encode response"}`)
	}
	return Response{
		StatusCode: code,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}
