package ingress

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	qt "github.com/frankban/quicktest"
)

func TestHandleAPIGateway(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	ctx := context.Background()
	body := `{"description":"A","deliveryDate":"2025-02-14T12:00:00Z","status":"completed"}`

	resp, err := env.handler.HandleAPIGateway(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: body})
	c.Assert(err, qt.IsNil)
	c.Assert(resp.StatusCode, qt.Equals, http.StatusCreated)
	c.Assert(resp.Headers["Content-Type"], qt.Equals, "application/json")

	resp, err = env.handler.HandleAPIGateway(ctx, events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Body:            base64.StdEncoding.EncodeToString([]byte(body)),
		IsBase64Encoded: true,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(resp.StatusCode, qt.Equals, http.StatusCreated)

	resp, err = env.handler.HandleAPIGateway(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet})
	c.Assert(err, qt.IsNil)
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)
	c.Assert(resp.Body, qt.Contains, `"total":2`)

	resp, err = env.handler.HandleAPIGateway(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: "%%%", IsBase64Encoded: true})
	c.Assert(err, qt.IsNil)
	c.Assert(resp.StatusCode, qt.Equals, http.StatusBadRequest)
	c.Assert(resp.Body, qt.Equals, `{"message":"Invalid request body."}`)
}
