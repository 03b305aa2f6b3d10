package ingress

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/example/workorders/internal/domain"
)

// HandleAPIGateway serves an API Gateway proxy request.
func (h *Handler) HandleAPIGateway(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return toProxyResponse(validationResponse(domain.InvalidBodyError())), nil
		}
		body = decoded
	}
	if req.HTTPMethod != http.MethodPost {
		body = nil
	}
	return toProxyResponse(h.Handle(ctx, Request{Method: req.HTTPMethod, Body: body})), nil
}

func toProxyResponse(resp Response) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       string(resp.Body),
	}
}
