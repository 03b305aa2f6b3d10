package routing

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/example/workorders/internal/domain"
)

// UnroutableError is returned when the channel map has no destination for a
// work order's status.
type UnroutableError struct {
	Status domain.Status
}

func (e *UnroutableError) Error() string {
	return fmt.Sprintf("no channel configured for status %q", string(e.Status))
}

// Unwrap lets errors.Is(err, domain.ErrUnroutableStatus) match.
func (e *UnroutableError) Unwrap() error {
	return domain.ErrUnroutableStatus
}

// PublishError is returned when a channel rejects or fails to accept a
// message. Code is the remote error code when the channel reported one.
type PublishError struct {
	Channel string
	Code    string
	Err     error
}

func (e *PublishError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("publish to %s: %s: %v", e.Channel, e.Code, e.Err)
	}
	return fmt.Sprintf("publish to %s: %v", e.Channel, e.Err)
}

// Unwrap matches both domain.ErrPublish and the underlying cause.
func (e *PublishError) Unwrap() []error {
	return []error{domain.ErrPublish, e.Err}
}

// errorCode extracts the AWS API error code from err, if any.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// retryable reports whether a failed publish is worth another attempt.
// Client faults (bad queue URL, missing permissions) are not.
func retryable(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorFault() != smithy.FaultClient
	}
	return true
}
