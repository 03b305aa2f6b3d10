package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ValidationKind names a class of rejected creation input.
type ValidationKind string

const (
	KindInvalidBody               ValidationKind = "InvalidBody"
	KindMissingFields             ValidationKind = "MissingFields"
	KindInvalidFieldType          ValidationKind = "InvalidFieldType"
	KindInvalidStatus             ValidationKind = "InvalidStatus"
	KindInvalidDateFormat         ValidationKind = "InvalidDateFormat"
	KindMissingCancellationReason ValidationKind = "MissingCancellationReason"
)

// Field names of the creation payload.
const (
	FieldDescription        = "description"
	FieldDeliveryDate       = "deliveryDate"
	FieldStatus             = "status"
	FieldCancellationReason = "cancellationReason"
)

// RequiredFields lists the fields every creation request must carry.
var RequiredFields = []string{FieldDescription, FieldDeliveryDate, FieldStatus}

var deliveryDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`)

// ValidationError describes why creation input was rejected. Details holds
// extra response context such as the missing field names.
type ValidationError struct {
	Kind    ValidationKind
	Message string
	Details map[string]any
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is(err, ErrValidation) match any validation failure.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// InvalidBodyError is returned when a request body is not a JSON object.
func InvalidBodyError() *ValidationError {
	return &ValidationError{Kind: KindInvalidBody, Message: "Invalid request body."}
}

// CreateInput is validated creation input, ready to become a WorkOrder.
type CreateInput struct {
	Description        string
	DeliveryDate       string
	Status             Status
	CancellationReason *string
}

// ValidateCreate checks raw creation input. Rules apply in order and the
// first failure wins: required fields, status, delivery date format, then
// the cancellation reason. All missing fields are reported together.
func ValidateCreate(raw map[string]any) (*CreateInput, error) {
	var missing []string
	for _, field := range RequiredFields {
		v, ok := raw[field]
		if !ok || v == nil {
			missing = append(missing, field)
			continue
		}
		if s, ok := v.(string); ok && field == FieldDescription && strings.TrimSpace(s) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{
			Kind:    KindMissingFields,
			Message: "Missing required fields.",
			Details: map[string]any{"missingFields": missing},
		}
	}

	description, ok := raw[FieldDescription].(string)
	if !ok {
		return nil, fieldTypeError(FieldDescription)
	}

	statusValue, ok := raw[FieldStatus].(string)
	if !ok || !Status(statusValue).IsValid() {
		return nil, &ValidationError{
			Kind:    KindInvalidStatus,
			Message: fmt.Sprintf("Invalid status '%v'.", raw[FieldStatus]),
			Details: map[string]any{"validStatuses": statusNames()},
		}
	}
	status := Status(statusValue)

	deliveryDate, ok := raw[FieldDeliveryDate].(string)
	if !ok || !IsValidDeliveryDate(deliveryDate) {
		return nil, &ValidationError{
			Kind:    KindInvalidDateFormat,
			Message: "Invalid date format. The 'deliveryDate' must be in ISO 8601 format (YYYY-MM-DDTHH:MM:SSZ).",
		}
	}

	in := &CreateInput{
		Description:  description,
		DeliveryDate: deliveryDate,
		Status:       status,
	}

	if status != StatusCanceled {
		return in, nil
	}
	reasonValue, present := raw[FieldCancellationReason]
	if !present || reasonValue == nil {
		return nil, &ValidationError{
			Kind:    KindMissingCancellationReason,
			Message: "Cancellation reason is required when status is 'canceled'.",
		}
	}
	reason, ok := reasonValue.(string)
	if !ok {
		return nil, fieldTypeError(FieldCancellationReason)
	}
	in.CancellationReason = &reason
	return in, nil
}

// IsValidDeliveryDate reports whether s is exactly YYYY-MM-DDTHH:MM:SSZ and
// names a real instant. Offsets and fractional seconds are rejected.
func IsValidDeliveryDate(s string) bool {
	if !deliveryDatePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(DeliveryDateLayout, s)
	return err == nil
}

func fieldTypeError(field string) *ValidationError {
	return &ValidationError{
		Kind:    KindInvalidFieldType,
		Message: fmt.Sprintf("Invalid value for '%s': expected a string.", field),
		Details: map[string]any{"field": field},
	}
}
