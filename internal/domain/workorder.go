package domain

import "time"

// DeliveryDateLayout is the only accepted delivery date format: UTC, second
// precision, literal trailing Z.
const DeliveryDateLayout = "2006-01-02T15:04:05Z"

// WorkOrder is a task with a delivery deadline and a lifecycle status.
// It is never mutated after creation.
type WorkOrder struct {
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"createdAt"`
	Description        string    `json:"description"`
	DeliveryDate       string    `json:"deliveryDate"`
	Status             Status    `json:"status"`
	CancellationReason *string   `json:"cancellationReason"`
}

// NewWorkOrder builds a WorkOrder from validated input. createdAt is
// normalised to UTC with the monotonic clock reading stripped so the value
// compares equal after a storage round trip.
func NewWorkOrder(id string, createdAt time.Time, in *CreateInput) *WorkOrder {
	wo := &WorkOrder{
		ID:           id,
		CreatedAt:    createdAt.UTC().Round(0),
		Description:  in.Description,
		DeliveryDate: in.DeliveryDate,
		Status:       in.Status,
	}
	if in.Status == StatusCanceled && in.CancellationReason != nil {
		reason := *in.CancellationReason
		wo.CancellationReason = &reason
	}
	return wo
}

// DeliveryTime returns the parsed delivery date. The zero time is returned
// if the stored value does not parse.
func (w *WorkOrder) DeliveryTime() time.Time {
	t, err := time.Parse(DeliveryDateLayout, w.DeliveryDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Equal reports whether two work orders carry identical field values.
func (w *WorkOrder) Equal(o *WorkOrder) bool {
	if w == nil || o == nil {
		return w == o
	}
	if w.ID != o.ID || !w.CreatedAt.Equal(o.CreatedAt) || w.Description != o.Description ||
		w.DeliveryDate != o.DeliveryDate || w.Status != o.Status {
		return false
	}
	switch {
	case w.CancellationReason == nil && o.CancellationReason == nil:
		return true
	case w.CancellationReason == nil || o.CancellationReason == nil:
		return false
	}
	return *w.CancellationReason == *o.CancellationReason
}
