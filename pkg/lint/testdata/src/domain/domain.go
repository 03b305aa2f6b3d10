// Package domain is a stub for testing the status linter.
package domain

// Status is the lifecycle status of a work order.
type Status string

const (
	StatusReceived   Status = "received"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCanceled   Status = "canceled"
)

// Inside the domain package literals are allowed.
func parse(s string) Status {
	if Status(s) == "received" {
		return StatusReceived
	}
	return Status(s)
}

// WorkOrder carries a status.
type WorkOrder struct {
	Status Status
}
