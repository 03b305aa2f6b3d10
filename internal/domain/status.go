package domain

// Status is the lifecycle status of a work order.
type Status string

const (
	StatusReceived   Status = "received"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCanceled   Status = "canceled"
)

// Statuses returns every valid status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusReceived, StatusInProgress, StatusCompleted, StatusCanceled}
}

// IsValid reports whether s is one of the four known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusReceived, StatusInProgress, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

func statusNames() []string {
	names := make([]string, 0, 4)
	for _, s := range Statuses() {
		names = append(names, string(s))
	}
	return names
}
