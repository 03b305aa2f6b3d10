package storage

import (
	"fmt"

	"github.com/example/workorders/internal/domain"
)

// Error wraps a failure of the underlying record store.
type Error struct {
	Op  string
	Err error
}

// Wrap returns nil for a nil err, otherwise an *Error for op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap matches both domain.ErrStorage and the underlying cause.
func (e *Error) Unwrap() []error {
	return []error{domain.ErrStorage, e.Err}
}
