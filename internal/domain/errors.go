package domain

import "github.com/juju/errors"

const (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.ConstError("validation failed")

	// ErrUnroutableStatus is returned when no channel is configured for a status.
	// It indicates a configuration defect, never bad client input.
	ErrUnroutableStatus = errors.ConstError("unroutable status")

	// ErrStorage is matched by failures of the durable record store.
	ErrStorage = errors.ConstError("storage failure")

	// ErrPublish is matched by failures of a destination channel.
	ErrPublish = errors.ConstError("publish failure")

	// ErrDecode is returned when a change record image cannot be decoded.
	ErrDecode = errors.ConstError("decode failure")
)
