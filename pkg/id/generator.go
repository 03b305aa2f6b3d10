// Package id generates work order identifiers.
package id

import (
	"github.com/google/uuid"
)

// Generator produces unique identifiers.
type Generator func() string

// Generate returns a random (version 4) UUID: 122 random bits, so
// collisions are negligible without any coordination.
func Generate() string {
	return uuid.NewString()
}

// Valid reports whether s is a canonical UUID string.
func Valid(s string) bool {
	u, err := uuid.Parse(s)
	return err == nil && u.String() == s
}
