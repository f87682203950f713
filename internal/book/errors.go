package book

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound indicates the session id does not exist in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidIndex indicates a page index outside 0..pageCount.
	ErrInvalidIndex = errors.New("page index out of range")
)

// ValidationError reports invalid caller input. It is surfaced to the caller
// and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IncompletePagesError reports a finalize attempt on a session with empty
// page slots. Missing lists every empty index, not just the first.
type IncompletePagesError struct {
	Missing []int
}

func (e *IncompletePagesError) Error() string {
	return fmt.Sprintf("pages not yet generated: %v", e.Missing)
}
