package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned by a control call the current state
	// does not allow.
	ErrInvalidTransition = errors.New("invalid session state transition")
	// ErrAlreadyRunning is returned by Start while a run is in progress.
	ErrAlreadyRunning = errors.New("session already running")
	// ErrNoResults means the result list never rendered for a location.
	ErrNoResults = errors.New("result list did not appear")
)

// ValidationError rejects a start request before any work happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// LocationError records a location that failed; the run moves on to the next.
type LocationError struct {
	Location string
	Err      error
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("location %q: %v", e.Location, e.Err)
}

func (e *LocationError) Unwrap() error { return e.Err }
