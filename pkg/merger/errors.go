package merger

import "errors"

var (
	// ErrNotStarted is returned when the session has not been started
	ErrNotStarted = errors.New("session not started")

	// ErrAlreadyStarted is returned when Start is called twice
	ErrAlreadyStarted = errors.New("session already started")

	// ErrNoErrorMarkers is returned when no error marker is configured
	ErrNoErrorMarkers = errors.New("at least one error marker is required")

	// errTurnTimeout ends a turn whose deadline passed
	errTurnTimeout = errors.New("turn timed out")

	// errIncomplete ends a turn whose output stream closed without a marker
	errIncomplete = errors.New("output ended before a result marker")
)
