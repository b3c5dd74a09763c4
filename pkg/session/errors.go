package session

import "errors"

var (
	// ErrLaunch is returned when the target tool cannot be started
	ErrLaunch = errors.New("failed to launch target tool")

	// ErrInvalidTransport is returned for an unknown transport name
	ErrInvalidTransport = errors.New("invalid session transport")

	// ErrEmptyCommand is returned when no command is configured
	ErrEmptyCommand = errors.New("command is required")

	// ErrExitTimeout is returned when the process does not exit in time
	ErrExitTimeout = errors.New("process did not exit within timeout")

	// ErrAlreadyTerminated is returned when termination is requested twice
	ErrAlreadyTerminated = errors.New("termination already signalled")
)
