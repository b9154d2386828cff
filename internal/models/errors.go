package models

import "errors"

// Sentinel errors shared by the poller, the session service and the
// HTTP layer. Wrap them with %w and test with errors.Is.
var (
	// ErrTransport indicates the metrics backend was unreachable or
	// rejected the call.
	ErrTransport = errors.New("metrics backend unavailable")

	// ErrDataUnavailable indicates an optional metric (GPU, monitored
	// process) is legitimately absent. It is never shown to the user.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrSessionNotFound indicates no session has the requested ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists indicates a summary with the same ID is already
	// stored. Summaries are immutable.
	ErrSessionExists = errors.New("session already exists")
)
