package usecase

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrSessionClosed is returned for any operation on a closed session
	ErrSessionClosed = goerr.New("session is closed")

	// ErrSessionNotFound is returned when the session manager has no
	// session for the given ID
	ErrSessionNotFound = goerr.New("session not found")

	// ErrMessageInFlight is returned when a user message arrives while an
	// assistant reply is still streaming. The message is rejected, not
	// queued; the caller retries after the stream finishes.
	ErrMessageInFlight = goerr.New("assistant reply in flight, message rejected")

	// ErrNoProcess is returned when an operation requires a working
	// process but the session's event has none
	ErrNoProcess = goerr.New("session has no working process")
)
