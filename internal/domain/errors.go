package domain

import "errors"

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrBackend marks a failed call to the inference webhook (network failure or non-2xx status).
	ErrBackend = errors.New("inference backend failed")

	// ErrUpstream marks a failed call to the prompt store.
	ErrUpstream = errors.New("prompt store request failed")

	// ErrRequestInFlight is returned when a session already has a message being answered.
	ErrRequestInFlight = errors.New("a request is already in progress for this session")
)
