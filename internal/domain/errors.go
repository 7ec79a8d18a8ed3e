package domain

import (
	"errors"
)

// Sentinel errors for the chat domain - use with errors.Is()
var (
	// ErrNotFound covers both a missing resource and an ownership mismatch.
	// The two cases are deliberately indistinguishable to callers so that
	// conversation ids cannot be enumerated.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates invalid or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates no valid user identity could be resolved.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict indicates the request contradicts persisted state,
	// e.g. changing a conversation's model after its first turn.
	ErrConflict = errors.New("conflict")

	// ErrUnknownModel indicates a model id that does not map to a
	// configured provider. Raised before any persistence write or
	// network call is made.
	ErrUnknownModel = errors.New("unknown model")

	// ErrProvider indicates an upstream generation failure. Never
	// retried; aborts the stream it occurred on.
	ErrProvider = errors.New("provider error")
)
