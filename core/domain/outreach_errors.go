package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrNotFound           = errors.New("not found")
	ErrMissingCredentials = errors.New("incomplete mail credentials")
	ErrInvalidTransition  = errors.New("invalid reply status transition")
	ErrSweepInProgress    = errors.New("reply sweep already in progress")
	ErrReplySyncDisabled  = errors.New("reply tracking requires the Graph backend")
)

// AuthError is returned when the identity provider rejects the configured
// client credentials. It is never retried.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError wraps a network-level failure talking to the mailbox
// provider. Transient variants (Temporary=true) are eligible for retry.
type TransportError struct {
	Op        string
	Temporary bool
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
