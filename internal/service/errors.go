package service

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for the exam delivery core. Handlers map these to response
// codes; no retries happen at this layer.
var (
	// ErrKeyNotFound means the answer key id from the link does not exist.
	ErrKeyNotFound = errors.New("answer key not found")
	// ErrIdentityMismatch means no roster entry matched the claimed name+phone.
	ErrIdentityMismatch = errors.New("no matching student for name and phone")
	// ErrSessionNotFound means no session exists for the presented token.
	ErrSessionNotFound = errors.New("exam session not found")
	// ErrAlreadyCompleted means the student's attempt is finalized; no retakes.
	ErrAlreadyCompleted = errors.New("exam session already completed")
	// ErrSessionMismatch means the token resolved to a session whose key or
	// student differs from the caller-supplied ones. Possible token misuse.
	ErrSessionMismatch = errors.New("session does not match the supplied key and student")
	// ErrNotCompleted means a report was requested for an in-progress attempt.
	ErrNotCompleted = errors.New("exam session not yet completed")
)

// ValidationError rejects a malformed answer key at authoring time, before
// anything is persisted. Fields maps a field path to a message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, msg))
	}
	return "invalid answer key: " + strings.Join(parts, "; ")
}
