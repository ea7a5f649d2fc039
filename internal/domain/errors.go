package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("already exists")
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// GenerationError indicates the completion provider failed to produce a
// reply. It is a distinct error kind so callers can never confuse provider
// failures with assistant content.
type GenerationError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("generation failed (%s): %s", e.Provider, e.Reason)
	}
	return fmt.Sprintf("generation failed: %s", e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// AuthProviderError indicates the external auth provider rejected or failed
// a signup/login request. Validation=true maps to a client error.
type AuthProviderError struct {
	Status     int
	Message    string
	Validation bool
}

func (e *AuthProviderError) Error() string {
	return fmt.Sprintf("auth provider: %s (status %d)", e.Message, e.Status)
}

// Is allows errors.Is(err, ErrValidation) to match provider-reported
// validation problems (bad email, weak password, wrong credentials).
func (e *AuthProviderError) Is(target error) bool {
	return e.Validation && target == ErrValidation
}
