// Package apperr defines the sentinel errors of the tryout engine. Services
// return these (possibly wrapped) and handlers map them to response codes.
package apperr

import "errors"

var (
	// ErrNotFound — attempt, category or question absent.
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyCompleted — the operation requires an ongoing attempt.
	ErrAlreadyCompleted = errors.New("attempt already completed")

	// ErrInvalidTransition — the category/attempt is already in the target
	// state or is terminal.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrCategoryClosed — a write arrived after the section's end_date.
	ErrCategoryClosed = errors.New("category is closed")

	// ErrAlreadyOngoingElsewhere — the user has an ongoing attempt on a
	// different test that forbids concurrent attempts.
	ErrAlreadyOngoingElsewhere = errors.New("another attempt is ongoing elsewhere")

	// ErrUnauthorized — the caller's role lacks the required privilege.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTestNotAvailable — outside schedule window or not open for attempts.
	ErrTestNotAvailable = errors.New("test not available")

	// ErrInvalidCode — wrong access code on generate.
	ErrInvalidCode = errors.New("invalid access code")

	// ErrMaxAttempts — the test's attempt quota is exhausted.
	ErrMaxAttempts = errors.New("max attempts reached")

	// ErrValidation — semantically invalid payload (e.g. essay point above
	// the snapshot's maximum).
	ErrValidation = errors.New("validation failed")
)
