// Package services defines the business logic for enhancement sessions, the
// saved-prompt library, and welcome-email dispatch. This file centralizes
// common service-level error values so that they can be consistently returned
// by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

var (
	// ErrPromptNotFound indicates that the requested saved prompt does not
	// exist or is not accessible to the current user.
	ErrPromptNotFound = errors.New("prompt not found")

	// ErrEmptyPrompt is returned when a request contains an empty prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when a prompt exceeds the maximum configured
	// length limit.
	ErrTooLong = errors.New("prompt too long")

	// ErrNothingToSave is returned when a save request carries no enhanced
	// output to persist.
	ErrNothingToSave = errors.New("nothing to save")

	// ErrNotLoggedIn is returned when an operation that requires an
	// authenticated user is attempted without one.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrInvalidEmail is returned when a welcome-email request carries a
	// missing or malformed address or name.
	ErrInvalidEmail = errors.New("email and name are required")

	// ErrAlreadyGreeted is returned when a welcome email was already sent to
	// the address, or the user is not new.
	ErrAlreadyGreeted = errors.New("welcome email already sent or user is not new")
)
