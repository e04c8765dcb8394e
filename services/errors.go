// services/errors.go - Workflow error taxonomy
package services

import "errors"

var (
	// ErrValidation indicates a malformed challenge configuration or request.
	// Nothing is written when it is returned.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden indicates the caller does not own the record it is trying
	// to act on. Never retried.
	ErrForbidden = errors.New("not authorized")
)
