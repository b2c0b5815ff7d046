// Package common defines shared constants and sentinel errors used across
// the repository, service and HTTP layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound   = errors.New("not found")
	ErrorConflict   = errors.New("already exists")
	ErrorForeignKey = errors.New("referenced row does not exist")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Input validation errors. Concrete messages wrap this value.
	ErrorValidation = errors.New("validation error")
)
