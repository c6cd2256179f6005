package model

import "errors"

// Domain errors shared by repositories and services. Handlers map these to
// HTTP status codes; anything else is treated as a storage failure.
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateCompletion = errors.New("already completed for this date")
	ErrValidation          = errors.New("validation failed")
)
