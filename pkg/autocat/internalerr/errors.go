package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrMissingColumn = errors.New("missing column")
	ErrInvalidConfig = errors.New("invalid configuration")
)
