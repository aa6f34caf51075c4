package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrMissingField      = errors.New("missing required field")
	ErrUnsupportedFormat = errors.New("unsupported output format")
)
