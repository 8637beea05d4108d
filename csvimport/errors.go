package csvimport

import "errors"

var (
	ErrInvalidFormat     = errors.New("invalid CSV file format")
	ErrMissingColumn     = errors.New("missing column")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)
