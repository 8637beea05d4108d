package validation

import "errors"

var (
	ErrNoProvider = errors.New("no provider registered")
)
