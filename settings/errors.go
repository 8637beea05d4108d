package settings

import "errors"

var (
	ErrNotFound        = errors.New("no persisted settings")
	ErrInvalidSettings = errors.New("invalid settings")
	ErrUnknownStore    = errors.New("unknown settings store")
)
