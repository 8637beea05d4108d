package provider

import "errors"

var (
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrDuplicateProvider = errors.New("provider already registered")
	ErrUnexpectedStatus  = errors.New("unexpected HTTP status")
	ErrMalformedResponse = errors.New("malformed response")
	ErrNoData            = errors.New("No data returned")
)

// ErrPanic is used when an adapter panicked while handling a request
var ErrPanic = errors.New("recovered from panic")
