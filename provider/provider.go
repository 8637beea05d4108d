package provider

import (
	"context"
	"fmt"
	"time"
)

// Provider validates a single address against one upstream API. Validate never panics and never returns an error,
// failures are reported through Result.Error instead.
type Provider interface {
	ID() ID
	Name() string
	Validate(ctx context.Context, email string) Result
}

// CheckFn performs the upstream call and the translation of the response. Errors returned are considered failures of
// the call itself, provider-signaled invalidity is expressed in the Result.
type CheckFn func(ctx context.Context, email string) (Result, error)

// NewAdapter turns a CheckFn into a Provider
func NewAdapter(id ID, name string, fn CheckFn, options ...Option) *Adapter {
	entry := catalog[id]
	conf := newConfig(id, entry.endpoint, options)

	return &Adapter{
		id:       id,
		name:     name,
		fn:       fn,
		clock:    conf.clock,
		method:   entry.method,
		endpoint: conf.endpoint,
		features: entry.features,
	}
}

type Adapter struct {
	id    ID
	name  string
	fn    CheckFn
	clock func() time.Time

	method   string
	endpoint string
	features []Feature
}

func (a *Adapter) ID() ID {
	return a.id
}

func (a *Adapter) Name() string {
	return a.name
}

// Info describes the adapter, the endpoint includes configured overrides
func (a *Adapter) Info() Info {
	features := make([]Feature, len(a.features))
	copy(features, a.features)

	return Info{
		ID:       a.id,
		Name:     a.name,
		Method:   a.method,
		Endpoint: a.endpoint,
		Features: features,
	}
}

// Validate runs the CheckFn and normalises its outcome. The Timestamp is set once the call completed.
func (a *Adapter) Validate(ctx context.Context, email string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = a.failure(email, fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()

	result, err := a.fn(ctx, email)
	if err != nil {
		return a.failure(email, err)
	}

	if result.Email == "" {
		result.Email = email
	}

	result.Provider = a.id
	result.Timestamp = a.clock()

	return result
}

func (a *Adapter) failure(email string, err error) Result {
	return Result{
		Email:     email,
		IsValid:   false,
		Error:     fmt.Sprintf("%s API error: %s", a.name, err),
		Provider:  a.id,
		Timestamp: a.clock(),
	}
}
