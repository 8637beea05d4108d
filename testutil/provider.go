package testutil

import (
	"context"
	"sync"

	"github.com/Rohanpatel16/projectverify/provider"
)

// ResultFn produces the outcome of a FakeProvider call
type ResultFn func(ctx context.Context, email string) provider.Result

// NewFakeProvider returns a provider that doesn't talk to anything. When fn is nil every address is valid.
func NewFakeProvider(id provider.ID, fn ResultFn) *FakeProvider {
	return &FakeProvider{
		id: id,
		fn: fn,
	}
}

// FakeProvider records the addresses it was asked to validate and how many calls overlapped
type FakeProvider struct {
	id provider.ID
	fn ResultFn

	lock        sync.Mutex
	calls       []string
	inFlight    int
	maxInFlight int
}

func (f *FakeProvider) ID() provider.ID {
	return f.id
}

func (f *FakeProvider) Name() string {
	return "Fake " + string(f.id)
}

func (f *FakeProvider) Validate(ctx context.Context, email string) provider.Result {
	f.lock.Lock()
	f.calls = append(f.calls, email)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.lock.Unlock()

	defer func() {
		f.lock.Lock()
		f.inFlight--
		f.lock.Unlock()
	}()

	if f.fn == nil {
		return provider.Result{Email: email, IsValid: true, Score: provider.Int(100), Provider: f.id}
	}

	r := f.fn(ctx, email)
	if r.Provider == "" {
		r.Provider = f.id
	}

	return r
}

// Calls returns the addresses in the order the calls started
func (f *FakeProvider) Calls() []string {
	f.lock.Lock()
	defer f.lock.Unlock()

	result := make([]string, len(f.calls))
	copy(result, f.calls)

	return result
}

// MaxInFlight returns the highest number of concurrent calls observed
func (f *FakeProvider) MaxInFlight() int {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.maxInFlight
}

// NewRegistry returns a registry holding the given providers
func NewRegistry(providers ...provider.Provider) *provider.Registry {
	r := provider.NewRegistry()
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}

	return r
}
