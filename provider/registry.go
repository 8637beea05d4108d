package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dynom/TySug/finder"
)

// suggestThreshold is the minimal Jaro-Winkler similarity for a "did you mean" suggestion
const suggestThreshold = 0.8

// NewRegistry returns an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[ID]Provider),
	}
}

// Registry maps identifiers to providers. Adding a provider is a Register call.
type Registry struct {
	lock      sync.RWMutex
	providers map[ID]Provider
	order     []ID
}

// Register adds p, the ID must not already be in use
func (r *Registry) Register(p Provider) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, exists := r.providers[p.ID()]; exists {
		return fmt.Errorf("%w %q", ErrDuplicateProvider, p.ID())
	}

	r.providers[p.ID()] = p
	r.order = append(r.order, p.ID())

	return nil
}

func (r *Registry) Get(id ID) (Provider, bool) {
	r.lock.RLock()
	p, ok := r.providers[id]
	r.lock.RUnlock()

	return p, ok
}

func (r *Registry) Has(id ID) bool {
	_, ok := r.Get(id)
	return ok
}

// IDs returns the registered identifiers in registration order
func (r *Registry) IDs() []ID {
	r.lock.RLock()
	defer r.lock.RUnlock()

	result := make([]ID, len(r.order))
	copy(result, r.order)

	return result
}

// Providers returns the registered providers in registration order
func (r *Registry) Providers() []Provider {
	r.lock.RLock()
	defer r.lock.RUnlock()

	result := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.providers[id])
	}

	return result
}

// Lookup returns the provider for id, or an error that mentions the closest registered identifier
func (r *Registry) Lookup(id ID) (Provider, error) {
	if p, ok := r.Get(id); ok {
		return p, nil
	}

	if alt, ok := r.Suggest(string(id)); ok {
		return nil, fmt.Errorf("%w %q, did you mean %q", ErrUnknownProvider, id, alt)
	}

	return nil, fmt.Errorf("%w %q", ErrUnknownProvider, id)
}

// Suggest returns the registered identifier closest to input, if it's similar enough
func (r *Registry) Suggest(input string) (ID, bool) {
	return suggestID(input, r.IDs())
}

func suggestID(input string, ids []ID) (ID, bool) {
	if input == "" || len(ids) == 0 {
		return "", false
	}

	list := make([]string, 0, len(ids))
	for _, id := range ids {
		list = append(list, string(id))
	}

	f, err := finder.New(list, finder.WithAlgorithm(finder.NewJaroWinklerDefaults()))
	if err != nil {
		return "", false
	}

	alt, score, exact := f.FindCtx(context.Background(), input)
	if exact {
		return ID(alt), true
	}

	if score > finder.WorstScoreValue && score >= suggestThreshold {
		return ID(alt), true
	}

	return "", false
}
