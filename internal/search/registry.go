package search

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// ErrNoProviders is returned when a search is attempted with an empty registry
var ErrNoProviders = errors.New("no search providers configured")

// Registry holds all registered search providers
type Registry struct {
	providers []SearchProvider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: []SearchProvider{},
	}
}

// Register adds a provider to the registry. Registration order is fallback order.
func (r *Registry) Register(provider SearchProvider) {
	r.providers = append(r.providers, provider)
}

// GetAll returns all registered providers
func (r *Registry) GetAll() []SearchProvider {
	return r.providers
}

// Count returns the number of registered providers
func (r *Registry) Count() int {
	return len(r.providers)
}

// Search queries providers in registration order and returns the first
// successful response. The next provider is only tried when one fails; an
// empty result set is a valid answer and is returned as-is.
func (r *Registry) Search(ctx context.Context, query string, maxResults int) ([]Article, error) {
	if len(r.providers) == 0 {
		return nil, ErrNoProviders
	}

	var errs []error
	for i, provider := range r.providers {
		articles, err := provider.Search(ctx, query, maxResults)
		if err == nil {
			return articles, nil
		}
		log.Printf("[SearchRegistry] %s failed (%d/%d): %v", provider.Name(), i+1, len(r.providers), err)
		errs = append(errs, fmt.Errorf("%s: %w", provider.Name(), err))

		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}
