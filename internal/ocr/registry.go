package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Registry holds the configured backends in registration order.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	backends map[string]Backend
}

// NewRegistry returns a registry holding backends, in order.
func NewRegistry(backends ...Backend) *Registry {
	r := &Registry{backends: make(map[string]Backend)}
	for _, b := range backends {
		r.Register(b)
	}
	return r
}

// Register adds b, replacing any backend registered under the same name.
func (r *Registry) Register(b Backend) {
	key := strings.ToLower(b.Name())
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.backends[key]; !exists {
		r.order = append(r.order, key)
	}
	r.backends[key] = b
}

// Get looks up a backend by case-insensitive name.
func (r *Registry) Get(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[strings.ToLower(name)]
	return b, ok
}

// Names returns the registered backend names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.backends[key].Name())
	}
	return out
}

// Infos reports every backend's Info in registration order.
func (r *Registry) Infos() []Info {
	r.mu.RLock()
	list := make([]Backend, 0, len(r.order))
	for _, key := range r.order {
		list = append(list, r.backends[key])
	}
	r.mu.RUnlock()

	out := make([]Info, 0, len(list))
	for _, b := range list {
		out = append(out, b.Info())
	}
	return out
}

// Fallback initializes backends until one succeeds and returns it.
//
// The preferred names are tried first, in order, followed by every other
// registered backend. Unknown preferred names are skipped. If nothing
// initializes, the returned error wraps ErrBackendInitFailed and every
// individual failure.
func (r *Registry) Fallback(ctx context.Context, preferred ...string) (Backend, error) {
	r.mu.RLock()
	seen := make(map[string]bool)
	var candidates []Backend
	for _, name := range preferred {
		key := strings.ToLower(strings.TrimSpace(name))
		if b, ok := r.backends[key]; ok && !seen[key] {
			seen[key] = true
			candidates = append(candidates, b)
		}
	}
	for _, key := range r.order {
		if !seen[key] {
			seen[key] = true
			candidates = append(candidates, r.backends[key])
		}
	}
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no backends registered", ErrBackendInitFailed)
	}

	var errs []error
	for _, b := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := b.Init(ctx)
		if err == nil {
			return b, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
	}
	return nil, fmt.Errorf("%w: %w", ErrBackendInitFailed, errors.Join(errs...))
}

// Select returns the backend called name without initializing it. An empty
// name falls back to Fallback over preferred.
func (r *Registry) Select(ctx context.Context, name string, preferred ...string) (Backend, error) {
	if name == "" {
		return r.Fallback(ctx, preferred...)
	}
	b, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (have %s)", name, strings.Join(r.Names(), ", "))
	}
	return b, nil
}
