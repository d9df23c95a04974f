package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Router holds the registered backends and the active provider, and
// dispatches storage calls to whichever backend is active.
//
// The active-provider field is guarded by a mutex so provider switches from
// concurrent flows cannot race; within one upload attempt callers pin the
// provider returned by SelectBestProvider rather than re-reading it.
type Router struct {
	mu       sync.Mutex
	active   Provider
	backends map[Provider]Backend
	order    []Provider
}

// NewRouter registers the given backends. The active provider defaults to
// the managed backend when registered, otherwise to the first backend given.
func NewRouter(backends ...Backend) *Router {
	r := &Router{backends: make(map[Provider]Backend, len(backends))}
	for _, b := range backends {
		if _, dup := r.backends[b.Provider()]; dup {
			continue
		}
		r.backends[b.Provider()] = b
		r.order = append(r.order, b.Provider())
	}
	if _, ok := r.backends[ProviderFirebase]; ok {
		r.active = ProviderFirebase
	} else if len(r.order) > 0 {
		r.active = r.order[0]
	}
	return r
}

// Active returns the currently selected provider.
func (r *Router) Active() Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// SetProvider swaps the active provider. Unknown or unregistered values fail
// with ErrInvalidProvider. The swap takes effect for subsequent calls only;
// in-flight calls are not retargeted.
func (r *Router) SetProvider(p Provider) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidProvider, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.backends[p]; !ok {
		return fmt.Errorf("%w: %q is not registered", ErrInvalidProvider, p)
	}
	r.active = p
	return nil
}

// Providers lists the registered providers in registration order.
func (r *Router) Providers() []Provider {
	out := make([]Provider, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Router) activeBackend() Backend {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backends[r.active]
}

// Upload dispatches to the active backend.
func (r *Router) Upload(ctx context.Context, data []byte, name, folder, contentType string) (string, error) {
	b := r.activeBackend()
	if b == nil {
		return "", ErrInvalidProvider
	}
	return b.Upload(ctx, data, name, folder, contentType)
}

// Exists dispatches to the active backend.
func (r *Router) Exists(ctx context.Context, name, folder string) bool {
	b := r.activeBackend()
	if b == nil {
		return false
	}
	return b.Exists(ctx, name, folder)
}

// Probe dispatches to the active backend.
func (r *Router) Probe(ctx context.Context) bool {
	b := r.activeBackend()
	if b == nil {
		return false
	}
	return b.Probe(ctx)
}

// ProbeAll probes every registered backend. Read-only; the active provider
// is left untouched.
func (r *Router) ProbeAll(ctx context.Context) map[Provider]bool {
	out := make(map[Provider]bool, len(r.order))
	for _, p := range r.order {
		out[p] = r.backends[p].Probe(ctx)
	}
	return out
}

// Resolve finds the backend whose namespace the locator belongs to. The
// object may have been stored by a different provider than is currently
// active, so resolution goes by locator pattern, never by active provider.
func (r *Router) Resolve(locator string) (Backend, ObjectPath, error) {
	for _, p := range r.order {
		b := r.backends[p]
		path, err := b.Parse(locator)
		if err == nil {
			return b, path, nil
		}
	}
	return nil, ObjectPath{}, &InvalidLocatorError{Locator: locator}
}

// Delete resolves the owning backend from the locator and deletes the
// object. Backends already normalize "not found" into success, so a second
// delete of the same locator never errors.
func (r *Router) Delete(ctx context.Context, locator string) error {
	b, _, err := r.Resolve(locator)
	if err != nil {
		return err
	}
	return b.Delete(ctx, locator)
}

// SelectBestProvider probes backends in preference order: the managed
// backend first, then the REST backend. The first one that answers becomes
// active. When nothing probes healthy the managed backend is selected
// anyway: probe failures are often false negatives (permission-scoped probe
// objects), so an optimistic upload attempt beats refusing outright.
func (r *Router) SelectBestProvider(ctx context.Context) Provider {
	for _, p := range []Provider{ProviderFirebase, ProviderGCSBrowser} {
		b, ok := r.backends[p]
		if !ok {
			continue
		}
		if b.Probe(ctx) {
			r.mu.Lock()
			r.active = p
			r.mu.Unlock()
			log.Debug().Str("provider", string(p)).Msg("Storage provider selected by probe")
			return p
		}
	}

	fallback := ProviderFirebase
	if _, ok := r.backends[fallback]; !ok && len(r.order) > 0 {
		fallback = r.order[0]
	}
	r.mu.Lock()
	r.active = fallback
	r.mu.Unlock()
	log.Warn().Str("provider", string(fallback)).Msg("All storage probes failed, falling back to default provider")
	return fallback
}
