package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Info describes one catalog entry, consumed by the UI to build account forms.
type Info struct {
	Key              string   `json:"key"`
	Label            string   `json:"label"`
	CredentialFields []string `json:"credential_fields"`
}

// Registry maps provider keys to script factories and serves the static
// provider catalog.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	catalog   map[string]Info
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		catalog:   make(map[string]Info),
	}
}

// Register adds a script factory under its provider key. Registering the same
// key twice replaces the earlier entry.
// Parameters:
//   - info: catalog entry for the provider.
//   - factory: script constructor invoked per fetch run.
// Returns: none.
func (r *Registry) Register(info Info, factory Factory) {
	r.mu.Lock()
	r.factories[info.Key] = factory
	r.catalog[info.Key] = info
	r.mu.Unlock()
}

// New instantiates the script registered for a provider key.
// Parameters:
//   - key: provider key from the account record.
//   - pctx: per-run script context.
// Returns:
//   - Script: fresh script instance.
//   - error: ErrUnsupportedProvider when no factory is registered.
func (r *Registry) New(key string, pctx Context) (Script, error) {
	r.mu.RLock()
	factory, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, key)
	}
	return factory(pctx), nil
}

// Catalog returns all registered providers sorted by label.
// Parameters: none.
// Returns:
//   - []Info: catalog entries for the UI.
func (r *Registry) Catalog() []Info {
	r.mu.RLock()
	infos := make([]Info, 0, len(r.catalog))
	for _, info := range r.catalog {
		infos = append(infos, info)
	}
	r.mu.RUnlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Label < infos[j].Label })
	return infos
}
