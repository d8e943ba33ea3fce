package asset

import (
	"fmt"
	"sync"
)

// Registry is a thread-safe registry of known assets. It only grows:
// entries are added or replaced, never evicted.
type Registry struct {
	byAddress map[string]*Asset
	bySymbol  map[string][]*Asset // symbol -> assets (symbols are not unique)
	mu        sync.RWMutex
}

// NewRegistry creates a new empty asset registry.
func NewRegistry() *Registry {
	return &Registry{
		byAddress: make(map[string]*Asset),
		bySymbol:  make(map[string][]*Asset),
	}
}

// Register adds an asset to the registry.
// Panics if an asset with the same address is already registered.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byAddress[a.Address()]; exists {
		panic(fmt.Sprintf("asset: %s already registered", a.Address()))
	}
	r.put(a)
}

// Put adds or replaces an asset. Last writer wins.
func (r *Registry) Put(a *Asset) {
	if a == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.byAddress[a.Address()]; exists {
		r.bySymbol[old.Symbol()] = remove(r.bySymbol[old.Symbol()], old)
	}
	r.put(a)
}

func (r *Registry) put(a *Asset) {
	r.byAddress[a.Address()] = a
	r.bySymbol[a.Symbol()] = append(r.bySymbol[a.Symbol()], a)
}

func remove(list []*Asset, a *Asset) []*Asset {
	out := list[:0]
	for _, x := range list {
		if x != a {
			out = append(out, x)
		}
	}
	return out
}

// Get retrieves an asset by resource address.
func (r *Registry) Get(address string) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byAddress[address]
	return a, ok
}

// MustGet retrieves an asset by address, panics if not found.
func (r *Registry) MustGet(address string) *Asset {
	a, ok := r.Get(address)
	if !ok {
		panic(fmt.Sprintf("asset: %s not found in registry", address))
	}
	return a
}

// GetBySymbol retrieves all assets with the given symbol.
// Returns nil if no assets found.
func (r *Registry) GetBySymbol(symbol string) []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assets := r.bySymbol[symbol]
	if len(assets) == 0 {
		return nil
	}

	// Return a copy to prevent mutation
	result := make([]*Asset, len(assets))
	copy(result, assets)
	return result
}

// Divisibility returns the asset's divisibility, or MaxDivisibility for
// unknown resources.
func (r *Registry) Divisibility(address string) int32 {
	if a, ok := r.Get(address); ok {
		return a.Divisibility()
	}
	return MaxDivisibility
}

// Symbol returns the asset's symbol, or "" for unknown resources.
func (r *Registry) Symbol(address string) string {
	if a, ok := r.Get(address); ok {
		return a.Symbol()
	}
	return ""
}

// All returns all registered assets.
func (r *Registry) All() []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Asset, 0, len(r.byAddress))
	for _, a := range r.byAddress {
		result = append(result, a)
	}
	return result
}

// Count returns the number of registered assets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAddress)
}

// Has returns true if an asset with the given address is registered.
func (r *Registry) Has(address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byAddress[address]
	return ok
}
