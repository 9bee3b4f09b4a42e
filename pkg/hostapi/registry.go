package hostapi

import (
	"sort"
	"sync/atomic"
)

// Overrides maps flattened keys to substitute implementations.
type Overrides map[string]Callable

// Registry holds the active override table.
//
// The table is replaced as a whole by Register and never merged. Readers
// load the current table atomically, so no reader ever sees a partially
// applied registration.
type Registry struct {
	table atomic.Pointer[Overrides]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register replaces the active table with a shallow copy of overrides.
// Keys are not validated: a key that matches no host path is simply never
// consulted. Registering nil or an empty table clears all overrides.
func (r *Registry) Register(overrides Overrides) {
	table := make(Overrides, len(overrides))
	for key, substitute := range overrides {
		table[key] = substitute
	}
	r.table.Store(&table)
}

// Reset clears all overrides.
func (r *Registry) Reset() {
	r.Register(nil)
}

// Lookup returns the substitute registered under key in the current table.
// A nil registry has no overrides.
func (r *Registry) Lookup(key string) (Callable, bool) {
	if r == nil {
		return nil, false
	}
	table := r.table.Load()
	if table == nil {
		return nil, false
	}
	substitute, ok := (*table)[key]
	if !ok || substitute == nil {
		return nil, false
	}
	return substitute, true
}

// Keys returns the keys of the current table in sorted order.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	table := r.table.Load()
	if table == nil {
		return nil
	}
	keys := make([]string, 0, len(*table))
	for key := range *table {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries in the current table.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	table := r.table.Load()
	if table == nil {
		return 0
	}
	return len(*table)
}
