package hostapi

import (
	"sort"

	"github.com/entrhq/hostproxy/pkg/logging"
)

// FixedRoot is the explicit, two-level variant of Proxy. Only the listed
// namespaces are wrapped, and only their direct children can be overridden:
// "tabs_get" intercepts root.tabs.get, while deeper keys such as
// "windows_onCreated_addListener" are never consulted.
//
// Use it where the set of intercepted namespaces is known up front and
// the recursive behaviour of Proxy is not wanted.
type FixedRoot struct {
	target     Namespace
	namespaces map[string]bool
	registry   *Registry
	logger     Logger
}

// NewFixedRoot wraps target, intercepting the direct children of the named
// namespaces only.
func NewFixedRoot(target Namespace, registry *Registry, logger Logger, namespaces ...string) *FixedRoot {
	if logger == nil {
		logger = logging.Discard()
	}
	allowed := make(map[string]bool, len(namespaces))
	for _, ns := range namespaces {
		allowed[ns] = true
	}
	return &FixedRoot{
		target:     target,
		namespaces: allowed,
		registry:   registry,
		logger:     logger,
	}
}

// Get returns a fixedNamespace for a listed namespace and the real value
// for everything else.
func (r *FixedRoot) Get(key Key) any {
	name, ok := key.(Name)
	if !ok {
		r.logger.Warnf("hostapi: ignoring non-name property key %v at root", key)
		return nil
	}
	value := r.target.Get(name)
	if !r.namespaces[string(name)] {
		return value
	}
	ns, isNamespace := asNamespace(value)
	if !isNamespace {
		return value
	}
	return &fixedNamespace{name: string(name), target: ns, root: r}
}

// Keys returns the host root's property names.
func (r *FixedRoot) Keys() []string {
	return r.target.Keys()
}

// Namespaces returns the intercepted namespace names in sorted order.
func (r *FixedRoot) Namespaces() []string {
	names := make([]string, 0, len(r.namespaces))
	for name := range r.namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type fixedNamespace struct {
	name   string
	target Namespace
	root   *FixedRoot
}

func (n *fixedNamespace) Get(key Key) any {
	name, ok := key.(Name)
	if !ok {
		n.root.logger.Warnf("hostapi: ignoring non-name property key %v under %q", key, n.name)
		return nil
	}
	if substitute, found := n.root.registry.Lookup(FlattenKey(n.name, string(name))); found {
		return substitute
	}
	return n.target.Get(name)
}

func (n *fixedNamespace) Keys() []string {
	return n.target.Keys()
}

var (
	_ Namespace = (*FixedRoot)(nil)
	_ Namespace = (*fixedNamespace)(nil)
)
