package hostapi

import (
	"github.com/entrhq/hostproxy/pkg/logging"
)

// Logger receives the diagnostics emitted while resolving properties.
// *logging.Logger satisfies it.
type Logger interface {
	Debugf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
}

// Proxy wraps one namespace of the host API together with the path that
// led to it. It implements Namespace, so a proxied root can be used
// anywhere the real root is expected.
//
// Child proxies are created on every read and never cached.
type Proxy struct {
	target   Namespace
	path     Path
	registry *Registry
	logger   Logger
}

// Wrap returns a proxy around target, reached through path. Lookups are
// made against registry at access time. A nil target is treated as an
// empty namespace.
func Wrap(target Namespace, path Path, registry *Registry, logger Logger) *Proxy {
	if _, ok := asNamespace(target); !ok {
		target = NewObject(nil)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Proxy{
		target:   target,
		path:     path,
		registry: registry,
		logger:   logger,
	}
}

// Get resolves key in four steps:
//
//  1. a non-name key is logged and resolves to nil
//  2. the flattened key of the extended path is computed
//  3. a substitute registered under that key is returned as-is
//  4. otherwise a namespace value is wrapped in a child proxy and any
//     other value is returned unchanged
func (p *Proxy) Get(key Key) any {
	name, ok := key.(Name)
	if !ok {
		p.logger.Warnf("hostapi: ignoring non-name property key %v under %q", key, p.path.String())
		return nil
	}

	current := p.path.Append(string(name))
	flattened := current.Key()

	if substitute, found := p.registry.Lookup(flattened); found {
		p.logger.Debugf("hostapi: %s intercepted by override %q", current, flattened)
		return substitute
	}

	value := p.target.Get(name)
	if ns, isNamespace := asNamespace(value); isNamespace {
		return &Proxy{
			target:   ns,
			path:     current,
			registry: p.registry,
			logger:   p.logger,
		}
	}
	return value
}

// Keys returns the property names of the wrapped namespace.
func (p *Proxy) Keys() []string {
	return p.target.Keys()
}

// Path returns the path from the host root to this proxy.
func (p *Proxy) Path() Path {
	return p.path
}

// Unwrap returns the real namespace behind the proxy.
func (p *Proxy) Unwrap() Namespace {
	return p.target
}

// Compile-time check that Proxy implements Namespace.
var _ Namespace = (*Proxy)(nil)
