package hostapi

import (
	"sync"

	"github.com/entrhq/hostproxy/pkg/logging"
)

// Interceptor pairs a host API root with the registry that governs it.
type Interceptor struct {
	host     Namespace
	registry *Registry
	logger   Logger
	root     *Proxy
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithLogger sets the logger used for proxy diagnostics.
func WithLogger(logger Logger) Option {
	return func(i *Interceptor) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithRegistry shares an existing registry instead of creating one.
func WithRegistry(registry *Registry) Option {
	return func(i *Interceptor) {
		if registry != nil {
			i.registry = registry
		}
	}
}

// New creates an interceptor over host. A nil host is treated as an empty
// namespace.
func New(host Namespace, opts ...Option) *Interceptor {
	if host == nil {
		host = NewObject(nil)
	}
	i := &Interceptor{
		host:     host,
		registry: NewRegistry(),
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(i)
	}
	// The root reads the registry on every access, so one root stays valid
	// across any number of registrations.
	i.root = Wrap(i.host, nil, i.registry, i.logger)
	return i
}

// Register replaces the active override table.
func (i *Interceptor) Register(overrides Overrides) {
	i.registry.Register(overrides)
	i.logger.Debugf("hostapi: registered %d override(s)", len(overrides))
}

// Lookup returns the active substitute for key.
func (i *Interceptor) Lookup(key string) (Callable, bool) {
	return i.registry.Lookup(key)
}

// Keys returns the active override keys in sorted order.
func (i *Interceptor) Keys() []string {
	return i.registry.Keys()
}

// Root returns the interception root. It has the same shape as the host
// root and can be used in its place.
func (i *Interceptor) Root() Namespace {
	return i.root
}

// Host returns the real, unwrapped host root.
func (i *Interceptor) Host() Namespace {
	return i.host
}

// Registry returns the registry consulted by Root.
func (i *Interceptor) Registry() *Registry {
	return i.registry
}

var (
	// defaultRegistry backs the package-level entry points. It outlives
	// SetHost so overrides registered before the host is known still apply.
	defaultRegistry = NewRegistry()

	defaultInterceptor *Interceptor
	defaultMu          sync.RWMutex
)

// SetHost installs host as the process-wide host API root.
func SetHost(host Namespace, opts ...Option) {
	opts = append([]Option{WithRegistry(defaultRegistry)}, opts...)
	ic := New(host, opts...)

	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultInterceptor = ic
}

// Register replaces the process-wide override table.
func Register(overrides Overrides) {
	defaultRegistry.Register(overrides)
}

// CurrentRoot returns the process-wide interception root. Before SetHost
// is called it returns a root over an empty host.
func CurrentRoot() Namespace {
	defaultMu.RLock()
	ic := defaultInterceptor
	defaultMu.RUnlock()

	if ic == nil {
		return Wrap(NewObject(nil), nil, defaultRegistry, nil)
	}
	return ic.Root()
}

// DefaultRegistry returns the registry behind Register and CurrentRoot.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
