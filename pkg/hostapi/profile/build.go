package profile

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gobwas/glob"

	"github.com/entrhq/hostproxy/pkg/hostapi"
	"github.com/entrhq/hostproxy/pkg/logging"
)

// ErrDenied matches every DeniedError.
var ErrDenied = errors.New("operation denied by override profile")

// DeniedError is returned by substitutes built from deny rules.
type DeniedError struct {
	Key     string
	Message string
}

func (e *DeniedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("override denied (%s)", e.Key)
	}
	return fmt.Sprintf("override denied (%s): %s", e.Key, e.Message)
}

// Is reports whether target is ErrDenied.
func (e *DeniedError) Is(target error) bool {
	return target == ErrDenied
}

// Logger receives the calls recorded by log rules.
type Logger interface {
	Infof(format string, args ...any)
}

// Build turns p into an overrides table. host must be the real, unwrapped
// host root: it is used to expand match rules and as the target of log
// rules, and reading it through the proxy would reach the substitutes
// themselves.
func Build(p *Profile, host hostapi.Namespace, logger Logger) (hostapi.Overrides, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if host == nil {
		host = hostapi.NewObject(nil)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	leaves := leafIndex(host)
	overrides := make(hostapi.Overrides)
	for i, r := range p.Rules {
		keys, err := r.keys(leaves)
		if err != nil {
			return nil, fmt.Errorf("profile: rule %d: %w", i+1, err)
		}
		for _, key := range keys {
			overrides[key] = substitute(r, key, host, leaves[key], logger)
		}
	}
	return overrides, nil
}

func substitute(r Rule, key string, host hostapi.Namespace, paths []hostapi.Path, logger Logger) hostapi.Callable {
	switch r.Action {
	case ActionDeny:
		return hostapi.Func(func(ctx context.Context, args ...any) (any, error) {
			return nil, &DeniedError{Key: key, Message: r.Message}
		})
	case ActionStub:
		result := r.Result
		return hostapi.Func(func(ctx context.Context, args ...any) (any, error) {
			return result, nil
		})
	default:
		return &loggedCall{key: key, host: host, path: realPath(r, paths), logger: logger}
	}
}

// realPath picks the host path a log rule forwards to. An explicit path
// wins; otherwise the first leaf flattening to the key is used.
func realPath(r Rule, paths []hostapi.Path) hostapi.Path {
	if len(r.Path) > 0 {
		return hostapi.Path(r.Path)
	}
	if len(paths) > 0 {
		return paths[0]
	}
	return nil
}

// loggedCall logs each call and forwards it to the real leaf, which is
// resolved from the host on every call.
type loggedCall struct {
	key    string
	host   hostapi.Namespace
	path   hostapi.Path
	logger Logger
}

func (c *loggedCall) Call(ctx context.Context, args ...any) (any, error) {
	c.logger.Infof("override %s called with %d argument(s): %v", c.key, len(args), args)
	if c.path == nil {
		return nil, fmt.Errorf("%w: no host operation for %s", hostapi.ErrNotFound, c.key)
	}
	value, err := hostapi.Resolve(c.host, c.path)
	if err != nil {
		return nil, err
	}
	fn, ok := value.(hostapi.Callable)
	if !ok {
		// value leaves are returned as they are
		return value, nil
	}
	result, err := fn.Call(ctx, args...)
	if err != nil {
		c.logger.Infof("override %s failed: %v", c.key, err)
	}
	return result, err
}

// leafIndex groups the host's leaves by flattened key.
func leafIndex(host hostapi.Namespace) map[string][]hostapi.Path {
	index := make(map[string][]hostapi.Path)
	for _, p := range hostapi.Leaves(host) {
		index[p.Key()] = append(index[p.Key()], p)
	}
	return index
}

func compileMatch(pattern string) (glob.Glob, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid match pattern %q: %w", pattern, err)
	}
	return g, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
