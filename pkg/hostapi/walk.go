package hostapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNotFound is returned when a path does not resolve to a value.
	ErrNotFound = errors.New("host api path not found")

	// ErrNotCallable is returned when a path resolves to a non-callable value.
	ErrNotCallable = errors.New("host api path is not callable")
)

// maxWalkDepth bounds Leaves. Proxies are recreated on every read, so
// cycles in the host tree cannot be detected by identity.
const maxWalkDepth = 32

// Resolve follows path from ns the way a caller chaining property reads
// would, returning the value at its end.
func Resolve(ns Namespace, path Path) (any, error) {
	if len(path) == 0 {
		return ns, nil
	}
	var current any = ns
	for i, segment := range path {
		node, ok := asNamespace(current)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a namespace", ErrNotFound, path[:i])
		}
		current = node.Get(Name(segment))
		if current == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path[:i+1])
		}
	}
	return current, nil
}

// Invoke resolves a dotted path under ns and calls the operation found
// there with args.
func Invoke(ctx context.Context, ns Namespace, dotted string, args ...any) (any, error) {
	path := ParsePath(dotted)
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrNotFound)
	}
	value, err := Resolve(ns, path)
	if err != nil {
		return nil, err
	}
	fn, ok := value.(Callable)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", ErrNotCallable, path, value)
	}
	return fn.Call(ctx, args...)
}

// Leaves returns the path of every non-namespace value reachable from ns,
// ordered by flattened key and then by dotted path.
func Leaves(ns Namespace) []Path {
	var leaves []Path
	collectLeaves(ns, nil, 0, &leaves)
	sort.Slice(leaves, func(i, j int) bool {
		ki, kj := leaves[i].Key(), leaves[j].Key()
		if ki != kj {
			return ki < kj
		}
		return leaves[i].String() < leaves[j].String()
	})
	return leaves
}

func collectLeaves(ns Namespace, prefix Path, depth int, out *[]Path) {
	if depth >= maxWalkDepth {
		return
	}
	for _, name := range ns.Keys() {
		path := prefix.Append(name)
		value := ns.Get(Name(name))
		if child, ok := asNamespace(value); ok {
			collectLeaves(child, path, depth+1, out)
			continue
		}
		if value != nil {
			*out = append(*out, path)
		}
	}
}

// LeafKeys returns the flattened keys of Leaves(ns).
func LeafKeys(ns Namespace) []string {
	leaves := Leaves(ns)
	keys := make([]string, len(leaves))
	for i, leaf := range leaves {
		keys[i] = leaf.Key()
	}
	return keys
}
