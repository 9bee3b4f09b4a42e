package hostapi

import (
	"context"
	"fmt"
	"reflect"
	"sort"
)

// Key identifies a property read on a Namespace.
// Only Name keys take part in interception.
type Key interface {
	isKey()
}

// Name is a simple property name such as "tabs" or "create".
type Name string

func (Name) isKey() {}

// Symbol is a machinery-level key (introspection, iteration hooks and the
// like). It never matches a host property or an override.
type Symbol struct {
	Description string
}

func (Symbol) isKey() {}

// String returns a readable form of the symbol for diagnostics.
func (s Symbol) String() string {
	return fmt.Sprintf("Symbol(%s)", s.Description)
}

// Namespace is a node of the host API: a named grouping of operations,
// values and further namespaces.
type Namespace interface {
	// Get returns the property stored under key, or nil when absent.
	Get(key Key) any

	// Keys returns the property names of this namespace in sorted order.
	Keys() []string
}

// Callable is a host operation or a substitute for one.
type Callable interface {
	Call(ctx context.Context, args ...any) (any, error)
}

// Func adapts an ordinary function to Callable.
type Func func(ctx context.Context, args ...any) (any, error)

// Call invokes f.
func (f Func) Call(ctx context.Context, args ...any) (any, error) {
	return f(ctx, args...)
}

// Identifiable reports whether c has an identity SameCallable can test.
// Func values and other non-comparable callables do not: Go cannot compare
// functions, and two bound methods of one method share a code pointer
// whatever their receivers.
func Identifiable(c Callable) bool {
	return c != nil && reflect.ValueOf(c).Comparable()
}

// SameCallable reports whether a and b are the same identifiable callable.
// It is always false when either is not Identifiable.
func SameCallable(a, b Callable) bool {
	if !Identifiable(a) || !Identifiable(b) {
		return false
	}
	return a == b
}

// Object is a map-backed Namespace used to assemble host API trees.
// It is read-only after construction.
type Object struct {
	props map[string]any
}

// NewObject builds an Object from props. Nested map[string]any values are
// converted to Objects so a whole tree can be written as one literal.
func NewObject(props map[string]any) *Object {
	o := &Object{props: make(map[string]any, len(props))}
	for name, value := range props {
		if nested, ok := value.(map[string]any); ok {
			o.props[name] = NewObject(nested)
			continue
		}
		o.props[name] = value
	}
	return o
}

// Get returns the property named by key. Symbols always resolve to nil.
func (o *Object) Get(key Key) any {
	name, ok := key.(Name)
	if !ok || o == nil {
		return nil
	}
	return o.props[string(name)]
}

// Keys returns the property names in sorted order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, 0, len(o.props))
	for name := range o.props {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

// asNamespace reports whether v is a non-nil structured value that should
// be wrapped rather than returned as a leaf.
func asNamespace(v any) (Namespace, bool) {
	ns, ok := v.(Namespace)
	if !ok {
		return nil, false
	}
	rv := reflect.ValueOf(ns)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface, reflect.Slice, reflect.Func:
		if rv.IsNil() {
			return nil, false
		}
	}
	return ns, true
}

// Compile-time check that Object implements Namespace.
var _ Namespace = (*Object)(nil)
