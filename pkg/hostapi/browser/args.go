package browser

import (
	"fmt"
	"math"
	"reflect"

	"github.com/entrhq/hostproxy/pkg/hostapi"
)

// Arguments arrive loosely typed: Go callers pass ints and maps directly,
// while YAML and JSON decoders produce float64 or int and
// map[string]interface{}.

func intArg(args []any, i int, name string) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %s", name)
	}
	n, ok := toInt(args[i])
	if !ok {
		return 0, fmt.Errorf("argument %s: expected integer, got %T", name, args[i])
	}
	return n, nil
}

// intsArg reads the integer or list of integers at position i. Any slice
// or array kind is accepted, so []int and []any both work.
func intsArg(args []any, i int, name string) ([]int, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("missing argument %s", name)
	}
	rv := reflect.ValueOf(args[i])
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		n, err := intArg(args, i, name)
		if err != nil {
			return nil, err
		}
		return []int{n}, nil
	}
	ids := make([]int, 0, rv.Len())
	for j := 0; j < rv.Len(); j++ {
		item := rv.Index(j).Interface()
		n, ok := toInt(item)
		if !ok {
			return nil, fmt.Errorf("argument %s: expected integer, got %T", name, item)
		}
		ids = append(ids, n)
	}
	return ids, nil
}

// mapArg returns the map at position i, or an empty map when the argument
// is absent or nil.
func mapArg(args []any, i int, name string) (map[string]any, error) {
	if i >= len(args) || args[i] == nil {
		return map[string]any{}, nil
	}
	m, ok := args[i].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("argument %s: expected object, got %T", name, args[i])
	}
	return m, nil
}

func callableArg(args []any, i int, name string) (hostapi.Callable, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("missing argument %s", name)
	}
	fn, ok := args[i].(hostapi.Callable)
	if !ok || fn == nil {
		return nil, fmt.Errorf("argument %s: expected function, got %T", name, args[i])
	}
	return fn, nil
}

// optionalInt reads key from m. ok is false when the key is absent.
func optionalInt(m map[string]any, key string) (value int, ok bool, err error) {
	raw, present := m[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	n, isInt := toInt(raw)
	if !isInt {
		return 0, false, fmt.Errorf("%s: expected integer, got %T", key, raw)
	}
	return n, true, nil
}

func optionalString(m map[string]any, key string) (string, error) {
	raw, present := m[key]
	if !present || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s: expected string, got %T", key, raw)
	}
	return s, nil
}

func optionalBool(m map[string]any, key string) (bool, error) {
	raw, present := m[key]
	if !present || raw == nil {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("%s: expected boolean, got %T", key, raw)
	}
	return b, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
