package hostapi

import (
	"sort"
	"strings"
)

// Separator joins path segments into a flattened key.
const Separator = "_"

// Path is the sequence of property names travelled from the host root.
// A Path is never modified in place; Append returns a fresh copy so that
// independent access chains never share backing storage.
type Path []string

// ParsePath splits a dotted path such as "windows.onCreated.addListener".
func ParsePath(dotted string) Path {
	dotted = strings.TrimSpace(dotted)
	if dotted == "" {
		return nil
	}
	return Path(strings.Split(dotted, "."))
}

// Append returns a new Path extended by segment.
func (p Path) Append(segment string) Path {
	next := make(Path, len(p)+1)
	copy(next, p)
	next[len(p)] = segment
	return next
}

// Key returns the flattened lookup key for p.
func (p Path) Key() string {
	return strings.Join(p, Separator)
}

// String returns p in dotted form.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Ambiguous reports whether a segment of p contains Separator, in which
// case p.Key() can also be read as a different, longer path.
func (p Path) Ambiguous() bool {
	for _, segment := range p {
		if strings.Contains(segment, Separator) {
			return true
		}
	}
	return false
}

// FlattenKey joins segments into a flattened key.
func FlattenKey(segments ...string) string {
	return Path(segments).Key()
}

// Collisions groups paths by flattened key and returns only the keys that
// more than one distinct path flattens to.
func Collisions(paths []Path) map[string][]Path {
	byKey := make(map[string][]Path)
	for _, p := range paths {
		byKey[p.Key()] = append(byKey[p.Key()], p)
	}
	for key, group := range byKey {
		if len(group) < 2 {
			delete(byKey, key)
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].String() < group[j].String() })
	}
	return byKey
}
