package hostcall

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/hostproxy/pkg/agent/tools"
	"github.com/entrhq/hostproxy/pkg/hostapi"
)

// KeysTool lists the host API leaves an agent can call or override.
type KeysTool struct {
	root     RootFunc
	registry *hostapi.Registry
}

// NewKeysTool creates a host_api_keys tool. When registry is set, leaves
// with an active override are marked.
func NewKeysTool(root RootFunc, registry *hostapi.Registry) *KeysTool {
	if root == nil {
		root = hostapi.CurrentRoot
	}
	return &KeysTool{root: root, registry: registry}
}

func (t *KeysTool) Name() string {
	return "host_api_keys"
}

func (t *KeysTool) Description() string {
	return "List host API operations with their dotted path and flattened override key. An optional glob filters by key, e.g. tabs_*."
}

func (t *KeysTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"match": map[string]interface{}{
				"type":        "string",
				"description": "Glob over flattened keys, e.g. windows_* (default: all)",
			},
		},
		nil,
	)
}

type keysInput struct {
	XMLName xml.Name `xml:"arguments"`
	Match   string   `xml:"match"`
}

// LeafEntry is one listed leaf.
type LeafEntry struct {
	Key        string `yaml:"key"`
	Path       string `yaml:"path"`
	Overridden bool   `yaml:"overridden,omitempty"`
	Ambiguous  bool   `yaml:"ambiguous,omitempty"`
}

func (t *KeysTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input keysInput
	if len(strings.TrimSpace(string(argsXML))) > 0 {
		if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
			return "", nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}

	entries, err := ListLeaves(t.root(), t.registry, strings.TrimSpace(input.Match))
	if err != nil {
		return "", nil, err
	}
	if len(entries) == 0 {
		return "no matching host operations", map[string]interface{}{"count": 0}, nil
	}
	out, err := yaml.Marshal(entries)
	if err != nil {
		return "", nil, fmt.Errorf("failed to render keys: %w", err)
	}
	return strings.TrimRight(string(out), "\n"), map[string]interface{}{"count": len(entries)}, nil
}

// ListLeaves returns the leaves of root whose key matches pattern (all
// leaves when pattern is empty), sorted by key.
func ListLeaves(root hostapi.Namespace, registry *hostapi.Registry, pattern string) ([]LeafEntry, error) {
	var g glob.Glob
	if pattern != "" {
		var err error
		if g, err = glob.Compile(pattern); err != nil {
			return nil, fmt.Errorf("invalid match pattern %q: %w", pattern, err)
		}
	}

	leaves := hostapi.Leaves(root)
	collisions := hostapi.Collisions(leaves)
	entries := make([]LeafEntry, 0, len(leaves))
	for _, p := range leaves {
		key := p.Key()
		if g != nil && !g.Match(key) {
			continue
		}
		_, overridden := registry.Lookup(key)
		_, collides := collisions[key]
		entries = append(entries, LeafEntry{
			Key:        key,
			Path:       p.String(),
			Overridden: overridden,
			Ambiguous:  collides || p.Ambiguous(),
		})
	}
	return entries, nil
}
