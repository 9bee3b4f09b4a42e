// Package profile loads override profiles: YAML files describing which host
// operations to deny, stub or log. A profile is built into a
// hostapi.Overrides table and registered as a whole.
//
//	rules:
//	  - key: windows_create
//	    action: deny
//	    message: window creation disabled
//	  - path: [tabs, get]
//	    action: stub
//	    result: {id: 1, url: about:blank}
//	  - match: "tabs_*"
//	    action: log
//
// When several rules produce the same key the later rule wins.
package profile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/hostproxy/pkg/hostapi"
)

// Action is what a substitute does when called.
type Action string

const (
	// ActionDeny fails the call with a DeniedError.
	ActionDeny Action = "deny"
	// ActionStub returns the rule's result without reaching the host.
	ActionStub Action = "stub"
	// ActionLog logs the call and forwards it to the real operation.
	ActionLog Action = "log"
)

// Rule selects host operations by exactly one of Key, Path or Match.
type Rule struct {
	// Key is a flattened key such as "windows_create".
	Key string `yaml:"key,omitempty"`

	// Path lists the segments explicitly, which avoids the ambiguity of
	// flattened keys whose segments contain underscores.
	Path []string `yaml:"path,omitempty"`

	// Match is a glob over the flattened keys of the host's leaves.
	Match string `yaml:"match,omitempty"`

	Action  Action `yaml:"action"`
	Message string `yaml:"message,omitempty"`
	Result  any    `yaml:"result,omitempty"`
}

// Profile is a named, ordered list of rules.
type Profile struct {
	Name  string `yaml:"name,omitempty"`
	Rules []Rule `yaml:"rules"`
}

// Parse decodes and validates a YAML profile.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("profile: parse error: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads a profile from path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: failed to read %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = path
	}
	return p, nil
}

// Validate checks that every rule has one selector and a known action.
// Whether the selected operations exist is reported by Check.
func (p *Profile) Validate() error {
	for i, r := range p.Rules {
		selectors := 0
		if r.Key != "" {
			selectors++
		}
		if len(r.Path) > 0 {
			selectors++
		}
		if r.Match != "" {
			selectors++
		}
		if selectors != 1 {
			return fmt.Errorf("profile: rule %d: exactly one of key, path or match is required", i+1)
		}
		for _, segment := range r.Path {
			if segment == "" {
				return fmt.Errorf("profile: rule %d: empty path segment", i+1)
			}
		}
		switch r.Action {
		case ActionDeny, ActionStub, ActionLog:
		case "":
			return fmt.Errorf("profile: rule %d: action is required", i+1)
		default:
			return fmt.Errorf("profile: rule %d: unknown action %q", i+1, r.Action)
		}
	}
	return nil
}

// selector describes the rule's target for messages.
func (r Rule) selector() string {
	switch {
	case r.Key != "":
		return "key " + r.Key
	case len(r.Path) > 0:
		return "path " + strings.Join(r.Path, ".")
	default:
		return "match " + r.Match
	}
}

// keys returns the flattened keys the rule selects. Glob rules are expanded
// against leaves; key and path rules select their key whether or not the
// host has it.
func (r Rule) keys(leaves map[string][]hostapi.Path) ([]string, error) {
	switch {
	case r.Key != "":
		return []string{r.Key}, nil
	case len(r.Path) > 0:
		return []string{hostapi.FlattenKey(r.Path...)}, nil
	}
	g, err := compileMatch(r.Match)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, key := range sortedKeys(leaves) {
		if g.Match(key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
