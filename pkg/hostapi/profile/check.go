package profile

import (
	"fmt"

	"github.com/entrhq/hostproxy/pkg/hostapi"
)

// Finding is a problem Check found with one rule.
type Finding struct {
	Rule    int // 1-based
	Key     string
	Message string
}

func (f Finding) String() string {
	if f.Key == "" {
		return fmt.Sprintf("rule %d: %s", f.Rule, f.Message)
	}
	return fmt.Sprintf("rule %d (%s): %s", f.Rule, f.Key, f.Message)
}

// Report is the result of Check.
type Report struct {
	// Keys is the final override table's keys, sorted.
	Keys []string

	// Dead lists rules whose key matches no leaf of the host. Their
	// substitutes can never be reached.
	Dead []Finding

	// Ambiguous lists keys that more than one host path flattens to, and
	// rule paths whose segments contain the separator.
	Ambiguous []Finding

	// Shadowed lists rules whose every key is overridden by a later rule.
	Shadowed []Finding
}

// OK reports whether the check found nothing.
func (r *Report) OK() bool {
	return len(r.Dead) == 0 && len(r.Ambiguous) == 0 && len(r.Shadowed) == 0
}

// Check compares p against the host's leaves. Registration itself never
// validates keys, so this is the place where typos and underscore
// collisions surface.
func Check(p *Profile, host hostapi.Namespace) (*Report, error) {
	if host == nil {
		host = hostapi.NewObject(nil)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	leaves := leafIndex(host)
	collisions := hostapi.Collisions(hostapi.Leaves(host))
	report := &Report{}
	owner := make(map[string]int)
	ruleKeys := make([][]string, len(p.Rules))

	for i, r := range p.Rules {
		n := i + 1
		keys, err := r.keys(leaves)
		if err != nil {
			return nil, fmt.Errorf("profile: rule %d: %w", n, err)
		}
		ruleKeys[i] = keys

		if r.Match != "" && len(keys) == 0 {
			report.Dead = append(report.Dead, Finding{Rule: n, Message: fmt.Sprintf("%s matches no host operation", r.selector())})
		}
		if len(r.Path) > 0 && hostapi.Path(r.Path).Ambiguous() {
			report.Ambiguous = append(report.Ambiguous, Finding{
				Rule:    n,
				Key:     keys[0],
				Message: fmt.Sprintf("segment of %s contains %q", r.selector(), hostapi.Separator),
			})
		}
		for _, key := range keys {
			owner[key] = n
			if _, ok := leaves[key]; !ok {
				report.Dead = append(report.Dead, Finding{Rule: n, Key: key, Message: "no host operation has this key"})
			}
			if group, ok := collisions[key]; ok {
				report.Ambiguous = append(report.Ambiguous, Finding{
					Rule:    n,
					Key:     key,
					Message: fmt.Sprintf("key is shared by %d host paths %v", len(group), group),
				})
			}
		}
	}

	for i, keys := range ruleKeys {
		if len(keys) == 0 {
			continue
		}
		shadowed := true
		for _, key := range keys {
			if owner[key] == i+1 {
				shadowed = false
				break
			}
		}
		if shadowed {
			report.Shadowed = append(report.Shadowed, Finding{
				Rule:    i + 1,
				Message: fmt.Sprintf("%s is overridden by later rules", p.Rules[i].selector()),
			})
		}
	}

	report.Keys = sortedKeys(owner)
	return report, nil
}
