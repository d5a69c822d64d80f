package classify

import (
	"fmt"
	"sort"

	"github.com/gobwas/glob"

	"github.com/hollowprose/graphein/core/config"
)

// compiledRule is a ClassRule with its glob patterns compiled once.
type compiledRule struct {
	name     string
	role     string
	hazard   bool
	patterns []glob.Glob
}

func compileRules(rules []config.ClassRule) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cr := compiledRule{name: r.Name, role: r.Role, hazard: r.Hazard}
		for _, p := range r.Patterns {
			g, err := glob.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("rule %q: pattern %q: %w", r.Name, p, err)
			}
			cr.patterns = append(cr.patterns, g)
		}
		out = append(out, cr)
	}
	return out, nil
}

// applyRules runs stage one. Rules are tried in declaration order and
// the first match wins, so overlapping patterns resolve
// deterministically. Matching is against the middle alone and against
// every observed prefix+middle form, so a rule can target either the
// bare family or an affixed shape.
func applyRules(rules []compiledRule, middle string, prefixes map[string]int) (compiledRule, bool) {
	forms := make([]string, 0, len(prefixes)+1)
	forms = append(forms, middle)
	pk := make([]string, 0, len(prefixes))
	for p := range prefixes {
		pk = append(pk, p)
	}
	sort.Strings(pk)
	for _, p := range pk {
		forms = append(forms, p+middle)
	}

	for _, r := range rules {
		for _, g := range r.patterns {
			for _, f := range forms {
				if g.Match(f) {
					return r, true
				}
			}
		}
	}
	return compiledRule{}, false
}
