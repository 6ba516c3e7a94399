package ratelimit

import (
	"sort"
	"sync"

	goratelimit "github.com/krishna-kudari/ratelimit"

	"github.com/brennhill/mcpcore/internal/template"
)

// maxRulesPerKeyType bounds a single key type's rule list (mcpcore §3 Data
// Model).
const maxRulesPerKeyType = 32

// Rule is a rate-limit rule (mcpcore §3): a key type, an algorithm, an
// optional key pattern, a priority, and the algorithm's construction
// parameters. Its Limiter is built once, at AddRule time, and lives for the
// rule's lifetime — replacing or removing the rule discards it, which is how
// mcpcore §3's "entry discarded, not mutated, on rule change" invariant is
// realized: the algorithm state lives inside the Limiter, not the rule.
type Rule struct {
	KeyType    KeyType
	Algorithm  Algorithm
	KeyPattern *string // nil = match-all
	Priority   int
	Params     Params

	limiter goratelimit.Limiter
}

func (r *Rule) matches(key string) bool {
	if r.KeyPattern == nil {
		return true
	}
	return template.MatchGlob(*r.KeyPattern, key)
}

// ruleSet is the priority-ordered rule list for a single key type.
type ruleSet struct {
	mu    sync.Mutex
	rules []*Rule
}

// add appends rule and re-sorts by descending priority, stable on ties so
// that repeated add_rule calls with identical (key_type, pattern, priority)
// keep insertion order (mcpcore §8 Idempotence: duplicates are not
// deduplicated).
func (rs *ruleSet) add(r *Rule) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if len(rs.rules) >= maxRulesPerKeyType {
		return errTooManyRules
	}
	rs.rules = append(rs.rules, r)
	sort.SliceStable(rs.rules, func(i, j int) bool {
		return rs.rules[i].Priority > rs.rules[j].Priority
	})
	return nil
}

// remove deletes the first rule whose pattern pointer-or-value and priority
// match (mcpcore §8: "remove_rule removes the first match"). Reports whether
// a rule was removed.
func (rs *ruleSet) remove(pattern *string, priority int) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for i, r := range rs.rules {
		if r.Priority != priority {
			continue
		}
		if !samePattern(r.KeyPattern, pattern) {
			continue
		}
		rs.rules = append(rs.rules[:i], rs.rules[i+1:]...)
		return true
	}
	return false
}

func samePattern(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// match returns the highest-priority rule matching key, or nil.
func (rs *ruleSet) match(key string) *Rule {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for _, r := range rs.rules {
		if r.matches(key) {
			return r
		}
	}
	return nil
}
