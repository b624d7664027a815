package scope

import (
	"sort"
	"strings"
)

// ValidationResult is the validator's answer for one asset string.
type ValidationResult struct {
	Asset       string `json:"asset"`
	InScope     bool   `json:"in_scope"`
	Reason      string `json:"reason"`
	MatchedRule string `json:"matched_rule,omitempty"`
}

// Validator classifies asset strings against a program's scope under the
// default-deny-with-exclusion-priority policy: an out-of-scope rule always
// wins over an in-scope one. A Validator is immutable after construction
// and safe for concurrent use; build one per snapshot and reuse it.
type Validator struct {
	in  *RuleSet
	out *RuleSet

	// exact in-scope entries, longest first, for subdomain inference
	inExact []string
}

// NewValidator compiles a validator for the given snapshot.
func NewValidator(snapshot Snapshot) *Validator {
	return NewValidatorFromLists(snapshot.inScope, snapshot.outOfScope)
}

// NewValidatorFromLists compiles a validator from raw scope lists.
func NewValidatorFromLists(inScope, outOfScope []string) *Validator {
	in := NewRuleSet(inScope)
	exact := in.ExactRules()
	sort.Slice(exact, func(i, j int) bool {
		if len(exact[i]) != len(exact[j]) {
			return len(exact[i]) > len(exact[j])
		}
		return exact[i] < exact[j]
	})
	return &Validator{
		in:      in,
		out:     NewRuleSet(outOfScope),
		inExact: exact,
	}
}

// Validate classifies one asset string. Evaluation order, first hit wins:
// exclusion rules, inclusion rules, subdomain inference over exact
// in-scope entries, default deny.
func (v *Validator) Validate(asset string) ValidationResult {
	candidate := Normalize(asset)

	if m := v.out.Match(candidate); m != nil {
		return ValidationResult{
			Asset:       candidate,
			InScope:     false,
			Reason:      exclusionReason(m.Kind),
			MatchedRule: m.Rule,
		}
	}

	if m := v.in.Match(candidate); m != nil {
		return ValidationResult{
			Asset:       candidate,
			InScope:     true,
			Reason:      inclusionReason(m.Kind),
			MatchedRule: m.Rule,
		}
	}

	// Subdomain inference runs over exact in-scope entries only. Programs
	// commonly scope a bare domain and implicitly authorize subdomains;
	// wildcard entries are deliberately excluded from this widening.
	for _, rule := range v.inExact {
		if candidate != rule && strings.HasSuffix(candidate, "."+rule) {
			return ValidationResult{
				Asset:       candidate,
				InScope:     true,
				Reason:      "subdomain of in-scope domain",
				MatchedRule: rule,
			}
		}
	}

	return ValidationResult{
		Asset:   candidate,
		InScope: false,
		Reason:  "not found in program scope",
	}
}

// ValidateBatch classifies each asset independently.
func (v *Validator) ValidateBatch(assets []string) []ValidationResult {
	results := make([]ValidationResult, 0, len(assets))
	for _, a := range assets {
		results = append(results, v.Validate(a))
	}
	return results
}

// FilterInScope returns only the assets classified as in scope.
func (v *Validator) FilterInScope(assets []string) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		if r := v.Validate(a); r.InScope {
			out = append(out, r.Asset)
		}
	}
	return out
}

// FilterOutScope returns only the assets classified as out of scope.
func (v *Validator) FilterOutScope(assets []string) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		if r := v.Validate(a); !r.InScope {
			out = append(out, r.Asset)
		}
	}
	return out
}

func exclusionReason(kind RuleKind) string {
	switch kind {
	case RuleKindWildcard:
		return "matches out-of-scope pattern"
	case RuleKindCIDR:
		return "in out-of-scope CIDR range"
	default:
		return "explicitly out of scope"
	}
}

func inclusionReason(kind RuleKind) string {
	switch kind {
	case RuleKindWildcard:
		return "matches in-scope pattern"
	case RuleKindCIDR:
		return "in in-scope CIDR range"
	default:
		return "explicitly in scope"
	}
}
