// Package scope provides scope snapshot modeling, rule matching,
// asset validation and scope comparison for monitored programs.
package scope

import (
	"net"
	"regexp"
	"strconv"
	"strings"
)

// RuleKind identifies how a compiled scope rule matches candidates.
type RuleKind string

const (
	RuleKindExact    RuleKind = "exact"
	RuleKindWildcard RuleKind = "wildcard"
	RuleKindCIDR     RuleKind = "cidr"
)

// MatchedRule is the result of a successful rule lookup.
type MatchedRule struct {
	Rule string
	Kind RuleKind
}

type wildcardRule struct {
	raw     string
	pattern *regexp.Regexp
}

type cidrRule struct {
	raw     string
	network *net.IPNet
}

// RuleSet compiles a raw scope list into matchable buckets: an exact-match
// set, wildcard patterns and CIDR networks. Entries that fit none of the
// buckets (malformed CIDRs, unparsable patterns) are dropped at compile
// time; callers needing strict validation must pre-validate.
type RuleSet struct {
	exact     map[string]struct{}
	wildcards []wildcardRule
	cidrs     []cidrRule
}

// NewRuleSet compiles the given rule strings.
func NewRuleSet(rules []string) *RuleSet {
	rs := &RuleSet{
		exact: make(map[string]struct{}, len(rules)),
	}
	for _, raw := range rules {
		rule := Normalize(raw)
		if rule == "" {
			continue
		}
		switch {
		case strings.Contains(rule, "*"):
			pattern, err := compileWildcard(rule)
			if err != nil {
				continue
			}
			rs.wildcards = append(rs.wildcards, wildcardRule{raw: rule, pattern: pattern})
		case strings.Contains(rule, "/"):
			_, network, err := net.ParseCIDR(rule)
			if err != nil {
				continue
			}
			rs.cidrs = append(rs.cidrs, cidrRule{raw: rule, network: network})
		default:
			rs.exact[rule] = struct{}{}
		}
	}
	return rs
}

// Match tests the candidate against the compiled rules: exact set first,
// then wildcard patterns in compile order (first match wins), then CIDR
// ranges for IP-literal candidates. Returns nil when nothing matches.
func (rs *RuleSet) Match(candidate string) *MatchedRule {
	candidate = Normalize(candidate)
	if candidate == "" {
		return nil
	}

	if _, ok := rs.exact[candidate]; ok {
		return &MatchedRule{Rule: candidate, Kind: RuleKindExact}
	}

	for _, w := range rs.wildcards {
		if w.pattern.MatchString(candidate) {
			return &MatchedRule{Rule: w.raw, Kind: RuleKindWildcard}
		}
	}

	if len(rs.cidrs) > 0 && isIPv4Literal(candidate) {
		ip := net.ParseIP(candidate)
		if ip != nil {
			for _, c := range rs.cidrs {
				if c.network.Contains(ip) {
					return &MatchedRule{Rule: c.raw, Kind: RuleKindCIDR}
				}
			}
		}
	}

	return nil
}

// ExactRules returns the exact-match entries, unordered.
func (rs *RuleSet) ExactRules() []string {
	out := make([]string, 0, len(rs.exact))
	for rule := range rs.exact {
		out = append(out, rule)
	}
	return out
}

// Size returns the total number of compiled rules.
func (rs *RuleSet) Size() int {
	return len(rs.exact) + len(rs.wildcards) + len(rs.cidrs)
}

// Normalize canonicalizes a scope entry or candidate: scheme prefix and
// trailing slash stripped, lowercased, surrounding whitespace removed.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimSuffix(s, "/")
	return strings.ToLower(s)
}

func compileWildcard(rule string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)^")
	for _, part := range strings.Split(rule, "*") {
		b.WriteString(regexp.QuoteMeta(part))
		b.WriteString(".*")
	}
	expr := strings.TrimSuffix(b.String(), ".*") + "$"
	return regexp.Compile(expr)
}

// isIPv4Literal reports whether s is a dotted-quad IPv4 address. CIDR
// matching is only attempted for these candidates; hostnames and IPv6
// literals never reach the CIDR bucket.
func isIPv4Literal(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}
