package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "Example.COM", "example.com"},
		{"strip https", "https://example.com", "example.com"},
		{"strip http", "http://example.com", "example.com"},
		{"strip trailing slash", "https://example.com/", "example.com"},
		{"whitespace", "  example.com  ", "example.com"},
		{"untouched", "sub.example.com", "sub.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestRuleSet_Match_Exact(t *testing.T) {
	rs := NewRuleSet([]string{"example.com", "API.Example.com"})

	m := rs.Match("example.com")
	require.NotNil(t, m)
	assert.Equal(t, RuleKindExact, m.Kind)
	assert.Equal(t, "example.com", m.Rule)

	m = rs.Match("https://api.example.com/")
	require.NotNil(t, m)
	assert.Equal(t, RuleKindExact, m.Kind)

	assert.Nil(t, rs.Match("other.com"))
}

func TestRuleSet_Match_Wildcard(t *testing.T) {
	rs := NewRuleSet([]string{"*.example.com"})

	m := rs.Match("api.example.com")
	require.NotNil(t, m)
	assert.Equal(t, RuleKindWildcard, m.Kind)
	assert.Equal(t, "*.example.com", m.Rule)

	// wildcard patterns are anchored
	assert.Nil(t, rs.Match("example.com"))
	assert.Nil(t, rs.Match("api.example.com.evil.net"))
}

func TestRuleSet_Match_WildcardFirstMatchWins(t *testing.T) {
	rs := NewRuleSet([]string{"*.staging.example.com", "*.example.com"})

	m := rs.Match("a.staging.example.com")
	require.NotNil(t, m)
	assert.Equal(t, "*.staging.example.com", m.Rule)
}

func TestRuleSet_Match_CIDR(t *testing.T) {
	rs := NewRuleSet([]string{"192.168.1.0/24", "10.0.0.0/8"})

	m := rs.Match("192.168.1.55")
	require.NotNil(t, m)
	assert.Equal(t, RuleKindCIDR, m.Kind)
	assert.Equal(t, "192.168.1.0/24", m.Rule)

	assert.Nil(t, rs.Match("192.168.2.1"))

	m = rs.Match("10.200.3.4")
	require.NotNil(t, m)
	assert.Equal(t, "10.0.0.0/8", m.Rule)
}

func TestRuleSet_Match_CIDROnlyForIPv4Literals(t *testing.T) {
	rs := NewRuleSet([]string{"0.0.0.0/0", "::/0"})

	// hostnames never reach the CIDR bucket
	assert.Nil(t, rs.Match("example.com"))

	// IPv6 literals are not dotted quads, so even a catch-all v6 range
	// never matches; the dotted-quad restriction is intentional
	assert.Nil(t, rs.Match("2001:db8::1"))

	require.NotNil(t, rs.Match("8.8.8.8"))
}

func TestNewRuleSet_DropsMalformedEntries(t *testing.T) {
	rs := NewRuleSet([]string{
		"example.com",
		"10.0.0.0/99",    // invalid mask, dropped
		"not/a/network",  // unparsable CIDR, dropped
		"",               // empty, dropped
	})

	assert.Equal(t, 1, rs.Size())
	assert.NotNil(t, rs.Match("example.com"))
	assert.Nil(t, rs.Match("10.1.2.3"))
}
