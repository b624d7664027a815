package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator_ExclusionPrecedence(t *testing.T) {
	// a string matching both lists is always out of scope
	v := NewValidatorFromLists(
		[]string{"*.example.com"},
		[]string{"internal.example.com"},
	)

	r := v.Validate("internal.example.com")
	assert.False(t, r.InScope)
	assert.Equal(t, "explicitly out of scope", r.Reason)
	assert.Equal(t, "internal.example.com", r.MatchedRule)
}

func TestValidator_Reasons(t *testing.T) {
	v := NewValidatorFromLists(
		[]string{"example.com", "*.api.example.com", "10.0.0.0/8"},
		[]string{"legacy.example.com", "*.test.example.com", "192.168.0.0/16"},
	)

	tests := []struct {
		name    string
		asset   string
		inScope bool
		reason  string
	}{
		{"exact in", "example.com", true, "explicitly in scope"},
		{"wildcard in", "v1.api.example.com", true, "matches in-scope pattern"},
		{"cidr in", "10.2.3.4", true, "in in-scope CIDR range"},
		{"exact out", "legacy.example.com", false, "explicitly out of scope"},
		{"wildcard out", "a.test.example.com", false, "matches out-of-scope pattern"},
		{"cidr out", "192.168.4.4", false, "in out-of-scope CIDR range"},
		{"unknown", "unrelated.net", false, "not found in program scope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := v.Validate(tt.asset)
			assert.Equal(t, tt.inScope, r.InScope)
			assert.Equal(t, tt.reason, r.Reason)
		})
	}
}

func TestValidator_SubdomainWidening(t *testing.T) {
	v := NewValidatorFromLists([]string{"example.com"}, nil)

	r := v.Validate("api.example.com")
	assert.True(t, r.InScope)
	assert.Equal(t, "subdomain of in-scope domain", r.Reason)
	assert.Equal(t, "example.com", r.MatchedRule)

	// any depth qualifies as long as the exact entry is a literal suffix
	r = v.Validate("deep.api.example.com")
	assert.True(t, r.InScope)
	assert.Equal(t, "subdomain of in-scope domain", r.Reason)

	// suffix check requires the dot boundary
	r = v.Validate("notexample.com")
	assert.False(t, r.InScope)
}

func TestValidator_SubdomainWideningSkipsWildcardEntries(t *testing.T) {
	// widening runs over exact entries only; a wildcard entry authorizes
	// what it matches and nothing more
	v := NewValidatorFromLists([]string{"*.cdn.example.com"}, nil)

	r := v.Validate("a.b.cdn.example.com")
	assert.True(t, r.InScope)
	assert.Equal(t, "matches in-scope pattern", r.Reason)

	r = v.Validate("cdn.example.com")
	assert.False(t, r.InScope)
	assert.Equal(t, "not found in program scope", r.Reason)
}

func TestValidator_SubdomainWideningLosesToExclusion(t *testing.T) {
	v := NewValidatorFromLists(
		[]string{"example.com"},
		[]string{"admin.example.com"},
	)

	r := v.Validate("admin.example.com")
	assert.False(t, r.InScope)

	r = v.Validate("api.example.com")
	assert.True(t, r.InScope)
}

func TestValidator_NormalizesCandidates(t *testing.T) {
	v := NewValidatorFromLists([]string{"example.com"}, nil)

	r := v.Validate("https://Example.com/")
	assert.True(t, r.InScope)
	assert.Equal(t, "example.com", r.Asset)
}

func TestValidator_Batch(t *testing.T) {
	v := NewValidatorFromLists([]string{"example.com"}, []string{"bad.example.com"})

	assets := []string{"example.com", "api.example.com", "bad.example.com", "other.net"}

	results := v.ValidateBatch(assets)
	assert.Len(t, results, 4)

	assert.Equal(t, []string{"example.com", "api.example.com"}, v.FilterInScope(assets))
	assert.Equal(t, []string{"bad.example.com", "other.net"}, v.FilterOutScope(assets))
}
