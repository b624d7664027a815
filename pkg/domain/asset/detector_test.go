package asset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopewatch/api/pkg/domain/shared"
)

func storedAsset(t *testing.T, mutate func(p *ProbeRecord)) *Asset {
	t.Helper()
	a, err := NewAsset(shared.NewID(), TypeSubdomain, "api.example.com")
	require.NoError(t, err)

	probe := ProbeRecord{
		Host:          "api.example.com",
		StatusCode:    IntPtr(200),
		ContentLength: Int64Ptr(1000),
		Title:         StringPtr("Welcome"),
		Technologies:  []string{"nginx", "react"},
		ResponseHash:  StringPtr("aaaa"),
		ResolvedIPs:   []string{"1.1.1.1"},
	}
	if mutate != nil {
		mutate(&probe)
	}
	InitializeFromProbe(a, probe, time.Now().UTC())
	return a
}

func TestDetectChanges_HTTPStatus(t *testing.T) {
	a := storedAsset(t, nil)

	changes := DetectChanges(a, ProbeRecord{StatusCode: IntPtr(301)})
	require.Len(t, changes, 1)
	assert.Equal(t, FieldHTTPStatus, changes[0].Field)
	assert.Equal(t, "200", *changes[0].Old)
	assert.Equal(t, "301", *changes[0].New)

	// nil -> value is a change too
	b := storedAsset(t, func(p *ProbeRecord) { p.StatusCode = nil })
	changes = DetectChanges(b, ProbeRecord{StatusCode: IntPtr(200)})
	require.Len(t, changes, 1)
	assert.Nil(t, changes[0].Old)
}

func TestDetectChanges_ContentLengthThreshold(t *testing.T) {
	tests := []struct {
		name    string
		old     int64
		current int64
		changed bool
	}{
		{"exactly 10 percent is noise", 1000, 1100, false},
		{"just above threshold", 1000, 1101, true},
		{"just above threshold downward", 1000, 899, true},
		{"below threshold", 1000, 1050, false},
		{"zero baseline never reports", 0, 500, false},
		{"large jump", 1000, 5000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := storedAsset(t, func(p *ProbeRecord) { p.ContentLength = Int64Ptr(tt.old) })
			changes := DetectChanges(a, ProbeRecord{ContentLength: Int64Ptr(tt.current)})
			if tt.changed {
				require.Len(t, changes, 1)
				assert.Equal(t, FieldContentLength, changes[0].Field)
			} else {
				assert.Empty(t, changes)
			}
		})
	}
}

func TestDetectChanges_ContentLengthNilBaseline(t *testing.T) {
	a := storedAsset(t, func(p *ProbeRecord) { p.ContentLength = nil })

	changes := DetectChanges(a, ProbeRecord{ContentLength: Int64Ptr(9999)})
	assert.Empty(t, changes)
}

func TestDetectChanges_Technologies(t *testing.T) {
	a := storedAsset(t, nil) // nginx, react

	changes := DetectChanges(a, ProbeRecord{Technologies: []string{"react", "varnish"}})
	require.Len(t, changes, 1)

	ch := changes[0]
	assert.Equal(t, FieldTechnologies, ch.Field)
	assert.Equal(t, "nginx,react", *ch.Old)
	assert.Equal(t, "react,varnish", *ch.New)
	assert.Equal(t, []string{"varnish"}, ch.Added)
	assert.Equal(t, []string{"nginx"}, ch.Removed)

	// order does not matter for set comparison
	changes = DetectChanges(a, ProbeRecord{Technologies: []string{"react", "nginx"}})
	assert.Empty(t, changes)
}

func TestDetectChanges_PageTitle(t *testing.T) {
	a := storedAsset(t, nil)

	changes := DetectChanges(a, ProbeRecord{Title: StringPtr("Maintenance")})
	require.Len(t, changes, 1)
	assert.Equal(t, FieldPageTitle, changes[0].Field)
	assert.Equal(t, "Welcome", *changes[0].Old)
	assert.Equal(t, "Maintenance", *changes[0].New)
}

func TestDetectChanges_ResponseHashBothNonNullOnly(t *testing.T) {
	a := storedAsset(t, nil) // hash "aaaa"

	changes := DetectChanges(a, ProbeRecord{ResponseHash: StringPtr("bbbb")})
	require.Len(t, changes, 1)
	assert.Equal(t, FieldResponseHash, changes[0].Field)

	// stored hash unknown: transition is not reported
	b := storedAsset(t, func(p *ProbeRecord) { p.ResponseHash = nil })
	changes = DetectChanges(b, ProbeRecord{ResponseHash: StringPtr("bbbb")})
	assert.Empty(t, changes)
}

func TestDetectChanges_ResolvedIPs(t *testing.T) {
	a := storedAsset(t, nil) // 1.1.1.1

	changes := DetectChanges(a, ProbeRecord{ResolvedIPs: []string{"1.1.1.1", "2.2.2.2"}})
	require.Len(t, changes, 1)
	assert.Equal(t, FieldResolvedIPs, changes[0].Field)
	assert.Equal(t, []string{"2.2.2.2"}, changes[0].Added)
	assert.Empty(t, changes[0].Removed)
}

func TestDetectChanges_PartialProbeLeavesFieldsAlone(t *testing.T) {
	a := storedAsset(t, nil)

	// only the status is reported; everything else keeps its baseline
	// and produces no change
	changes := DetectChanges(a, ProbeRecord{StatusCode: IntPtr(200)})
	assert.Empty(t, changes)
}

func TestApplyProbe_Idempotent(t *testing.T) {
	a := storedAsset(t, nil)

	probe := ProbeRecord{
		StatusCode:    IntPtr(503),
		ContentLength: Int64Ptr(50),
		Title:         StringPtr("Down"),
	}

	now := time.Now().UTC()
	first := ApplyProbe(a, probe, now)
	assert.NotEmpty(t, first)

	second := ApplyProbe(a, probe, now.Add(time.Minute))
	assert.Empty(t, second)
}

func TestApplyProbe_UpdatedAtAdvancesOnlyOnChange(t *testing.T) {
	a := storedAsset(t, nil)
	before := a.UpdatedAt()

	later := time.Now().UTC().Add(time.Hour)
	changes := ApplyProbe(a, ProbeRecord{StatusCode: IntPtr(200)}, later)
	assert.Empty(t, changes)
	assert.Equal(t, before, a.UpdatedAt(), "no-op re-probe must not advance updatedAt")
	assert.Equal(t, later, a.LastSeen(), "every observation advances lastSeen")

	changes = ApplyProbe(a, ProbeRecord{StatusCode: IntPtr(500)}, later.Add(time.Minute))
	require.Len(t, changes, 1)
	assert.Equal(t, later.Add(time.Minute), a.UpdatedAt())
	assert.True(t, a.FirstSeen().Before(a.LastSeen()) || a.FirstSeen().Equal(a.LastSeen()))
}

func TestApplyProbe_AppliesBelowThresholdValues(t *testing.T) {
	// sub-threshold content length drift is applied silently so the next
	// comparison uses the freshest baseline
	a := storedAsset(t, nil)

	changes := ApplyProbe(a, ProbeRecord{ContentLength: Int64Ptr(1050)}, time.Now().UTC())
	assert.Empty(t, changes)
	assert.Equal(t, int64(1050), *a.ContentLength())
}

func TestInitializeFromProbe_NoChanges(t *testing.T) {
	a, err := NewAsset(shared.NewID(), TypeSubdomain, "new.example.com")
	require.NoError(t, err)

	probe := ProbeRecord{
		StatusCode:   IntPtr(200),
		Technologies: []string{"nginx"},
		IsAlive:      BoolPtr(true),
	}
	InitializeFromProbe(a, probe, time.Now().UTC())

	assert.Equal(t, 200, *a.HTTPStatus())
	assert.Equal(t, []string{"nginx"}, a.Technologies())
	assert.True(t, a.IsAlive())
}

func TestComputeResponseHash(t *testing.T) {
	h1 := ComputeResponseHash([]byte("hello"))
	h2 := ComputeResponseHash([]byte("hello"))
	h3 := ComputeResponseHash([]byte("hello!"))

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}
