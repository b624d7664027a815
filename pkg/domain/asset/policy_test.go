package asset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopewatch/api/pkg/domain/shared"
)

func assetWithTimes(t *testing.T, firstSeen, lastSeen, updatedAt time.Time, alive bool) *Asset {
	t.Helper()
	return Reconstitute(
		shared.NewID(), shared.NewID(),
		TypeSubdomain, "api.example.com",
		alive, true,
		nil, nil, nil, nil, nil, nil,
		firstSeen, lastSeen, updatedAt,
	)
}

func TestDecide(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	old := now.Add(-48 * time.Hour)

	tests := []struct {
		name      string
		firstSeen time.Time
		lastSeen  time.Time
		updatedAt time.Time
		alive     bool
		force     bool
		scan      bool
		reason    string
	}{
		{
			name:      "forced wins over everything",
			firstSeen: old, lastSeen: now, updatedAt: old,
			alive: false, force: true,
			scan: true, reason: ReasonForced,
		},
		{
			name:      "new asset",
			firstSeen: now.Add(-2 * time.Minute), lastSeen: now, updatedAt: now,
			alive: true,
			scan: true, reason: ReasonNewAsset,
		},
		{
			name:      "recently modified",
			firstSeen: old, lastSeen: now, updatedAt: now.Add(-30 * time.Minute),
			alive: true,
			scan: true, reason: ReasonRecentlyModified,
		},
		{
			name:      "dead asset skipped",
			firstSeen: old, lastSeen: now, updatedAt: old,
			alive: false,
			scan: false, reason: ReasonNotAlive,
		},
		{
			name:      "periodic revisit",
			firstSeen: old, lastSeen: now.Add(-25 * time.Hour), updatedAt: old,
			alive: true,
			scan: true, reason: ReasonPeriodic,
		},
		{
			name:      "nothing to do",
			firstSeen: old, lastSeen: now.Add(-2 * time.Hour), updatedAt: old,
			alive: true,
			scan: false, reason: ReasonNoChanges,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assetWithTimes(t, tt.firstSeen, tt.lastSeen, tt.updatedAt, tt.alive)
			d := Decide(now, a, tt.force)
			assert.Equal(t, tt.scan, d.Scan)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestDecide_NewAssetPrecedesDeadCheck(t *testing.T) {
	// a brand-new asset gets its initial pass even when probing has not
	// marked it alive yet
	now := time.Now().UTC()
	a := assetWithTimes(t, now.Add(-time.Minute), now, now, false)

	d := Decide(now, a, false)
	require.True(t, d.Scan)
	assert.Equal(t, ReasonNewAsset, d.Reason)
}

func TestDecide_BoundaryWindows(t *testing.T) {
	now := time.Now().UTC()
	old := now.Add(-48 * time.Hour)

	// exactly 5 minutes old is no longer "new"
	a := assetWithTimes(t, now.Add(-5*time.Minute), now, old, true)
	assert.NotEqual(t, ReasonNewAsset, Decide(now, a, false).Reason)

	// exactly 24h since last seen is not yet periodic
	b := assetWithTimes(t, old, now.Add(-24*time.Hour), old, true)
	d := Decide(now, b, false)
	assert.False(t, d.Scan)
	assert.Equal(t, ReasonNoChanges, d.Reason)
}
