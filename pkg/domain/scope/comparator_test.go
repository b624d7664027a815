package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(in, out []string) Snapshot {
	return NewSnapshot(in, out, SnapshotMeta{})
}

func TestSnapshot_ChecksumOrderInsensitive(t *testing.T) {
	a := snap([]string{"a.com", "b.com"}, []string{"c.com"})
	b := snap([]string{"b.com", "a.com"}, []string{"c.com"})

	assert.Equal(t, a.Checksum(), b.Checksum())

	c := snap([]string{"a.com"}, []string{"b.com", "c.com"})
	assert.NotEqual(t, a.Checksum(), c.Checksum())
}

func TestCompare_ChecksumShortCircuit(t *testing.T) {
	prev := snap([]string{"a.com", "b.com"}, []string{"x.com"})
	curr := snap([]string{"b.com", "a.com"}, []string{"x.com"})

	cmp := Compare(&prev, curr)
	assert.False(t, cmp.HasChanges)
	assert.False(t, cmp.IsFirstCheck)
	assert.Empty(t, cmp.Changes)
	assert.Empty(t, cmp.Additions)
	assert.Empty(t, cmp.Removals)
	assert.Empty(t, cmp.Modifications)
	assert.Equal(t, "no scope changes detected", cmp.Summary())
}

func TestCompare_FirstCheck(t *testing.T) {
	curr := snap([]string{"a.com"}, []string{"b.com"})

	cmp := Compare(nil, curr)
	assert.True(t, cmp.IsFirstCheck)
	assert.True(t, cmp.HasChanges)
	assert.Empty(t, cmp.Changes)
	assert.Equal(t, curr.Checksum(), cmp.CurrentChecksum)
	assert.Equal(t, "first scope check, baseline recorded", cmp.Summary())
}

func TestCompare_MoveConservation(t *testing.T) {
	// an item moving out_of_scope -> in_scope is exactly one modification
	prev := snap([]string{"a.com"}, []string{"b.com"})
	curr := snap([]string{"a.com", "b.com"}, []string{})

	cmp := Compare(&prev, curr)
	assert.True(t, cmp.HasChanges)
	require.Len(t, cmp.Modifications, 1)
	assert.Empty(t, cmp.Additions)
	assert.Empty(t, cmp.Removals)

	mod := cmp.Modifications[0]
	assert.Equal(t, ChangeTypeModified, mod.Type)
	assert.Equal(t, "b.com", mod.Item)
	assert.Equal(t, CategoryInScope, mod.Category)
	assert.Equal(t, "out_of_scope", mod.Details["from"])
	assert.Equal(t, "in_scope", mod.Details["to"])
}

func TestCompare_MoveInToOut(t *testing.T) {
	prev := snap([]string{"a.com", "b.com"}, []string{})
	curr := snap([]string{"a.com"}, []string{"b.com"})

	cmp := Compare(&prev, curr)
	require.Len(t, cmp.Modifications, 1)
	assert.Empty(t, cmp.Additions)
	assert.Empty(t, cmp.Removals)

	mod := cmp.Modifications[0]
	assert.Equal(t, "b.com", mod.Item)
	assert.Equal(t, CategoryOutOfScope, mod.Category)
	assert.Equal(t, "in_scope", mod.Details["from"])
	assert.Equal(t, "out_of_scope", mod.Details["to"])
}

func TestCompare_AdditionsAndRemovals(t *testing.T) {
	prev := snap([]string{"example.com"}, []string{"test.example.com"})
	curr := snap([]string{"example.com", "*.api.example.com"}, []string{})

	cmp := Compare(&prev, curr)
	assert.True(t, cmp.HasChanges)

	require.Len(t, cmp.Additions, 1)
	assert.Equal(t, "*.api.example.com", cmp.Additions[0].Item)
	assert.Equal(t, CategoryInScope, cmp.Additions[0].Category)

	// test.example.com left out_of_scope without entering in_scope, so
	// it is a removal, not a move
	require.Len(t, cmp.Removals, 1)
	assert.Equal(t, "test.example.com", cmp.Removals[0].Item)
	assert.Equal(t, CategoryOutOfScope, cmp.Removals[0].Category)

	assert.Empty(t, cmp.Modifications)
	assert.Len(t, cmp.Changes, 2)
	assert.Equal(t, []string{"example.com"}, cmp.UnchangedIn)
	assert.Equal(t, "scope changed: 1 added, 1 removed, 0 moved", cmp.Summary())
}

func TestCompare_PartitionsAreDisjoint(t *testing.T) {
	prev := snap([]string{"a.com", "b.com", "c.com"}, []string{"d.com", "e.com"})
	curr := snap([]string{"a.com", "d.com", "new.com"}, []string{"b.com"})

	cmp := Compare(&prev, curr)

	seen := make(map[string]int)
	for _, ch := range cmp.Changes {
		seen[ch.Item]++
	}
	for item, count := range seen {
		assert.Equal(t, 1, count, "item %s reported more than once", item)
	}
	assert.Len(t, cmp.Changes, len(cmp.Additions)+len(cmp.Removals)+len(cmp.Modifications))

	// b.com and d.com moved, c.com and e.com removed, new.com added
	assert.Len(t, cmp.Modifications, 2)
	assert.Len(t, cmp.Removals, 2)
	assert.Len(t, cmp.Additions, 1)
}

func TestCompare_NormalizationAppliedBeforeDiff(t *testing.T) {
	prev := snap([]string{"https://Example.com/"}, nil)
	curr := snap([]string{"example.com"}, nil)

	cmp := Compare(&prev, curr)
	assert.False(t, cmp.HasChanges)
}

func TestComparison_FormatChanges(t *testing.T) {
	prev := snap([]string{"a.com"}, []string{"b.com"})
	curr := snap([]string{"a.com", "b.com", "c.com"}, []string{})

	cmp := Compare(&prev, curr)
	lines := cmp.FormatChanges()
	require.Len(t, lines, 2)
	assert.Contains(t, lines, "c.com added to in_scope")
	assert.Contains(t, lines, "b.com moved from out_of_scope to in_scope")
}
