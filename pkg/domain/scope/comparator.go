package scope

import (
	"fmt"
	"sort"
	"strings"
)

// ChangeType classifies one scope change.
type ChangeType string

const (
	ChangeTypeAdded    ChangeType = "added"
	ChangeTypeRemoved  ChangeType = "removed"
	ChangeTypeModified ChangeType = "modified"
)

// Category names the scope list a change belongs to.
type Category string

const (
	CategoryInScope    Category = "in_scope"
	CategoryOutOfScope Category = "out_of_scope"
)

// Change is one item of a scope comparison result. For a moved item the
// Details map carries the source and destination lists.
type Change struct {
	Type     ChangeType        `json:"type"`
	Item     string            `json:"item"`
	Category Category          `json:"category"`
	Details  map[string]string `json:"details,omitempty"`
}

// Comparison describes what changed between two consecutive snapshots.
// Additions, Removals and Modifications are disjoint partitions of Changes.
type Comparison struct {
	HasChanges    bool     `json:"has_changes"`
	IsFirstCheck  bool     `json:"is_first_check"`
	Changes       []Change `json:"changes"`
	Additions     []Change `json:"additions"`
	Removals      []Change `json:"removals"`
	Modifications []Change `json:"modifications"`
	UnchangedIn   []string `json:"unchanged_in_scope"`
	UnchangedOut  []string `json:"unchanged_out_of_scope"`

	PreviousChecksum string `json:"previous_checksum,omitempty"`
	CurrentChecksum  string `json:"current_checksum"`
}

// Summary returns a one-line human-readable description of the comparison.
func (c Comparison) Summary() string {
	if c.IsFirstCheck {
		return "first scope check, baseline recorded"
	}
	if !c.HasChanges {
		return "no scope changes detected"
	}
	return fmt.Sprintf("scope changed: %d added, %d removed, %d moved",
		len(c.Additions), len(c.Removals), len(c.Modifications))
}

// FormatChanges renders each change as a human-readable line, in the
// deterministic order of Changes.
func (c Comparison) FormatChanges() []string {
	lines := make([]string, 0, len(c.Changes))
	for _, ch := range c.Changes {
		switch ch.Type {
		case ChangeTypeModified:
			lines = append(lines, fmt.Sprintf("%s moved from %s to %s",
				ch.Item, ch.Details["from"], ch.Details["to"]))
		case ChangeTypeAdded:
			lines = append(lines, fmt.Sprintf("%s added to %s", ch.Item, ch.Category))
		case ChangeTypeRemoved:
			lines = append(lines, fmt.Sprintf("%s removed from %s", ch.Item, ch.Category))
		}
	}
	return lines
}

// Compare computes the three-way diff between the previous and current
// snapshot. A nil previous snapshot is the distinguished first-check case:
// no changes are produced but HasChanges is true so callers persist the
// baseline. Equal checksums short-circuit to an unchanged result without
// touching the lists.
//
// An item that switches lists between snapshots is reported as exactly one
// "modified" change, never as an addition plus a removal.
func Compare(previous *Snapshot, current Snapshot) Comparison {
	if previous == nil {
		return Comparison{
			HasChanges:      true,
			IsFirstCheck:    true,
			Changes:         []Change{},
			Additions:       []Change{},
			Removals:        []Change{},
			Modifications:   []Change{},
			UnchangedIn:     current.InScope(),
			UnchangedOut:    current.OutOfScope(),
			CurrentChecksum: current.Checksum(),
		}
	}

	cmp := Comparison{
		Changes:          []Change{},
		Additions:        []Change{},
		Removals:         []Change{},
		Modifications:    []Change{},
		PreviousChecksum: previous.Checksum(),
		CurrentChecksum:  current.Checksum(),
	}

	if previous.Checksum() == current.Checksum() {
		cmp.UnchangedIn = current.InScope()
		cmp.UnchangedOut = current.OutOfScope()
		return cmp
	}

	prevIn := toSet(previous.inScope)
	currIn := toSet(current.inScope)
	prevOut := toSet(previous.outOfScope)
	currOut := toSet(current.outOfScope)

	moved := make(map[string]struct{})

	// Moves first: an item entering in_scope that was previously
	// out_of_scope (and vice versa) is one modification.
	for _, item := range sortedDiff(currIn, prevIn) {
		if _, ok := prevOut[item]; ok {
			moved[item] = struct{}{}
			cmp.Modifications = append(cmp.Modifications, Change{
				Type:     ChangeTypeModified,
				Item:     item,
				Category: CategoryInScope,
				Details: map[string]string{
					"from": string(CategoryOutOfScope),
					"to":   string(CategoryInScope),
				},
			})
		}
	}
	for _, item := range sortedDiff(prevIn, currIn) {
		if _, ok := currOut[item]; ok {
			moved[item] = struct{}{}
			cmp.Modifications = append(cmp.Modifications, Change{
				Type:     ChangeTypeModified,
				Item:     item,
				Category: CategoryOutOfScope,
				Details: map[string]string{
					"from": string(CategoryInScope),
					"to":   string(CategoryOutOfScope),
				},
			})
		}
	}

	appendPlain := func(dst *[]Change, items []string, t ChangeType, cat Category) {
		for _, item := range items {
			if _, ok := moved[item]; ok {
				continue
			}
			*dst = append(*dst, Change{Type: t, Item: item, Category: cat})
		}
	}

	appendPlain(&cmp.Additions, sortedDiff(currIn, prevIn), ChangeTypeAdded, CategoryInScope)
	appendPlain(&cmp.Additions, sortedDiff(currOut, prevOut), ChangeTypeAdded, CategoryOutOfScope)
	appendPlain(&cmp.Removals, sortedDiff(prevIn, currIn), ChangeTypeRemoved, CategoryInScope)
	appendPlain(&cmp.Removals, sortedDiff(prevOut, currOut), ChangeTypeRemoved, CategoryOutOfScope)

	cmp.Changes = append(cmp.Changes, cmp.Additions...)
	cmp.Changes = append(cmp.Changes, cmp.Removals...)
	cmp.Changes = append(cmp.Changes, cmp.Modifications...)

	cmp.UnchangedIn = sortedIntersect(prevIn, currIn)
	cmp.UnchangedOut = sortedIntersect(prevOut, currOut)
	cmp.HasChanges = len(cmp.Changes) > 0

	return cmp
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// sortedDiff returns the members of a absent from b, sorted.
func sortedDiff(a, b map[string]struct{}) []string {
	var out []string
	for item := range a {
		if _, ok := b[item]; !ok {
			out = append(out, item)
		}
	}
	sort.Strings(out)
	return out
}

func sortedIntersect(a, b map[string]struct{}) []string {
	out := []string{}
	for item := range a {
		if _, ok := b[item]; ok {
			out = append(out, item)
		}
	}
	sort.Strings(out)
	return out
}

// DescribeChange renders one change for notification payloads.
func DescribeChange(ch Change) string {
	if ch.Type == ChangeTypeModified {
		return fmt.Sprintf("[moved] %s: %s -> %s", ch.Item, ch.Details["from"], ch.Details["to"])
	}
	return fmt.Sprintf("[%s] %s (%s)", ch.Type, ch.Item, strings.ReplaceAll(string(ch.Category), "_", " "))
}
