package asset

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Field names used in change records.
const (
	FieldHTTPStatus    = "http_status"
	FieldContentLength = "content_length"
	FieldTechnologies  = "technologies"
	FieldPageTitle     = "page_title"
	FieldResponseHash  = "response_hash"
	FieldResolvedIPs   = "resolved_ips"
)

// contentLengthThreshold is the relative delta above which a content
// length difference counts as a change. Below it, byte-level response
// jitter (timestamps, tokens) is treated as noise.
const contentLengthThreshold = 0.10

// FieldChange is one detected field transition. Old and New carry the
// serialized values for the change log; Added and Removed are populated
// for set-valued fields for operator visibility.
type FieldChange struct {
	Field   string
	Old     *string
	New     *string
	Added   []string
	Removed []string
}

// DetectChanges compares a stored asset against a fresh probe record and
// returns the materially changed fields. Fields absent from the probe
// record do not participate; the stored values are always the baseline.
// The asset is not mutated.
func DetectChanges(a *Asset, probe ProbeRecord) []FieldChange {
	var changes []FieldChange

	if probe.StatusCode != nil {
		if a.httpStatus == nil || *a.httpStatus != *probe.StatusCode {
			changes = append(changes, FieldChange{
				Field: FieldHTTPStatus,
				Old:   intStr(a.httpStatus),
				New:   intStr(probe.StatusCode),
			})
		}
	}

	if probe.ContentLength != nil {
		if contentLengthChanged(a.contentLength, *probe.ContentLength) {
			changes = append(changes, FieldChange{
				Field: FieldContentLength,
				Old:   int64Str(a.contentLength),
				New:   int64Str(probe.ContentLength),
			})
		}
	}

	if probe.Technologies != nil {
		if added, removed, changed := setDelta(a.technologies, probe.Technologies); changed {
			changes = append(changes, FieldChange{
				Field:   FieldTechnologies,
				Old:     setStr(a.technologies),
				New:     setStr(probe.Technologies),
				Added:   added,
				Removed: removed,
			})
		}
	}

	if probe.Title != nil {
		if a.pageTitle == nil || *a.pageTitle != *probe.Title {
			changes = append(changes, FieldChange{
				Field: FieldPageTitle,
				Old:   a.pageTitle,
				New:   probe.Title,
			})
		}
	}

	// hash transitions to or from unknown are not reported; tooling
	// without hash support on one pass would otherwise flood the log
	if probe.ResponseHash != nil && a.responseHash != nil && *a.responseHash != *probe.ResponseHash {
		changes = append(changes, FieldChange{
			Field: FieldResponseHash,
			Old:   a.responseHash,
			New:   probe.ResponseHash,
		})
	}

	if probe.ResolvedIPs != nil {
		if added, removed, changed := setDelta(a.resolvedIPs, probe.ResolvedIPs); changed {
			changes = append(changes, FieldChange{
				Field:   FieldResolvedIPs,
				Old:     setStr(a.resolvedIPs),
				New:     setStr(probe.ResolvedIPs),
				Added:   added,
				Removed: removed,
			})
		}
	}

	return changes
}

// ApplyProbe detects changes, then applies the probe to the asset:
// reported fields are overwritten, lastSeen advances, and updatedAt
// advances only when at least one field materially changed. Re-running
// with the same probe yields no further changes.
func ApplyProbe(a *Asset, probe ProbeRecord, now time.Time) []FieldChange {
	changes := DetectChanges(a, probe)
	setProbeFields(a, probe)
	a.MarkSeen(now)
	if len(changes) > 0 {
		a.updatedAt = now
	}
	return changes
}

// InitializeFromProbe populates a brand-new asset from its first probe
// record. No comparison is performed and no changes are reported.
func InitializeFromProbe(a *Asset, probe ProbeRecord, now time.Time) {
	setProbeFields(a, probe)
	a.MarkSeen(now)
}

func setProbeFields(a *Asset, probe ProbeRecord) {
	if probe.StatusCode != nil {
		v := *probe.StatusCode
		a.httpStatus = &v
	}
	if probe.ContentLength != nil {
		v := *probe.ContentLength
		a.contentLength = &v
	}
	if probe.Title != nil {
		v := *probe.Title
		a.pageTitle = &v
	}
	if probe.Technologies != nil {
		a.technologies = sortedCopy(probe.Technologies)
	}
	if probe.ResponseHash != nil {
		v := *probe.ResponseHash
		a.responseHash = &v
	}
	if probe.ResolvedIPs != nil {
		a.resolvedIPs = sortedCopy(probe.ResolvedIPs)
	}
	if probe.IsAlive != nil {
		a.isAlive = *probe.IsAlive
	}
}

// contentLengthChanged applies the relative threshold: only a non-zero
// baseline can produce a change, and the delta must exceed 10% of it.
func contentLengthChanged(old *int64, curr int64) bool {
	if old == nil || *old == 0 {
		return false
	}
	delta := curr - *old
	if delta < 0 {
		delta = -delta
	}
	return float64(delta)/float64(*old) > contentLengthThreshold
}

func setDelta(old, curr []string) (added, removed []string, changed bool) {
	oldSet := make(map[string]struct{}, len(old))
	for _, v := range old {
		oldSet[v] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(curr))
	for _, v := range curr {
		newSet[v] = struct{}{}
	}
	for v := range newSet {
		if _, ok := oldSet[v]; !ok {
			added = append(added, v)
		}
	}
	for v := range oldSet {
		if _, ok := newSet[v]; !ok {
			removed = append(removed, v)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed, len(added) > 0 || len(removed) > 0
}

// setStr serializes a set field for the change log: sorted, comma-joined.
func setStr(values []string) *string {
	sorted := sortedCopy(values)
	s := strings.Join(sorted, ",")
	return &s
}

func sortedCopy(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}

func intStr(v *int) *string {
	if v == nil {
		return nil
	}
	s := strconv.Itoa(*v)
	return &s
}

func int64Str(v *int64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatInt(*v, 10)
	return &s
}
