package scope

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Snapshot is a point-in-time scope definition for a program. It is
// immutable once constructed; the metadata fields identify the program
// for presentation and never participate in comparison.
type Snapshot struct {
	inScope    []string
	outOfScope []string
	checksum   string

	platform      string
	programHandle string
	programName   string
	programURL    string
}

// SnapshotMeta carries the identifying metadata of a snapshot.
type SnapshotMeta struct {
	Platform      string
	ProgramHandle string
	ProgramName   string
	ProgramURL    string
}

// NewSnapshot builds a Snapshot from raw scope lists. Entries are
// normalized and deduplicated; the checksum is computed over the sorted
// lists so that ordering never affects equality.
func NewSnapshot(inScope, outOfScope []string, meta SnapshotMeta) Snapshot {
	in := normalizeList(inScope)
	out := normalizeList(outOfScope)
	return Snapshot{
		inScope:       in,
		outOfScope:    out,
		checksum:      computeChecksum(in, out),
		platform:      meta.Platform,
		programHandle: meta.ProgramHandle,
		programName:   meta.ProgramName,
		programURL:    meta.ProgramURL,
	}
}

// InScope returns a copy of the in-scope entries.
func (s Snapshot) InScope() []string {
	return append([]string(nil), s.inScope...)
}

// OutOfScope returns a copy of the out-of-scope entries.
func (s Snapshot) OutOfScope() []string {
	return append([]string(nil), s.outOfScope...)
}

// Checksum returns the order-insensitive digest of both scope lists.
func (s Snapshot) Checksum() string {
	return s.checksum
}

func (s Snapshot) Platform() string      { return s.platform }
func (s Snapshot) ProgramHandle() string { return s.programHandle }
func (s Snapshot) ProgramName() string   { return s.programName }
func (s Snapshot) ProgramURL() string    { return s.programURL }

// IsEmpty reports whether the snapshot carries no scope entries at all.
func (s Snapshot) IsEmpty() bool {
	return len(s.inScope) == 0 && len(s.outOfScope) == 0
}

func normalizeList(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		n := Normalize(e)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func computeChecksum(inScope, outOfScope []string) string {
	in := append([]string(nil), inScope...)
	out := append([]string(nil), outOfScope...)
	sort.Strings(in)
	sort.Strings(out)

	h := sha256.New()
	h.Write([]byte(strings.Join(in, "\n")))
	h.Write([]byte("\n--\n"))
	h.Write([]byte(strings.Join(out, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}
