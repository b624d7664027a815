// Package asset provides the asset entity, probe-driven change detection
// and the scan decision policy.
package asset

import (
	"fmt"
	"strings"
	"time"

	"github.com/scopewatch/api/pkg/domain/shared"
)

// Type classifies the asset value.
type Type string

const (
	TypeSubdomain Type = "subdomain"
	TypeDomain    Type = "domain"
	TypeIP        Type = "ip"
	TypeURL       Type = "url"
)

// String returns the string representation of the asset type.
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the asset type is valid.
func (t Type) IsValid() bool {
	switch t {
	case TypeSubdomain, TypeDomain, TypeIP, TypeURL:
		return true
	}
	return false
}

// ParseType parses a string into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(s))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: invalid asset type %q", shared.ErrValidation, s)
	}
	return t, nil
}

// Asset is one observed network asset of a program, identified by
// (program id, normalized value). Observed state is mutated exclusively
// through the change detector; updatedAt advances only on a material
// change, never on a no-op re-probe.
type Asset struct {
	id        shared.ID
	programID shared.ID
	assetType Type
	value     string

	isAlive       bool
	inScope       bool
	httpStatus    *int
	contentLength *int64
	pageTitle     *string
	technologies  []string
	responseHash  *string
	resolvedIPs   []string

	firstSeen time.Time
	lastSeen  time.Time
	updatedAt time.Time
}

// NewAsset creates a new asset for a program.
func NewAsset(programID shared.ID, assetType Type, value string) (*Asset, error) {
	if programID.IsZero() {
		return nil, fmt.Errorf("%w: program id is required", shared.ErrValidation)
	}
	if !assetType.IsValid() {
		return nil, fmt.Errorf("%w: invalid asset type %q", shared.ErrValidation, assetType)
	}
	value = NormalizeValue(value)
	if value == "" {
		return nil, fmt.Errorf("%w: value is required", shared.ErrValidation)
	}

	now := time.Now().UTC()
	return &Asset{
		id:        shared.NewID(),
		programID: programID,
		assetType: assetType,
		value:     value,
		isAlive:   true,
		inScope:   true,
		firstSeen: now,
		lastSeen:  now,
		updatedAt: now,
	}, nil
}

// Reconstitute rebuilds an Asset from persistence without validation.
func Reconstitute(
	id, programID shared.ID,
	assetType Type,
	value string,
	isAlive, inScope bool,
	httpStatus *int,
	contentLength *int64,
	pageTitle *string,
	technologies []string,
	responseHash *string,
	resolvedIPs []string,
	firstSeen, lastSeen, updatedAt time.Time,
) *Asset {
	return &Asset{
		id:            id,
		programID:     programID,
		assetType:     assetType,
		value:         value,
		isAlive:       isAlive,
		inScope:       inScope,
		httpStatus:    httpStatus,
		contentLength: contentLength,
		pageTitle:     pageTitle,
		technologies:  technologies,
		responseHash:  responseHash,
		resolvedIPs:   resolvedIPs,
		firstSeen:     firstSeen,
		lastSeen:      lastSeen,
		updatedAt:     updatedAt,
	}
}

// NormalizeValue canonicalizes an asset value the same way scope rules
// are normalized: scheme and trailing slash stripped, lowercased.
func NormalizeValue(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "https://")
	value = strings.TrimPrefix(value, "http://")
	value = strings.TrimSuffix(value, "/")
	return strings.ToLower(value)
}

func (a *Asset) ID() shared.ID          { return a.id }
func (a *Asset) ProgramID() shared.ID   { return a.programID }
func (a *Asset) Type() Type             { return a.assetType }
func (a *Asset) Value() string          { return a.value }
func (a *Asset) IsAlive() bool          { return a.isAlive }
func (a *Asset) InScope() bool          { return a.inScope }
func (a *Asset) HTTPStatus() *int       { return a.httpStatus }
func (a *Asset) ContentLength() *int64  { return a.contentLength }
func (a *Asset) PageTitle() *string     { return a.pageTitle }
func (a *Asset) Technologies() []string { return a.technologies }
func (a *Asset) ResponseHash() *string  { return a.responseHash }
func (a *Asset) ResolvedIPs() []string  { return a.resolvedIPs }
func (a *Asset) FirstSeen() time.Time   { return a.firstSeen }
func (a *Asset) LastSeen() time.Time    { return a.lastSeen }
func (a *Asset) UpdatedAt() time.Time   { return a.updatedAt }

// MarkSeen records an observation without a material change.
func (a *Asset) MarkSeen(at time.Time) {
	if at.After(a.lastSeen) {
		a.lastSeen = at
	}
}

// SetAlive flags liveness as reported by probing tooling.
func (a *Asset) SetAlive(alive bool) {
	a.isAlive = alive
}

// SetInScope records the current scope classification. Scope membership
// is derived from the program's scope, not from probing, so it does not
// advance updatedAt.
func (a *Asset) SetInScope(inScope bool) {
	a.inScope = inScope
}
