// Package program provides the monitored bug-bounty program entity.
package program

import (
	"fmt"
	"strings"
	"time"

	"github.com/scopewatch/api/pkg/domain/shared"
)

// Platform identifies the bug-bounty platform hosting a program.
type Platform string

const (
	PlatformHackerOne Platform = "hackerone"
	PlatformBugcrowd  Platform = "bugcrowd"
)

// String returns the string representation of the platform.
func (p Platform) String() string {
	return string(p)
}

// IsValid returns true if the platform is valid.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformHackerOne, PlatformBugcrowd:
		return true
	}
	return false
}

// ParsePlatform parses a string into a Platform.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(s))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: invalid platform %q", shared.ErrValidation, s)
	}
	return p, nil
}

// Program is a monitored bug-bounty program. Its scope lists hold the
// most recently fetched snapshot; the authoritative check history lives
// in the scope history log.
type Program struct {
	id       shared.ID
	platform Platform
	handle   string
	name     string
	url      string

	inScope    []string
	outOfScope []string

	isActive       bool
	lastScopeCheck *time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

// New creates a new monitored program.
func New(platform Platform, handle, name, url string) (*Program, error) {
	if !platform.IsValid() {
		return nil, fmt.Errorf("%w: invalid platform %q", shared.ErrValidation, platform)
	}
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, fmt.Errorf("%w: handle is required", shared.ErrValidation)
	}
	if name == "" {
		name = handle
	}

	now := time.Now().UTC()
	return &Program{
		id:        shared.NewID(),
		platform:  platform,
		handle:    handle,
		name:      name,
		url:       url,
		isActive:  true,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstitute rebuilds a Program from persistence without validation.
func Reconstitute(
	id shared.ID,
	platform Platform,
	handle, name, url string,
	inScope, outOfScope []string,
	isActive bool,
	lastScopeCheck *time.Time,
	createdAt, updatedAt time.Time,
) *Program {
	return &Program{
		id:             id,
		platform:       platform,
		handle:         handle,
		name:           name,
		url:            url,
		inScope:        inScope,
		outOfScope:     outOfScope,
		isActive:       isActive,
		lastScopeCheck: lastScopeCheck,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (p *Program) ID() shared.ID              { return p.id }
func (p *Program) Platform() Platform         { return p.platform }
func (p *Program) Handle() string             { return p.handle }
func (p *Program) Name() string               { return p.name }
func (p *Program) URL() string                { return p.url }
func (p *Program) InScope() []string          { return p.inScope }
func (p *Program) OutOfScope() []string       { return p.outOfScope }
func (p *Program) IsActive() bool             { return p.isActive }
func (p *Program) LastScopeCheck() *time.Time { return p.lastScopeCheck }
func (p *Program) CreatedAt() time.Time       { return p.createdAt }
func (p *Program) UpdatedAt() time.Time       { return p.updatedAt }

// UpdateScope stores the latest fetched scope lists and stamps the check.
func (p *Program) UpdateScope(inScope, outOfScope []string, checkedAt time.Time) {
	p.inScope = inScope
	p.outOfScope = outOfScope
	p.lastScopeCheck = &checkedAt
	p.updatedAt = time.Now().UTC()
}

// MarkChecked stamps a scope check that found no changes.
func (p *Program) MarkChecked(checkedAt time.Time) {
	p.lastScopeCheck = &checkedAt
}

// Activate resumes monitoring.
func (p *Program) Activate() {
	p.isActive = true
	p.updatedAt = time.Now().UTC()
}

// Deactivate pauses monitoring without deleting history.
func (p *Program) Deactivate() {
	p.isActive = false
	p.updatedAt = time.Now().UTC()
}
