package asset

import "time"

// Scan decision reasons. Machine-checkable: callers and metrics key on
// these exact strings.
const (
	ReasonForced           = "forced"
	ReasonNewAsset         = "new asset (first scan)"
	ReasonRecentlyModified = "recently modified"
	ReasonNotAlive         = "asset is no longer alive"
	ReasonPeriodic         = "periodic scan (24h)"
	ReasonNoChanges        = "no changes detected, skip scan"
)

const (
	newAssetWindow   = 5 * time.Minute
	modifiedWindow   = time.Hour
	periodicInterval = 24 * time.Hour
)

// Decision is the scan policy's answer for one asset.
type Decision struct {
	Scan   bool   `json:"scan"`
	Reason string `json:"reason"`
}

// Decide returns whether the asset should be (re)scanned this cycle.
// Pure function of its inputs; rules are evaluated in order, first match
// wins:
//
//  1. forced
//  2. first seen within 5 minutes (brand-new assets always get an
//     initial full pass, even when not alive yet)
//  3. updated within the last hour
//  4. not alive
//  5. last seen more than 24 hours ago
//  6. otherwise skip
func Decide(now time.Time, a *Asset, force bool) Decision {
	if force {
		return Decision{Scan: true, Reason: ReasonForced}
	}
	if now.Sub(a.FirstSeen()) < newAssetWindow {
		return Decision{Scan: true, Reason: ReasonNewAsset}
	}
	if now.Sub(a.UpdatedAt()) < modifiedWindow {
		return Decision{Scan: true, Reason: ReasonRecentlyModified}
	}
	if !a.IsAlive() {
		return Decision{Scan: false, Reason: ReasonNotAlive}
	}
	if now.Sub(a.LastSeen()) > periodicInterval {
		return Decision{Scan: true, Reason: ReasonPeriodic}
	}
	return Decision{Scan: false, Reason: ReasonNoChanges}
}
