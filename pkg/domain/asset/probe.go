package asset

import (
	"crypto/sha256"
	"encoding/hex"
)

// ProbeRecord is the normalized output of HTTP-probing tooling for one
// host. Nil pointer and nil slice fields mean "not reported this pass";
// only reported fields participate in change detection.
type ProbeRecord struct {
	Host          string   `json:"host"`
	StatusCode    *int     `json:"status_code,omitempty"`
	ContentLength *int64   `json:"content_length,omitempty"`
	Title         *string  `json:"title,omitempty"`
	Technologies  []string `json:"technologies,omitempty"`
	ResponseHash  *string  `json:"response_hash,omitempty"`
	ResolvedIPs   []string `json:"resolved_ips,omitempty"`
	IsAlive       *bool    `json:"is_alive,omitempty"`
}

// ComputeResponseHash returns the content digest probing tooling should
// attach to probe records. The detector compares these digests, so every
// producer must use this same function.
func ComputeResponseHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// IntPtr returns a pointer to v. Convenience for building probe records.
func IntPtr(v int) *int { return &v }

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }

// StringPtr returns a pointer to v.
func StringPtr(v string) *string { return &v }

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool { return &v }
