package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/scopewatch/api/internal/config"
	"github.com/scopewatch/api/pkg/domain/program"
	"github.com/scopewatch/api/pkg/domain/scope"
	"github.com/scopewatch/api/pkg/logger"
)

const (
	bugcrowdBaseURL = "https://bugcrowd.com"
	bugcrowdAPIURL  = "https://api.bugcrowd.com"
)

// BugcrowdFetcher fetches program scope via the Bugcrowd API.
type BugcrowdFetcher struct {
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Logger
}

// NewBugcrowdFetcher creates a Bugcrowd scope fetcher.
func NewBugcrowdFetcher(cfg config.PlatformsConfig, log *logger.Logger) *BugcrowdFetcher {
	return &BugcrowdFetcher{
		token: cfg.BugcrowdToken,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		log:     log.With("fetcher", "bugcrowd"),
	}
}

// Platform returns the platform this fetcher serves.
func (f *BugcrowdFetcher) Platform() program.Platform {
	return program.PlatformBugcrowd
}

// bugcrowdProgram is the subset of the program API response we consume.
type bugcrowdProgram struct {
	Name    string           `json:"name"`
	Targets []bugcrowdTarget `json:"targets"`
}

type bugcrowdTarget struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	InScope  *bool  `json:"in_scope"`
}

// FetchScope returns the current scope definition for the handle.
func (f *BugcrowdFetcher) FetchScope(ctx context.Context, handle string) (scope.Snapshot, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return scope.Snapshot{}, err
	}

	url := fmt.Sprintf("%s/programs/%s", bugcrowdAPIURL, handle)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return scope.Snapshot{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Token "+f.token)
	}

	f.log.Debug("fetching scope", "handle", handle)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return scope.Snapshot{}, fmt.Errorf("fetch bugcrowd scope for %s: %w", handle, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return scope.Snapshot{}, fmt.Errorf("read bugcrowd response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return scope.Snapshot{}, fmt.Errorf("bugcrowd returned status %d for %s", resp.StatusCode, handle)
	}

	var parsed bugcrowdProgram
	if err := json.Unmarshal(body, &parsed); err != nil {
		return scope.Snapshot{}, fmt.Errorf("decode bugcrowd response: %w", err)
	}

	var inScope, outOfScope []string
	for _, t := range parsed.Targets {
		if t.Name == "" {
			continue
		}
		// targets without an explicit flag are treated as in scope
		if t.InScope == nil || *t.InScope {
			inScope = append(inScope, t.Name)
		} else {
			outOfScope = append(outOfScope, t.Name)
		}
	}

	name := parsed.Name
	if name == "" {
		name = handle
	}

	return scope.NewSnapshot(inScope, outOfScope, scope.SnapshotMeta{
		Platform:      program.PlatformBugcrowd.String(),
		ProgramHandle: handle,
		ProgramName:   name,
		ProgramURL:    fmt.Sprintf("%s/%s", bugcrowdBaseURL, handle),
	}), nil
}

var _ Fetcher = (*BugcrowdFetcher)(nil)
