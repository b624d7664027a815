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
	hackerOneBaseURL = "https://hackerone.com"
	hackerOneAPIURL  = "https://api.hackerone.com/v1"
)

// HackerOneFetcher fetches program scope via the HackerOne API.
type HackerOneFetcher struct {
	username   string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Logger
}

// NewHackerOneFetcher creates a HackerOne scope fetcher.
func NewHackerOneFetcher(cfg config.PlatformsConfig, log *logger.Logger) *HackerOneFetcher {
	return &HackerOneFetcher{
		username: cfg.HackerOneUsername,
		token:    cfg.HackerOneToken,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		log:     log.With("fetcher", "hackerone"),
	}
}

// Platform returns the platform this fetcher serves.
func (f *HackerOneFetcher) Platform() program.Platform {
	return program.PlatformHackerOne
}

// hackerOneProgram is the subset of the program API response we consume.
type hackerOneProgram struct {
	Data struct {
		Attributes struct {
			Name       string            `json:"name"`
			InScope    []hackerOneTarget `json:"in_scope"`
			OutOfScope []hackerOneTarget `json:"out_of_scope"`
		} `json:"attributes"`
	} `json:"data"`
}

type hackerOneTarget struct {
	AssetType       string `json:"asset_type"`
	AssetIdentifier string `json:"asset_identifier"`
}

// FetchScope returns the current scope definition for the handle.
func (f *HackerOneFetcher) FetchScope(ctx context.Context, handle string) (scope.Snapshot, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return scope.Snapshot{}, err
	}

	url := fmt.Sprintf("%s/hackers/programs/%s", hackerOneAPIURL, handle)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return scope.Snapshot{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.username != "" && f.token != "" {
		req.SetBasicAuth(f.username, f.token)
	}

	f.log.Debug("fetching scope", "handle", handle)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return scope.Snapshot{}, fmt.Errorf("fetch hackerone scope for %s: %w", handle, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return scope.Snapshot{}, fmt.Errorf("read hackerone response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return scope.Snapshot{}, fmt.Errorf("hackerone returned status %d for %s", resp.StatusCode, handle)
	}

	var parsed hackerOneProgram
	if err := json.Unmarshal(body, &parsed); err != nil {
		return scope.Snapshot{}, fmt.Errorf("decode hackerone response: %w", err)
	}

	attrs := parsed.Data.Attributes
	inScope := make([]string, 0, len(attrs.InScope))
	for _, t := range attrs.InScope {
		if t.AssetIdentifier != "" {
			inScope = append(inScope, t.AssetIdentifier)
		}
	}
	outOfScope := make([]string, 0, len(attrs.OutOfScope))
	for _, t := range attrs.OutOfScope {
		if t.AssetIdentifier != "" {
			outOfScope = append(outOfScope, t.AssetIdentifier)
		}
	}

	name := attrs.Name
	if name == "" {
		name = handle
	}

	return scope.NewSnapshot(inScope, outOfScope, scope.SnapshotMeta{
		Platform:      program.PlatformHackerOne.String(),
		ProgramHandle: handle,
		ProgramName:   name,
		ProgramURL:    fmt.Sprintf("%s/%s", hackerOneBaseURL, handle),
	}), nil
}

var _ Fetcher = (*HackerOneFetcher)(nil)
