package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopewatch/api/internal/infra/notification"
	"github.com/scopewatch/api/internal/infra/platform"
	"github.com/scopewatch/api/pkg/domain/asset"
	"github.com/scopewatch/api/pkg/domain/program"
	"github.com/scopewatch/api/pkg/domain/scope"
	"github.com/scopewatch/api/pkg/domain/shared"
	"github.com/scopewatch/api/pkg/logger"
)

type monitorFixture struct {
	svc      *MonitorService
	programs *fakeProgramRepo
	assets   *fakeAssetRepo
	history  *fakeHistoryRepo
	cache    *fakeCache
	fetcher  *fakeFetcher
	notifier *fakeNotifier
}

func newMonitorFixture(t *testing.T, snapshot scope.Snapshot) (*monitorFixture, *program.Program) {
	t.Helper()

	p, err := program.New(program.PlatformHackerOne, "acme", "Acme Corp", "https://hackerone.com/acme")
	require.NoError(t, err)

	programs := newFakeProgramRepo()
	require.NoError(t, programs.Create(context.Background(), p))

	fetcher := &fakeFetcher{platform: program.PlatformHackerOne, snapshot: snapshot}
	registry := platform.NewRegistry()
	registry.Register(fetcher)

	assets := newFakeAssetRepo()
	history := newFakeHistoryRepo()
	cache := newFakeCache()
	notifier := &fakeNotifier{}
	alerts := NewAlertService([]notification.Client{notifier}, logger.NewNop())

	svc := NewMonitorService(programs, assets, history, registry, cache, alerts, 2, logger.NewNop())

	return &monitorFixture{
		svc:      svc,
		programs: programs,
		assets:   assets,
		history:  history,
		cache:    cache,
		fetcher:  fetcher,
		notifier: notifier,
	}, p
}

func monitorSnap(in, out []string) scope.Snapshot {
	return scope.NewSnapshot(in, out, scope.SnapshotMeta{
		Platform:      "hackerone",
		ProgramHandle: "acme",
	})
}

func TestCheckProgram_FirstCheckRecordsBaseline(t *testing.T) {
	fx, p := newMonitorFixture(t, monitorSnap([]string{"example.com"}, []string{"test.example.com"}))
	ctx := context.Background()

	res, err := fx.svc.CheckProgram(ctx, p.ID())
	require.NoError(t, err)

	assert.True(t, res.Comparison.IsFirstCheck)
	assert.True(t, res.Comparison.HasChanges)
	assert.Empty(t, res.Comparison.Changes)

	// baseline persisted, program scope updated, no alert sent
	latest, err := fx.history.Latest(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com"}, latest.InScope())

	stored, err := fx.programs.GetByID(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com"}, stored.InScope())
	assert.NotNil(t, stored.LastScopeCheck())

	assert.Empty(t, fx.notifier.sent(), "first check must not alert")
}

func TestCheckProgram_UnchangedScope(t *testing.T) {
	fx, p := newMonitorFixture(t, monitorSnap([]string{"example.com"}, nil))
	ctx := context.Background()

	_, err := fx.svc.CheckProgram(ctx, p.ID())
	require.NoError(t, err)

	// second run fetches the same scope; the cache short-circuits it
	res, err := fx.svc.CheckProgram(ctx, p.ID())
	require.NoError(t, err)
	assert.True(t, res.SkippedByCache)
	assert.False(t, res.Comparison.HasChanges)
	assert.Equal(t, 2, fx.fetcher.calls)

	rows, err := fx.history.ListByProgram(ctx, p.ID(), 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "unchanged scope must not grow the history")
}

func TestCheckProgram_ScopeChangeAlertsAndRevalidates(t *testing.T) {
	fx, p := newMonitorFixture(t, monitorSnap([]string{"example.com"}, []string{"internal.example.com"}))
	ctx := context.Background()

	_, err := fx.svc.CheckProgram(ctx, p.ID())
	require.NoError(t, err)

	// two known assets, one about to fall out of scope
	a1, err := asset.NewAsset(p.ID(), asset.TypeSubdomain, "api.example.com")
	require.NoError(t, err)
	require.NoError(t, fx.assets.Create(ctx, a1))
	a2, err := asset.NewAsset(p.ID(), asset.TypeSubdomain, "api.other.net")
	require.NoError(t, err)
	require.NoError(t, fx.assets.Create(ctx, a2))

	// scope shrinks: other.net support is dropped entirely
	fx.fetcher.snapshot = monitorSnap([]string{"example.com"}, []string{"internal.example.com", "api.other.net"})

	res, err := fx.svc.CheckProgram(ctx, p.ID())
	require.NoError(t, err)
	assert.False(t, res.Comparison.IsFirstCheck)
	assert.True(t, res.Comparison.HasChanges)
	assert.Equal(t, 2, res.Revalidated)
	assert.Equal(t, 1, res.ScopeFlipped)

	flipped, err := fx.assets.GetByValue(ctx, p.ID(), "api.other.net")
	require.NoError(t, err)
	assert.False(t, flipped.InScope())

	kept, err := fx.assets.GetByValue(ctx, p.ID(), "api.example.com")
	require.NoError(t, err)
	assert.True(t, kept.InScope())

	sent := fx.notifier.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Title, "Scope change")
}

func TestCheckProgram_UnknownProgram(t *testing.T) {
	fx, _ := newMonitorFixture(t, monitorSnap([]string{"example.com"}, nil))

	_, err := fx.svc.CheckProgram(context.Background(), shared.NewID())
	require.Error(t, err)
}

func TestCheckAll_SkipsFailingProgram(t *testing.T) {
	fx, p := newMonitorFixture(t, monitorSnap([]string{"example.com"}, nil))
	ctx := context.Background()

	// a second program on a platform with no registered fetcher
	p2, err := program.New(program.PlatformBugcrowd, "beta", "Beta", "")
	require.NoError(t, err)
	require.NoError(t, fx.programs.Create(ctx, p2))

	results, err := fx.svc.CheckAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, p.ID(), results[0].ProgramID)
}

func TestValidateValue(t *testing.T) {
	fx, p := newMonitorFixture(t, monitorSnap([]string{"example.com"}, []string{"admin.example.com"}))
	ctx := context.Background()

	_, err := fx.svc.CheckProgram(ctx, p.ID())
	require.NoError(t, err)

	r, err := fx.svc.ValidateValue(ctx, p.ID(), "api.example.com")
	require.NoError(t, err)
	assert.True(t, r.InScope)
	assert.Equal(t, "subdomain of in-scope domain", r.Reason)

	r, err = fx.svc.ValidateValue(ctx, p.ID(), "admin.example.com")
	require.NoError(t, err)
	assert.False(t, r.InScope)
}
