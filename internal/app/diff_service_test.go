package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopewatch/api/internal/infra/notification"
	"github.com/scopewatch/api/pkg/domain/asset"
	"github.com/scopewatch/api/pkg/domain/shared"
	"github.com/scopewatch/api/pkg/logger"
)

func newDiffFixture() (*DiffService, *fakeAssetRepo, *fakeChangeRepo, *fakeNotifier) {
	assets := newFakeAssetRepo()
	changes := newFakeChangeRepo()
	notifier := &fakeNotifier{}
	alerts := NewAlertService([]notification.Client{notifier}, logger.NewNop())
	svc := NewDiffService(assets, changes, alerts, logger.NewNop())
	return svc, assets, changes, notifier
}

func TestCompareAndUpdate_NewAsset(t *testing.T) {
	svc, _, changes, notifier := newDiffFixture()
	programID := shared.NewID()

	res, err := svc.CompareAndUpdate(context.Background(), CompareAndUpdateInput{
		ProgramID: programID.String(),
		AssetType: "subdomain",
		Value:     "api.example.com",
		Probe: asset.ProbeRecord{
			StatusCode:   asset.IntPtr(200),
			Technologies: []string{"nginx"},
		},
	})
	require.NoError(t, err)

	assert.True(t, res.IsNew)
	assert.Empty(t, res.ChangedFields)
	assert.Equal(t, 200, *res.Asset.HTTPStatus())

	// one lifecycle record, no field records
	recorded, err := changes.ListByAsset(context.Background(), res.Asset.ID(), 10)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, asset.ChangeTypeNew, recorded[0].Type())

	sent := notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "New asset discovered", sent[0].Title)
}

func TestCompareAndUpdate_DetectsFieldChanges(t *testing.T) {
	svc, _, changes, notifier := newDiffFixture()
	programID := shared.NewID()
	ctx := context.Background()

	first, err := svc.CompareAndUpdate(ctx, CompareAndUpdateInput{
		ProgramID: programID.String(),
		AssetType: "subdomain",
		Value:     "api.example.com",
		Probe: asset.ProbeRecord{
			StatusCode: asset.IntPtr(200),
			Title:      asset.StringPtr("Welcome"),
		},
	})
	require.NoError(t, err)
	require.True(t, first.IsNew)

	res, err := svc.CompareAndUpdate(ctx, CompareAndUpdateInput{
		ProgramID: programID.String(),
		AssetType: "subdomain",
		Value:     "api.example.com",
		Probe: asset.ProbeRecord{
			StatusCode: asset.IntPtr(503),
			Title:      asset.StringPtr("Maintenance"),
		},
	})
	require.NoError(t, err)

	assert.False(t, res.IsNew)
	assert.ElementsMatch(t, []string{asset.FieldHTTPStatus, asset.FieldPageTitle}, res.ChangedFields)

	recorded, err := changes.ListByAsset(ctx, res.Asset.ID(), 10)
	require.NoError(t, err)
	assert.Len(t, recorded, 3) // lifecycle + two field changes

	// new-asset alert plus changed-asset alert
	assert.Len(t, notifier.sent(), 2)
}

func TestCompareAndUpdate_Idempotent(t *testing.T) {
	svc, _, changes, _ := newDiffFixture()
	programID := shared.NewID()
	ctx := context.Background()

	input := CompareAndUpdateInput{
		ProgramID: programID.String(),
		AssetType: "subdomain",
		Value:     "api.example.com",
		Probe: asset.ProbeRecord{
			StatusCode:    asset.IntPtr(200),
			ContentLength: asset.Int64Ptr(1000),
		},
	}

	first, err := svc.CompareAndUpdate(ctx, input)
	require.NoError(t, err)
	require.True(t, first.IsNew)

	second, err := svc.CompareAndUpdate(ctx, input)
	require.NoError(t, err)
	assert.False(t, second.IsNew)
	assert.Empty(t, second.ChangedFields)

	recorded, err := changes.ListByAsset(ctx, first.Asset.ID(), 10)
	require.NoError(t, err)
	assert.Len(t, recorded, 1, "re-running with identical data must not duplicate change records")
}

func TestCompareAndUpdate_NormalizesValue(t *testing.T) {
	svc, _, _, _ := newDiffFixture()
	programID := shared.NewID()
	ctx := context.Background()

	first, err := svc.CompareAndUpdate(ctx, CompareAndUpdateInput{
		ProgramID: programID.String(),
		AssetType: "url",
		Value:     "https://API.example.com/",
		Probe:     asset.ProbeRecord{StatusCode: asset.IntPtr(200)},
	})
	require.NoError(t, err)
	assert.Equal(t, "api.example.com", first.Asset.Value())

	second, err := svc.CompareAndUpdate(ctx, CompareAndUpdateInput{
		ProgramID: programID.String(),
		AssetType: "url",
		Value:     "api.example.com",
		Probe:     asset.ProbeRecord{StatusCode: asset.IntPtr(200)},
	})
	require.NoError(t, err)
	assert.False(t, second.IsNew, "different spellings of the same value are one asset")
}

func TestCompareAndUpdate_RejectsBadInput(t *testing.T) {
	svc, _, _, _ := newDiffFixture()

	_, err := svc.CompareAndUpdate(context.Background(), CompareAndUpdateInput{
		ProgramID: "not-a-uuid",
		AssetType: "subdomain",
		Value:     "api.example.com",
	})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	_, err = svc.CompareAndUpdate(context.Background(), CompareAndUpdateInput{
		ProgramID: shared.NewID().String(),
		AssetType: "satellite",
		Value:     "api.example.com",
	})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestBuildScanQueue(t *testing.T) {
	svc, assets, _, _ := newDiffFixture()
	programID := shared.NewID()
	ctx := context.Background()

	// a brand-new asset is due for its first scan
	a, err := asset.NewAsset(programID, asset.TypeSubdomain, "fresh.example.com")
	require.NoError(t, err)
	require.NoError(t, assets.Create(ctx, a))

	due, err := svc.BuildScanQueue(ctx, programID, false)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "fresh.example.com", due[0].Value())
}
