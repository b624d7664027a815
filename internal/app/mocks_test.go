package app

import (
	"context"
	"sync"

	"github.com/scopewatch/api/internal/infra/notification"
	"github.com/scopewatch/api/pkg/domain/asset"
	"github.com/scopewatch/api/pkg/domain/program"
	"github.com/scopewatch/api/pkg/domain/scope"
	"github.com/scopewatch/api/pkg/domain/shared"
	"github.com/scopewatch/api/pkg/pagination"
)

type fakeAssetRepo struct {
	mu    sync.Mutex
	byID  map[string]*asset.Asset
	byKey map[string]*asset.Asset
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{
		byID:  make(map[string]*asset.Asset),
		byKey: make(map[string]*asset.Asset),
	}
}

func assetKey(programID shared.ID, value string) string {
	return programID.String() + "/" + asset.NormalizeValue(value)
}

func (r *fakeAssetRepo) GetByID(_ context.Context, id shared.ID) (*asset.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id.String()]
	if !ok {
		return nil, asset.ErrAssetNotFound
	}
	return a, nil
}

func (r *fakeAssetRepo) GetByValue(_ context.Context, programID shared.ID, value string) (*asset.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byKey[assetKey(programID, value)]
	if !ok {
		return nil, asset.ErrAssetNotFound
	}
	return a, nil
}

func (r *fakeAssetRepo) Create(_ context.Context, a *asset.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := assetKey(a.ProgramID(), a.Value())
	if _, ok := r.byKey[key]; ok {
		return asset.ErrDuplicateValue
	}
	r.byID[a.ID().String()] = a
	r.byKey[key] = a
	return nil
}

func (r *fakeAssetRepo) Update(_ context.Context, a *asset.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[a.ID().String()]; !ok {
		return asset.ErrAssetNotFound
	}
	r.byID[a.ID().String()] = a
	r.byKey[assetKey(a.ProgramID(), a.Value())] = a
	return nil
}

func (r *fakeAssetRepo) List(_ context.Context, filter asset.ListFilter, p pagination.Pagination) (pagination.Result[*asset.Asset], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*asset.Asset, 0)
	for _, a := range r.byID {
		if !filter.ProgramID.IsZero() && !a.ProgramID().Equals(filter.ProgramID) {
			continue
		}
		matched = append(matched, a)
	}
	return pagination.NewResult(matched, int64(len(matched)), p), nil
}

func (r *fakeAssetRepo) ListByProgram(_ context.Context, programID shared.ID) ([]*asset.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*asset.Asset, 0)
	for _, a := range r.byID {
		if a.ProgramID().Equals(programID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAssetRepo) CountByProgram(ctx context.Context, programID shared.ID) (int64, error) {
	assets, _ := r.ListByProgram(ctx, programID)
	return int64(len(assets)), nil
}

type fakeChangeRepo struct {
	mu      sync.Mutex
	changes []*asset.Change
}

func newFakeChangeRepo() *fakeChangeRepo {
	return &fakeChangeRepo{}
}

func (r *fakeChangeRepo) Append(_ context.Context, c *asset.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
	return nil
}

func (r *fakeChangeRepo) AppendBatch(ctx context.Context, changes []*asset.Change) error {
	for _, c := range changes {
		if err := r.Append(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeChangeRepo) ListByAsset(_ context.Context, assetID shared.ID, _ int) ([]*asset.Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*asset.Change, 0)
	for _, c := range r.changes {
		if c.AssetID().Equals(assetID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeChangeRepo) ListRecent(_ context.Context, p pagination.Pagination) (pagination.Result[*asset.Change], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pagination.NewResult(r.changes, int64(len(r.changes)), p), nil
}

func (r *fakeChangeRepo) MarkAlerted(_ context.Context, ids []shared.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.changes {
		for _, id := range ids {
			if c.ID().Equals(id) {
				c.MarkAlerted()
			}
		}
	}
	return nil
}

type fakeProgramRepo struct {
	mu   sync.Mutex
	byID map[string]*program.Program
}

func newFakeProgramRepo() *fakeProgramRepo {
	return &fakeProgramRepo{byID: make(map[string]*program.Program)}
}

func (r *fakeProgramRepo) GetByID(_ context.Context, id shared.ID) (*program.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id.String()]
	if !ok {
		return nil, program.ErrProgramNotFound
	}
	return p, nil
}

func (r *fakeProgramRepo) GetByHandle(_ context.Context, platform program.Platform, handle string) (*program.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.Platform() == platform && p.Handle() == handle {
			return p, nil
		}
	}
	return nil, program.ErrProgramNotFound
}

func (r *fakeProgramRepo) Create(_ context.Context, p *program.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[p.ID().String()] = p
	return nil
}

func (r *fakeProgramRepo) Update(_ context.Context, p *program.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID().String()]; !ok {
		return program.ErrProgramNotFound
	}
	r.byID[p.ID().String()] = p
	return nil
}

func (r *fakeProgramRepo) List(_ context.Context, pg pagination.Pagination) (pagination.Result[*program.Program], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*program.Program, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return pagination.NewResult(out, int64(len(out)), pg), nil
}

func (r *fakeProgramRepo) ListActive(_ context.Context) ([]*program.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*program.Program, 0)
	for _, p := range r.byID {
		if p.IsActive() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProgramRepo) Delete(_ context.Context, id shared.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id.String()]; !ok {
		return program.ErrProgramNotFound
	}
	delete(r.byID, id.String())
	return nil
}

type fakeHistoryRepo struct {
	mu        sync.Mutex
	byProgram map[string][]*scope.History
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{byProgram: make(map[string][]*scope.History)}
}

func (r *fakeHistoryRepo) Append(_ context.Context, h *scope.History) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := h.ProgramID().String()
	r.byProgram[key] = append(r.byProgram[key], h)
	return nil
}

func (r *fakeHistoryRepo) Latest(_ context.Context, programID shared.ID) (*scope.History, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.byProgram[programID.String()]
	if len(rows) == 0 {
		return nil, shared.ErrNotFound
	}
	return rows[len(rows)-1], nil
}

func (r *fakeHistoryRepo) ListByProgram(_ context.Context, programID shared.ID, limit int) ([]*scope.History, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.byProgram[programID.String()]
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	return rows, nil
}

type fakeCache struct {
	mu    sync.Mutex
	store map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, programID shared.ID) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[programID.String()], nil
}

func (c *fakeCache) Set(_ context.Context, programID shared.ID, checksum string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[programID.String()] = checksum
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *fakeNotifier) Send(_ context.Context, msg notification.Message) (*notification.SendResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return &notification.SendResult{Success: true}, nil
}

func (n *fakeNotifier) Provider() string {
	return "fake"
}

func (n *fakeNotifier) sent() []notification.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Message(nil), n.messages...)
}

type fakeFetcher struct {
	platform program.Platform
	snapshot scope.Snapshot
	err      error
	calls    int
}

func (f *fakeFetcher) FetchScope(_ context.Context, _ string) (scope.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return scope.Snapshot{}, f.err
	}
	return f.snapshot, nil
}

func (f *fakeFetcher) Platform() program.Platform {
	return f.platform
}
