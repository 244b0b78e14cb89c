package services_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanzim-io/tanzim-sdk/modules/content/domain/content"
	"github.com/tanzim-io/tanzim-sdk/modules/content/services"
	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	hierarchysvc "github.com/tanzim-io/tanzim-sdk/modules/hierarchy/services"
	"github.com/tanzim-io/tanzim-sdk/pkg/access"
	"github.com/tanzim-io/tanzim-sdk/pkg/cache"
	"github.com/tanzim-io/tanzim-sdk/pkg/composables"
	"github.com/tanzim-io/tanzim-sdk/pkg/eventbus"
	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

type memContentRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*content.Content
}

func newMemContentRepo() *memContentRepo {
	return &memContentRepo{records: map[uuid.UUID]*content.Content{}}
}

func (r *memContentRepo) Create(_ context.Context, data *content.Content) (*content.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[data.ID()] = data
	return data, nil
}

func (r *memContentRepo) Update(_ context.Context, data *content.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[data.ID()]; !ok {
		return serrors.NotFound("content not found")
	}
	r.records[data.ID()] = data
	return nil
}

func (r *memContentRepo) GetByID(_ context.Context, id uuid.UUID) (*content.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.records[id]
	if !ok {
		return nil, serrors.NotFound("content not found")
	}
	return c, nil
}

func (r *memContentRepo) List(_ context.Context, params *content.FindParams) ([]*content.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*content.Content
	for _, c := range r.records {
		if params.Kind != "" && c.Kind() != params.Kind {
			continue
		}
		if params.Family != "" && c.Target().Family() != params.Family {
			continue
		}
		if params.AncestorLevel != "" && !c.Target().ContainsAt(params.AncestorLevel, params.AncestorID) {
			continue
		}
		if params.ActiveOnly && !c.Active() {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *memContentRepo) Count(ctx context.Context, params *content.FindParams) (int64, error) {
	records, err := r.List(ctx, params)
	if err != nil {
		return 0, err
	}
	return int64(len(records)), nil
}

func (r *memContentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return serrors.NotFound("content not found")
	}
	delete(r.records, id)
	return nil
}

type memNodeRepo struct {
	mu    sync.Mutex
	nodes map[uuid.UUID]*hierarchy.Node
}

func newMemNodeRepo() *memNodeRepo {
	return &memNodeRepo{nodes: map[uuid.UUID]*hierarchy.Node{}}
}

func (r *memNodeRepo) Create(_ context.Context, data *hierarchy.Node) (*hierarchy.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[data.ID()] = data
	return data, nil
}

func (r *memNodeRepo) Update(_ context.Context, data *hierarchy.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[data.ID()] = data
	return nil
}

func (r *memNodeRepo) GetByID(_ context.Context, id uuid.UUID) (*hierarchy.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[id]
	if !ok {
		return nil, serrors.NotFound("hierarchy node not found")
	}
	return n, nil
}

func (r *memNodeRepo) List(_ context.Context, _ *hierarchy.FindParams) ([]*hierarchy.Node, error) {
	return nil, nil
}

func (r *memNodeRepo) Count(_ context.Context, _ *hierarchy.FindParams) (int64, error) {
	return 0, nil
}

func (r *memNodeRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.nodes, id)
	return nil
}

type noopTx struct{}

func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func testCtx(p access.Principal) context.Context {
	ctx := composables.WithTx(context.Background(), noopTx{})
	return composables.WithPrincipal(ctx, p)
}

func superuser() access.Principal {
	return access.Principal{ID: uuid.New(), Role: access.RoleAdmin, AdminLevel: access.AdminLevelAdmin}
}

type fixture struct {
	records *memContentRepo
	nodes   *memNodeRepo
	svc     *services.ContentService
}

func newFixture() *fixture {
	log := logrus.New()
	log.SetOutput(io.Discard)
	records := newMemContentRepo()
	nodes := newMemNodeRepo()
	deriver := hierarchysvc.NewScopeDeriver(nodes, cache.New(time.Minute, time.Minute))
	svc := services.NewContentService(records, deriver, access.NewEngine(log), eventbus.NewEventPublisher(log))
	return &fixture{records: records, nodes: nodes, svc: svc}
}

func seedTree(f *fixture) (nl, r1, r2, loc *hierarchy.Node) {
	ctx := context.Background()

	nl = hierarchy.New(hierarchy.FamilyOriginal, hierarchy.LevelNationalLevel, "National")
	_, _ = f.nodes.Create(ctx, nl)
	nlID := nl.ID()

	regionPath, _ := hierarchy.NewPath(hierarchy.FamilyOriginal).Child(hierarchy.LevelNationalLevel, nl.ID())
	r1 = hierarchy.New(hierarchy.FamilyOriginal, hierarchy.LevelRegion, "Khartoum",
		hierarchy.WithParentID(&nlID), hierarchy.WithAncestors(regionPath))
	_, _ = f.nodes.Create(ctx, r1)
	r2 = hierarchy.New(hierarchy.FamilyOriginal, hierarchy.LevelRegion, "Kassala",
		hierarchy.WithParentID(&nlID), hierarchy.WithAncestors(regionPath))
	_, _ = f.nodes.Create(ctx, r2)

	r1ID := r1.ID()
	locPath, _ := regionPath.Child(hierarchy.LevelRegion, r1.ID())
	loc = hierarchy.New(hierarchy.FamilyOriginal, hierarchy.LevelLocality, "Bahri",
		hierarchy.WithParentID(&r1ID), hierarchy.WithAncestors(locPath))
	_, _ = f.nodes.Create(ctx, loc)
	return nl, r1, r2, loc
}

func regionAdmin(region *hierarchy.Node) access.Principal {
	return access.Principal{
		ID:              uuid.New(),
		Role:            access.RoleUser,
		AdminLevel:      access.AdminLevelRegion,
		ActiveHierarchy: hierarchy.FamilyOriginal,
		Path:            region.ScopePath(),
	}
}

func TestContentService_CreateDerivesTarget(t *testing.T) {
	f := newFixture()
	nl, r1, _, loc := seedTree(f)

	created, err := f.svc.Create(testCtx(regionAdmin(r1)), services.CreateContentCommand{
		Kind:         content.KindBulletin,
		Title:        "Water schedule",
		Body:         "Updated hours",
		TargetNodeID: loc.ID(),
	})
	require.NoError(t, err)
	assert.True(t, created.Target().ContainsAt(hierarchy.LevelNationalLevel, nl.ID()))
	assert.True(t, created.Target().ContainsAt(hierarchy.LevelRegion, r1.ID()))
	assert.True(t, created.Target().ContainsAt(hierarchy.LevelLocality, loc.ID()))
}

func TestContentService_CreateSuppliedDriftRejected(t *testing.T) {
	f := newFixture()
	_, r1, _, loc := seedTree(f)

	_, err := f.svc.Create(testCtx(regionAdmin(r1)), services.CreateContentCommand{
		Kind:         content.KindSurvey,
		Title:        "Survey",
		TargetNodeID: loc.ID(),
		Supplied: hierarchysvc.Overrides{
			Levels: map[hierarchy.Level]uuid.UUID{
				hierarchy.LevelRegion: uuid.New(),
			},
		},
	})
	require.Error(t, err)
	assert.Equal(t, "Region ID conflicts with parent hierarchy", err.Error())
	assert.Equal(t, serrors.CodeConflict, serrors.CodeOf(err))
}

func TestContentService_CreateOutsideScopeForbidden(t *testing.T) {
	f := newFixture()
	_, _, r2, loc := seedTree(f)

	_, err := f.svc.Create(testCtx(regionAdmin(r2)), services.CreateContentCommand{
		Kind:         content.KindBulletin,
		Title:        "Out of scope",
		TargetNodeID: loc.ID(),
	})
	require.Error(t, err)
	assert.Equal(t, "Forbidden - Insufficient permissions", err.Error())
}

func TestContentService_InvalidKind(t *testing.T) {
	f := newFixture()
	_, _, _, loc := seedTree(f)

	_, err := f.svc.Create(testCtx(superuser()), services.CreateContentCommand{
		Kind:         content.Kind("MEME"),
		Title:        "Nope",
		TargetNodeID: loc.ID(),
	})
	require.Error(t, err)
	assert.Equal(t, serrors.CodeValidation, serrors.CodeOf(err))
}

func TestContentService_GetManageableFilteredToRegion(t *testing.T) {
	f := newFixture()
	_, r1, r2, loc := seedTree(f)
	root := testCtx(superuser())

	inScope, err := f.svc.Create(root, services.CreateContentCommand{
		Kind:         content.KindBulletin,
		Title:        "Inside",
		TargetNodeID: loc.ID(),
	})
	require.NoError(t, err)
	_, err = f.svc.Create(root, services.CreateContentCommand{
		Kind:         content.KindBulletin,
		Title:        "Outside",
		TargetNodeID: r2.ID(),
	})
	require.NoError(t, err)

	records, total, err := f.svc.GetManageable(testCtx(regionAdmin(r1)), &content.FindParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, inScope.ID(), records[0].ID())
}

func TestContentService_UpdateOptimisticLock(t *testing.T) {
	f := newFixture()
	_, _, _, loc := seedTree(f)
	ctx := testCtx(superuser())

	created, err := f.svc.Create(ctx, services.CreateContentCommand{
		Kind:         content.KindReport,
		Title:        "Quarterly",
		TargetNodeID: loc.ID(),
	})
	require.NoError(t, err)

	stale := created.UpdatedAt().Add(-5 * time.Second)
	_, err = f.svc.Update(ctx, services.UpdateContentCommand{
		ID:                created.ID(),
		Title:             "Quarterly v2",
		LastSeenUpdatedAt: &stale,
	})
	require.Error(t, err)
	assert.Equal(t, serrors.CodeOptimisticLock, serrors.CodeOf(err))
}

func TestContentService_RetargetWithinScope(t *testing.T) {
	f := newFixture()
	_, r1, _, loc := seedTree(f)
	admin := regionAdmin(r1)

	created, err := f.svc.Create(testCtx(admin), services.CreateContentCommand{
		Kind:         content.KindVotingItem,
		Title:        "Budget vote",
		TargetNodeID: loc.ID(),
	})
	require.NoError(t, err)

	updated, err := f.svc.Update(testCtx(admin), services.UpdateContentCommand{
		ID:           created.ID(),
		Title:        created.Title(),
		Retarget:     true,
		TargetNodeID: r1.ID(),
	})
	require.NoError(t, err)
	assert.True(t, updated.Target().ContainsAt(hierarchy.LevelRegion, r1.ID()))
	_, hasLocality := updated.Target().At(hierarchy.LevelLocality)
	assert.False(t, hasLocality)
}

func TestContentService_Delete(t *testing.T) {
	f := newFixture()
	_, _, r2, loc := seedTree(f)
	root := testCtx(superuser())

	created, err := f.svc.Create(root, services.CreateContentCommand{
		Kind:         content.KindSubscriptionPlan,
		Title:        "Gold",
		TargetNodeID: loc.ID(),
	})
	require.NoError(t, err)

	t.Run("outside scope denied", func(t *testing.T) {
		err := f.svc.Delete(testCtx(regionAdmin(r2)), created.ID())
		require.Error(t, err)
		assert.Equal(t, serrors.CodeForbidden, serrors.CodeOf(err))
	})

	t.Run("superuser deletes", func(t *testing.T) {
		require.NoError(t, f.svc.Delete(root, created.ID()))
		_, err := f.records.GetByID(context.Background(), created.ID())
		require.Error(t, err)
	})
}
