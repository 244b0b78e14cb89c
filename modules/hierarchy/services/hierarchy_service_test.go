package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/services"
	"github.com/tanzim-io/tanzim-sdk/pkg/access"
	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

func mustCreate(t *testing.T, svc *services.HierarchyService, ctx context.Context, cmd services.CreateNodeCommand) *hierarchy.Node {
	t.Helper()
	node, err := svc.Create(ctx, cmd)
	require.NoError(t, err)
	return node
}

func TestHierarchyService_CreateRoundTrip(t *testing.T) {
	svc, _ := newTestService(newMemRepo())
	ctx := testCtx(superuser())

	nl := mustCreate(t, svc, ctx, services.CreateNodeCommand{
		Family: hierarchy.FamilyOriginal,
		Level:  hierarchy.LevelNationalLevel,
		Name:   "National",
	})
	nlID := nl.ID()

	region := mustCreate(t, svc, ctx, services.CreateNodeCommand{
		Family:   hierarchy.FamilyOriginal,
		Level:    hierarchy.LevelRegion,
		Name:     "Khartoum",
		Code:     "test-reg-lower",
		ParentID: &nlID,
	})
	regionID := region.ID()

	locality := mustCreate(t, svc, ctx, services.CreateNodeCommand{
		Family:   hierarchy.FamilyOriginal,
		Level:    hierarchy.LevelLocality,
		Name:     "Bahri",
		ParentID: &regionID,
	})

	require.NotNil(t, region.Code())
	assert.Equal(t, "TEST-REG-LOWER", *region.Code())
	assert.True(t, locality.Ancestors().ContainsAt(hierarchy.LevelNationalLevel, nl.ID()))
	assert.True(t, locality.Ancestors().ContainsAt(hierarchy.LevelRegion, region.ID()))
	assert.Equal(t, 2, locality.Ancestors().Depth())
}

func TestHierarchyService_CreateValidation(t *testing.T) {
	svc, _ := newTestService(newMemRepo())
	ctx := testCtx(superuser())

	t.Run("name is required", func(t *testing.T) {
		_, err := svc.Create(ctx, services.CreateNodeCommand{
			Family: hierarchy.FamilyOriginal,
			Level:  hierarchy.LevelNationalLevel,
			Name:   "   ",
		})
		require.Error(t, err)
		assert.Equal(t, "Name is required", err.Error())
	})

	t.Run("sector nodes need a sector type", func(t *testing.T) {
		_, err := svc.Create(ctx, services.CreateNodeCommand{
			Family: hierarchy.FamilySector,
			Level:  hierarchy.LevelSectorNationalLevel,
			Name:   "Social",
		})
		require.Error(t, err)
		assert.Equal(t, serrors.CodeValidation, serrors.CodeOf(err))
	})

	t.Run("sector type rejected outside sector family", func(t *testing.T) {
		_, err := svc.Create(ctx, services.CreateNodeCommand{
			Family:     hierarchy.FamilyOriginal,
			Level:      hierarchy.LevelNationalLevel,
			Name:       "National",
			SectorType: hierarchy.SectorSocial,
		})
		require.Error(t, err)
		assert.Equal(t, serrors.CodeValidation, serrors.CodeOf(err))
	})
}

func TestHierarchyService_CreateForbiddenOutsideScope(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	root := testCtx(superuser())

	nl := mustCreate(t, svc, root, services.CreateNodeCommand{
		Family: hierarchy.FamilyOriginal,
		Level:  hierarchy.LevelNationalLevel,
		Name:   "National",
	})
	nlID := nl.ID()
	r1 := mustCreate(t, svc, root, services.CreateNodeCommand{
		Family:   hierarchy.FamilyOriginal,
		Level:    hierarchy.LevelRegion,
		Name:     "Khartoum",
		ParentID: &nlID,
	})
	r2 := mustCreate(t, svc, root, services.CreateNodeCommand{
		Family:   hierarchy.FamilyOriginal,
		Level:    hierarchy.LevelRegion,
		Name:     "Kassala",
		ParentID: &nlID,
	})
	r2ID := r2.ID()

	regionAdmin := access.Principal{
		ID:              uuid.New(),
		Role:            access.RoleUser,
		AdminLevel:      access.AdminLevelRegion,
		ActiveHierarchy: hierarchy.FamilyOriginal,
		Path: mustPath(
			hierarchy.PathEntry{Level: hierarchy.LevelNationalLevel, ID: nl.ID()},
			hierarchy.PathEntry{Level: hierarchy.LevelRegion, ID: r1.ID()},
		),
	}

	_, err := svc.Create(testCtx(regionAdmin), services.CreateNodeCommand{
		Family:   hierarchy.FamilyOriginal,
		Level:    hierarchy.LevelLocality,
		Name:     "Outside",
		ParentID: &r2ID,
	})
	require.Error(t, err)
	assert.Equal(t, "Forbidden - Insufficient permissions", err.Error())
	assert.Equal(t, serrors.CodeForbidden, serrors.CodeOf(err))

	r1ID := r1.ID()
	_, err = svc.Create(testCtx(regionAdmin), services.CreateNodeCommand{
		Family:   hierarchy.FamilyOriginal,
		Level:    hierarchy.LevelLocality,
		Name:     "Inside",
		ParentID: &r1ID,
	})
	require.NoError(t, err)
}

func TestReparent_DoesNotCascadeToDescendants(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	ctx := testCtx(superuser())

	nl := mustCreate(t, svc, ctx, services.CreateNodeCommand{
		Family: hierarchy.FamilyOriginal,
		Level:  hierarchy.LevelNationalLevel,
		Name:   "National",
	})
	nlID := nl.ID()
	r1 := mustCreate(t, svc, ctx, services.CreateNodeCommand{
		Family:   hierarchy.FamilyOriginal,
		Level:    hierarchy.LevelRegion,
		Name:     "Khartoum",
		ParentID: &nlID,
	})
	r2 := mustCreate(t, svc, ctx, services.CreateNodeCommand{
		Family:   hierarchy.FamilyOriginal,
		Level:    hierarchy.LevelRegion,
		Name:     "Kassala",
		ParentID: &nlID,
	})
	r1ID := r1.ID()
	locality := mustCreate(t, svc, ctx, services.CreateNodeCommand{
		Family:   hierarchy.FamilyOriginal,
		Level:    hierarchy.LevelLocality,
		Name:     "Bahri",
		ParentID: &r1ID,
	})
	localityID := locality.ID()
	adminUnit := mustCreate(t, svc, ctx, services.CreateNodeCommand{
		Family:   hierarchy.FamilyOriginal,
		Level:    hierarchy.LevelAdminUnit,
		Name:     "Unit One",
		ParentID: &localityID,
	})

	r2ID := r2.ID()
	moved, err := svc.Update(ctx, services.UpdateNodeCommand{
		ID:       locality.ID(),
		Name:     locality.Name(),
		Reparent: true,
		ParentID: &r2ID,
	})
	require.NoError(t, err)
	assert.True(t, moved.Ancestors().ContainsAt(hierarchy.LevelRegion, r2.ID()))

	// Descendants keep their stored chains: the admin unit still points at
	// the old region until it is itself re-derived.
	stored, err := repo.GetByID(context.Background(), adminUnit.ID())
	require.NoError(t, err)
	assert.True(t, stored.Ancestors().ContainsAt(hierarchy.LevelRegion, r1.ID()))
	assert.False(t, stored.Ancestors().ContainsAt(hierarchy.LevelRegion, r2.ID()))
}

func TestHierarchyService_ReparentSectorAffiliationPinned(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	ctx := testCtx(superuser())

	expat := mustCreate(t, svc, ctx, services.CreateNodeCommand{
		Family: hierarchy.FamilyExpatriate,
		Level:  hierarchy.LevelExpatriateRegion,
		Name:   "Gulf",
	})
	expatID := expat.ID()

	nationalRoot := mustCreate(t, svc, ctx, services.CreateNodeCommand{
		Family:     hierarchy.FamilySector,
		Level:      hierarchy.LevelSectorNationalLevel,
		Name:       "Social",
		SectorType: hierarchy.SectorSocial,
	})
	expatRoot := mustCreate(t, svc, ctx, services.CreateNodeCommand{
		Family:     hierarchy.FamilySector,
		Level:      hierarchy.LevelSectorNationalLevel,
		Name:       "Social Abroad",
		SectorType: hierarchy.SectorSocial,
		Supplied:   services.Overrides{ExpatriateRegionID: &expatID},
	})

	nationalRootID := nationalRoot.ID()
	sectorRegion := mustCreate(t, svc, ctx, services.CreateNodeCommand{
		Family:     hierarchy.FamilySector,
		Level:      hierarchy.LevelSectorRegion,
		Name:       "Social Khartoum",
		SectorType: hierarchy.SectorSocial,
		ParentID:   &nationalRootID,
	})

	expatRootID := expatRoot.ID()
	_, err := svc.Update(ctx, services.UpdateNodeCommand{
		ID:       sectorRegion.ID(),
		Name:     sectorRegion.Name(),
		Reparent: true,
		ParentID: &expatRootID,
	})
	require.Error(t, err)
	assert.Equal(t, serrors.CodeConflict, serrors.CodeOf(err))
}

func TestHierarchyService_UpdateOptimisticLock(t *testing.T) {
	svc, _ := newTestService(newMemRepo())
	ctx := testCtx(superuser())

	node := mustCreate(t, svc, ctx, services.CreateNodeCommand{
		Family: hierarchy.FamilyOriginal,
		Level:  hierarchy.LevelNationalLevel,
		Name:   "National",
	})

	stale := node.UpdatedAt().Add(-5 * time.Second)
	_, err := svc.Update(ctx, services.UpdateNodeCommand{
		ID:                node.ID(),
		Name:              "Renamed",
		LastSeenUpdatedAt: &stale,
	})
	require.Error(t, err)
	assert.Equal(t, serrors.CodeOptimisticLock, serrors.CodeOf(err))
}

func TestHierarchyService_DeleteWithDependents(t *testing.T) {
	svc, _ := newTestService(newMemRepo())
	ctx := testCtx(superuser())

	nl := mustCreate(t, svc, ctx, services.CreateNodeCommand{
		Family: hierarchy.FamilyOriginal,
		Level:  hierarchy.LevelNationalLevel,
		Name:   "National",
	})
	nlID := nl.ID()
	mustCreate(t, svc, ctx, services.CreateNodeCommand{
		Family:   hierarchy.FamilyOriginal,
		Level:    hierarchy.LevelRegion,
		Name:     "Khartoum",
		ParentID: &nlID,
	})

	err := svc.Delete(ctx, nl.ID())
	require.Error(t, err)
	assert.Equal(t, "cannot delete: has dependent records", err.Error())
	assert.Equal(t, serrors.CodeConflict, serrors.CodeOf(err))
}

func TestHierarchyService_Deactivate(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	ctx := testCtx(superuser())

	node := mustCreate(t, svc, ctx, services.CreateNodeCommand{
		Family: hierarchy.FamilyOriginal,
		Level:  hierarchy.LevelNationalLevel,
		Name:   "National",
	})

	updated, err := svc.Deactivate(ctx, node.ID())
	require.NoError(t, err)
	assert.False(t, updated.Active())

	nodes, err := repo.List(context.Background(), &hierarchy.FindParams{
		Family:     hierarchy.FamilyOriginal,
		ActiveOnly: true,
	})
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestHierarchyService_ListManageableFilter(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)
	root := testCtx(superuser())

	nl := mustCreate(t, svc, root, services.CreateNodeCommand{
		Family: hierarchy.FamilyOriginal,
		Level:  hierarchy.LevelNationalLevel,
		Name:   "National",
	})
	nlID := nl.ID()
	r1 := mustCreate(t, svc, root, services.CreateNodeCommand{
		Family:   hierarchy.FamilyOriginal,
		Level:    hierarchy.LevelRegion,
		Name:     "Khartoum",
		ParentID: &nlID,
	})
	r2 := mustCreate(t, svc, root, services.CreateNodeCommand{
		Family:   hierarchy.FamilyOriginal,
		Level:    hierarchy.LevelRegion,
		Name:     "Kassala",
		ParentID: &nlID,
	})
	r1ID := r1.ID()
	r2ID := r2.ID()
	inScope := mustCreate(t, svc, root, services.CreateNodeCommand{
		Family:   hierarchy.FamilyOriginal,
		Level:    hierarchy.LevelLocality,
		Name:     "Bahri",
		ParentID: &r1ID,
	})
	mustCreate(t, svc, root, services.CreateNodeCommand{
		Family:   hierarchy.FamilyOriginal,
		Level:    hierarchy.LevelLocality,
		Name:     "Kassala Town",
		ParentID: &r2ID,
	})

	regionAdmin := access.Principal{
		ID:              uuid.New(),
		Role:            access.RoleUser,
		AdminLevel:      access.AdminLevelRegion,
		ActiveHierarchy: hierarchy.FamilyOriginal,
		Path: mustPath(
			hierarchy.PathEntry{Level: hierarchy.LevelNationalLevel, ID: nl.ID()},
			hierarchy.PathEntry{Level: hierarchy.LevelRegion, ID: r1.ID()},
		),
	}

	nodes, total, err := svc.List(testCtx(regionAdmin), &hierarchy.FindParams{
		Family: hierarchy.FamilyOriginal,
		Level:  hierarchy.LevelLocality,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, nodes, 1)
	assert.Equal(t, inScope.ID(), nodes[0].ID())
}
