package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/infrastructure/persistence/models"
	"github.com/tanzim-io/tanzim-sdk/pkg/composables"
	"github.com/tanzim-io/tanzim-sdk/pkg/repo"
)

const (
	nodeFindQuery = `
        SELECT
            h.id,
            h.family,
            h.level,
            h.sector_type,
            h.name,
            h.code,
            h.description,
            h.active,
            h.admin_id,
            h.parent_id,
            h.national_level_id,
            h.region_id,
            h.locality_id,
            h.admin_unit_id,
            h.expatriate_region_id,
            h.sector_national_level_id,
            h.sector_region_id,
            h.sector_locality_id,
            h.sector_admin_unit_id,
            h.created_at,
            h.updated_at
        FROM hierarchy_nodes h`

	nodeCountQuery = `SELECT COUNT(h.id) FROM hierarchy_nodes h`

	nodeDeleteQuery = `DELETE FROM hierarchy_nodes WHERE id = $1`
)

var nodeFields = []string{
	"id",
	"family",
	"level",
	"sector_type",
	"name",
	"code",
	"description",
	"active",
	"admin_id",
	"parent_id",
	"national_level_id",
	"region_id",
	"locality_id",
	"admin_unit_id",
	"expatriate_region_id",
	"sector_national_level_id",
	"sector_region_id",
	"sector_locality_id",
	"sector_admin_unit_id",
	"created_at",
	"updated_at",
}

// ancestorColumns maps a chain level to its pointer column for subtree
// filtering.
var ancestorColumns = map[hierarchy.Level]string{
	hierarchy.LevelNationalLevel:       "h.national_level_id",
	hierarchy.LevelRegion:              "h.region_id",
	hierarchy.LevelLocality:            "h.locality_id",
	hierarchy.LevelAdminUnit:           "h.admin_unit_id",
	hierarchy.LevelExpatriateRegion:    "h.expatriate_region_id",
	hierarchy.LevelSectorNationalLevel: "h.sector_national_level_id",
	hierarchy.LevelSectorRegion:        "h.sector_region_id",
	hierarchy.LevelSectorLocality:      "h.sector_locality_id",
	hierarchy.LevelSectorAdminUnit:     "h.sector_admin_unit_id",
}

type PgHierarchyRepository struct{}

func NewHierarchyRepository() hierarchy.Repository {
	return &PgHierarchyRepository{}
}

func (g *PgHierarchyRepository) buildFilters(params *hierarchy.FindParams) ([]string, []interface{}) {
	var where []string
	var args []interface{}

	if params.Family != "" {
		args = append(args, string(params.Family))
		where = append(where, fmt.Sprintf("h.family = $%d", len(args)))
	}
	if params.Level != "" {
		args = append(args, string(params.Level))
		where = append(where, fmt.Sprintf("h.level = $%d", len(args)))
	}
	if params.SectorType != "" {
		args = append(args, string(params.SectorType))
		where = append(where, fmt.Sprintf("h.sector_type = $%d", len(args)))
	}
	if params.ParentID != nil {
		args = append(args, *params.ParentID)
		where = append(where, fmt.Sprintf("h.parent_id = $%d", len(args)))
	}
	if params.AncestorLevel != "" {
		// A node is inside the subtree if its pointer at the level matches,
		// or if it is the subtree root itself.
		idIdx := len(args) + 1
		levelIdx := len(args) + 2
		args = append(args, params.AncestorID, string(params.AncestorLevel))
		if col, ok := ancestorColumns[params.AncestorLevel]; ok {
			where = append(where, fmt.Sprintf(
				"(%s = $%d OR (h.level = $%d AND h.id = $%d))",
				col, idIdx, levelIdx, idIdx,
			))
		} else {
			where = append(where, fmt.Sprintf("(h.level = $%d AND h.id = $%d)", levelIdx, idIdx))
		}
	}
	if params.ActiveOnly {
		where = append(where, "h.active = true")
	}
	return where, args
}

func (g *PgHierarchyRepository) queryNodes(ctx context.Context, query string, args ...interface{}) ([]*hierarchy.Node, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var dbNodes []*models.HierarchyNode
	for rows.Next() {
		var n models.HierarchyNode
		if err := rows.Scan(
			&n.ID,
			&n.Family,
			&n.Level,
			&n.SectorType,
			&n.Name,
			&n.Code,
			&n.Description,
			&n.Active,
			&n.AdminID,
			&n.ParentID,
			&n.NationalLevelID,
			&n.RegionID,
			&n.LocalityID,
			&n.AdminUnitID,
			&n.ExpatriateRegionID,
			&n.SectorNationalLevelID,
			&n.SectorRegionID,
			&n.SectorLocalityID,
			&n.SectorAdminUnitID,
			&n.CreatedAt,
			&n.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan hierarchy node row")
		}
		dbNodes = append(dbNodes, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	entities := make([]*hierarchy.Node, 0, len(dbNodes))
	for _, n := range dbNodes {
		entity, err := ToDomainNode(n)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func (g *PgHierarchyRepository) Create(ctx context.Context, data *hierarchy.Node) (*hierarchy.Node, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	m := ToDBNode(data)
	if _, err := tx.Exec(ctx, repo.Insert("hierarchy_nodes", nodeFields),
		m.ID,
		m.Family,
		m.Level,
		m.SectorType,
		m.Name,
		m.Code,
		m.Description,
		m.Active,
		m.AdminID,
		m.ParentID,
		m.NationalLevelID,
		m.RegionID,
		m.LocalityID,
		m.AdminUnitID,
		m.ExpatriateRegionID,
		m.SectorNationalLevelID,
		m.SectorRegionID,
		m.SectorLocalityID,
		m.SectorAdminUnitID,
		m.CreatedAt,
		m.UpdatedAt,
	); err != nil {
		return nil, repo.MapWriteError(err, data.Level().Human())
	}
	return g.GetByID(ctx, data.ID())
}

func (g *PgHierarchyRepository) Update(ctx context.Context, data *hierarchy.Node) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	fields := []string{
		"sector_type",
		"name",
		"code",
		"description",
		"active",
		"admin_id",
		"parent_id",
		"national_level_id",
		"region_id",
		"locality_id",
		"admin_unit_id",
		"expatriate_region_id",
		"sector_national_level_id",
		"sector_region_id",
		"sector_locality_id",
		"sector_admin_unit_id",
		"updated_at",
	}
	m := ToDBNode(data)
	tag, err := tx.Exec(ctx,
		repo.Update("hierarchy_nodes", fields, fmt.Sprintf("id = $%d", len(fields)+1)),
		m.SectorType,
		m.Name,
		m.Code,
		m.Description,
		m.Active,
		m.AdminID,
		m.ParentID,
		m.NationalLevelID,
		m.RegionID,
		m.LocalityID,
		m.AdminUnitID,
		m.ExpatriateRegionID,
		m.SectorNationalLevelID,
		m.SectorRegionID,
		m.SectorLocalityID,
		m.SectorAdminUnitID,
		m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		return repo.MapWriteError(err, data.Level().Human())
	}
	if tag.RowsAffected() == 0 {
		return repo.MapWriteError(pgx.ErrNoRows, data.Level().Human())
	}
	return nil
}

func (g *PgHierarchyRepository) GetByID(ctx context.Context, id uuid.UUID) (*hierarchy.Node, error) {
	nodes, err := g.queryNodes(ctx, repo.Join(nodeFindQuery, "WHERE h.id = $1"), id)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, repo.MapWriteError(pgx.ErrNoRows, "hierarchy node")
	}
	return nodes[0], nil
}

func (g *PgHierarchyRepository) List(ctx context.Context, params *hierarchy.FindParams) ([]*hierarchy.Node, error) {
	where, args := g.buildFilters(params)
	query := repo.Join(
		nodeFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY h.created_at",
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	return g.queryNodes(ctx, query, args...)
}

func (g *PgHierarchyRepository) Count(ctx context.Context, params *hierarchy.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}

	where, args := g.buildFilters(params)
	var count int64
	if err := tx.QueryRow(ctx, repo.Join(nodeCountQuery, repo.JoinWhere(where...)), args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count hierarchy nodes")
	}
	return count, nil
}

func (g *PgHierarchyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tag, err := tx.Exec(ctx, nodeDeleteQuery, id)
	if err != nil {
		return repo.MapDeleteError(err, "hierarchy node")
	}
	if tag.RowsAffected() == 0 {
		return repo.MapDeleteError(pgx.ErrNoRows, "hierarchy node")
	}
	return nil
}
