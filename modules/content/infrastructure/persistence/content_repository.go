package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tanzim-io/tanzim-sdk/modules/content/domain/content"
	"github.com/tanzim-io/tanzim-sdk/modules/content/infrastructure/persistence/models"
	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	"github.com/tanzim-io/tanzim-sdk/pkg/composables"
	"github.com/tanzim-io/tanzim-sdk/pkg/repo"
)

const (
	contentFindQuery = `
        SELECT
            c.id,
            c.kind,
            c.title,
            c.body,
            c.author_id,
            c.target_hierarchy,
            c.active,
            c.national_level_id,
            c.region_id,
            c.locality_id,
            c.admin_unit_id,
            c.district_id,
            c.expatriate_region_id,
            c.sector_national_level_id,
            c.sector_region_id,
            c.sector_locality_id,
            c.sector_admin_unit_id,
            c.sector_district_id,
            c.created_at,
            c.updated_at
        FROM content_items c`

	contentCountQuery = `SELECT COUNT(c.id) FROM content_items c`

	contentDeleteQuery = `DELETE FROM content_items WHERE id = $1`
)

var contentFields = []string{
	"id",
	"kind",
	"title",
	"body",
	"author_id",
	"target_hierarchy",
	"active",
	"national_level_id",
	"region_id",
	"locality_id",
	"admin_unit_id",
	"district_id",
	"expatriate_region_id",
	"sector_national_level_id",
	"sector_region_id",
	"sector_locality_id",
	"sector_admin_unit_id",
	"sector_district_id",
	"created_at",
	"updated_at",
}

var targetColumns = map[hierarchy.Level]string{
	hierarchy.LevelNationalLevel:       "c.national_level_id",
	hierarchy.LevelRegion:              "c.region_id",
	hierarchy.LevelLocality:            "c.locality_id",
	hierarchy.LevelAdminUnit:           "c.admin_unit_id",
	hierarchy.LevelDistrict:            "c.district_id",
	hierarchy.LevelExpatriateRegion:    "c.expatriate_region_id",
	hierarchy.LevelSectorNationalLevel: "c.sector_national_level_id",
	hierarchy.LevelSectorRegion:        "c.sector_region_id",
	hierarchy.LevelSectorLocality:      "c.sector_locality_id",
	hierarchy.LevelSectorAdminUnit:     "c.sector_admin_unit_id",
	hierarchy.LevelSectorDistrict:      "c.sector_district_id",
}

type PgContentRepository struct{}

func NewContentRepository() content.Repository {
	return &PgContentRepository{}
}

func (g *PgContentRepository) buildFilters(params *content.FindParams) ([]string, []interface{}) {
	var where []string
	var args []interface{}

	if params.Kind != "" {
		args = append(args, string(params.Kind))
		where = append(where, fmt.Sprintf("c.kind = $%d", len(args)))
	}
	if params.Family != "" {
		args = append(args, string(params.Family))
		where = append(where, fmt.Sprintf("c.target_hierarchy = $%d", len(args)))
	}
	if params.AncestorLevel != "" {
		if col, ok := targetColumns[params.AncestorLevel]; ok {
			args = append(args, params.AncestorID)
			where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
		} else {
			where = append(where, "false")
		}
	}
	if params.ActiveOnly {
		where = append(where, "c.active = true")
	}
	return where, args
}

func (g *PgContentRepository) queryContent(ctx context.Context, query string, args ...interface{}) ([]*content.Content, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var dbRecords []*models.Content
	for rows.Next() {
		var c models.Content
		if err := rows.Scan(
			&c.ID,
			&c.Kind,
			&c.Title,
			&c.Body,
			&c.AuthorID,
			&c.TargetHierarchy,
			&c.Active,
			&c.NationalLevelID,
			&c.RegionID,
			&c.LocalityID,
			&c.AdminUnitID,
			&c.DistrictID,
			&c.ExpatriateRegionID,
			&c.SectorNationalLevelID,
			&c.SectorRegionID,
			&c.SectorLocalityID,
			&c.SectorAdminUnitID,
			&c.SectorDistrictID,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan content row")
		}
		dbRecords = append(dbRecords, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	entities := make([]*content.Content, 0, len(dbRecords))
	for _, c := range dbRecords {
		entity, err := ToDomainContent(c)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func (g *PgContentRepository) Create(ctx context.Context, data *content.Content) (*content.Content, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	m := ToDBContent(data)
	if _, err := tx.Exec(ctx, repo.Insert("content_items", contentFields),
		m.ID,
		m.Kind,
		m.Title,
		m.Body,
		m.AuthorID,
		m.TargetHierarchy,
		m.Active,
		m.NationalLevelID,
		m.RegionID,
		m.LocalityID,
		m.AdminUnitID,
		m.DistrictID,
		m.ExpatriateRegionID,
		m.SectorNationalLevelID,
		m.SectorRegionID,
		m.SectorLocalityID,
		m.SectorAdminUnitID,
		m.SectorDistrictID,
		m.CreatedAt,
		m.UpdatedAt,
	); err != nil {
		return nil, repo.MapWriteError(err, "content")
	}
	return g.GetByID(ctx, data.ID())
}

func (g *PgContentRepository) Update(ctx context.Context, data *content.Content) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	fields := []string{
		"title",
		"body",
		"target_hierarchy",
		"active",
		"national_level_id",
		"region_id",
		"locality_id",
		"admin_unit_id",
		"district_id",
		"expatriate_region_id",
		"sector_national_level_id",
		"sector_region_id",
		"sector_locality_id",
		"sector_admin_unit_id",
		"sector_district_id",
		"updated_at",
	}
	m := ToDBContent(data)
	tag, err := tx.Exec(ctx,
		repo.Update("content_items", fields, fmt.Sprintf("id = $%d", len(fields)+1)),
		m.Title,
		m.Body,
		m.TargetHierarchy,
		m.Active,
		m.NationalLevelID,
		m.RegionID,
		m.LocalityID,
		m.AdminUnitID,
		m.DistrictID,
		m.ExpatriateRegionID,
		m.SectorNationalLevelID,
		m.SectorRegionID,
		m.SectorLocalityID,
		m.SectorAdminUnitID,
		m.SectorDistrictID,
		m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		return repo.MapWriteError(err, "content")
	}
	if tag.RowsAffected() == 0 {
		return repo.MapWriteError(pgx.ErrNoRows, "content")
	}
	return nil
}

func (g *PgContentRepository) GetByID(ctx context.Context, id uuid.UUID) (*content.Content, error) {
	records, err := g.queryContent(ctx, repo.Join(contentFindQuery, "WHERE c.id = $1"), id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, repo.MapWriteError(pgx.ErrNoRows, "content")
	}
	return records[0], nil
}

func (g *PgContentRepository) List(ctx context.Context, params *content.FindParams) ([]*content.Content, error) {
	where, args := g.buildFilters(params)
	query := repo.Join(
		contentFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY c.created_at",
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	return g.queryContent(ctx, query, args...)
}

func (g *PgContentRepository) Count(ctx context.Context, params *content.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}

	where, args := g.buildFilters(params)
	var count int64
	if err := tx.QueryRow(ctx, repo.Join(contentCountQuery, repo.JoinWhere(where...)), args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count content")
	}
	return count, nil
}

func (g *PgContentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tag, err := tx.Exec(ctx, contentDeleteQuery, id)
	if err != nil {
		return repo.MapDeleteError(err, "content")
	}
	if tag.RowsAffected() == 0 {
		return repo.MapDeleteError(pgx.ErrNoRows, "content")
	}
	return nil
}
