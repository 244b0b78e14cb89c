package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tanzim-io/tanzim-sdk/modules/core/domain/aggregates/user"
	"github.com/tanzim-io/tanzim-sdk/modules/core/infrastructure/persistence/models"
	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	"github.com/tanzim-io/tanzim-sdk/pkg/composables"
	"github.com/tanzim-io/tanzim-sdk/pkg/repo"
	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

const (
	userFindQuery = `
        SELECT
            u.id,
            u.email,
            u.first_name,
            u.last_name,
            u.role,
            u.admin_level,
            u.active_hierarchy,
            u.active,
            u.national_level_id,
            u.region_id,
            u.locality_id,
            u.admin_unit_id,
            u.district_id,
            u.expatriate_region_id,
            u.sector_national_level_id,
            u.sector_region_id,
            u.sector_locality_id,
            u.sector_admin_unit_id,
            u.sector_district_id,
            u.created_at,
            u.updated_at
        FROM users u`

	userCountQuery = `SELECT COUNT(u.id) FROM users u`

	userDeleteQuery = `DELETE FROM users WHERE id = $1`
)

var userFields = []string{
	"id",
	"email",
	"first_name",
	"last_name",
	"role",
	"admin_level",
	"active_hierarchy",
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

// userScopeColumns maps a level to the users-table pointer column for the
// manageable-set filter.
var userScopeColumns = map[hierarchy.Level]string{
	hierarchy.LevelNationalLevel:       "u.national_level_id",
	hierarchy.LevelRegion:              "u.region_id",
	hierarchy.LevelLocality:            "u.locality_id",
	hierarchy.LevelAdminUnit:           "u.admin_unit_id",
	hierarchy.LevelDistrict:            "u.district_id",
	hierarchy.LevelExpatriateRegion:    "u.expatriate_region_id",
	hierarchy.LevelSectorNationalLevel: "u.sector_national_level_id",
	hierarchy.LevelSectorRegion:        "u.sector_region_id",
	hierarchy.LevelSectorLocality:      "u.sector_locality_id",
	hierarchy.LevelSectorAdminUnit:     "u.sector_admin_unit_id",
	hierarchy.LevelSectorDistrict:      "u.sector_district_id",
}

type PgUserRepository struct{}

func NewUserRepository() user.Repository {
	return &PgUserRepository{}
}

// mapUserWriteError narrows unique violations to the email constraint, the
// only unique index on the table.
func mapUserWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return serrors.Conflict("user with this email already exists")
	}
	return repo.MapWriteError(err, "user")
}

func (g *PgUserRepository) buildFilters(params *user.FindParams) ([]string, []interface{}) {
	var where []string
	var args []interface{}

	if params.Role != "" {
		args = append(args, string(params.Role))
		where = append(where, fmt.Sprintf("u.role = $%d", len(args)))
	}
	if params.AdminLevel != "" {
		args = append(args, string(params.AdminLevel))
		where = append(where, fmt.Sprintf("u.admin_level = $%d", len(args)))
	}
	if params.Family != "" {
		args = append(args, string(params.Family))
		where = append(where, fmt.Sprintf("u.active_hierarchy = $%d", len(args)))
	}
	if params.AncestorLevel != "" {
		if col, ok := userScopeColumns[params.AncestorLevel]; ok {
			args = append(args, params.AncestorID)
			where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
		} else {
			// No column for the level means nothing can match.
			where = append(where, "false")
		}
	}
	if params.ActiveOnly {
		where = append(where, "u.active = true")
	}
	return where, args
}

func (g *PgUserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var dbUsers []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.FirstName,
			&u.LastName,
			&u.Role,
			&u.AdminLevel,
			&u.ActiveHierarchy,
			&u.Active,
			&u.NationalLevelID,
			&u.RegionID,
			&u.LocalityID,
			&u.AdminUnitID,
			&u.DistrictID,
			&u.ExpatriateRegionID,
			&u.SectorNationalLevelID,
			&u.SectorRegionID,
			&u.SectorLocalityID,
			&u.SectorAdminUnitID,
			&u.SectorDistrictID,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan user row")
		}
		dbUsers = append(dbUsers, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	entities := make([]*user.User, 0, len(dbUsers))
	for _, u := range dbUsers {
		entity, err := ToDomainUser(u)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func (g *PgUserRepository) Create(ctx context.Context, data *user.User) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	m := ToDBUser(data)
	if _, err := tx.Exec(ctx, repo.Insert("users", userFields),
		m.ID,
		m.Email,
		m.FirstName,
		m.LastName,
		m.Role,
		m.AdminLevel,
		m.ActiveHierarchy,
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
		return nil, mapUserWriteError(err)
	}
	return g.GetByID(ctx, data.ID())
}

func (g *PgUserRepository) Update(ctx context.Context, data *user.User) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	fields := []string{
		"email",
		"first_name",
		"last_name",
		"role",
		"admin_level",
		"active_hierarchy",
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
	m := ToDBUser(data)
	tag, err := tx.Exec(ctx,
		repo.Update("users", fields, fmt.Sprintf("id = $%d", len(fields)+1)),
		m.Email,
		m.FirstName,
		m.LastName,
		m.Role,
		m.AdminLevel,
		m.ActiveHierarchy,
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
		return mapUserWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return repo.MapWriteError(pgx.ErrNoRows, "user")
	}
	return nil
}

func (g *PgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	users, err := g.queryUsers(ctx, repo.Join(userFindQuery, "WHERE u.id = $1"), id)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, repo.MapWriteError(pgx.ErrNoRows, "user")
	}
	return users[0], nil
}

func (g *PgUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	users, err := g.queryUsers(ctx, repo.Join(userFindQuery, "WHERE u.email = $1"), email)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, repo.MapWriteError(pgx.ErrNoRows, "user")
	}
	return users[0], nil
}

func (g *PgUserRepository) List(ctx context.Context, params *user.FindParams) ([]*user.User, error) {
	where, args := g.buildFilters(params)
	query := repo.Join(
		userFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY u.created_at",
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	return g.queryUsers(ctx, query, args...)
}

func (g *PgUserRepository) Count(ctx context.Context, params *user.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}

	where, args := g.buildFilters(params)
	var count int64
	if err := tx.QueryRow(ctx, repo.Join(userCountQuery, repo.JoinWhere(where...)), args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count users")
	}
	return count, nil
}

func (g *PgUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tag, err := tx.Exec(ctx, userDeleteQuery, id)
	if err != nil {
		return repo.MapDeleteError(err, "user")
	}
	if tag.RowsAffected() == 0 {
		return repo.MapDeleteError(pgx.ErrNoRows, "user")
	}
	return nil
}
