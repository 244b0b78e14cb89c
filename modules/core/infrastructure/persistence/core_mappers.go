package persistence

import (
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/tanzim-io/tanzim-sdk/modules/core/domain/aggregates/user"
	"github.com/tanzim-io/tanzim-sdk/modules/core/infrastructure/persistence/models"
	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	"github.com/tanzim-io/tanzim-sdk/pkg/access"
)

func userScopeSlots(m *models.User) map[hierarchy.Level]**uuid.UUID {
	return map[hierarchy.Level]**uuid.UUID{
		hierarchy.LevelNationalLevel:       &m.NationalLevelID,
		hierarchy.LevelRegion:              &m.RegionID,
		hierarchy.LevelLocality:            &m.LocalityID,
		hierarchy.LevelAdminUnit:           &m.AdminUnitID,
		hierarchy.LevelDistrict:            &m.DistrictID,
		hierarchy.LevelExpatriateRegion:    &m.ExpatriateRegionID,
		hierarchy.LevelSectorNationalLevel: &m.SectorNationalLevelID,
		hierarchy.LevelSectorRegion:        &m.SectorRegionID,
		hierarchy.LevelSectorLocality:      &m.SectorLocalityID,
		hierarchy.LevelSectorAdminUnit:     &m.SectorAdminUnitID,
		hierarchy.LevelSectorDistrict:      &m.SectorDistrictID,
	}
}

func ToDBUser(entity *user.User) *models.User {
	m := &models.User{
		ID:         entity.ID(),
		Email:      entity.Email(),
		FirstName:  entity.FirstName(),
		LastName:   entity.LastName(),
		Role:       string(entity.Role()),
		AdminLevel: string(entity.AdminLevel()),
		Active:     entity.Active(),
		CreatedAt:  entity.CreatedAt(),
		UpdatedAt:  entity.UpdatedAt(),
	}
	if f := entity.ActiveHierarchy(); f != "" {
		s := string(f)
		m.ActiveHierarchy = &s
	}

	slots := userScopeSlots(m)
	for _, e := range entity.Path().Entries() {
		slot, ok := slots[e.Level]
		if !ok {
			continue
		}
		id := e.ID
		*slot = &id
	}
	if id, ok := entity.Path().ExpatriateRegionID(); ok {
		m.ExpatriateRegionID = &id
	}
	return m
}

func ToDomainUser(m *models.User) (*user.User, error) {
	opts := []user.Option{
		user.WithID(m.ID),
		user.WithRole(access.Role(m.Role)),
		user.WithAdminLevel(access.AdminLevel(m.AdminLevel)),
		user.WithActive(m.Active),
		user.WithCreatedAt(m.CreatedAt),
		user.WithUpdatedAt(m.UpdatedAt),
	}

	if m.ActiveHierarchy != nil {
		family := hierarchy.Family(*m.ActiveHierarchy)
		if !family.Valid() {
			return nil, errors.Errorf("corrupt user row %s: hierarchy %q", m.ID, *m.ActiveHierarchy)
		}
		path := hierarchy.NewPath(family)
		if family == hierarchy.FamilySector && m.ExpatriateRegionID != nil {
			path = path.WithExpatriateRegion(*m.ExpatriateRegionID)
		}
		slots := userScopeSlots(m)
		for _, l := range hierarchy.Chain(family) {
			slot, ok := slots[l]
			if !ok || *slot == nil {
				break
			}
			next, err := path.Child(l, **slot)
			if err != nil {
				return nil, errors.Wrapf(err, "corrupt scope chain on user row %s", m.ID)
			}
			path = next
		}
		opts = append(opts, user.WithScope(family, path))
	}

	return user.New(m.Email, m.FirstName, m.LastName, opts...), nil
}
