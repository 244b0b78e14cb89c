package persistence

import (
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/tanzim-io/tanzim-sdk/modules/content/domain/content"
	"github.com/tanzim-io/tanzim-sdk/modules/content/infrastructure/persistence/models"
	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
)

func targetSlots(m *models.Content) map[hierarchy.Level]**uuid.UUID {
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

func ToDBContent(entity *content.Content) *models.Content {
	m := &models.Content{
		ID:        entity.ID(),
		Kind:      string(entity.Kind()),
		Title:     entity.Title(),
		Body:      entity.Body(),
		AuthorID:  entity.AuthorID(),
		Active:    entity.Active(),
		CreatedAt: entity.CreatedAt(),
		UpdatedAt: entity.UpdatedAt(),
	}
	if f := entity.Target().Family(); f != "" {
		s := string(f)
		m.TargetHierarchy = &s
	}

	slots := targetSlots(m)
	for _, e := range entity.Target().Entries() {
		slot, ok := slots[e.Level]
		if !ok {
			continue
		}
		id := e.ID
		*slot = &id
	}
	if id, ok := entity.Target().ExpatriateRegionID(); ok {
		m.ExpatriateRegionID = &id
	}
	return m
}

func ToDomainContent(m *models.Content) (*content.Content, error) {
	opts := []content.Option{
		content.WithID(m.ID),
		content.WithBody(m.Body),
		content.WithAuthorID(m.AuthorID),
		content.WithActive(m.Active),
		content.WithCreatedAt(m.CreatedAt),
		content.WithUpdatedAt(m.UpdatedAt),
	}

	if m.TargetHierarchy != nil {
		family := hierarchy.Family(*m.TargetHierarchy)
		if !family.Valid() {
			return nil, errors.Errorf("corrupt content row %s: hierarchy %q", m.ID, *m.TargetHierarchy)
		}
		path := hierarchy.NewPath(family)
		if family == hierarchy.FamilySector && m.ExpatriateRegionID != nil {
			path = path.WithExpatriateRegion(*m.ExpatriateRegionID)
		}
		slots := targetSlots(m)
		for _, l := range hierarchy.Chain(family) {
			slot, ok := slots[l]
			if !ok || *slot == nil {
				break
			}
			next, err := path.Child(l, **slot)
			if err != nil {
				return nil, errors.Wrapf(err, "corrupt target chain on content row %s", m.ID)
			}
			path = next
		}
		opts = append(opts, content.WithTarget(path))
	}

	return content.New(content.Kind(m.Kind), m.Title, opts...), nil
}
