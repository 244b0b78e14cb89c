package persistence

import (
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/infrastructure/persistence/models"
)

// ancestorSlots maps each level that can appear in an ancestor chain to its
// pointer column. Leaf levels (districts) never appear as ancestors and have
// no slot.
func ancestorSlots(m *models.HierarchyNode) map[hierarchy.Level]**uuid.UUID {
	return map[hierarchy.Level]**uuid.UUID{
		hierarchy.LevelNationalLevel:       &m.NationalLevelID,
		hierarchy.LevelRegion:              &m.RegionID,
		hierarchy.LevelLocality:            &m.LocalityID,
		hierarchy.LevelAdminUnit:           &m.AdminUnitID,
		hierarchy.LevelExpatriateRegion:    &m.ExpatriateRegionID,
		hierarchy.LevelSectorNationalLevel: &m.SectorNationalLevelID,
		hierarchy.LevelSectorRegion:        &m.SectorRegionID,
		hierarchy.LevelSectorLocality:      &m.SectorLocalityID,
		hierarchy.LevelSectorAdminUnit:     &m.SectorAdminUnitID,
	}
}

func ToDBNode(entity *hierarchy.Node) *models.HierarchyNode {
	m := &models.HierarchyNode{
		ID:          entity.ID(),
		Family:      string(entity.Family()),
		Level:       string(entity.Level()),
		Name:        entity.Name(),
		Code:        entity.Code(),
		Description: entity.Description(),
		Active:      entity.Active(),
		AdminID:     entity.AdminID(),
		ParentID:    entity.ParentID(),
		CreatedAt:   entity.CreatedAt(),
		UpdatedAt:   entity.UpdatedAt(),
	}
	if st := entity.SectorType(); st != "" {
		s := string(st)
		m.SectorType = &s
	}

	slots := ancestorSlots(m)
	for _, e := range entity.Ancestors().Entries() {
		slot, ok := slots[e.Level]
		if !ok {
			continue
		}
		id := e.ID
		*slot = &id
	}
	if id, ok := entity.Ancestors().ExpatriateRegionID(); ok {
		m.ExpatriateRegionID = &id
	}
	return m
}

func ToDomainNode(m *models.HierarchyNode) (*hierarchy.Node, error) {
	family := hierarchy.Family(m.Family)
	level := hierarchy.Level(m.Level)
	if !family.Valid() || level.Family() != family {
		return nil, errors.Errorf("corrupt hierarchy row %s: family %q level %q", m.ID, m.Family, m.Level)
	}

	path := hierarchy.NewPath(family)
	if family == hierarchy.FamilySector && m.ExpatriateRegionID != nil {
		path = path.WithExpatriateRegion(*m.ExpatriateRegionID)
	}
	slots := ancestorSlots(m)
	for _, l := range hierarchy.Chain(family) {
		if l == level {
			break
		}
		slot, ok := slots[l]
		if !ok || *slot == nil {
			break
		}
		next, err := path.Child(l, **slot)
		if err != nil {
			return nil, errors.Wrapf(err, "corrupt ancestor chain on hierarchy row %s", m.ID)
		}
		path = next
	}

	opts := []hierarchy.Option{
		hierarchy.WithID(m.ID),
		hierarchy.WithCode(m.Code),
		hierarchy.WithDescription(m.Description),
		hierarchy.WithActive(m.Active),
		hierarchy.WithAdminID(m.AdminID),
		hierarchy.WithParentID(m.ParentID),
		hierarchy.WithAncestors(path),
		hierarchy.WithCreatedAt(m.CreatedAt),
		hierarchy.WithUpdatedAt(m.UpdatedAt),
	}
	if m.SectorType != nil {
		opts = append(opts, hierarchy.WithSectorType(hierarchy.SectorType(*m.SectorType)))
	}
	return hierarchy.New(family, level, m.Name, opts...), nil
}
