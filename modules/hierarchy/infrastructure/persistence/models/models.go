package models

import (
	"time"

	"github.com/google/uuid"
)

// HierarchyNode mirrors the hierarchy_nodes table. One ancestor pointer
// column per non-leaf level of each family; expatriate_region_id doubles as
// the sector tree's cross-link to its expatriate root.
type HierarchyNode struct {
	ID                    uuid.UUID
	Family                string
	Level                 string
	SectorType            *string
	Name                  string
	Code                  *string
	Description           string
	Active                bool
	AdminID               *uuid.UUID
	ParentID              *uuid.UUID
	NationalLevelID       *uuid.UUID
	RegionID              *uuid.UUID
	LocalityID            *uuid.UUID
	AdminUnitID           *uuid.UUID
	ExpatriateRegionID    *uuid.UUID
	SectorNationalLevelID *uuid.UUID
	SectorRegionID        *uuid.UUID
	SectorLocalityID      *uuid.UUID
	SectorAdminUnitID     *uuid.UUID
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
