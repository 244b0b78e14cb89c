package models

import (
	"time"

	"github.com/google/uuid"
)

// Content mirrors the content_items table. Target pointer columns cover every
// level, matching the users table rather than hierarchy_nodes, because a
// target scope includes the targeted node itself.
type Content struct {
	ID                    uuid.UUID
	Kind                  string
	Title                 string
	Body                  string
	AuthorID              uuid.UUID
	TargetHierarchy       *string
	Active                bool
	NationalLevelID       *uuid.UUID
	RegionID              *uuid.UUID
	LocalityID            *uuid.UUID
	AdminUnitID           *uuid.UUID
	DistrictID            *uuid.UUID
	ExpatriateRegionID    *uuid.UUID
	SectorNationalLevelID *uuid.UUID
	SectorRegionID        *uuid.UUID
	SectorLocalityID      *uuid.UUID
	SectorAdminUnitID     *uuid.UUID
	SectorDistrictID      *uuid.UUID
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
