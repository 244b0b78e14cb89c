package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors the users table. Unlike hierarchy_nodes, the pointer columns
// go all the way down to the district levels because a user's scope path
// includes the node at their own level.
type User struct {
	ID                    uuid.UUID
	Email                 string
	FirstName             string
	LastName              string
	Role                  string
	AdminLevel            string
	ActiveHierarchy       *string
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
