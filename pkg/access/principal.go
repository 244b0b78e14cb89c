package access

import (
	"github.com/google/uuid"

	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
)

// Role is the coarse account role carried in the claims bundle.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// AdminLevel places a principal in the total order used for both "who may
// create whom" and "who may see what".
type AdminLevel string

const (
	AdminLevelUser               AdminLevel = "USER"
	AdminLevelDistrict           AdminLevel = "DISTRICT"
	AdminLevelAdminUnit          AdminLevel = "ADMIN_UNIT"
	AdminLevelLocality           AdminLevel = "LOCALITY"
	AdminLevelRegion             AdminLevel = "REGION"
	AdminLevelExpatriateRegion   AdminLevel = "EXPATRIATE_REGION"
	AdminLevelExpatriateGeneral  AdminLevel = "EXPATRIATE_GENERAL"
	AdminLevelNationalLevel      AdminLevel = "NATIONAL_LEVEL"
	AdminLevelGeneralSecretariat AdminLevel = "GENERAL_SECRETARIAT"
	AdminLevelAdmin              AdminLevel = "ADMIN"
)

var adminLevelRanks = map[AdminLevel]int{
	AdminLevelUser:               0,
	AdminLevelDistrict:           1,
	AdminLevelAdminUnit:          2,
	AdminLevelLocality:           3,
	AdminLevelRegion:             4,
	AdminLevelExpatriateRegion:   4,
	AdminLevelExpatriateGeneral:  5,
	AdminLevelNationalLevel:      6,
	AdminLevelGeneralSecretariat: 6,
	AdminLevelAdmin:              7,
}

// Rank returns the level's position in the total order. Unknown levels rank
// below USER.
func (l AdminLevel) Rank() int {
	if r, ok := adminLevelRanks[l]; ok {
		return r
	}
	return -1
}

func (l AdminLevel) Valid() bool {
	_, ok := adminLevelRanks[l]
	return ok
}

// NodeLevel maps the admin level onto the hierarchy level it occupies within
// the given family. USER and ADMIN occupy no node level.
func (l AdminLevel) NodeLevel(f hierarchy.Family) (hierarchy.Level, bool) {
	switch f {
	case hierarchy.FamilyOriginal:
		switch l {
		case AdminLevelDistrict:
			return hierarchy.LevelDistrict, true
		case AdminLevelAdminUnit:
			return hierarchy.LevelAdminUnit, true
		case AdminLevelLocality:
			return hierarchy.LevelLocality, true
		case AdminLevelRegion:
			return hierarchy.LevelRegion, true
		case AdminLevelNationalLevel, AdminLevelGeneralSecretariat:
			return hierarchy.LevelNationalLevel, true
		}
	case hierarchy.FamilyExpatriate:
		switch l {
		case AdminLevelExpatriateRegion, AdminLevelExpatriateGeneral:
			return hierarchy.LevelExpatriateRegion, true
		}
	case hierarchy.FamilySector:
		switch l {
		case AdminLevelDistrict:
			return hierarchy.LevelSectorDistrict, true
		case AdminLevelAdminUnit:
			return hierarchy.LevelSectorAdminUnit, true
		case AdminLevelLocality:
			return hierarchy.LevelSectorLocality, true
		case AdminLevelRegion:
			return hierarchy.LevelSectorRegion, true
		case AdminLevelNationalLevel, AdminLevelGeneralSecretariat:
			return hierarchy.LevelSectorNationalLevel, true
		}
	}
	return "", false
}

// Principal is the decoded claims bundle. Token issuance and verification are
// external collaborators; the engine only consumes the decoded form.
type Principal struct {
	ID              uuid.UUID
	Role            Role
	AdminLevel      AdminLevel
	ActiveHierarchy hierarchy.Family
	Path            hierarchy.AncestorPath
}

// IsSuperuser reports whether the principal bypasses all granular checks.
func (p Principal) IsSuperuser() bool {
	if p.Role == RoleAdmin {
		return true
	}
	switch p.AdminLevel {
	case AdminLevelAdmin, AdminLevelGeneralSecretariat, AdminLevelNationalLevel:
		return true
	}
	return false
}
