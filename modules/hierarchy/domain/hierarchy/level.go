package hierarchy

// Level is a node's position within its family's chain, root first.
type Level string

const (
	LevelNationalLevel Level = "NATIONAL_LEVEL"
	LevelRegion        Level = "REGION"
	LevelLocality      Level = "LOCALITY"
	LevelAdminUnit     Level = "ADMIN_UNIT"
	LevelDistrict      Level = "DISTRICT"

	LevelExpatriateRegion Level = "EXPATRIATE_REGION"

	LevelSectorNationalLevel Level = "SECTOR_NATIONAL_LEVEL"
	LevelSectorRegion        Level = "SECTOR_REGION"
	LevelSectorLocality      Level = "SECTOR_LOCALITY"
	LevelSectorAdminUnit     Level = "SECTOR_ADMIN_UNIT"
	LevelSectorDistrict      Level = "SECTOR_DISTRICT"
)

var familyChains = map[Family][]Level{
	FamilyOriginal: {
		LevelNationalLevel,
		LevelRegion,
		LevelLocality,
		LevelAdminUnit,
		LevelDistrict,
	},
	FamilyExpatriate: {
		LevelExpatriateRegion,
	},
	FamilySector: {
		LevelSectorNationalLevel,
		LevelSectorRegion,
		LevelSectorLocality,
		LevelSectorAdminUnit,
		LevelSectorDistrict,
	},
}

var levelHumanNames = map[Level]string{
	LevelNationalLevel:       "national level",
	LevelRegion:              "region",
	LevelLocality:            "locality",
	LevelAdminUnit:           "admin unit",
	LevelDistrict:            "district",
	LevelExpatriateRegion:    "expatriate region",
	LevelSectorNationalLevel: "sector national level",
	LevelSectorRegion:        "sector region",
	LevelSectorLocality:      "sector locality",
	LevelSectorAdminUnit:     "sector admin unit",
	LevelSectorDistrict:      "sector district",
}

// Chain returns the family's levels ordered root first. The returned slice
// must not be mutated.
func Chain(f Family) []Level {
	return familyChains[f]
}

func (l Level) Valid() bool {
	_, ok := levelHumanNames[l]
	return ok
}

// Family returns the family the level belongs to.
func (l Level) Family() Family {
	for f, chain := range familyChains {
		for _, cl := range chain {
			if cl == l {
				return f
			}
		}
	}
	return ""
}

// Depth is the zero-based position within the family chain.
func (l Level) Depth() int {
	for _, chain := range familyChains {
		for i, cl := range chain {
			if cl == l {
				return i
			}
		}
	}
	return -1
}

// Parent returns the immediate parent level, or false for roots and unknown
// levels.
func (l Level) Parent() (Level, bool) {
	chain := familyChains[l.Family()]
	for i, cl := range chain {
		if cl == l {
			if i == 0 {
				return "", false
			}
			return chain[i-1], true
		}
	}
	return "", false
}

// IsRoot reports whether the level sits at the top of its family chain.
func (l Level) IsRoot() bool {
	chain := familyChains[l.Family()]
	return len(chain) > 0 && chain[0] == l
}

// Human returns the lowercase display name used in error messages.
func (l Level) Human() string {
	if name, ok := levelHumanNames[l]; ok {
		return name
	}
	return string(l)
}
