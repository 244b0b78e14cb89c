package hierarchy

// Family identifies one of the three parallel hierarchy trees.
type Family string

const (
	FamilyOriginal   Family = "ORIGINAL"
	FamilyExpatriate Family = "EXPATRIATE"
	FamilySector     Family = "SECTOR"
)

func (f Family) Valid() bool {
	switch f {
	case FamilyOriginal, FamilyExpatriate, FamilySector:
		return true
	}
	return false
}

// SectorType tags every sector hierarchy node. It is fixed at the sector root
// and uniform across all five sector levels.
type SectorType string

const (
	SectorSocial         SectorType = "SOCIAL"
	SectorEconomic       SectorType = "ECONOMIC"
	SectorOrganizational SectorType = "ORGANIZATIONAL"
	SectorPolitical      SectorType = "POLITICAL"
)

func (s SectorType) Valid() bool {
	switch s {
	case SectorSocial, SectorEconomic, SectorOrganizational, SectorPolitical:
		return true
	}
	return false
}
