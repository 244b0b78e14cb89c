package hierarchy

import (
	"github.com/google/uuid"

	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

// PathEntry is one level of an ancestor chain.
type PathEntry struct {
	Level Level
	ID    uuid.UUID
}

// AncestorPath is the typed form of the denormalized ancestor pointers: an
// unbroken prefix of one family's chain, root first. Sector paths may also
// carry the cross-link to the expatriate region the sector tree is rooted
// under. The zero value is an empty path of no family.
type AncestorPath struct {
	family             Family
	entries            []PathEntry
	expatriateRegionID *uuid.UUID
}

// NewPath returns an empty path for the given family.
func NewPath(family Family) AncestorPath {
	return AncestorPath{family: family}
}

func (p AncestorPath) Family() Family {
	return p.family
}

// Entries returns a copy of the chain, root first.
func (p AncestorPath) Entries() []PathEntry {
	out := make([]PathEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

func (p AncestorPath) Depth() int {
	return len(p.entries)
}

// At returns the pointer stored at the given level.
func (p AncestorPath) At(level Level) (uuid.UUID, bool) {
	for _, e := range p.entries {
		if e.Level == level {
			return e.ID, true
		}
	}
	return uuid.Nil, false
}

// Last returns the deepest entry of the chain.
func (p AncestorPath) Last() (PathEntry, bool) {
	if len(p.entries) == 0 {
		return PathEntry{}, false
	}
	return p.entries[len(p.entries)-1], true
}

// Root returns the top entry of the chain.
func (p AncestorPath) Root() (PathEntry, bool) {
	if len(p.entries) == 0 {
		return PathEntry{}, false
	}
	return p.entries[0], true
}

// Child extends the path by one level. The level must be the next one in the
// family chain, which structurally enforces the unbroken-chain invariant.
func (p AncestorPath) Child(level Level, id uuid.UUID) (AncestorPath, error) {
	chain := Chain(p.family)
	if len(p.entries) >= len(chain) || chain[len(p.entries)] != level {
		return AncestorPath{}, serrors.Validationf(
			"level %s does not extend a %s path of depth %d",
			level, p.family, len(p.entries),
		)
	}
	next := AncestorPath{
		family:             p.family,
		entries:            make([]PathEntry, len(p.entries), len(p.entries)+1),
		expatriateRegionID: p.expatriateRegionID,
	}
	copy(next.entries, p.entries)
	next.entries = append(next.entries, PathEntry{Level: level, ID: id})
	return next, nil
}

// WithExpatriateRegion records the sector tree's expatriate root affiliation.
func (p AncestorPath) WithExpatriateRegion(id uuid.UUID) AncestorPath {
	p.expatriateRegionID = &id
	return p
}

// ExpatriateRegionID returns the sector cross-link, if any.
func (p AncestorPath) ExpatriateRegionID() (uuid.UUID, bool) {
	if p.expatriateRegionID == nil {
		return uuid.Nil, false
	}
	return *p.expatriateRegionID, true
}

// Equal reports whether two paths are identical, cross-link included.
func (p AncestorPath) Equal(o AncestorPath) bool {
	if p.family != o.family || len(p.entries) != len(o.entries) {
		return false
	}
	for i := range p.entries {
		if p.entries[i] != o.entries[i] {
			return false
		}
	}
	pe, pok := p.ExpatriateRegionID()
	oe, ook := o.ExpatriateRegionID()
	return pok == ook && pe == oe
}

// ContainsAt reports whether the path carries exactly the given id at the
// given level. This is the exact-equality containment test used by the access
// control engine.
func (p AncestorPath) ContainsAt(level Level, id uuid.UUID) bool {
	got, ok := p.At(level)
	return ok && got == id
}
