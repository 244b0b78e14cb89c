package services

import (
	"context"
	"unicode"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	"github.com/tanzim-io/tanzim-sdk/pkg/cache"
	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

// Overrides carry caller-supplied ancestor pointers. Derivation never trusts
// them over the parent's stored chain; they exist only to be checked for
// drift.
type Overrides struct {
	Levels             map[hierarchy.Level]uuid.UUID
	ExpatriateRegionID *uuid.UUID
}

// ScopeDeriver computes the full ancestor-pointer set for a node from its
// immediate parent. Each node caches its own chain, so derivation reads one
// parent row instead of walking the tree.
type ScopeDeriver struct {
	repo  hierarchy.Repository
	cache *cache.Cache
}

func NewScopeDeriver(repo hierarchy.Repository, c *cache.Cache) *ScopeDeriver {
	return &ScopeDeriver{repo: repo, cache: c}
}

// Derive resolves the parent and returns the node's ancestor path. Root
// levels derive from themselves: their path is empty, optionally carrying the
// sector tree's expatriate affiliation.
func (d *ScopeDeriver) Derive(
	ctx context.Context,
	family hierarchy.Family,
	level hierarchy.Level,
	parentID *uuid.UUID,
	supplied Overrides,
) (hierarchy.AncestorPath, error) {
	if !family.Valid() || level.Family() != family {
		return hierarchy.AncestorPath{}, serrors.Validationf("invalid hierarchy level %q for family %q", level, family)
	}

	if level.IsRoot() {
		return d.deriveRoot(ctx, family, level, parentID, supplied)
	}

	parentLevel, _ := level.Parent()
	if parentID == nil {
		return hierarchy.AncestorPath{}, invalidParentErr(parentLevel)
	}
	parent, err := d.node(ctx, *parentID)
	if err != nil {
		if serrors.Is(err, serrors.CodeNotFound) {
			return hierarchy.AncestorPath{}, invalidParentErr(parentLevel)
		}
		return hierarchy.AncestorPath{}, errors.Wrap(err, "failed to resolve parent")
	}
	if parent.Level() != parentLevel {
		return hierarchy.AncestorPath{}, invalidParentErr(parentLevel)
	}

	derived, err := parent.Ancestors().Child(parent.Level(), parent.ID())
	if err != nil {
		return hierarchy.AncestorPath{}, errors.Wrap(err, "parent ancestor chain is broken")
	}
	if err := checkOverrides(derived, supplied); err != nil {
		return hierarchy.AncestorPath{}, err
	}
	return derived, nil
}

func (d *ScopeDeriver) deriveRoot(
	ctx context.Context,
	family hierarchy.Family,
	level hierarchy.Level,
	parentID *uuid.UUID,
	supplied Overrides,
) (hierarchy.AncestorPath, error) {
	if parentID != nil {
		return hierarchy.AncestorPath{}, serrors.Validationf("%s cannot have a parent", level.Human())
	}
	path := hierarchy.NewPath(family)

	// A sector tree is rooted either nationally or under one expatriate
	// region; the affiliation is fixed here and propagates unchanged.
	if level == hierarchy.LevelSectorNationalLevel && supplied.ExpatriateRegionID != nil {
		expat, err := d.node(ctx, *supplied.ExpatriateRegionID)
		if err != nil {
			if serrors.Is(err, serrors.CodeNotFound) {
				return hierarchy.AncestorPath{}, invalidParentErr(hierarchy.LevelExpatriateRegion)
			}
			return hierarchy.AncestorPath{}, errors.Wrap(err, "failed to resolve expatriate region")
		}
		if expat.Level() != hierarchy.LevelExpatriateRegion {
			return hierarchy.AncestorPath{}, invalidParentErr(hierarchy.LevelExpatriateRegion)
		}
		path = path.WithExpatriateRegion(expat.ID())
	}

	// A root's chain is empty, so any supplied ancestor pointer is drift just
	// like on deeper levels; it is never silently dropped.
	if err := checkOverrides(path, supplied); err != nil {
		return hierarchy.AncestorPath{}, err
	}
	return path, nil
}

// ScopeOf resolves a node and returns its scope path (ancestors plus the node
// itself), applying the same drift checks to any supplied pointers. Content
// targeting uses this to validate broader target pointers against the most
// specific one.
func (d *ScopeDeriver) ScopeOf(ctx context.Context, nodeID uuid.UUID, supplied Overrides) (hierarchy.AncestorPath, error) {
	node, err := d.node(ctx, nodeID)
	if err != nil {
		return hierarchy.AncestorPath{}, err
	}
	scope := node.ScopePath()
	if err := checkOverrides(scope, supplied); err != nil {
		return hierarchy.AncestorPath{}, err
	}
	return scope, nil
}

// node is a read-through lookup; entries are invalidated on every write to
// the node they describe.
func (d *ScopeDeriver) node(ctx context.Context, id uuid.UUID) (*hierarchy.Node, error) {
	key := nodeCacheKey(id)
	if v, ok := d.cache.Get(key); ok {
		if n, ok := v.(*hierarchy.Node); ok {
			return n, nil
		}
	}
	n, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.cache.Set(key, n)
	return n, nil
}

func nodeCacheKey(id uuid.UUID) string {
	return "node:" + id.String()
}

// checkOverrides rejects caller-supplied ancestor values that disagree with
// the derived chain. Derived values always win; a mismatch is drift, never a
// silent overwrite.
func checkOverrides(derived hierarchy.AncestorPath, supplied Overrides) error {
	for level, id := range supplied.Levels {
		derivedID, ok := derived.At(level)
		if !ok {
			return serrors.Validationf("Invalid %s ID", level.Human())
		}
		if derivedID != id {
			return serrors.Conflictf("%s ID conflicts with parent hierarchy", capitalize(level.Human()))
		}
	}
	// The expatriate affiliation is fixed at the sector tree's national root,
	// so a mismatch always conflicts with that root, whatever node the check
	// runs against.
	if supplied.ExpatriateRegionID != nil {
		derivedExpat, ok := derived.ExpatriateRegionID()
		if !ok || derivedExpat != *supplied.ExpatriateRegionID {
			return serrors.Conflictf(
				"Expatriate region ID conflicts with parent %s",
				hierarchy.LevelSectorNationalLevel.Human(),
			)
		}
	}
	return nil
}

func invalidParentErr(parentLevel hierarchy.Level) error {
	return serrors.Validationf("Invalid %s ID", parentLevel.Human())
}

func capitalize(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+1:]
	}
	return s
}
