package access

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

// OpKind is the operation class being authorized.
type OpKind string

const (
	OpRead        OpKind = "READ"
	OpWrite       OpKind = "WRITE"
	OpDelete      OpKind = "DELETE"
	OpCreateAdmin OpKind = "CREATE_ADMIN"
)

// Resource is the target of an authorization check. Path is the resource's
// scope path (its ancestor pointers plus its own entry).
type Resource struct {
	Type string
	ID   uuid.UUID
	Path hierarchy.AncestorPath
}

const (
	msgInsufficientPermissions = "Forbidden - Insufficient permissions"
	msgInvalidHierarchyLevel   = "Forbidden - Invalid hierarchy level"
)

// Engine is the access control decision core. It holds no mutable state; all
// decisions are pure functions of principal, operation, and resource. Denials
// carry the same error whether the resource exists or not.
type Engine struct {
	logger *logrus.Entry
}

func NewEngine(logger *logrus.Logger) *Engine {
	var entry *logrus.Entry
	if logger != nil {
		entry = logger.WithField("component", "access")
	} else {
		entry = logrus.WithField("component", "access")
	}
	return &Engine{logger: entry}
}

// Authorize applies the decision table: superuser carve-out first, then the
// exact-equality containment check at the principal's own level. A broader
// admin is NOT auto-approved for narrower levels; only the superuser rule
// crosses levels.
func (e *Engine) Authorize(ctx context.Context, p Principal, op OpKind, res Resource) error {
	if p.IsSuperuser() {
		e.record(op, true)
		return nil
	}
	level, ok := p.AdminLevel.NodeLevel(p.ActiveHierarchy)
	if !ok {
		return e.deny(ctx, p, op, res, msgInsufficientPermissions)
	}
	own, ok := p.Path.At(level)
	if !ok {
		return e.deny(ctx, p, op, res, msgInsufficientPermissions)
	}
	if !res.Path.ContainsAt(level, own) {
		return e.deny(ctx, p, op, res, msgInsufficientPermissions)
	}
	e.record(op, true)
	return nil
}

// RequireAdminLevel allows only principals whose rank is at least min's rank.
func (e *Engine) RequireAdminLevel(ctx context.Context, p Principal, min AdminLevel) error {
	if p.IsSuperuser() {
		return nil
	}
	if p.AdminLevel.Rank() < min.Rank() {
		return e.deny(ctx, p, OpWrite, Resource{}, msgInsufficientPermissions)
	}
	return nil
}

// AuthorizeHierarchy checks the principal's pointer at the given level
// against the resource's id at that same level. Equality only: a REGION
// admin does not pass a locality-level check for localities inside their
// region. Callers needing subsumption walk the ancestor chain explicitly.
func (e *Engine) AuthorizeHierarchy(ctx context.Context, p Principal, level hierarchy.Level, res Resource) error {
	if !level.Valid() {
		return e.deny(ctx, p, OpRead, res, msgInvalidHierarchyLevel)
	}
	if p.IsSuperuser() {
		e.record(OpRead, true)
		return nil
	}
	own, ok := p.Path.At(level)
	if !ok {
		return e.deny(ctx, p, OpRead, res, msgInsufficientPermissions)
	}
	if !res.Path.ContainsAt(level, own) {
		return e.deny(ctx, p, OpRead, res, msgInsufficientPermissions)
	}
	e.record(OpRead, true)
	return nil
}

// AuthorizeProvision gates admin creation: the creator's rank must be
// strictly greater than the requested level's rank, and the assignment node
// must sit inside the creator's subtree. Equal rank never suffices, so a
// DISTRICT admin can provision nobody.
func (e *Engine) AuthorizeProvision(ctx context.Context, p Principal, target AdminLevel, res Resource) error {
	if p.IsSuperuser() {
		e.record(OpCreateAdmin, true)
		return nil
	}
	if p.AdminLevel.Rank() <= target.Rank() {
		return e.deny(ctx, p, OpCreateAdmin, res, msgInsufficientPermissions)
	}
	if !e.contains(p, res.Path) {
		return e.deny(ctx, p, OpCreateAdmin, res, msgInsufficientPermissions)
	}
	e.record(OpCreateAdmin, true)
	return nil
}

// CanManageUser reports whether the target user's pointers at the admin's own
// level and above exactly match the admin's.
func (e *Engine) CanManageUser(p Principal, target hierarchy.AncestorPath) bool {
	return e.contains(p, target)
}

// CanManageContent applies the same containment test to a content record's
// target pointer set.
func (e *Engine) CanManageContent(p Principal, target hierarchy.AncestorPath) bool {
	return e.contains(p, target)
}

func (e *Engine) contains(p Principal, target hierarchy.AncestorPath) bool {
	if p.IsSuperuser() {
		return true
	}
	level, ok := p.AdminLevel.NodeLevel(p.ActiveHierarchy)
	if !ok {
		return false
	}
	if target.Family() != p.ActiveHierarchy {
		return false
	}
	for _, l := range hierarchy.Chain(p.ActiveHierarchy) {
		own, ok := p.Path.At(l)
		if !ok {
			return false
		}
		if !target.ContainsAt(l, own) {
			return false
		}
		if l == level {
			return true
		}
	}
	return false
}

// Filter describes the manageable-set restriction a repository applies to a
// listing query.
type Filter struct {
	Unrestricted bool
	Level        hierarchy.Level
	ID           uuid.UUID
}

// ManageableFilter computes the listing restriction for a principal: the
// pointer at the principal's own level, or unrestricted for superusers.
func (e *Engine) ManageableFilter(p Principal) (Filter, error) {
	if p.IsSuperuser() {
		return Filter{Unrestricted: true}, nil
	}
	level, ok := p.AdminLevel.NodeLevel(p.ActiveHierarchy)
	if !ok {
		return Filter{}, serrors.Forbidden(msgInsufficientPermissions)
	}
	own, ok := p.Path.At(level)
	if !ok {
		return Filter{}, serrors.Forbidden(msgInsufficientPermissions)
	}
	return Filter{Level: level, ID: own}, nil
}

func (e *Engine) deny(ctx context.Context, p Principal, op OpKind, res Resource, msg string) error {
	e.record(op, false)
	e.logger.WithContext(ctx).WithFields(logrus.Fields{
		"principal":   p.ID,
		"admin_level": p.AdminLevel,
		"hierarchy":   p.ActiveHierarchy,
		"operation":   op,
		"resource":    res.Type,
	}).Warn("access denied")
	return serrors.Forbidden(msg).WithTemplateData(map[string]string{
		"operation": string(op),
		"resource":  res.Type,
	})
}

func (e *Engine) record(op OpKind, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	decisionCounter.WithLabelValues(decision, string(op)).Inc()
}
