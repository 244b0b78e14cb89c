package hierarchy

import (
	"time"

	"github.com/google/uuid"
)

// Node is one entry of a hierarchy tree. Ancestors are denormalized on the
// node itself; the scope derivation engine is the only writer of that field.
type Node struct {
	id          uuid.UUID
	family      Family
	level       Level
	sectorType  SectorType
	name        string
	code        *string
	description string
	active      bool
	adminID     *uuid.UUID
	parentID    *uuid.UUID
	ancestors   AncestorPath
	createdAt   time.Time
	updatedAt   time.Time
}

type Option func(*Node)

func WithID(id uuid.UUID) Option {
	return func(n *Node) {
		n.id = id
	}
}

func WithCode(code *string) Option {
	return func(n *Node) {
		n.code = code
	}
}

func WithDescription(description string) Option {
	return func(n *Node) {
		n.description = description
	}
}

func WithSectorType(st SectorType) Option {
	return func(n *Node) {
		n.sectorType = st
	}
}

func WithAdminID(adminID *uuid.UUID) Option {
	return func(n *Node) {
		n.adminID = adminID
	}
}

func WithParentID(parentID *uuid.UUID) Option {
	return func(n *Node) {
		n.parentID = parentID
	}
}

func WithAncestors(path AncestorPath) Option {
	return func(n *Node) {
		n.ancestors = path
	}
}

func WithActive(active bool) Option {
	return func(n *Node) {
		n.active = active
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(n *Node) {
		n.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(n *Node) {
		n.updatedAt = updatedAt
	}
}

func New(family Family, level Level, name string, opts ...Option) *Node {
	n := &Node{
		id:        uuid.New(),
		family:    family,
		level:     level,
		name:      name,
		active:    true,
		ancestors: NewPath(family),
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Node) ID() uuid.UUID {
	return n.id
}

func (n *Node) Family() Family {
	return n.family
}

func (n *Node) Level() Level {
	return n.level
}

func (n *Node) SectorType() SectorType {
	return n.sectorType
}

func (n *Node) Name() string {
	return n.name
}

func (n *Node) Code() *string {
	return n.code
}

func (n *Node) Description() string {
	return n.description
}

func (n *Node) Active() bool {
	return n.active
}

func (n *Node) AdminID() *uuid.UUID {
	return n.adminID
}

func (n *Node) ParentID() *uuid.UUID {
	return n.parentID
}

// Ancestors returns the derived ancestor path, excluding the node itself.
func (n *Node) Ancestors() AncestorPath {
	return n.ancestors
}

// ScopePath returns the ancestor path extended with the node's own entry.
// Containment checks against the node use this path.
func (n *Node) ScopePath() AncestorPath {
	p, err := n.ancestors.Child(n.level, n.id)
	if err != nil {
		// Ancestors were not derived for this node's level; the scope is
		// just the node itself viewed from an empty chain.
		return n.ancestors
	}
	return p
}

func (n *Node) CreatedAt() time.Time {
	return n.createdAt
}

func (n *Node) UpdatedAt() time.Time {
	return n.updatedAt
}

func (n *Node) SetName(name string) {
	n.name = name
	n.updatedAt = time.Now()
}

func (n *Node) SetCode(code *string) {
	n.code = code
	n.updatedAt = time.Now()
}

func (n *Node) SetDescription(description string) {
	n.description = description
	n.updatedAt = time.Now()
}

func (n *Node) SetActive(active bool) {
	n.active = active
	n.updatedAt = time.Now()
}

func (n *Node) SetAdminID(adminID *uuid.UUID) {
	n.adminID = adminID
	n.updatedAt = time.Now()
}

// SetParent reparents the node. Ancestors must be the freshly derived path
// for the new parent; descendants are not touched.
func (n *Node) SetParent(parentID *uuid.UUID, ancestors AncestorPath) {
	n.parentID = parentID
	n.ancestors = ancestors
	n.updatedAt = time.Now()
}
