package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	"github.com/tanzim-io/tanzim-sdk/pkg/access"
)

// User is an account scoped to one position in one hierarchy family. The
// stored path is a scope path: it includes the pointer at the user's own
// level, which is what the manageable-set filter matches on.
type User struct {
	id              uuid.UUID
	email           string
	firstName       string
	lastName        string
	role            access.Role
	adminLevel      access.AdminLevel
	activeHierarchy hierarchy.Family
	path            hierarchy.AncestorPath
	active          bool
	createdAt       time.Time
	updatedAt       time.Time
}

type Option func(*User)

func WithID(id uuid.UUID) Option {
	return func(u *User) {
		u.id = id
	}
}

func WithRole(role access.Role) Option {
	return func(u *User) {
		u.role = role
	}
}

func WithAdminLevel(level access.AdminLevel) Option {
	return func(u *User) {
		u.adminLevel = level
	}
}

// WithScope anchors the user at a position in a hierarchy family.
func WithScope(family hierarchy.Family, path hierarchy.AncestorPath) Option {
	return func(u *User) {
		u.activeHierarchy = family
		u.path = path
	}
}

func WithActive(active bool) Option {
	return func(u *User) {
		u.active = active
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(u *User) {
		u.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(u *User) {
		u.updatedAt = updatedAt
	}
}

func New(email, firstName, lastName string, opts ...Option) *User {
	u := &User{
		id:         uuid.New(),
		email:      email,
		firstName:  firstName,
		lastName:   lastName,
		role:       access.RoleUser,
		adminLevel: access.AdminLevelUser,
		active:     true,
		createdAt:  time.Now(),
		updatedAt:  time.Now(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *User) ID() uuid.UUID {
	return u.id
}

func (u *User) Email() string {
	return u.email
}

func (u *User) FirstName() string {
	return u.firstName
}

func (u *User) LastName() string {
	return u.lastName
}

func (u *User) Role() access.Role {
	return u.role
}

func (u *User) AdminLevel() access.AdminLevel {
	return u.adminLevel
}

func (u *User) ActiveHierarchy() hierarchy.Family {
	return u.activeHierarchy
}

func (u *User) Path() hierarchy.AncestorPath {
	return u.path
}

func (u *User) Active() bool {
	return u.active
}

func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// Principal returns the claims bundle the access engine consumes.
func (u *User) Principal() access.Principal {
	return access.Principal{
		ID:              u.id,
		Role:            u.role,
		AdminLevel:      u.adminLevel,
		ActiveHierarchy: u.activeHierarchy,
		Path:            u.path,
	}
}

func (u *User) SetName(firstName, lastName string) {
	u.firstName = firstName
	u.lastName = lastName
	u.updatedAt = time.Now()
}

func (u *User) SetActive(active bool) {
	u.active = active
	u.updatedAt = time.Now()
}

// Promote changes the user's admin level and scope in one step so the level
// and the anchoring path can never disagree.
func (u *User) Promote(level access.AdminLevel, family hierarchy.Family, path hierarchy.AncestorPath) {
	u.adminLevel = level
	u.activeHierarchy = family
	u.path = path
	u.updatedAt = time.Now()
}
