package content

import (
	"time"

	"github.com/google/uuid"

	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
)

// Content is any record published at a position in a hierarchy: bulletins,
// surveys, voting items, reports, subscription plans. The target path is a
// scope path of the targeted node; visibility checks compare against it.
type Content struct {
	id        uuid.UUID
	kind      Kind
	title     string
	body      string
	authorID  uuid.UUID
	target    hierarchy.AncestorPath
	active    bool
	createdAt time.Time
	updatedAt time.Time
}

type Option func(*Content)

func WithID(id uuid.UUID) Option {
	return func(c *Content) {
		c.id = id
	}
}

func WithBody(body string) Option {
	return func(c *Content) {
		c.body = body
	}
}

func WithAuthorID(authorID uuid.UUID) Option {
	return func(c *Content) {
		c.authorID = authorID
	}
}

func WithTarget(target hierarchy.AncestorPath) Option {
	return func(c *Content) {
		c.target = target
	}
}

func WithActive(active bool) Option {
	return func(c *Content) {
		c.active = active
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(c *Content) {
		c.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(c *Content) {
		c.updatedAt = updatedAt
	}
}

func New(kind Kind, title string, opts ...Option) *Content {
	c := &Content{
		id:        uuid.New(),
		kind:      kind,
		title:     title,
		active:    true,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Content) ID() uuid.UUID {
	return c.id
}

func (c *Content) Kind() Kind {
	return c.kind
}

func (c *Content) Title() string {
	return c.title
}

func (c *Content) Body() string {
	return c.body
}

func (c *Content) AuthorID() uuid.UUID {
	return c.authorID
}

func (c *Content) Target() hierarchy.AncestorPath {
	return c.target
}

func (c *Content) Active() bool {
	return c.active
}

func (c *Content) CreatedAt() time.Time {
	return c.createdAt
}

func (c *Content) UpdatedAt() time.Time {
	return c.updatedAt
}

func (c *Content) SetTitle(title string) {
	c.title = title
	c.updatedAt = time.Now()
}

func (c *Content) SetBody(body string) {
	c.body = body
	c.updatedAt = time.Now()
}

func (c *Content) SetActive(active bool) {
	c.active = active
	c.updatedAt = time.Now()
}

// Retarget replaces the target scope; callers must pass a freshly derived
// path.
func (c *Content) Retarget(target hierarchy.AncestorPath) {
	c.target = target
	c.updatedAt = time.Now()
}
