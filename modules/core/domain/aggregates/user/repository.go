package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	"github.com/tanzim-io/tanzim-sdk/pkg/access"
)

// FindParams filter user listings. AncestorLevel/AncestorID restrict results
// to users whose scope pointer at that level equals the id.
type FindParams struct {
	Role          access.Role
	AdminLevel    access.AdminLevel
	Family        hierarchy.Family
	AncestorLevel hierarchy.Level
	AncestorID    uuid.UUID
	ActiveOnly    bool
	Limit         int
	Offset        int
}

type Repository interface {
	Create(ctx context.Context, data *User) (*User, error)
	Update(ctx context.Context, data *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, params *FindParams) ([]*User, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
