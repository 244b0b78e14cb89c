package content

import (
	"context"

	"github.com/google/uuid"

	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
)

// FindParams filter content listings. AncestorLevel/AncestorID restrict
// results to records whose target pointer at that level equals the id.
type FindParams struct {
	Kind          Kind
	Family        hierarchy.Family
	AncestorLevel hierarchy.Level
	AncestorID    uuid.UUID
	ActiveOnly    bool
	Limit         int
	Offset        int
}

type Repository interface {
	Create(ctx context.Context, data *Content) (*Content, error)
	Update(ctx context.Context, data *Content) error
	GetByID(ctx context.Context, id uuid.UUID) (*Content, error)
	List(ctx context.Context, params *FindParams) ([]*Content, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
