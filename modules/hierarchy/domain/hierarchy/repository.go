package hierarchy

import (
	"context"

	"github.com/google/uuid"
)

// FindParams filter node listings. AncestorLevel/AncestorID restrict results
// to nodes whose denormalized pointer at that level equals the id, which is
// how subtree listings and manageable sets are computed.
type FindParams struct {
	Family        Family
	Level         Level
	SectorType    SectorType
	ParentID      *uuid.UUID
	AncestorLevel Level
	AncestorID    uuid.UUID
	ActiveOnly    bool
	Limit         int
	Offset        int
}

type Repository interface {
	Create(ctx context.Context, data *Node) (*Node, error)
	Update(ctx context.Context, data *Node) error
	GetByID(ctx context.Context, id uuid.UUID) (*Node, error)
	List(ctx context.Context, params *FindParams) ([]*Node, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
