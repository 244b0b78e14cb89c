package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/validation"
	"github.com/tanzim-io/tanzim-sdk/pkg/access"
	"github.com/tanzim-io/tanzim-sdk/pkg/cache"
	"github.com/tanzim-io/tanzim-sdk/pkg/composables"
	"github.com/tanzim-io/tanzim-sdk/pkg/eventbus"
	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

const resourceHierarchyNode = "hierarchy_node"

// CreateNodeCommand describes a new node in any of the three families.
// Supplied ancestor pointers are checked against the derived chain, never
// written through.
type CreateNodeCommand struct {
	Family      hierarchy.Family
	Level       hierarchy.Level
	SectorType  hierarchy.SectorType
	Name        string
	Code        string
	Description string
	ParentID    *uuid.UUID
	AdminID     *uuid.UUID
	Supplied    Overrides
}

// UpdateNodeCommand mutates an existing node. Reparent must be set for
// ParentID to be applied so a nil parent can mean "detach to root" rather
// than "keep". SetAdmin works the same way for AdminID.
type UpdateNodeCommand struct {
	ID                uuid.UUID
	Name              string
	Code              string
	Description       string
	Active            *bool
	Reparent          bool
	ParentID          *uuid.UUID
	SetAdmin          bool
	AdminID           *uuid.UUID
	Supplied          Overrides
	LastSeenUpdatedAt *time.Time
}

// HierarchyService owns node lifecycle for all three hierarchy families.
// Every mutation is authorize -> normalize -> derive -> persist inside one
// transaction; events fire only after commit.
type HierarchyService struct {
	repo      hierarchy.Repository
	deriver   *ScopeDeriver
	engine    *access.Engine
	publisher eventbus.EventBus
	cache     *cache.Cache
}

func NewHierarchyService(
	repo hierarchy.Repository,
	deriver *ScopeDeriver,
	engine *access.Engine,
	publisher eventbus.EventBus,
	c *cache.Cache,
) *HierarchyService {
	return &HierarchyService{
		repo:      repo,
		deriver:   deriver,
		engine:    engine,
		publisher: publisher,
		cache:     c,
	}
}

func (s *HierarchyService) Create(ctx context.Context, cmd CreateNodeCommand) (*hierarchy.Node, error) {
	p, err := composables.UsePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	normalized, err := validation.NormalizeNodePayload(validation.NodePayload{
		Name:        cmd.Name,
		Code:        cmd.Code,
		Description: cmd.Description,
	})
	if err != nil {
		return nil, err
	}
	if err := validateSectorType(cmd.Family, cmd.SectorType); err != nil {
		return nil, err
	}

	var created *hierarchy.Node
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		ancestors, err := s.deriver.Derive(txCtx, cmd.Family, cmd.Level, cmd.ParentID, cmd.Supplied)
		if err != nil {
			return err
		}

		node := hierarchy.New(
			cmd.Family,
			cmd.Level,
			normalized.Name,
			hierarchy.WithCode(normalized.Code),
			hierarchy.WithDescription(normalized.Description),
			hierarchy.WithSectorType(cmd.SectorType),
			hierarchy.WithParentID(cmd.ParentID),
			hierarchy.WithAdminID(cmd.AdminID),
			hierarchy.WithAncestors(ancestors),
		)

		if err := s.engine.Authorize(txCtx, p, access.OpWrite, access.Resource{
			Type: resourceHierarchyNode,
			ID:   node.ID(),
			Path: node.ScopePath(),
		}); err != nil {
			return err
		}

		created, err = s.repo.Create(txCtx, node)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(hierarchy.NewCreatedEvent(ctx, created))
	return created, nil
}

func (s *HierarchyService) Update(ctx context.Context, cmd UpdateNodeCommand) (*hierarchy.Node, error) {
	p, err := composables.UsePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	normalized, err := validation.NormalizeNodePayload(validation.NodePayload{
		Name:        cmd.Name,
		Code:        cmd.Code,
		Description: cmd.Description,
	})
	if err != nil {
		return nil, err
	}

	var updated *hierarchy.Node
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		node, err := s.repo.GetByID(txCtx, cmd.ID)
		if err != nil {
			return err
		}

		if err := s.engine.Authorize(txCtx, p, access.OpWrite, access.Resource{
			Type: resourceHierarchyNode,
			ID:   node.ID(),
			Path: node.ScopePath(),
		}); err != nil {
			return err
		}
		if err := validation.CheckOptimisticLock(cmd.LastSeenUpdatedAt, node.UpdatedAt()); err != nil {
			return err
		}

		node.SetName(normalized.Name)
		node.SetCode(normalized.Code)
		node.SetDescription(normalized.Description)
		if cmd.Active != nil {
			node.SetActive(*cmd.Active)
		}
		if cmd.SetAdmin {
			node.SetAdminID(cmd.AdminID)
		}

		if cmd.Reparent {
			if err := s.reparent(txCtx, p, node, cmd.ParentID, cmd.Supplied); err != nil {
				return err
			}
		} else if err := checkOverrides(node.ScopePath(), cmd.Supplied); err != nil {
			return err
		}

		if err := s.repo.Update(txCtx, node); err != nil {
			return err
		}
		updated = node
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(nodeCacheKey(updated.ID()))
	s.publisher.Publish(hierarchy.NewUpdatedEvent(ctx, updated))
	return updated, nil
}

// reparent re-derives the node's chain under the new parent. Descendants keep
// their stored chains; only the moved node is rewritten.
func (s *HierarchyService) reparent(
	ctx context.Context,
	p access.Principal,
	node *hierarchy.Node,
	newParentID *uuid.UUID,
	supplied Overrides,
) error {
	derived, err := s.deriver.Derive(ctx, node.Family(), node.Level(), newParentID, supplied)
	if err != nil {
		return err
	}

	// A sector subtree is pinned to its root affiliation. Moving a node
	// under a differently affiliated parent requires an explicit migration,
	// not a reparent.
	if node.Family() == hierarchy.FamilySector {
		oldExpat, oldOK := node.Ancestors().ExpatriateRegionID()
		newExpat, newOK := derived.ExpatriateRegionID()
		if oldOK != newOK || (oldOK && oldExpat != newExpat) {
			return serrors.Conflict("sector node cannot change expatriate affiliation by reparenting")
		}
	}

	node.SetParent(newParentID, derived)

	return s.engine.Authorize(ctx, p, access.OpWrite, access.Resource{
		Type: resourceHierarchyNode,
		ID:   node.ID(),
		Path: node.ScopePath(),
	})
}

// Delete removes a node. Rows referenced by children, users, or content are
// protected by foreign keys; the repository maps that violation to a conflict.
func (s *HierarchyService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := composables.UsePrincipal(ctx)
	if err != nil {
		return err
	}

	err = composables.InTx(ctx, func(txCtx context.Context) error {
		node, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.engine.Authorize(txCtx, p, access.OpDelete, access.Resource{
			Type: resourceHierarchyNode,
			ID:   node.ID(),
			Path: node.ScopePath(),
		}); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(nodeCacheKey(id))
	s.publisher.Publish(hierarchy.NewDeletedEvent(ctx))
	return nil
}

// Deactivate is the soft delete: the node stays referencable but drops out of
// active listings.
func (s *HierarchyService) Deactivate(ctx context.Context, id uuid.UUID) (*hierarchy.Node, error) {
	p, err := composables.UsePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	var updated *hierarchy.Node
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		node, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.engine.Authorize(txCtx, p, access.OpWrite, access.Resource{
			Type: resourceHierarchyNode,
			ID:   node.ID(),
			Path: node.ScopePath(),
		}); err != nil {
			return err
		}
		node.SetActive(false)
		if err := s.repo.Update(txCtx, node); err != nil {
			return err
		}
		updated = node
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(nodeCacheKey(id))
	s.publisher.Publish(hierarchy.NewUpdatedEvent(ctx, updated))
	return updated, nil
}

func (s *HierarchyService) GetByID(ctx context.Context, id uuid.UUID) (*hierarchy.Node, error) {
	p, err := composables.UsePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	node, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, p, access.OpRead, access.Resource{
		Type: resourceHierarchyNode,
		ID:   node.ID(),
		Path: node.ScopePath(),
	}); err != nil {
		return nil, err
	}
	return node, nil
}

// List returns the nodes visible to the caller plus the unpaged total. The
// manageable filter narrows the query to the caller's subtree before it hits
// the database.
func (s *HierarchyService) List(ctx context.Context, params *hierarchy.FindParams) ([]*hierarchy.Node, int64, error) {
	p, err := composables.UsePrincipal(ctx)
	if err != nil {
		return nil, 0, err
	}
	filter, err := s.engine.ManageableFilter(p)
	if err != nil {
		return nil, 0, err
	}
	if !filter.Unrestricted {
		params.AncestorLevel = filter.Level
		params.AncestorID = filter.ID
	}

	nodes, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list hierarchy nodes")
	}
	total, err := s.repo.Count(ctx, params)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to count hierarchy nodes")
	}
	return nodes, total, nil
}

func validateSectorType(family hierarchy.Family, st hierarchy.SectorType) error {
	if family == hierarchy.FamilySector {
		if !st.Valid() {
			return serrors.Validationf("invalid sector type %q", st)
		}
		return nil
	}
	if st != "" {
		return serrors.Validationf("sector type is only valid for sector hierarchy nodes")
	}
	return nil
}
