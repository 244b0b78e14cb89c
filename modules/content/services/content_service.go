package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/tanzim-io/tanzim-sdk/modules/content/domain/content"
	hierarchysvc "github.com/tanzim-io/tanzim-sdk/modules/hierarchy/services"
	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/validation"
	"github.com/tanzim-io/tanzim-sdk/pkg/access"
	"github.com/tanzim-io/tanzim-sdk/pkg/composables"
	"github.com/tanzim-io/tanzim-sdk/pkg/eventbus"
	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

const resourceContent = "content"

// CreateContentCommand publishes a record at one hierarchy node. Supplied
// broader pointers are checked against the node's derived chain, exactly like
// node creation.
type CreateContentCommand struct {
	Kind         content.Kind
	Title        string
	Body         string
	TargetNodeID uuid.UUID
	Supplied     hierarchysvc.Overrides
}

type UpdateContentCommand struct {
	ID                uuid.UUID
	Title             string
	Body              string
	Active            *bool
	Retarget          bool
	TargetNodeID      uuid.UUID
	Supplied          hierarchysvc.Overrides
	LastSeenUpdatedAt *time.Time
}

// ContentService owns scoped content lifecycle. Targets are always derived
// from the targeted node's stored chain, never taken from the caller.
type ContentService struct {
	repo      content.Repository
	deriver   *hierarchysvc.ScopeDeriver
	engine    *access.Engine
	publisher eventbus.EventBus
}

func NewContentService(
	repo content.Repository,
	deriver *hierarchysvc.ScopeDeriver,
	engine *access.Engine,
	publisher eventbus.EventBus,
) *ContentService {
	return &ContentService{
		repo:      repo,
		deriver:   deriver,
		engine:    engine,
		publisher: publisher,
	}
}

func (s *ContentService) Create(ctx context.Context, cmd CreateContentCommand) (*content.Content, error) {
	p, err := composables.UsePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if !cmd.Kind.Valid() {
		return nil, serrors.Validationf("invalid content kind %q", cmd.Kind)
	}
	cmd.Title = strings.TrimSpace(cmd.Title)
	if cmd.Title == "" {
		return nil, serrors.Validation("Name is required")
	}

	var created *content.Content
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		target, err := s.deriver.ScopeOf(txCtx, cmd.TargetNodeID, cmd.Supplied)
		if err != nil {
			return err
		}

		entity := content.New(
			cmd.Kind,
			cmd.Title,
			content.WithBody(cmd.Body),
			content.WithAuthorID(p.ID),
			content.WithTarget(target),
		)

		if err := s.engine.Authorize(txCtx, p, access.OpWrite, access.Resource{
			Type: resourceContent,
			ID:   entity.ID(),
			Path: target,
		}); err != nil {
			return err
		}

		created, err = s.repo.Create(txCtx, entity)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(content.NewCreatedEvent(ctx, created))
	return created, nil
}

func (s *ContentService) Update(ctx context.Context, cmd UpdateContentCommand) (*content.Content, error) {
	p, err := composables.UsePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	cmd.Title = strings.TrimSpace(cmd.Title)
	if cmd.Title == "" {
		return nil, serrors.Validation("Name is required")
	}

	var updated *content.Content
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		entity, err := s.repo.GetByID(txCtx, cmd.ID)
		if err != nil {
			return err
		}
		if !s.engine.CanManageContent(p, entity.Target()) {
			return serrors.Forbidden("Forbidden - Insufficient permissions")
		}
		if err := validation.CheckOptimisticLock(cmd.LastSeenUpdatedAt, entity.UpdatedAt()); err != nil {
			return err
		}

		entity.SetTitle(cmd.Title)
		entity.SetBody(cmd.Body)
		if cmd.Active != nil {
			entity.SetActive(*cmd.Active)
		}
		if cmd.Retarget {
			target, err := s.deriver.ScopeOf(txCtx, cmd.TargetNodeID, cmd.Supplied)
			if err != nil {
				return err
			}
			if !s.engine.CanManageContent(p, target) {
				return serrors.Forbidden("Forbidden - Insufficient permissions")
			}
			entity.Retarget(target)
		}

		if err := s.repo.Update(txCtx, entity); err != nil {
			return err
		}
		updated = entity
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(content.NewUpdatedEvent(ctx, updated))
	return updated, nil
}

func (s *ContentService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := composables.UsePrincipal(ctx)
	if err != nil {
		return err
	}

	err = composables.InTx(ctx, func(txCtx context.Context) error {
		entity, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if !s.engine.CanManageContent(p, entity.Target()) {
			return serrors.Forbidden("Forbidden - Insufficient permissions")
		}
		return s.repo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(content.NewDeletedEvent(ctx))
	return nil
}

func (s *ContentService) GetByID(ctx context.Context, id uuid.UUID) (*content.Content, error) {
	p, err := composables.UsePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	entity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.engine.CanManageContent(p, entity.Target()) {
		return nil, serrors.Forbidden("Forbidden - Insufficient permissions")
	}
	return entity, nil
}

// GetManageable lists content inside the caller's subtree plus the unpaged
// total.
func (s *ContentService) GetManageable(ctx context.Context, params *content.FindParams) ([]*content.Content, int64, error) {
	p, err := composables.UsePrincipal(ctx)
	if err != nil {
		return nil, 0, err
	}
	filter, err := s.engine.ManageableFilter(p)
	if err != nil {
		return nil, 0, err
	}
	if !filter.Unrestricted {
		params.Family = p.ActiveHierarchy
		params.AncestorLevel = filter.Level
		params.AncestorID = filter.ID
	}

	records, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list content")
	}
	total, err := s.repo.Count(ctx, params)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to count content")
	}
	return records, total, nil
}
