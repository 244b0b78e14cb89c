package services

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/tanzim-io/tanzim-sdk/modules/core/domain/aggregates/user"
	"github.com/tanzim-io/tanzim-sdk/pkg/access"
	"github.com/tanzim-io/tanzim-sdk/pkg/composables"
	"github.com/tanzim-io/tanzim-sdk/pkg/eventbus"
	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

// UserService exposes the manageable slice of the user base: an admin sees
// exactly the users whose scope pointer at the admin's own level matches.
type UserService struct {
	repo      user.Repository
	engine    *access.Engine
	publisher eventbus.EventBus
}

func NewUserService(repo user.Repository, engine *access.Engine, publisher eventbus.EventBus) *UserService {
	return &UserService{
		repo:      repo,
		engine:    engine,
		publisher: publisher,
	}
}

// GetManageable lists users inside the caller's subtree plus the unpaged
// total. Superusers see everyone.
func (s *UserService) GetManageable(ctx context.Context, params *user.FindParams) ([]*user.User, int64, error) {
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

	users, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list users")
	}
	total, err := s.repo.Count(ctx, params)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to count users")
	}
	return users, total, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	p, err := composables.UsePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	entity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.engine.CanManageUser(p, entity.Path()) {
		return nil, serrors.Forbidden("Forbidden - Insufficient permissions")
	}
	return entity, nil
}

func (s *UserService) Deactivate(ctx context.Context, id uuid.UUID) (*user.User, error) {
	p, err := composables.UsePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	var updated *user.User
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		entity, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if !s.engine.CanManageUser(p, entity.Path()) {
			return serrors.Forbidden("Forbidden - Insufficient permissions")
		}
		entity.SetActive(false)
		if err := s.repo.Update(txCtx, entity); err != nil {
			return err
		}
		updated = entity
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(user.NewUpdatedEvent(ctx, updated))
	return updated, nil
}
