package services

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tanzim-io/tanzim-sdk/modules/core/domain/aggregates/user"
	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	hierarchysvc "github.com/tanzim-io/tanzim-sdk/modules/hierarchy/services"
	"github.com/tanzim-io/tanzim-sdk/pkg/access"
	"github.com/tanzim-io/tanzim-sdk/pkg/composables"
	"github.com/tanzim-io/tanzim-sdk/pkg/eventbus"
	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ProvisionAdminCommand requests a new admin anchored at one hierarchy node.
type ProvisionAdminCommand struct {
	Email      string `validate:"required,email"`
	FirstName  string `validate:"required"`
	LastName   string
	AdminLevel access.AdminLevel
	Family     hierarchy.Family
	NodeID     uuid.UUID
}

// ProvisioningService creates admins. The creator must outrank the requested
// level strictly and the assignment node must be inside the creator's
// subtree.
type ProvisioningService struct {
	users     user.Repository
	nodes     hierarchy.Repository
	deriver   *hierarchysvc.ScopeDeriver
	engine    *access.Engine
	publisher eventbus.EventBus
}

func NewProvisioningService(
	users user.Repository,
	nodes hierarchy.Repository,
	deriver *hierarchysvc.ScopeDeriver,
	engine *access.Engine,
	publisher eventbus.EventBus,
) *ProvisioningService {
	return &ProvisioningService{
		users:     users,
		nodes:     nodes,
		deriver:   deriver,
		engine:    engine,
		publisher: publisher,
	}
}

func (s *ProvisioningService) ProvisionAdmin(ctx context.Context, cmd ProvisionAdminCommand) (*user.User, error) {
	p, err := composables.UsePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	cmd.Email = strings.TrimSpace(strings.ToLower(cmd.Email))
	cmd.FirstName = strings.TrimSpace(cmd.FirstName)
	cmd.LastName = strings.TrimSpace(cmd.LastName)
	if err := validate.Struct(cmd); err != nil {
		return nil, serrors.Validation("invalid email address")
	}
	if !cmd.AdminLevel.Valid() || cmd.AdminLevel == access.AdminLevelUser {
		return nil, serrors.Validationf("invalid admin level %q", cmd.AdminLevel)
	}

	// The requested level must occupy a node level within the chosen family;
	// ADMIN and GENERAL_SECRETARIAT are assigned out of band.
	nodeLevel, ok := cmd.AdminLevel.NodeLevel(cmd.Family)
	if !ok {
		return nil, serrors.Forbidden("Forbidden - Invalid hierarchy level")
	}

	var created *user.User
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		scope, err := s.deriver.ScopeOf(txCtx, cmd.NodeID, hierarchysvc.Overrides{})
		if err != nil {
			return err
		}
		last, ok := scope.Last()
		if !ok || last.Level != nodeLevel {
			return serrors.Forbidden("Forbidden - Invalid hierarchy level")
		}

		if err := s.engine.AuthorizeProvision(txCtx, p, cmd.AdminLevel, access.Resource{
			Type: "user",
			ID:   cmd.NodeID,
			Path: scope,
		}); err != nil {
			return err
		}

		entity := user.New(
			cmd.Email,
			cmd.FirstName,
			cmd.LastName,
			user.WithRole(access.RoleUser),
			user.WithAdminLevel(cmd.AdminLevel),
			user.WithScope(cmd.Family, scope),
		)
		created, err = s.users.Create(txCtx, entity)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(user.NewCreatedEvent(ctx, created))
	return created, nil
}

// AssignableNodes lists the nodes the caller may anchor a new admin of the
// given level to: nodes at the level's position, inside the caller's subtree.
func (s *ProvisioningService) AssignableNodes(ctx context.Context, family hierarchy.Family, level access.AdminLevel) ([]*hierarchy.Node, error) {
	p, err := composables.UsePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	nodeLevel, ok := level.NodeLevel(family)
	if !ok {
		return nil, serrors.Forbidden("Forbidden - Invalid hierarchy level")
	}
	filter, err := s.engine.ManageableFilter(p)
	if err != nil {
		return nil, err
	}

	params := &hierarchy.FindParams{
		Family:     family,
		Level:      nodeLevel,
		ActiveOnly: true,
	}
	if !filter.Unrestricted {
		params.AncestorLevel = filter.Level
		params.AncestorID = filter.ID
	}
	return s.nodes.List(ctx, params)
}
