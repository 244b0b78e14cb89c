package services_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/tanzim-io/tanzim-sdk/modules/core/domain/aggregates/user"
	coreservices "github.com/tanzim-io/tanzim-sdk/modules/core/services"
	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	hierarchysvc "github.com/tanzim-io/tanzim-sdk/modules/hierarchy/services"
	"github.com/tanzim-io/tanzim-sdk/pkg/access"
	"github.com/tanzim-io/tanzim-sdk/pkg/cache"
	"github.com/tanzim-io/tanzim-sdk/pkg/composables"
	"github.com/tanzim-io/tanzim-sdk/pkg/eventbus"
	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[uuid.UUID]*user.User{}}
}

func (r *memUserRepo) Create(_ context.Context, data *user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email() == data.Email() {
			return nil, serrors.Conflict("user with this email already exists")
		}
	}
	r.users[data.ID()] = data
	return data, nil
}

func (r *memUserRepo) Update(_ context.Context, data *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[data.ID()]; !ok {
		return serrors.NotFound("user not found")
	}
	r.users[data.ID()] = data
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, serrors.NotFound("user not found")
	}
	return u, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, serrors.NotFound("user not found")
}

func (r *memUserRepo) List(_ context.Context, params *user.FindParams) ([]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*user.User
	for _, u := range r.users {
		if params.Role != "" && u.Role() != params.Role {
			continue
		}
		if params.AdminLevel != "" && u.AdminLevel() != params.AdminLevel {
			continue
		}
		if params.Family != "" && u.ActiveHierarchy() != params.Family {
			continue
		}
		if params.AncestorLevel != "" && !u.Path().ContainsAt(params.AncestorLevel, params.AncestorID) {
			continue
		}
		if params.ActiveOnly && !u.Active() {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *memUserRepo) Count(ctx context.Context, params *user.FindParams) (int64, error) {
	users, err := r.List(ctx, params)
	if err != nil {
		return 0, err
	}
	return int64(len(users)), nil
}

func (r *memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return serrors.NotFound("user not found")
	}
	delete(r.users, id)
	return nil
}

type memNodeRepo struct {
	mu    sync.Mutex
	nodes map[uuid.UUID]*hierarchy.Node
}

func newMemNodeRepo() *memNodeRepo {
	return &memNodeRepo{nodes: map[uuid.UUID]*hierarchy.Node{}}
}

func (r *memNodeRepo) Create(_ context.Context, data *hierarchy.Node) (*hierarchy.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[data.ID()] = data
	return data, nil
}

func (r *memNodeRepo) Update(_ context.Context, data *hierarchy.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[data.ID()] = data
	return nil
}

func (r *memNodeRepo) GetByID(_ context.Context, id uuid.UUID) (*hierarchy.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[id]
	if !ok {
		return nil, serrors.NotFound("hierarchy node not found")
	}
	return n, nil
}

func (r *memNodeRepo) List(_ context.Context, params *hierarchy.FindParams) ([]*hierarchy.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*hierarchy.Node
	for _, n := range r.nodes {
		if params.Family != "" && n.Family() != params.Family {
			continue
		}
		if params.Level != "" && n.Level() != params.Level {
			continue
		}
		if params.AncestorLevel != "" && !n.ScopePath().ContainsAt(params.AncestorLevel, params.AncestorID) {
			continue
		}
		if params.ActiveOnly && !n.Active() {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *memNodeRepo) Count(ctx context.Context, params *hierarchy.FindParams) (int64, error) {
	nodes, err := r.List(ctx, params)
	if err != nil {
		return 0, err
	}
	return int64(len(nodes)), nil
}

func (r *memNodeRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.nodes, id)
	return nil
}

type noopTx struct{}

func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func testCtx(p access.Principal) context.Context {
	ctx := composables.WithTx(context.Background(), noopTx{})
	return composables.WithPrincipal(ctx, p)
}

func superuser() access.Principal {
	return access.Principal{
		ID:         uuid.New(),
		Role:       access.RoleAdmin,
		AdminLevel: access.AdminLevelAdmin,
	}
}

type fixture struct {
	users        *memUserRepo
	nodes        *memNodeRepo
	userSvc      *coreservices.UserService
	provisioning *coreservices.ProvisioningService
}

func newFixture() *fixture {
	log := logrus.New()
	log.SetOutput(io.Discard)
	users := newMemUserRepo()
	nodes := newMemNodeRepo()
	engine := access.NewEngine(log)
	bus := eventbus.NewEventPublisher(log)
	deriver := hierarchysvc.NewScopeDeriver(nodes, cache.New(time.Minute, time.Minute))
	return &fixture{
		users:        users,
		nodes:        nodes,
		userSvc:      coreservices.NewUserService(users, engine, bus),
		provisioning: coreservices.NewProvisioningService(users, nodes, deriver, engine, bus),
	}
}

// seedOriginalTree stores a national level with two regions and a locality
// under the first region, returning the created nodes.
func seedOriginalTree(f *fixture) (nl, r1, r2, loc *hierarchy.Node) {
	ctx := context.Background()

	nl = hierarchy.New(hierarchy.FamilyOriginal, hierarchy.LevelNationalLevel, "National")
	_, _ = f.nodes.Create(ctx, nl)
	nlID := nl.ID()

	regionPath, _ := hierarchy.NewPath(hierarchy.FamilyOriginal).Child(hierarchy.LevelNationalLevel, nl.ID())
	r1 = hierarchy.New(hierarchy.FamilyOriginal, hierarchy.LevelRegion, "Khartoum",
		hierarchy.WithParentID(&nlID), hierarchy.WithAncestors(regionPath))
	_, _ = f.nodes.Create(ctx, r1)
	r2 = hierarchy.New(hierarchy.FamilyOriginal, hierarchy.LevelRegion, "Kassala",
		hierarchy.WithParentID(&nlID), hierarchy.WithAncestors(regionPath))
	_, _ = f.nodes.Create(ctx, r2)

	r1ID := r1.ID()
	locPath, _ := regionPath.Child(hierarchy.LevelRegion, r1.ID())
	loc = hierarchy.New(hierarchy.FamilyOriginal, hierarchy.LevelLocality, "Bahri",
		hierarchy.WithParentID(&r1ID), hierarchy.WithAncestors(locPath))
	_, _ = f.nodes.Create(ctx, loc)
	return nl, r1, r2, loc
}

func regionAdmin(region *hierarchy.Node) access.Principal {
	return access.Principal{
		ID:              uuid.New(),
		Role:            access.RoleUser,
		AdminLevel:      access.AdminLevelRegion,
		ActiveHierarchy: hierarchy.FamilyOriginal,
		Path:            region.ScopePath(),
	}
}
