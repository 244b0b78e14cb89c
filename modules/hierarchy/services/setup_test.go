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

	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/services"
	"github.com/tanzim-io/tanzim-sdk/pkg/access"
	"github.com/tanzim-io/tanzim-sdk/pkg/cache"
	"github.com/tanzim-io/tanzim-sdk/pkg/composables"
	"github.com/tanzim-io/tanzim-sdk/pkg/eventbus"
	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

// memRepo is an in-memory hierarchy.Repository with the same error contract
// as the pgx-backed one, including the foreign-key conflict on delete.
type memRepo struct {
	mu    sync.Mutex
	nodes map[uuid.UUID]*hierarchy.Node
}

func newMemRepo() *memRepo {
	return &memRepo{nodes: map[uuid.UUID]*hierarchy.Node{}}
}

func (r *memRepo) Create(_ context.Context, data *hierarchy.Node) (*hierarchy.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[data.ID()] = data
	return data, nil
}

func (r *memRepo) Update(_ context.Context, data *hierarchy.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[data.ID()]; !ok {
		return serrors.NotFound("hierarchy node not found")
	}
	r.nodes[data.ID()] = data
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*hierarchy.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.nodes[id]
	if !ok {
		return nil, serrors.NotFound("hierarchy node not found")
	}
	return node, nil
}

func (r *memRepo) List(_ context.Context, params *hierarchy.FindParams) ([]*hierarchy.Node, error) {
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
		if params.SectorType != "" && n.SectorType() != params.SectorType {
			continue
		}
		if params.ParentID != nil && (n.ParentID() == nil || *n.ParentID() != *params.ParentID) {
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

func (r *memRepo) Count(ctx context.Context, params *hierarchy.FindParams) (int64, error) {
	nodes, err := r.List(ctx, params)
	if err != nil {
		return 0, err
	}
	return int64(len(nodes)), nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[id]; !ok {
		return serrors.NotFound("hierarchy node not found")
	}
	for _, n := range r.nodes {
		if n.ParentID() != nil && *n.ParentID() == id {
			return serrors.Conflict("cannot delete: has dependent records")
		}
	}
	delete(r.nodes, id)
	return nil
}

// noopTx satisfies repo.Tx so InTx joins it instead of opening a real
// transaction.
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

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(repo *memRepo) (*services.HierarchyService, *services.ScopeDeriver) {
	log := quietLogger()
	c := cache.New(time.Minute, time.Minute)
	deriver := services.NewScopeDeriver(repo, c)
	svc := services.NewHierarchyService(
		repo,
		deriver,
		access.NewEngine(log),
		eventbus.NewEventPublisher(log),
		c,
	)
	return svc, deriver
}

func mustPath(entries ...hierarchy.PathEntry) hierarchy.AncestorPath {
	if len(entries) == 0 {
		return hierarchy.AncestorPath{}
	}
	p := hierarchy.NewPath(entries[0].Level.Family())
	for _, e := range entries {
		next, err := p.Child(e.Level, e.ID)
		if err != nil {
			panic(err)
		}
		p = next
	}
	return p
}
