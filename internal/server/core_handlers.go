package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tanzim-io/tanzim-sdk/modules/core/domain/aggregates/user"
	coresvc "github.com/tanzim-io/tanzim-sdk/modules/core/services"
	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	"github.com/tanzim-io/tanzim-sdk/pkg/access"
)

type userResponse struct {
	ID              uuid.UUID      `json:"id"`
	Email           string         `json:"email"`
	FirstName       string         `json:"firstName"`
	LastName        string         `json:"lastName"`
	Role            string         `json:"role"`
	AdminLevel      string         `json:"adminLevel"`
	ActiveHierarchy string         `json:"activeHierarchy,omitempty"`
	Scope           []pathEntryDTO `json:"scope"`
	Active          bool           `json:"active"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func toUserResponse(u *user.User) userResponse {
	scope := make([]pathEntryDTO, 0, u.Path().Depth())
	for _, e := range u.Path().Entries() {
		scope = append(scope, pathEntryDTO{Level: string(e.Level), ID: e.ID})
	}
	return userResponse{
		ID:              u.ID(),
		Email:           u.Email(),
		FirstName:       u.FirstName(),
		LastName:        u.LastName(),
		Role:            string(u.Role()),
		AdminLevel:      string(u.AdminLevel()),
		ActiveHierarchy: string(u.ActiveHierarchy()),
		Scope:           scope,
		Active:          u.Active(),
		CreatedAt:       u.CreatedAt(),
		UpdatedAt:       u.UpdatedAt(),
	}
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := s.pagination(r)
	params := &user.FindParams{
		Role:       access.Role(q.Get("role")),
		AdminLevel: access.AdminLevel(q.Get("adminLevel")),
		ActiveOnly: q.Get("active") == "true",
		Limit:      limit,
		Offset:     offset,
	}

	var users []*user.User
	var total int64
	err := s.retry.Do(r.Context(), func(ctx context.Context) error {
		var listErr error
		users, total, listErr = s.userSvc.GetManageable(ctx, params)
		return listErr
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toUserResponse(u))
	}
	respondJSON(w, http.StatusOK, listResponse{Items: items, Total: total})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var u *user.User
	err = s.retry.Do(r.Context(), func(ctx context.Context) error {
		var getErr error
		u, getErr = s.userSvc.GetByID(ctx, id)
		return getErr
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(u))
}

func (s *Server) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	u, err := s.userSvc.Deactivate(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(u))
}

type provisionAdminRequest struct {
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	AdminLevel string    `json:"adminLevel"`
	Family     string    `json:"family"`
	NodeID     uuid.UUID `json:"nodeId"`
}

func (s *Server) handleProvisionAdmin(w http.ResponseWriter, r *http.Request) {
	var req provisionAdminRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	u, err := s.provisioning.ProvisionAdmin(r.Context(), coresvc.ProvisionAdminCommand{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		AdminLevel: access.AdminLevel(req.AdminLevel),
		Family:     hierarchy.Family(req.Family),
		NodeID:     req.NodeID,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toUserResponse(u))
}

func (s *Server) handleAssignableNodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	family := hierarchy.Family(q.Get("family"))
	level := access.AdminLevel(q.Get("adminLevel"))

	var nodes []*hierarchy.Node
	err := s.retry.Do(r.Context(), func(ctx context.Context) error {
		var listErr error
		nodes, listErr = s.provisioning.AssignableNodes(ctx, family, level)
		return listErr
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	items := make([]nodeResponse, 0, len(nodes))
	for _, n := range nodes {
		items = append(items, toNodeResponse(n))
	}
	respondJSON(w, http.StatusOK, listResponse{Items: items, Total: int64(len(items))})
}
