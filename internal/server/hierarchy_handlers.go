package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	hierarchysvc "github.com/tanzim-io/tanzim-sdk/modules/hierarchy/services"
	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

type pathEntryDTO struct {
	Level string    `json:"level"`
	ID    uuid.UUID `json:"id"`
}

type nodeResponse struct {
	ID                 uuid.UUID      `json:"id"`
	Family             string         `json:"family"`
	Level              string         `json:"level"`
	SectorType         string         `json:"sectorType,omitempty"`
	Name               string         `json:"name"`
	Code               *string        `json:"code,omitempty"`
	Description        string         `json:"description"`
	Active             bool           `json:"active"`
	AdminID            *uuid.UUID     `json:"adminId,omitempty"`
	ParentID           *uuid.UUID     `json:"parentId,omitempty"`
	Ancestors          []pathEntryDTO `json:"ancestors"`
	ExpatriateRegionID *uuid.UUID     `json:"expatriateRegionId,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

func toNodeResponse(n *hierarchy.Node) nodeResponse {
	ancestors := make([]pathEntryDTO, 0, n.Ancestors().Depth())
	for _, e := range n.Ancestors().Entries() {
		ancestors = append(ancestors, pathEntryDTO{Level: string(e.Level), ID: e.ID})
	}
	resp := nodeResponse{
		ID:          n.ID(),
		Family:      string(n.Family()),
		Level:       string(n.Level()),
		SectorType:  string(n.SectorType()),
		Name:        n.Name(),
		Code:        n.Code(),
		Description: n.Description(),
		Active:      n.Active(),
		AdminID:     n.AdminID(),
		ParentID:    n.ParentID(),
		Ancestors:   ancestors,
		CreatedAt:   n.CreatedAt(),
		UpdatedAt:   n.UpdatedAt(),
	}
	if id, ok := n.Ancestors().ExpatriateRegionID(); ok {
		resp.ExpatriateRegionID = &id
	}
	return resp
}

// ancestorOverridesDTO carries caller-supplied ancestor pointers keyed by
// level name. They are verified against the derived chain, never stored.
type ancestorOverridesDTO map[string]uuid.UUID

func (d ancestorOverridesDTO) toOverrides(expatriateRegionID *uuid.UUID) (hierarchysvc.Overrides, error) {
	o := hierarchysvc.Overrides{ExpatriateRegionID: expatriateRegionID}
	if len(d) == 0 {
		return o, nil
	}
	o.Levels = make(map[hierarchy.Level]uuid.UUID, len(d))
	for raw, id := range d {
		level := hierarchy.Level(raw)
		if !level.Valid() {
			return o, serrors.Validationf("unknown hierarchy level %q", raw)
		}
		o.Levels[level] = id
	}
	return o, nil
}

type createNodeRequest struct {
	Family             string               `json:"family"`
	Level              string               `json:"level"`
	SectorType         string               `json:"sectorType"`
	Name               string               `json:"name"`
	Code               string               `json:"code"`
	Description        string               `json:"description"`
	ParentID           *uuid.UUID           `json:"parentId"`
	AdminID            *uuid.UUID           `json:"adminId"`
	Ancestors          ancestorOverridesDTO `json:"ancestors"`
	ExpatriateRegionID *uuid.UUID           `json:"expatriateRegionId"`
}

func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var req createNodeRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	supplied, err := req.Ancestors.toOverrides(req.ExpatriateRegionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	node, err := s.hierarchy.Create(r.Context(), hierarchysvc.CreateNodeCommand{
		Family:      hierarchy.Family(req.Family),
		Level:       hierarchy.Level(req.Level),
		SectorType:  hierarchy.SectorType(req.SectorType),
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		ParentID:    req.ParentID,
		AdminID:     req.AdminID,
		Supplied:    supplied,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toNodeResponse(node))
}

type updateNodeRequest struct {
	Name               string               `json:"name"`
	Code               string               `json:"code"`
	Description        string               `json:"description"`
	Active             *bool                `json:"active"`
	Reparent           bool                 `json:"reparent"`
	ParentID           *uuid.UUID           `json:"parentId"`
	SetAdmin           bool                 `json:"setAdmin"`
	AdminID            *uuid.UUID           `json:"adminId"`
	Ancestors          ancestorOverridesDTO `json:"ancestors"`
	ExpatriateRegionID *uuid.UUID           `json:"expatriateRegionId"`
	UpdatedAt          *time.Time           `json:"updatedAt"`
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req updateNodeRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	supplied, err := req.Ancestors.toOverrides(req.ExpatriateRegionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	node, err := s.hierarchy.Update(r.Context(), hierarchysvc.UpdateNodeCommand{
		ID:                id,
		Name:              req.Name,
		Code:              req.Code,
		Description:       req.Description,
		Active:            req.Active,
		Reparent:          req.Reparent,
		ParentID:          req.ParentID,
		SetAdmin:          req.SetAdmin,
		AdminID:           req.AdminID,
		Supplied:          supplied,
		LastSeenUpdatedAt: req.UpdatedAt,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toNodeResponse(node))
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var node *hierarchy.Node
	err = s.retry.Do(r.Context(), func(ctx context.Context) error {
		var getErr error
		node, getErr = s.hierarchy.GetByID(ctx, id)
		return getErr
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toNodeResponse(node))
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.hierarchy.Delete(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeactivateNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	node, err := s.hierarchy.Deactivate(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toNodeResponse(node))
}

func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := s.pagination(r)
	params := &hierarchy.FindParams{
		Family:     hierarchy.Family(q.Get("family")),
		Level:      hierarchy.Level(q.Get("level")),
		SectorType: hierarchy.SectorType(q.Get("sectorType")),
		ActiveOnly: q.Get("active") == "true",
		Limit:      limit,
		Offset:     offset,
	}
	if raw := q.Get("parentId"); raw != "" {
		parentID, err := uuid.Parse(raw)
		if err != nil {
			s.respondError(w, r, serrors.Validation("invalid parentId"))
			return
		}
		params.ParentID = &parentID
	}

	var nodes []*hierarchy.Node
	var total int64
	err := s.retry.Do(r.Context(), func(ctx context.Context) error {
		var listErr error
		nodes, total, listErr = s.hierarchy.List(ctx, params)
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
	respondJSON(w, http.StatusOK, listResponse{Items: items, Total: total})
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, serrors.Validation("invalid id")
	}
	return id, nil
}
