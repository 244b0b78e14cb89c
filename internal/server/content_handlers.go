package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tanzim-io/tanzim-sdk/modules/content/domain/content"
	contentsvc "github.com/tanzim-io/tanzim-sdk/modules/content/services"
	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
)

type contentResponse struct {
	ID        uuid.UUID      `json:"id"`
	Kind      string         `json:"kind"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	AuthorID  uuid.UUID      `json:"authorId"`
	Target    []pathEntryDTO `json:"target"`
	Active    bool           `json:"active"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func toContentResponse(c *content.Content) contentResponse {
	target := make([]pathEntryDTO, 0, c.Target().Depth())
	for _, e := range c.Target().Entries() {
		target = append(target, pathEntryDTO{Level: string(e.Level), ID: e.ID})
	}
	return contentResponse{
		ID:        c.ID(),
		Kind:      string(c.Kind()),
		Title:     c.Title(),
		Body:      c.Body(),
		AuthorID:  c.AuthorID(),
		Target:    target,
		Active:    c.Active(),
		CreatedAt: c.CreatedAt(),
		UpdatedAt: c.UpdatedAt(),
	}
}

type createContentRequest struct {
	Kind               string               `json:"kind"`
	Title              string               `json:"title"`
	Body               string               `json:"body"`
	TargetNodeID       uuid.UUID            `json:"targetNodeId"`
	Ancestors          ancestorOverridesDTO `json:"ancestors"`
	ExpatriateRegionID *uuid.UUID           `json:"expatriateRegionId"`
}

func (s *Server) handleCreateContent(w http.ResponseWriter, r *http.Request) {
	var req createContentRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	supplied, err := req.Ancestors.toOverrides(req.ExpatriateRegionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	item, err := s.content.Create(r.Context(), contentsvc.CreateContentCommand{
		Kind:         content.Kind(req.Kind),
		Title:        req.Title,
		Body:         req.Body,
		TargetNodeID: req.TargetNodeID,
		Supplied:     supplied,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toContentResponse(item))
}

type updateContentRequest struct {
	Title              string               `json:"title"`
	Body               string               `json:"body"`
	Active             *bool                `json:"active"`
	Retarget           bool                 `json:"retarget"`
	TargetNodeID       uuid.UUID            `json:"targetNodeId"`
	Ancestors          ancestorOverridesDTO `json:"ancestors"`
	ExpatriateRegionID *uuid.UUID           `json:"expatriateRegionId"`
	UpdatedAt          *time.Time           `json:"updatedAt"`
}

func (s *Server) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req updateContentRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	supplied, err := req.Ancestors.toOverrides(req.ExpatriateRegionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	item, err := s.content.Update(r.Context(), contentsvc.UpdateContentCommand{
		ID:                id,
		Title:             req.Title,
		Body:              req.Body,
		Active:            req.Active,
		Retarget:          req.Retarget,
		TargetNodeID:      req.TargetNodeID,
		Supplied:          supplied,
		LastSeenUpdatedAt: req.UpdatedAt,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toContentResponse(item))
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var item *content.Content
	err = s.retry.Do(r.Context(), func(ctx context.Context) error {
		var getErr error
		item, getErr = s.content.GetByID(ctx, id)
		return getErr
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toContentResponse(item))
}

func (s *Server) handleDeleteContent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.content.Delete(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := s.pagination(r)
	params := &content.FindParams{
		Kind:       content.Kind(q.Get("kind")),
		Family:     hierarchy.Family(q.Get("family")),
		ActiveOnly: q.Get("active") == "true",
		Limit:      limit,
		Offset:     offset,
	}

	var items []*content.Content
	var total int64
	err := s.retry.Do(r.Context(), func(ctx context.Context) error {
		var listErr error
		items, total, listErr = s.content.GetManageable(ctx, params)
		return listErr
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := make([]contentResponse, 0, len(items))
	for _, c := range items {
		resp = append(resp, toContentResponse(c))
	}
	respondJSON(w, http.StatusOK, listResponse{Items: resp, Total: total})
}
