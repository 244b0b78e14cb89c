package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/tanzim-io/tanzim-sdk/pkg/composables"
	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type listResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var base *serrors.BaseError
	if stderrors.As(err, &base) {
		respondJSON(w, base.HTTPStatus(), errorResponse{Code: base.Code, Message: base.Message})
		return
	}

	composables.UseLogger(r.Context()).WithError(err).Error("request failed")
	msg := "internal server error"
	if s.cfg.ExposeInternalErrors {
		msg = err.Error()
	}
	respondJSON(w, http.StatusInternalServerError, errorResponse{Code: "INTERNAL", Message: msg})
}

func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return serrors.Validation("malformed request body")
	}
	return nil
}

// pagination clamps limit/offset query params to the configured page bounds.
func (s *Server) pagination(r *http.Request) (limit, offset int) {
	limit = s.cfg.PageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
