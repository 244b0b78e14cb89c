package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tanzim-io/tanzim-sdk/pkg/composables"
	"github.com/tanzim-io/tanzim-sdk/pkg/constants"
)

// principalHeader names the trusted identity header set by the upstream
// gateway after token verification. Token issuance and verification live
// outside this service.
const principalHeader = "X-User-Id"

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(s.cfg.RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(s.cfg.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), constants.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fields := logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}
		if id, ok := r.Context().Value(constants.RequestIDKey).(string); ok {
			fields["request_id"] = id
		}
		ctx := composables.WithLogger(r.Context(), s.logger.WithFields(fields))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) withPool(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(composables.WithPool(r.Context(), s.pool)))
	})
}

// withPrincipal resolves the identity header to a stored user and attaches
// the decoded claims bundle. Requests without a resolvable identity proceed
// anonymously; the services answer them with 401.
func (s *Server) withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(principalHeader)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		u, err := s.users.GetByID(ctx, id)
		if err != nil || !u.Active() {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(composables.WithPrincipal(ctx, u.Principal())))
	})
}
