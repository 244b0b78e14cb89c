package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	contentsvc "github.com/tanzim-io/tanzim-sdk/modules/content/services"
	"github.com/tanzim-io/tanzim-sdk/modules/core/domain/aggregates/user"
	coresvc "github.com/tanzim-io/tanzim-sdk/modules/core/services"
	hierarchysvc "github.com/tanzim-io/tanzim-sdk/modules/hierarchy/services"
	"github.com/tanzim-io/tanzim-sdk/pkg/configuration"
	"github.com/tanzim-io/tanzim-sdk/pkg/dbretry"
	"github.com/tanzim-io/tanzim-sdk/pkg/health"
)

// Options bundles everything the HTTP surface depends on. Handlers stay
// thin: decode, call a service, encode.
type Options struct {
	Configuration *configuration.Configuration
	Logger        *logrus.Logger
	Pool          *pgxpool.Pool
	Users         user.Repository
	Probe         *health.Probe
	Retry         dbretry.Policy

	HierarchyService    *hierarchysvc.HierarchyService
	UserService         *coresvc.UserService
	ProvisioningService *coresvc.ProvisioningService
	ContentService      *contentsvc.ContentService
}

type Server struct {
	cfg    *configuration.Configuration
	logger *logrus.Logger
	pool   *pgxpool.Pool
	users  user.Repository
	probe  *health.Probe
	retry  dbretry.Policy

	hierarchy    *hierarchysvc.HierarchyService
	userSvc      *coresvc.UserService
	provisioning *coresvc.ProvisioningService
	content      *contentsvc.ContentService
}

// New wires the router and returns a ready-to-run HTTP server bound to the
// configured socket address.
func New(opts Options) *http.Server {
	s := &Server{
		cfg:          opts.Configuration,
		logger:       opts.Logger,
		pool:         opts.Pool,
		users:        opts.Users,
		probe:        opts.Probe,
		retry:        opts.Retry,
		hierarchy:    opts.HierarchyService,
		userSvc:      opts.UserService,
		provisioning: opts.ProvisioningService,
		content:      opts.ContentService,
	}

	r := mux.NewRouter()
	r.Use(s.requestID, s.withLogger)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle(s.cfg.MetricsPath, promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(s.withPool, s.withPrincipal)

	api.HandleFunc("/hierarchy/nodes", s.handleCreateNode).Methods(http.MethodPost)
	api.HandleFunc("/hierarchy/nodes", s.handleListNodes).Methods(http.MethodGet)
	api.HandleFunc("/hierarchy/nodes/{id}", s.handleGetNode).Methods(http.MethodGet)
	api.HandleFunc("/hierarchy/nodes/{id}", s.handleUpdateNode).Methods(http.MethodPut)
	api.HandleFunc("/hierarchy/nodes/{id}", s.handleDeleteNode).Methods(http.MethodDelete)
	api.HandleFunc("/hierarchy/nodes/{id}/deactivate", s.handleDeactivateNode).Methods(http.MethodPost)

	api.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", s.handleGetUser).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/deactivate", s.handleDeactivateUser).Methods(http.MethodPost)

	api.HandleFunc("/admins", s.handleProvisionAdmin).Methods(http.MethodPost)
	api.HandleFunc("/admins/assignable-nodes", s.handleAssignableNodes).Methods(http.MethodGet)

	api.HandleFunc("/content", s.handleCreateContent).Methods(http.MethodPost)
	api.HandleFunc("/content", s.handleListContent).Methods(http.MethodGet)
	api.HandleFunc("/content/{id}", s.handleGetContent).Methods(http.MethodGet)
	api.HandleFunc("/content/{id}", s.handleUpdateContent).Methods(http.MethodPut)
	api.HandleFunc("/content/{id}", s.handleDeleteContent).Methods(http.MethodDelete)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{s.cfg.Origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", principalHeader, s.cfg.RequestIDHeader},
		AllowCredentials: true,
	})

	return &http.Server{
		Addr:         s.cfg.SocketAddress,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.probe.Check(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
