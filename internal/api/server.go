// Package api is the HTTP control surface: liveness/readiness, Prometheus
// scraping, and an administrative fallback for bulk_disable/
// ensure_collection when a caller isn't going through MCP. Grounded on
// the reference's Server/NewServer composition-root pattern, trimmed to
// the handlers this module actually needs.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/patrickwarner/sponsorstream-match/internal/matching"
	"github.com/patrickwarner/sponsorstream-match/internal/mcpgate"
	"github.com/patrickwarner/sponsorstream-match/internal/vectorindex"
)

// Server groups the dependencies the HTTP handlers need.
type Server struct {
	Logger  *zap.Logger
	Index   vectorindex.Index
	Service *matching.Service
}

// NewServer constructs a Server.
func NewServer(logger *zap.Logger, index vectorindex.Index, svc *matching.Service) *Server {
	return &Server{Logger: logger, Index: index, Service: svc}
}

// Routes builds the router: health and metrics are always open,
// administrative routes go through the same scope gate MCP's
// administrative tools use. The whole surface is wrapped with otelhttp so
// control-plane calls land in the same trace backend as match requests.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/admin/ensure-collection", s.requireAdmin(s.EnsureCollectionHandler)).Methods(http.MethodPost)
	r.HandleFunc("/admin/bulk-disable", s.requireAdmin(s.BulkDisableHandler)).Methods(http.MethodPost)
	return otelhttp.NewHandler(r, "sponsorstream-match-api")
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := mcpgate.RequireAdminScope(); err != nil {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"permission_denied"}`))
			return
		}
		next(w, r)
	}
}
