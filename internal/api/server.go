// Package api exposes the custody operations over HTTP.
//
// Routing and request parsing live here, at the boundary; all custody
// semantics stay in the engines. Handlers decode into typed request
// structs, call one engine operation, and map the coded error to a stable
// HTTP status.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ledgertrace/custodia/internal/custody"
	"github.com/ledgertrace/custodia/internal/identity"
)

// Server is the HTTP front for the custody and waste engines.
type Server struct {
	materials *custody.Engine
	waste     *custody.WasteEngine
	companies *identity.Service
	router    chi.Router
}

// New wires the engines into a routed server.
func New(materials *custody.Engine, waste *custody.WasteEngine, companies *identity.Service) *Server {
	s := &Server{
		materials: materials,
		waste:     waste,
		companies: companies,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(logRequests)

	r.Route("/api/materials", func(r chi.Router) {
		r.Get("/", s.handleListMaterials)
		r.Post("/", s.handleCreateMaterial)
		r.Route("/{materialID}", func(r chi.Router) {
			r.Get("/", s.handleGetMaterial)
			r.Get("/status", s.handleMaterialStatus)
			r.Post("/transfer", s.handleTransferMaterial)
			r.Get("/transfers", s.handleMaterialHistory)
			r.Get("/route", s.handleMaterialRoute)
			r.Get("/export/csv", s.handleExportCSV)
		})
	})

	r.Route("/api/waste", func(r chi.Router) {
		r.Post("/", s.handleCreateWaste)
		r.Route("/{wasteID}", func(r chi.Router) {
			r.Get("/", s.handleGetWaste)
			r.Post("/transfer", s.handleTransferWaste)
			r.Post("/deliver", s.handleDeliverWaste)
			r.Post("/dispose", s.handleDisposeWaste)
			r.Get("/history", s.handleWasteHistory)
		})
	})

	r.Route("/api/companies", func(r chi.Router) {
		r.Post("/", s.handleRegisterCompany)
		r.Post("/login", s.handleLogin)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestID stamps each request with a time-sortable UUIDv7 for log
// correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.Must(uuid.NewV7()).String()
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", rec.Header().Get("X-Request-Id"),
		)
	})
}
