// Package api exposes the read-side HTTP interface for the catalog.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fsgeodata/catalog-librarian/internal/catalog"
	"github.com/fsgeodata/catalog-librarian/internal/metrics"
)

// Server wires HTTP handlers to the catalog store.
type Server struct {
	router chi.Router
	store  *catalog.Store
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(store *catalog.Store, logger *zap.Logger) *Server {
	s := &Server{store: store, logger: logger}

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/datasets", s.listDatasets)
		r.Get("/datasets/{slug}", s.getDataset)
		r.Get("/use-cases", s.listUseCases)
		r.Post("/queries", s.logQuery)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.store.ListDatasets(r.Context())
	if err != nil {
		s.logger.Error("list datasets failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list datasets")
		return
	}
	if datasets == nil {
		datasets = []catalog.Dataset{}
	}
	writeJSON(w, http.StatusOK, datasets)
}

// datasetResponse bundles a dataset with its layers for point lookups.
type datasetResponse struct {
	catalog.Dataset
	Layers []catalog.Layer `json:"layers"`
}

func (s *Server) getDataset(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	ds, err := s.store.GetDataset(r.Context(), slug)
	if errors.Is(err, catalog.ErrDatasetNotFound) {
		writeError(w, http.StatusNotFound, "dataset not found")
		return
	}
	if err != nil {
		s.logger.Error("get dataset failed", zap.String("slug", slug), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load dataset")
		return
	}

	layers, err := s.store.ListLayers(r.Context(), ds.ID)
	if err != nil {
		s.logger.Error("list layers failed", zap.String("slug", slug), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load layers")
		return
	}
	if layers == nil {
		layers = []catalog.Layer{}
	}
	writeJSON(w, http.StatusOK, datasetResponse{Dataset: ds, Layers: layers})
}

func (s *Server) listUseCases(w http.ResponseWriter, r *http.Request) {
	useCases, err := s.store.ListUseCases(r.Context())
	if err != nil {
		s.logger.Error("list use cases failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list use cases")
		return
	}
	if useCases == nil {
		useCases = []catalog.UseCase{}
	}
	writeJSON(w, http.StatusOK, useCases)
}

// queryRequest is the payload for logging a natural-language interaction.
type queryRequest struct {
	Question        string  `json:"question"`
	Intent          *string `json:"intent,omitempty"`
	DatasetID       *int64  `json:"dataset_id,omitempty"`
	ResponseSummary *string `json:"response_summary,omitempty"`
}

func (s *Server) logQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	id, err := s.store.LogNLQuery(r.Context(), catalog.NLQueryFields{
		Question:        req.Question,
		Intent:          req.Intent,
		DatasetID:       req.DatasetID,
		ResponseSummary: req.ResponseSummary,
	})
	if err != nil {
		s.logger.Error("log query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to log query")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
