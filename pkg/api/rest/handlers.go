package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/arvindnair/hnswdb/pkg/hnsw"
	"github.com/arvindnair/hnswdb/pkg/service"
)

// Handler serves the HTTP surface directly off a Service, with no
// intermediate RPC layer.
type Handler struct {
	svc     *service.Service
	version string
	started time.Time
}

// NewHandler wraps svc for HTTP use.
func NewHandler(svc *service.Service, version string) *Handler {
	return &Handler{svc: svc, version: version, started: time.Now()}
}

type addPointRequest struct {
	ID     string    `json:"id"`
	Vector []float32 `json:"vector"`
}

type updatePointRequest struct {
	Vector []float32 `json:"vector"`
}

type searchRequest struct {
	Vector   []float32 `json:"vector"`
	K        int       `json:"k"`
	Tau      float32   `json:"tau,omitempty"`
	Ef       int       `json:"ef,omitempty"`
	BeamSize int       `json:"beam_size,omitempty"`
}

type searchResponse struct {
	Results []hnsw.SearchResult `json:"results"`
}

type buildIndexRequest struct {
	Points []hnsw.PointInput `json:"points"`
}

type buildIndexResponse struct {
	TotalProcessed int      `json:"total_processed"`
	SuccessCount   int      `json:"success_count"`
	FailureCount   int      `json:"failure_count"`
	Errors         []string `json:"errors,omitempty"`
}

type rebuildResponse struct {
	Progress int `json:"progress"`
}

// AddPoint handles POST /v1/points.
func (h *Handler) AddPoint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req addPointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		writeError(w, "id is required", http.StatusBadRequest)
		return
	}

	if err := h.svc.AddPoint(r.Context(), req.ID, req.Vector); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]string{"id": req.ID}, http.StatusCreated)
}

// PointByID handles DELETE and PUT /v1/points/{id}.
func (h *Handler) PointByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/points/")
	if id == "" {
		writeError(w, "id is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodDelete:
		if err := h.svc.RemovePoint(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, map[string]string{"id": id}, http.StatusOK)

	case http.MethodPut:
		var req updatePointRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.svc.UpdatePoint(r.Context(), id, req.Vector); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, map[string]string{"id": id}, http.StatusOK)

	default:
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Search handles POST /v1/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.K <= 0 {
		writeError(w, "k must be positive", http.StatusBadRequest)
		return
	}

	results, err := h.svc.SearchKNN(r.Context(), req.Vector, req.K, req.Tau, req.Ef, req.BeamSize)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, searchResponse{Results: results}, http.StatusOK)
}

// BuildIndex handles POST /v1/index:build.
func (h *Handler) BuildIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req buildIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.svc.BuildIndex(r.Context(), req.Points, nil)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := buildIndexResponse{
		TotalProcessed: result.TotalProcessed,
		SuccessCount:   result.SuccessCount,
		FailureCount:   result.FailureCount,
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}
	writeJSON(w, resp, http.StatusOK)
}

// SaveSnapshot handles POST /v1/snapshot:save.
func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.svc.SaveSnapshot(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"saved": true}, http.StatusOK)
}

// LoadSnapshot handles POST /v1/snapshot:load.
func (h *Handler) LoadSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.svc.LoadSnapshot(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"loaded": true}, http.StatusOK)
}

// RebuildIndex handles POST /v1/index:rebuild.
func (h *Handler) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var lastProgress int
	if err := h.svc.RebuildIndex(r.Context(), func(pct int) { lastProgress = pct }); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, rebuildResponse{Progress: lastProgress}, http.StatusOK)
}

// Stats handles GET /v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.svc.Stats(), http.StatusOK)
}

// HealthCheck handles GET /v1/health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]interface{}{
		"status":         "healthy",
		"version":        h.version,
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	}, http.StatusOK)
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, hnsw.ErrDimensionMismatch),
		errors.Is(err, hnsw.ErrEmptyVector),
		errors.Is(err, hnsw.ErrEmptyID),
		errors.Is(err, hnsw.ErrInvalidMetric):
		status = http.StatusBadRequest
	case errors.Is(err, hnsw.ErrNotFound), errors.Is(err, service.ErrSnapshotNotFound):
		status = http.StatusNotFound
	case errors.Is(err, hnsw.ErrAlreadyExists):
		status = http.StatusConflict
	}
	writeError(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  message,
		"status": statusCode,
	})
}
