package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/patrickwarner/sponsorstream-match/internal/apperr"
)

type ensureCollectionRequest struct {
	Dimension     int    `json:"dimension"`
	ModelID       string `json:"embedding_model_id"`
	SchemaVersion string `json:"schema_version"`
}

// EnsureCollectionHandler is the HTTP fallback for the MCP
// ensure_collection tool, for callers outside the MCP transport.
func (s *Server) EnsureCollectionHandler(w http.ResponseWriter, r *http.Request) {
	var req ensureCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.InvalidInput, "malformed request body"))
		return
	}
	info, err := s.Index.EnsureCollection(r.Context(), req.Dimension, req.ModelID, req.SchemaVersion)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type bulkDisableRequest struct {
	Match map[string]any `json:"match"`
}

// BulkDisableHandler is the HTTP fallback for the MCP bulk_disable tool.
func (s *Server) BulkDisableHandler(w http.ResponseWriter, r *http.Request) {
	var req bulkDisableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.InvalidInput, "malformed request body"))
		return
	}
	count, err := s.Index.BulkDisable(r.Context(), req.Match)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"disabled": count})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.InvalidInput:
		status = http.StatusBadRequest
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.PermissionDenied:
		status = http.StatusForbidden
	case apperr.Timeout:
		status = http.StatusGatewayTimeout
	case apperr.UnavailableDependency:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
