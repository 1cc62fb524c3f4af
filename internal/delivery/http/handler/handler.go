package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/user/card-scraper/internal/delivery/http/response"
	"github.com/user/card-scraper/internal/entity"
	"github.com/user/card-scraper/internal/repository"
)

const (
	defaultRunsLimit = 10
	maxRunsLimit     = 50
)

// StatusProvider reports the live status of the current run.
type StatusProvider interface {
	Status() entity.RunStatus
}

type Handler struct {
	status  StatusProvider
	history repository.RunHistory
}

// NewHandler creates the status API handler. history may be nil when no run history is kept.
func NewHandler(status StatusProvider, history repository.RunHistory) *Handler {
	return &Handler{
		status:  status,
		history: history,
	}
}

func (h *Handler) HandleGetRunStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, response.NewRunStatusResponse(h.status.Status()))
}

func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.writeJSONError(w, "Run history is not configured", http.StatusNotFound)
		return
	}

	limit := int64(defaultRunsLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			h.writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to read run history", "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := response.RunListResponse{Runs: make([]response.RunSummaryResponse, 0, len(runs))}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, response.NewRunSummaryResponse(run))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
