package calls

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/selaro-receptionist/internal/http/respond"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

type Handler struct {
	repo   Repository
	logger *logging.Logger
}

func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Log handles POST /api/calls/log
func (h *Handler) Log(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	saved, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrMissingName) || errors.Is(err, ErrMissingPhone) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("calls: create failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to save call")
		return
	}
	count, err := h.repo.Count(r.Context())
	if err != nil {
		h.logger.Warn("calls: count failed", "error", err)
	}
	respond.OK(w, http.StatusOK, map[string]any{"saved": saved, "count": count})
}

// All handles GET /api/calls/all
func (h *Handler) All(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("calls: list failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch calls")
		return
	}
	respond.OK(w, http.StatusOK, map[string]any{"rows": rows})
}

// UpdateStatus handles PATCH /api/calls/{id}
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.repo.UpdateStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	switch {
	case errors.Is(err, ErrInvalidStatus):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "Call not found")
	case err != nil:
		h.logger.Error("calls: update failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to update call")
	default:
		respond.OK(w, http.StatusOK, map[string]any{"call": updated})
	}
}
