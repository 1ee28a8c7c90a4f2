package appointments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/selaro-receptionist/internal/http/respond"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

// Handler serves the appointment calendar API.
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

// List handles GET /api/appointments?status=Pending
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != "all" {
		parsed, err := ParseStatus(status)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		status = parsed
	} else {
		status = ""
	}

	items, err := h.repo.List(r.Context(), status)
	if err != nil {
		h.logger.Error("appointments: list failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch appointments")
		return
	}
	respond.OK(w, http.StatusOK, map[string]any{"appointments": items})
}

// Create handles POST /api/appointments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	appt, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "Failed to create appointment")
		return
	}
	h.logger.Info("appointments: created", "appointment_id", appt.ID)
	respond.OK(w, http.StatusCreated, map[string]any{"appointment": appt})
}

type statusUpdate struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/appointments/{id}
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body statusUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	appt, err := h.repo.UpdateStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		h.writeError(w, err, "Failed to update appointment")
		return
	}
	respond.OK(w, http.StatusOK, map[string]any{"appointment": appt})
}

// Delete handles DELETE /api/appointments/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeError(w, err, "Failed to delete appointment")
		return
	}
	respond.OK(w, http.StatusOK, map[string]any{"id": id})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "Appointment not found")
	case IsValidation(err):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("appointments: request failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, fallback)
	}
}
