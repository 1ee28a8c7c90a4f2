package leads

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/selaro-receptionist/internal/http/respond"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

// Handler serves the admin lead listing.
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

// ListLeads handles GET /api/leads?urgency=&limit=&offset=
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Limit: 50}
	q := r.URL.Query()
	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if offsetStr := q.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	switch urgency := q.Get("urgency"); urgency {
	case "":
	case UrgencyUrgent, UrgencyNormal:
		filter.Urgency = urgency
	default:
		respond.Error(w, http.StatusBadRequest, "invalid urgency")
		return
	}

	leads, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("leads: list failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list leads")
		return
	}
	respond.OK(w, http.StatusOK, map[string]any{
		"leads":  leads,
		"count":  len(leads),
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetLead handles GET /api/leads/{id}
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lead, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Lead not found")
			return
		}
		h.logger.Error("leads: get failed", "error", err, "lead_id", id)
		respond.Error(w, http.StatusInternalServerError, "failed to load lead")
		return
	}
	respond.OK(w, http.StatusOK, map[string]any{"lead": lead})
}
