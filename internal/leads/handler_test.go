package leads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

func seededRepo(t *testing.T) (*InMemoryRepository, *Lead) {
	t.Helper()
	repo := NewInMemoryRepository()
	lead, _, err := repo.Save(context.Background(), &CreateLeadRequest{
		ConversationID: "conv-1", SessionKey: "web:1", Channel: "web", Name: "Anna Müller", Phone: "0341123456",
		Reason: "Zahnschmerzen", PreferredTime: "2025-06-11 10:00", Urgency: UrgencyUrgent,
	})
	require.NoError(t, err)
	_, _, err = repo.Save(context.Background(), &CreateLeadRequest{
		ConversationID: "conv-2", SessionKey: "web:2", Channel: "web", Name: "Max Schmidt", Phone: "030123456",
		Reason: "Kontrolluntersuchung", PreferredTime: "2025-06-13 09:00",
	})
	require.NoError(t, err)
	return repo, lead
}

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/leads", h.ListLeads)
	r.Get("/api/leads/{id}", h.GetLead)
	return r
}

func TestListLeads(t *testing.T) {
	repo, _ := seededRepo(t)
	router := newTestRouter(NewHandler(repo, logging.New("error")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leads?urgency=urgent", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		OK    bool    `json:"ok"`
		Leads []*Lead `json:"leads"`
		Count int     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "Anna Müller", body.Leads[0].Name)
}

func TestListLeadsRejectsUnknownUrgency(t *testing.T) {
	repo, _ := seededRepo(t)
	router := newTestRouter(NewHandler(repo, logging.New("error")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leads?urgency=later", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetLead(t *testing.T) {
	repo, lead := seededRepo(t)
	router := newTestRouter(NewHandler(repo, logging.New("error")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leads/"+lead.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"session_key":"web:1"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leads/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Lead not found"}`, rec.Body.String())
}
