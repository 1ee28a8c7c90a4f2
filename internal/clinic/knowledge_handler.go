package clinic

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/wolfman30/selaro-receptionist/internal/http/respond"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

const maxKnowledgeBody = 256 << 10

// KnowledgeHandler serves GET and POST /api/knowledge.
type KnowledgeHandler struct {
	store  KnowledgeStore
	logger *logging.Logger
}

func NewKnowledgeHandler(store KnowledgeStore, logger *logging.Logger) *KnowledgeHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &KnowledgeHandler{store: store, logger: logger}
}

func (h *KnowledgeHandler) GetKnowledge(w http.ResponseWriter, r *http.Request) {
	text, err := h.store.Get(r.Context())
	if err != nil {
		h.logger.Error("clinic: failed to load knowledge", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to load knowledge")
		return
	}
	respond.OK(w, http.StatusOK, map[string]any{
		"knowledge": text,
		"length":    utf8.RuneCountInString(text),
	})
}

type updateKnowledgeRequest struct {
	Knowledge string `json:"knowledge"`
}

// UpdateKnowledge replaces the knowledge text. It accepts {"knowledge": "..."} or a
// text/plain body.
func (h *KnowledgeHandler) UpdateKnowledge(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxKnowledgeBody))
	if err != nil {
		respond.Error(w, http.StatusRequestEntityTooLarge, "knowledge too large")
		return
	}

	text := string(body)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req updateKnowledgeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		text = req.Knowledge
	}
	text = strings.TrimSpace(text)
	if text == "" {
		respond.Error(w, http.StatusBadRequest, "knowledge is required")
		return
	}

	version, err := h.store.Replace(r.Context(), text)
	if err != nil {
		h.logger.Error("clinic: failed to replace knowledge", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to save knowledge")
		return
	}
	h.logger.Info("clinic: knowledge updated", "version", version, "length", utf8.RuneCountInString(text))
	respond.OK(w, http.StatusOK, map[string]any{
		"version": version,
		"length":  utf8.RuneCountInString(text),
	})
}
