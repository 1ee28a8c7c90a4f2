package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/selaro-receptionist/internal/conversation"
	"github.com/wolfman30/selaro-receptionist/internal/http/respond"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

const maxChatBody = 16 << 10

// Conversation is the part of the controller the chat endpoints drive.
type Conversation interface {
	HandleTurn(ctx context.Context, req conversation.TurnRequest) (*conversation.TurnResult, error)
	EndSession(ctx context.Context, key string) error
	Session(ctx context.Context, key string) (*conversation.State, bool, error)
}

// Handler serves the website chat over HTTP and WebSocket.
type Handler struct {
	conv   Conversation
	logger *logging.Logger
}

// InboundMessage is what the widget sends over the socket.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string            `json:"type"` // "message", "typing", "session", "pong", "error"
	Text      string            `json:"text,omitempty"`
	Role      string            `json:"role,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Committed bool              `json:"committed,omitempty"`
	LeadID    string            `json:"lead_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp string            `json:"timestamp,omitempty"`
}

// HistoryMessage is a simplified message for history responses.
type HistoryMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// NewHandler creates a web chat handler.
func NewHandler(conv Conversation, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{conv: conv, logger: logger}
}

// HandleChat handles POST /api/chat: one turn per request.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sessionID, minted := ResolveSessionID(r, req.SessionID)

	res, err := h.conv.HandleTurn(r.Context(), conversation.TurnRequest{
		SessionKey: SessionKey(sessionID),
		Channel:    conversation.ChannelWeb,
		Utterance:  req.Message,
	})
	if err != nil {
		h.logger.Error("webchat: turn failed", "error", err, "session_id", sessionID)
		respond.Error(w, http.StatusInternalServerError, conversation.ReplyApology)
		return
	}
	if minted {
		h.logger.Debug("webchat: minted session", "session_id", sessionID)
	}

	respond.OK(w, http.StatusOK, map[string]any{
		"reply":      res.Reply,
		"session_id": sessionID,
		"committed":  res.Committed,
		"lead_id":    res.LeadID,
		"fields":     res.Fields,
	})
}

// HandleEnd handles DELETE /api/chat/{sessionID}.
func (h *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	sessionID := sanitize(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		respond.Error(w, http.StatusBadRequest, "session id is required")
		return
	}
	if err := h.conv.EndSession(r.Context(), SessionKey(sessionID)); err != nil {
		h.logger.Error("webchat: failed to end session", "error", err, "session_id", sessionID)
		respond.Error(w, http.StatusInternalServerError, "failed to end session")
		return
	}
	respond.OK(w, http.StatusOK, map[string]any{"session_id": sessionID})
}

// HandleHistory handles GET /api/chat/{sessionID}/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := sanitize(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		respond.Error(w, http.StatusBadRequest, "session id is required")
		return
	}
	state, found, err := h.conv.Session(r.Context(), SessionKey(sessionID))
	if err != nil {
		h.logger.Error("webchat: failed to load history", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	history := []HistoryMessage{}
	committed := false
	if found {
		for _, m := range state.Messages {
			history = append(history, HistoryMessage{Role: m.Role, Text: m.Content})
		}
		committed = state.Committed
	}
	respond.OK(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   history,
		"committed":  committed,
	})
}

// HandleWebSocket upgrades GET /ws/chat and runs one turn per inbound message.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID, _ := ResolveSessionID(r, r.URL.Query().Get("session"))
	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})

	h.logger.Info("webchat: connection opened", "session_id", sessionID)
	ctx := r.Context()

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		switch msg.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		case "message":
		default:
			continue
		}
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}

		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "typing"})
		out := h.turn(ctx, sessionID, msg.Text)
		if err := websocket.JSON.Send(conn, out); err != nil {
			h.logger.Debug("webchat: send failed", "session_id", sessionID, "error", err)
			return
		}
	}
}

func (h *Handler) turn(ctx context.Context, sessionID, text string) OutboundMessage {
	res, err := h.conv.HandleTurn(ctx, conversation.TurnRequest{
		SessionKey: SessionKey(sessionID),
		Channel:    conversation.ChannelWeb,
		Utterance:  text,
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			h.logger.Error("webchat: turn failed", "error", err, "session_id", sessionID)
		}
		return OutboundMessage{Type: "error", Text: conversation.ReplyApology}
	}
	return OutboundMessage{
		Type:      "message",
		Role:      "assistant",
		Text:      res.Reply,
		SessionID: sessionID,
		Committed: res.Committed,
		LeadID:    res.LeadID,
		Fields:    res.Fields,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
