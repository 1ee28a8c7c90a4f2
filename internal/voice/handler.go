// Package voice answers Twilio voice webhooks with TwiML and runs each caller
// utterance through the conversation controller.
package voice

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/wolfman30/selaro-receptionist/internal/conversation"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

// Conversation is the part of the controller the voice webhooks drive.
type Conversation interface {
	HandleTurn(ctx context.Context, req conversation.TurnRequest) (*conversation.TurnResult, error)
	EndSession(ctx context.Context, key string) error
}

// Config tunes the call flow.
type Config struct {
	ClinicName string
	GatherPath string
}

type Handler struct {
	conv       Conversation
	greeting   string
	gatherPath string
	logger     *logging.Logger
}

func NewHandler(conv Conversation, cfg Config, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.GatherPath == "" {
		cfg.GatherPath = "/voice/gather"
	}
	return &Handler{
		conv:       conv,
		greeting:   Greeting(cfg.ClinicName),
		gatherPath: cfg.GatherPath,
		logger:     logger,
	}
}

// Greeting is the first thing a caller hears.
func Greeting(clinicName string) string {
	if strings.TrimSpace(clinicName) == "" {
		return "Guten Tag, hier ist Lina, die digitale Rezeption. Wie kann ich Ihnen helfen?"
	}
	return fmt.Sprintf("Guten Tag, Sie sind verbunden mit %s. Hier ist Lina, die digitale Rezeption. Wie kann ich Ihnen helfen?", clinicName)
}

// SessionKey maps a Twilio call to its conversation.
func SessionKey(callSid string) string {
	return "call:" + callSid
}

// Incoming handles POST /voice/incoming
func (h *Handler) Incoming(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	h.logger.Info("voice: incoming call", "call_sid", r.PostFormValue("CallSid"))
	h.writeGather(w, h.greeting)
}

// Gather handles POST /voice/gather with the caller's SpeechResult.
func (h *Handler) Gather(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	callSid := strings.TrimSpace(r.PostFormValue("CallSid"))
	if callSid == "" {
		http.Error(w, "missing CallSid", http.StatusBadRequest)
		return
	}

	res, err := h.conv.HandleTurn(r.Context(), conversation.TurnRequest{
		SessionKey: SessionKey(callSid),
		Channel:    conversation.ChannelVoice,
		Utterance:  r.PostFormValue("SpeechResult"),
	})
	if err != nil {
		h.logger.Error("voice: turn failed", "error", err, "call_sid", callSid)
		h.writeHangup(w, errorReply)
		return
	}
	if res.Committed {
		h.writeHangup(w, res.Reply)
		return
	}
	h.writeGather(w, res.Reply)
}

// Status handles POST /voice/status callbacks and drops finished calls.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	callSid := strings.TrimSpace(r.PostFormValue("CallSid"))
	status := r.PostFormValue("CallStatus")
	if callSid != "" && status == "completed" {
		if err := h.conv.EndSession(r.Context(), SessionKey(callSid)); err != nil {
			h.logger.Warn("voice: failed to end session", "error", err, "call_sid", callSid)
		} else {
			h.logger.Info("voice: call completed", "call_sid", callSid)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeGather(w http.ResponseWriter, text string) {
	body, err := gatherResponse(text, h.gatherPath)
	h.writeTwiML(w, body, err)
}

func (h *Handler) writeHangup(w http.ResponseWriter, text string) {
	body, err := hangupResponse(text)
	h.writeTwiML(w, body, err)
}

func (h *Handler) writeTwiML(w http.ResponseWriter, body string, err error) {
	if err != nil {
		h.logger.Error("voice: twiml render failed", "error", err)
		http.Error(w, "twiml render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
