package router

import (
	"context"
	"net/http"
	"unicode/utf8"

	"github.com/wolfman30/selaro-receptionist/internal/http/respond"
)

// StatusReporter feeds GET /debug/status.
type StatusReporter interface {
	Status(ctx context.Context) map[string]any
}

type SessionCounter interface {
	Count(ctx context.Context) (int, error)
}

type KnowledgeReader interface {
	Get(ctx context.Context) (string, error)
}

// RuntimeStatus reports the wiring the server booted with plus live session and
// knowledge figures.
type RuntimeStatus struct {
	Env             string
	Provider        string
	Model           string
	OfficeHours     string
	EmailProvider   string
	SMSProvider     string
	NotifierEnabled bool
	SessionBackend  string

	Sessions  SessionCounter
	Knowledge KnowledgeReader
}

func (s *RuntimeStatus) Status(ctx context.Context) map[string]any {
	out := map[string]any{
		"env":             s.Env,
		"provider":        s.Provider,
		"model":           s.Model,
		"office_hours":    s.OfficeHours,
		"session_backend": s.SessionBackend,
		"notifier": map[string]any{
			"enabled": s.NotifierEnabled,
			"email":   s.EmailProvider,
			"sms":     s.SMSProvider,
		},
	}
	if s.Sessions != nil {
		if n, err := s.Sessions.Count(ctx); err == nil {
			out["sessions"] = n
		} else {
			out["sessions_error"] = err.Error()
		}
	}
	if s.Knowledge != nil {
		if text, err := s.Knowledge.Get(ctx); err == nil {
			out["knowledge_length"] = utf8.RuneCountInString(text)
		} else {
			out["knowledge_error"] = err.Error()
		}
	}
	return out
}

func statusHandler(reporter StatusReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.OK(w, http.StatusOK, reporter.Status(r.Context()))
	}
}
