package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/selaro-receptionist/internal/appointments"
	"github.com/wolfman30/selaro-receptionist/internal/calls"
	"github.com/wolfman30/selaro-receptionist/internal/clinic"
	httpmiddleware "github.com/wolfman30/selaro-receptionist/internal/http/middleware"
	"github.com/wolfman30/selaro-receptionist/internal/http/respond"
	"github.com/wolfman30/selaro-receptionist/internal/leads"
	"github.com/wolfman30/selaro-receptionist/internal/voice"
	"github.com/wolfman30/selaro-receptionist/internal/webchat"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	ChatHandler         *webchat.Handler
	VoiceHandler        *voice.Handler
	LeadsHandler        *leads.Handler
	AppointmentsHandler *appointments.Handler
	CallsHandler        *calls.Handler
	KnowledgeHandler    *clinic.KnowledgeHandler
	Status              StatusReporter
	MetricsHandler      http.Handler
	AdminAuthSecret     string
	CORSAllowedOrigins  []string

	// Optional: rejects unsigned Twilio webhooks when set.
	VoiceSignatures *voice.SignatureVerifier
	// Optional: applied to the chat endpoints.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/api/health", health)
		if cfg.Status != nil {
			public.Get("/debug/status", statusHandler(cfg.Status))
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.KnowledgeHandler != nil {
			public.Get("/api/knowledge", cfg.KnowledgeHandler.GetKnowledge)
		}
	})

	if cfg.ChatHandler != nil {
		r.Group(func(chat chi.Router) {
			if cfg.RateLimiter != nil {
				chat.Use(cfg.RateLimiter.Middleware)
			}
			chat.Post("/api/chat", cfg.ChatHandler.HandleChat)
			chat.Delete("/api/chat/{sessionID}", cfg.ChatHandler.HandleEnd)
			chat.Get("/api/chat/{sessionID}/history", cfg.ChatHandler.HandleHistory)
			chat.Get("/ws/chat", cfg.ChatHandler.HandleWebSocket)
		})
	}

	// Twilio webhooks
	if cfg.VoiceHandler != nil {
		r.Route("/voice", func(v chi.Router) {
			if cfg.VoiceSignatures != nil {
				v.Use(cfg.VoiceSignatures.Middleware)
			}
			v.Post("/incoming", cfg.VoiceHandler.Incoming)
			v.Post("/gather", cfg.VoiceHandler.Gather)
			v.Post("/status", cfg.VoiceHandler.Status)
		})
	}

	if cfg.AppointmentsHandler != nil {
		r.Route("/api/appointments", func(a chi.Router) {
			a.Get("/", cfg.AppointmentsHandler.List)
			a.Post("/", cfg.AppointmentsHandler.Create)
			a.Patch("/{id}", cfg.AppointmentsHandler.UpdateStatus)
			a.Delete("/{id}", cfg.AppointmentsHandler.Delete)
		})
	}

	if cfg.CallsHandler != nil {
		r.Route("/api/calls", func(c chi.Router) {
			c.Post("/log", cfg.CallsHandler.Log)
			c.Get("/all", cfg.CallsHandler.All)
			c.Patch("/{id}", cfg.CallsHandler.UpdateStatus)
		})
	}

	// Admin routes (protected by JWT)
	if cfg.AdminAuthSecret != "" {
		r.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.LeadsHandler != nil {
				admin.Get("/api/leads", cfg.LeadsHandler.ListLeads)
				admin.Get("/api/leads/{id}", cfg.LeadsHandler.GetLead)
			}
			if cfg.KnowledgeHandler != nil {
				admin.Post("/api/knowledge", cfg.KnowledgeHandler.UpdateKnowledge)
			}
		})
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "not found")
	})
	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
