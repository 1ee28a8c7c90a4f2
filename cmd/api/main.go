package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/selaro-receptionist/internal/api/router"
	"github.com/wolfman30/selaro-receptionist/internal/app/bootstrap"
	"github.com/wolfman30/selaro-receptionist/internal/appointments"
	"github.com/wolfman30/selaro-receptionist/internal/calls"
	"github.com/wolfman30/selaro-receptionist/internal/clinic"
	appconfig "github.com/wolfman30/selaro-receptionist/internal/config"
	"github.com/wolfman30/selaro-receptionist/internal/conversation"
	httpmiddleware "github.com/wolfman30/selaro-receptionist/internal/http/middleware"
	"github.com/wolfman30/selaro-receptionist/internal/leads"
	"github.com/wolfman30/selaro-receptionist/internal/observability/metrics"
	"github.com/wolfman30/selaro-receptionist/internal/voice"
	"github.com/wolfman30/selaro-receptionist/internal/webchat"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting selaro receptionist API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	metricsHandler, convMetrics := setupMetrics()

	llm, llmSettings, err := bootstrap.BuildLLMClient(ctx, cfg, logger)
	if err != nil {
		return err
	}

	repos, err := bootstrap.BuildRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repos.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	sessionStore, locker := bootstrap.BuildSessionStore(redisClient, cfg)
	sessionBackend := "memory"
	if redisClient != nil {
		sessionBackend = "redis"
	}

	knowledgeStore := bootstrap.BuildKnowledgeStore(redisClient)
	if seeded, err := clinic.SeedKnowledge(ctx, knowledgeStore, cfg.KnowledgeFile); err != nil {
		logger.Warn("failed to seed clinic knowledge", "error", err, "path", cfg.KnowledgeFile)
	} else if seeded {
		logger.Info("clinic knowledge seeded", "path", cfg.KnowledgeFile)
	}

	notifier, emailProvider, smsProvider, err := bootstrap.BuildNotifier(ctx, cfg, logger)
	if err != nil {
		return err
	}
	archiver, err := bootstrap.BuildTranscriptArchiver(ctx, cfg, logger)
	if err != nil {
		logger.Warn("transcript archive disabled", "error", err)
		archiver = nil
	}
	followups := bootstrap.BuildFollowups(bootstrap.FollowupDeps{
		Notifier:     notifier,
		Appointments: repos.Appointments,
		Calls:        repos.Calls,
		Archiver:     archiver,
	}, logger)
	committer := leads.NewCommitter(repos.Leads, logger, followups...)

	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		logger.Warn("unknown clinic timezone; using UTC", "timezone", cfg.ClinicTimezone, "error", err)
		loc = time.UTC
	}

	controller := conversation.NewController(llm, committer, logger,
		conversation.WithSessionStore(sessionStore),
		conversation.WithLocker(locker),
		conversation.WithMetrics(convMetrics),
		conversation.WithKnowledge(knowledgeStore),
		conversation.WithOfficeHours(cfg.OfficeHours),
		conversation.WithClinicName(cfg.ClinicName),
		conversation.WithLocation(loc),
		conversation.WithLLMSettings(llmSettings),
	)

	janitor := conversation.NewJanitor(sessionStore, cfg.SessionTTL, cfg.SessionSweepInterval, convMetrics, logger)
	go janitor.Run(ctx)

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go sweepRateLimiter(ctx, limiter)

	var verifier *voice.SignatureVerifier
	if cfg.TwilioValidateSignature {
		if cfg.TwilioAuthToken == "" || cfg.PublicBaseURL == "" {
			return errors.New("TWILIO_VALIDATE_SIGNATURE requires TWILIO_AUTH_TOKEN and PUBLIC_BASE_URL")
		}
		verifier = voice.NewSignatureVerifier(cfg.TwilioAuthToken, cfg.PublicBaseURL, logger)
	}
	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; admin routes are disabled")
	}

	r := router.New(&router.Config{
		Logger:              logger,
		ChatHandler:         webchat.NewHandler(controller, logger),
		VoiceHandler:        voice.NewHandler(controller, voice.Config{ClinicName: cfg.ClinicName}, logger),
		LeadsHandler:        leads.NewHandler(repos.Leads, logger),
		AppointmentsHandler: appointments.NewHandler(repos.Appointments, logger),
		CallsHandler:        calls.NewHandler(repos.Calls, logger),
		KnowledgeHandler:    clinic.NewKnowledgeHandler(knowledgeStore, logger),
		Status: &router.RuntimeStatus{
			Env:             cfg.Env,
			Provider:        llmSettings.Provider,
			Model:           llmSettings.Model,
			OfficeHours:     controller.OfficeHoursText(),
			EmailProvider:   emailProvider,
			SMSProvider:     smsProvider,
			NotifierEnabled: notifier.Enabled(),
			SessionBackend:  sessionBackend,
			Sessions:        sessionStore,
			Knowledge:       knowledgeStore,
		},
		MetricsHandler:     metricsHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		VoiceSignatures:    verifier,
		RateLimiter:        limiter,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
		// Turns wait on the completion call, so the write timeout sits above LLM_TIMEOUT.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "sessions", sessionBackend, "storage", repos.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Let in-flight notifications and archive writes finish.
	done := make(chan struct{})
	go func() {
		committer.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("lead followups still running at shutdown")
	}

	logger.Info("server stopped")
	return nil
}

func setupMetrics() (http.Handler, *metrics.ConversationMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewConversationMetrics(reg)
}

func sweepRateLimiter(ctx context.Context, limiter *httpmiddleware.RateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep(10 * time.Minute)
		}
	}
}
