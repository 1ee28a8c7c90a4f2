package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/selaro-receptionist/internal/config"
	"github.com/wolfman30/selaro-receptionist/internal/notify"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

// BuildNotifier wires staff notifications. Each channel falls back to a logging
// stub when its provider is not configured; the returned strings name the providers.
func BuildNotifier(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*notify.Service, string, string, error) {
	if cfg == nil {
		return nil, "", "", fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	email, emailProvider, err := buildEmailSender(ctx, cfg, logger)
	if err != nil {
		return nil, "", "", err
	}

	var sms notify.SMSSender = notify.NewStubSMSSender(logger)
	smsProvider := "stub"
	if cfg.TwilioEnabled() && cfg.TwilioFromNumber != "" {
		sender, err := notify.NewTwilioSMSSender(notify.TwilioConfig{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			FromNumber: cfg.TwilioFromNumber,
		}, logger)
		if err != nil {
			return nil, "", "", fmt.Errorf("bootstrap: twilio sms: %w", err)
		}
		sms, smsProvider = sender, "twilio"
	}

	svc := notify.NewService(email, sms, notify.Recipients{
		ClinicName: cfg.ClinicName,
		Emails:     []string{cfg.ClinicNotifyEmail},
		Phones:     []string{cfg.ClinicNotifyPhone},
	}, logger)
	logger.Info("notifications configured",
		"email_provider", emailProvider,
		"sms_provider", smsProvider,
		"enabled", svc.Enabled(),
	)
	return svc, emailProvider, smsProvider, nil
}

func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.EmailSender, string, error) {
	switch cfg.EmailProvider {
	case "ses":
		if cfg.EmailFrom == "" {
			break
		}
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, "", err
		}
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.From{
			Email: cfg.EmailFrom,
			Name:  cfg.EmailFromName,
		}, logger)
		return sender, "ses", nil
	case "sendgrid", "":
		sender := notify.NewSendGridSender(cfg.SendGridAPIKey, notify.From{
			Email: cfg.EmailFrom,
			Name:  cfg.EmailFromName,
		}, logger)
		// A nil *SendGridSender must not end up inside the interface.
		if sender != nil {
			return sender, "sendgrid", nil
		}
	default:
		logger.Warn("unknown email provider; using stub", "provider", cfg.EmailProvider)
	}
	return notify.NewStubEmailSender(logger), "stub", nil
}
