package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/wolfman30/selaro-receptionist/internal/appointments"
	"github.com/wolfman30/selaro-receptionist/internal/archive"
	"github.com/wolfman30/selaro-receptionist/internal/calls"
	appconfig "github.com/wolfman30/selaro-receptionist/internal/config"
	"github.com/wolfman30/selaro-receptionist/internal/leads"
	"github.com/wolfman30/selaro-receptionist/internal/notify"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

// FollowupDeps are the stores and services that react to a committed lead.
type FollowupDeps struct {
	Notifier     *notify.Service
	Appointments appointments.Repository
	Calls        calls.Repository
	Archiver     *archive.TranscriptArchiver
}

// BuildFollowups orders the lead followups: staff are notified first, then the
// appointment and call log are recorded, and the transcript is archived last.
func BuildFollowups(deps FollowupDeps, logger *logging.Logger) []leads.Followup {
	var out []leads.Followup
	if deps.Notifier != nil {
		out = append(out, deps.Notifier)
	}
	if deps.Appointments != nil {
		out = append(out, appointments.NewLeadBooker(deps.Appointments, logger))
	}
	if deps.Calls != nil {
		out = append(out, calls.NewLeadLogger(deps.Calls, logger))
	}
	if deps.Archiver != nil {
		out = append(out, deps.Archiver)
	}
	return out
}

// BuildTranscriptArchiver returns nil when no transcript bucket is configured.
func BuildTranscriptArchiver(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*archive.TranscriptArchiver, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if cfg.TranscriptBucket == "" {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := archive.NewStore(s3.NewFromConfig(awsCfg), cfg.TranscriptBucket, logger)
	return archive.NewTranscriptArchiver(store, logger), nil
}
