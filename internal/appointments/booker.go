package appointments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/selaro-receptionist/internal/leads"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

const slotLayout = DateLayout + " " + TimeLayout

// LeadBooker turns a committed lead into a Pending appointment when the lead
// carries a concrete slot. Free-text preferred times are left to staff.
type LeadBooker struct {
	repo   Repository
	logger *logging.Logger
}

func NewLeadBooker(repo Repository, logger *logging.Logger) *LeadBooker {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeadBooker{repo: repo, logger: logger}
}

func (b *LeadBooker) Name() string { return "appointments" }

func (b *LeadBooker) HandleLead(ctx context.Context, lead *leads.Lead) error {
	if lead == nil {
		return nil
	}
	slot, err := time.Parse(slotLayout, strings.TrimSpace(lead.PreferredTime))
	if err != nil {
		b.logger.Debug("appointments: lead has no concrete slot", "lead_id", lead.ID, "preferred_time", lead.PreferredTime)
		return nil
	}

	appt, err := b.repo.Create(ctx, &CreateRequest{
		PatientName: lead.Name,
		Phone:       lead.Phone,
		Reason:      lead.Reason,
		Date:        slot.Format(DateLayout),
		Time:        slot.Format(TimeLayout),
		Urgency:     lead.Urgency,
		SessionKey:  lead.SessionKey,
	})
	if err != nil {
		return fmt.Errorf("appointments: book lead %s: %w", lead.ID, err)
	}
	b.logger.Info("appointments: pending appointment created", "appointment_id", appt.ID, "lead_id", lead.ID)
	return nil
}

var _ leads.Followup = (*LeadBooker)(nil)
