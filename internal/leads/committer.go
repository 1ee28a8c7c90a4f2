package leads

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

// Followup reacts to a newly persisted lead: notifications, appointment creation,
// call logging, transcript archiving. Failures are logged and never undo the lead.
type Followup interface {
	Name() string
	HandleLead(ctx context.Context, lead *Lead) error
}

// FollowupFunc adapts a function to Followup.
type FollowupFunc struct {
	Label string
	Fn    func(ctx context.Context, lead *Lead) error
}

func (f FollowupFunc) Name() string { return f.Label }

func (f FollowupFunc) HandleLead(ctx context.Context, lead *Lead) error { return f.Fn(ctx, lead) }

// Committer persists a lead once per session and fans it out to followups.
type Committer struct {
	repo            Repository
	followups       []Followup
	logger          *logging.Logger
	followupTimeout time.Duration
	wg              sync.WaitGroup
}

func NewCommitter(repo Repository, logger *logging.Logger, followups ...Followup) *Committer {
	if repo == nil {
		panic("leads: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Committer{
		repo:            repo,
		followups:       followups,
		logger:          logger,
		followupTimeout: 30 * time.Second,
	}
}

// Commit saves the lead. created is false when the conversation already had a lead,
// in which case the stored lead is returned and followups do not run again.
// Followups run in the background with their own deadline.
func (c *Committer) Commit(ctx context.Context, req CreateLeadRequest) (*Lead, bool, error) {
	lead, created, err := c.repo.Save(ctx, &req)
	if err != nil {
		return nil, false, fmt.Errorf("leads: commit: %w", err)
	}
	if !created {
		c.logger.Info("leads: conversation already committed", "conversation_id", req.ConversationID, "session_key", req.SessionKey, "lead_id", lead.ID)
		return lead, false, nil
	}

	c.logger.Info("leads: lead committed",
		"lead_id", lead.ID,
		"conversation_id", lead.ConversationID,
		"session_key", lead.SessionKey,
		"channel", lead.Channel,
		"urgency", lead.Urgency,
	)
	if len(c.followups) == 0 {
		return lead, true, nil
	}

	detached := context.WithoutCancel(ctx)
	snapshot := *lead
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runFollowups(detached, &snapshot)
	}()
	return lead, true, nil
}

func (c *Committer) runFollowups(ctx context.Context, lead *Lead) {
	for _, f := range c.followups {
		func() {
			ctx, cancel := context.WithTimeout(ctx, c.followupTimeout)
			defer cancel()
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error("leads: followup panicked", "followup", f.Name(), "lead_id", lead.ID, "panic", r)
				}
			}()
			if err := f.HandleLead(ctx, lead); err != nil {
				c.logger.Warn("leads: followup failed", "followup", f.Name(), "lead_id", lead.ID, "error", err)
			}
		}()
	}
}

// Wait blocks until all background followups have finished.
func (c *Committer) Wait() {
	c.wg.Wait()
}
