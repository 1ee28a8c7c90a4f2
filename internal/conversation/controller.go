package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/selaro-receptionist/internal/clinic"
	"github.com/wolfman30/selaro-receptionist/internal/leads"
	"github.com/wolfman30/selaro-receptionist/internal/observability/metrics"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

const (
	ChannelWeb   = "web"
	ChannelVoice = "voice"
)

// Turn outcomes, used as the metrics label and returned to callers.
const (
	OutcomeEmpty        = "empty"
	OutcomePrompt       = "prompt"
	OutcomeSlotPrompt   = "slot_prompt"
	OutcomeUnbookable   = "unbookable"
	OutcomeModel        = "model"
	OutcomeModelError   = "model_error"
	OutcomeCommitted    = "committed"
	OutcomeCommitFailed = "commit_failed"
	OutcomeStoreError   = "store_error"
)

// ReplyAlreadyCommitted answers an empty turn after the lead was taken.
const ReplyAlreadyCommitted = "Ihre Anfrage liegt uns bereits vor. Kann ich sonst noch etwas für Sie tun?"

const (
	defaultLLMTimeout  = 20 * time.Second
	defaultMaxTokens   = 250
	defaultTemperature = 0.3
)

var conversationTracer = otel.Tracer("selaro.conversation")

// LeadCommitter persists a finished lead. created is false when the session already
// had one, which the controller treats as success.
type LeadCommitter interface {
	Commit(ctx context.Context, req leads.CreateLeadRequest) (lead *leads.Lead, created bool, err error)
}

// KnowledgeSource supplies the clinic knowledge appended to the persona.
type KnowledgeSource interface {
	Get(ctx context.Context) (string, error)
}

// KnowledgeFunc adapts a function to KnowledgeSource.
type KnowledgeFunc func(ctx context.Context) (string, error)

func (f KnowledgeFunc) Get(ctx context.Context) (string, error) { return f(ctx) }

// TurnRequest is one caller utterance.
type TurnRequest struct {
	SessionKey string
	Channel    string
	Utterance  string
}

// TurnResult is what the transport renders back to the caller.
type TurnResult struct {
	SessionKey    string
	Reply         string
	Outcome       string
	Phase         Phase
	Committed     bool
	JustCommitted bool
	LeadID        string
	Fields        map[string]string
}

type ControllerOption func(*Controller)

// WithSessionStore replaces the in-memory session store.
func WithSessionStore(store SessionStore) ControllerOption {
	return func(c *Controller) {
		if store != nil {
			c.store = store
		}
	}
}

// WithLocker replaces the in-process per-key mutex, e.g. with a RedisLocker when
// several API instances share one session store.
func WithLocker(l Locker) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.locker = l
		}
	}
}

func WithMetrics(m *metrics.ConversationMetrics) ControllerOption {
	return func(c *Controller) { c.metrics = m }
}

func WithKnowledge(k KnowledgeSource) ControllerOption {
	return func(c *Controller) { c.knowledge = k }
}

// WithOfficeHours sets the free-text opening hours used for slot validation and the persona.
func WithOfficeHours(description string) ControllerOption {
	return func(c *Controller) {
		c.hoursText = strings.TrimSpace(description)
		c.hours = clinic.ParseOfficeHours(c.hoursText)
	}
}

func WithClinicName(name string) ControllerOption {
	return func(c *Controller) { c.clinicName = strings.TrimSpace(name) }
}

// WithLocation sets the clinic time zone that relative dates resolve in.
func WithLocation(loc *time.Location) ControllerOption {
	return func(c *Controller) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// LLMSettings tunes the completion call.
type LLMSettings struct {
	Provider    string
	Model       string
	Timeout     time.Duration
	MaxTokens   int32
	Temperature float32
}

func WithLLMSettings(s LLMSettings) ControllerOption {
	return func(c *Controller) {
		if s.Provider != "" {
			c.provider = s.Provider
		}
		c.model = s.Model
		if s.Timeout > 0 {
			c.llmTimeout = s.Timeout
		}
		if s.MaxTokens > 0 {
			c.maxTokens = s.MaxTokens
		}
		if s.Temperature != 0 {
			c.temperature = s.Temperature
		}
	}
}

func withClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// Controller runs the receptionist state machine: one call to HandleTurn per caller
// utterance, serialised per session key.
type Controller struct {
	llm       LLMClient
	committer LeadCommitter
	store     SessionStore
	locker    Locker
	knowledge KnowledgeSource
	extractor *FieldExtractor
	dates     *DateTimeParser
	metrics   *metrics.ConversationMetrics
	logger    *logging.Logger

	hours      clinic.OfficeHours
	hoursText  string
	clinicName string
	loc        *time.Location

	provider    string
	model       string
	llmTimeout  time.Duration
	maxTokens   int32
	temperature float32

	now func() time.Time
}

func NewController(llm LLMClient, committer LeadCommitter, logger *logging.Logger, opts ...ControllerOption) *Controller {
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	if committer == nil {
		panic("conversation: lead committer cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	dates := NewDateTimeParser()
	c := &Controller{
		llm:         llm,
		committer:   committer,
		store:       NewMemorySessionStore(),
		locker:      NewKeyedMutex(),
		extractor:   NewFieldExtractor(dates),
		dates:       dates,
		logger:      logger,
		hours:       clinic.DefaultOfficeHours(),
		loc:         time.UTC,
		provider:    "llm",
		llmTimeout:  defaultLLMTimeout,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OfficeHoursText returns the hours as configured, or the parsed hours rendered in German.
func (c *Controller) OfficeHoursText() string {
	if c.hoursText != "" {
		return c.hoursText
	}
	return c.hours.Describe()
}

// Store exposes the session store for the janitor and status endpoints.
func (c *Controller) Store() SessionStore {
	return c.store
}

// HandleTurn processes one utterance. Collaborator failures degrade to a German reply;
// only a missing session key or a lock that cannot be taken return an error.
func (c *Controller) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	key := strings.TrimSpace(req.SessionKey)
	if key == "" {
		return nil, ErrEmptySessionKey
	}
	channel := req.Channel
	if channel == "" {
		channel = ChannelWeb
	}

	ctx, span := conversationTracer.Start(ctx, "conversation.turn")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.channel", channel))

	unlock, err := c.locker.Lock(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lock failed")
		return nil, fmt.Errorf("conversation: lock session: %w", err)
	}
	defer unlock()

	now := c.now().In(c.loc)
	stored, found, err := c.store.Load(ctx, key)
	if err != nil {
		span.RecordError(err)
		c.logger.Error("conversation: failed to load session", "error", err, "session_key", key)
		return c.finish(span, &TurnResult{SessionKey: key, Reply: ReplyApology, Outcome: OutcomeStoreError, Phase: PhaseCollecting}), nil
	}
	if !found {
		stored = NewState(key, channel, now)
	}

	// Work on a copy so a failed model call leaves the stored session untouched.
	state := stored.Clone()
	if state.ConversationID == "" {
		// Sessions saved before conversation ids existed.
		state.ConversationID = uuid.NewString()
	}
	t := &turn{ctrl: c, state: state, now: now, utterance: strings.TrimSpace(req.Utterance)}

	result := t.run(ctx)
	if t.discard {
		state = stored
	} else if err := c.store.Save(ctx, state); err != nil {
		span.RecordError(err)
		c.logger.Error("conversation: failed to save session", "error", err, "session_key", key)
	}

	result.SessionKey = key
	result.Phase = state.Phase()
	result.Committed = state.Committed
	result.LeadID = state.LeadID
	result.Fields = state.Snapshot()
	return c.finish(span, result), nil
}

func (c *Controller) finish(span trace.Span, res *TurnResult) *TurnResult {
	span.SetAttributes(
		attribute.String("conversation.outcome", res.Outcome),
		attribute.Bool("conversation.committed", res.Committed),
	)
	c.metrics.ObserveTurn(res.Outcome)
	return res
}

// EndSession forgets a conversation, e.g. when the call hangs up.
func (c *Controller) EndSession(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptySessionKey
	}
	unlock, err := c.locker.Lock(ctx, key)
	if err != nil {
		return fmt.Errorf("conversation: lock session: %w", err)
	}
	defer unlock()
	return c.store.Delete(ctx, key)
}

// Session returns a copy of the stored state for key.
func (c *Controller) Session(ctx context.Context, key string) (*State, bool, error) {
	return c.store.Load(ctx, key)
}

// turn carries the scratch state of one HandleTurn call.
type turn struct {
	ctrl      *Controller
	state     *State
	now       time.Time
	utterance string
	discard   bool
}

func (t *turn) run(ctx context.Context) *TurnResult {
	c := t.ctrl
	st := t.state

	if t.utterance == "" {
		t.discard = true
		if st.Committed {
			return &TurnResult{Reply: ReplyAlreadyCommitted, Outcome: OutcomeEmpty}
		}
		field, _ := st.NextMissing()
		return &TurnResult{Reply: PromptFor(field), Outcome: OutcomeEmpty}
	}

	st.Append(ChatRoleUser, t.utterance, t.now)

	if st.Committed {
		return t.askModel(ctx)
	}

	ext := c.extractor.Extract(t.utterance, t.now)
	found, added := t.absorb(ext)

	if !st.Has(FieldPreferredTime) && !ext.Slot.Empty() {
		if reply, outcome, stop := t.absorbSlot(ext.Slot); stop {
			return t.reply(reply, outcome)
		}
		found, added = true, added || st.Has(FieldPreferredTime)
	}

	if st.Complete() {
		return t.commit(ctx, "")
	}

	question := strings.Contains(t.utterance, "?")
	if found && !question {
		// The caller gave us data (new or repeated); ask for the next gap ourselves.
		field, _ := st.NextMissing()
		if added {
			c.logger.Debug("conversation: fields captured", "session_key", st.SessionKey, "missing", len(st.MissingFields()))
		}
		if field == FieldPreferredTime {
			return t.reply(SlotPrompt(st.PendingSlot), OutcomePrompt)
		}
		return t.reply(PromptFor(field), OutcomePrompt)
	}

	if !found && !question && st.Has(FieldReason) && HasBookingIntent(t.utterance) {
		return t.reply(PromptDayAndTime, OutcomeSlotPrompt)
	}

	return t.askModel(ctx)
}

// absorb applies first-write-wins for name, phone and reason. found reports any
// candidate at all, added whether a field was new.
func (t *turn) absorb(ext Extraction) (found, added bool) {
	for _, cand := range []struct {
		field Field
		value string
	}{
		{FieldName, ext.Name},
		{FieldPhone, ext.Phone},
		{FieldReason, ext.Reason},
	} {
		if cand.value == "" {
			continue
		}
		found = true
		if t.state.SetIfAbsent(cand.field, cand.value) {
			added = true
		}
	}
	return found, added
}

// absorbSlot merges a date or time candidate with the pending half from earlier turns.
// stop is true when the turn ends with a targeted prompt instead of going on.
func (t *turn) absorbSlot(candidate Slot) (reply, outcome string, stop bool) {
	st := t.state
	c := t.ctrl
	merged := candidate.Merge(st.PendingSlot)

	if !merged.Complete() {
		if msg, ok := t.rejectHalf(merged); !ok {
			st.PendingSlot = Slot{}
			return msg, OutcomeUnbookable, true
		}
		st.PendingSlot = merged
		return SlotPrompt(merged), OutcomeSlotPrompt, true
	}

	at, _ := merged.At(c.loc)
	if at.Before(t.now) {
		st.PendingSlot = Slot{}
		return PastSlotPrompt, OutcomeUnbookable, true
	}
	if !c.hours.IsBookable(at) {
		st.PendingSlot = Slot{}
		return UnbookablePrompt(c.OfficeHoursText()), OutcomeUnbookable, true
	}
	st.SetIfAbsent(FieldPreferredTime, FormatPreferredTime(merged))
	st.PendingSlot = Slot{}
	return "", "", false
}

// rejectHalf validates the half of a slot that is present.
func (t *turn) rejectHalf(s Slot) (string, bool) {
	c := t.ctrl
	if s.Date != nil {
		if s.Date.Before(DateOf(t.now)) {
			return PastSlotPrompt, false
		}
		if !c.hours.IsOpenDay(s.Date.Weekday()) {
			return UnbookablePrompt(c.OfficeHoursText()), false
		}
	}
	if s.Time != nil && !c.hours.AllowsTimeOfDay(s.Time.Minutes()) {
		return UnbookablePrompt(c.OfficeHoursText()), false
	}
	return "", true
}

func (t *turn) askModel(ctx context.Context) *TurnResult {
	c := t.ctrl
	st := t.state

	knowledge := ""
	if c.knowledge != nil {
		k, err := c.knowledge.Get(ctx)
		if err != nil {
			c.logger.Warn("conversation: failed to load clinic knowledge", "error", err)
		}
		knowledge = k
	}
	persona := Persona{
		ClinicName:  c.clinicName,
		OfficeHours: c.OfficeHoursText(),
		Knowledge:   knowledge,
		Channel:     st.Channel,
	}
	req := LLMRequest{
		Model:       c.model,
		System:      []string{persona.SystemPrompt(st, t.now)},
		Messages:    append([]ChatMessage(nil), st.Messages...),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	resp, err := c.complete(ctx, req)
	if err != nil {
		c.logger.Error("conversation: llm completion failed", "error", err, "session_key", st.SessionKey)
		t.discard = true
		return &TurnResult{Reply: ReplyApology, Outcome: OutcomeModelError}
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return t.reply(ReplyEmptyOutput, OutcomeModel)
	}

	summary, rest, ok := ParseLeadSummary(text)
	if !ok {
		return t.reply(text, OutcomeModel)
	}
	t.applySummary(summary)
	if !st.Complete() || st.Committed {
		if rest == "" {
			field, _ := st.NextMissing()
			rest = PromptFor(field)
		}
		return t.reply(rest, OutcomeModel)
	}
	return t.commit(ctx, rest)
}

func (c *Controller) complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	ctx, span := conversationTracer.Start(ctx, "conversation.llm")
	defer span.End()
	span.SetAttributes(attribute.String("llm.provider", c.provider))

	ctx, cancel := context.WithTimeout(ctx, c.llmTimeout)
	defer cancel()

	start := time.Now()
	resp, err := c.llm.Complete(ctx, req)
	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
	}
	c.metrics.ObserveLLM(c.provider, status, time.Since(start))
	if err != nil {
		return LLMResponse{}, err
	}
	c.metrics.ObserveTokens(c.provider, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return resp, nil
}

// applySummary fills fields the caller has not given yet from a finalization block.
// A preferred time that parses but is not bookable is dropped; one that does not parse
// is kept as written.
func (t *turn) applySummary(s LeadSummary) {
	st := t.state
	c := t.ctrl

	st.SetIfAbsent(FieldName, s.Name)
	phone := ExtractPhone(s.Phone)
	if phone == "" {
		phone = s.Phone
	}
	st.SetIfAbsent(FieldPhone, phone)
	st.SetIfAbsent(FieldReason, s.Reason)

	if st.Has(FieldPreferredTime) {
		return
	}
	slot := c.dates.Parse(s.PreferredTime, t.now)
	if !slot.Complete() {
		st.SetIfAbsent(FieldPreferredTime, s.PreferredTime)
		return
	}
	at, _ := slot.At(c.loc)
	if at.Before(t.now) || !c.hours.IsBookable(at) {
		c.logger.Warn("conversation: model proposed an unbookable slot", "session_key", st.SessionKey, "slot", FormatPreferredTime(slot))
		return
	}
	st.SetIfAbsent(FieldPreferredTime, FormatPreferredTime(slot))
	st.PendingSlot = Slot{}
}

// commit persists the lead. preface is model text shown before the confirmation.
func (t *turn) commit(ctx context.Context, preface string) *TurnResult {
	c := t.ctrl
	st := t.state

	reason := st.Get(FieldReason)
	req := leads.CreateLeadRequest{
		ConversationID: st.ConversationID,
		SessionKey:     st.SessionKey,
		Channel:        st.Channel,
		Name:           st.Get(FieldName),
		Phone:          st.Get(FieldPhone),
		Reason:         reason,
		PreferredTime:  st.Get(FieldPreferredTime),
		Urgency:        string(ClassifyUrgency(reason, st.CallerText())),
		Transcript:     st.Transcript(),
	}

	saved, created, err := c.committer.Commit(ctx, req)
	if err != nil {
		c.metrics.ObserveCommit("error")
		c.logger.Error("conversation: lead commit failed", "error", err, "session_key", st.SessionKey)
		return t.reply(ReplyCommitFailure, OutcomeCommitFailed)
	}
	if created {
		c.metrics.ObserveCommit("created")
	} else {
		c.metrics.ObserveCommit("duplicate")
	}
	st.MarkCommitted(saved.ID)

	confirmation := ConfirmationLine(req.Name, req.PreferredTime)
	reply := confirmation
	if preface != "" {
		reply = preface + "\n\n" + confirmation
	}
	res := t.reply(reply, OutcomeCommitted)
	res.JustCommitted = true
	return res
}

func (t *turn) reply(text, outcome string) *TurnResult {
	t.state.Append(ChatRoleAssistant, text, t.now)
	return &TurnResult{Reply: text, Outcome: outcome}
}
