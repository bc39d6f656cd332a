package debate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"parley/internal/capability"
	"parley/internal/config"
	"parley/internal/errors"
	"parley/internal/event"
	"parley/internal/logging"
	"parley/internal/provider"
)

// ChunkSink receives streamed response text as it arrives, before any
// pacing or rendering. Compare-mode callers feed these chunks into a
// streamsync.Synchronizer; debate-mode callers render them directly.
type ChunkSink func(participantID, text string)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the wall clock, used by tests.
func WithClock(clk clock.Clock) Option {
	return func(o *Orchestrator) { o.clk = clk }
}

// WithLogger sets the structured logger.
func WithLogger(log *logging.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithBus sets the event bus the orchestrator publishes on.
func WithBus(bus *event.Bus) Option {
	return func(o *Orchestrator) { o.bus = bus }
}

// Orchestrator drives one debate session through its turn sequence. All
// exported methods are safe for concurrent use. Events are always
// published outside the orchestrator's lock, so listeners may call back
// into the orchestrator.
type Orchestrator struct {
	cfg      *config.Config
	clk      clock.Clock
	log      *logging.Logger
	bus      *event.Bus
	registry capability.Registry
	resolve  provider.Resolver

	mu          sync.Mutex
	session     *Session
	tracker     *failureTracker
	transcript  []provider.Message
	turnIndex   int
	cancels     map[string]func()
	turnTimer   *clock.Timer
	pendingTurn bool
	chunkSink   ChunkSink
	ctx         context.Context
}

// New creates an Orchestrator with no session. The registry resolves
// model capabilities at session creation; the resolver maps participant
// providers to adapters at each turn.
func New(cfg *config.Config, registry capability.Registry, resolve provider.Resolver, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = config.Default()
	}
	o := &Orchestrator{
		cfg:      cfg,
		clk:      clock.New(),
		log:      logging.NopLogger(),
		bus:      event.NewBus(),
		registry: registry,
		resolve:  resolve,
		cancels:  make(map[string]func()),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// InitializeDebate validates the setup, merges the roster's capabilities,
// and creates the session in the Active state. On any validation failure
// no session is created and a ValidationError is returned synchronously.
func (o *Orchestrator) InitializeDebate(topic string, participants []Participant) (*Session, error) {
	if err := validateSetup(topic, participants); err != nil {
		return nil, err
	}

	refs := make([]capability.ModelRef, len(participants))
	for i, p := range participants {
		refs[i] = capability.ModelRef{Provider: p.Provider, Model: p.Model}
	}
	caps, err := capability.MergeStrict(o.registry, refs)
	if err != nil {
		return nil, errors.NewValidationErrorWithCause("invalid debate setup: capability lookup failed", err)
	}

	o.mu.Lock()
	if o.session != nil && !o.session.Status.Terminal() {
		o.mu.Unlock()
		return nil, errors.NewValidationError("invalid debate setup: a session is already in progress")
	}
	s := &Session{
		ID:               uuid.NewString(),
		Topic:            topic,
		Participants:     append([]Participant(nil), participants...),
		WebSearchEnabled: caps.WebSearch,
		Status:           StatusActive,
	}
	o.session = s
	o.tracker = newFailureTracker(o.cfg.Debate.MaxConsecutiveFailures)
	o.transcript = nil
	o.turnIndex = 0
	o.pendingTurn = false
	o.cancels = make(map[string]func())
	snapshot := o.snapshotLocked()
	o.mu.Unlock()

	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	o.log.WithSession(s.ID).Info("debate initialized",
		"topic", topic,
		"participants", len(participants),
		"web_search", caps.WebSearch)
	o.bus.Publish(event.NewDebateStartedEvent(s.ID, topic, ids, caps.WebSearch))
	return snapshot, nil
}

// StartDebate records the opening user message and runs the first turn.
func (o *Orchestrator) StartDebate(ctx context.Context, initialPrompt string) error {
	if strings.TrimSpace(initialPrompt) == "" {
		return errors.NewValidationError("initial prompt must not be empty")
	}

	o.mu.Lock()
	if o.session == nil {
		o.mu.Unlock()
		return errors.ErrNoSession
	}
	if o.session.Status != StatusActive {
		o.mu.Unlock()
		return errors.ErrSessionInactive
	}
	if ctx == nil {
		ctx = context.Background()
	}
	o.ctx = ctx
	o.transcript = append(o.transcript, provider.Message{
		Role:    provider.RoleUser,
		Content: initialPrompt,
	})
	o.mu.Unlock()

	o.runTurn()
	return nil
}

// AddListener subscribes fn to every session event. Delivery is
// synchronous and in registration order. The returned function removes
// the subscription.
func (o *Orchestrator) AddListener(fn func(event.Event)) (unsubscribe func()) {
	id := o.bus.SubscribeAll(fn)
	return func() { o.bus.Unsubscribe(id) }
}

// SetChunkSink registers the receiver for streamed chunks. A nil sink
// discards chunks; StreamChunk events are published either way.
func (o *Orchestrator) SetChunkSink(sink ChunkSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.chunkSink = sink
}

// Pause suspends turn scheduling. An in-flight stream is allowed to
// finish; its follow-up turn is held until Resume.
func (o *Orchestrator) Pause() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return errors.ErrNoSession
	}
	if o.session.Status != StatusActive {
		return errors.ErrSessionInactive
	}
	o.session.Status = StatusPaused
	if o.turnTimer != nil {
		o.pendingTurn = true
	}
	o.stopTurnTimerLocked()
	o.log.WithSession(o.session.ID).Info("debate paused")
	return nil
}

// Resume re-activates a paused session and reschedules the held turn,
// if any, after the configured turn pause.
func (o *Orchestrator) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return errors.ErrNoSession
	}
	if o.session.Status != StatusPaused {
		return errors.ErrSessionInactive
	}
	o.session.Status = StatusActive
	if o.pendingTurn {
		o.pendingTurn = false
		o.turnTimer = o.clk.AfterFunc(o.cfg.Debate.TurnPause(), o.runTurn)
	}
	o.log.WithSession(o.session.ID).Info("debate resumed")
	return nil
}

// Stop ends the session early: cancels in-flight streams, stops the turn
// timer, and marks the session Completed.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	s := o.session
	if s == nil {
		o.mu.Unlock()
		return errors.ErrNoSession
	}
	if s.Status.Terminal() {
		o.mu.Unlock()
		return errors.ErrSessionTerminal
	}
	o.stopTurnTimerLocked()
	o.pendingTurn = false
	cancels := o.cancels
	o.cancels = make(map[string]func())
	s.Status = StatusCompleted
	evt := event.NewSessionCompletedEvent(s.ID, string(StatusCompleted), s.Rounds, "stopped")
	o.mu.Unlock()

	for _, cancel := range cancels {
		if cancel != nil {
			cancel()
		}
	}
	o.log.WithSession(evt.SessionID).Info("debate stopped", "rounds", evt.Rounds)
	o.bus.Publish(evt)
	return nil
}

// CancelStreams cancels every in-flight stream without changing session
// state. Safe to call when nothing is streaming.
func (o *Orchestrator) CancelStreams() {
	o.mu.Lock()
	cancels := o.cancels
	o.cancels = make(map[string]func())
	o.mu.Unlock()

	for _, cancel := range cancels {
		if cancel != nil {
			cancel()
		}
	}
}

// Session returns a snapshot of the current session, or nil when none
// has been initialized.
func (o *Orchestrator) Session() *Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Transcript returns a copy of the conversation so far.
func (o *Orchestrator) Transcript() []provider.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]provider.Message(nil), o.transcript...)
}

func (o *Orchestrator) snapshotLocked() *Session {
	if o.session == nil {
		return nil
	}
	s := *o.session
	s.Participants = append([]Participant(nil), o.session.Participants...)
	return &s
}

func (o *Orchestrator) stopTurnTimerLocked() {
	if o.turnTimer != nil {
		o.turnTimer.Stop()
		o.turnTimer = nil
	}
}

// runTurn executes one turn for the participant at turnIndex. It never
// blocks on the streaming path; the turn advances from the adapter's
// terminal callback, which is what makes turns strictly sequential.
func (o *Orchestrator) runTurn() {
	o.mu.Lock()
	o.turnTimer = nil
	s := o.session
	if s == nil || s.Status != StatusActive {
		o.mu.Unlock()
		return
	}
	p := s.Participants[o.turnIndex]
	req := o.buildRequestLocked(p)
	restricted := o.tracker.VerificationRestricted(p.Provider)
	ctx := o.ctx
	sessionID := s.ID
	log := o.log.WithSession(sessionID).WithParticipant(p.ID).WithTurn(s.Rounds, s.Turns)
	o.mu.Unlock()

	adapter, err := o.resolve(p.Provider)
	if err != nil {
		log.Error("adapter resolution failed", "provider", p.Provider, "error", err)
		o.bus.Publish(event.NewStreamErrorEvent(sessionID, p.ID, p.Provider, err.Error(), errors.Classify(err).String()))
		o.turnFailure(p)
		return
	}

	if restricted {
		log.Info("provider is verification-restricted, using non-streaming fallback", "provider", p.Provider)
		o.fallbackSend(ctx, adapter, p, req)
		return
	}

	h := provider.StreamHandler{
		OnChunk: func(text string) {
			o.deliverChunk(sessionID, p.ID, text)
		},
		OnComplete: func(final string) {
			o.finishTurn(p, final, false)
		},
		OnError: func(streamErr error) {
			o.handleStreamError(ctx, adapter, p, req, streamErr)
		},
	}
	cancel, err := adapter.StreamMessage(ctx, req, h)
	if err != nil {
		o.handleStreamError(ctx, adapter, p, req, err)
		return
	}

	o.mu.Lock()
	o.cancels[p.ID] = cancel
	o.mu.Unlock()
	log.Debug("stream opened", "provider", p.Provider, "model", p.Model)
}

// buildRequestLocked assembles the request from the transcript. The
// web-search flag is only ever set when the merged session capability
// allows it; otherwise it stays nil so adapters see unset, not false.
func (o *Orchestrator) buildRequestLocked(p Participant) provider.Request {
	req := provider.Request{
		Provider: p.Provider,
		Model:    p.Model,
		Messages: append([]provider.Message(nil), o.transcript...),
	}
	if o.session.WebSearchEnabled {
		req.EnableWebSearch()
	}
	return req
}

func (o *Orchestrator) deliverChunk(sessionID, participantID, text string) {
	o.mu.Lock()
	sink := o.chunkSink
	o.mu.Unlock()

	if sink != nil {
		sink(participantID, text)
	}
	o.bus.Publish(event.NewStreamChunkEvent(sessionID, participantID, text))
}

// finishTurn records a completed response, from either the streaming
// path or the fallback, and advances the session.
func (o *Orchestrator) finishTurn(p Participant, final string, fallback bool) {
	o.mu.Lock()
	s := o.session
	if s == nil || s.Status.Terminal() {
		o.mu.Unlock()
		return
	}
	delete(o.cancels, p.ID)
	o.transcript = append(o.transcript, provider.Message{
		Role:    provider.RoleAssistant,
		Name:    p.Name,
		Content: final,
	})
	s.Turns++
	o.tracker.RecordSuccess()
	events := []event.Event{event.NewStreamCompletedEvent(s.ID, p.ID, p.Provider, final, fallback)}
	events = append(events, o.advanceTurnLocked()...)
	log := o.log.WithSession(s.ID).WithParticipant(p.ID)
	o.mu.Unlock()

	log.Info("turn completed", "fallback", fallback, "chars", len(final))
	o.publish(events)
}

// handleStreamError classifies a stream failure. Verification errors
// downgrade the provider for the rest of the session and retry the same
// turn through the non-streaming fallback; every other class counts as
// a turn failure.
func (o *Orchestrator) handleStreamError(ctx context.Context, adapter provider.Adapter, p Participant, req provider.Request, err error) {
	o.mu.Lock()
	s := o.session
	if s == nil || s.Status.Terminal() {
		o.mu.Unlock()
		return
	}
	delete(o.cancels, p.ID)
	sessionID := s.ID
	o.mu.Unlock()

	class := errors.Classify(err)
	o.log.WithSession(sessionID).WithParticipant(p.ID).Warn("stream error",
		"provider", p.Provider,
		"class", class.String(),
		"error", err)
	o.bus.Publish(event.NewStreamErrorEvent(sessionID, p.ID, p.Provider, err.Error(), class.String()))

	if class == errors.ClassVerification {
		o.mu.Lock()
		tracker := o.tracker
		o.mu.Unlock()
		tracker.FlagVerification(p.Provider)
		o.fallbackSend(ctx, adapter, p, req)
		return
	}
	o.turnFailure(p)
}

// fallbackSend performs the non-streaming request for this turn. Success
// counts as a completed turn; failure counts toward the consecutive
// failure ceiling.
func (o *Orchestrator) fallbackSend(ctx context.Context, adapter provider.Adapter, p Participant, req provider.Request) {
	text, err := adapter.SendMessage(ctx, req)
	if err != nil {
		o.mu.Lock()
		sessionID := ""
		if o.session != nil {
			sessionID = o.session.ID
		}
		o.mu.Unlock()
		o.log.WithSession(sessionID).WithParticipant(p.ID).Error("fallback request failed",
			"provider", p.Provider, "error", err)
		o.bus.Publish(event.NewStreamErrorEvent(sessionID, p.ID, p.Provider, err.Error(), errors.Classify(err).String()))
		o.turnFailure(p)
		return
	}
	o.finishTurn(p, text, true)
}

// turnFailure increments the consecutive-failure counter. At the limit
// the session fails; below it the roster advances past the failed turn.
func (o *Orchestrator) turnFailure(p Participant) {
	o.mu.Lock()
	s := o.session
	if s == nil || s.Status.Terminal() {
		o.mu.Unlock()
		return
	}
	var events []event.Event
	if o.tracker.RecordFailure() {
		s.Status = StatusFailed
		o.stopTurnTimerLocked()
		o.pendingTurn = false
		events = append(events, event.NewSessionCompletedEvent(s.ID, string(StatusFailed), s.Rounds, "consecutive failure limit reached"))
	} else {
		events = o.advanceTurnLocked()
	}
	o.mu.Unlock()

	o.publish(events)
}

// advanceTurnLocked moves turnIndex to the next participant, handles
// round accounting, and either schedules the next turn or completes the
// session at the round limit. Returned events must be published after
// the lock is released.
func (o *Orchestrator) advanceTurnLocked() []event.Event {
	s := o.session
	o.turnIndex++
	if o.turnIndex >= len(s.Participants) {
		o.turnIndex = 0
		s.Rounds++
		if s.Rounds >= o.cfg.Debate.MaxRounds {
			s.Status = StatusCompleted
			return []event.Event{event.NewSessionCompletedEvent(s.ID, string(StatusCompleted), s.Rounds, "maximum rounds reached")}
		}
	}

	next := s.Participants[o.turnIndex]
	events := []event.Event{event.NewTurnAdvancedEvent(s.ID, s.Rounds, s.Turns, next.ID)}
	if s.Status == StatusPaused {
		o.pendingTurn = true
		return events
	}
	o.turnTimer = o.clk.AfterFunc(o.cfg.Debate.TurnPause(), o.runTurn)
	return events
}

func (o *Orchestrator) publish(events []event.Event) {
	for _, e := range events {
		o.bus.Publish(e)
	}
}

func validateSetup(topic string, participants []Participant) error {
	if strings.TrimSpace(topic) == "" {
		return errors.NewValidationError("invalid debate setup: topic must not be empty")
	}
	if len(participants) < 2 {
		return errors.NewValidationError("invalid debate setup: at least two participants required")
	}
	seen := make(map[string]bool, len(participants))
	for i, p := range participants {
		if p.ID == "" || p.Provider == "" || p.Model == "" {
			return errors.NewValidationError(fmt.Sprintf("invalid debate setup: participant %d is missing a required field", i))
		}
		if seen[p.ID] {
			return errors.NewValidationError(fmt.Sprintf("invalid debate setup: duplicate participant id %q", p.ID))
		}
		seen[p.ID] = true
	}
	return nil
}
