package debate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"

	"parley/internal/capability"
	"parley/internal/config"
	"parley/internal/errors"
	"parley/internal/event"
	"parley/internal/provider"
)

// fakeAdapter captures stream handlers so tests can drive chunk,
// completion, and error callbacks deterministically.
type fakeAdapter struct {
	name string

	mu          sync.Mutex
	openErr     error
	sendText    string
	sendErr     error
	handlers    []provider.StreamHandler
	streamReqs  []provider.Request
	sendReqs    []provider.Request
	cancelCount int
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) StreamMessage(_ context.Context, req provider.Request, h provider.StreamHandler) (func(), error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.openErr != nil {
		return nil, a.openErr
	}
	a.streamReqs = append(a.streamReqs, req)
	a.handlers = append(a.handlers, h)
	return func() {
		a.mu.Lock()
		a.cancelCount++
		a.mu.Unlock()
	}, nil
}

func (a *fakeAdapter) SendMessage(_ context.Context, req provider.Request) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sendReqs = append(a.sendReqs, req)
	if a.sendErr != nil {
		return "", a.sendErr
	}
	if a.sendText != "" {
		return a.sendText, nil
	}
	return "fallback response", nil
}

func (a *fakeAdapter) lastHandler(t *testing.T) provider.StreamHandler {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.handlers) == 0 {
		t.Fatalf("adapter %s: no stream opened", a.name)
	}
	return a.handlers[len(a.handlers)-1]
}

func (a *fakeAdapter) streamCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.streamReqs)
}

func (a *fakeAdapter) sendCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sendReqs)
}

func (a *fakeAdapter) cancels() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancelCount
}

// fakeRegistry serves a fixed capability table keyed by provider/model.
type fakeRegistry struct {
	caps map[string]capability.Capabilities
}

func (r fakeRegistry) ModelCapabilities(providerID, model string) (capability.Capabilities, error) {
	c, ok := r.caps[providerID+"/"+model]
	if !ok {
		return capability.Capabilities{}, fmt.Errorf("unknown model %s/%s", providerID, model)
	}
	return c, nil
}

func allWebSearchRegistry() fakeRegistry {
	return fakeRegistry{caps: map[string]capability.Capabilities{
		"anthropic/claude-sonnet-4": {WebSearch: true, ImageUpload: true, DocumentUpload: true},
		"openai/gpt-4o":             {WebSearch: true, ImageUpload: true},
	}}
}

func testParticipants() []Participant {
	return []Participant{
		{ID: "claude", Provider: "anthropic", Model: "claude-sonnet-4", Name: "Claude"},
		{ID: "gpt", Provider: "openai", Model: "gpt-4o", Name: "GPT"},
	}
}

type harness struct {
	t    *testing.T
	orch *Orchestrator
	clk  *clock.Mock
	cfg  *config.Config
	a1   *fakeAdapter
	a2   *fakeAdapter

	mu     sync.Mutex
	events []event.Event
}

func newHarness(t *testing.T, reg capability.Registry) *harness {
	t.Helper()
	h := &harness{
		t:   t,
		clk: clock.NewMock(),
		cfg: config.Default(),
		a1:  &fakeAdapter{name: "anthropic"},
		a2:  &fakeAdapter{name: "openai"},
	}
	resolve := provider.StaticResolver(map[string]provider.Adapter{
		"anthropic": h.a1,
		"openai":    h.a2,
	})
	h.orch = New(h.cfg, reg, resolve, WithClock(h.clk))
	h.orch.AddListener(func(e event.Event) {
		h.mu.Lock()
		h.events = append(h.events, e)
		h.mu.Unlock()
	})
	return h
}

func (h *harness) start(t *testing.T, prompt string) *Session {
	t.Helper()
	s, err := h.orch.InitializeDebate("Is tea better than coffee?", testParticipants())
	if err != nil {
		t.Fatalf("InitializeDebate: %v", err)
	}
	if err := h.orch.StartDebate(context.Background(), prompt); err != nil {
		t.Fatalf("StartDebate: %v", err)
	}
	return s
}

func (h *harness) eventTypes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	types := make([]string, len(h.events))
	for i, e := range h.events {
		types[i] = e.EventType()
	}
	return types
}

func (h *harness) eventsOf(eventType string) []event.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []event.Event
	for _, e := range h.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (h *harness) nextTurn() {
	h.clk.Add(h.cfg.Debate.TurnPause())
}

func TestInitializeDebateValidation(t *testing.T) {
	valid := testParticipants()

	tests := []struct {
		name         string
		topic        string
		participants []Participant
	}{
		{"empty topic", "  ", valid},
		{"no participants", "topic", nil},
		{"single participant", "topic", valid[:1]},
		{"missing provider", "topic", []Participant{valid[0], {ID: "x", Model: "m"}}},
		{"missing model", "topic", []Participant{valid[0], {ID: "x", Provider: "openai"}}},
		{"duplicate ids", "topic", []Participant{valid[0], valid[0]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, allWebSearchRegistry())
			s, err := h.orch.InitializeDebate(tt.topic, tt.participants)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsValidation(err) {
				t.Errorf("expected ValidationError, got %T: %v", err, err)
			}
			if !strings.HasPrefix(err.Error(), "invalid debate setup") {
				t.Errorf("unexpected message: %q", err.Error())
			}
			if s != nil {
				t.Error("no session should be created on validation failure")
			}
			if h.orch.Session() != nil {
				t.Error("orchestrator should hold no session after rejection")
			}
		})
	}
}

func TestInitializeDebateUnknownModel(t *testing.T) {
	h := newHarness(t, fakeRegistry{caps: map[string]capability.Capabilities{}})
	_, err := h.orch.InitializeDebate("topic", testParticipants())
	if err == nil || !errors.IsValidation(err) {
		t.Fatalf("expected validation error for unknown model, got %v", err)
	}
}

func TestInitializeDebateMergesCapabilities(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())
	s, err := h.orch.InitializeDebate("topic", testParticipants())
	if err != nil {
		t.Fatalf("InitializeDebate: %v", err)
	}
	if !s.WebSearchEnabled {
		t.Error("both models support web search, session should enable it")
	}
	if s.Status != StatusActive {
		t.Errorf("status = %s, want %s", s.Status, StatusActive)
	}

	started := h.eventsOf(event.TypeDebateStarted)
	if len(started) != 1 {
		t.Fatalf("expected one DebateStarted event, got %d", len(started))
	}
	evt := started[0].(event.DebateStartedEvent)
	if evt.SessionID != s.ID || !evt.WebSearchEnabled {
		t.Errorf("unexpected DebateStarted payload: %+v", evt)
	}
	if len(evt.Participants) != 2 || evt.Participants[0] != "claude" {
		t.Errorf("participants = %v", evt.Participants)
	}
}

func TestMergeDisablesWebSearchWhenAnyModelLacksIt(t *testing.T) {
	reg := fakeRegistry{caps: map[string]capability.Capabilities{
		"anthropic/claude-sonnet-4": {WebSearch: true},
		"openai/gpt-4o":             {WebSearch: false},
	}}
	h := newHarness(t, reg)
	s := h.start(t, "Opening statements, please.")

	if s.WebSearchEnabled {
		t.Error("one model lacks web search, session must not enable it")
	}
	req := h.a1.streamReqs[0]
	if req.WebSearchEnabled != nil {
		t.Errorf("request flag should stay unset, got %v", *req.WebSearchEnabled)
	}
}

func TestWebSearchFlagPropagation(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())
	h.start(t, "Opening statements, please.")

	req := h.a1.streamReqs[0]
	if req.WebSearchEnabled == nil || !*req.WebSearchEnabled {
		t.Error("merged web search should set the request flag to true")
	}
}

func TestStartDebateRequiresSession(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())
	if err := h.orch.StartDebate(context.Background(), "go"); !errors.Is(err, errors.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}

	if _, err := h.orch.InitializeDebate("topic", testParticipants()); err != nil {
		t.Fatal(err)
	}
	if err := h.orch.StartDebate(context.Background(), "  "); !errors.IsValidation(err) {
		t.Errorf("expected validation error for empty prompt, got %v", err)
	}
}

func TestTurnSequencing(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())
	h.start(t, "Opening statements, please.")

	// First turn streams for the first participant only.
	if h.a1.streamCount() != 1 || h.a2.streamCount() != 0 {
		t.Fatalf("streams = %d/%d, want 1/0", h.a1.streamCount(), h.a2.streamCount())
	}
	if got := h.a1.streamReqs[0].Messages; len(got) != 1 || got[0].Role != provider.RoleUser {
		t.Fatalf("first request transcript = %+v", got)
	}

	h.a1.lastHandler(t).OnComplete("Tea, obviously.")

	// Next turn waits out the pause.
	if h.a2.streamCount() != 0 {
		t.Fatal("second turn started before the turn pause elapsed")
	}
	h.nextTurn()
	if h.a2.streamCount() != 1 {
		t.Fatal("second turn did not start after the turn pause")
	}

	// Second participant sees the user prompt and the first response.
	msgs := h.a2.streamReqs[0].Messages
	if len(msgs) != 2 {
		t.Fatalf("second request transcript has %d messages, want 2", len(msgs))
	}
	if msgs[1].Role != provider.RoleAssistant || msgs[1].Name != "Claude" || msgs[1].Content != "Tea, obviously." {
		t.Errorf("transcript entry = %+v", msgs[1])
	}

	h.a2.lastHandler(t).OnComplete("Coffee, clearly.")
	s := h.orch.Session()
	if s.Turns != 2 || s.Rounds != 1 {
		t.Errorf("turns=%d rounds=%d, want 2/1", s.Turns, s.Rounds)
	}

	want := []string{
		event.TypeDebateStarted,
		event.TypeStreamCompleted,
		event.TypeTurnAdvanced,
		event.TypeStreamCompleted,
		event.TypeTurnAdvanced,
	}
	got := h.eventTypes()
	if len(got) != len(want) {
		t.Fatalf("event types = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event[%d] = %s, want %s (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestChunksFlowToSinkAndBus(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())

	var (
		mu     sync.Mutex
		chunks []string
	)
	h.orch.SetChunkSink(func(participantID, text string) {
		mu.Lock()
		chunks = append(chunks, participantID+":"+text)
		mu.Unlock()
	})
	h.start(t, "Opening statements, please.")

	handler := h.a1.lastHandler(t)
	handler.OnChunk("Tea ")
	handler.OnChunk("is best.")

	mu.Lock()
	defer mu.Unlock()
	if len(chunks) != 2 || chunks[0] != "claude:Tea " || chunks[1] != "claude:is best." {
		t.Errorf("sink chunks = %v", chunks)
	}
	if got := h.eventsOf(event.TypeStreamChunk); len(got) != 2 {
		t.Errorf("expected 2 StreamChunk events, got %d", len(got))
	}
}

func TestVerificationErrorFallsBackSameTurn(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())
	h.a1.sendText = "Tea, via the slow path."
	h.start(t, "Opening statements, please.")

	h.a1.lastHandler(t).OnError(errors.New("anthropic: organization verification required (403)"))

	// The same turn retries through the non-streaming fallback.
	if h.a1.sendCount() != 1 {
		t.Fatalf("fallback SendMessage calls = %d, want 1", h.a1.sendCount())
	}

	errEvents := h.eventsOf(event.TypeStreamError)
	if len(errEvents) != 1 {
		t.Fatalf("expected 1 StreamError event, got %d", len(errEvents))
	}
	if cls := errEvents[0].(event.StreamErrorEvent).Class; cls != "verification" {
		t.Errorf("error class = %q, want verification", cls)
	}

	done := h.eventsOf(event.TypeStreamCompleted)
	if len(done) != 1 {
		t.Fatalf("expected 1 StreamCompleted event, got %d", len(done))
	}
	completed := done[0].(event.StreamCompletedEvent)
	if !completed.Fallback || completed.Content != "Tea, via the slow path." {
		t.Errorf("completion = %+v, want fallback content", completed)
	}

	// The fallback success counts as a finished turn and schedules the next.
	if s := h.orch.Session(); s.Turns != 1 {
		t.Errorf("turns = %d, want 1", s.Turns)
	}
	h.nextTurn()
	if h.a2.streamCount() != 1 {
		t.Error("next turn was not scheduled after the fallback completion")
	}

	// The restriction is sticky: the provider's next turn skips streaming.
	h.a2.lastHandler(t).OnComplete("Coffee.")
	h.nextTurn()
	if h.a1.streamCount() != 1 {
		t.Error("restricted provider should not open another stream")
	}
	if h.a1.sendCount() != 2 {
		t.Errorf("restricted provider send calls = %d, want 2", h.a1.sendCount())
	}
}

func TestVerificationRestrictionIsPerSession(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())
	h.start(t, "Opening statements, please.")
	h.a1.lastHandler(t).OnError(errors.New("organization verification required"))

	if err := h.orch.Stop(); err != nil {
		t.Fatal(err)
	}

	// A fresh session starts with a clean tracker.
	if _, err := h.orch.InitializeDebate("round two", testParticipants()); err != nil {
		t.Fatal(err)
	}
	if err := h.orch.StartDebate(context.Background(), "again"); err != nil {
		t.Fatal(err)
	}
	if h.a1.streamCount() != 2 {
		t.Errorf("new session should stream again, streams = %d", h.a1.streamCount())
	}
}

func TestConsecutiveFailuresFailTheSession(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())
	h.start(t, "Opening statements, please.")

	// Default limit is three. Failures advance the roster, so they land
	// on alternating participants.
	h.a1.lastHandler(t).OnError(errors.New("anthropic is overloaded"))
	h.nextTurn()
	h.a2.lastHandler(t).OnError(errors.New("rate limit exceeded (429)"))
	h.nextTurn()
	h.a1.lastHandler(t).OnError(errors.New("server overloaded, try again"))

	s := h.orch.Session()
	if s.Status != StatusFailed {
		t.Fatalf("status = %s, want %s", s.Status, StatusFailed)
	}

	done := h.eventsOf(event.TypeSessionCompleted)
	if len(done) != 1 {
		t.Fatalf("expected 1 SessionCompleted event, got %d", len(done))
	}
	if evt := done[0].(event.SessionCompletedEvent); evt.Status != string(StatusFailed) {
		t.Errorf("completion status = %q, want failed", evt.Status)
	}

	// Terminal state: nothing further is scheduled.
	h.nextTurn()
	if h.a1.streamCount()+h.a2.streamCount() != 3 {
		t.Error("no turn may run after the session failed")
	}
}

func TestSuccessResetsFailureCounter(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())
	h.start(t, "Opening statements, please.")

	h.a1.lastHandler(t).OnError(errors.New("overloaded"))
	h.nextTurn()
	h.a2.lastHandler(t).OnError(errors.New("overloaded"))
	h.nextTurn()
	h.a1.lastHandler(t).OnComplete("Recovered.")
	h.nextTurn()
	h.a2.lastHandler(t).OnError(errors.New("overloaded"))

	if s := h.orch.Session(); s.Status != StatusActive {
		t.Errorf("status = %s, want active (counter should reset on success)", s.Status)
	}
}

func TestRoundLimitCompletesSession(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())
	h.cfg.Debate.MaxRounds = 1
	h.start(t, "Opening statements, please.")

	h.a1.lastHandler(t).OnComplete("Tea.")
	h.nextTurn()
	h.a2.lastHandler(t).OnComplete("Coffee.")

	s := h.orch.Session()
	if s.Status != StatusCompleted {
		t.Fatalf("status = %s, want %s", s.Status, StatusCompleted)
	}
	if s.Rounds != 1 {
		t.Errorf("rounds = %d, want 1", s.Rounds)
	}

	done := h.eventsOf(event.TypeSessionCompleted)
	if len(done) != 1 {
		t.Fatalf("expected 1 SessionCompleted event, got %d", len(done))
	}
	if evt := done[0].(event.SessionCompletedEvent); evt.Status != string(StatusCompleted) || evt.Rounds != 1 {
		t.Errorf("completion payload = %+v", evt)
	}

	h.nextTurn()
	if h.a1.streamCount() != 1 {
		t.Error("no turn may run after the session completed")
	}
}

func TestPauseHoldsPendingTurn(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())
	h.start(t, "Opening statements, please.")
	h.a1.lastHandler(t).OnComplete("Tea.")

	if err := h.orch.Pause(); err != nil {
		t.Fatal(err)
	}
	h.nextTurn()
	if h.a2.streamCount() != 0 {
		t.Fatal("paused session must not start a turn")
	}
	if s := h.orch.Session(); s.Status != StatusPaused {
		t.Fatalf("status = %s, want %s", s.Status, StatusPaused)
	}

	if err := h.orch.Resume(); err != nil {
		t.Fatal(err)
	}
	h.nextTurn()
	if h.a2.streamCount() != 1 {
		t.Error("resumed session should run the held turn")
	}
}

func TestPauseDuringStreamHoldsFollowupTurn(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())
	h.start(t, "Opening statements, please.")

	if err := h.orch.Pause(); err != nil {
		t.Fatal(err)
	}
	// The in-flight stream is allowed to finish while paused.
	h.a1.lastHandler(t).OnComplete("Tea.")
	if s := h.orch.Session(); s.Turns != 1 {
		t.Fatalf("turns = %d, completion during pause must still count", s.Turns)
	}

	h.nextTurn()
	if h.a2.streamCount() != 0 {
		t.Fatal("follow-up turn ran while paused")
	}
	if err := h.orch.Resume(); err != nil {
		t.Fatal(err)
	}
	h.nextTurn()
	if h.a2.streamCount() != 1 {
		t.Error("follow-up turn should run after resume")
	}
}

func TestPauseResumeStateErrors(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())
	if err := h.orch.Pause(); !errors.Is(err, errors.ErrNoSession) {
		t.Errorf("Pause with no session = %v, want ErrNoSession", err)
	}

	h.start(t, "go")
	if err := h.orch.Resume(); !errors.Is(err, errors.ErrSessionInactive) {
		t.Errorf("Resume while active = %v, want ErrSessionInactive", err)
	}
	if err := h.orch.Pause(); err != nil {
		t.Fatal(err)
	}
	if err := h.orch.Pause(); !errors.Is(err, errors.ErrSessionInactive) {
		t.Errorf("double Pause = %v, want ErrSessionInactive", err)
	}
}

func TestStopCancelsInFlightStreams(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())
	h.start(t, "Opening statements, please.")
	handler := h.a1.lastHandler(t)

	if err := h.orch.Stop(); err != nil {
		t.Fatal(err)
	}
	if h.a1.cancels() != 1 {
		t.Errorf("cancel calls = %d, want 1", h.a1.cancels())
	}
	s := h.orch.Session()
	if s.Status != StatusCompleted {
		t.Fatalf("status = %s, want %s", s.Status, StatusCompleted)
	}

	// A straggling completion from the dead stream is ignored.
	handler.OnComplete("too late")
	if got := h.orch.Session().Turns; got != 0 {
		t.Errorf("turns = %d, late completion must not count", got)
	}
	if len(h.eventsOf(event.TypeStreamCompleted)) != 0 {
		t.Error("late completion must not publish an event")
	}

	if err := h.orch.Stop(); !errors.Is(err, errors.ErrSessionTerminal) {
		t.Errorf("Stop on terminal session = %v, want ErrSessionTerminal", err)
	}
}

func TestCancelStreamsIsNilSafe(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())
	h.orch.CancelStreams()

	h.start(t, "go")
	h.orch.CancelStreams()
	if h.a1.cancels() != 1 {
		t.Errorf("cancel calls = %d, want 1", h.a1.cancels())
	}
}

func TestAddListenerUnsubscribe(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())

	var count int
	unsubscribe := h.orch.AddListener(func(event.Event) { count++ })
	if _, err := h.orch.InitializeDebate("topic", testParticipants()); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("listener calls = %d, want 1", count)
	}

	unsubscribe()
	if err := h.orch.StartDebate(context.Background(), "go"); err != nil {
		t.Fatal(err)
	}
	h.a1.lastHandler(t).OnComplete("done")
	if count != 1 {
		t.Errorf("listener calls after unsubscribe = %d, want 1", count)
	}
}

func TestInitializeRejectsConcurrentSession(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())
	h.start(t, "go")

	_, err := h.orch.InitializeDebate("another", testParticipants())
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error while a session is in progress, got %v", err)
	}
}

func TestStreamOpenFailureCountsAsTurnFailure(t *testing.T) {
	h := newHarness(t, allWebSearchRegistry())
	h.a1.openErr = errors.New("connection refused")
	h.start(t, "go")

	errEvents := h.eventsOf(event.TypeStreamError)
	if len(errEvents) != 1 {
		t.Fatalf("expected 1 StreamError event, got %d", len(errEvents))
	}
	// The roster advances; the next participant still gets a turn.
	h.nextTurn()
	if h.a2.streamCount() != 1 {
		t.Error("next participant should get a turn after an open failure")
	}
}
