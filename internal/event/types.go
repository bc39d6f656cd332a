package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "stream.completed", "session.completed")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// Event type identifiers published by the debate orchestrator.
const (
	TypeDebateStarted    = "debate.started"
	TypeStreamChunk      = "stream.chunk"
	TypeStreamCompleted  = "stream.completed"
	TypeStreamError      = "stream.error"
	TypeTurnAdvanced     = "turn.advanced"
	TypeSessionCompleted = "session.completed"
)

// -----------------------------------------------------------------------------
// Session Lifecycle Events
// -----------------------------------------------------------------------------

// DebateStartedEvent is emitted when a debate session is initialized.
type DebateStartedEvent struct {
	baseEvent
	SessionID        string   // Unique session identifier
	Topic            string   // Debate topic
	Participants     []string // Participant IDs in turn order
	WebSearchEnabled bool     // Merged web-search capability for the roster
}

// NewDebateStartedEvent creates a DebateStartedEvent.
func NewDebateStartedEvent(sessionID, topic string, participants []string, webSearch bool) DebateStartedEvent {
	return DebateStartedEvent{
		baseEvent:        newBaseEvent(TypeDebateStarted),
		SessionID:        sessionID,
		Topic:            topic,
		Participants:     participants,
		WebSearchEnabled: webSearch,
	}
}

// SessionCompletedEvent is emitted when a session reaches a terminal state,
// either completing its configured rounds or failing past the
// consecutive-failure ceiling.
type SessionCompletedEvent struct {
	baseEvent
	SessionID string // Session that terminated
	Status    string // Terminal status ("completed" or "failed")
	Rounds    int    // Rounds finished before termination
	Reason    string // Additional context (error message if failed)
}

// NewSessionCompletedEvent creates a SessionCompletedEvent.
func NewSessionCompletedEvent(sessionID, status string, rounds int, reason string) SessionCompletedEvent {
	return SessionCompletedEvent{
		baseEvent: newBaseEvent(TypeSessionCompleted),
		SessionID: sessionID,
		Status:    status,
		Rounds:    rounds,
		Reason:    reason,
	}
}

// -----------------------------------------------------------------------------
// Streaming Events
// -----------------------------------------------------------------------------

// StreamChunkEvent is emitted as token chunks arrive for the active turn.
// The orchestrator forwards chunks to its chunk sink without delay; this
// event exists for observers beyond the primary consumer (stats, logs).
type StreamChunkEvent struct {
	baseEvent
	SessionID     string // Session the chunk belongs to
	ParticipantID string // Participant whose turn produced the chunk
	Text          string // Chunk text
}

// NewStreamChunkEvent creates a StreamChunkEvent.
func NewStreamChunkEvent(sessionID, participantID, text string) StreamChunkEvent {
	return StreamChunkEvent{
		baseEvent:     newBaseEvent(TypeStreamChunk),
		SessionID:     sessionID,
		ParticipantID: participantID,
		Text:          text,
	}
}

// StreamCompletedEvent is emitted when a turn's response is finalized,
// via either the streaming path or the non-streaming fallback.
type StreamCompletedEvent struct {
	baseEvent
	SessionID     string // Session the turn belongs to
	ParticipantID string // Participant whose turn completed
	Provider      string // Provider that produced the response
	Content       string // Finalized response text
	Fallback      bool   // True if the response came from the non-streaming fallback
}

// NewStreamCompletedEvent creates a StreamCompletedEvent.
func NewStreamCompletedEvent(sessionID, participantID, provider, content string, fallback bool) StreamCompletedEvent {
	return StreamCompletedEvent{
		baseEvent:     newBaseEvent(TypeStreamCompleted),
		SessionID:     sessionID,
		ParticipantID: participantID,
		Provider:      provider,
		Content:       content,
		Fallback:      fallback,
	}
}

// StreamErrorEvent is emitted when a turn's stream fails. The
// classification tells consumers whether the failure was a verification
// restriction (triggering the fallback path) or a transient error.
type StreamErrorEvent struct {
	baseEvent
	SessionID     string // Session the turn belongs to
	ParticipantID string // Participant whose turn failed
	Provider      string // Provider that reported the error
	Err           string // Error message text
	Class         string // Classifier result (e.g. "verification", "overloaded")
}

// NewStreamErrorEvent creates a StreamErrorEvent.
func NewStreamErrorEvent(sessionID, participantID, provider, errMsg, class string) StreamErrorEvent {
	return StreamErrorEvent{
		baseEvent:     newBaseEvent(TypeStreamError),
		SessionID:     sessionID,
		ParticipantID: participantID,
		Provider:      provider,
		Err:           errMsg,
		Class:         class,
	}
}

// -----------------------------------------------------------------------------
// Turn Events
// -----------------------------------------------------------------------------

// TurnAdvancedEvent is emitted when the orchestrator schedules the next
// turn. The turn has not started yet; it begins after the configured
// post-stream pause.
type TurnAdvancedEvent struct {
	baseEvent
	SessionID     string // Session advancing
	Round         int    // Zero-based round the upcoming turn belongs to
	Turn          int    // Zero-based index into the roster
	ParticipantID string // Participant taking the upcoming turn
}

// NewTurnAdvancedEvent creates a TurnAdvancedEvent.
func NewTurnAdvancedEvent(sessionID string, round, turn int, participantID string) TurnAdvancedEvent {
	return TurnAdvancedEvent{
		baseEvent:     newBaseEvent(TypeTurnAdvanced),
		SessionID:     sessionID,
		Round:         round,
		Turn:          turn,
		ParticipantID: participantID,
	}
}
