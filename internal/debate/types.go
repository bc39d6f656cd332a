package debate

// Status represents the current state of a debate session.
type Status string

const (
	// StatusCreated indicates the session exists but has not been validated.
	StatusCreated Status = "created"

	// StatusActive indicates the session passed validation and is running turns.
	StatusActive Status = "active"

	// StatusPaused indicates turn scheduling is suspended.
	StatusPaused Status = "paused"

	// StatusCompleted indicates the session finished its configured rounds
	// or was stopped. Terminal.
	StatusCompleted Status = "completed"

	// StatusFailed indicates the session crossed the consecutive-failure
	// ceiling. Terminal.
	StatusFailed Status = "failed"
)

// Terminal reports whether no further transitions may leave this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Participant is one AI actor in a session. Participants are not mutated
// after session creation; swapping model or provider requires a new
// session.
type Participant struct {
	ID       string
	Provider string
	Model    string
	Name     string
}

// Session represents one multi-AI debate or compare run. A Session is
// mutated only by the Orchestrator that owns it; callers observe it
// through Orchestrator.Session snapshots.
type Session struct {
	ID           string
	Topic        string
	Participants []Participant

	// WebSearchEnabled is computed once at creation from the strict
	// capability merge over all participants and never re-evaluated.
	WebSearchEnabled bool

	Status Status
	// Rounds counts completed full passes over the roster.
	Rounds int
	// Turns counts individual completed turns.
	Turns int
}
