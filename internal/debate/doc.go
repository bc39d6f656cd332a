// Package debate implements the turn-taking orchestrator for
// multi-participant AI sessions.
//
// An [Orchestrator] owns one session at a time: it validates the setup,
// resolves the roster's merged capabilities, then runs strictly
// sequential turns. Each turn streams one participant's response through
// its provider adapter, forwarding chunks to the registered sink as they
// arrive, and schedules the next turn after a configured pause once the
// response is finalized.
//
// # Session Lifecycle
//
// A session progresses Created → Active → (Completed | Failed), with an
// optional Active ↔ Paused detour. Completed and Failed are terminal.
//
// # Failure Recovery
//
// Mid-session streaming failures are non-fatal: the turn is recorded as
// failed and the session moves on, until a configured number of
// consecutive failures marks the session Failed. The exception is a
// provider verification restriction, which permanently (for the session)
// downgrades that provider to the non-streaming fallback. The current
// turn is retried once through the fallback so the user still receives a
// response, and later turns for that provider skip streaming entirely.
//
// Observers subscribe through AddListener and receive events
// synchronously in registration order: stream chunks, completions,
// errors, turn advancement, and session termination.
package debate
