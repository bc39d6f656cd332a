// Package event provides a pub-sub event bus for decoupled inter-component
// communication in Parley.
//
// The debate orchestrator publishes lifecycle events as a session progresses;
// consumers (UI layers, stats collectors, tests) subscribe without the
// orchestrator knowing who receives them.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Session lifecycle:
//   - [DebateStartedEvent]: Emitted when a debate session is initialized
//   - [SessionCompletedEvent]: Emitted when a session reaches a terminal state
//
// Per-turn streaming:
//   - [StreamChunkEvent]: Emitted as token chunks arrive for the active turn
//   - [StreamCompletedEvent]: Emitted when a turn's response is finalized
//   - [StreamErrorEvent]: Emitted when a turn's stream fails
//   - [TurnAdvancedEvent]: Emitted when the next turn is scheduled
//
// # Delivery Semantics
//
// The [Bus] is safe for concurrent use. Handlers are invoked synchronously
// in registration order: first handlers subscribed to the specific event
// type, then wildcard handlers registered via SubscribeAll. A panicking
// handler is recovered and logged so it cannot block delivery to the rest.
package event
