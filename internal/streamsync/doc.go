// Package streamsync paces two concurrent AI token streams so that a
// side-by-side compare view reveals both responses together instead of
// letting the faster provider sprint ahead.
//
// A [Synchronizer] owns two buffers, one per side. Producers append
// chunks as they arrive from each provider; the synchronizer delivers
// buffered text to per-side flush callbacks on a shared cadence.
//
// # Pacing Rules
//
//   - Flushing starts only after both sides have produced output, or
//     after a start timeout when one side never begins.
//   - On each tick: both sides buffered means both flush fully; one side
//     buffered against a finished side flushes fully; one side buffered
//     against a still-active side flushes partially, cut at a natural
//     text boundary near the buffer midpoint.
//   - An append that fills a side's buffer past the configured limit
//     flushes that side immediately, bypassing the cadence.
//   - Completion and error always flush every remaining character before
//     the terminal callback. Pacing never loses or reorders content.
//
// # Concurrency
//
// All operations return immediately; delivery is decoupled through timer
// callbacks. Callbacks are invoked without internal locks held and in
// FIFO order, so calling Cancel (or any other operation) from inside a
// callback is safe. Timers come from an injectable clock, letting tests
// drive the cadence with virtual time.
package streamsync
