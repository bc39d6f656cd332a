package streamsync

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// Config controls pacing. Zero fields fall back to defaults.
type Config struct {
	// SyncInterval is the synchronized flush cadence.
	SyncInterval time.Duration
	// MaxBufferSize is the per-side force-flush threshold in characters.
	MaxBufferSize int
	// StartDelay is the grace period after the start gate opens before
	// the first flush.
	StartDelay time.Duration
	// StartTimeout is the maximum wait for the second side to start
	// before proceeding with only one.
	StartTimeout time.Duration
}

// DefaultConfig returns the default pacing configuration.
func DefaultConfig() Config {
	return Config{
		SyncInterval:  80 * time.Millisecond,
		MaxBufferSize: 200,
		StartDelay:    150 * time.Millisecond,
		StartTimeout:  500 * time.Millisecond,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SyncInterval <= 0 {
		c.SyncInterval = def.SyncInterval
	}
	if c.MaxBufferSize <= 0 {
		c.MaxBufferSize = def.MaxBufferSize
	}
	if c.StartDelay < 0 {
		c.StartDelay = def.StartDelay
	}
	if c.StartTimeout <= 0 {
		c.StartTimeout = def.StartTimeout
	}
	return c
}

// Callbacks are the consumer-side delivery functions, one set per side.
// Nil callbacks are permitted and skipped.
type Callbacks struct {
	OnLeftFlush     func(text string)
	OnRightFlush    func(text string)
	OnLeftComplete  func(final string)
	OnRightComplete func(final string)
	OnLeftError     func(err error)
	OnRightError    func(err error)
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithClock injects a clock, letting tests drive pacing with virtual time.
func WithClock(clk clock.Clock) Option {
	return func(s *Synchronizer) {
		s.clk = clk
	}
}

// Synchronizer buffers and times chunk delivery from two concurrent
// streams so consumer-visible flushes are paced together. See the
// package documentation for the pacing rules.
type Synchronizer struct {
	cfg Config
	clk clock.Clock

	mu    sync.Mutex
	left  streamState
	right streamState

	gateOpen bool // start condition met (both started, or timeout)
	syncing  bool // flush cadence running (start delay elapsed)
	canceled bool

	startTimer *clock.Timer // single-sided start timeout
	delayTimer *clock.Timer // post-gate grace period
	tickTimer  *clock.Timer // re-armed flush cadence

	// pending holds queued callback invocations, delivered FIFO outside
	// the state lock so callbacks can safely re-enter the synchronizer.
	pending  []func()
	draining atomic.Bool
}

// New creates a Synchronizer with the given pacing config and callbacks.
func New(cfg Config, cb Callbacks, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		cfg: cfg.withDefaults(),
		clk: clock.New(),
		left: streamState{
			name:       "left",
			onFlush:    cb.OnLeftFlush,
			onComplete: cb.OnLeftComplete,
			onError:    cb.OnLeftError,
		},
		right: streamState{
			name:       "right",
			onFlush:    cb.OnRightFlush,
			onComplete: cb.OnRightComplete,
			onError:    cb.OnRightError,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendLeft adds a chunk to the left side's buffer.
// Calling after cancellation or completion of the side is a no-op.
func (s *Synchronizer) AppendLeft(chunk string) { s.append(&s.left, chunk) }

// AppendRight adds a chunk to the right side's buffer.
func (s *Synchronizer) AppendRight(chunk string) { s.append(&s.right, chunk) }

// CompleteLeft marks the left side terminal with its authoritative final
// content. Remaining buffered text is flushed in full before the
// completion callback fires.
func (s *Synchronizer) CompleteLeft(final string) { s.completeSide(&s.left, final) }

// CompleteRight marks the right side terminal with its final content.
func (s *Synchronizer) CompleteRight(final string) { s.completeSide(&s.right, final) }

// ErrorLeft marks the left side terminal with an error. Buffered partial
// content is flushed first so it is not silently dropped.
func (s *Synchronizer) ErrorLeft(err error) { s.errorSide(&s.left, err) }

// ErrorRight marks the right side terminal with an error.
func (s *Synchronizer) ErrorRight(err error) { s.errorSide(&s.right, err) }

// Cancel stops all timers and makes every subsequent operation a no-op.
// It is idempotent and safe to call from inside a callback.
func (s *Synchronizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.canceled {
		return
	}
	s.canceled = true
	s.stopTimersLocked()
	s.pending = nil
}

// State returns a diagnostic snapshot.
func (s *Synchronizer) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Left: SideState{
			Started:       s.left.started,
			Complete:      s.left.complete,
			BufferedChars: s.left.bufferedChars(),
		},
		Right: SideState{
			Started:       s.right.started,
			Complete:      s.right.complete,
			BufferedChars: s.right.bufferedChars(),
		},
		Syncing:  s.syncing,
		Canceled: s.canceled,
	}
}

func (s *Synchronizer) append(st *streamState, chunk string) {
	s.mu.Lock()
	if s.canceled || st.complete || chunk == "" {
		s.mu.Unlock()
		return
	}

	st.total += chunk
	if !st.started {
		st.started = true
		s.sideStartedLocked()
	}

	// Force flush on overflow, bypassing the sync cadence, to bound
	// worst-case latency and memory.
	if st.bufferedChars() >= s.cfg.MaxBufferSize {
		s.queueFlushAllLocked(st)
	}
	s.mu.Unlock()

	s.drain()
}

func (s *Synchronizer) completeSide(st *streamState, final string) {
	s.mu.Lock()
	if s.canceled || st.complete {
		s.mu.Unlock()
		return
	}

	st.complete = true
	if !st.started {
		// Completion implies the side has produced output; open the gate
		// for the other side rather than waiting on a finished stream.
		st.started = true
		s.sideStartedLocked()
	}

	// The final content is authoritative; incremental chunks may have
	// drifted from it.
	st.total = final
	s.queueFlushAllLocked(st)

	if cb := st.onComplete; cb != nil {
		s.pending = append(s.pending, func() { cb(final) })
	}
	s.checkBothCompleteLocked()
	s.mu.Unlock()

	s.drain()
}

func (s *Synchronizer) errorSide(st *streamState, err error) {
	s.mu.Lock()
	if s.canceled || st.complete {
		s.mu.Unlock()
		return
	}

	st.complete = true
	st.err = err
	if !st.started {
		st.started = true
		s.sideStartedLocked()
	}

	// Flush partial content before reporting the error.
	s.queueFlushAllLocked(st)

	if cb := st.onError; cb != nil {
		s.pending = append(s.pending, func() { cb(err) })
	}
	s.checkBothCompleteLocked()
	s.mu.Unlock()

	s.drain()
}

// sideStartedLocked runs the start gate logic after a side's first
// output. The gate opens when both sides have started, or when
// StartTimeout elapses with only one side started.
func (s *Synchronizer) sideStartedLocked() {
	if s.gateOpen {
		return
	}
	if s.left.started && s.right.started {
		if s.startTimer != nil {
			s.startTimer.Stop()
			s.startTimer = nil
		}
		s.openGateLocked()
		return
	}
	if s.startTimer == nil {
		s.startTimer = s.clk.AfterFunc(s.cfg.StartTimeout, s.onStartTimeout)
	}
}

func (s *Synchronizer) onStartTimeout() {
	s.mu.Lock()
	if s.canceled || s.gateOpen {
		s.mu.Unlock()
		return
	}
	s.openGateLocked()
	s.mu.Unlock()
}

// openGateLocked schedules the first flush after the start-delay grace
// period.
func (s *Synchronizer) openGateLocked() {
	s.gateOpen = true
	s.delayTimer = s.clk.AfterFunc(s.cfg.StartDelay, s.onStartDelayElapsed)
}

func (s *Synchronizer) onStartDelayElapsed() {
	s.mu.Lock()
	if s.canceled {
		s.mu.Unlock()
		return
	}
	s.syncing = true
	s.tickLocked()
	s.armTickLocked()
	s.mu.Unlock()

	s.drain()
}

func (s *Synchronizer) onTick() {
	s.mu.Lock()
	if s.canceled || !s.syncing {
		s.mu.Unlock()
		return
	}
	s.tickLocked()
	s.armTickLocked()
	s.mu.Unlock()

	s.drain()
}

func (s *Synchronizer) armTickLocked() {
	if s.canceled || (s.left.complete && s.right.complete) {
		return
	}
	s.tickTimer = s.clk.AfterFunc(s.cfg.SyncInterval, s.onTick)
}

// tickLocked applies the per-tick flush policy.
func (s *Synchronizer) tickLocked() {
	leftBuf := s.left.buffer()
	rightBuf := s.right.buffer()

	switch {
	case leftBuf != "" && rightBuf != "":
		s.queueFlushAllLocked(&s.left)
		s.queueFlushAllLocked(&s.right)
	case leftBuf != "":
		s.flushLaggingLocked(&s.left, &s.right)
	case rightBuf != "":
		s.flushLaggingLocked(&s.right, &s.left)
	}
}

// flushLaggingLocked flushes a side that has content while the other
// does not. Against a finished stream there is no reason to pace, so the
// flush is full; against a still-active stream only part of the buffer
// is released, cut at a text boundary near the midpoint, so this side
// does not sprint ahead.
func (s *Synchronizer) flushLaggingLocked(st, other *streamState) {
	if other.complete {
		s.queueFlushAllLocked(st)
		return
	}
	s.queuePartialFlushLocked(st)
}

func (s *Synchronizer) queueFlushAllLocked(st *streamState) {
	text := st.buffer()
	if text == "" {
		return
	}
	st.flushed = len(st.total)
	if cb := st.onFlush; cb != nil {
		s.pending = append(s.pending, func() { cb(text) })
	}
}

func (s *Synchronizer) queuePartialFlushLocked(st *streamState) {
	buf := st.buffer()
	cut := splitPoint(buf)
	if cut <= 0 {
		return
	}
	text := buf[:cut]
	st.flushed += cut
	if cb := st.onFlush; cb != nil {
		s.pending = append(s.pending, func() { cb(text) })
	}
}

// checkBothCompleteLocked tears down timers exactly when both sides are
// complete. A single side completing must not stop synchronization.
func (s *Synchronizer) checkBothCompleteLocked() {
	if s.left.complete && s.right.complete {
		s.stopTimersLocked()
	}
}

func (s *Synchronizer) stopTimersLocked() {
	if s.startTimer != nil {
		s.startTimer.Stop()
		s.startTimer = nil
	}
	if s.delayTimer != nil {
		s.delayTimer.Stop()
		s.delayTimer = nil
	}
	if s.tickTimer != nil {
		s.tickTimer.Stop()
		s.tickTimer = nil
	}
}

// drain delivers queued callbacks FIFO. A single drainer runs at a time;
// other goroutines that queue work while a drain is active hand their
// callbacks to it. Callbacks run with no locks held.
func (s *Synchronizer) drain() {
	for {
		if !s.draining.CompareAndSwap(false, true) {
			return
		}
		for {
			s.mu.Lock()
			if s.canceled || len(s.pending) == 0 {
				s.mu.Unlock()
				break
			}
			fn := s.pending[0]
			s.pending = s.pending[1:]
			s.mu.Unlock()
			fn()
		}
		s.draining.Store(false)

		// Recheck for work queued between the loop exit and the flag
		// release, otherwise it could sit undelivered.
		s.mu.Lock()
		again := !s.canceled && len(s.pending) > 0
		s.mu.Unlock()
		if !again {
			return
		}
	}
}
