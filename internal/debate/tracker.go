package debate

import "sync"

// failureTracker records per-participant verification restrictions and the
// session-wide run of consecutive turn failures. It is shared between the
// turn loop and stream callbacks, so all accessors lock.
type failureTracker struct {
	mu sync.Mutex

	// verification marks provider IDs that returned an organization
	// verification error. The mark is sticky for the life of the session:
	// every later turn for that provider skips streaming and uses the
	// non-streaming fallback directly.
	verification map[string]bool

	// consecutive counts turn failures with no intervening success.
	consecutive int
	limit       int
}

func newFailureTracker(limit int) *failureTracker {
	return &failureTracker{
		verification: make(map[string]bool),
		limit:        limit,
	}
}

// FlagVerification marks a provider as verification-restricted.
func (t *failureTracker) FlagVerification(providerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.verification[providerID] = true
}

// VerificationRestricted reports whether a provider has been downgraded to
// the non-streaming fallback.
func (t *failureTracker) VerificationRestricted(providerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.verification[providerID]
}

// RecordFailure increments the consecutive-failure counter and reports
// whether the session limit has been reached.
func (t *failureTracker) RecordFailure() (exceeded bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consecutive++
	return t.consecutive >= t.limit
}

// RecordSuccess resets the consecutive-failure counter.
func (t *failureTracker) RecordSuccess() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consecutive = 0
}

// ConsecutiveFailures returns the current run of failures.
func (t *failureTracker) ConsecutiveFailures() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.consecutive
}
