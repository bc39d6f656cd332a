package streamsync

import "unicode/utf8"

// streamState tracks one side of the synchronized pair. The buffer is
// the suffix of total not yet delivered: once flushed, characters are
// never re-delivered, and every appended character is flushed exactly
// once, in order.
type streamState struct {
	name string // "left" or "right", for diagnostics

	// total is the full accumulated text. On completion it is overwritten
	// with the authoritative final content in case incremental chunks
	// drifted from it.
	total string
	// flushed is the byte offset into total already delivered.
	flushed int

	started  bool
	complete bool
	err      error

	onFlush    func(text string)
	onComplete func(final string)
	onError    func(err error)
}

// buffer returns the not-yet-delivered suffix of total.
func (st *streamState) buffer() string {
	if st.flushed >= len(st.total) {
		return ""
	}
	return st.total[st.flushed:]
}

// bufferedChars returns the buffered length in characters.
func (st *streamState) bufferedChars() int {
	return utf8.RuneCountInString(st.buffer())
}

// SideState is the diagnostic snapshot of one side.
type SideState struct {
	Started       bool
	Complete      bool
	BufferedChars int
}

// Snapshot is a point-in-time diagnostic view of a Synchronizer.
type Snapshot struct {
	Left     SideState
	Right    SideState
	Syncing  bool // true once the synchronized flush cadence is running
	Canceled bool
}
