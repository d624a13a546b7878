// Package sequence holds the SequenceRange the Session Loop uses to track
// which agent sequences the client still owes itself.
package sequence

// Range is the [From, To) window of sequences still owed to the client.
// It has no internal concurrency: only the Session Loop and the sample-chunk
// handler touch it, and the state machine guarantees they never do so
// concurrently.
type Range struct {
	From int64
	To   int64
}

// Reset returns the range to its initial "no sequence observed" state.
func (r *Range) Reset() {
	r.From = 0
	r.To = 0
}

// Load overwrites the range with an explicit window, e.g. after computing a
// new From/To pair in CurrentFetch.
func (r *Range) Load(from, to int64) {
	r.From = from
	r.To = to
}

// Advance moves From forward by n (the number of data items consumed from a
// sample chunk) and sets To to the agent's reported next sequence.
func (r *Range) Advance(n int64, nextSequence int64) {
	r.From += n
	r.To = nextSequence
}

// Count reports the window width, To-From.
func (r *Range) Count() int64 {
	return r.To - r.From
}
