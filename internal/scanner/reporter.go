package scanner

import "github.com/eventgate/gatekeeper/internal/services"

// Feedback is the coarse operator signal (tone/visual). The mapping from
// rejection reason to feedback is deliberately many-to-one; the detailed
// reason still travels on the ScanResult for display.
type Feedback int

const (
	FeedbackNegative Feedback = iota
	FeedbackPositive
)

// Counters are the session-local tallies. They are a UX aid, not
// authoritative state: only the persisted check-in records are.
type Counters struct {
	Scanned int
	Success int
	Error   int
}

// Reporter aggregates counters and classifies outcomes into feedback.
// It is mutated only from the controller's loop goroutine.
type Reporter struct {
	c Counters
}

// Record tallies one authority outcome: scanned always, success on accept,
// error on any rejection.
func (r *Reporter) Record(out services.Outcome) Feedback {
	return r.record(out.Accepted)
}

// RecordLocalFailure tallies an attempt that never produced an authority
// verdict (malformed input, transport failure).
func (r *Reporter) RecordLocalFailure() Feedback {
	return r.record(false)
}

func (r *Reporter) record(accepted bool) Feedback {
	r.c.Scanned++
	if accepted {
		r.c.Success++
		return FeedbackPositive
	}
	r.c.Error++
	return FeedbackNegative
}

// Counters returns a snapshot.
func (r *Reporter) Counters() Counters {
	return r.c
}
