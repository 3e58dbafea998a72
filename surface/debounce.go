package surface

import "time"

// DebounceState is the phase of a Debouncer
type DebounceState int

const (
	Idle DebounceState = iota
	Pending
	Fired
)

func (s DebounceState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Fired:
		return "fired"
	default:
		return "unknown"
	}
}

// Debouncer collapses bursts of signals into one firing after a quiet
// period. It holds no timer; the owner polls it with the current time.
type Debouncer struct {
	wait     time.Duration
	state    DebounceState
	deadline time.Time
}

// NewDebouncer creates an idle debouncer with the given quiet period
func NewDebouncer(wait time.Duration) *Debouncer {
	return &Debouncer{wait: wait}
}

// State returns the current phase
func (d *Debouncer) State() DebounceState { return d.state }

// Deadline returns when a pending debouncer will fire
func (d *Debouncer) Deadline() time.Time { return d.deadline }

// Signal starts or extends the quiet period.
func (d *Debouncer) Signal(now time.Time) {
	d.state = Pending
	d.deadline = now.Add(d.wait)
}

// Poll reports whether the quiet period has elapsed. It returns true exactly
// once per burst of signals.
func (d *Debouncer) Poll(now time.Time) bool {
	if d.state != Pending || now.Before(d.deadline) {
		return false
	}
	d.state = Fired
	return true
}

// Cancel drops a pending signal.
func (d *Debouncer) Cancel() {
	d.state = Idle
	d.deadline = time.Time{}
}
