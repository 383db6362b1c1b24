package engine

import "sync/atomic"

// Clock numbers the renames of one session. Seq values start after the
// clock's initial value and strictly increase in application order; the
// journal orders a session's renames by them.
//
// Thread-safety: Clock is safe for concurrent use.
type Clock struct {
	last atomic.Int64
}

// NewClock creates a clock whose first seq is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose first seq is last+1.
func NewClockAt(last int64) *Clock {
	c := &Clock{}
	c.last.Store(last)
	return c
}

// Stamp assigns the next seq to ev.
func (c *Clock) Stamp(ev RenameEvent) RenameEvent {
	ev.Seq = c.last.Add(1)
	return ev
}

// Last returns the most recently assigned seq, or the initial value if
// nothing has been stamped.
func (c *Clock) Last() int64 {
	return c.last.Load()
}
