package session

import "time"

// Clock supplies modification times for field tuples. It is injected so
// tests can drive the log with deterministic, strictly increasing times.
type Clock interface {
	Now() int64
}

type systemClock struct{}

func (systemClock) Now() int64 { return time.Now().Unix() }

// SystemClock returns the wall clock, in whole seconds since the epoch.
func SystemClock() Clock { return systemClock{} }

// CounterClock is a deterministic Clock for tests: every call returns the
// next integer. Distinct mutations therefore never share an mtime, which
// keeps tests free of accidental conflicts.
type CounterClock struct {
	next int64
}

// NewCounterClock returns a CounterClock whose first Now call yields start.
func NewCounterClock(start int64) *CounterClock {
	return &CounterClock{next: start}
}

func (c *CounterClock) Now() int64 {
	t := c.next
	c.next++
	return t
}

// Set moves the clock so that the next Now call yields t.
func (c *CounterClock) Set(t int64) {
	c.next = t
}
