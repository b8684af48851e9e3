// Package ticks provides the millisecond tick source shared by every
// time-gated part of the sequencer.
package ticks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Millis is a wrapping millisecond count. It rolls over every 65536 ms, so
// it must only be compared through Elapsed.
type Millis uint16

// Elapsed returns the time from past to now, correct across one rollover.
func Elapsed(now, past Millis) Millis {
	return now - past
}

// Clock supplies the current tick count
type Clock interface {
	Now() Millis
}

// Guard runs fn while the tick producer is held off.
type Guard interface {
	Exclusive(fn func())
}

// Counter is the tick source. Tick is called by a single producer; Now may be
// called from anywhere.
type Counter struct {
	mu  sync.Mutex
	now atomic.Uint32
}

// NewCounter creates a counter starting at zero
func NewCounter() *Counter {
	return &Counter{}
}

// Tick advances the counter by one millisecond. It waits while an exclusive
// section is open.
func (c *Counter) Tick() {
	c.advance(1)
}

func (c *Counter) advance(n uint32) {
	c.mu.Lock()
	c.now.Add(n)
	c.mu.Unlock()
}

// Now returns the current tick count
func (c *Counter) Now() Millis {
	return Millis(c.now.Load())
}

// Set forces the counter to a value. Used to start a simulation near rollover.
func (c *Counter) Set(v Millis) {
	c.mu.Lock()
	c.now.Store(uint32(v))
	c.mu.Unlock()
}

// Exclusive runs fn with ticks held off. The hold is released even if fn panics.
func (c *Counter) Exclusive(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// Run keeps the counter in step with the wall clock until ctx is done. The
// ticker only wakes the loop: each wakeup adds every millisecond elapsed since
// the last one, so deliveries the ticker drops under load or while an
// exclusive section is open are caught up rather than lost.
func (c *Counter) Run(ctx context.Context, period time.Duration) {
	c.run(ctx, period, time.Now)
}

func (c *Counter) run(ctx context.Context, period time.Duration, now func() time.Time) {
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	start := now()
	var applied int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed := now().Sub(start).Milliseconds()
			if elapsed > applied {
				c.advance(uint32(elapsed - applied))
				applied = elapsed
			}
		}
	}
}

// Manual is a Clock and Guard for tests and offline rendering. Time only moves
// when Advance is called.
type Manual struct {
	now       Millis
	Sections  int
	InSection bool
}

// Now returns the current manual time
func (m *Manual) Now() Millis { return m.now }

// Advance moves the manual clock forward by d milliseconds
func (m *Manual) Advance(d int) {
	m.now += Millis(d)
}

// Set moves the manual clock to an absolute value
func (m *Manual) Set(v Millis) { m.now = v }

// Exclusive counts sections so tests can assert writes were guarded
func (m *Manual) Exclusive(fn func()) {
	m.Sections++
	m.InSection = true
	defer func() { m.InSection = false }()
	fn()
}
