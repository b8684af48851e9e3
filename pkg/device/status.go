package device

import (
	"github.com/james-see/elbow/pkg/pattern"
	"github.com/james-see/elbow/pkg/ticks"
)

// Blink periods in milliseconds
const (
	SlowBlink    = 400
	FastBlink    = 50
	StutterLong  = 300
	StutterShort = 100
)

// Status drives the indicator LED: solid on, solid off, or blinking with a
// period. A stutter blink alternates StutterLong and StutterShort.
type Status struct {
	led    Indicator
	lit    bool
	period ticks.Millis
	last   ticks.Millis
}

// NewStatus creates a driver for led, initially off and not blinking
func NewStatus(led Indicator) *Status {
	return &Status{led: led}
}

// On lights the LED and stops blinking
func (s *Status) On() {
	s.set(true)
	s.period = 0
}

// Off darkens the LED and stops blinking
func (s *Status) Off() {
	s.set(false)
	s.period = 0
}

// Blink toggles the LED every period milliseconds from the next Update
func (s *Status) Blink(period ticks.Millis) {
	s.period = period
}

// Period returns the current blink period, 0 when solid
func (s *Status) Period() ticks.Millis {
	return s.period
}

// Lit reports the current LED level
func (s *Status) Lit() bool {
	return s.lit
}

// Show picks the blink for a newly shown frame: fast on the marked frame,
// stutter at either end of the pattern, slow elsewhere.
func (s *Status) Show(f pattern.Frame, cursor, last int) {
	switch {
	case f.Marked():
		s.Blink(FastBlink)
	case cursor == 0 || cursor == last:
		s.On()
		s.Blink(StutterLong)
	default:
		s.Blink(SlowBlink)
	}
}

// Update toggles the LED when the blink period has passed
func (s *Status) Update(now ticks.Millis) {
	if s.period == 0 {
		return
	}
	if ticks.Elapsed(now, s.last) <= s.period {
		return
	}
	s.last = now

	switch s.period {
	case StutterShort:
		s.period = StutterLong
	case StutterLong:
		s.period = StutterShort
	}
	s.set(!s.lit)
}

func (s *Status) set(on bool) {
	s.lit = on
	if s.led != nil {
		s.led.SetIndicator(on)
	}
}
