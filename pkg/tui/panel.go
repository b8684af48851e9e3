package tui

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/james-see/elbow/pkg/input"
)

// Panel is the simulated front panel. Key presses keep a button down for a
// while so the debouncer sees a real press; the control loop reads the
// buttons and drives the lamps and the LED through it.
type Panel struct {
	mu      sync.Mutex
	release [input.NumChannels]time.Time
	now     func() time.Time

	lamps atomic.Uint32
	led   atomic.Bool
}

// NewPanel creates a panel with every button up and every lamp dark
func NewPanel() *Panel {
	return &Panel{now: time.Now}
}

// Press keeps button ch down for d. Pressing a button that is already down
// extends the press.
func (p *Panel) Press(ch int, d time.Duration) {
	if ch < 0 || ch >= input.NumChannels {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	until := p.now().Add(d)
	if until.After(p.release[ch]) {
		p.release[ch] = until
	}
}

// Snapshot returns the raw button levels, bit i set while button i is down
func (p *Panel) Snapshot() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	var raw uint8
	for ch, until := range p.release {
		if now.Before(until) {
			raw |= 1 << ch
		}
	}
	return raw
}

// SetChannels drives the lamps
func (p *Panel) SetChannels(bits uint8) {
	p.lamps.Store(uint32(bits))
}

// Lamps returns the lamp bitmap last driven
func (p *Panel) Lamps() uint8 {
	return uint8(p.lamps.Load())
}

// SetIndicator drives the status LED
func (p *Panel) SetIndicator(on bool) {
	p.led.Store(on)
}

// Indicator returns the LED level last driven
func (p *Panel) Indicator() bool {
	return p.led.Load()
}
