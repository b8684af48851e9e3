package device

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/james-see/elbow/pkg/input"
	"github.com/james-see/elbow/pkg/pattern"
	"github.com/james-see/elbow/pkg/ticks"
)

// AutosaveInterval is how often playback settings are saved, in milliseconds
const AutosaveInterval = 1000

// Device is the sequencer control loop. Step is the only entry point that
// mutates state; the mutex lets a front end read snapshots from another
// goroutine.
type Device struct {
	mu sync.Mutex

	state   State
	buttons *input.Bank
	status  *Status

	clock  ticks.Clock
	store  *pattern.Store
	out    Outputs
	logger *zerolog.Logger

	lastAdvance ticks.Millis
	lastSave    ticks.Millis
}

// New creates a device. Call Start before the first Step.
func New(clock ticks.Clock, store *pattern.Store, out Outputs, led Indicator, logger *zerolog.Logger) *Device {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Device{
		buttons: input.NewBank(),
		status:  NewStatus(led),
		clock:   clock,
		store:   store,
		out:     out,
		logger:  logger,
	}
}

// Start restores the last used pattern and enters playback with the
// indicator on and every lamp off.
func (d *Device) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := d.store.LastUsed()
	d.state = State{Mode: Playback, Pattern: p}
	d.loadPattern(p)

	d.status.On()
	d.emit(0)

	now := d.clock.Now()
	d.lastAdvance = now
	d.lastSave = now

	d.logger.Info().
		Int("pattern", p).
		Uint16("delay", d.state.Settings.Delay).
		Stringer("style", d.state.Settings.Style).
		Msg("Started")
}

// Step runs one loop iteration: inputs, then playback, then the indicator,
// then autosave. Each stage sees the changes made by the ones before it.
func (d *Device) Step(raw uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()

	if d.buttons.Sample(now, raw) {
		d.handleInputs()
	}
	d.advance(now)
	d.status.Update(now)
	d.autosave(now)
}

// Run steps the device every poll interval until ctx is done
func (d *Device) Run(ctx context.Context, in Inputs, poll time.Duration) {
	if poll <= 0 {
		poll = time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	d.logger.Info().Dur("poll", poll).Msg("Control loop running")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("Control loop stopped")
			return
		case <-ticker.C:
			d.Step(in.Snapshot())
		}
	}
}

func (d *Device) advance(now ticks.Millis) {
	if d.state.Mode != Playback {
		return
	}
	if ticks.Elapsed(now, d.lastAdvance) <= ticks.Millis(d.state.Settings.Delay) {
		return
	}
	d.lastAdvance = now

	Advance(&d.state)
	d.emit(d.store.Frame(d.state.Pattern, d.state.Cursor))
}

func (d *Device) autosave(now ticks.Millis) {
	if d.state.Mode != Playback {
		return
	}
	if ticks.Elapsed(now, d.lastSave) <= AutosaveInterval {
		return
	}
	d.lastSave = now

	d.store.Autosave(d.state.Pattern, d.state.Settings)
	d.logger.Trace().Int("pattern", d.state.Pattern).Msg("Autosaved settings")
}

// State returns a snapshot of the device state
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Indicator returns the LED level and blink period
func (d *Device) Indicator() (lit bool, period ticks.Millis) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status.Lit(), d.status.Period()
}

// Active reports whether button i is currently recognised as held down
func (d *Device) Active(i int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buttons.Active(i)
}
