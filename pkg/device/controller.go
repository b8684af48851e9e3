package device

import (
	"github.com/james-see/elbow/pkg/input"
	"github.com/james-see/elbow/pkg/pattern"
)

// handleInputs interprets the gestures of one sample. Pattern buttons are
// scanned in index order; in either mode the first held button ends the scan,
// so simultaneous holds resolve to the lowest index.
func (d *Device) handleInputs() {
	switch d.state.Mode {
	case Playback:
		d.playbackInputs()
	case Edit:
		d.editInputs()
	}
}

func (d *Device) playbackInputs() {
	b := d.buttons
	st := &d.state

	for i := 0; i < input.NumPatternButtons; i++ {
		if b.Held(i) {
			d.enterEdit(i)
			break
		}

		if b.Clicked(i) {
			if st.Pattern == i {
				st.Settings.Style = st.Settings.Style.Next()
				d.logger.Debug().Int("pattern", i).Stringer("style", st.Settings.Style).Msg("Cycled playback style")
			} else {
				d.selectPattern(i)
			}
		}
	}

	if b.Clicked(input.AdjustUp) {
		st.Settings.IncreaseDelay()
		d.logger.Debug().Uint16("delay", st.Settings.Delay).Msg("Slowed playback")
	}

	if b.Clicked(input.AdjustDown) {
		st.Settings.DecreaseDelay()
		d.logger.Debug().Uint16("delay", st.Settings.Delay).Msg("Sped up playback")
	}
}

func (d *Device) editInputs() {
	b := d.buttons
	st := &d.state

	for i := 0; i < input.NumPatternButtons; i++ {
		if b.Clicked(i) {
			st.Output = st.Output.Toggle(i)
			d.out.SetChannels(st.Output.Lamps())
		} else if b.Held(i) {
			d.exitEdit()
			return
		}
	}

	if b.Clicked(input.AdjustUp) {
		d.store.SetFrame(st.Pattern, st.Cursor, st.Output)
		if st.Cursor > 0 {
			st.Cursor--
		}
		d.showFrame()
	}

	if b.Clicked(input.AdjustDown) {
		d.store.SetFrame(st.Pattern, st.Cursor, st.Output)
		if st.Cursor < pattern.MaxIndex(st.Pattern) {
			st.Cursor++
		}
		d.showFrame()
	}

	if b.Held(input.AdjustUp) || b.Held(input.AdjustDown) {
		d.store.PlaceMarker(st.Pattern, st.Cursor, st.Output)
		d.loadPattern(st.Pattern)
		d.showFrame()
	}
}

// selectPattern switches playback to pattern p from its first frame
func (d *Device) selectPattern(p int) {
	d.state.Pattern = p
	d.state.Cursor = 0
	d.loadPattern(p)
	d.logger.Info().Int("pattern", p).Msg("Selected pattern")
}

func (d *Device) enterEdit(p int) {
	d.state.Mode = Edit
	d.state.Pattern = p
	d.state.Cursor = 0
	d.buttons.ClearFlags(input.Edges)
	d.loadPattern(p)
	d.showFrame()
	d.logger.Info().Int("pattern", p).Msg("Entered edit mode")
}

func (d *Device) exitEdit() {
	d.state.Mode = Playback
	d.status.On()
	d.buttons.ClearFlags(input.Edges)
	d.logger.Info().Int("pattern", d.state.Pattern).Msg("Returned to playback")
}

// loadPattern refreshes the settings and marker position of pattern p from the store
func (d *Device) loadPattern(p int) {
	d.state.Settings = d.store.LoadSettings(p)
	d.state.MarkerPos = d.store.MarkerPosition(p)
}

// showFrame emits the frame under the cursor and picks the indicator blink for it
func (d *Device) showFrame() {
	f := d.store.Frame(d.state.Pattern, d.state.Cursor)
	d.emit(f)
	d.status.Show(f, d.state.Cursor, d.state.MarkerPos)
}

func (d *Device) emit(f pattern.Frame) {
	d.state.Output = f
	d.out.SetChannels(f.Lamps())
}
