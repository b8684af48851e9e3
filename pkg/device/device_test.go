package device

import (
	"testing"

	"github.com/james-see/elbow/pkg/input"
	"github.com/james-see/elbow/pkg/nvstore"
	"github.com/james-see/elbow/pkg/pattern"
	"github.com/james-see/elbow/pkg/ticks"
)

// recordLamps remembers every SetChannels call
type recordLamps struct {
	calls []uint8
}

func (r *recordLamps) SetChannels(lamps uint8) { r.calls = append(r.calls, lamps) }

func (r *recordLamps) last() uint8 {
	if len(r.calls) == 0 {
		return 0
	}
	return r.calls[len(r.calls)-1]
}

// recordLED remembers the indicator level
type recordLED struct {
	on      bool
	changes int
}

func (r *recordLED) SetIndicator(on bool) {
	r.on = on
	r.changes++
}

type rig struct {
	t     *testing.T
	clock *ticks.Manual
	mem   *nvstore.Memory
	store *pattern.Store
	lamps *recordLamps
	led   *recordLED
	dev   *Device
}

func newRig(t *testing.T, prepare func(s *pattern.Store)) *rig {
	t.Helper()
	r := &rig{
		t:     t,
		clock: &ticks.Manual{},
		mem:   nvstore.NewMemory(),
		lamps: &recordLamps{},
		led:   &recordLED{},
	}
	r.store = pattern.NewStore(r.mem, r.clock, nil)
	r.store.Provision()
	if prepare != nil {
		prepare(r.store)
	}
	r.mem.ResetWrites()

	r.dev = New(r.clock, r.store, r.lamps, r.led, nil)
	r.dev.Start()
	return r
}

// run steps the device for ms milliseconds with raw held, one sample per step
func (r *rig) run(raw uint8, ms int) {
	for elapsed := 0; elapsed < ms; elapsed += input.SampleInterval {
		r.clock.Advance(input.SampleInterval)
		r.dev.Step(raw)
	}
}

func (r *rig) click(button int) {
	r.run(1<<button, 60)
	r.run(0, 60)
}

func (r *rig) hold(button int) {
	r.run(1<<button, 2100)
	r.run(0, 60)
}

func TestStartRestoresLastPattern(t *testing.T) {
	r := newRig(t, func(s *pattern.Store) {
		s.SaveLastUsed(3)
		s.SaveSettings(3, pattern.Settings{Delay: 300, Style: pattern.Bounce})
	})

	st := r.dev.State()
	if st.Mode != Playback {
		t.Errorf("Mode = %v, want playback", st.Mode)
	}
	if st.Pattern != 3 {
		t.Errorf("Pattern = %d, want 3", st.Pattern)
	}
	if st.Settings != (pattern.Settings{Delay: 300, Style: pattern.Bounce}) {
		t.Errorf("Settings = %+v", st.Settings)
	}
	if st.MarkerPos != 1 {
		t.Errorf("MarkerPos = %d, want 1", st.MarkerPos)
	}
	if !r.led.on {
		t.Error("indicator should be on after Start")
	}
	if len(r.lamps.calls) != 1 || r.lamps.calls[0] != 0 {
		t.Errorf("lamp calls = %v, want [0]", r.lamps.calls)
	}
}

func TestDelayAdjustClicks(t *testing.T) {
	r := newRig(t, nil)

	if d := r.dev.State().Settings.Delay; d != 128 {
		t.Fatalf("initial delay = %d, want 128", d)
	}

	r.click(input.AdjustUp)
	if d := r.dev.State().Settings.Delay; d != 144 {
		t.Errorf("delay after adjust-up = %d, want 144", d)
	}

	r.click(input.AdjustDown)
	if d := r.dev.State().Settings.Delay; d != 126 {
		t.Errorf("delay after adjust-down = %d, want 126", d)
	}
}

func TestClickSamePatternCyclesStyle(t *testing.T) {
	r := newRig(t, nil)
	want := []pattern.Style{pattern.Reverse, pattern.Bounce, pattern.Forward}

	for _, w := range want {
		r.click(0)
		if got := r.dev.State().Settings.Style; got != w {
			t.Errorf("Style = %v, want %v", got, w)
		}
	}
}

func TestClickOtherPatternSelectsIt(t *testing.T) {
	r := newRig(t, func(s *pattern.Store) {
		s.SaveSettings(4, pattern.Settings{Delay: 64, Style: pattern.Reverse})
	})

	r.click(4)
	st := r.dev.State()
	if st.Pattern != 4 {
		t.Fatalf("Pattern = %d, want 4", st.Pattern)
	}
	if st.Settings != (pattern.Settings{Delay: 64, Style: pattern.Reverse}) {
		t.Errorf("Settings = %+v, want reloaded from store", st.Settings)
	}
	if st.MarkerPos != 1 {
		t.Errorf("MarkerPos = %d, want 1", st.MarkerPos)
	}
	if st.Cursor > st.MarkerPos {
		t.Errorf("Cursor = %d beyond MarkerPos %d", st.Cursor, st.MarkerPos)
	}
}

func TestEnterEditEmitsFirstFrameOnce(t *testing.T) {
	r := newRig(t, func(s *pattern.Store) {
		s.SetFrame(2, 0, 0x2A)
	})

	entered := false
	for elapsed := 0; elapsed < 2500 && !entered; elapsed += input.SampleInterval {
		r.lamps.calls = nil
		r.clock.Advance(input.SampleInterval)
		r.dev.Step(1 << 2)

		if r.dev.State().Mode == Edit {
			entered = true
			if len(r.lamps.calls) != 1 || r.lamps.calls[0] != 0x2A {
				t.Errorf("lamp calls on transition = %v, want [0x2A]", r.lamps.calls)
			}
		}
	}

	if !entered {
		t.Fatal("holding pattern button 2 did not enter edit mode")
	}
	st := r.dev.State()
	if st.Pattern != 2 || st.Cursor != 0 {
		t.Errorf("Pattern, Cursor = %d, %d, want 2, 0", st.Pattern, st.Cursor)
	}
	if st.Output != r.store.Frame(2, 0) {
		t.Errorf("Output = 0x%02X, want 0x%02X", st.Output, r.store.Frame(2, 0))
	}

	// releasing the button that entered edit mode is not a click
	r.run(0, 60)
	if r.dev.State().Output != 0x2A {
		t.Errorf("Output after release = 0x%02X, want unchanged 0x2A", r.dev.State().Output)
	}
}

func TestEditTogglesAndSavesFrames(t *testing.T) {
	r := newRig(t, nil)
	r.hold(0)

	if r.dev.State().Mode != Edit {
		t.Fatal("not in edit mode")
	}
	if r.dev.State().Output != 0x01 {
		t.Fatalf("Output = 0x%02X, want 0x01", r.dev.State().Output)
	}

	r.click(1)
	if got := r.dev.State().Output; got != 0x03 {
		t.Errorf("Output after toggling channel 2 = 0x%02X, want 0x03", got)
	}
	if r.lamps.last() != 0x03 {
		t.Errorf("lamps = 0x%02X, want 0x03", r.lamps.last())
	}
	if r.store.Frame(0, 0) != 0x01 {
		t.Error("a toggle must not be persisted before moving")
	}

	r.click(input.AdjustDown)
	st := r.dev.State()
	if r.store.Frame(0, 0) != 0x03 {
		t.Errorf("Frame(0, 0) = 0x%02X, want 0x03", r.store.Frame(0, 0))
	}
	if st.Cursor != 1 || st.Output != 0x02 {
		t.Errorf("Cursor, Output = %d, 0x%02X, want 1, 0x02", st.Cursor, st.Output)
	}

	r.click(input.AdjustUp)
	r.click(input.AdjustUp)
	if c := r.dev.State().Cursor; c != 0 {
		t.Errorf("Cursor = %d, want floor 0", c)
	}

	for i := 0; i < 10; i++ {
		r.click(input.AdjustDown)
	}
	if c := r.dev.State().Cursor; c != pattern.MaxIndex(0) {
		t.Errorf("Cursor = %d, want physical max %d", c, pattern.MaxIndex(0))
	}
}

func TestEditHoldPlacesMarker(t *testing.T) {
	r := newRig(t, nil)
	r.hold(0)

	for i := 0; i < 2; i++ {
		r.click(input.AdjustDown)
	}
	r.hold(input.AdjustUp)

	st := r.dev.State()
	if st.MarkerPos != 2 {
		t.Errorf("MarkerPos = %d, want 2", st.MarkerPos)
	}
	if !st.Output.Marked() {
		t.Error("Output should carry the marker")
	}

	marked := 0
	for _, f := range r.store.Frames(0) {
		if f.Marked() {
			marked++
		}
	}
	if marked != 1 {
		t.Errorf("%d marked frames, want 1", marked)
	}
	if r.store.Frame(0, 2) != 0x84 {
		t.Errorf("Frame(0, 2) = 0x%02X, want 0x84", r.store.Frame(0, 2))
	}
	if r.store.Frame(0, 5) != 0x20 {
		t.Errorf("old marker frame = 0x%02X, want 0x20", r.store.Frame(0, 5))
	}

	_, period := r.dev.Indicator()
	if period != FastBlink {
		t.Errorf("indicator period = %d, want fast blink on the marked frame", period)
	}
}

func TestHoldReturnsToPlayback(t *testing.T) {
	r := newRig(t, nil)
	r.hold(1)
	if r.dev.State().Mode != Edit {
		t.Fatal("not in edit mode")
	}

	r.hold(4)
	st := r.dev.State()
	if st.Mode != Playback {
		t.Fatalf("Mode = %v, want playback", st.Mode)
	}
	if st.Pattern != 1 {
		t.Errorf("Pattern = %d, want 1 kept after leaving edit", st.Pattern)
	}
	lit, period := r.dev.Indicator()
	if !lit || period != 0 {
		t.Errorf("indicator = %v/%d, want solid on", lit, period)
	}
}

func TestSimultaneousHoldsLowestWins(t *testing.T) {
	r := newRig(t, nil)
	r.run(1<<3|1<<5, 2100)

	st := r.dev.State()
	if st.Mode != Edit || st.Pattern != 3 {
		t.Errorf("Mode, Pattern = %v, %d, want edit, 3", st.Mode, st.Pattern)
	}
}

func TestPlaybackAdvancesOnDelay(t *testing.T) {
	r := newRig(t, nil)
	r.lamps.calls = nil

	// 128ms delay: fires once elapsed exceeds 128
	for i := 0; i < 128; i++ {
		r.clock.Advance(1)
		r.dev.Step(0)
	}
	if len(r.lamps.calls) != 0 {
		t.Fatalf("advanced after %d ms", 128)
	}

	r.clock.Advance(1)
	r.dev.Step(0)
	if len(r.lamps.calls) != 1 {
		t.Fatalf("lamp calls = %d, want 1", len(r.lamps.calls))
	}
	if st := r.dev.State(); st.Cursor != 1 || r.lamps.last() != 0x02 {
		t.Errorf("Cursor, lamps = %d, 0x%02X, want 1, 0x02", st.Cursor, r.lamps.last())
	}
}

func TestPlaybackWrapsAtMarker(t *testing.T) {
	r := newRig(t, nil)

	seen := map[int]bool{}
	for i := 0; i < 3*8; i++ {
		r.run(0, 135)
		st := r.dev.State()
		if st.Cursor > st.MarkerPos {
			t.Fatalf("Cursor %d beyond MarkerPos %d", st.Cursor, st.MarkerPos)
		}
		seen[st.Cursor] = true
	}

	for i := 0; i <= 5; i++ {
		if !seen[i] {
			t.Errorf("frame %d never played", i)
		}
	}
	if seen[6] || seen[7] {
		t.Error("frames past the marker were played")
	}
}

func TestPlaybackAcrossClockRollover(t *testing.T) {
	r := newRig(t, nil)
	r.clock.Set(65500)
	r.dev.Start()
	r.lamps.calls = nil

	r.run(0, 200)
	if len(r.lamps.calls) != 1 {
		t.Errorf("lamp calls across rollover = %d, want 1", len(r.lamps.calls))
	}
}

func TestAutosave(t *testing.T) {
	r := newRig(t, nil)

	r.click(input.AdjustUp)
	r.run(0, 1100)
	if got := r.store.LoadSettings(0).Delay; got != 144 {
		t.Errorf("saved delay = %d, want 144", got)
	}

	r.mem.ResetWrites()
	r.run(0, 3000)
	if r.mem.Writes() != 0 {
		t.Errorf("Writes() = %d, want 0 when nothing changed", r.mem.Writes())
	}
}

func TestAutosaveRecordsLastUsed(t *testing.T) {
	r := newRig(t, nil)
	r.click(2)
	r.run(0, 1100)

	if got := r.store.LastUsed(); got != 2 {
		t.Errorf("LastUsed() = %d, want 2", got)
	}
}

func TestNoAutosaveInEdit(t *testing.T) {
	r := newRig(t, nil)
	r.hold(0)

	sections := r.clock.Sections
	r.run(0, 3000)
	if r.clock.Sections != sections {
		t.Errorf("store sections in edit mode = %d, want none", r.clock.Sections-sections)
	}
}

func TestNoPlaybackInEdit(t *testing.T) {
	r := newRig(t, nil)
	r.hold(0)
	r.lamps.calls = nil

	r.run(0, 1000)
	if len(r.lamps.calls) != 0 {
		t.Errorf("lamp calls in edit mode = %v, want none", r.lamps.calls)
	}
}
