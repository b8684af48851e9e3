package device

import (
	"testing"

	"github.com/james-see/elbow/pkg/pattern"
	"github.com/james-see/elbow/pkg/ticks"
)

func TestStatusShow(t *testing.T) {
	tests := []struct {
		name   string
		frame  pattern.Frame
		cursor int
		last   int
		want   ticks.Millis
	}{
		{"marked", 0x81, 3, 3, FastBlink},
		{"first frame", 0x01, 0, 7, StutterLong},
		{"last frame", 0x01, 7, 7, StutterLong},
		{"middle", 0x01, 4, 7, SlowBlink},
		{"single frame marked", 0x80, 0, 0, FastBlink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStatus(&recordLED{})
			s.Show(tt.frame, tt.cursor, tt.last)
			if s.Period() != tt.want {
				t.Errorf("Period() = %d, want %d", s.Period(), tt.want)
			}
		})
	}
}

func TestStatusStutterAlternates(t *testing.T) {
	led := &recordLED{}
	s := NewStatus(led)
	s.Show(0x01, 0, 7)
	if !led.on {
		t.Fatal("stutter should start from solid on")
	}

	now := ticks.Millis(0)
	want := []ticks.Millis{StutterShort, StutterLong, StutterShort}
	for _, w := range want {
		now += s.Period() + 1
		s.Update(now)
		if s.Period() != w {
			t.Errorf("Period() = %d, want %d", s.Period(), w)
		}
	}
	if led.changes != 4 {
		t.Errorf("LED changes = %d, want 4", led.changes)
	}
}

func TestStatusBlinkTiming(t *testing.T) {
	led := &recordLED{}
	s := NewStatus(led)
	s.Off()
	s.Blink(SlowBlink)

	s.Update(SlowBlink)
	if led.on {
		t.Error("LED toggled before the period elapsed")
	}
	s.Update(SlowBlink + 1)
	if !led.on {
		t.Error("LED did not toggle after the period elapsed")
	}
	s.Update(2*SlowBlink + 2)
	if led.on {
		t.Error("LED did not toggle back")
	}
}

func TestStatusSolidIgnoresUpdate(t *testing.T) {
	led := &recordLED{}
	s := NewStatus(led)
	s.On()

	for now := ticks.Millis(0); now < 5000; now += 50 {
		s.Update(now)
	}
	if !led.on || led.changes != 1 {
		t.Errorf("on = %v, changes = %d, want solid on", led.on, led.changes)
	}
}
