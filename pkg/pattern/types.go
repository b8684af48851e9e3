// Package pattern owns the stored light patterns and their playback settings
package pattern

import "fmt"

// NumPatterns is the number of pattern slots on the device
const NumPatterns = 6

// NumLamps is the number of output channels a frame drives
const NumLamps = 6

// Frame is one step of a pattern. Bits 0-6 are the channel bitmap (bit i =
// channel i+1), bit 7 marks the last frame played.
type Frame uint8

const (
	Marker   Frame = 0x80
	LampMask Frame = 0x3F
)

// Marked reports whether the frame carries the end marker
func (f Frame) Marked() bool {
	return f&Marker != 0
}

// Lamps returns the channel bits driven to the outputs
func (f Frame) Lamps() uint8 {
	return uint8(f & LampMask)
}

// Lit reports whether channel ch (0-based) is on
func (f Frame) Lit(ch int) bool {
	return f&(1<<ch) != 0
}

// Toggle flips channel ch (0-based)
func (f Frame) Toggle(ch int) Frame {
	return f ^ (1 << ch)
}

// Style is the playback direction policy of a pattern
type Style uint8

const (
	Forward Style = iota
	Reverse
	Bounce
)

// Next cycles Forward -> Reverse -> Bounce -> Forward
func (s Style) Next() Style {
	if s >= Bounce {
		return Forward
	}
	return s + 1
}

func (s Style) String() string {
	switch s {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	case Bounce:
		return "bounce"
	default:
		return fmt.Sprintf("style(%d)", uint8(s))
	}
}

// ParseStyle is the inverse of String for the three valid styles
func ParseStyle(name string) (Style, bool) {
	for s := Forward; s <= Bounce; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return Forward, false
}

// Delay limits in milliseconds
const (
	MinDelay     = 8
	MaxDelay     = 2000
	DefaultDelay = 128
)

const (
	delayBits  = 0x0FFF
	styleShift = 12
)

// Settings are the per-pattern playback parameters
type Settings struct {
	Delay uint16
	Style Style
}

// DefaultSettings returns the factory settings for every pattern
func DefaultSettings() Settings {
	return Settings{Delay: DefaultDelay, Style: Forward}
}

// DecodeSettings unpacks a stored settings word: low 12 bits delay, high 4
// bits style. Out-of-range values read from the store are normalised.
func DecodeSettings(word uint16) Settings {
	s := Settings{
		Delay: word & delayBits,
		Style: Style(word >> styleShift),
	}
	if s.Style > Bounce {
		s.Style = Forward
	}
	s.Delay = clampDelay(s.Delay)
	return s
}

// Encode packs settings into the stored word
func (s Settings) Encode() uint16 {
	return (s.Delay & delayBits) | uint16(s.Style)<<styleShift
}

// IncreaseDelay slows playback by an eighth, up to MaxDelay
func (s *Settings) IncreaseDelay() {
	s.Delay += s.Delay >> 3
	if s.Delay > MaxDelay {
		s.Delay = MaxDelay
	}
}

// DecreaseDelay speeds playback up by an eighth, down to MinDelay
func (s *Settings) DecreaseDelay() {
	s.Delay -= s.Delay >> 3
	if s.Delay < MinDelay {
		s.Delay = MinDelay
	}
}

func clampDelay(d uint16) uint16 {
	if d < MinDelay {
		return MinDelay
	}
	if d > MaxDelay {
		return MaxDelay
	}
	return d
}
