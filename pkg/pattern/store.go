package pattern

import (
	"github.com/rs/zerolog"

	"github.com/james-see/elbow/pkg/nvstore"
	"github.com/james-see/elbow/pkg/ticks"
)

// Store is the only reader and writer of pattern data in device memory.
// Every write goes through the tick guard so the tick producer never runs
// while a cell is being programmed.
type Store struct {
	nv     nvstore.Store
	guard  ticks.Guard
	logger *zerolog.Logger
}

// NewStore wraps a device memory. guard may be nil when nothing else runs.
func NewStore(nv nvstore.Store, guard ticks.Guard, logger *zerolog.Logger) *Store {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Store{nv: nv, guard: guard, logger: logger}
}

func (s *Store) exclusive(fn func()) {
	if s.guard == nil {
		fn()
		return
	}
	s.guard.Exclusive(fn)
}

// Frame returns frame i of pattern p. i wraps at the pattern capacity.
func (s *Store) Frame(p, i int) Frame {
	return Frame(s.nv.LoadByte(frameAddr(p, i)))
}

// SetFrame stores frame i of pattern p. i wraps at the pattern capacity.
func (s *Store) SetFrame(p, i int, f Frame) {
	s.exclusive(func() {
		s.nv.UpdateByte(frameAddr(p, i), byte(f))
	})
}

// Frames returns a copy of every physical frame of pattern p
func (s *Store) Frames(p int) []Frame {
	frames := make([]Frame, Capacity(p))
	for i := range frames {
		frames[i] = s.Frame(p, i)
	}
	return frames
}

// SetFrames stores frames into pattern p starting at index 0. Extra frames
// beyond the capacity are ignored.
func (s *Store) SetFrames(p int, frames []Frame) {
	s.exclusive(func() {
		for i, f := range frames {
			if i >= Capacity(p) {
				break
			}
			s.nv.UpdateByte(frameAddr(p, i), byte(f))
		}
	})
}

// MarkerPosition returns the index of the first marked frame of pattern p,
// or its last physical index when none is marked. Frames past this index are
// not played.
func (s *Store) MarkerPosition(p int) int {
	for i := 0; i < Capacity(p); i++ {
		if s.Frame(p, i).Marked() {
			return i
		}
	}
	return MaxIndex(p)
}

// ClearMarkers removes the marker bit from every frame of pattern p except
// index keep. Pass -1 to clear them all.
func (s *Store) ClearMarkers(p, keep int) {
	s.exclusive(func() {
		for i := 0; i < Capacity(p); i++ {
			if i == keep {
				continue
			}
			f := Frame(s.nv.LoadByte(frameAddr(p, i)))
			if f.Marked() {
				s.nv.UpdateByte(frameAddr(p, i), byte(f&^Marker))
			}
		}
	})
}

// PlaceMarker stores f with the marker bit at index i of pattern p and clears
// the marker from every other frame, so the pattern ends up with exactly one.
func (s *Store) PlaceMarker(p, i int, f Frame) {
	i %= Capacity(p)
	s.ClearMarkers(p, i)
	s.SetFrame(p, i, f|Marker)
	s.logger.Debug().Int("pattern", p).Int("index", i).Msg("Placed end marker")
}

// LoadSettings reads the settings of pattern p from the store
func (s *Store) LoadSettings(p int) Settings {
	return DecodeSettings(s.nv.LoadWord(Layout[p].SettingsAddr))
}

// SaveSettings stores the settings of pattern p
func (s *Store) SaveSettings(p int, set Settings) {
	s.exclusive(func() {
		s.nv.UpdateWord(Layout[p].SettingsAddr, set.Encode())
	})
}

// LastUsed returns the pattern selected at power-off. An out-of-range value
// (such as an erased cell) reads as pattern 0.
func (s *Store) LastUsed() int {
	p := int(s.nv.LoadByte(LastUsedAddr))
	if p >= NumPatterns {
		return 0
	}
	return p
}

// SaveLastUsed records the selected pattern
func (s *Store) SaveLastUsed(p int) {
	s.exclusive(func() {
		s.nv.UpdateByte(LastUsedAddr, byte(p))
	})
}

// Autosave stores the running settings of pattern p and marks it as last
// used, inside a single guarded section.
func (s *Store) Autosave(p int, set Settings) {
	s.exclusive(func() {
		s.nv.UpdateWord(Layout[p].SettingsAddr, set.Encode())
		s.nv.UpdateByte(LastUsedAddr, byte(p))
	})
}

// Provision writes the factory image: default frames, default settings and
// pattern 0 as last used. Cells already holding the right value are skipped.
func (s *Store) Provision() {
	s.exclusive(func() {
		for p := 0; p < NumPatterns; p++ {
			for i, f := range DefaultFrames(p) {
				s.nv.UpdateByte(frameAddr(p, i), byte(f))
			}
			s.nv.UpdateWord(Layout[p].SettingsAddr, DefaultSettings().Encode())
		}
		s.nv.UpdateByte(LastUsedAddr, 0)
	})
	s.logger.Info().Msg("Provisioned factory patterns")
}
