package export

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/elbow/pkg/pattern"
)

const (
	// one tick per millisecond at 1000 ticks per quarter and 60 BPM
	ticksPerQuarter = 1000
	exportBPM       = 60

	defaultMicrosPerQuarter = 500000
	microsPerMinute         = 60000000

	// DefaultBaseNote is the key of lamp 0; lamp i plays DefaultBaseNote+i
	DefaultBaseNote = 60
)

var errNoNotes = errors.New("no lamp notes in MIDI data")

// MIDIConverter maps pattern frames to notes and back. Each lit lamp is a
// note held for the whole frame.
type MIDIConverter struct {
	baseNote uint8
	channel  uint8
	velocity uint8
}

// NewMIDIConverter creates a converter on MIDI channel 1 starting at middle C
func NewMIDIConverter() *MIDIConverter {
	return &MIDIConverter{
		baseNote: DefaultBaseNote,
		channel:  0,
		velocity: 100,
	}
}

// SetBaseNote sets the key of lamp 0
func (m *MIDIConverter) SetBaseNote(note uint8) {
	m.baseNote = note
}

// GenerateMIDI creates a single-track SMF from a sequence
func (m *MIDIConverter) GenerateMIDI(seq *Sequence) ([]byte, error) {
	if seq == nil || len(seq.Frames) == 0 {
		return nil, errors.New("empty sequence")
	}
	if int(m.baseNote)+pattern.NumLamps > 128 {
		return nil, fmt.Errorf("base note %d leaves no room for %d lamps", m.baseNote, pattern.NumLamps)
	}

	delay := uint32(seq.Settings.Delay)
	if delay == 0 {
		delay = pattern.DefaultDelay
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var track smf.Track

	track.Add(0, smf.MetaTrackSequenceName(fmt.Sprintf("elbow pattern %d", seq.Pattern+1)))
	track.Add(0, smf.MetaText(fmt.Sprintf("delay=%d style=%s", delay, seq.Settings.Style)))
	track.Add(0, smf.MetaTempo(exportBPM))

	// pending carries the ticks since the last event through unlit frames
	var pending uint32
	for _, f := range seq.Frames {
		for ch := 0; ch < pattern.NumLamps; ch++ {
			if f.Lit(ch) {
				track.Add(pending, midi.NoteOn(m.channel, m.baseNote+uint8(ch), m.velocity))
				pending = 0
			}
		}

		pending += delay

		for ch := 0; ch < pattern.NumLamps; ch++ {
			if f.Lit(ch) {
				track.Add(pending, midi.NoteOff(m.channel, m.baseNote+uint8(ch)))
				pending = 0
			}
		}
	}

	track.Close(pending)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteMIDIFile writes a sequence to a MIDI file
func (m *MIDIConverter) WriteMIDIFile(seq *Sequence, filename string) error {
	data, err := m.GenerateMIDI(seq)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// ParseMIDIFile reads a MIDI file into a sequence
func (m *MIDIConverter) ParseMIDIFile(filename string, stepMS int) (*Sequence, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return m.ParseMIDI(data, stepMS)
}

// ParseMIDI samples MIDI data into frames stepMS milliseconds apart. Notes
// from every track and channel count; keys outside the lamp range are
// ignored. A frame lights a lamp when its note sounds at the middle of the
// frame. stepMS <= 0 uses the delay recorded by GenerateMIDI, or the default
// delay for foreign files. A file recorded by GenerateMIDI with no notes at
// all is an all-dark pattern as long as the track.
func (m *MIDIConverter) ParseMIDI(data []byte, stepMS int) (*Sequence, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	resolution := int64(ticksPerQuarter)
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok && mt.Resolution() > 0 {
		resolution = int64(mt.Resolution())
	}

	type interval struct{ on, off int64 }

	var (
		micros    int64 = defaultMicrosPerQuarter
		tempoSeen bool
		recorded  bool
		settings  = pattern.DefaultSettings()
		notes     [pattern.NumLamps][]interval
		onAt      [pattern.NumLamps]int64
		sounding  [pattern.NumLamps]bool
		endTick   int64
	)

	for _, track := range s.Tracks {
		for i := range sounding {
			sounding[i] = false
		}

		var currentTick int64
		for _, ev := range track {
			currentTick += int64(ev.Delta)
			if currentTick > endTick {
				endTick = currentTick
			}

			msg := ev.Message

			// the first tempo wins
			var bpm float64
			if msg.GetMetaTempo(&bpm) {
				if !tempoSeen && bpm > 0 {
					micros = int64(math.Round(microsPerMinute / bpm))
					tempoSeen = true
				}
				continue
			}

			var text string
			if msg.GetMetaText(&text) {
				var delay int
				var style string
				if n, _ := fmt.Sscanf(text, "delay=%d style=%s", &delay, &style); n == 2 {
					settings.Delay = clampDelay(delay)
					if st, ok := pattern.ParseStyle(style); ok {
						settings.Style = st
					}
					recorded = true
				}
				continue
			}

			var key uint8
			switch {
			case msg.GetNoteStart(nil, &key, nil):
				lamp := int(key) - int(m.baseNote)
				if lamp < 0 || lamp >= pattern.NumLamps {
					continue
				}
				if !sounding[lamp] {
					sounding[lamp] = true
					onAt[lamp] = currentTick
				}
			case msg.GetNoteEnd(nil, &key):
				lamp := int(key) - int(m.baseNote)
				if lamp < 0 || lamp >= pattern.NumLamps {
					continue
				}
				if sounding[lamp] {
					sounding[lamp] = false
					notes[lamp] = append(notes[lamp], interval{onAt[lamp], currentTick})
				}
			}
		}

		// notes left hanging end with the track
		for lamp := range sounding {
			if sounding[lamp] {
				notes[lamp] = append(notes[lamp], interval{onAt[lamp], currentTick})
			}
		}
	}

	found := false
	for lamp := range notes {
		if len(notes[lamp]) > 0 {
			found = true
		}
	}
	if !found && !recorded {
		return nil, errNoNotes
	}

	if stepMS <= 0 {
		stepMS = int(settings.Delay)
	}
	settings.Delay = clampDelay(stepMS)

	toMS := func(tick int64) int64 {
		return tick * micros / (resolution * 1000)
	}

	step := int64(settings.Delay)
	length := toMS(endTick)
	count := int((length + step - 1) / step)
	if count == 0 {
		count = 1
	}

	frames := make([]pattern.Frame, count)
	for i := range frames {
		mid := int64(i)*step + step/2
		for lamp := range notes {
			for _, iv := range notes[lamp] {
				if toMS(iv.on) <= mid && mid < toMS(iv.off) {
					frames[i] |= 1 << lamp
					break
				}
			}
		}
	}

	return &Sequence{Frames: frames, Settings: settings}, nil
}

func clampDelay(ms int) uint16 {
	switch {
	case ms < pattern.MinDelay:
		return pattern.MinDelay
	case ms > pattern.MaxDelay:
		return pattern.MaxDelay
	default:
		return uint16(ms)
	}
}
