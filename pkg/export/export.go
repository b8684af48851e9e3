package export

import (
	"errors"
	"fmt"
	"os"

	"github.com/james-see/elbow/pkg/nvstore"
	"github.com/james-see/elbow/pkg/pattern"
)

// Loader accepts a whole memory image
type Loader interface {
	Load(data []byte) error
}

// Capture reads the playable part of pattern p from the store
func Capture(store *pattern.Store, p int) *Sequence {
	last := store.MarkerPosition(p)
	all := store.Frames(p)

	frames := make([]pattern.Frame, last+1)
	for i := range frames {
		frames[i] = all[i] & pattern.LampMask
	}
	return &Sequence{
		Pattern:  p,
		Frames:   frames,
		Settings: store.LoadSettings(p),
	}
}

// Apply stores seq into pattern p: its frames from index 0, the end marker
// on its last frame and its settings. Frames past the marker keep their
// lamps.
func Apply(store *pattern.Store, p int, seq *Sequence) error {
	if seq == nil || len(seq.Frames) == 0 {
		return errors.New("empty sequence")
	}
	if len(seq.Frames) > pattern.Capacity(p) {
		return fmt.Errorf("%d frames do not fit pattern %d (capacity %d)", len(seq.Frames), p+1, pattern.Capacity(p))
	}

	frames := make([]pattern.Frame, len(seq.Frames))
	for i, f := range seq.Frames {
		frames[i] = f & pattern.LampMask
	}

	last := len(frames) - 1
	store.SetFrames(p, frames[:last])
	store.PlaceMarker(p, last, frames[last])
	store.SaveSettings(p, seq.Settings)
	return nil
}

// ExportPattern writes pattern p to a MIDI file
func ExportPattern(store *pattern.Store, p int, path string) error {
	if format := DetectFormat(path); format != FormatMIDI {
		return fmt.Errorf("cannot export a pattern as %s", format)
	}
	return NewMIDIConverter().WriteMIDIFile(Capture(store, p), path)
}

// ImportPattern reads a MIDI file into pattern p, sampling every stepMS
// milliseconds (0 uses the delay stored in the file)
func ImportPattern(store *pattern.Store, p int, path string, stepMS int) (*Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	if format := DetectFormatFromContent(data); format != FormatMIDI {
		return nil, fmt.Errorf("cannot import %s as a pattern", format)
	}

	seq, err := NewMIDIConverter().ParseMIDI(data, stepMS)
	if err != nil {
		return nil, err
	}
	seq.Pattern = p

	if err := Apply(store, p, seq); err != nil {
		return nil, fmt.Errorf("failed to store pattern: %w", err)
	}
	return seq, nil
}

// ExportImage writes the whole device memory to path
func ExportImage(nv nvstore.Store, path string) error {
	data := make([]byte, nvstore.Size)
	for addr := range data {
		data[addr] = nv.LoadByte(uint16(addr))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

// ImportImage replaces the device memory with the image at path
func ImportImage(dst Loader, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	if format := DetectFormatFromContent(data); format != FormatImage {
		return fmt.Errorf("%s is not a %d byte image: %w", path, nvstore.Size, nvstore.ErrImageSize)
	}
	if err := dst.Load(data); err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	return nil
}
