// Package export moves patterns between device memory and files: Standard
// MIDI Files for editing in a DAW, and raw memory images for backup.
package export

import (
	"path/filepath"
	"strings"

	"github.com/james-see/elbow/pkg/nvstore"
	"github.com/james-see/elbow/pkg/pattern"
)

// Format represents a file format
type Format string

const (
	FormatMIDI    Format = "midi"
	FormatImage   Format = "image"
	FormatUnknown Format = "unknown"
)

// DetectFormat detects the format of a file based on its extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mid", ".midi":
		return FormatMIDI
	case ".bin", ".eep", ".img":
		return FormatImage
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects the format from file content
func DetectFormatFromContent(data []byte) Format {
	if len(data) >= 4 && string(data[:4]) == "MThd" {
		return FormatMIDI
	}
	if len(data) == nvstore.Size {
		return FormatImage
	}
	return FormatUnknown
}

// Sequence is the playable part of a pattern: the lamp bitmaps of frames
// 0 through the marker, and the playback settings.
type Sequence struct {
	Pattern  int
	Frames   []pattern.Frame
	Settings pattern.Settings
}
