// Package device runs the sequencer control loop: the playback/edit mode
// machine, the playback engine and the status indicator.
package device

import "github.com/james-see/elbow/pkg/pattern"

// Mode is the top-level control state
type Mode int

const (
	Playback Mode = iota
	Edit
)

func (m Mode) String() string {
	if m == Edit {
		return "edit"
	}
	return "playback"
}

// Direction is the way the cursor last moved
type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// State is everything the control loop mutates. The Device owns the only
// copy; State() hands out snapshots.
type State struct {
	Mode      Mode
	Pattern   int
	Cursor    int
	Direction Direction
	Settings  pattern.Settings

	// MarkerPos is the last frame played: the marked frame, or the last
	// physical frame when the pattern has no marker.
	MarkerPos int

	// Output mirrors the frame last sent to the lamps
	Output pattern.Frame
}

// Inputs supplies raw button levels, bit i set while button i is down
type Inputs interface {
	Snapshot() uint8
}

// Outputs drives the six lamp channels, bit i = channel i+1
type Outputs interface {
	SetChannels(lamps uint8)
}

// Indicator drives the single status LED
type Indicator interface {
	SetIndicator(on bool)
}
