package device

import "github.com/james-see/elbow/pkg/pattern"

// Advance moves the cursor one frame according to the pattern style.
// Forward and Reverse styles force the direction; Bounce keeps the direction
// of the last move and turns around at either end. The cursor stays within
// [0, MarkerPos], including the single-frame pattern where MarkerPos is 0.
func Advance(st *State) {
	last := st.MarkerPos
	style := st.Settings.Style

	switch style {
	case pattern.Forward:
		st.Direction = Forward
	case pattern.Reverse:
		st.Direction = Reverse
	}

	// edit mode may leave the cursor past the marker
	if st.Cursor > last {
		st.Cursor = last
	}
	if st.Cursor < 0 {
		st.Cursor = 0
	}

	switch st.Direction {
	case Forward:
		switch {
		case st.Cursor < last:
			st.Cursor++
		case style == pattern.Forward:
			st.Cursor = 0
		case style == pattern.Bounce:
			st.Direction = Reverse
			if st.Cursor > 0 {
				st.Cursor--
			}
		}

	case Reverse:
		switch {
		case st.Cursor > 0:
			st.Cursor--
		case style == pattern.Reverse:
			st.Cursor = last
		case style == pattern.Bounce:
			st.Direction = Forward
			if st.Cursor < last {
				st.Cursor++
			}
		}
	}
}
