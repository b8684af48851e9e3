package pattern

// Slot locates one pattern in the device memory
type Slot struct {
	Capacity     int
	FrameAddr    uint16
	SettingsAddr uint16
}

// Layout maps pattern index to its fixed slot. The first two patterns hold 8
// frames, the next two 16, the last two 32.
var Layout = [NumPatterns]Slot{
	{Capacity: 8, FrameAddr: 0x00, SettingsAddr: 0x70},
	{Capacity: 8, FrameAddr: 0x08, SettingsAddr: 0x72},
	{Capacity: 16, FrameAddr: 0x10, SettingsAddr: 0x74},
	{Capacity: 16, FrameAddr: 0x20, SettingsAddr: 0x76},
	{Capacity: 32, FrameAddr: 0x30, SettingsAddr: 0x78},
	{Capacity: 32, FrameAddr: 0x50, SettingsAddr: 0x7A},
}

// LastUsedAddr holds the index of the pattern selected at power-off
const LastUsedAddr uint16 = 0x7C

// Capacity returns the number of frames pattern p can hold
func Capacity(p int) int {
	return Layout[p].Capacity
}

// MaxIndex returns the last physical frame index of pattern p
func MaxIndex(p int) int {
	return Layout[p].Capacity - 1
}

func frameAddr(p, i int) uint16 {
	slot := Layout[p]
	return slot.FrameAddr + uint16(i%slot.Capacity)
}
