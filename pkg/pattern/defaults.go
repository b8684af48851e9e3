package pattern

// Factory frames. Trailing frames past the marker are left blank.
var defaultFrames = [NumPatterns][]Frame{
	{0b00000001, 0b00000010, 0b00000100, 0b00001000, 0b00010000, 0b10100000},
	{0b00000000, 0b00000001, 0b00000011, 0b00000111, 0b00001111, 0b00011111, 0b10111111},
	{0b00000001, 0b00000010, 0b00000100, 0b00001000, 0b00010000, 0b00100000, 0b00010000, 0b00001000, 0b00000100, 0b10000010},
	{0b00111111, 0b10000000},
	{0b00010101, 0b10101010},
	{0b00000111, 0b00111000, 0b00000111, 0b00111000, 0b00000001, 0b00100000, 0b00000001, 0b10100000},
}

// DefaultFrames returns the factory frames of pattern p padded to its capacity
func DefaultFrames(p int) []Frame {
	frames := make([]Frame, Capacity(p))
	copy(frames, defaultFrames[p])
	return frames
}
