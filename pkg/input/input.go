// Package input turns raw button levels into press, hold and click gestures.
package input

import "github.com/james-see/elbow/pkg/ticks"

// Channel indices on the front panel
const (
	NumChannels = 8

	// Buttons 0-5 select a pattern in playback and a lamp channel in edit.
	NumPatternButtons = 6

	AdjustUp   = 6
	AdjustDown = 7
)

// Timing, in milliseconds
const (
	SampleInterval = 5
	HoldThreshold  = 2000
	MaxPressTime   = 10000

	// A recognised press starts this far along so holds trigger a little sooner.
	pressSeed = 7 * SampleInterval
)

// History patterns for an 8-sample window, newest sample in bit 0
const (
	edgeRise    = 0b01111111
	edgeFall    = 0b11111110
	stablePress = 0b11111111
	stableLetGo = 0b00000000
)

// Flag is a per-channel status bit
type Flag uint8

const (
	Pressed Flag = 1 << iota
	Released
	Active
	Inactive
	Held
)

// Edges is the set of flags a consumer clears after acting on a gesture
const Edges = Held | Pressed | Released

// Channel is the debounce state of a single input
type Channel struct {
	History    uint8
	PressTimer uint16
	Flags      Flag
}

// Has reports whether all bits in f are set
func (c *Channel) Has(f Flag) bool {
	return c.Flags&f == f
}

func (c *Channel) sample(pressed bool) {
	c.History <<= 1
	if pressed {
		c.History |= 1
	}

	switch c.History {
	case edgeRise:
		c.Flags |= Pressed
		c.Flags &^= Released | Held
		c.PressTimer = pressSeed

	case edgeFall:
		c.Flags |= Released
		c.PressTimer = 0

	case stablePress:
		if c.Flags&Pressed != 0 {
			c.Flags |= Active
			c.Flags &^= Inactive
			c.PressTimer += SampleInterval
			if c.PressTimer > HoldThreshold {
				c.Flags |= Held
			}
			if c.PressTimer > MaxPressTime {
				c.PressTimer = MaxPressTime
			}
		}

	case stableLetGo:
		c.Flags |= Inactive
		c.Flags &^= Active
		c.PressTimer = 0
	}
}

// Bank holds every input channel. Channel indices outside [0, NumChannels)
// are a caller bug.
type Bank struct {
	Channels   [NumChannels]Channel
	lastSample ticks.Millis
}

// NewBank creates a bank with every channel zeroed
func NewBank() *Bank {
	return &Bank{}
}

// Sample feeds one raw snapshot (bit i set = input i pressed) into the bank.
// It does nothing until SampleInterval has passed since the last sample and
// reports whether the sample was taken.
func (b *Bank) Sample(now ticks.Millis, raw uint8) bool {
	if ticks.Elapsed(now, b.lastSample) < SampleInterval {
		return false
	}
	b.lastSample = now

	for i := range b.Channels {
		b.Channels[i].sample(raw&(1<<i) != 0)
	}
	return true
}

// Held reports a press that crossed the hold threshold. A true result
// consumes Held and Pressed, so the same press is never also a click.
func (b *Bank) Held(i int) bool {
	c := &b.Channels[i]
	if c.Flags&Held == 0 {
		return false
	}
	c.Flags &^= Held | Pressed
	return true
}

// Clicked reports a completed press and release that was not consumed as a
// hold. A true result consumes Released, Pressed and Held.
func (b *Bank) Clicked(i int) bool {
	c := &b.Channels[i]
	if !c.Has(Released | Pressed) {
		return false
	}
	c.Flags &^= Released | Pressed | Held
	return true
}

// Active reports whether the input is currently held down after a recognised press
func (b *Bank) Active(i int) bool {
	return b.Channels[i].Flags&Active != 0
}

// ClearFlags clears the given flags on every channel
func (b *Bank) ClearFlags(f Flag) {
	for i := range b.Channels {
		b.Channels[i].Flags &^= f
	}
}
