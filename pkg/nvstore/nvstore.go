// Package nvstore provides the byte-addressable non-volatile memory the
// sequencer keeps its patterns in.
package nvstore

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Size is the capacity of the device memory in bytes
const Size = 128

// Erased is the value every cell holds after an erase
const Erased = 0xFF

// Store is the contract the pattern store consumes. Update calls only touch
// the medium when the value changes, and return once the write is complete.
type Store interface {
	LoadByte(addr uint16) byte
	UpdateByte(addr uint16, v byte)
	LoadWord(addr uint16) uint16
	UpdateWord(addr uint16, v uint16)
}

// ErrImageSize is returned when an image does not match the device size
var ErrImageSize = errors.New("image size mismatch")

// image is the shared cell array behind both implementations. Words are
// little-endian, as on the target.
type image struct {
	cells  [Size]byte
	writes int
	commit func(addr uint16, v byte)
}

func (im *image) LoadByte(addr uint16) byte {
	return im.cells[addr]
}

func (im *image) UpdateByte(addr uint16, v byte) {
	if im.cells[addr] == v {
		return
	}
	im.cells[addr] = v
	im.writes++
	if im.commit != nil {
		im.commit(addr, v)
	}
}

func (im *image) LoadWord(addr uint16) uint16 {
	return binary.LittleEndian.Uint16(im.cells[addr : addr+2])
}

func (im *image) UpdateWord(addr uint16, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	im.UpdateByte(addr, b[0])
	im.UpdateByte(addr+1, b[1])
}

// Writes returns the number of physical byte writes issued so far
func (im *image) Writes() int {
	return im.writes
}

// Bytes returns a copy of the whole image
func (im *image) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, im.cells[:])
	return out
}

func checkImage(data []byte) error {
	if len(data) != Size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrImageSize, len(data), Size)
	}
	return nil
}

// Memory is a RAM-backed store. It starts erased.
type Memory struct {
	image
}

// NewMemory creates an erased in-memory store
func NewMemory() *Memory {
	m := &Memory{}
	m.Erase()
	return m
}

// Erase resets every cell to Erased without counting writes
func (m *Memory) Erase() {
	for i := range m.cells {
		m.cells[i] = Erased
	}
}

// Load replaces the whole image without counting writes
func (m *Memory) Load(data []byte) error {
	if err := checkImage(data); err != nil {
		return err
	}
	copy(m.cells[:], data)
	return nil
}

// ResetWrites zeroes the physical write counter
func (m *Memory) ResetWrites() {
	m.writes = 0
}
