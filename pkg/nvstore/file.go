package nvstore

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// File is a store persisted to an image file on disk. Every physical byte
// write goes straight to the file and is synced before returning.
type File struct {
	image
	f      *os.File
	logger *zerolog.Logger
	err    error
	fresh  bool
}

// OpenFile opens the image at path, creating an erased one if it does not exist
func OpenFile(path string, logger *zerolog.Logger) (*File, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	fs := &File{logger: logger}
	for i := range fs.cells {
		fs.cells[i] = Erased
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if errors.Is(err, os.ErrNotExist) {
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to create store image: %w", err)
		}
		if _, err := f.WriteAt(fs.cells[:], 0); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to erase store image: %w", err)
		}
		fs.fresh = true
		logger.Info().Str("path", path).Msg("Created erased store image")
	} else if err != nil {
		return nil, fmt.Errorf("failed to open store image: %w", err)
	} else {
		data, err := io.ReadAll(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to read store image: %w", err)
		}
		if err := checkImage(data); err != nil {
			_ = f.Close()
			return nil, err
		}
		copy(fs.cells[:], data)
	}

	fs.f = f
	fs.commit = fs.writeThrough
	return fs, nil
}

// writeThrough persists one cell. Failures are logged and kept for Err; the
// core has no path to report them.
func (fs *File) writeThrough(addr uint16, v byte) {
	if _, err := fs.f.WriteAt([]byte{v}, int64(addr)); err != nil {
		fs.fail(addr, err)
		return
	}
	if err := fs.f.Sync(); err != nil {
		fs.fail(addr, err)
		return
	}
	fs.logger.Trace().Uint16("addr", addr).Uint8("value", v).Msg("Wrote cell")
}

func (fs *File) fail(addr uint16, err error) {
	fs.err = err
	fs.logger.Error().Err(err).Uint16("addr", addr).Msg("Store write failed")
}

// Fresh reports whether OpenFile had to create the image
func (fs *File) Fresh() bool {
	return fs.fresh
}

// Err returns the last write failure, if any
func (fs *File) Err() error {
	return fs.err
}

// Erase resets every cell to Erased, writing only cells that change
func (fs *File) Erase() {
	for i := range fs.cells {
		fs.UpdateByte(uint16(i), Erased)
	}
}

// Load replaces the image contents, writing only cells that change
func (fs *File) Load(data []byte) error {
	if err := checkImage(data); err != nil {
		return err
	}
	for i, v := range data {
		fs.UpdateByte(uint16(i), v)
	}
	return fs.err
}

// Close closes the underlying file
func (fs *File) Close() error {
	if fs.f == nil {
		return nil
	}
	err := fs.f.Close()
	fs.f = nil
	return err
}
