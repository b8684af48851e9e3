package nvstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStartsErased(t *testing.T) {
	m := NewMemory()
	for addr := uint16(0); addr < Size; addr++ {
		if got := m.LoadByte(addr); got != Erased {
			t.Fatalf("LoadByte(%d) = 0x%02X, want 0x%02X", addr, got, Erased)
		}
	}
	if m.Writes() != 0 {
		t.Errorf("Writes() = %d, want 0", m.Writes())
	}
}

func TestUpdateByteElidesUnchanged(t *testing.T) {
	m := NewMemory()

	m.UpdateByte(3, 0x42)
	if m.Writes() != 1 {
		t.Fatalf("Writes() after first update = %d, want 1", m.Writes())
	}

	m.ResetWrites()
	m.UpdateByte(3, 0x42)
	if m.Writes() != 0 {
		t.Errorf("Writes() after no-op update = %d, want 0", m.Writes())
	}
	if m.LoadByte(3) != 0x42 {
		t.Errorf("LoadByte(3) = 0x%02X, want 0x42", m.LoadByte(3))
	}
}

func TestWordLittleEndian(t *testing.T) {
	m := NewMemory()
	m.UpdateWord(0x70, 0x2080)

	if m.LoadByte(0x70) != 0x80 || m.LoadByte(0x71) != 0x20 {
		t.Errorf("bytes = %02X %02X, want 80 20", m.LoadByte(0x70), m.LoadByte(0x71))
	}
	if got := m.LoadWord(0x70); got != 0x2080 {
		t.Errorf("LoadWord() = 0x%04X, want 0x2080", got)
	}
}

func TestUpdateWordCountsChangedBytesOnly(t *testing.T) {
	m := NewMemory()
	m.UpdateWord(0x70, 0x0080)
	m.ResetWrites()

	// only the high byte differs
	m.UpdateWord(0x70, 0x2080)
	if m.Writes() != 1 {
		t.Errorf("Writes() = %d, want 1", m.Writes())
	}

	m.ResetWrites()
	m.UpdateWord(0x70, 0x2080)
	if m.Writes() != 0 {
		t.Errorf("Writes() for no-op word update = %d, want 0", m.Writes())
	}
}

func TestMemoryLoadRejectsWrongSize(t *testing.T) {
	m := NewMemory()
	err := m.Load(make([]byte, 12))
	if !errors.Is(err, ErrImageSize) {
		t.Errorf("Load() error = %v, want ErrImageSize", err)
	}
}

func TestFilePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.bin")

	fs, err := OpenFile(path, nil)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	if !fs.Fresh() {
		t.Error("Fresh() should be true for a new image")
	}
	fs.UpdateByte(5, 0x84)
	fs.UpdateWord(0x72, 144)
	if err := fs.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size() != Size {
		t.Errorf("image size = %d, want %d", info.Size(), Size)
	}

	fs, err = OpenFile(path, nil)
	if err != nil {
		t.Fatalf("OpenFile() reopen error = %v", err)
	}
	defer fs.Close()

	if fs.Fresh() {
		t.Error("Fresh() should be false for an existing image")
	}
	if fs.LoadByte(5) != 0x84 {
		t.Errorf("LoadByte(5) = 0x%02X, want 0x84", fs.LoadByte(5))
	}
	if fs.LoadWord(0x72) != 144 {
		t.Errorf("LoadWord(0x72) = %d, want 144", fs.LoadWord(0x72))
	}
	if fs.LoadByte(0) != Erased {
		t.Errorf("LoadByte(0) = 0x%02X, want erased", fs.LoadByte(0))
	}
}

func TestOpenFileRejectsTruncatedImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}

	_, err := OpenFile(path, nil)
	if !errors.Is(err, ErrImageSize) {
		t.Errorf("OpenFile() error = %v, want ErrImageSize", err)
	}
}

func TestFileLoadWritesOnlyChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.bin")
	fs, err := OpenFile(path, nil)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer fs.Close()

	data := fs.Bytes()
	data[10] = 0x01
	data[11] = 0x02
	if err := fs.Load(data); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if fs.Writes() != 2 {
		t.Errorf("Writes() = %d, want 2", fs.Writes())
	}
	if fs.Err() != nil {
		t.Errorf("Err() = %v, want nil", fs.Err())
	}
}
