// Package mockflash provides in-memory flash test doubles
package mockflash

import (
	"encoding/binary"
	"io"
	"os"
	"time"

	"github.com/MikhailWahib/flasheeprom/internal/flash"
)

// Program records a single ProgramHalfWord call
type Program struct {
	Addr  uint32
	Value uint16
}

// Driver implements flash.Driver over a byte slice and records every call
type Driver struct {
	Base uint32
	Data []byte

	// EraseStatus is returned by ErasePage; anything but StatusComplete
	// leaves Data untouched.
	EraseStatus flash.Status
	// ProgramStatus is returned by ProgramHalfWord after the write is applied.
	ProgramStatus flash.Status

	Erases   int
	Reads    int
	Programs []Program
}

// NewDriver creates an erased page of size bytes at base
func NewDriver(base uint32, size int) *Driver {
	d := &Driver{Base: base, Data: make([]byte, size)}
	for i := range d.Data {
		d.Data[i] = 0xFF
	}
	return d
}

// ErasePage fills the page with 0xFF unless EraseStatus says otherwise
func (d *Driver) ErasePage(_ uint32) flash.Status {
	d.Erases++
	if d.EraseStatus != flash.StatusComplete {
		return d.EraseStatus
	}
	for i := range d.Data {
		d.Data[i] = 0xFF
	}
	return flash.StatusComplete
}

// ProgramHalfWord clears bits like NOR flash: the stored value becomes old AND value
func (d *Driver) ProgramHalfWord(addr uint32, value uint16) flash.Status {
	d.Programs = append(d.Programs, Program{Addr: addr, Value: value})
	off := addr - d.Base
	old := binary.LittleEndian.Uint16(d.Data[off:])
	binary.LittleEndian.PutUint16(d.Data[off:], old&value)
	return d.ProgramStatus
}

// ReadByte returns the stored byte at addr
func (d *Driver) ReadByte(addr uint32) byte {
	d.Reads++
	return d.Data[addr-d.Base]
}

// ResetCounters clears recorded calls without touching Data
func (d *Driver) ResetCounters() {
	d.Erases = 0
	d.Reads = 0
	d.Programs = nil
}

// MockFile implements flash.FileHandle for testing purposes
type MockFile struct {
	data []byte
	name string

	// FailWrites makes WriteAt return io.ErrShortWrite
	FailWrites bool
}

// NewMockFile creates a mock file holding data
func NewMockFile(name string, data []byte) *MockFile {
	return &MockFile{name: name, data: data}
}

// Data returns the current file contents
func (m *MockFile) Data() []byte { return m.data }

// WriteAt writes len(b) bytes to the file starting at byte offset off
func (m *MockFile) WriteAt(b []byte, off int64) (int, error) {
	if m.FailWrites {
		return 0, io.ErrShortWrite
	}
	// Extend the slice if needed
	requiredLen := int(off) + len(b)
	if requiredLen > len(m.data) {
		newData := make([]byte, requiredLen)
		copy(newData, m.data)
		m.data = newData
	}
	return copy(m.data[off:], b), nil
}

// ReadAt reads len(b) bytes from the file starting at byte offset off
func (m *MockFile) ReadAt(b []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(b, m.data[off:])
	if n < len(b) {
		return n, io.EOF
	}
	return n, nil
}

// Close closes the mock file
func (m *MockFile) Close() error {
	return nil
}

// Sync simulates syncing file contents to disk
func (m *MockFile) Sync() error {
	return nil
}

// Stat returns file information
func (m *MockFile) Stat() (os.FileInfo, error) {
	return &testFileInfo{size: int64(len(m.data)), name: m.name}, nil
}

type testFileInfo struct {
	size int64
	name string
}

func (m *testFileInfo) Name() string       { return m.name }
func (m *testFileInfo) Size() int64        { return m.size }
func (m *testFileInfo) Mode() os.FileMode  { return 0644 }
func (m *testFileInfo) ModTime() time.Time { return time.Now() }
func (m *testFileInfo) IsDir() bool        { return false }
func (m *testFileInfo) Sys() any           { return nil }
