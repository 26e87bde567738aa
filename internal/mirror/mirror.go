// Package mirror holds the in-memory copy of the flash page that serves every
// logical EEPROM read and write.
package mirror

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when an access falls outside the page.
var ErrOutOfRange = errors.New("address out of range")

// RangeError describes an access of Length bytes at Addr on a page of Size bytes.
type RangeError struct {
	Addr   int
	Length int
	Size   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("access of %d bytes at %d exceeds page of %d bytes", e.Length, e.Addr, e.Size)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// Mirror is a fixed-size byte buffer shadowing one flash page.
// It is not safe for concurrent use.
type Mirror struct {
	buf []byte
}

// New allocates a mirror of size bytes. The buffer is never reallocated.
func New(size int) *Mirror {
	return &Mirror{buf: make([]byte, size)}
}

// Len returns the page size.
func (m *Mirror) Len() int { return len(m.buf) }

// CheckRange reports whether length bytes starting at addr lie inside the page.
func (m *Mirror) CheckRange(addr, length int) error {
	if addr < 0 || length < 0 || addr > len(m.buf)-length {
		return &RangeError{Addr: addr, Length: length, Size: len(m.buf)}
	}
	return nil
}

// Get returns the byte at addr.
func (m *Mirror) Get(addr int) (byte, error) {
	if err := m.CheckRange(addr, 1); err != nil {
		return 0, err
	}
	return m.buf[addr], nil
}

// Put stores v at addr.
func (m *Mirror) Put(addr int, v byte) error {
	if err := m.CheckRange(addr, 1); err != nil {
		return err
	}
	m.buf[addr] = v
	return nil
}

// Load fills the mirror in address order from read, which is called once per
// page offset.
func (m *Mirror) Load(read func(off int) byte) {
	for i := range m.buf {
		m.buf[i] = read(i)
	}
}

// Fill overwrites every byte with v.
func (m *Mirror) Fill(v byte) {
	for i := range m.buf {
		m.buf[i] = v
	}
}

// HalfWords returns the number of half-words in the page.
func (m *Mirror) HalfWords() int { return len(m.buf) / 2 }

// HalfWord returns the i-th half-word in little-endian order, matching how
// the flash controller programs two adjacent bytes.
func (m *Mirror) HalfWord(i int) uint16 {
	return binary.LittleEndian.Uint16(m.buf[2*i:])
}

// Snapshot returns a copy of the buffer.
func (m *Mirror) Snapshot() []byte {
	out := make([]byte, len(m.buf))
	copy(out, m.buf)
	return out
}
