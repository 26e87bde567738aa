package flash

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/zeebo/blake3"
)

// ErrImageSize is returned when an image file does not hold exactly one page.
var ErrImageSize = errors.New("image size does not match page size")

// Image emulates one NOR flash page on top of a file. The file holds the raw
// page bytes; the address of offset 0 is the configured base address.
//
// Image is not safe for concurrent use.
type Image struct {
	fh      FileHandle
	base    uint32
	data    []byte
	lastErr error
}

// CreateImage creates (or truncates) the file at path and formats it as an
// erased page of size bytes.
func CreateImage(path string, base uint32, size int) (*Image, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}

	img := &Image{fh: NewFileHandle(file), base: base, data: make([]byte, size)}
	if status := img.ErasePage(base); status != StatusComplete {
		_ = file.Close()
		return nil, fmt.Errorf("failed to format image %s: %w", path, img.lastErr)
	}
	return img, nil
}

// OpenImage opens an existing image file created by CreateImage.
func OpenImage(path string, base uint32, size int) (*Image, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	img, err := NewImage(NewFileHandle(file), base, size)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	return img, nil
}

// NewImage loads a page of size bytes from fh.
func NewImage(fh FileHandle, base uint32, size int) (*Image, error) {
	info, err := fh.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() != int64(size) {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrImageSize, info.Size(), size)
	}

	data := make([]byte, size)
	if _, err := fh.ReadAt(data, 0); err != nil {
		return nil, err
	}
	return &Image{fh: fh, base: base, data: data}, nil
}

// ErasePage sets every byte of the page to 0xFF and writes it through.
func (img *Image) ErasePage(addr uint32) Status {
	if addr != img.base {
		return StatusErrorWriteProtect
	}
	for i := range img.data {
		img.data[i] = 0xFF
	}
	if _, err := img.fh.WriteAt(img.data, 0); err != nil {
		img.lastErr = err
		return StatusTimeout
	}
	if err := img.fh.Sync(); err != nil {
		img.lastErr = err
		return StatusTimeout
	}
	return StatusComplete
}

// ProgramHalfWord writes value little-endian at addr. Like the hardware it
// refuses misaligned addresses and half-words that are not erased.
func (img *Image) ProgramHalfWord(addr uint32, value uint16) Status {
	off, ok := img.offset(addr, 2)
	if !ok {
		return StatusErrorWriteProtect
	}
	if off%2 != 0 {
		return StatusErrorProgram
	}
	if binary.LittleEndian.Uint16(img.data[off:]) != ErasedHalfWord {
		return StatusErrorProgram
	}

	binary.LittleEndian.PutUint16(img.data[off:], value)
	if _, err := img.fh.WriteAt(img.data[off:off+2], int64(off)); err != nil {
		img.lastErr = err
		return StatusTimeout
	}
	return StatusComplete
}

// ReadByte returns the byte at addr. Addresses outside the page read as erased.
func (img *Image) ReadByte(addr uint32) byte {
	off, ok := img.offset(addr, 1)
	if !ok {
		return 0xFF
	}
	return img.data[off]
}

// Bytes returns a copy of the page contents.
func (img *Image) Bytes() []byte {
	out := make([]byte, len(img.data))
	copy(out, img.data)
	return out
}

// Digest returns the BLAKE3 hash of the page contents.
func (img *Image) Digest() [32]byte {
	return blake3.Sum256(img.data)
}

// Err returns the last I/O error that caused a StatusTimeout, if any.
func (img *Image) Err() error { return img.lastErr }

// Close syncs and closes the backing file.
func (img *Image) Close() error {
	if err := img.fh.Sync(); err != nil {
		return err
	}
	return img.fh.Close()
}

func (img *Image) offset(addr uint32, n int) (int, bool) {
	if addr < img.base {
		return 0, false
	}
	off := uint64(addr - img.base)
	if off+uint64(n) > uint64(len(img.data)) {
		return 0, false
	}
	return int(off), true
}
