// Package flash defines the flash-controller driver consumed by the EEPROM
// emulation and provides a file-backed flash image implementing it.
package flash

import (
	"fmt"
	"os"
)

// ErasedHalfWord is the value an erased half-word reads as.
const ErasedHalfWord = 0xFFFF

// Status is the completion code returned by the flash controller.
type Status int

const (
	// StatusComplete reports a successful operation.
	StatusComplete Status = iota
	// StatusBusy reports that the controller was still busy.
	StatusBusy
	// StatusErrorProgram reports a programming error, such as writing a
	// half-word that was not erased.
	StatusErrorProgram
	// StatusErrorWriteProtect reports a write to a protected or unmapped address.
	StatusErrorWriteProtect
	// StatusTimeout reports that the operation did not finish.
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "complete"
	case StatusBusy:
		return "busy"
	case StatusErrorProgram:
		return "program error"
	case StatusErrorWriteProtect:
		return "write protected"
	case StatusTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Driver is the flash controller as seen by the EEPROM emulation.
// Calls are synchronous and block until the hardware finishes.
type Driver interface {
	// ErasePage erases the page starting at addr so every byte reads 0xFF.
	ErasePage(addr uint32) Status
	// ProgramHalfWord writes value to the half-word at addr.
	ProgramHalfWord(addr uint32, value uint16) Status
	// ReadByte returns the byte currently stored at addr.
	ReadByte(addr uint32) byte
}

// FileHandle abstracts the random-access file backing a flash image.
type FileHandle interface {
	// ReadAt reads len(b) bytes from the file starting at byte offset off.
	ReadAt(b []byte, off int64) (int, error)
	// WriteAt writes len(b) bytes to the file starting at byte offset off.
	WriteAt(b []byte, off int64) (int, error)
	// Close closes the file handle, rendering it unusable for I/O.
	Close() error
	// Sync commits the current contents of the file to stable storage.
	Sync() error
	// Stat returns the file stat
	Stat() (os.FileInfo, error)
}

type fileHandle struct {
	file *os.File
}

// NewFileHandle wraps an *os.File into a FileHandle implementation.
func NewFileHandle(file *os.File) FileHandle { return &fileHandle{file: file} }

func (fh *fileHandle) ReadAt(b []byte, off int64) (int, error) { return fh.file.ReadAt(b, off) }

func (fh *fileHandle) WriteAt(b []byte, off int64) (int, error) { return fh.file.WriteAt(b, off) }

func (fh *fileHandle) Close() error { return fh.file.Close() }

func (fh *fileHandle) Sync() error { return fh.file.Sync() }

func (fh *fileHandle) Stat() (os.FileInfo, error) { return fh.file.Stat() }
