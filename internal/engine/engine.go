// Package engine implements the EEPROM emulation: a mirror of one flash page,
// the flush that commits it back, and checksummed record transfer.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MikhailWahib/flasheeprom/internal/config"
	"github.com/MikhailWahib/flasheeprom/internal/flash"
	"github.com/MikhailWahib/flasheeprom/internal/logging"
	"github.com/MikhailWahib/flasheeprom/internal/mirror"
)

// ErrEraseFailed is returned when the page erase does not complete.
var ErrEraseFailed = errors.New("flash erase failed")

// EraseError carries the status reported by a failed page erase.
type EraseError struct {
	Addr   uint32
	Status flash.Status
}

func (e *EraseError) Error() string {
	return fmt.Sprintf("erase of page %#08x failed: %s", e.Addr, e.Status)
}

func (e *EraseError) Unwrap() error { return ErrEraseFailed }

// Engine owns the mirror buffer and the driver of the page it shadows.
// It is not safe for concurrent use; callers serialize access.
type Engine struct {
	cfg    *config.Config
	driver flash.Driver
	mirror *mirror.Mirror
	logger *slog.Logger
}

// NewEngine creates an engine for cfg backed by driver. The mirror is
// allocated here but stays zeroed until Initialize runs.
func NewEngine(cfg *config.Config, driver flash.Driver, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{
		cfg:    cfg,
		driver: driver,
		mirror: mirror.New(cfg.PageSize),
		logger: logger,
	}
}

// Initialize loads the mirror from flash. If the version marker does not
// match, the mirror is reset to erased values; flash is left as is until the
// next flush.
func (e *Engine) Initialize() {
	e.mirror.Load(func(off int) byte {
		return e.driver.ReadByte(e.cfg.StartAddress + uint32(off))
	})

	marker, _ := e.mirror.Get(0)
	if marker != e.cfg.Version {
		e.logger.Info("settings version mismatch, resetting mirror",
			"found", marker, "expected", e.cfg.Version)
		e.mirror.Fill(config.ErasedByte)
		return
	}
	e.logger.Debug("mirror loaded", "start", e.cfg.StartAddress, "size", e.cfg.PageSize)
}

// GetByte returns the mirror byte at addr.
func (e *Engine) GetByte(addr int) (byte, error) {
	return e.mirror.Get(addr)
}

// PutByte stores v in the mirror at addr. Flash is not touched.
func (e *Engine) PutByte(addr int, v byte) error {
	return e.mirror.Put(addr, v)
}

// PageSize returns the size of the emulated address space.
func (e *Engine) PageSize() int { return e.mirror.Len() }

// Snapshot returns a copy of the mirror.
func (e *Engine) Snapshot() []byte { return e.mirror.Snapshot() }

// Configured reports whether the version marker in the mirror is current.
func (e *Engine) Configured() bool {
	marker, _ := e.mirror.Get(0)
	return marker == e.cfg.Version
}

// StampVersion writes the expected version marker and flushes.
func (e *Engine) StampVersion() error {
	if err := e.mirror.Put(0, e.cfg.Version); err != nil {
		return err
	}
	return e.Flush()
}
