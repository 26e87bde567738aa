// Package flasheeprom emulates a byte-addressable EEPROM on top of a single
// flash page.
//
// All reads and writes act on an in-memory mirror of the page. Writing a
// checksummed record updates the mirror and immediately commits the whole
// page back to flash: the page is erased and only half-words that differ from
// the erased state are programmed. Records carry a one-byte rolling checksum
// so that a corrupted, never-written or version-reset region is detected on
// read instead of being trusted.
//
// Example usage:
//
//	img, err := flasheeprom.OpenImage("settings.bin", cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer img.Close()
//
//	store, err := flasheeprom.Open(img, cfg, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := store.WriteWithChecksum(1, settings); err != nil {
//		log.Printf("settings not persisted: %v", err)
//	}
//
//	ok, err := store.ReadWithChecksum(buf, 1)
//	if err != nil || !ok {
//		// fall back to defaults
//	}
//
// A Store is not safe for concurrent use.
package flasheeprom

import (
	"log/slog"

	"github.com/MikhailWahib/flasheeprom/internal/checksum"
	"github.com/MikhailWahib/flasheeprom/internal/config"
	"github.com/MikhailWahib/flasheeprom/internal/engine"
	"github.com/MikhailWahib/flasheeprom/internal/flash"
	"github.com/MikhailWahib/flasheeprom/internal/mirror"
)

// Config is an alias for config.Config, re-exported for user convenience.
type Config = config.Config

// DefaultConfig returns a Config struct populated with default values. Re-exported for user convenience.
var DefaultConfig = config.DefaultConfig

// LoadConfig reads a YAML config file. Re-exported for user convenience.
var LoadConfig = config.Load

// ChecksumMode selects the record checksum variant.
type ChecksumMode = checksum.Mode

// Checksum variants.
const (
	ChecksumRotate    = checksum.Rotate
	ChecksumLogicalOr = checksum.LogicalOr
)

// Driver is the flash controller interface a Store persists through.
type Driver = flash.Driver

// Status is the completion code returned by a Driver.
type Status = flash.Status

// Driver status codes.
const (
	StatusComplete          = flash.StatusComplete
	StatusBusy              = flash.StatusBusy
	StatusErrorProgram      = flash.StatusErrorProgram
	StatusErrorWriteProtect = flash.StatusErrorWriteProtect
	StatusTimeout           = flash.StatusTimeout
)

// Image is a flash page emulated in a file.
type Image = flash.Image

// EraseError is returned when a flush cannot erase the page.
type EraseError = engine.EraseError

// RangeError is returned for accesses outside the page.
type RangeError = mirror.RangeError

// Sentinel errors for use with errors.Is.
var (
	ErrOutOfRange    = mirror.ErrOutOfRange
	ErrEraseFailed   = engine.ErrEraseFailed
	ErrInvalidConfig = config.ErrInvalidConfig
	ErrImageSize     = flash.ErrImageSize
)

// CreateImage creates an erased image file sized and addressed by cfg.
func CreateImage(path string, cfg *Config) (*Image, error) {
	cfg = withDefaults(cfg)
	return flash.CreateImage(path, cfg.StartAddress, cfg.PageSize)
}

// OpenImage opens an image file created by CreateImage.
func OpenImage(path string, cfg *Config) (*Image, error) {
	cfg = withDefaults(cfg)
	return flash.OpenImage(path, cfg.StartAddress, cfg.PageSize)
}

// Store is an emulated EEPROM backed by one flash page.
type Store struct {
	engine *engine.Engine
}

// Open validates cfg, builds the mirror and loads it from driver.
//
// A page whose version marker differs from cfg.Version is not an error: the
// mirror is reset to erased values and every checksummed read of an unwritten
// record reports a mismatch until the settings are written again.
func Open(driver Driver, cfg *Config, logger *slog.Logger) (*Store, error) {
	cfg = withDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := engine.NewEngine(cfg, driver, logger)
	e.Initialize()
	return &Store{engine: e}, nil
}

// Initialize reloads the mirror from flash, discarding unflushed changes.
func (s *Store) Initialize() {
	s.engine.Initialize()
}

// GetByte returns the byte at addr from the mirror.
func (s *Store) GetByte(addr int) (byte, error) {
	return s.engine.GetByte(addr)
}

// PutByte writes v to the mirror at addr. Call Flush to persist it.
func (s *Store) PutByte(addr int, v byte) error {
	return s.engine.PutByte(addr, v)
}

// Flush commits the mirror to flash, blocking until the driver is done.
func (s *Store) Flush() error {
	return s.engine.Flush()
}

// WriteWithChecksum stores src at dst followed by its checksum and flushes.
func (s *Store) WriteWithChecksum(dst int, src []byte) error {
	return s.engine.WriteWithChecksum(dst, src)
}

// ReadWithChecksum fills dst from src and reports whether the checksum matches.
func (s *Store) ReadWithChecksum(dst []byte, src int) (bool, error) {
	return s.engine.ReadWithChecksum(dst, src)
}

// StampVersion writes the configured version marker to byte 0 and flushes.
func (s *Store) StampVersion() error {
	return s.engine.StampVersion()
}

// Configured reports whether byte 0 holds the configured version.
func (s *Store) Configured() bool {
	return s.engine.Configured()
}

// PageSize returns the number of addressable bytes.
func (s *Store) PageSize() int {
	return s.engine.PageSize()
}

// Snapshot returns a copy of the mirror.
func (s *Store) Snapshot() []byte {
	return s.engine.Snapshot()
}

func withDefaults(cfg *Config) *Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	c := *cfg
	c.FillDefaults()
	return &c
}
