// Package config provides configuration structures and defaults for the
// emulated EEPROM page.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MikhailWahib/flasheeprom/internal/checksum"
)

const (
	defaultPageSize     = 0x400
	defaultStartAddress = 0x0800FC00
	defaultVersion      = 10
)

// ErasedByte is the value every byte of an erased flash page reads as.
const ErasedByte = 0xFF

// ErrInvalidConfig is returned by Validate for unusable settings.
var ErrInvalidConfig = errors.New("invalid config")

// Config describes the flash page backing the emulated EEPROM.
type Config struct {
	// PageSize is the size of the flash page and of the mirror, in bytes.
	PageSize int `yaml:"page_size"`
	// StartAddress is the flash address of the first byte of the page.
	StartAddress uint32 `yaml:"start_address"`
	// Version is the expected settings-format marker stored at byte 0.
	Version byte `yaml:"version"`
	// Checksum selects the rolling checksum variant for records.
	Checksum checksum.Mode `yaml:"checksum"`
}

// DefaultConfig returns a Config struct populated with default values.
func DefaultConfig() *Config {
	return &Config{
		PageSize:     defaultPageSize,
		StartAddress: defaultStartAddress,
		Version:      defaultVersion,
		Checksum:     checksum.Rotate,
	}
}

// FillDefaults sets any zero-value fields in the Config to their default values.
func (c *Config) FillDefaults() {
	def := DefaultConfig()
	if c.PageSize == 0 {
		c.PageSize = def.PageSize
	}
	if c.StartAddress == 0 {
		c.StartAddress = def.StartAddress
	}
	if c.Version == 0 {
		c.Version = def.Version
	}
}

// Validate reports whether the Config can back a mirror.
func (c *Config) Validate() error {
	if c.PageSize < 2 || c.PageSize%2 != 0 {
		return fmt.Errorf("%w: page size %d is not a positive multiple of the half-word size", ErrInvalidConfig, c.PageSize)
	}
	if uint64(c.StartAddress)+uint64(c.PageSize) > 1<<32 {
		return fmt.Errorf("%w: page at %#x overflows the address space", ErrInvalidConfig, c.StartAddress)
	}
	// An erased page would otherwise pass the version check.
	if c.Version == ErasedByte {
		return fmt.Errorf("%w: version %#x equals the erased-flash value", ErrInvalidConfig, c.Version)
	}
	if _, err := c.Checksum.MarshalText(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Load reads a YAML config file, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.FillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
