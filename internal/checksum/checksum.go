// Package checksum implements the one-byte rolling checksum that guards
// records stored in the emulated EEPROM.
package checksum

import "fmt"

// Mode selects how the running checksum is shifted before each byte is added.
type Mode int

const (
	// Rotate combines s<<1 and s>>7 bitwise, a true 8-bit left rotate.
	Rotate Mode = iota
	// LogicalOr combines s<<1 and s>>7 with a logical or, so the shifted value
	// collapses to 1 for any non-zero sum and the result depends only on the
	// last byte. Older grbl flash images use this form.
	LogicalOr
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case Rotate:
		return "rotate"
	case LogicalOr:
		return "logical-or"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a configuration name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "rotate":
		return Rotate, nil
	case "logical-or":
		return LogicalOr, nil
	default:
		return 0, fmt.Errorf("unknown checksum mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != LogicalOr && m != Rotate {
		return nil, fmt.Errorf("unknown checksum mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Update folds b into the running checksum sum. Addition wraps at 8 bits.
func (m Mode) Update(sum, b byte) byte {
	return m.shift(sum) + b
}

// Sum returns the checksum of data starting from zero.
func (m Mode) Sum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum = m.Update(sum, b)
	}
	return sum
}

func (m Mode) shift(sum byte) byte {
	if m == LogicalOr {
		if sum<<1 != 0 || sum>>7 != 0 {
			return 1
		}
		return 0
	}
	return sum<<1 | sum>>7
}
