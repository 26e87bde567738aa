// Command flashee inspects and edits emulated EEPROM flash images.
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/ulikunitz/xz"

	"github.com/MikhailWahib/flasheeprom"
	"github.com/MikhailWahib/flasheeprom/internal/logging"
)

const version = "0.1.0"

// errChecksum is returned by read when the stored checksum does not match.
var errChecksum = errors.New("checksum mismatch")

// Globals holds flags shared by every command.
type Globals struct {
	Image     string `short:"i" help:"Flash image file" type:"path" default:"eeprom.bin"`
	Config    string `short:"c" help:"YAML config describing the page" type:"existingfile"`
	LogLevel  string `name:"log-level" help:"Log level" enum:"debug,info,warn,error" default:"warn"`
	LogFormat string `name:"log-format" help:"Log format" enum:"text,json" default:"text"`
}

// CLI defines the command-line interface for flashee.
type CLI struct {
	Globals

	Format  FormatCmd  `cmd:"" help:"Create an erased flash image"`
	Info    InfoCmd    `cmd:"" help:"Show image layout and state"`
	Get     GetCmd     `cmd:"" help:"Read one byte"`
	Put     PutCmd     `cmd:"" help:"Write one byte and flush"`
	Read    ReadCmd    `cmd:"" help:"Read a checksummed record"`
	Write   WriteCmd   `cmd:"" help:"Write a checksummed record"`
	Stamp   StampCmd   `cmd:"" help:"Write the settings version marker"`
	Dump    DumpCmd    `cmd:"" help:"Dump the page contents"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

func (g *Globals) config() (*flasheeprom.Config, error) {
	if g.Config == "" {
		return flasheeprom.DefaultConfig(), nil
	}
	return flasheeprom.LoadConfig(g.Config)
}

func (g *Globals) logger() *slog.Logger {
	// Both values are restricted by kong enums.
	level, _ := logging.ParseLevel(g.LogLevel)
	format, _ := logging.ParseFormat(g.LogFormat)
	return logging.New(os.Stderr, level, format)
}

// open loads the image and builds a store over it. The caller closes the image.
func (g *Globals) open() (*flasheeprom.Image, *flasheeprom.Store, *flasheeprom.Config, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, nil, nil, err
	}
	img, err := flasheeprom.OpenImage(g.Image, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := flasheeprom.Open(img, cfg, g.logger())
	if err != nil {
		_ = img.Close()
		return nil, nil, nil, err
	}
	return img, store, cfg, nil
}

// FormatCmd creates a new erased image.
type FormatCmd struct {
	Force bool `short:"f" help:"Overwrite an existing image"`
	Stamp bool `help:"Write the version marker after formatting"`
}

func (c *FormatCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	if _, err := os.Stat(g.Image); err == nil && !c.Force {
		return fmt.Errorf("image %s already exists (use --force)", g.Image)
	}

	img, err := flasheeprom.CreateImage(g.Image, cfg)
	if err != nil {
		return err
	}
	defer img.Close()

	if c.Stamp {
		store, err := flasheeprom.Open(img, cfg, g.logger())
		if err != nil {
			return err
		}
		if err := store.StampVersion(); err != nil {
			return err
		}
	}

	fmt.Printf("Formatted %s (%s at %#08x)\n", g.Image, humanize.IBytes(uint64(cfg.PageSize)), cfg.StartAddress)
	return nil
}

// InfoCmd prints the layout and state of an image.
type InfoCmd struct{}

func (c *InfoCmd) Run(g *Globals) error {
	img, store, cfg, err := g.open()
	if err != nil {
		return err
	}
	defer img.Close()

	raw := img.Bytes()
	erased := 0
	for i := 0; i+1 < len(raw); i += 2 {
		if raw[i] == 0xFF && raw[i+1] == 0xFF {
			erased++
		}
	}
	digest := img.Digest()

	fmt.Printf("Image: %s\n", g.Image)
	fmt.Printf("  Page size:  %s\n", humanize.IBytes(uint64(cfg.PageSize)))
	fmt.Printf("  Start:      %#08x\n", cfg.StartAddress)
	fmt.Printf("  Version:    %d (expected %d)\n", raw[0], cfg.Version)
	fmt.Printf("  Configured: %t\n", store.Configured())
	fmt.Printf("  Checksum:   %s\n", cfg.Checksum)
	fmt.Printf("  Erased:     %d of %d half-words\n", erased, len(raw)/2)
	fmt.Printf("  BLAKE3:     %s\n", hex.EncodeToString(digest[:]))
	return nil
}

// GetCmd prints a single mirror byte.
type GetCmd struct {
	Addr string `arg:"" help:"Address (decimal or 0x hex)"`
}

func (c *GetCmd) Run(g *Globals) error {
	addr, err := parseNumber(c.Addr)
	if err != nil {
		return err
	}
	img, store, _, err := g.open()
	if err != nil {
		return err
	}
	defer img.Close()

	v, err := store.GetByte(addr)
	if err != nil {
		return err
	}
	fmt.Printf("%#02x\n", v)
	return nil
}

// PutCmd writes a single byte.
type PutCmd struct {
	Addr    string `arg:"" help:"Address (decimal or 0x hex)"`
	Value   string `arg:"" help:"Byte value (decimal or 0x hex)"`
	NoFlush bool   `name:"no-flush" help:"Only update the mirror; nothing is persisted"`
}

func (c *PutCmd) Run(g *Globals) error {
	addr, err := parseNumber(c.Addr)
	if err != nil {
		return err
	}
	value, err := parseNumber(c.Value)
	if err != nil {
		return err
	}
	if value > 0xFF {
		return fmt.Errorf("value %d does not fit in a byte", value)
	}

	img, store, _, err := g.open()
	if err != nil {
		return err
	}
	defer img.Close()

	if err := store.PutByte(addr, byte(value)); err != nil {
		return err
	}
	if c.NoFlush {
		return nil
	}
	return store.Flush()
}

// ReadCmd reads and verifies a checksummed record.
type ReadCmd struct {
	Addr   string `arg:"" help:"Record address (decimal or 0x hex)"`
	Length int    `arg:"" help:"Record length in bytes, excluding the checksum"`
}

func (c *ReadCmd) Run(g *Globals) error {
	addr, err := parseNumber(c.Addr)
	if err != nil {
		return err
	}
	if c.Length < 0 {
		return fmt.Errorf("negative length %d", c.Length)
	}
	img, store, _, err := g.open()
	if err != nil {
		return err
	}
	defer img.Close()

	buf := make([]byte, c.Length)
	ok, err := store.ReadWithChecksum(buf, addr)
	if err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(buf))
	if !ok {
		return errChecksum
	}
	return nil
}

// WriteCmd writes a checksummed record and flushes.
type WriteCmd struct {
	Addr string `arg:"" help:"Record address (decimal or 0x hex)"`
	Data string `arg:"" help:"Record bytes as hex"`
}

func (c *WriteCmd) Run(g *Globals) error {
	addr, err := parseNumber(c.Addr)
	if err != nil {
		return err
	}
	data, err := hex.DecodeString(c.Data)
	if err != nil {
		return fmt.Errorf("invalid record data: %w", err)
	}
	img, store, _, err := g.open()
	if err != nil {
		return err
	}
	defer img.Close()

	return store.WriteWithChecksum(addr, data)
}

// StampCmd writes the configured version marker.
type StampCmd struct{}

func (c *StampCmd) Run(g *Globals) error {
	img, store, _, err := g.open()
	if err != nil {
		return err
	}
	defer img.Close()

	return store.StampVersion()
}

// DumpCmd writes the mirror as a hex dump or to a raw file.
type DumpCmd struct {
	Output string `short:"o" help:"Write raw bytes to this file instead of a hex dump" type:"path"`
	XZ     bool   `name:"xz" help:"Compress the raw output with xz"`
}

func (c *DumpCmd) Run(g *Globals) error {
	img, store, _, err := g.open()
	if err != nil {
		return err
	}
	defer img.Close()

	data := store.Snapshot()
	if c.Output == "" {
		fmt.Print(hex.Dump(data))
		return nil
	}

	f, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("failed to create dump file: %w", err)
	}
	defer f.Close()

	return writeDump(f, data, c.XZ)
}

func writeDump(w io.Writer, data []byte, compress bool) error {
	if !compress {
		_, err := w.Write(data)
		return err
	}
	xw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := xw.Write(data); err != nil {
		_ = xw.Close()
		return err
	}
	return xw.Close()
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("flashee %s\n", version)
	return nil
}

// parseNumber accepts decimal, 0x hex, 0o octal and 0b binary.
func parseNumber(s string) (int, error) {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return int(n), nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("flashee"),
		kong.Description("Inspect and edit emulated EEPROM flash images"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
