// Package cart classifies a cartridge from its header.
//
// Parse reads the fixed header fields once at load time and produces an
// immutable Cartridge record. The memory-controller family and the feature
// flags are a pure function of the type byte at 0x0147. ROM size codes outside
// the known set reject the cartridge while unknown RAM size codes fall back to
// a single page with a warning.
package cart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/fault"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/logger"
)

// Sentinel errors. They are always returned wrapped in a *fault.Error.
var (
	ErrShortHeader    = errors.New("ROM too small to contain header")
	ErrInvalidROMSize = errors.New("invalid ROM size")
	ErrInvalidRAMSize = errors.New("invalid RAM size")
)

// Page sizes.
const (
	ROMBankSize = 0x4000
	RAMBankSize = 0x2000
)

// HWType is the hardware family a cartridge asks for.
type HWType int

// List of valid HWType values.
const (
	DMG HWType = iota // legacy
	CGB               // color capable
	SGB               // legacy with color features through an adapter
)

func (t HWType) String() string {
	switch t {
	case DMG:
		return "DMG"
	case CGB:
		return "CGB"
	case SGB:
		return "SGB"
	}
	return "???"
}

// MBC is the memory-controller family.
type MBC int

// List of valid MBC values.
const (
	MBCNone MBC = iota
	MBC1
	MBC2
	MBC3
	MBC5
	MBC6
	MBC7
	HuC1
	HuC3
	MMM01
)

var mbcNames = [...]string{"MBC_NONE", "MBC_MBC1", "MBC_MBC2", "MBC_MBC3", "MBC_MBC5",
	"MBC_MBC6", "MBC_MBC7", "MBC_HUC1", "MBC_HUC3", "MBC_MMM01"}

func (m MBC) String() string {
	if m >= 0 && int(m) < len(mbcNames) {
		return mbcNames[m]
	}
	return "INVALID"
}

// Exotic reports whether the family is only emulated with the banking of its
// nearest common relative.
func (m MBC) Exotic() bool {
	switch m {
	case MBC6, MBC7, HuC3, MMM01:
		return true
	}
	return false
}

// Cartridge is the immutable-after-load classification of a cartridge.
type Cartridge struct {
	Header *Header

	Title    [16]byte
	HW       HWType
	MBC      MBC
	Type     byte
	ROMSize  int // 16 KiB pages
	RAMSize  int // 8 KiB pages
	Checksum uint16

	HasBattery bool
	HasRTC     bool
	HasRumble  bool
	HasSensor  bool

	// Colorize is the palette-info byte the color boot ROM would pick for a
	// cartridge that is not color capable. Zero for color capable cartridges.
	Colorize byte

	// WindowOffsetHack is needed by a couple of titles that rely on a window
	// position quirk.
	WindowOffsetHack bool
}

// Name returns the title up to the first NUL.
func (c *Cartridge) Name() string {
	if i := strings.IndexByte(string(c.Title[:]), 0); i >= 0 {
		return string(c.Title[:i])
	}
	return string(c.Title[:])
}

func (c *Cartridge) String() string {
	return fmt.Sprintf("name='%s', hw=%s, mbc=%s, romsize=%dK, ramsize=%dK, colorize=%d",
		c.Name(), c.HW, c.MBC, c.ROMSize*16, c.RAMSize*8, c.Colorize)
}

func hasType(t byte, set ...byte) bool {
	for _, s := range set {
		if t == s {
			return true
		}
	}
	return false
}

// family picks the controller from the type byte. Ranges are checked in
// ascending order and the first match wins.
func family(t byte) MBC {
	switch {
	case t >= 1 && t <= 3:
		return MBC1
	case t >= 5 && t <= 6:
		return MBC2
	case t >= 11 && t <= 13:
		return MMM01
	case t >= 15 && t <= 19:
		return MBC3
	case t >= 25 && t <= 30:
		return MBC5
	case t == 32:
		return MBC6
	case t == 34:
		return MBC7
	case t == 254:
		return HuC3
	case t == 255:
		return HuC1
	}
	return MBCNone
}

func hwType(header []byte) HWType {
	switch {
	case header[offCGBFlag] == 0x80 || header[offCGBFlag] == 0xC0:
		return CGB
	case header[offSGBFlag] == 0x03:
		return SGB
	}
	return DMG
}

// Parse classifies a cartridge from the first HeaderSize bytes of its image.
func Parse(header []byte) (*Cartridge, error) {
	if len(header) < HeaderSize {
		return nil, fault.Wrap(fault.Validation, "cart", fmt.Errorf("%w: %d bytes", ErrShortHeader, len(header)))
	}

	h, err := ParseHeader(header)
	if err != nil {
		return nil, err
	}

	t := h.CartType
	c := &Cartridge{
		Header:     h,
		Title:      h.RawTitle,
		HW:         hwType(header),
		MBC:        family(t),
		Type:       t,
		Checksum:   uint16(header[offChecksum]) | uint16(header[offChecksum+1])<<8,
		HasBattery: hasType(t, 3, 6, 9, 13, 15, 16, 19, 27, 30, 255),
		HasRTC:     hasType(t, 15, 16),
		HasRumble:  hasType(t, 28, 29, 30),
		HasSensor:  t == 34,
	}

	var ok bool
	if c.ROMSize, ok = ROMPages(h.ROMSizeCode); !ok {
		logger.Logf(logger.Allow, "cart", "Invalid ROM size: %d", h.ROMSizeCode)
		return nil, fault.Wrap(fault.Validation, "cart", fmt.Errorf("%w: %d", ErrInvalidROMSize, h.ROMSizeCode))
	}
	if c.RAMSize, ok = RAMPages(h.RAMSizeCode); !ok {
		logger.Logf(logger.Allow, "cart", "Invalid RAM size: %d", h.RAMSizeCode)
		c.RAMSize = 1
	}

	if c.HW != CGB {
		c.Colorize = Colorize(header)
	}

	name := c.Name()
	c.WindowOffsetHack = name == "SIREN GB2 " || name == "DONKEY KONG"

	return c, nil
}
