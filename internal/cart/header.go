package cart

import (
	"encoding/binary"
	"errors"
	"io"
	"strings"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/fault"
)

// HeaderSize is the number of bytes read from the start of a cartridge file
// to classify it.
const HeaderSize = 0x0200

// ReadHeader reads the first HeaderSize bytes of a cartridge image. A shorter
// image is returned as is, so that Parse reports it.
func ReadHeader(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fault.Wrap(fault.Storage, "cart", err)
	}
	return header[:n], nil
}

const (
	headerEnd = 0x014F

	offTitle    = 0x0134
	offCGBFlag  = 0x0143
	offSGBFlag  = 0x0146
	offType     = 0x0147
	offROMSize  = 0x0148
	offRAMSize  = 0x0149
	offChecksum = 0x014E
)

var nintendoLogo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E, 0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// Header is the raw cartridge header at 0x0100-0x014F with named fields.
type Header struct {
	RawTitle       [16]byte // 0x0134-0x0143, NUL padded
	CGBFlag        byte     // 0x0143
	NewLicensee    string   // 0x0144-0x0145 (ASCII), if old==0x33
	SGBFlag        byte     // 0x0146
	CartType       byte     // 0x0147
	ROMSizeCode    byte     // 0x0148
	RAMSizeCode    byte     // 0x0149
	Destination    byte     // 0x014A
	OldLicensee    byte     // 0x014B
	ROMVersion     byte     // 0x014C
	HeaderChecksum byte     // 0x014D
	GlobalChecksum uint16   // 0x014E-0x014F
	LogoOK         bool
}

// Title returns the title with the NUL padding removed.
func (h *Header) Title() string {
	return strings.TrimRight(string(h.RawTitle[:]), "\x00")
}

// TypeString describes the cartridge type byte.
func (h *Header) TypeString() string {
	return cartTypeString(h.CartType)
}

// ParseHeader decodes the named fields of a header. It does not validate the
// size codes; see Parse for that.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < headerEnd+1 {
		return nil, fault.Wrap(fault.Validation, "cart", ErrShortHeader)
	}

	h := &Header{
		CGBFlag:        rom[offCGBFlag],
		NewLicensee:    string(rom[0x0144:0x0146]),
		SGBFlag:        rom[offSGBFlag],
		CartType:       rom[offType],
		ROMSizeCode:    rom[offROMSize],
		RAMSizeCode:    rom[offRAMSize],
		Destination:    rom[0x014A],
		OldLicensee:    rom[0x014B],
		ROMVersion:     rom[0x014C],
		HeaderChecksum: rom[0x014D],
		GlobalChecksum: binary.BigEndian.Uint16(rom[offChecksum : offChecksum+2]),
		LogoOK:         true,
	}
	copy(h.RawTitle[:], rom[offTitle:offTitle+16])

	// homebrew and test ROMs often omit the logo so this is informational
	for i := range nintendoLogo {
		if rom[0x0104+i] != nintendoLogo[i] {
			h.LogoOK = false
			break
		}
	}

	return h, nil
}

// HeaderChecksumOK verifies the header checksum byte the boot ROM checks.
func HeaderChecksumOK(rom []byte) bool {
	if len(rom) < 0x014E {
		return false
	}
	var sum byte = 0
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	return sum == rom[0x014D]
}

// ROMPages resolves a ROM size code to a count of 16 KiB pages.
func ROMPages(code byte) (int, bool) {
	switch {
	case code < 9:
		return 2 << code, true
	case code >= 0x52 && code <= 0x54:
		// 72, 80 and 96 page parts are rounded up to the next power of two so
		// that bank masking stays a simple AND
		return 128, true
	}
	return 0, false
}

var ramPages = [...]int{1, 1, 1, 4, 16, 8}

// RAMPages resolves a RAM size code to a count of 8 KiB pages. Codes 0 and 1
// still get one page so that every cartridge has somewhere to put writes.
func RAMPages(code byte) (int, bool) {
	if int(code) < len(ramPages) {
		return ramPages[code], true
	}
	return 0, false
}

func cartTypeString(code byte) string {
	switch code {
	case 0x00:
		return "ROM ONLY"
	case 0x01, 0x02, 0x03:
		return "MBC1 (variants)"
	case 0x05, 0x06:
		return "MBC2 (variants)"
	case 0x08, 0x09:
		return "ROM+RAM (variants)"
	case 0x0B, 0x0C, 0x0D:
		return "MMM01 (variants)"
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return "MBC3 (variants)"
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		return "MBC5 (variants)"
	case 0x20:
		return "MBC6"
	case 0x22:
		return "MBC7+SENSOR+RUMBLE+RAM+BATTERY"
	case 0xFC:
		return "POCKET CAMERA"
	case 0xFD:
		return "BANDAI TAMA5"
	case 0xFE:
		return "HuC3"
	case 0xFF:
		return "HuC1+RAM+BATTERY"
	default:
		return "Other/unknown"
	}
}
