package lcd

import (
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/machine"
)

// RGBA is a display color.
type RGBA struct {
	R, G, B, A byte
}

// Palette is a host palette preset used for legacy cartridges.
type Palette int

// List of valid Palette values.
const (
	PaletteGreen Palette = iota
	PaletteGrey
	PalettePocket
	PaletteColorize // preview of the palette the color boot ROM would choose
	NumPalettes
)

func (p Palette) String() string {
	switch p {
	case PaletteGreen:
		return "green"
	case PaletteGrey:
		return "grey"
	case PalettePocket:
		return "pocket"
	case PaletteColorize:
		return "colorize"
	}
	return "unknown"
}

// four shades per preset, lightest first
var presets = [...][4]RGBA{
	PaletteGreen:  {{0x9B, 0xBC, 0x0F, 0xFF}, {0x8B, 0xAC, 0x0F, 0xFF}, {0x30, 0x62, 0x30, 0xFF}, {0x0F, 0x38, 0x0F, 0xFF}},
	PaletteGrey:   {{0xFF, 0xFF, 0xFF, 0xFF}, {0xAA, 0xAA, 0xAA, 0xFF}, {0x55, 0x55, 0x55, 0xFF}, {0x00, 0x00, 0x00, 0xFF}},
	PalettePocket: {{0xC4, 0xCF, 0xA1, 0xFF}, {0x8B, 0x95, 0x6D, 0xFF}, {0x4D, 0x53, 0x3C, 0xFF}, {0x1F, 0x1F, 0x1F, 0xFF}},
}

// Colorize preview shades. The color boot ROM has a separate palette per
// palette ID; the debug view folds every ID onto one of these sets, so
// different colorization keys often look the same.
var colorizeShades = [...][4]RGBA{
	{{0xFF, 0xFF, 0xFF, 0xFF}, {0x7B, 0xFF, 0x31, 0xFF}, {0x00, 0x63, 0xC5, 0xFF}, {0x00, 0x00, 0x00, 0xFF}},
	{{0xFF, 0xFF, 0xFF, 0xFF}, {0xFF, 0x84, 0x84, 0xFF}, {0x94, 0x3A, 0x3A, 0xFF}, {0x00, 0x00, 0x00, 0xFF}},
	{{0xFF, 0xFF, 0xFF, 0xFF}, {0xFF, 0xAD, 0x63, 0xFF}, {0x84, 0x31, 0x00, 0xFF}, {0x00, 0x00, 0x00, 0xFF}},
	{{0xFF, 0xFF, 0xA5, 0xFF}, {0xFF, 0x94, 0x94, 0xFF}, {0x94, 0x94, 0xFF, 0xFF}, {0x00, 0x00, 0x00, 0xFF}},
}

// SetPalette selects the host palette preset and rebuilds the colors.
func (c *Controller) SetPalette(p Palette, colorize byte) {
	c.palette = p
	c.colorize = colorize
	c.RebuildPalette()
}

// Palette returns the host palette preset.
func (c *Controller) Palette() Palette {
	return c.palette
}

// decodeRGB555 converts little-endian 15-bit color to 8-bit per channel (simple scale).
func decodeRGB555(lo, hi byte) RGBA {
	v := uint16(lo) | (uint16(hi) << 8)
	r5 := byte(v & 0x1F)
	g5 := byte((v >> 5) & 0x1F)
	b5 := byte((v >> 10) & 0x1F)
	return RGBA{R: r5<<3 | r5>>2, G: g5<<3 | g5>>2, B: b5<<3 | b5>>2, A: 0xFF}
}

func (c *Controller) shades() [4]RGBA {
	if c.palette == PaletteColorize {
		return colorizeShades[int(c.colorize&0x1F)%len(colorizeShades)]
	}
	if c.palette >= 0 && int(c.palette) < len(presets) {
		return presets[c.palette]
	}
	return presets[PaletteGreen]
}

func mapShades(reg byte, shades [4]RGBA) [4]RGBA {
	var out [4]RGBA
	for i := range out {
		out[i] = shades[reg>>(i*2)&0x03]
	}
	return out
}

// RebuildPalette recomputes the display colors from palette memory on color
// hardware, or from BGP/OBP0/OBP1 and the host palette otherwise.
func (c *Controller) RebuildPalette() {
	if c.m.CGB() {
		pal := &c.m.LCD.Pal
		for p := 0; p < 8; p++ {
			for i := 0; i < 4; i++ {
				off := p*8 + i*2
				c.BG[p][i] = decodeRGB555(pal[off], pal[off+1])
				c.OBJ[p][i] = decodeRGB555(pal[64+off], pal[64+off+1])
			}
		}
		return
	}

	shades := c.shades()
	c.BG = [8][4]RGBA{}
	c.OBJ = [8][4]RGBA{}
	c.BG[0] = mapShades(c.m.IO(machine.RegBGP), shades)
	c.OBJ[0] = mapShades(c.m.IO(machine.RegOBP0), shades)
	c.OBJ[1] = mapShades(c.m.IO(machine.RegOBP1), shades)
}
