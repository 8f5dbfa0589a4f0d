// Package lcd is the timing side of the video controller. It keeps the scan
// line counter and the STAT mode in step with the cycles executed by the
// interpreter, raises the video interrupts and keeps the palette colors in
// sync with palette memory. Drawing pixels is left to the renderer.
//
// Cycle counts are in units of 2^21 Hz; one scan line is 228 units and a
// frame is 154 lines.
package lcd

import (
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/machine"
)

// Timing constants.
const (
	LineCycles   = 228
	VisibleLines = 144
	TotalLines   = 154
	FrameCycles  = LineCycles * TotalLines

	// mode 2 and mode 3 lengths; mode 0 takes the rest of the line
	oamCycles      = 40
	transferCycles = 86
)

// STAT bits.
const (
	statCoincidence = 1 << 2
	statHBlankInt   = 1 << 3
	statVBlankInt   = 1 << 4
	statOAMInt      = 1 << 5
	statLYCInt      = 1 << 6
)

// interrupt bits in IF
const (
	intVBlank = 0x01
	intSTAT   = 0x02
)

// Controller advances the video timing of a machine.
type Controller struct {
	m *machine.State

	rendering bool
	frames    int

	// titles that need the window drawn one line lower
	WindowOffsetHack bool

	// OnFrame is called at the end of every visible frame while rendering is
	// enabled.
	OnFrame func()

	palette  Palette
	colorize byte
	BG       [8][4]RGBA
	OBJ      [8][4]RGBA
}

// New creates a controller for the machine. Rendering is enabled.
func New(m *machine.State) *Controller {
	c := &Controller{
		m:         m,
		rendering: true,
	}
	c.RebuildPalette()
	return c
}

// Cycles returns the cycles left in the current scan line.
func (c *Controller) Cycles() int {
	if c.m.LCD.Cycles <= 0 {
		return LineCycles
	}
	return int(c.m.LCD.Cycles)
}

// LY returns the current scan line.
func (c *Controller) LY() int {
	return int(c.m.IO(machine.RegLY))
}

// LCDC returns the LCD control register.
func (c *Controller) LCDC() byte {
	return c.m.IO(machine.RegLCDC)
}

// SetRendering sets whether frames are being drawn.
func (c *Controller) SetRendering(on bool) {
	c.rendering = on
}

// Rendering returns the value set by SetRendering.
func (c *Controller) Rendering() bool {
	return c.rendering
}

// Frames returns the number of completed frames.
func (c *Controller) Frames() int {
	return c.frames
}

// VBlank is the end of visible frame hook.
func (c *Controller) VBlank() {
	c.frames++
	if c.rendering && c.OnFrame != nil {
		c.OnFrame()
	}
}

func (c *Controller) request(bits byte) {
	c.m.SetIO(machine.RegIF, c.m.IO(machine.RegIF)|bits)
}

// Advance moves the video timing forward by a number of cycles.
func (c *Controller) Advance(cycles int) {
	if c.LCDC()&machine.LCDCEnable == 0 {
		// the display restarts from the top when it is switched on again
		c.m.SetIO(machine.RegLY, 0)
		c.m.LCD.Cycles = LineCycles
		c.setMode(0)
		return
	}
	if c.m.LCD.Cycles <= 0 {
		c.m.LCD.Cycles = LineCycles
	}

	c.m.LCD.Cycles -= int32(cycles)
	for c.m.LCD.Cycles <= 0 {
		c.m.LCD.Cycles += LineCycles
		c.nextLine()
	}
	c.updateMode()
}

func (c *Controller) nextLine() {
	ly := c.m.IO(machine.RegLY) + 1
	if ly >= TotalLines {
		ly = 0
	}
	c.m.SetIO(machine.RegLY, ly)

	if ly == VisibleLines {
		c.setMode(1)
		c.request(intVBlank)
		if c.m.IO(machine.RegSTAT)&statVBlankInt != 0 {
			c.request(intSTAT)
		}
	}
	c.updateLYC()
}

func (c *Controller) updateMode() {
	if c.LY() >= VisibleLines {
		c.setMode(1)
		return
	}
	dot := LineCycles - int(c.m.LCD.Cycles)
	switch {
	case dot < oamCycles:
		c.setMode(2)
	case dot < oamCycles+transferCycles:
		c.setMode(3)
	default:
		c.setMode(0)
	}
}

func (c *Controller) setMode(mode byte) {
	stat := c.m.IO(machine.RegSTAT)
	if stat&0x03 == mode {
		return
	}
	stat = stat&^0x03 | mode
	c.m.SetIO(machine.RegSTAT, stat)
	switch mode {
	case 0:
		if stat&statHBlankInt != 0 {
			c.request(intSTAT)
		}
	case 2:
		if stat&statOAMInt != 0 {
			c.request(intSTAT)
		}
	}
}

func (c *Controller) updateLYC() {
	stat := c.m.IO(machine.RegSTAT)
	if c.m.IO(machine.RegLY) == c.m.IO(machine.RegLYC) {
		c.m.SetIO(machine.RegSTAT, stat|statCoincidence)
		if stat&statLYCInt != 0 {
			c.request(intSTAT)
		}
	} else {
		c.m.SetIO(machine.RegSTAT, stat&^statCoincidence)
	}
}
