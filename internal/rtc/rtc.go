// Package rtc implements the cartridge real-time clock found on some MBC3
// cartridges.
//
// The clock does not follow wall-clock time. It is advanced by the number of
// machine cycles executed, so the clock runs at emulated speed and keeps
// counting during fast-forward. Sixty frames make one second.
package rtc

import (
	"encoding/binary"
	"fmt"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/fault"
)

// CyclesPerSecond is the number of machine cycles in one clock second.
const CyclesPerSecond = 60 * 35112

// Flag bits of register 0x0C.
const (
	FlagHalt  = 0x40
	FlagCarry = 0x80
)

// First and last register select values.
const (
	RegSeconds = 0x08
	RegMinutes = 0x09
	RegHours   = 0x0A
	RegDayLow  = 0x0B
	RegDayHigh = 0x0C
)

// maximum values accepted by Set()
const (
	maxDay    = 365
	maxHour   = 24
	maxMinute = 60
	maxSecond = 60
)

// Clock is the live clock state and its latched register file. Field widths
// match the save-state encoding.
type Clock struct {
	Sel   uint32 // selected register
	Latch uint32 // last value written to the latch register
	Flags uint32
	D     uint32
	H     uint32
	M     uint32
	S     uint32
	Ticks uint32 // cycles toward the next second

	// latched copies of the clock, readable through registers 0x08 to 0x0C
	Regs [5]byte
}

func (c *Clock) String() string {
	return fmt.Sprintf("%03d %02d:%02d:%02d", c.D, c.H, c.M, c.S)
}

// Time returns the live clock.
func (c *Clock) Time() (day, hour, minute, second int) {
	return int(c.D), int(c.H), int(c.M), int(c.S)
}

func clamp(v int, hi int) uint32 {
	return uint32(min(max(v, 0), hi))
}

// Set changes the live clock. Out of range values are clamped and the tick
// accumulator is reset.
func (c *Clock) Set(day, hour, minute, second int) {
	c.D = clamp(day, maxDay)
	c.H = clamp(hour, maxHour)
	c.M = clamp(minute, maxMinute)
	c.S = clamp(second, maxSecond)
	c.Ticks = 0
}

// Advance accumulates machine cycles. Nothing happens while the clock is
// halted.
func (c *Clock) Advance(cycles int) {
	if c.Flags&FlagHalt != 0 || cycles <= 0 {
		return
	}
	c.Ticks += uint32(cycles)
	for c.Ticks >= CyclesPerSecond {
		c.Ticks -= CyclesPerSecond
		c.second()
	}
}

func (c *Clock) second() {
	c.S++
	if c.S < maxSecond {
		return
	}
	c.S = 0
	c.M++
	if c.M < maxMinute {
		return
	}
	c.M = 0
	c.H++
	if c.H < maxHour {
		return
	}
	c.H = 0
	c.D++
	if c.D < maxDay {
		return
	}
	c.D = 0
	c.Flags |= FlagCarry
}

// Seconds returns the live clock as a count of seconds.
func (c *Clock) Seconds() uint64 {
	return uint64(c.S) + uint64(c.M)*60 + uint64(c.H)*3600 + uint64(c.D)*86400
}

// Selected reports whether a clock register is mapped into external RAM.
func (c *Clock) Selected() bool {
	return c.Sel >= RegSeconds && c.Sel <= RegDayHigh
}

// Select maps register v into external RAM. Values outside 0x08 to 0x0C
// select RAM.
func (c *Clock) Select(v byte) {
	c.Sel = uint32(v)
}

// WriteLatch handles a write to the latch register. Writing zero and then one
// copies the live clock into the registers.
func (c *Clock) WriteLatch(v byte) {
	if c.Latch == 0 && v == 1 {
		c.latch()
	}
	c.Latch = uint32(v)
}

func (c *Clock) latch() {
	c.Regs[0] = byte(c.S)
	c.Regs[1] = byte(c.M)
	c.Regs[2] = byte(c.H)
	c.Regs[3] = byte(c.D)
	c.Regs[4] = byte(c.D>>8)&0x01 | byte(c.Flags)&(FlagHalt|FlagCarry)
}

// Read returns the latched value of the selected register.
func (c *Clock) Read() byte {
	if !c.Selected() {
		return 0xFF
	}
	return c.Regs[c.Sel-RegSeconds]
}

// Write sets the selected register. The live clock changes immediately.
func (c *Clock) Write(v byte) {
	switch c.Sel {
	case RegSeconds:
		c.S = uint32(v) % maxSecond
		c.Ticks = 0
	case RegMinutes:
		c.M = uint32(v) % maxMinute
	case RegHours:
		c.H = uint32(v) % maxHour
	case RegDayLow:
		c.D = c.D&0x100 | uint32(v)
	case RegDayHigh:
		c.D = c.D&0xFF | uint32(v&0x01)<<8
		c.Flags = uint32(v) & (FlagHalt | FlagCarry)
	default:
		return
	}
	c.Regs[c.Sel-RegSeconds] = v
}

// RecordSize is the size of the clock record stored after the battery RAM.
const RecordSize = 48

// Epoch is added to the clock seconds to form the absolute time field of
// the record.
const Epoch = 1893456000

// MarshalRecord encodes the clock as a battery RAM trailer. All fields are
// little-endian: s, m, h, d, flags and the five registers as uint32, then the
// absolute time as uint64.
func (c *Clock) MarshalRecord() []byte {
	b := make([]byte, RecordSize)
	for i, v := range []uint32{c.S, c.M, c.H, c.D, c.Flags} {
		binary.LittleEndian.PutUint32(b[i*4:], v)
	}
	for i, v := range c.Regs {
		binary.LittleEndian.PutUint32(b[20+i*4:], uint32(v))
	}
	binary.LittleEndian.PutUint64(b[40:], Epoch+c.Seconds())
	return b
}

// UnmarshalRecord replaces the clock with the contents of a trailer. The
// register select, latch and tick accumulator are reset. The absolute time
// field is ignored.
func (c *Clock) UnmarshalRecord(b []byte) error {
	if len(b) < RecordSize {
		return fault.New(fault.Storage, "rtc", "short clock record: %d bytes", len(b))
	}
	*c = Clock{
		S:     binary.LittleEndian.Uint32(b[0:]),
		M:     binary.LittleEndian.Uint32(b[4:]),
		H:     binary.LittleEndian.Uint32(b[8:]),
		D:     binary.LittleEndian.Uint32(b[12:]),
		Flags: binary.LittleEndian.Uint32(b[16:]),
	}
	for i := range c.Regs {
		c.Regs[i] = byte(binary.LittleEndian.Uint32(b[20+i*4:]))
	}
	return nil
}
