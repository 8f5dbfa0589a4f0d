// Package bus is the memory map seen by the instruction interpreter.
//
// Cartridge ROM is reached through the bank manager and cartridge RAM through
// the battery RAM banks. Everything else lives in the machine state. Writes
// to the ROM area program the memory bank controller.
package bus

import (
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/bank"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/logger"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/machine"
)

// Pad bits as stored in the pad mask.
const (
	PadRight  = 0x01
	PadLeft   = 0x02
	PadUp     = 0x04
	PadDown   = 0x08
	PadA      = 0x10
	PadB      = 0x20
	PadSelect = 0x40
	PadStart  = 0x80
)

// Map is the set of banks currently visible to the CPU.
type Map struct {
	ROM0 int // bank at 0x0000
	ROM  int // bank at 0x4000
	RAM  int // cartridge RAM bank at 0xA000
	WRAM int // work RAM bank at 0xD000
	VRAM int // video RAM bank at 0x8000
}

type Bus struct {
	m    *machine.State
	cart *cart.Cartridge
	rom  *bank.Manager
	sram *bank.SRAM

	mapped Map
}

// New connects the machine state to the cartridge banks. The SRAM may be nil
// for cartridges without RAM.
func New(m *machine.State, c *cart.Cartridge, rom *bank.Manager, sram *bank.SRAM) *Bus {
	if c.MBC.Exotic() {
		logger.Logf(logger.Allow, "bus", "%s is emulated with %s banking", c.MBC, family(c.MBC))
	}
	b := &Bus{
		m:    m,
		cart: c,
		rom:  rom,
		sram: sram,
	}
	b.UpdateMap()
	return b
}

// Mapped returns the visible banks.
func (b *Bus) Mapped() Map {
	return b.mapped
}

// SetPad sets the buttons currently held.
func (b *Bus) SetPad(mask byte) {
	b.m.HW.Pad = uint32(mask)
}

func (b *Bus) romByte(n int, addr uint16) byte {
	data := b.rom.Bank(n)
	if data == nil {
		return 0xFF
	}
	return data[addr&0x3FFF]
}

func (b *Bus) biosByte(addr uint16) (byte, bool) {
	if !b.m.BIOSMapped() {
		return 0, false
	}
	bios := b.m.HW.BIOS
	if int(addr) >= len(bios) {
		return 0, false
	}
	// the color boot ROM leaves the cartridge header visible
	if addr < 0x0100 || (b.m.CGB() && addr >= 0x0200 && addr < 0x0900) {
		return bios[addr], true
	}
	return 0, false
}

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if v, ok := b.biosByte(addr); ok {
			return v
		}
		return b.romByte(b.mapped.ROM0, addr)
	case addr < 0x8000:
		return b.romByte(b.mapped.ROM, addr)
	case addr < 0xA000:
		return b.m.LCD.VRAM[b.mapped.VRAM][addr-0x8000]
	case addr < 0xC000:
		return b.readExternal(addr)
	case addr < 0xD000:
		return b.m.HW.WRAM[0][addr-0xC000]
	case addr < 0xE000:
		return b.m.HW.WRAM[b.mapped.WRAM][addr-0xD000]
	case addr < 0xFE00:
		// echo of C000-DDFF
		return b.Read(addr - 0x2000)
	case addr < 0xFEA0:
		return b.m.LCD.OAM[addr-0xFE00]
	case addr < 0xFF00:
		return 0xFF
	default:
		return b.readIO(addr)
	}
}

func (b *Bus) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		b.writeMBC(addr, value)
		b.UpdateMap()
	case addr < 0xA000:
		b.m.LCD.VRAM[b.mapped.VRAM][addr-0x8000] = value
	case addr < 0xC000:
		b.writeExternal(addr, value)
	case addr < 0xD000:
		b.m.HW.WRAM[0][addr-0xC000] = value
	case addr < 0xE000:
		b.m.HW.WRAM[b.mapped.WRAM][addr-0xD000] = value
	case addr < 0xFE00:
		b.Write(addr-0x2000, value)
	case addr < 0xFEA0:
		b.m.LCD.OAM[addr-0xFE00] = value
	case addr < 0xFF00:
		// unusable
	default:
		b.writeIO(addr, value)
	}
}

func (b *Bus) ramEnabled() bool {
	// cartridges without a controller have their RAM permanently mapped
	return b.m.MBC.EnableRAM != 0 || b.cart.MBC == cart.MBCNone
}

func (b *Bus) readExternal(addr uint16) byte {
	if !b.ramEnabled() {
		return 0xFF
	}
	if b.cart.MBC == cart.MBC3 && b.m.RTC.Selected() {
		return b.m.RTC.Read()
	}
	if b.sram == nil || b.sram.Len() == 0 {
		return 0xFF
	}
	if b.cart.MBC == cart.MBC2 {
		// 512 half-bytes, mirrored across the window
		return b.sram.Banks[0][(addr-0xA000)&0x1FF] | 0xF0
	}
	return b.sram.Banks[b.mapped.RAM][addr-0xA000]
}

func (b *Bus) writeExternal(addr uint16, value byte) {
	if !b.ramEnabled() {
		return
	}
	if b.cart.MBC == cart.MBC3 && b.m.RTC.Selected() {
		b.m.RTC.Write(value)
		return
	}
	if b.sram == nil || b.sram.Len() == 0 {
		return
	}
	if b.cart.MBC == cart.MBC2 {
		b.sram.Banks[0][(addr-0xA000)&0x1FF] = value & 0x0F
		b.sram.MarkDirty(0)
		return
	}
	b.sram.Banks[b.mapped.RAM][addr-0xA000] = value
	b.sram.MarkDirty(b.mapped.RAM)
}

func (b *Bus) readIO(addr uint16) byte {
	reg := int(addr & 0xFF)
	switch {
	case reg == machine.RegP1:
		return b.joypad()
	case reg == machine.RegIF:
		return b.m.IO(reg) | 0xE0
	case reg == machine.RegTAC:
		return b.m.IO(reg) | 0xF8
	case reg >= machine.RegWave && reg < machine.RegWave+machine.WaveSize:
		return b.m.Sound.Wave[reg-machine.RegWave]
	}
	return b.m.IO(reg)
}

func (b *Bus) joypad() byte {
	sel := b.m.IO(machine.RegP1) & 0x30
	low := byte(0x0F)
	pad := byte(b.m.HW.Pad)
	if sel&0x10 == 0 {
		low &^= pad & 0x0F
	}
	if sel&0x20 == 0 {
		low &^= pad >> 4
	}
	return 0xC0 | sel | low
}

func (b *Bus) writeIO(addr uint16, value byte) {
	reg := int(addr & 0xFF)
	switch {
	case reg == machine.RegP1:
		b.m.SetIO(reg, value&0x30)
	case reg == machine.RegDIV:
		b.m.SetIO(reg, 0)
		b.m.CPU.Div = 0
	case reg == machine.RegIF:
		b.m.SetIO(reg, value&0x1F)
	case reg == machine.RegLY:
		// read only
	case reg == machine.RegDMA:
		b.m.SetIO(reg, value)
		src := uint16(value) << 8
		for i := uint16(0); i < 0xA0; i++ {
			b.m.LCD.OAM[i] = b.Read(src + i)
		}
	case reg == machine.RegBIOS:
		// the boot ROM cannot be mapped back in
		if value != 0 {
			b.m.SetIO(reg, 1)
		}
	case reg == machine.RegVBK || reg == machine.RegSVBK:
		b.m.SetIO(reg, value)
		b.UpdateMap()
	case reg >= machine.RegWave && reg < machine.RegWave+machine.WaveSize:
		b.m.Sound.Wave[reg-machine.RegWave] = value
	default:
		b.m.SetIO(reg, value)
	}
}
