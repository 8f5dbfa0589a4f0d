package bus

import (
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/machine"
)

// family returns the controller whose register layout is used for c.
func family(c cart.MBC) cart.MBC {
	switch c {
	case cart.HuC1, cart.MMM01:
		return cart.MBC1
	case cart.MBC6, cart.MBC7, cart.HuC3:
		return cart.MBC5
	}
	return c
}

// writeMBC handles a write to 0x0000-0x7FFF.
func (b *Bus) writeMBC(addr uint16, value byte) {
	r := &b.m.MBC

	switch family(b.cart.MBC) {
	case cart.MBC1:
		switch addr >> 13 {
		case 0:
			r.EnableRAM = boolReg(value&0x0F == 0x0A)
		case 1:
			// lower 5 bits (0 maps to 1)
			v := uint32(value & 0x1F)
			if v == 0 {
				v = 1
			}
			r.ROMBank = v
		case 2:
			// RAM bank in mode 1 or the high ROM bits in mode 0. The register
			// is kept for both and interpreted by UpdateMap()
			r.RAMBank = uint32(value & 0x03)
		case 3:
			r.BankMode = uint32(value & 0x01)
		}

	case cart.MBC2:
		if addr >= 0x4000 {
			return
		}
		// address bit 8 selects between the two registers
		if addr&0x0100 == 0 {
			r.EnableRAM = boolReg(value&0x0F == 0x0A)
		} else {
			v := uint32(value & 0x0F)
			if v == 0 {
				v = 1
			}
			r.ROMBank = v
		}

	case cart.MBC3:
		switch addr >> 13 {
		case 0:
			r.EnableRAM = boolReg(value&0x0F == 0x0A)
		case 1:
			v := uint32(value & 0x7F)
			if v == 0 {
				v = 1
			}
			r.ROMBank = v
		case 2:
			// 0x00-0x03 select RAM, 0x08-0x0C select a clock register
			b.m.RTC.Select(value)
			if value <= 0x03 {
				r.RAMBank = uint32(value)
			}
		case 3:
			if b.cart.HasRTC {
				b.m.RTC.WriteLatch(value)
			}
		}

	case cart.MBC5:
		switch {
		case addr < 0x2000:
			r.EnableRAM = boolReg(value&0x0F == 0x0A)
		case addr < 0x3000:
			r.ROMBank = r.ROMBank&0x100 | uint32(value)
		case addr < 0x4000:
			r.ROMBank = r.ROMBank&0xFF | uint32(value&0x01)<<8
		case addr < 0x6000:
			if b.cart.HasRumble {
				// bit 3 drives the rumble motor
				r.RAMBank = uint32(value & 0x07)
			} else {
				r.RAMBank = uint32(value & 0x0F)
			}
		}
	}
}

func boolReg(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

// UpdateMap recomputes the visible banks from the controller registers and
// the bank select I/O registers. It must be called whenever those change
// other than through Write(), for example after a save-state is loaded.
func (b *Bus) UpdateMap() {
	r := b.m.MBC
	romMask := b.rom.ROMSize() - 1

	var mp Map
	switch family(b.cart.MBC) {
	case cart.MBC1:
		mp.ROM = int(r.ROMBank&0x1F | (r.RAMBank&0x03)<<5)
		if r.BankMode != 0 {
			mp.ROM0 = int(r.RAMBank&0x03) << 5
			mp.RAM = int(r.RAMBank & 0x03)
		}
	case cart.MBC2, cart.MBC3, cart.MBC5:
		mp.ROM = int(r.ROMBank)
		mp.RAM = int(r.RAMBank)
	default:
		mp.ROM = 1
	}
	mp.ROM &= romMask
	mp.ROM0 &= romMask

	if b.sram != nil && b.sram.Len() > 0 {
		mp.RAM &= b.sram.Len() - 1
	} else {
		mp.RAM = 0
	}

	mp.WRAM = 1
	if b.m.CGB() {
		if w := int(b.m.IO(machine.RegSVBK) & 0x07); w != 0 {
			mp.WRAM = w
		}
		mp.VRAM = int(b.m.IO(machine.RegVBK) & 0x01)
	}

	b.mapped = mp
}
