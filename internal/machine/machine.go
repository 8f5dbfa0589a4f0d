// Package machine is the explicit hardware state of an emulated console.
//
// Everything the interpreter, the video and sound collaborators and the
// memory controller mutate lives in one State value owned by the session.
// Field widths match the save-state encoding so that the persistence layer
// can address them directly.
package machine

import (
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/rtc"
)

// Memory sizes.
const (
	WRAMBankSize = 0x1000
	VRAMBankSize = 0x2000
	PalSize      = 128
	OAMSize      = 256
	IORegsSize   = 256
	WaveSize     = 16
)

// CPU registers and interrupt state.
type CPU struct {
	PC, SP uint16
	BC, DE uint16
	HL, AF uint16

	IME         uint32
	IMA         uint32
	DoubleSpeed uint32
	Halted      uint32
	Div         uint32
	Timer       uint32
}

// HW is the memory-mapped hardware outside of the video and sound units.
type HW struct {
	Type cart.HWType

	ILines uint32
	Pad    uint32
	HDMA   uint32
	Serial uint32

	// 0xFF00 to 0xFFFF including high RAM and the interrupt enable register
	IORegs [IORegsSize]byte

	WRAM [8][WRAMBankSize]byte

	// boot ROM image, nil when none is loaded
	BIOS []byte
}

// LCD is the video state.
type LCD struct {
	// cycles remaining in the current scan line
	Cycles int32

	VRAM [2][VRAMBankSize]byte
	Pal  [PalSize]byte
	OAM  [OAMSize]byte
}

// Channel is the running state of one sound channel.
type Channel struct {
	On     uint32
	Pos    uint32
	Cnt    uint32
	EnCnt  uint32
	SwCnt  uint32
	SwFreq uint32
}

// Sound is the audio state.
type Sound struct {
	Cycles uint32
	Wave   [WaveSize]byte
	Ch     [4]Channel
}

// MBC is the memory bank controller register file.
type MBC struct {
	BankMode  uint32
	ROMBank   uint32
	RAMBank   uint32
	EnableRAM uint32
}

// State is the complete register and memory state of the console, except
// for the cartridge banks which belong to the bank manager.
type State struct {
	CPU   CPU
	HW    HW
	LCD   LCD
	Sound Sound
	MBC   MBC
	RTC   rtc.Clock
}

// CGB reports whether the state is for color-capable hardware.
func (s *State) CGB() bool {
	return s.HW.Type == cart.CGB
}

// WRAMBanks returns the number of work RAM banks present on the hardware.
func (s *State) WRAMBanks() int {
	if s.CGB() {
		return 8
	}
	return 2
}

// VRAMBanks returns the number of video RAM banks present on the hardware.
func (s *State) VRAMBanks() int {
	if s.CGB() {
		return 2
	}
	return 1
}

// IO returns an I/O register.
func (s *State) IO(reg int) byte {
	return s.HW.IORegs[reg&0xFF]
}

// SetIO sets an I/O register.
func (s *State) SetIO(reg int, v byte) {
	s.HW.IORegs[reg&0xFF] = v
}

// BIOSMapped reports whether the boot ROM overlays the start of the
// cartridge ROM.
func (s *State) BIOSMapped() bool {
	return len(s.HW.BIOS) > 0 && s.HW.IORegs[RegBIOS] == 0
}
