package state

import (
	"encoding/binary"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/machine"
)

// Version is the current save-state format version.
const Version = 0x107

// versionTag is the tag of the version field.
const versionTag = "GbSs"

// field is one named register in the save-state header. The value is
// addressed through a pointer and its width is that of the pointed-to type.
type field struct {
	tag string
	ptr any
}

// Width returns the number of bytes of the register.
func (f field) width() int {
	switch f.ptr.(type) {
	case *uint8:
		return 1
	case *uint16:
		return 2
	}
	return 4
}

func (f field) get() uint32 {
	switch p := f.ptr.(type) {
	case *uint8:
		return uint32(*p)
	case *uint16:
		return uint32(*p)
	case *uint32:
		return *p
	case *int32:
		return uint32(*p)
	}
	return 0
}

func (f field) set(v uint32) {
	switch p := f.ptr.(type) {
	case *uint8:
		*p = uint8(v)
	case *uint16:
		*p = uint16(v)
	case *uint32:
		*p = v
	case *int32:
		*p = int32(v)
	}
}

// schema returns the header fields in file order. The order and the tags
// must never change; new fields are added at the end.
func schema(m *machine.State, ver *uint32) []field {
	s := &m.Sound
	return []field{
		{versionTag, ver},

		{"PC  ", &m.CPU.PC},
		{"SP  ", &m.CPU.SP},
		{"BC  ", &m.CPU.BC},
		{"DE  ", &m.CPU.DE},
		{"HL  ", &m.CPU.HL},
		{"AF  ", &m.CPU.AF},

		{"IME ", &m.CPU.IME},
		{"ima ", &m.CPU.IMA},
		{"spd ", &m.CPU.DoubleSpeed},
		{"halt", &m.CPU.Halted},
		{"div ", &m.CPU.Div},
		{"tim ", &m.CPU.Timer},
		{"lcdc", &m.LCD.Cycles},
		{"snd ", &s.Cycles},

		{"ints", &m.HW.ILines},
		{"pad ", &m.HW.Pad},
		{"hdma", &m.HW.HDMA},
		{"seri", &m.HW.Serial},

		{"mbcm", &m.MBC.BankMode},
		{"romb", &m.MBC.ROMBank},
		{"ramb", &m.MBC.RAMBank},
		{"enab", &m.MBC.EnableRAM},

		{"rtcR", &m.RTC.Sel},
		{"rtcL", &m.RTC.Latch},
		{"rtcF", &m.RTC.Flags},
		{"rtcd", &m.RTC.D},
		{"rtch", &m.RTC.H},
		{"rtcm", &m.RTC.M},
		{"rtcs", &m.RTC.S},
		{"rtct", &m.RTC.Ticks},
		{"rtR8", &m.RTC.Regs[0]},
		{"rtR9", &m.RTC.Regs[1]},
		{"rtRA", &m.RTC.Regs[2]},
		{"rtRB", &m.RTC.Regs[3]},
		{"rtRC", &m.RTC.Regs[4]},

		{"S1on", &s.Ch[0].On},
		{"S1p ", &s.Ch[0].Pos},
		{"S1c ", &s.Ch[0].Cnt},
		{"S1ec", &s.Ch[0].EnCnt},
		{"S1sc", &s.Ch[0].SwCnt},
		{"S1sf", &s.Ch[0].SwFreq},

		{"S2on", &s.Ch[1].On},
		{"S2p ", &s.Ch[1].Pos},
		{"S2c ", &s.Ch[1].Cnt},
		{"S2ec", &s.Ch[1].EnCnt},

		{"S3on", &s.Ch[2].On},
		{"S3p ", &s.Ch[2].Pos},
		{"S3c ", &s.Ch[2].Cnt},

		{"S4on", &s.Ch[3].On},
		{"S4p ", &s.Ch[3].Pos},
		{"S4c ", &s.Ch[3].Cnt},
		{"S4ec", &s.Ch[3].EnCnt},
	}
}

// Header layout.
const (
	BlockSize = 4096

	waveOffset   = 0x0CF0
	ioregsOffset = 0x0D00
	palOffset    = 0x0E00
	oamOffset    = 0x0F00

	// the tag list must not run into the wave table
	maxEntries = waveOffset / 8
)

// Header is the first block of a save-state file.
type Header [BlockSize]byte

// put stores the i'th (tag, value) pair.
func (h *Header) put(i int, tag string, v uint32) {
	copy(h[i*8:i*8+4], tag)
	binary.LittleEndian.PutUint32(h[i*8+4:], v)
}

// Lookup returns the value stored for a tag. The search stops at the first
// zero tag.
func (h *Header) Lookup(tag string) (uint32, bool) {
	for i := 0; i < maxEntries; i++ {
		t := h[i*8 : i*8+4]
		if binary.LittleEndian.Uint32(t) == 0 {
			break
		}
		if string(t) == tag {
			return binary.LittleEndian.Uint32(h[i*8+4:]), true
		}
	}
	return 0, false
}

// Entry is a register as listed by Fields().
type Entry struct {
	Tag   string
	Width int
	Value uint32
}

// Fields lists every register of the save-state schema with its current
// value in m.
func Fields(m *machine.State) []Entry {
	var ver uint32 = Version
	s := schema(m, &ver)
	out := make([]Entry, 0, len(s))
	for _, f := range s {
		out = append(out, Entry{Tag: f.tag, Width: f.width(), Value: f.get()})
	}
	return out
}
