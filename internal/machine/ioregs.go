package machine

// I/O register offsets from 0xFF00.
const (
	RegP1   = 0x00
	RegSB   = 0x01
	RegSC   = 0x02
	RegDIV  = 0x04
	RegTIMA = 0x05
	RegTMA  = 0x06
	RegTAC  = 0x07
	RegIF   = 0x0F
	RegNR50 = 0x24
	RegNR51 = 0x25
	RegNR52 = 0x26
	RegWave = 0x30
	RegLCDC = 0x40
	RegSTAT = 0x41
	RegSCY  = 0x42
	RegSCX  = 0x43
	RegLY   = 0x44
	RegLYC  = 0x45
	RegDMA  = 0x46
	RegBGP  = 0x47
	RegOBP0 = 0x48
	RegOBP1 = 0x49
	RegWY   = 0x4A
	RegWX   = 0x4B
	RegKEY1 = 0x4D
	RegVBK  = 0x4F
	RegBIOS = 0x50
	RegHDMA = 0x55
	RegBCPS = 0x68
	RegBCPD = 0x69
	RegOCPS = 0x6A
	RegOCPD = 0x6B
	RegSVBK = 0x70
	RegIE   = 0xFF
)

// LCDCEnable is the display enable bit of LCDC.
const LCDCEnable = 0x80

// postBoot is the state of the I/O registers after the boot ROM has run
var postBoot = []struct {
	reg int
	val byte
}{
	{RegP1, 0xCF},
	{RegTIMA, 0x00},
	{RegTMA, 0x00},
	{RegTAC, 0x00},
	{RegIF, 0xE1},
	{RegNR52, 0x80},
	{RegNR50, 0x77},
	{RegNR51, 0xF3},
	{RegLCDC, 0x91},
	{RegSCY, 0x00},
	{RegSCX, 0x00},
	{RegLYC, 0x00},
	{RegBGP, 0xFC},
	{RegOBP0, 0xFF},
	{RegOBP1, 0xFF},
	{RegWY, 0x00},
	{RegWX, 0x00},
	{RegIE, 0x00},
}

// Reset puts the state back to power-on. A hard reset also clears every RAM.
//
// When no boot ROM is loaded the CPU and I/O registers are set to the values
// the boot ROM would have left, so that execution can start at 0x0100.
func (s *State) Reset(hard bool) {
	s.CPU = CPU{}
	s.HW.ILines = 0
	s.HW.Pad = 0
	s.HW.HDMA = 0
	s.HW.Serial = 0
	s.HW.IORegs = [IORegsSize]byte{}
	s.LCD.Cycles = 0
	s.Sound = Sound{Wave: s.Sound.Wave}
	s.MBC = MBC{ROMBank: 1}
	s.RTC.Sel = 0
	s.RTC.Latch = 0

	if hard {
		s.HW.WRAM = [8][WRAMBankSize]byte{}
		s.LCD.VRAM = [2][VRAMBankSize]byte{}
		s.LCD.OAM = [OAMSize]byte{}
		s.LCD.Pal = [PalSize]byte{}
		s.Sound.Wave = [WaveSize]byte{}
	}

	if len(s.HW.BIOS) > 0 {
		return
	}

	s.CPU.PC = 0x0100
	s.CPU.SP = 0xFFFE
	s.CPU.BC = 0x0013
	s.CPU.DE = 0x00D8
	s.CPU.HL = 0x014D
	s.CPU.AF = 0x01B0
	if s.CGB() {
		// A=0x11 tells software it is running on color hardware
		s.CPU.AF = 0x1180
	}
	for _, r := range postBoot {
		s.HW.IORegs[r.reg] = r.val
	}
	s.HW.IORegs[RegBIOS] = 1
	if s.CGB() {
		s.HW.IORegs[RegSVBK] = 1
	}
}
