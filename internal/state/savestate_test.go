package state

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/bank"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/fault"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/logger"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/machine"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/storage"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/test"
)

const statePath = "retro-go/saves/gb/test.gb-0.state"

type notifications []string

func (n *notifications) RebuildPalette() { *n = append(*n, "palette") }
func (n *notifications) SoundDirty()     { *n = append(*n, "sound") }
func (n *notifications) UpdateMap()      { *n = append(*n, "map") }

func fill(b []byte, seed int) {
	for i := range b {
		b[i] = byte(i*7 + seed)
	}
}

// busyMachine returns a machine with every register and memory region set
// to a distinctive value.
func busyMachine(t *testing.T, hw cart.HWType, pages int) Snapshot {
	t.Helper()
	m := &machine.State{}
	m.HW.Type = hw

	var ver uint32
	for i, f := range schema(m, &ver) {
		f.set(uint32(i*0x01010101 + 0x11))
	}
	m.MBC.RAMBank = uint32(pages - 1)

	for i := range m.HW.WRAM {
		fill(m.HW.WRAM[i][:], i+1)
	}
	for i := range m.LCD.VRAM {
		fill(m.LCD.VRAM[i][:], i+20)
	}
	fill(m.HW.IORegs[:], 40)
	fill(m.LCD.Pal[:], 50)
	fill(m.LCD.OAM[:], 60)
	fill(m.Sound.Wave[:], 70)
	m.HW.IORegs[machine.RegBIOS] = 0

	sram, err := bank.NewSRAM(pages)
	test.DemandSuccess(t, err)
	for i, b := range sram.Banks {
		fill(b, 80+i)
	}
	return Snapshot{Machine: m, SRAM: sram}
}

func emptySnapshot(t *testing.T, hw cart.HWType, pages int) Snapshot {
	t.Helper()
	m := &machine.State{}
	m.HW.Type = hw
	sram, err := bank.NewSRAM(pages)
	test.DemandSuccess(t, err)
	return Snapshot{Machine: m, SRAM: sram}
}

func compareSnapshots(t *testing.T, got, want Snapshot) {
	t.Helper()
	g, w := got.Machine, want.Machine

	wantFields := Fields(w)
	for i, f := range Fields(g) {
		test.ExpectEquality(t, f, wantFields[i], f.Tag)
	}
	test.ExpectEquality(t, g.CPU, w.CPU)
	test.ExpectEquality(t, g.MBC, w.MBC)
	test.ExpectEquality(t, g.RTC, w.RTC)
	test.ExpectEquality(t, g.Sound, w.Sound)

	for i := 0; i < w.WRAMBanks(); i++ {
		test.ExpectEquality(t, g.HW.WRAM[i], w.HW.WRAM[i], "wram", i)
	}
	for i := 0; i < w.VRAMBanks(); i++ {
		test.ExpectEquality(t, g.LCD.VRAM[i], w.LCD.VRAM[i], "vram", i)
	}
	test.ExpectEquality(t, g.LCD.Pal, w.LCD.Pal)
	test.ExpectEquality(t, g.LCD.OAM, w.LCD.OAM)

	// the boot ROM is always unmapped after a load
	io := w.HW.IORegs
	io[machine.RegBIOS] = 1
	test.ExpectEquality(t, g.HW.IORegs, io)

	for i := range want.SRAM.Banks {
		test.ExpectEquality(t, string(got.SRAM.Banks[i]), string(want.SRAM.Banks[i]), "sram", i)
	}
}

func TestSaveStateRoundTrip(t *testing.T) {
	for _, hw := range []cart.HWType{cart.DMG, cart.CGB} {
		fs := storage.NewMem()
		src := busyMachine(t, hw, 4)
		test.DemandSuccess(t, src.Save(fs, statePath))

		data, _ := fs.Get(statePath)
		units := 1 + src.Machine.WRAMBanks() + src.Machine.VRAMBanks()*2 + 4*2
		test.ExpectEquality(t, len(data), units*BlockSize, hw)

		dst := emptySnapshot(t, hw, 4)
		var n notifications
		test.DemandSuccess(t, dst.Load(fs, statePath, &n))
		compareSnapshots(t, dst, src)

		test.ExpectEquality(t, strings.Join(n, ","), "palette,sound,map")
		test.ExpectEquality(t, dst.SRAM.Dirty, uint32(0x0f))
	}
}

func TestSaveStateBlockCounts(t *testing.T) {
	fs := storage.NewMem()
	src := busyMachine(t, cart.DMG, 1)
	test.DemandSuccess(t, src.Save(fs, statePath))
	data, _ := fs.Get(statePath)
	test.ExpectEquality(t, len(data), (1+2+2+2)*BlockSize)

	src = busyMachine(t, cart.CGB, 16)
	test.DemandSuccess(t, src.Save(fs, statePath))
	data, _ = fs.Get(statePath)
	test.ExpectEquality(t, len(data), (1+8+4+32)*BlockSize)
}

func TestSaveStateHeaderLayout(t *testing.T) {
	fs := storage.NewMem()
	src := busyMachine(t, cart.DMG, 1)
	src.Machine.CPU.PC = 0x1234
	test.DemandSuccess(t, src.Save(fs, statePath))
	data, _ := fs.Get(statePath)

	test.ExpectEquality(t, string(data[0:4]), "GbSs")
	test.ExpectEquality(t, binary.LittleEndian.Uint32(data[4:]), uint32(Version))
	test.ExpectEquality(t, string(data[8:12]), "PC  ")
	test.ExpectEquality(t, binary.LittleEndian.Uint32(data[12:]), uint32(0x1234))

	// zero terminated
	n := len(schema(src.Machine, new(uint32)))
	test.ExpectEquality(t, binary.LittleEndian.Uint32(data[n*8:]), uint32(0))

	test.ExpectEquality(t, data[waveOffset], src.Machine.Sound.Wave[0])
	test.ExpectEquality(t, data[ioregsOffset+0x40], src.Machine.HW.IORegs[0x40])
	test.ExpectEquality(t, data[palOffset+5], src.Machine.LCD.Pal[5])
	test.ExpectEquality(t, data[oamOffset+0x9F], src.Machine.LCD.OAM[0x9F])
	test.ExpectEquality(t, data[BlockSize], src.Machine.HW.WRAM[0][0])
}

func TestSaveStateMissingTags(t *testing.T) {
	fs := storage.NewMem()

	var h Header
	h.put(0, versionTag, Version)
	h.put(1, "SP  ", 0xDFF0)
	data := make([]byte, (1+2+2+2)*BlockSize)
	copy(data, h[:])
	fs.Put(statePath, data)

	dst := busyMachine(t, cart.DMG, 1)
	test.DemandSuccess(t, dst.Load(fs, statePath, nil))
	test.ExpectEquality(t, dst.Machine.CPU.SP, uint16(0xDFF0))
	test.ExpectEquality(t, dst.Machine.CPU.PC, uint16(0))
	test.ExpectEquality(t, dst.Machine.RTC.D, uint32(0))
	test.ExpectEquality(t, dst.Machine.Sound.Ch[3].EnCnt, uint32(0))
}

func TestSaveStateVersionMismatch(t *testing.T) {
	fs := storage.NewMem()
	src := busyMachine(t, cart.DMG, 1)
	test.DemandSuccess(t, src.Save(fs, statePath))
	data, _ := fs.Get(statePath)
	binary.LittleEndian.PutUint32(data[4:], 0x106)
	fs.Put(statePath, data)

	logger.Clear()
	dst := emptySnapshot(t, cart.DMG, 1)
	test.DemandSuccess(t, dst.Load(fs, statePath, nil))
	test.ExpectEquality(t, dst.Machine.CPU.PC, src.Machine.CPU.PC)

	var found bool
	for _, e := range logger.Entries() {
		if e.Tag == "state" && strings.Contains(e.Detail, fault.FormatMismatch.String()) {
			found = true
		}
	}
	test.ExpectSuccess(t, found)
}

func TestSaveStatePostLoadFixups(t *testing.T) {
	fs := storage.NewMem()
	src := busyMachine(t, cart.DMG, 16)
	src.Machine.MBC.RAMBank = 13
	test.DemandSuccess(t, src.Save(fs, statePath))

	// loaded with fewer RAM banks than the snapshot was taken with
	dst := emptySnapshot(t, cart.DMG, 4)
	test.DemandSuccess(t, dst.Load(fs, statePath, nil))
	test.ExpectEquality(t, dst.Machine.MBC.RAMBank, uint32(1))
	test.ExpectEquality(t, dst.Machine.HW.IORegs[machine.RegBIOS], byte(1))
	test.ExpectEquality(t, dst.SRAM.Dirty, uint32(0x0f))
}

func TestSaveStateTruncatedFileChangesNothing(t *testing.T) {
	fs := storage.NewMem()
	src := busyMachine(t, cart.DMG, 1)
	test.DemandSuccess(t, src.Save(fs, statePath))
	data, _ := fs.Get(statePath)

	// header and work RAM only
	fs.Put(statePath, data[:3*BlockSize])
	dst := emptySnapshot(t, cart.DMG, 1)
	err := dst.Load(fs, statePath, nil)
	test.ExpectSuccess(t, fault.Is(err, fault.Storage))
	test.ExpectEquality(t, dst.Machine.CPU.PC, uint16(0))
	test.ExpectEquality(t, dst.Machine.HW.WRAM[0][1], byte(0))
	test.ExpectEquality(t, dst.SRAM.Dirty, uint32(0))

	_, ok := fs.Get(statePath)
	test.ExpectSuccess(t, ok)
}

func TestSaveStateShortLastBlock(t *testing.T) {
	fs := storage.NewMem()
	src := busyMachine(t, cart.DMG, 2)
	test.DemandSuccess(t, src.Save(fs, statePath))
	data, _ := fs.Get(statePath)

	// one unit of cartridge RAM is enough for the block to count as read
	fs.Put(statePath, data[:(1+2+2+1)*BlockSize])
	dst := emptySnapshot(t, cart.DMG, 2)
	fill(dst.SRAM.Banks[1], 3)
	keep := string(dst.SRAM.Banks[1])
	test.DemandSuccess(t, dst.Load(fs, statePath, nil))
	test.ExpectEquality(t, string(dst.SRAM.Banks[0][:BlockSize]), string(src.SRAM.Banks[0][:BlockSize]))
	test.ExpectEquality(t, string(dst.SRAM.Banks[1]), keep)
}

func TestSaveStateWriteFailure(t *testing.T) {
	fs := storage.NewMem()
	fs.FailWrite = func(_ string, offset int64) bool {
		return offset == 3*BlockSize
	}
	src := busyMachine(t, cart.DMG, 1)
	err := src.Save(fs, statePath)
	test.ExpectSuccess(t, fault.Is(err, fault.Storage))

	// partial files are left behind
	data, ok := fs.Get(statePath)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, len(data), 3*BlockSize)
}

func TestSaveStateCloseFailure(t *testing.T) {
	fs := storage.NewMem()
	fs.FailClose = func(string) bool { return true }
	src := busyMachine(t, cart.DMG, 1)
	err := src.Save(fs, statePath)
	test.ExpectSuccess(t, fault.Is(err, fault.Storage))
}

func TestSaveStateMissingFile(t *testing.T) {
	dst := emptySnapshot(t, cart.DMG, 1)
	err := dst.Load(storage.NewMem(), statePath, nil)
	test.ExpectSuccess(t, fault.Is(err, fault.Storage))
}

func TestLookup(t *testing.T) {
	var h Header
	h.put(0, "AAAA", 1)
	h.put(1, "BBBB", 2)
	h.put(3, "CCCC", 3) // after the terminator

	v, ok := h.Lookup("BBBB")
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, v, uint32(2))
	_, ok = h.Lookup("CCCC")
	test.ExpectFailure(t, ok)
}

func TestFieldWidths(t *testing.T) {
	widths := map[string]int{}
	for _, e := range Fields(&machine.State{}) {
		widths[e.Tag] = e.Width
	}
	test.ExpectEquality(t, widths["PC  "], 2)
	test.ExpectEquality(t, widths["rtR8"], 1)
	test.ExpectEquality(t, widths["lcdc"], 4)
	test.ExpectEquality(t, widths["S4ec"], 4)
	test.ExpectEquality(t, len(widths), 53)
}
