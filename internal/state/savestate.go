package state

import (
	"errors"
	"fmt"
	"io"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/bank"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/fault"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/logger"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/machine"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/storage"
)

// Notifier is told that the machine state has been replaced so that
// anything derived from it can be rebuilt.
type Notifier interface {
	RebuildPalette()
	SoundDirty()
	UpdateMap()
}

// Snapshot is what a save-state covers: the machine and the cartridge RAM.
type Snapshot struct {
	Machine *machine.State
	SRAM    *bank.SRAM
}

// blocks returns the memory following the header, in file order, split into
// BlockSize units.
func (s Snapshot) blocks() [][][]byte {
	m := s.Machine

	wram := make([][]byte, m.WRAMBanks())
	for i := range wram {
		wram[i] = m.HW.WRAM[i][:]
	}

	var vram [][]byte
	for i := 0; i < m.VRAMBanks(); i++ {
		vram = append(vram, m.LCD.VRAM[i][:BlockSize], m.LCD.VRAM[i][BlockSize:])
	}

	var sram [][]byte
	if s.SRAM != nil {
		for _, b := range s.SRAM.Banks {
			sram = append(sram, b[:BlockSize], b[BlockSize:])
		}
	}

	return [][][]byte{wram, vram, sram}
}

// Save writes a snapshot to a file. A write failure stops the save; the
// partial file is left in place.
func (s Snapshot) Save(fs storage.FS, path string) (err error) {
	m := s.Machine

	var h Header
	var ver uint32 = Version
	for i, fld := range schema(m, &ver) {
		h.put(i, fld.tag, fld.get())
	}
	copy(h[waveOffset:], m.Sound.Wave[:])
	copy(h[ioregsOffset:], m.HW.IORegs[:])
	copy(h[palOffset:], m.LCD.Pal[:])
	copy(h[oamOffset:], m.LCD.OAM[:])

	f, err := fs.Create(path, true)
	if err != nil {
		return fault.Wrap(fault.Storage, "state", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fault.Wrap(fault.Storage, "state", cerr)
		}
	}()

	blocks := append([][][]byte{{h[:]}}, s.blocks()...)
	for i, units := range blocks {
		for _, u := range units {
			if _, err := f.Write(u); err != nil {
				logger.Logf(logger.Allow, "state", "write error in block %d", i)
				return fault.Wrap(fault.Storage, "state", fmt.Errorf("block %d: %w", i, err))
			}
		}
	}

	return nil
}

// readBlock reads units from f into scratch copies of units. At least one
// whole unit must be read; units after a short read keep their current
// contents.
func readBlock(f io.Reader, units [][]byte) ([][]byte, error) {
	scratch := make([][]byte, len(units))
	for i, u := range units {
		scratch[i] = append([]byte(nil), u...)
	}

	for i := range scratch {
		buf := make([]byte, len(scratch[i]))
		if _, err := io.ReadFull(f, buf); err != nil {
			if i > 0 && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)) {
				break
			}
			return nil, err
		}
		scratch[i] = buf
	}

	return scratch, nil
}

// Load replaces the machine state and cartridge RAM with the contents of a
// save-state file. Nothing is changed unless every block yields at least
// one whole unit.
//
// Registers missing from the file are set to zero. A version mismatch is
// logged but does not stop the load. After loading, the boot ROM is
// unmapped, the RAM bank register is limited to the cartridge RAM size and
// every cartridge RAM bank is marked dirty. The notifier may be nil.
func (s Snapshot) Load(fs storage.FS, path string, n Notifier) error {
	m := s.Machine

	f, err := fs.Open(path)
	if err != nil {
		return fault.Wrap(fault.Storage, "state", err)
	}
	defer f.Close()

	var h Header
	blocks := append([][][]byte{{h[:]}}, s.blocks()...)
	read := make([][][]byte, len(blocks))
	for i, units := range blocks {
		if len(units) == 0 {
			continue
		}
		read[i], err = readBlock(f, units)
		if err != nil {
			logger.Logf(logger.Allow, "state", "read error in block %d", i)
			return fault.Wrap(fault.Storage, "state", fmt.Errorf("block %d: %w", i, err))
		}
	}

	// commit
	for i, units := range blocks {
		for j, u := range units {
			copy(u, read[i][j])
		}
	}

	var ver uint32
	for _, fld := range schema(m, &ver) {
		v, _ := h.Lookup(fld.tag)
		fld.set(v)
	}
	if ver != Version {
		err := fault.New(fault.FormatMismatch, "state", "save file version %#x, expected %#x", ver, Version)
		logger.Log(logger.Allow, "state", err)
	}

	copy(m.Sound.Wave[:], h[waveOffset:])
	copy(m.HW.IORegs[:], h[ioregsOffset:])
	copy(m.LCD.Pal[:], h[palOffset:])
	copy(m.LCD.OAM[:], h[oamOffset:])

	// snapshots taken before boot ROM support have this clear
	m.HW.IORegs[machine.RegBIOS] = 1

	if s.SRAM != nil && s.SRAM.Len() > 0 {
		m.MBC.RAMBank &= uint32(s.SRAM.Len() - 1)
		s.SRAM.MarkAllDirty()
	} else {
		m.MBC.RAMBank = 0
	}

	if n != nil {
		n.RebuildPalette()
		n.SoundDirty()
		n.UpdateMap()
	}

	return nil
}
