package state

import (
	"errors"
	"fmt"
	"io"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/bank"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/fault"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/logger"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/rtc"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/storage"
)

// ErrNoBattery is returned when battery RAM is saved or loaded for a
// cartridge that has none.
var ErrNoBattery = errors.New("cartridge has no battery")

// Battery is the battery-backed part of a cartridge.
type Battery struct {
	Cart  *cart.Cartridge
	SRAM  *bank.SRAM
	Clock *rtc.Clock
}

func (b Battery) check(path string) error {
	if b.Cart == nil || !b.Cart.HasBattery || b.SRAM == nil || b.SRAM.Len() == 0 {
		return fault.Wrap(fault.Validation, "sram", ErrNoBattery)
	}
	if path == "" {
		return fault.New(fault.Validation, "sram", "no file name")
	}
	return nil
}

func (b Battery) rtcOffset() int64 {
	return int64(b.SRAM.Len()) * bank.RAMBankSize
}

// Save writes the battery RAM to a file and returns the number of banks
// written. A full save (quick is false) rewrites every bank. A quick save
// only writes banks that are dirty or have never been saved and does not
// truncate the file.
//
// An error is returned if any bank is still dirty afterwards or if the file
// cannot be closed, in which case every bank is left dirty. The clock
// record is written when the cartridge has a clock but failure to write it
// is only logged.
func (b Battery) Save(fs storage.FS, path string, quick bool) (written int, err error) {
	if err := b.check(path); err != nil {
		return 0, err
	}

	f, err := fs.Create(path, !quick)
	if err != nil {
		return 0, fault.Wrap(fault.Storage, "sram", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			// nothing written here is known to have reached the file
			b.SRAM.Invalidate()
			err = fault.Wrap(fault.Storage, "sram", cerr)
		}
	}()

	logger.Logf(logger.Allow, "sram", "saving to '%s' (quick=%v)", path, quick)

	if !quick {
		b.SRAM.Invalidate()
	}

	for i, data := range b.SRAM.Banks {
		if !b.SRAM.NeedsSave(i) {
			continue
		}
		if err := writeAt(f, int64(i)*bank.RAMBankSize, data); err != nil {
			logger.Logf(logger.Allow, "sram", "bank %d not saved: %v", i, err)
			continue
		}
		b.SRAM.Clean(i)
		written++
	}

	if b.Cart.HasRTC && b.Clock != nil {
		if err := writeAt(f, b.rtcOffset(), b.Clock.MarshalRecord()); err != nil {
			logger.Logf(logger.Allow, "sram", "RTC section not saved: %v", err)
		}
	}

	if b.SRAM.AnyDirty() {
		return written, fault.New(fault.Storage, "sram", "unsaved banks remain (dirty mask %#x)", b.SRAM.Dirty)
	}
	return written, nil
}

// Load reads the battery RAM from a file and returns the number of banks
// restored. A bank that cannot be read in full keeps its current contents
// and is not marked as saved. If the cartridge has a clock and the file has
// a clock record, the clock is replaced.
//
// An error is returned if no bank could be restored.
func (b Battery) Load(fs storage.FS, path string) (int, error) {
	if err := b.check(path); err != nil {
		return 0, err
	}

	f, err := fs.Open(path)
	if err != nil {
		return 0, fault.Wrap(fault.Storage, "sram", err)
	}
	defer f.Close()

	b.SRAM.Reset()

	var restored int
	scratch := make([]byte, bank.RAMBankSize)
	for i, data := range b.SRAM.Banks {
		if err := readAt(f, int64(i)*bank.RAMBankSize, scratch); err != nil {
			logger.Logf(logger.Allow, "sram", "bank %d not loaded: %v", i, err)
			continue
		}
		copy(data, scratch)
		b.SRAM.Saved |= 1 << i
		restored++
	}

	if b.Cart.HasRTC && b.Clock != nil {
		rec := make([]byte, rtc.RecordSize)
		if err := readAt(f, b.rtcOffset(), rec); err == nil {
			if err := b.Clock.UnmarshalRecord(rec); err == nil {
				logger.Logf(logger.Allow, "sram", "loaded RTC section %s", b.Clock)
			}
		}
	}

	if restored == 0 {
		return 0, fault.New(fault.Storage, "sram", "no banks restored from '%s'", path)
	}
	return restored, nil
}

func writeAt(f storage.File, offset int64, data []byte) error {
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	n, err := f.Write(data)
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	return err
}

func readAt(f storage.File, offset int64, data []byte) error {
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.ReadFull(f, data); err != nil {
		return fmt.Errorf("offset %d: %w", offset, err)
	}
	return nil
}
