package state

import (
	"bytes"
	"errors"
	"testing"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/bank"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/fault"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/rtc"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/storage"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/test"
)

const savPath = "retro-go/saves/gb/test.gb.sav"

func newBattery(t *testing.T, pages int, hasRTC bool) Battery {
	t.Helper()
	sram, err := bank.NewSRAM(pages)
	test.DemandSuccess(t, err)
	for i, b := range sram.Banks {
		for j := range b {
			b[j] = byte(i*31 + j)
		}
	}
	return Battery{
		Cart:  &cart.Cartridge{HasBattery: true, HasRTC: hasRTC, RAMSize: pages},
		SRAM:  sram,
		Clock: &rtc.Clock{},
	}
}

// writeCounter counts write calls on a Mem without failing any.
func writeCounter(fs *storage.Mem) *int {
	var n int
	fs.FailWrite = func(string, int64) bool {
		n++
		return false
	}
	return &n
}

func TestSRAMFullSaveAndLoad(t *testing.T) {
	fs := storage.NewMem()
	b := newBattery(t, 4, false)

	n, err := b.Save(fs, savPath, false)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, n, 4)
	test.ExpectFailure(t, b.SRAM.AnyDirty())
	test.ExpectEquality(t, b.SRAM.Saved, uint32(0x0f))

	data, _ := fs.Get(savPath)
	test.ExpectEquality(t, len(data), 4*bank.RAMBankSize)

	r := newBattery(t, 4, false)
	r.SRAM.Clear()
	r.SRAM.MarkDirty(2)
	n, err = r.Load(fs, savPath)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, n, 4)
	for i := range b.SRAM.Banks {
		test.ExpectSuccess(t, bytes.Equal(r.SRAM.Banks[i], b.SRAM.Banks[i]), i)
		test.ExpectSuccess(t, r.SRAM.Durable(i), i)
	}
}

func TestSRAMCloseFailure(t *testing.T) {
	fs := storage.NewMem()
	fs.FailClose = func(string) bool { return true }
	b := newBattery(t, 2, false)

	n, err := b.Save(fs, savPath, false)
	test.ExpectSuccess(t, fault.Is(err, fault.Storage))
	test.ExpectSuccess(t, errors.Is(err, storage.ErrInjected))
	test.ExpectEquality(t, n, 2)
	for i := range b.SRAM.Banks {
		test.ExpectFailure(t, b.SRAM.Durable(i), i)
	}

	// the next save writes everything again
	fs.FailClose = nil
	n, err = b.Save(fs, savPath, true)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, n, 2)
}

func TestSRAMClockRecord(t *testing.T) {
	fs := storage.NewMem()
	b := newBattery(t, 1, true)
	b.Clock.Set(100, 10, 20, 30)
	b.Clock.Flags = rtc.FlagCarry

	_, err := b.Save(fs, savPath, false)
	test.DemandSuccess(t, err)
	data, _ := fs.Get(savPath)
	test.ExpectEquality(t, len(data), bank.RAMBankSize+rtc.RecordSize)

	r := newBattery(t, 1, true)
	r.Clock.Sel = rtc.RegHours
	r.Clock.Ticks = 55
	_, err = r.Load(fs, savPath)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, r.Clock.String(), "100 10:20:30")
	test.ExpectEquality(t, r.Clock.Flags, uint32(rtc.FlagCarry))
	test.ExpectEquality(t, r.Clock.Sel, uint32(0))
	test.ExpectEquality(t, r.Clock.Ticks, uint32(0))

	// a file without the record leaves the clock alone
	fs.Put(savPath, data[:bank.RAMBankSize])
	r.Clock.Set(1, 2, 3, 4)
	_, err = r.Load(fs, savPath)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, r.Clock.String(), "001 02:03:04")
}

func TestSRAMQuickSaveIdempotent(t *testing.T) {
	fs := storage.NewMem()
	writes := writeCounter(fs)
	b := newBattery(t, 4, false)

	_, err := b.Save(fs, savPath, false)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, *writes, 4)

	*writes = 0
	n, err := b.Save(fs, savPath, true)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, n, 0)
	test.ExpectEquality(t, *writes, 0)

	n, err = b.Save(fs, savPath, true)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, n, 0)
	test.ExpectEquality(t, *writes, 0)
}

func TestSRAMQuickSaveWritesDirtyOnly(t *testing.T) {
	fs := storage.NewMem()
	b := newBattery(t, 4, false)
	_, err := b.Save(fs, savPath, false)
	test.DemandSuccess(t, err)

	b.SRAM.Banks[1][0] = 0xEE
	b.SRAM.MarkDirty(1)
	writes := writeCounter(fs)
	n, err := b.Save(fs, savPath, true)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, n, 1)
	test.ExpectEquality(t, *writes, 1)

	// the other banks are still in the file
	data, _ := fs.Get(savPath)
	test.ExpectEquality(t, len(data), 4*bank.RAMBankSize)
	test.ExpectEquality(t, data[bank.RAMBankSize], byte(0xEE))
	test.ExpectSuccess(t, bytes.Equal(data[3*bank.RAMBankSize:], b.SRAM.Banks[3]))
}

func TestSRAMMidSaveFailure(t *testing.T) {
	fs := storage.NewMem()
	fs.FailWrite = func(_ string, offset int64) bool {
		return offset == 2*bank.RAMBankSize
	}
	b := newBattery(t, 4, false)

	n, err := b.Save(fs, savPath, false)
	test.ExpectSuccess(t, fault.Is(err, fault.Storage))
	test.ExpectEquality(t, n, 3)
	test.ExpectSuccess(t, b.SRAM.IsDirty(2))
	test.ExpectFailure(t, b.SRAM.IsSaved(2))
	for _, i := range []int{0, 1, 3} {
		test.ExpectSuccess(t, b.SRAM.Durable(i), i)
	}
}

func TestSRAMFailedBankExcludedFromLoad(t *testing.T) {
	fs := storage.NewMem()
	fs.FailWrite = func(_ string, offset int64) bool {
		return offset == 3*bank.RAMBankSize
	}
	b := newBattery(t, 4, false)
	_, err := b.Save(fs, savPath, false)
	test.ExpectFailure(t, err)

	r := newBattery(t, 4, false)
	r.SRAM.Clear()
	n, err := r.Load(fs, savPath)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, n, 3)
	test.ExpectEquality(t, r.SRAM.Saved, uint32(0x07))
	test.ExpectSuccess(t, bytes.Equal(r.SRAM.Banks[2], b.SRAM.Banks[2]))

	// the bank that was not restored is untouched
	test.ExpectSuccess(t, bytes.Equal(r.SRAM.Banks[3], make([]byte, bank.RAMBankSize)))
}

func TestSRAMReadFailureKeepsContents(t *testing.T) {
	fs := storage.NewMem()
	b := newBattery(t, 2, false)
	_, err := b.Save(fs, savPath, false)
	test.DemandSuccess(t, err)

	fs.FailRead = func(_ string, offset int64) bool {
		return offset == bank.RAMBankSize
	}
	r := newBattery(t, 2, false)
	r.SRAM.Banks[1][0] = 0x99
	n, err := r.Load(fs, savPath)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, n, 1)
	test.ExpectEquality(t, r.SRAM.Banks[1][0], byte(0x99))
	test.ExpectFailure(t, r.SRAM.IsSaved(1))
}

func TestSRAMLoadFailures(t *testing.T) {
	fs := storage.NewMem()
	b := newBattery(t, 2, false)

	_, err := b.Load(fs, savPath)
	test.ExpectSuccess(t, fault.Is(err, fault.Storage))

	fs.Put(savPath, nil)
	n, err := b.Load(fs, savPath)
	test.ExpectSuccess(t, fault.Is(err, fault.Storage))
	test.ExpectEquality(t, n, 0)

	_, err = b.Load(fs, "")
	test.ExpectSuccess(t, fault.Is(err, fault.Validation))
}

func TestSRAMNoBattery(t *testing.T) {
	fs := storage.NewMem()
	b := newBattery(t, 1, false)
	b.Cart.HasBattery = false

	_, err := b.Save(fs, savPath, false)
	test.ExpectSuccess(t, errors.Is(err, ErrNoBattery))
	test.ExpectSuccess(t, fault.Is(err, fault.Validation))
	_, err = b.Load(fs, savPath)
	test.ExpectSuccess(t, errors.Is(err, ErrNoBattery))

	_, ok := fs.Get(savPath)
	test.ExpectFailure(t, ok)
}
