package rtc_test

import (
	"encoding/binary"
	"testing"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/fault"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/rtc"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/test"
)

func TestSetClamps(t *testing.T) {
	var c rtc.Clock
	c.Ticks = 100
	c.Set(400, 30, -5, 99)
	d, h, m, s := c.Time()
	test.ExpectEquality(t, d, 365)
	test.ExpectEquality(t, h, 24)
	test.ExpectEquality(t, m, 0)
	test.ExpectEquality(t, s, 60)
	test.ExpectEquality(t, c.Ticks, uint32(0))

	c.Set(12, 3, 4, 5)
	test.ExpectEquality(t, c.String(), "012 03:04:05")
}

func TestAdvance(t *testing.T) {
	var c rtc.Clock
	c.Advance(rtc.CyclesPerSecond - 1)
	test.ExpectEquality(t, c.S, uint32(0))
	test.ExpectEquality(t, c.Ticks, uint32(rtc.CyclesPerSecond-1))

	c.Advance(1)
	test.ExpectEquality(t, c.S, uint32(1))
	test.ExpectEquality(t, c.Ticks, uint32(0))

	c.Advance(rtc.CyclesPerSecond*2 + 7)
	test.ExpectEquality(t, c.S, uint32(3))
	test.ExpectEquality(t, c.Ticks, uint32(7))
}

func TestCarry(t *testing.T) {
	var c rtc.Clock
	c.Set(364, 23, 59, 59)
	c.Advance(rtc.CyclesPerSecond)
	d, h, m, s := c.Time()
	test.ExpectEquality(t, d+h+m+s, 0)
	test.ExpectEquality(t, c.Flags&rtc.FlagCarry, uint32(rtc.FlagCarry))
}

func TestHalt(t *testing.T) {
	var c rtc.Clock
	c.Select(rtc.RegDayHigh)
	c.Write(rtc.FlagHalt)
	c.Advance(rtc.CyclesPerSecond * 10)
	test.ExpectEquality(t, c.S, uint32(0))
	test.ExpectEquality(t, c.Ticks, uint32(0))

	c.Write(0)
	c.Advance(rtc.CyclesPerSecond * 10)
	test.ExpectEquality(t, c.S, uint32(10))
}

func TestLatch(t *testing.T) {
	var c rtc.Clock
	c.Set(300, 5, 6, 7)
	c.Flags = rtc.FlagCarry

	// latching needs a zero then a one
	c.Latch = 1
	c.WriteLatch(1)
	c.Select(rtc.RegSeconds)
	test.ExpectEquality(t, c.Read(), byte(0))

	c.WriteLatch(0)
	c.WriteLatch(1)
	want := []byte{7, 6, 5, byte(300 & 0xFF), 0x01 | rtc.FlagCarry}
	for i, w := range want {
		c.Select(byte(rtc.RegSeconds + i))
		test.ExpectEquality(t, c.Read(), w, i)
	}

	// the latched registers do not follow the live clock
	c.Advance(rtc.CyclesPerSecond)
	c.Select(rtc.RegSeconds)
	test.ExpectEquality(t, c.Read(), byte(7))
	test.ExpectEquality(t, c.S, uint32(8))

	c.Select(0x03)
	test.ExpectFailure(t, c.Selected())
	test.ExpectEquality(t, c.Read(), byte(0xFF))
}

func TestRegisterWrite(t *testing.T) {
	var c rtc.Clock
	c.Select(rtc.RegDayLow)
	c.Write(0x34)
	c.Select(rtc.RegDayHigh)
	c.Write(0x01)
	test.ExpectEquality(t, c.D, uint32(0x134))

	c.Select(rtc.RegHours)
	c.Write(13)
	test.ExpectEquality(t, c.H, uint32(13))
	test.ExpectEquality(t, c.Read(), byte(13))
}

func TestRecord(t *testing.T) {
	var c rtc.Clock
	c.Set(2, 3, 4, 5)
	c.Flags = rtc.FlagCarry
	c.Regs = [5]byte{1, 2, 3, 4, 5}
	c.Sel = rtc.RegHours
	c.Latch = 1
	c.Ticks = 999

	b := c.MarshalRecord()
	test.DemandEquality(t, len(b), rtc.RecordSize)
	test.ExpectEquality(t, binary.LittleEndian.Uint32(b[0:]), uint32(5))
	test.ExpectEquality(t, binary.LittleEndian.Uint32(b[12:]), uint32(2))
	test.ExpectEquality(t, binary.LittleEndian.Uint32(b[16:]), uint32(rtc.FlagCarry))
	test.ExpectEquality(t, binary.LittleEndian.Uint32(b[36:]), uint32(5))
	test.ExpectEquality(t, binary.LittleEndian.Uint64(b[40:]),
		uint64(rtc.Epoch+5+4*60+3*3600+2*86400))

	var d rtc.Clock
	d.Sel = rtc.RegSeconds
	d.Ticks = 12
	test.DemandSuccess(t, d.UnmarshalRecord(b))
	test.ExpectEquality(t, d.String(), c.String())
	test.ExpectEquality(t, d.Regs, c.Regs)
	test.ExpectEquality(t, d.Flags, c.Flags)
	test.ExpectEquality(t, d.Sel, uint32(0))
	test.ExpectEquality(t, d.Latch, uint32(0))
	test.ExpectEquality(t, d.Ticks, uint32(0))

	err := d.UnmarshalRecord(b[:40])
	test.ExpectSuccess(t, fault.Is(err, fault.Storage))
}
