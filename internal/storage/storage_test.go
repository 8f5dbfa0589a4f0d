package storage_test

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/storage"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/test"
)

func TestPaths(t *testing.T) {
	p := storage.Paths{Root: "/sd"}
	test.ExpectEquality(t, p.ROMs(), filepath.Join("/sd", "roms"))
	test.ExpectEquality(t, p.Saves(), filepath.Join("/sd", "retro-go", "saves"))
	test.ExpectEquality(t, p.BIOS(), filepath.Join("/sd", "retro-go", "bios"))

	rom := filepath.Join("/sd", "roms", "gb", "tetris.gb")
	test.ExpectEquality(t, p.SRAM(rom), filepath.Join("/sd", "retro-go", "saves", "gb", "tetris.gb.sav"))
	test.ExpectEquality(t, p.State(rom, 2), filepath.Join("/sd", "retro-go", "saves", "gb", "tetris.gb-2.state"))

	// outside of the ROM directory only the file name is kept
	test.ExpectEquality(t, p.SRAM("/tmp/x/zelda.gb"), filepath.Join("/sd", "retro-go", "saves", "zelda.gb.sav"))
}

func TestMemReadWriteSeek(t *testing.T) {
	m := storage.NewMem()
	f, err := m.Create("a.bin", true)
	test.DemandSuccess(t, err)

	_, err = f.Seek(8, io.SeekStart)
	test.DemandSuccess(t, err)
	_, err = f.Write([]byte{1, 2})
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, f.Close())

	data, ok := m.Get("a.bin")
	test.DemandSuccess(t, ok)
	test.ExpectEquality(t, len(data), 10)
	test.ExpectEquality(t, data[8], byte(1))

	r, err := m.Open("a.bin")
	test.DemandSuccess(t, err)
	buf := make([]byte, 16)
	n, err := io.ReadFull(r, buf)
	test.ExpectEquality(t, n, 10)
	test.ExpectSuccess(t, errors.Is(err, io.ErrUnexpectedEOF))

	// files opened for reading cannot be written
	_, err = r.Write([]byte{0})
	test.ExpectFailure(t, err)
}

func TestMemCreateKeepsContents(t *testing.T) {
	m := storage.NewMem()
	m.Put("s.sav", []byte{9, 9, 9})

	f, err := m.Create("s.sav", false)
	test.DemandSuccess(t, err)
	f.Write([]byte{1})
	f.Close()
	data, _ := m.Get("s.sav")
	test.ExpectEquality(t, string(data), string([]byte{1, 9, 9}))

	f, err = m.Create("s.sav", true)
	test.DemandSuccess(t, err)
	f.Close()
	data, _ = m.Get("s.sav")
	test.ExpectEquality(t, len(data), 0)
}

func TestMemFaults(t *testing.T) {
	m := storage.NewMem()
	m.FailWrite = func(_ string, off int64) bool { return off == 4 }

	f, _ := m.Create("f", true)
	_, err := f.Write([]byte{0, 0, 0, 0})
	test.ExpectSuccess(t, err)
	_, err = f.Write([]byte{1})
	test.ExpectSuccess(t, errors.Is(err, storage.ErrInjected))

	_, err = m.Open("missing")
	test.ExpectFailure(t, err)
}
