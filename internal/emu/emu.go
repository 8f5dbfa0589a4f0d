// Package emu ties the emulator core together into a session: a cartridge,
// the bank manager serving its ROM, the battery RAM, the machine state, the
// memory map, the video timing and the frame scheduler. The host drives a
// session one frame at a time and asks it to save or restore state.
package emu

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/bank"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/bus"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/fault"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/lcd"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/logger"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/machine"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/sched"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/state"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/storage"
)

// ErrNoCartridge is returned by operations that need a cartridge when none
// is loaded.
var ErrNoCartridge = errors.New("no cartridge loaded")

// Boot ROM sizes.
const (
	minBIOS = 0x100
	maxBIOS = 0x900
)

type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

// Session is one emulation session. It is not safe for concurrent use.
type Session struct {
	cfg   Config
	fs    storage.FS
	paths storage.Paths

	romPath string
	cart    *cart.Cartridge
	rom     *bank.Manager
	sram    *bank.SRAM

	m     *machine.State
	bus   *bus.Bus
	lcd   *lcd.Controller
	sched *sched.Scheduler
	cpu   sched.Interpreter

	bios       []byte
	soundDirty bool
}

// New creates a session without a cartridge. A nil fs means the host file
// system.
func New(cfg Config, fs storage.FS) *Session {
	if fs == nil {
		fs = storage.OS{}
	}
	cfg = cfg.Defaults()
	return &Session{
		cfg:   cfg,
		fs:    fs,
		paths: storage.Paths{Root: cfg.Root},
	}
}

// AllowLogging implements the logger.Permission interface.
func (s *Session) AllowLogging() bool {
	return !s.cfg.Quiet
}

// Paths returns the storage layout of the session.
func (s *Session) Paths() storage.Paths { return s.paths }

// Loaded reports whether a cartridge is inserted.
func (s *Session) Loaded() bool { return s.cart != nil }

// ROMPath returns the path of the loaded cartridge.
func (s *Session) ROMPath() string { return s.romPath }

func (s *Session) Cartridge() *cart.Cartridge { return s.cart }
func (s *Session) Machine() *machine.State { return s.m }
func (s *Session) Bus() *bus.Bus { return s.bus }
func (s *Session) LCD() *lcd.Controller { return s.lcd }
func (s *Session) Banks() *bank.Manager { return s.rom }
func (s *Session) SRAM() *bank.SRAM { return s.sram }

// Scheduler returns the frame scheduler of the loaded cartridge.
func (s *Session) Scheduler() *sched.Scheduler { return s.sched }

// LoadCartridge inserts the cartridge at path, replacing any loaded one.
// Nothing is left behind if loading fails.
func (s *Session) LoadCartridge(path string) error {
	if err := s.Unload(); err != nil {
		logger.Logf(s, "emu", "unload: %v", err)
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return fault.Wrap(fault.Storage, "emu", err)
	}

	header, err := cart.ReadHeader(f)
	if err != nil {
		f.Close()
		return err
	}

	c, err := cart.Parse(header)
	if err != nil {
		f.Close()
		return err
	}
	logger.Logf(s, "cart", "%s", c)

	rom, err := bank.NewManager(f, c.ROMSize, s.cfg.BankPool)
	if err != nil {
		f.Close()
		return err
	}

	// the file is owned by the bank manager from here on
	fail := func(err error) error {
		rom.ReleaseAll()
		return err
	}

	if err := rom.Preload(bank.PreloadCount(c.ROMSize, c.Name(), s.cfg.PreloadLimit)); err != nil {
		return fail(err)
	}

	sram, err := bank.NewSRAM(c.RAMSize)
	if err != nil {
		return fail(err)
	}

	m := &machine.State{}
	m.HW.Type = c.HW
	m.HW.BIOS = s.bios
	m.Reset(true)

	video := lcd.New(m)
	video.WindowOffsetHack = c.WindowOffsetHack
	video.SetPalette(s.cfg.Palette, c.Colorize)

	s.romPath = path
	s.cart = c
	s.rom = rom
	s.sram = sram
	s.m = m
	s.bus = bus.New(m, c, rom, sram)
	s.lcd = video
	s.cpu = Idle{Video: video}
	s.sched = &sched.Scheduler{CPU: s.cpu, Video: video}
	if c.HasRTC {
		s.sched.Ticker = &m.RTC
	}
	s.soundDirty = true

	return nil
}

// Unload removes the cartridge and closes its file. It does nothing if no
// cartridge is loaded. Battery RAM is not saved.
func (s *Session) Unload() error {
	if s.cart == nil {
		return nil
	}
	err := s.rom.ReleaseAll()
	s.romPath = ""
	s.cart = nil
	s.rom = nil
	s.sram = nil
	s.m = nil
	s.bus = nil
	s.lcd = nil
	s.sched = nil
	s.cpu = nil
	return err
}

// AttachInterpreter replaces the interpreter driven by the scheduler. The
// interpreter is responsible for advancing the video timing by the cycles
// it executes. A nil interpreter restores the idle one.
func (s *Session) AttachInterpreter(cpu sched.Interpreter) error {
	if s.cart == nil {
		return fault.Wrap(fault.Validation, "emu", ErrNoCartridge)
	}
	if cpu == nil {
		cpu = Idle{Video: s.lcd}
	}
	s.cpu = cpu
	s.sched.CPU = cpu
	return nil
}

// RunFrame runs one frame and returns the number of cycles executed. When
// draw is false the frame is run without rendering.
func (s *Session) RunFrame(draw bool) int {
	if s.cart == nil {
		return 0
	}
	return s.sched.RunFrame(draw)
}

// Reset restarts the machine. A hard reset also clears every RAM except the
// cartridge RAM.
func (s *Session) Reset(hard bool) {
	if s.cart == nil {
		return
	}
	s.m.HW.BIOS = s.bios
	s.m.Reset(hard)
	s.bus.UpdateMap()
	s.lcd.RebuildPalette()
	s.soundDirty = true
	if r, ok := s.cpu.(interface{ Reset(hard bool) }); ok {
		r.Reset(hard)
	}
	logger.Logf(s, "emu", "reset (hard=%v)", hard)
}

// LoadBIOS reads a boot ROM. An empty path picks the default boot ROM for the
// hardware type. The boot ROM takes effect at the next reset or cartridge
// load.
func (s *Session) LoadBIOS(path string) error {
	if path == "" {
		name := "gb_bios.bin"
		if s.HWType() == cart.CGB {
			name = "gbc_bios.bin"
		}
		path = filepath.Join(s.paths.BIOS(), name)
	}

	s.bios = nil

	f, err := s.fs.Open(path)
	if err != nil {
		return fault.Wrap(fault.Storage, "emu", err)
	}
	defer f.Close()

	buf := make([]byte, maxBIOS)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fault.Wrap(fault.Storage, "emu", err)
	}
	if n < minBIOS {
		return fault.New(fault.Storage, "emu", "boot ROM '%s' is %d bytes", path, n)
	}

	s.bios = buf[:n]
	logger.Logf(s, "emu", "boot ROM '%s' loaded (%d bytes)", path, n)
	return nil
}

// HWType returns the hardware the cartridge is emulated on.
func (s *Session) HWType() cart.HWType {
	if s.cart == nil {
		return cart.DMG
	}
	return s.m.HW.Type
}

// SetHWType is accepted for compatibility. The hardware type always follows
// the cartridge header.
func (s *Session) SetHWType(t cart.HWType) {
	logger.Logf(s, "emu", "hardware type %s ignored", t)
}

// SetPad sets the buttons currently held, a combination of the bus.Pad bits.
func (s *Session) SetPad(mask byte) {
	if s.cart == nil || uint32(mask) == s.m.HW.Pad {
		return
	}
	s.bus.SetPad(mask)
}

// SetButtons is SetPad for a button set.
func (s *Session) SetButtons(b Buttons) {
	var mask byte
	if b.Right {
		mask |= bus.PadRight
	}
	if b.Left {
		mask |= bus.PadLeft
	}
	if b.Up {
		mask |= bus.PadUp
	}
	if b.Down {
		mask |= bus.PadDown
	}
	if b.A {
		mask |= bus.PadA
	}
	if b.B {
		mask |= bus.PadB
	}
	if b.Select {
		mask |= bus.PadSelect
	}
	if b.Start {
		mask |= bus.PadStart
	}
	s.SetPad(mask)
}

// Palette returns the host palette.
func (s *Session) Palette() lcd.Palette {
	return s.cfg.Palette
}

// SetPalette changes the host palette.
func (s *Session) SetPalette(p lcd.Palette) {
	if p < 0 || p >= lcd.NumPalettes || p == s.cfg.Palette {
		return
	}
	s.cfg.Palette = p
	if s.cart != nil {
		s.lcd.SetPalette(p, s.cart.Colorize)
	}
}

// Colorize returns the colorization key of the cartridge.
func (s *Session) Colorize() byte {
	if s.cart == nil {
		return 0
	}
	return s.cart.Colorize
}

// Time returns the cartridge clock.
func (s *Session) Time() (day, hour, minute, second int) {
	if s.cart == nil {
		return 0, 0, 0, 0
	}
	return s.m.RTC.Time()
}

// SetTime sets the cartridge clock. Values are clamped to their range.
func (s *Session) SetTime(day, hour, minute, second int) {
	if s.cart == nil {
		return
	}
	s.m.RTC.Set(day, hour, minute, second)
	logger.Logf(s, "rtc", "time set to %s", &s.m.RTC)
}

// RebuildPalette implements the state.Notifier interface.
func (s *Session) RebuildPalette() {
	s.lcd.RebuildPalette()
}

// SoundDirty implements the state.Notifier interface.
func (s *Session) SoundDirty() {
	s.soundDirty = true
}

// UpdateMap implements the state.Notifier interface.
func (s *Session) UpdateMap() {
	s.bus.UpdateMap()
}

// TakeSoundDirty reports whether the sound registers were replaced since the
// last call.
func (s *Session) TakeSoundDirty() bool {
	d := s.soundDirty
	s.soundDirty = false
	return d
}

func (s *Session) battery() state.Battery {
	return state.Battery{Cart: s.cart, SRAM: s.sram, Clock: &s.m.RTC}
}

func (s *Session) snapshot() state.Snapshot {
	return state.Snapshot{Machine: s.m, SRAM: s.sram}
}

func (s *Session) prepare(path string) error {
	if s.cart == nil {
		return fault.Wrap(fault.Validation, "emu", ErrNoCartridge)
	}
	if err := s.fs.MkdirAll(filepath.Dir(path)); err != nil {
		return fault.Wrap(fault.Storage, "emu", err)
	}
	return nil
}

// StatePath returns the save-state file for a slot.
func (s *Session) StatePath(slot int) string {
	return s.paths.State(s.romPath, slot)
}

// SRAMPath returns the battery RAM file of the cartridge.
func (s *Session) SRAMPath() string {
	return s.paths.SRAM(s.romPath)
}

// SaveState writes a save-state to the given slot.
func (s *Session) SaveState(slot int) error {
	return s.SaveStateFile(s.StatePath(slot))
}

// LoadState restores the save-state in the given slot.
func (s *Session) LoadState(slot int) error {
	return s.LoadStateFile(s.StatePath(slot))
}

// SaveStateFile writes a save-state to path. A failed save may leave a
// partial file behind.
func (s *Session) SaveStateFile(path string) error {
	if err := s.prepare(path); err != nil {
		return err
	}
	if err := s.snapshot().Save(s.fs, path); err != nil {
		return err
	}
	logger.Logf(s, "state", "saved '%s'", path)
	return nil
}

// LoadStateFile restores the save-state at path. The session is unchanged if
// the file cannot be read in full.
func (s *Session) LoadStateFile(path string) error {
	if s.cart == nil {
		return fault.Wrap(fault.Validation, "emu", ErrNoCartridge)
	}
	if err := s.snapshot().Load(s.fs, path, s); err != nil {
		return err
	}
	logger.Logf(s, "state", "loaded '%s'", path)
	return nil
}

// SaveSRAM writes the battery RAM to path, or to the default file if path
// is empty, and returns the number of banks written. A quick save only
// writes the banks that changed.
func (s *Session) SaveSRAM(path string, quick bool) (int, error) {
	if path == "" && s.cart != nil {
		path = s.SRAMPath()
	}
	if err := s.prepare(path); err != nil {
		return 0, err
	}
	return s.battery().Save(s.fs, path, quick)
}

// LoadSRAM reads the battery RAM from path, or from the default file if
// path is empty, and returns the number of banks restored.
func (s *Session) LoadSRAM(path string) (int, error) {
	if s.cart == nil {
		return 0, fault.Wrap(fault.Validation, "emu", ErrNoCartridge)
	}
	if path == "" {
		path = s.SRAMPath()
	}
	n, err := s.battery().Load(s.fs, path)
	if err != nil {
		return n, err
	}
	logger.Logf(s, "sram", "restored %d of %d banks from '%s'", n, s.sram.Len(), path)
	return n, nil
}

// SRAMDirty reports whether battery RAM has been written since it was last
// saved.
func (s *Session) SRAMDirty() bool {
	return s.cart != nil && s.cart.HasBattery && s.sram.AnyDirty()
}

func (s *Session) String() string {
	if s.cart == nil {
		return "no cartridge"
	}
	frames, cycles := s.sched.Stats()
	return fmt.Sprintf("%s: %d frames, %d cycles", s.cart.Name(), frames, cycles)
}
