// Package bank owns the program banks and battery RAM banks of a cartridge.
//
// Program banks are loaded from the cartridge file on demand. The number of
// resident program banks is limited by a pool size; when the pool is full a
// resident bank is chosen by the eviction Policy and its buffer is reused for
// the demanded bank. Battery RAM banks are allocated once and never evicted.
package bank

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/fault"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/logger"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/storage"
)

// ROMBankSize is the size of a program bank.
const ROMBankSize = 0x4000

// MaxROMBanks is the number of slots in the program bank table.
const MaxROMBanks = 512

// ErrPoolExhausted is returned when a bank buffer cannot be supplied.
var ErrPoolExhausted = errors.New("bank pool exhausted")

// Stats counts bank manager activity since the cartridge was loaded.
type Stats struct {
	Resident  int
	Loads     int
	Evictions int
}

// Manager is the program bank table of a loaded cartridge.
type Manager struct {
	file    storage.File
	romSize int
	pool    int

	rom   [MaxROMBanks][]byte
	stats Stats

	// Policy chooses the bank to evict when the pool is full.
	Policy Policy

	// Fatal is called by Bank() when a bank cannot be loaded. The default
	// handler panics with the error.
	Fatal func(err error)
}

// NewManager creates a bank table backed by file. The manager takes ownership
// of the file and closes it in ReleaseAll(). A pool of zero or less, or a
// pool larger than romSize, allows every bank to be resident.
func NewManager(file storage.File, romSize int, pool int) (*Manager, error) {
	if romSize < 1 || romSize > MaxROMBanks {
		return nil, fault.New(fault.Validation, "bank", "unsupported ROM size: %d pages", romSize)
	}
	if pool <= 0 || pool > romSize {
		pool = romSize
	}
	m := &Manager{
		file:    file,
		romSize: romSize,
		pool:    pool,
		Policy:  &RoundRobin{},
		Fatal:   func(err error) { panic(err) },
	}
	return m, nil
}

// ROMSize returns the number of program banks in the cartridge.
func (m *Manager) ROMSize() int {
	return m.romSize
}

// Pool returns the maximum number of resident program banks.
func (m *Manager) Pool() int {
	return m.pool
}

// Stats returns a copy of the activity counters.
func (m *Manager) Stats() Stats {
	return m.stats
}

// Resident reports whether bank n currently has a buffer.
func (m *Manager) Resident(n int) bool {
	if n < 0 || n >= MaxROMBanks {
		return false
	}
	return m.rom[n] != nil
}

// donor finds a buffer for bank n, either a fresh allocation or a buffer
// taken from a resident bank.
func (m *Manager) donor(n int) ([]byte, error) {
	if m.stats.Resident < m.pool {
		m.stats.Resident++
		return make([]byte, ROMBankSize), nil
	}

	// bank zero is permanently mapped so it is only given up if there is
	// nothing else
	candidates := make([]int, 0, m.stats.Resident)
	for i := 1; i < m.romSize; i++ {
		if i != n && m.rom[i] != nil {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 && n != 0 && m.rom[0] != nil {
		candidates = append(candidates, 0)
	}
	if len(candidates) == 0 {
		return nil, fault.Wrap(fault.Allocation, "bank", ErrPoolExhausted)
	}

	victim := m.Policy.Victim(candidates)
	buf := m.rom[victim]
	m.rom[victim] = nil
	m.stats.Evictions++
	logger.Logf(logger.Allow, "bank", "bank %d evicted for bank %d", victim, n)
	return buf, nil
}

// LoadBank makes bank n resident. Loading a resident bank does nothing. A
// short read at the end of the file is not an error; the rest of the bank
// is zero.
func (m *Manager) LoadBank(n int) error {
	if n < 0 || n >= MaxROMBanks {
		return fault.New(fault.Validation, "bank", "bank %d out of range", n)
	}
	if m.rom[n] != nil {
		return nil
	}
	if m.file == nil {
		return fault.New(fault.Storage, "bank", "no cartridge file")
	}

	buf, err := m.donor(n)
	if err != nil {
		return err
	}
	clear(buf)
	m.stats.Loads++

	if _, err := m.file.Seek(int64(n)*ROMBankSize, io.SeekStart); err != nil {
		return m.dropBank(n, fmt.Errorf("seek bank %d: %w", n, err))
	}
	if _, err := io.ReadFull(m.file, buf); err != nil {
		if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return m.dropBank(n, fmt.Errorf("read bank %d: %w", n, err))
		}
	}

	m.rom[n] = buf
	return nil
}

// dropBank discards the buffer of a bank that failed to load so that the
// next access tries again.
func (m *Manager) dropBank(n int, err error) error {
	m.stats.Resident--
	logger.Logf(logger.Allow, "bank", "ROM bank loading failed: %d: %v", n, err)
	return fault.Wrap(fault.Storage, "bank", err)
}

// Bank returns the contents of bank n, loading it if necessary. The returned
// slice must not be retained across calls because the buffer may be given to
// another bank. Failure to load is passed to the Fatal handler.
func (m *Manager) Bank(n int) []byte {
	if err := m.LoadBank(n); err != nil {
		m.Fatal(err)
		return nil
	}
	return m.rom[n]
}

// PreloadCount is the number of banks loaded when a cartridge is inserted.
// Some titles need more than limit banks up front.
func PreloadCount(romSize int, title string, limit int) int {
	count := min(romSize, limit)
	if romSize > limit && (strings.HasPrefix(title, "RAYMAN") || strings.HasPrefix(title, "NONAME")) {
		count = romSize - 40
	}
	return count
}

// Preload loads the first count banks.
func (m *Manager) Preload(count int) error {
	count = min(count, m.romSize, m.pool)
	for i := 0; i < count; i++ {
		if err := m.LoadBank(i); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseAll drops every program bank and closes the cartridge file. It is
// safe to call more than once.
func (m *Manager) ReleaseAll() error {
	for i := range m.rom {
		m.rom[i] = nil
	}
	m.stats.Resident = 0

	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return fault.Wrap(fault.Storage, "bank", err)
}
