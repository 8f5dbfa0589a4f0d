package bank

import "github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/fault"

// RAMBankSize is the size of a battery RAM bank.
const RAMBankSize = 0x2000

// maxRAMBanks is the width of the dirty and saved masks.
const maxRAMBanks = 32

// SRAM is the cartridge RAM. The banks are allocated when the cartridge is
// loaded and live until it is unloaded.
//
// Dirty has a bit set for every bank modified since it was last saved. Saved
// has a bit set for every bank that has been written to or read from a save
// file.
type SRAM struct {
	Banks [][]byte
	Dirty uint32
	Saved uint32
}

// NewSRAM allocates pages banks of cartridge RAM.
func NewSRAM(pages int) (*SRAM, error) {
	if pages < 1 || pages > maxRAMBanks {
		return nil, fault.New(fault.Allocation, "bank", "%d RAM pages: %w", pages, ErrPoolExhausted)
	}
	s := &SRAM{Banks: make([][]byte, pages)}
	for i := range s.Banks {
		s.Banks[i] = make([]byte, RAMBankSize)
	}
	return s, nil
}

// Len returns the number of banks.
func (s *SRAM) Len() int {
	return len(s.Banks)
}

// all is the mask covering every bank.
func (s *SRAM) all() uint32 {
	if len(s.Banks) >= maxRAMBanks {
		return ^uint32(0)
	}
	return 1<<len(s.Banks) - 1
}

// MarkDirty records a modification of bank n.
func (s *SRAM) MarkDirty(n int) {
	s.Dirty |= 1 << n
}

// MarkAllDirty records a modification of every bank.
func (s *SRAM) MarkAllDirty() {
	s.Dirty = s.all()
}

// Invalidate forgets that any bank was saved and marks every bank dirty.
func (s *SRAM) Invalidate() {
	s.Dirty = s.all()
	s.Saved = 0
}

// Reset clears both masks.
func (s *SRAM) Reset() {
	s.Dirty = 0
	s.Saved = 0
}

// Clean records that bank n has been written to a save file.
func (s *SRAM) Clean(n int) {
	s.Dirty &^= 1 << n
	s.Saved |= 1 << n
}

// IsDirty reports whether bank n has unsaved modifications.
func (s *SRAM) IsDirty(n int) bool {
	return s.Dirty&(1<<n) != 0
}

// IsSaved reports whether bank n has ever been saved.
func (s *SRAM) IsSaved(n int) bool {
	return s.Saved&(1<<n) != 0
}

// NeedsSave reports whether bank n must be written by an incremental save.
func (s *SRAM) NeedsSave(n int) bool {
	return s.IsDirty(n) || !s.IsSaved(n)
}

// Durable reports whether the save file holds the current contents of bank n.
func (s *SRAM) Durable(n int) bool {
	return s.IsSaved(n) && !s.IsDirty(n)
}

// AnyDirty reports whether any bank has unsaved modifications.
func (s *SRAM) AnyDirty() bool {
	return s.Dirty&s.all() != 0
}

// Clear zeroes the contents of every bank. The masks are not changed.
func (s *SRAM) Clear() {
	for _, b := range s.Banks {
		clear(b)
	}
}
