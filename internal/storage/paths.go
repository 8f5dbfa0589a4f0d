package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Paths derives the standard directory layout below a storage root.
type Paths struct {
	Root string
}

func (p Paths) base() string { return filepath.Join(p.Root, "retro-go") }

// ROMs is the directory cartridge images are kept in.
func (p Paths) ROMs() string { return filepath.Join(p.Root, "roms") }

// Saves is the directory battery RAM and save-state files are written to.
func (p Paths) Saves() string { return filepath.Join(p.base(), "saves") }

// Config is the directory for configuration files.
func (p Paths) Config() string { return filepath.Join(p.base(), "config") }

// BIOS is the directory boot ROM images are kept in.
func (p Paths) BIOS() string { return filepath.Join(p.base(), "bios") }

// Relative returns the path of a cartridge relative to the ROM directory. A
// cartridge outside the ROM directory is reduced to its file name.
func (p Paths) Relative(romPath string) string {
	rel, err := filepath.Rel(p.ROMs(), romPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(romPath)
	}
	return rel
}

// SRAM returns the battery RAM file for a cartridge.
func (p Paths) SRAM(romPath string) string {
	return filepath.Join(p.Saves(), p.Relative(romPath)+".sav")
}

// State returns the save-state file for a cartridge and slot.
func (p Paths) State(romPath string, slot int) string {
	return filepath.Join(p.Saves(), fmt.Sprintf("%s-%d.state", p.Relative(romPath), slot))
}
