package emu

import "github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/lcd"

// Config contains settings that affect emulation behavior.
type Config struct {
	Root         string      // storage root; roms/ and retro-go/ live below it
	BankPool     int         // maximum resident ROM banks, 0 for all of them
	PreloadLimit int         // banks loaded when a cartridge is inserted
	Quiet        bool        // suppress session log entries
	Palette      lcd.Palette // host palette for monochrome cartridges
}

// DefaultPreloadLimit is the number of ROM banks loaded up front unless the
// configuration says otherwise.
const DefaultPreloadLimit = 64

// Defaults fills in unset fields.
func (c Config) Defaults() Config {
	if c.PreloadLimit <= 0 {
		c.PreloadLimit = DefaultPreloadLimit
	}
	if c.BankPool < 0 {
		c.BankPool = 0
	}
	if c.Palette < 0 || c.Palette >= lcd.NumPalettes {
		c.Palette = lcd.PaletteGreen
	}
	return c
}
