package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/emu"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/lcd"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/logger"
)

type command struct {
	name  string
	usage string
	run   func(args []string) error
}

var commands = []command{
	{"info", "print the cartridge header classification", runInfo},
	{"run", "run frames headless", runFrames},
	{"state", "inspect a save-state", runState},
	{"sram", "inspect a battery RAM file", runSRAM},
	{"rtc", "set the clock stored in a battery RAM file", runRTC},
	{"view", "open the debug window", runView},
}

// sessionFlags are shared by every command that loads a cartridge.
type sessionFlags struct {
	ROMPath string
	Root    string
	BootROM string
	Pool    int
	Preload int
	Palette string
	Verbose bool
}

func (f *sessionFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.ROMPath, "rom", "", "path to ROM (.gb)")
	fs.StringVar(&f.Root, "root", ".", "storage root (roms/ and retro-go/ below it)")
	fs.StringVar(&f.BootROM, "bootrom", "", "optional boot ROM")
	fs.IntVar(&f.Pool, "pool", 0, "maximum resident ROM banks (0 for all)")
	fs.IntVar(&f.Preload, "preload", emu.DefaultPreloadLimit, "ROM banks loaded up front")
	fs.StringVar(&f.Palette, "palette", "green", "palette for monochrome cartridges")
	fs.BoolVar(&f.Verbose, "v", false, "echo the log to stderr")
}

func parsePalette(name string) (lcd.Palette, error) {
	for p := lcd.Palette(0); p < lcd.NumPalettes; p++ {
		if strings.EqualFold(p.String(), name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown palette %q", name)
}

// open creates a session and loads the cartridge.
func (f *sessionFlags) open() (*emu.Session, error) {
	if f.ROMPath == "" {
		return nil, fmt.Errorf("-rom is required")
	}
	if f.Verbose {
		logger.SetEcho(os.Stderr)
	}
	pal, err := parsePalette(f.Palette)
	if err != nil {
		return nil, err
	}

	s := emu.New(emu.Config{
		Root:         f.Root,
		BankPool:     f.Pool,
		PreloadLimit: f.Preload,
		Quiet:        !f.Verbose,
		Palette:      pal,
	}, nil)

	if f.BootROM != "" {
		if err := s.LoadBIOS(f.BootROM); err != nil {
			return nil, err
		}
	}
	if err := s.LoadCartridge(f.ROMPath); err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return s, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: gbemu <command> [flags]\n\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-6s %s\n", c.name, c.usage)
	}
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	for _, c := range commands {
		if c.name == os.Args[1] {
			if err := c.run(os.Args[2:]); err != nil {
				log.Fatalf("%s: %v", c.name, err)
			}
			return
		}
	}
	usage()
	os.Exit(2)
}
