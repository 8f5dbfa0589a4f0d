package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/machine"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/rtc"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/state"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/statsview"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/ui"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/waveform"
	"github.com/bradleyjkemp/memviz"
)

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	romPath := fs.String("rom", "", "path to ROM (.gb)")
	fs.Parse(args)

	f, err := os.Open(*romPath)
	if err != nil {
		return err
	}
	defer f.Close()

	header, err := cart.ReadHeader(f)
	if err != nil {
		return err
	}

	c, err := cart.Parse(header)
	if err != nil {
		return err
	}
	h := c.Header

	fmt.Printf("title:      %s\n", c.Name())
	fmt.Printf("type:       %#02x %s\n", h.CartType, h.TypeString())
	fmt.Printf("hardware:   %s\n", c.HW)
	fmt.Printf("mbc:        %s\n", c.MBC)
	fmt.Printf("rom:        %d banks (%dK)\n", c.ROMSize, c.ROMSize*16)
	fmt.Printf("ram:        %d banks (%dK)\n", c.RAMSize, c.RAMSize*8)
	fmt.Printf("battery:    %v\n", c.HasBattery)
	fmt.Printf("rtc:        %v\n", c.HasRTC)
	fmt.Printf("rumble:     %v\n", c.HasRumble)
	fmt.Printf("sensor:     %v\n", c.HasSensor)
	fmt.Printf("colorize:   %d\n", c.Colorize)
	fmt.Printf("checksum:   %#04x\n", c.Checksum)
	fmt.Printf("header sum: %v\n", cart.HeaderChecksumOK(header))
	fmt.Printf("logo:       %v\n", h.LogoOK)
	return nil
}

func runFrames(args []string) error {
	var sf sessionFlags
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	sf.register(fs)
	frames := fs.Int("frames", 300, "frames to run")
	skip := fs.Int("skip", 0, "frames skipped between drawn frames")
	sram := fs.Bool("sram", false, "load battery RAM before and save it after the run")
	stats := fs.Bool("statsview", false, "serve runtime charts during the run (statsview builds only)")
	statsAddr := fs.String("statsaddr", statsview.DefaultAddr, "address of the runtime charts")
	fs.Parse(args)

	if *stats {
		if !statsview.Available() {
			return fmt.Errorf("statsview not available in this build")
		}
		srv := statsview.Start(*statsAddr, os.Stdout)
		defer srv.Stop()
	}

	s, err := sf.open()
	if err != nil {
		return err
	}
	defer s.Unload()

	if *sram {
		if n, err := s.LoadSRAM(""); err != nil {
			fmt.Printf("sram: %v\n", err)
		} else {
			fmt.Printf("sram: restored %d banks\n", n)
		}
	}

	start := time.Now()
	for i := 0; i < *frames; i++ {
		s.RunFrame(i%(*skip+1) == 0)
	}
	dur := time.Since(start)

	_, cycles := s.Scheduler().Stats()
	bs := s.Banks().Stats()
	fmt.Printf("frames=%d cycles=%d elapsed=%s fps=%.2f\n",
		*frames, cycles, dur.Truncate(time.Millisecond), float64(*frames)/dur.Seconds())
	fmt.Printf("banks: resident=%d loads=%d evictions=%d\n", bs.Resident, bs.Loads, bs.Evictions)
	if s.Cartridge().HasRTC {
		fmt.Printf("rtc: %s\n", &s.Machine().RTC)
	}

	if *sram {
		n, err := s.SaveSRAM("", false)
		if err != nil {
			return err
		}
		fmt.Printf("sram: wrote %d banks\n", n)
	}
	return nil
}

// machineView is the part of the machine state worth drawing as a graph.
type machineView struct {
	CPU   *machine.CPU
	MBC   *machine.MBC
	RTC   *rtc.Clock
	Sound *machine.Sound
}

func runState(args []string) error {
	var sf sessionFlags
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	sf.register(fs)
	in := fs.String("in", "", "save-state file")
	slot := fs.Int("slot", 0, "save-state slot, used when -in is empty")
	wavOut := fs.String("wav", "", "write the wave table to a WAV file")
	vizOut := fs.String("memviz", "", "write a graphviz dump of the registers")
	fs.Parse(args)

	s, err := sf.open()
	if err != nil {
		return err
	}
	defer s.Unload()

	path := *in
	if path == "" {
		path = s.StatePath(*slot)
	}
	if err := s.LoadStateFile(path); err != nil {
		return err
	}

	m := s.Machine()
	for _, e := range state.Fields(m) {
		fmt.Printf("%s  %d  %#x\n", e.Tag, e.Width, e.Value)
	}

	if *wavOut != "" {
		f, err := os.Create(*wavOut)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := waveform.Encode(f, m.Sound.Wave, waveform.Options{}); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", *wavOut)
	}

	if *vizOut != "" {
		f, err := os.Create(*vizOut)
		if err != nil {
			return err
		}
		defer f.Close()
		memviz.Map(f, &machineView{CPU: &m.CPU, MBC: &m.MBC, RTC: &m.RTC, Sound: &m.Sound})
		fmt.Printf("wrote %s\n", *vizOut)
	}
	return nil
}

func runSRAM(args []string) error {
	var sf sessionFlags
	fs := flag.NewFlagSet("sram", flag.ExitOnError)
	sf.register(fs)
	in := fs.String("in", "", "battery RAM file, default derived from the ROM path")
	fs.Parse(args)

	s, err := sf.open()
	if err != nil {
		return err
	}
	defer s.Unload()

	n, err := s.LoadSRAM(*in)
	if err != nil {
		return err
	}
	sram := s.SRAM()
	fmt.Printf("restored %d of %d banks\n", n, sram.Len())
	for i := 0; i < sram.Len(); i++ {
		fmt.Printf("  bank %d: saved=%v\n", i, sram.IsSaved(i))
	}
	if s.Cartridge().HasRTC {
		fmt.Printf("rtc: %s\n", &s.Machine().RTC)
	}
	return nil
}

// parseTime parses D:H:M:S.
func parseTime(v string) ([4]int, error) {
	var t [4]int
	parts := strings.Split(v, ":")
	if len(parts) != 4 {
		return t, fmt.Errorf("time %q is not D:H:M:S", v)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return t, fmt.Errorf("time %q: %w", v, err)
		}
		t[i] = n
	}
	return t, nil
}

func runRTC(args []string) error {
	var sf sessionFlags
	fs := flag.NewFlagSet("rtc", flag.ExitOnError)
	sf.register(fs)
	path := fs.String("sram", "", "battery RAM file, default derived from the ROM path")
	set := fs.String("set", "", "new clock value as D:H:M:S")
	fs.Parse(args)

	t, err := parseTime(*set)
	if err != nil {
		return err
	}

	s, err := sf.open()
	if err != nil {
		return err
	}
	defer s.Unload()

	if !s.Cartridge().HasRTC {
		return fmt.Errorf("%s has no clock", s.Cartridge().Name())
	}
	if _, err := s.LoadSRAM(*path); err != nil {
		fmt.Printf("sram: %v\n", err)
	}
	s.SetTime(t[0], t[1], t[2], t[3])
	if _, err := s.SaveSRAM(*path, false); err != nil {
		return err
	}
	fmt.Printf("rtc: %s\n", &s.Machine().RTC)
	return nil
}

func runView(args []string) error {
	var sf sessionFlags
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	sf.register(fs)
	statePath := fs.String("state", "", "save-state to load before starting")
	scale := fs.Int("scale", 3, "window scale")
	title := fs.String("title", "gbemu", "window title")
	slot := fs.Int("slot", 0, "save-state slot for the hotkeys")
	sram := fs.Bool("save", true, "load battery RAM on start and save it on exit")
	fs.Parse(args)

	s, err := sf.open()
	if err != nil {
		return err
	}
	defer s.Unload()

	if *sram && s.Cartridge().HasBattery {
		if _, err := s.LoadSRAM(""); err != nil {
			fmt.Printf("sram: %v\n", err)
		}
	}
	if *statePath != "" {
		if err := s.LoadStateFile(*statePath); err != nil {
			return err
		}
	}

	app := ui.NewApp(ui.Config{Title: *title, Scale: *scale, Slot: *slot}, s)
	if err := app.Run(); err != nil {
		return err
	}

	if *sram && s.SRAMDirty() {
		if _, err := s.SaveSRAM("", true); err != nil {
			return err
		}
	}
	return nil
}
