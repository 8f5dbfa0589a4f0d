package ui

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/emu"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/lcd"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/logger"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// screen layout: tile sheet on the left, status panel on the right
const (
	panelWidth   = 132
	screenWidth  = lcd.TileSheetWidth + panelWidth
	screenHeight = lcd.TileSheetHeight
	numSlots     = 10
	fastFrames   = 5
	toastTicks   = 120
)

// App is a debug shell around a session. It runs one frame per tick and
// shows the video RAM tile sheet next to the state of the session.
type App struct {
	cfg    Config
	s      *emu.Session
	tex    *ebiten.Image
	pix    []byte
	paused bool
	fast   bool

	toast      string
	toastTicks int

	wave   *waveStream
	player *audio.Player
}

func NewApp(cfg Config, s *emu.Session) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(screenWidth*cfg.Scale, screenHeight*cfg.Scale)
	ebiten.SetTPS(cfg.TPS)
	return &App{
		cfg:  cfg,
		s:    s,
		pix:  make([]byte, lcd.TileSheetWidth*lcd.TileSheetHeight*4),
		wave: &waveStream{muted: true},
	}
}

func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) notify(format string, args ...any) {
	a.toast = fmt.Sprintf(format, args...)
	a.toastTicks = toastTicks
	logger.Log(logger.Allow, "ui", a.toast)
}

func (a *App) Update() error {
	// Keyboard → Game Boy buttons
	var btn emu.Buttons
	btn.Right = ebiten.IsKeyPressed(ebiten.KeyRight)
	btn.Left = ebiten.IsKeyPressed(ebiten.KeyLeft)
	btn.Up = ebiten.IsKeyPressed(ebiten.KeyUp)
	btn.Down = ebiten.IsKeyPressed(ebiten.KeyDown)
	btn.A = ebiten.IsKeyPressed(ebiten.KeyZ)
	btn.B = ebiten.IsKeyPressed(ebiten.KeyX)
	btn.Start = ebiten.IsKeyPressed(ebiten.KeyEnter)
	btn.Select = ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	a.s.SetButtons(btn)

	// Pause toggle (P)
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}

	// Fast-forward (Tab): while held, skip drawing of all but one frame per tick
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)

	// Reset (R), hard reset with shift
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		hard := ebiten.IsKeyPressed(ebiten.KeyShiftLeft)
		a.s.Reset(hard)
		a.notify("reset (hard=%v)", hard)
	}

	// Persistence
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		if n, err := a.s.SaveSRAM("", true); err != nil {
			a.notify("sram save failed: %v", err)
		} else {
			a.notify("sram saved (%d banks)", n)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		if err := a.s.SaveState(a.cfg.Slot); err != nil {
			a.notify("save failed: %v", err)
		} else {
			a.notify("saved slot %d", a.cfg.Slot)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		a.cfg.Slot = (a.cfg.Slot + 1) % numSlots
		a.notify("slot %d", a.cfg.Slot)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF4) {
		if err := a.s.LoadState(a.cfg.Slot); err != nil {
			a.notify("load failed: %v", err)
		} else {
			a.notify("loaded slot %d", a.cfg.Slot)
		}
	}

	// Palette cycle (C)
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		a.s.SetPalette((a.s.Palette() + 1) % lcd.NumPalettes)
		a.notify("palette %s", a.s.Palette())
	}

	// Wave table preview (W)
	if inpututil.IsKeyJustPressed(ebiten.KeyW) {
		a.toggleWave()
	}

	// Screenshot of the tile sheet (F12)
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		if name, err := a.saveScreenshot(); err != nil {
			a.notify("screenshot failed: %v", err)
		} else {
			a.notify("wrote %s", name)
		}
	}

	switch {
	case a.paused:
		// Frame-step when paused (N)
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			a.s.RunFrame(true)
		}
	case a.fast:
		for i := 1; i < fastFrames; i++ {
			a.s.RunFrame(false)
		}
		a.s.RunFrame(true)
	default:
		a.s.RunFrame(true)
	}

	if m := a.s.Machine(); m != nil {
		a.wave.setWave(m.Sound.Wave)
	}
	if a.toastTicks > 0 {
		a.toastTicks--
	}
	return nil
}

func (a *App) toggleWave() {
	if a.player == nil {
		ctx := audio.CurrentContext()
		if ctx == nil {
			ctx = audio.NewContext(sampleRate)
		}
		p, err := ctx.NewPlayer(a.wave)
		if err != nil {
			a.notify("audio: %v", err)
			return
		}
		p.SetBufferSize(40 * time.Millisecond)
		p.Play()
		a.player = p
	}
	if a.wave.toggle() {
		a.notify("wave preview off")
	} else {
		a.notify("wave preview on")
	}
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(lcd.TileSheetWidth, lcd.TileSheetHeight)
	}
	if v := a.s.LCD(); v != nil {
		v.TileSheet(0, a.pix)
		a.tex.WritePixels(a.pix)
	}
	screen.DrawImage(a.tex, nil)

	x := lcd.TileSheetWidth + 4
	for i, line := range a.status() {
		ebitenutil.DebugPrintAt(screen, line, x, 2+i*14)
	}
	if a.toastTicks > 0 {
		ebitenutil.DebugPrintAt(screen, a.toast, x, screenHeight-16)
	}
}

func (a *App) status() []string {
	if !a.s.Loaded() {
		return []string{"no cartridge"}
	}
	c := a.s.Cartridge()
	frames, _ := a.s.Scheduler().Stats()
	stats := a.s.Banks().Stats()
	d, h, m, sec := a.s.Time()
	lines := []string{
		c.Name(),
		c.MBC.String(),
		fmt.Sprintf("frame %d", frames),
		fmt.Sprintf("LY %3d", a.s.LCD().LY()),
		fmt.Sprintf("rom %d/%d", stats.Resident, c.ROMSize),
		fmt.Sprintf("slot %d", a.cfg.Slot),
	}
	if c.HasRTC {
		lines = append(lines, fmt.Sprintf("%03d %02d:%02d:%02d", d, h, m, sec))
	}
	if a.s.SRAMDirty() {
		lines = append(lines, "sram dirty")
	}
	if a.paused {
		lines = append(lines, "paused")
	}
	return lines
}

func (a *App) Layout(outW, outH int) (int, int) { return screenWidth, screenHeight }

func (a *App) saveScreenshot() (string, error) {
	img := &image.RGBA{
		Pix:    make([]byte, len(a.pix)),
		Stride: 4 * lcd.TileSheetWidth,
		Rect:   image.Rect(0, 0, lcd.TileSheetWidth, lcd.TileSheetHeight),
	}
	copy(img.Pix, a.pix)
	ts := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("tiles_%s.png", ts)
	f, err := os.Create(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return name, png.Encode(f, img)
}
