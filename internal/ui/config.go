package ui

// Config contains window and input related settings.
type Config struct {
	Title string // window title
	Scale int    // integer upscaling factor
	TPS   int    // ticks per second, one emulated frame per tick
	Slot  int    // save-state slot used by the hotkeys
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "gbemu"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	if c.TPS <= 0 {
		c.TPS = 60
	}
	if c.Slot < 0 {
		c.Slot = 0
	}
}
