package emu

import "github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/lcd"

// Idle is the interpreter used until a real one is attached. It executes no
// instructions but lets the video timing advance, as if the CPU were halted
// with interrupts disabled.
type Idle struct {
	Video *lcd.Controller
}

func (i Idle) Emulate(cycles int) int {
	i.Video.Advance(cycles)
	return cycles
}
