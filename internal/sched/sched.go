// Package sched runs the interpreter in the cycle quanta that make up one
// video frame.
//
// A frame is 35112 cycles whether or not the display is enabled and whether
// or not the frame is drawn. Everything that counts cycles, such as the
// cartridge clock, therefore keeps time during frame skipping.
package sched

import (
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/logger"
)

// Frame structure in cycles.
const (
	FrameCycles   = 35112
	LineCycles    = 228
	VisibleLines  = 144
	VBlankQuantum = 2280  // the part of vertical blank run before the visible lines
	BlankFrame    = 32832 // the visible part of a frame with the display disabled
)

// lineLimit bounds every per-line loop in case the collaborators do not
// advance the scan line.
const lineLimit = 2 * 154

// lcdEnable is the display enable bit of LCDC.
const lcdEnable = 0x80

// Interpreter executes instructions.
type Interpreter interface {
	// Emulate runs for at least the given number of cycles and returns the
	// number actually run.
	Emulate(cycles int) int
}

// Video is the timing side of the video controller.
type Video interface {
	// Cycles returns the cycle budget of the current scan line.
	Cycles() int
	LY() int
	LCDC() byte

	// VBlank is called at the end of the visible frame.
	VBlank()

	SetRendering(on bool)
}

// Ticker is told about every cycle executed.
type Ticker interface {
	Advance(cycles int)
}

// Scheduler drives one frame at a time.
type Scheduler struct {
	CPU    Interpreter
	Video  Video
	Ticker Ticker

	frames uint64
	cycles uint64
}

// Stats returns the number of frames and cycles run so far.
func (s *Scheduler) Stats() (frames uint64, cycles uint64) {
	return s.frames, s.cycles
}

func (s *Scheduler) emulate(cycles int) int {
	ran := s.CPU.Emulate(cycles)
	s.cycles += uint64(ran)
	if s.Ticker != nil {
		s.Ticker.Advance(ran)
	}
	return ran
}

func (s *Scheduler) line() int {
	if c := s.Video.Cycles(); c > 0 {
		return c
	}
	return LineCycles
}

// RunFrame runs one frame and returns the number of cycles executed. The
// draw flag only tells the video controller whether to render.
func (s *Scheduler) RunFrame(draw bool) int {
	s.Video.SetRendering(draw)

	total := s.emulate(VBlankQuantum)

	n := 0
	for ly := s.Video.LY(); ly > 0 && ly < VisibleLines; ly = s.Video.LY() {
		if n++; n > lineLimit {
			logger.Logf(logger.Allow, "sched", "scan line stuck at %d", ly)
			break
		}
		total += s.emulate(s.line())
	}

	s.Video.VBlank()

	if s.Video.LCDC()&lcdEnable == 0 {
		total += s.emulate(BlankFrame)
	} else {
		n = 0
		for ly := s.Video.LY(); ly > 0; ly = s.Video.LY() {
			if n++; n > lineLimit {
				logger.Logf(logger.Allow, "sched", "scan line stuck at %d", ly)
				break
			}
			total += s.emulate(s.line())
		}
	}

	s.frames++
	return total
}
