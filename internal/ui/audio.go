package ui

import (
	"encoding/binary"
	"sync"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/machine"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/waveform"
)

const (
	sampleRate = 48000
	wavePitch  = 220 // table repetitions per second
)

// waveStream implements io.Reader by looping the wave table of the third
// sound channel as 16-bit little-endian stereo frames. The table is copied
// in by the update loop; the audio player reads from its own goroutine.
type waveStream struct {
	crit  sync.Mutex
	table [waveform.NumSamples]int
	pos   float64
	muted bool
}

func (s *waveStream) setWave(wave [machine.WaveSize]byte) {
	s.crit.Lock()
	defer s.crit.Unlock()
	s.table = waveform.Samples(wave)
}

// toggle mutes or unmutes the stream and returns the new muted state.
func (s *waveStream) toggle() bool {
	s.crit.Lock()
	defer s.crit.Unlock()
	s.muted = !s.muted
	return s.muted
}

func (s *waveStream) Read(p []byte) (int, error) {
	s.crit.Lock()
	defer s.crit.Unlock()

	// whole frames only
	n := len(p) &^ 3
	if n == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	step := float64(wavePitch*waveform.NumSamples) / sampleRate
	for i := 0; i < n; i += 4 {
		var v int16
		if !s.muted {
			v = int16(waveform.PCM(s.table[int(s.pos)%waveform.NumSamples]))
		}
		binary.LittleEndian.PutUint16(p[i:], uint16(v))
		binary.LittleEndian.PutUint16(p[i+2:], uint16(v))
		s.pos += step
		if s.pos >= waveform.NumSamples {
			s.pos -= waveform.NumSamples
		}
	}
	return n, nil
}
