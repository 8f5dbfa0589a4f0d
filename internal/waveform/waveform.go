// Package waveform exports the wave table of the third sound channel as a
// WAV file.
//
// The wave table is 16 bytes of I/O memory holding 32 4-bit samples, high
// nibble first. The exported file plays the table in a loop at a chosen
// pitch, which is a quick way to hear what a save-state had loaded into the
// channel.
package waveform

import (
	"io"
	"time"

	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/fault"
	"github.com/FabianRolfMatthiasNoll/GameBoyCore/internal/machine"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// NumSamples is the number of samples in the wave table.
const NumSamples = machine.WaveSize * 2

const (
	bitDepth      = 16
	numChans      = 1
	pcmFormat     = 1
	sampleStep    = 2048 // amplitude of one step of a 4-bit sample
	sampleCentre  = 15
	defaultRate   = 44100
	defaultPitch  = 440
	defaultLength = time.Second
)

// Options control the exported sound.
type Options struct {
	SampleRate int           // samples per second
	Frequency  float64       // times per second the whole table is played
	Duration   time.Duration // length of the recording
}

func (o Options) defaults() Options {
	if o.SampleRate <= 0 {
		o.SampleRate = defaultRate
	}
	if o.Frequency <= 0 {
		o.Frequency = defaultPitch
	}
	if o.Duration <= 0 {
		o.Duration = defaultLength
	}
	return o
}

// Samples splits the wave table into its 4-bit samples.
func Samples(wave [machine.WaveSize]byte) [NumSamples]int {
	var s [NumSamples]int
	for i, b := range wave {
		s[i*2] = int(b >> 4)
		s[i*2+1] = int(b & 0x0F)
	}
	return s
}

// PCM converts a 4-bit sample to a signed 16-bit value centred on zero.
func PCM(sample int) int {
	return (sample*2 - sampleCentre) * sampleStep / 2
}

// Encode writes the wave table to w as a mono 16-bit WAV file.
func Encode(w io.WriteSeeker, wave [machine.WaveSize]byte, opts Options) error {
	opts = opts.defaults()

	table := Samples(wave)
	n := int(int64(opts.Duration) * int64(opts.SampleRate) / int64(time.Second))
	step := opts.Frequency * NumSamples / float64(opts.SampleRate)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChans,
			SampleRate:  opts.SampleRate,
		},
		Data:           make([]int, n),
		SourceBitDepth: bitDepth,
	}

	pos := 0.0
	for i := range buf.Data {
		buf.Data[i] = PCM(table[int(pos)%NumSamples])
		pos += step
	}

	enc := wav.NewEncoder(w, opts.SampleRate, bitDepth, numChans, pcmFormat)
	if err := enc.Write(buf); err != nil {
		return fault.Wrap(fault.Storage, "waveform", err)
	}
	if err := enc.Close(); err != nil {
		return fault.Wrap(fault.Storage, "waveform", err)
	}
	return nil
}
