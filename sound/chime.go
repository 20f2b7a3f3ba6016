// Package sound plays the completion chime.
package sound

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(48000)

// Chime plays a short decaying tone through the system speaker.
type Chime struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	frequency   float64
	length      time.Duration
	initialized bool
}

// NewChime creates a chime. Nothing is played until Initialize succeeds.
func NewChime(frequency float64, length time.Duration) *Chime {
	return &Chime{
		mixer:     &beep.Mixer{},
		frequency: frequency,
		length:    length,
	}
}

// Initialize opens the speaker. Calling it again is a no-op.
func (c *Chime) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(c.mixer)
	c.initialized = true
	return nil
}

// Play queues one chime. It does nothing before Initialize.
func (c *Chime) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return
	}
	n := sampleRate.N(c.length)
	speaker.Lock()
	c.mixer.Add(beep.Take(n, NewToneGenerator(sampleRate, c.frequency, n)))
	speaker.Unlock()
}

// Close silences anything still queued.
func (c *Chime) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return
	}
	speaker.Lock()
	c.mixer.Clear()
	speaker.Unlock()
	c.initialized = false
}

// ToneGenerator streams a sine tone whose amplitude decays linearly to
// zero over length samples.
type ToneGenerator struct {
	sr     beep.SampleRate
	freq   float64
	length int
	pos    int
}

func NewToneGenerator(sr beep.SampleRate, freq float64, length int) *ToneGenerator {
	return &ToneGenerator{sr: sr, freq: freq, length: length}
}

func (g *ToneGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		envelope := 0.0
		if g.pos < g.length {
			envelope = 0.3 * (1 - float64(g.pos)/float64(g.length))
		}
		t := float64(g.pos) / float64(g.sr)
		sample := envelope * math.Sin(2*math.Pi*g.freq*t)

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *ToneGenerator) Err() error {
	return nil
}
