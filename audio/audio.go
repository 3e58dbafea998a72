// Package audio plays a short tone for every burst on the board.
package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	blipLength = 60 * time.Millisecond
	basePitch  = 220.0
	maxPitch   = 1760.0
)

// Player plays burst blips. The zero value and a nil Player are disabled
// and do nothing.
type Player struct {
	mu     sync.Mutex
	rate   beep.SampleRate
	volume float64
	ready  bool
}

// NewPlayer creates a disabled player
func NewPlayer() *Player {
	return &Player{}
}

// Init opens the speaker at sampleRate. volume is linear in [0, 1].
func (p *Player) Init(sampleRate int, volume float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ready {
		return nil
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	rate := beep.SampleRate(sampleRate)
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return fmt.Errorf("initializing speaker: %w", err)
	}
	p.rate = rate
	p.volume = min(max(volume, 0), 1)
	p.ready = true
	return nil
}

// Blip plays a tone whose pitch rises with the number of cells lit.
func (p *Player) Blip(cells int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ready || p.volume == 0 {
		return
	}
	sine, err := generators.SineTone(p.rate, Pitch(cells))
	if err != nil {
		return
	}
	speaker.Play(&effects.Volume{
		Streamer: beep.Take(p.rate.N(blipLength), sine),
		Base:     2,
		Volume:   math.Log2(p.volume),
	})
}

// Close releases the speaker.
func (p *Player) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ready {
		return
	}
	speaker.Close()
	p.ready = false
}

// Pitch maps a burst size to a frequency: half an octave up for every doubling
// of the cell count, from basePitch for a single cell up to maxPitch.
func Pitch(cells int) float64 {
	if cells < 1 {
		cells = 1
	}
	return min(basePitch*math.Sqrt(float64(cells)), maxPitch)
}
