package entity

import (
	"image/color"
	"math/rand"
	"time"

	"github.com/olivierh59500/circuitboard/clock"
)

// Palette holds the colors the effects pick from
type Palette struct {
	Highlight color.NRGBA
	Electron  color.NRGBA
	Font      color.NRGBA
}

// DefaultPalette returns the orange-on-black theme
func DefaultPalette() Palette {
	return Palette{
		Highlight: color.NRGBA{0xF2, 0x5C, 0x1F, 0xFF},
		Electron:  color.NRGBA{0xF2, 0xF2, 0xF0, 0xFF},
		Font:      color.NRGBA{0xF2, 0x5C, 0x1F, 0xFF},
	}
}

// ParticleOptions configures a spawned particle. Zero fields take the
// world's defaults.
type ParticleOptions struct {
	Lifetime time.Duration
	Speed    float64
	Color    color.NRGBA
}

func (o ParticleOptions) withDefaults(d ParticleOptions) ParticleOptions {
	if o.Lifetime <= 0 {
		o.Lifetime = d.Lifetime
	}
	if o.Speed <= 0 {
		o.Speed = d.Speed
	}
	if o.Color == (color.NRGBA{}) {
		o.Color = d.Color
	}
	return o
}

// CellOptions configures a cell
type CellOptions struct {
	ElectronCount int
	Background    color.NRGBA
	Force         bool
	Particle      ParticleOptions
}

// RandInt returns a uniform integer in [lo, hi].
func RandInt(r *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

// RandMillis returns a uniform duration in [lo, hi] milliseconds.
func RandMillis(r *rand.Rand, lo, hi int) time.Duration {
	return clock.Millis(RandInt(r, lo, hi))
}

// ShapeParticleOptions are the particles emitted by cells tracing a shape.
func ShapeParticleOptions(r *rand.Rand, p Palette) ParticleOptions {
	return ParticleOptions{
		Speed:    2,
		Color:    p.Font,
		Lifetime: RandMillis(r, 300, 500),
	}
}

// ShapeCellOptions are the cells stamped onto a rasterized shape.
func ShapeCellOptions(r *rand.Rand, p Palette) CellOptions {
	return CellOptions{
		Background:    p.Font,
		ElectronCount: RandInt(r, 1, 4),
		Particle:      ShapeParticleOptions(r, p),
	}
}

// ExplodeCellOptions are shape cells with longer-lived particles.
func ExplodeCellOptions(r *rand.Rand, p Palette) CellOptions {
	o := ShapeCellOptions(r, p)
	o.Particle.Lifetime = RandMillis(r, 500, 1500)
	return o
}

// AmbientCellOptions are the background cells lit at random.
func AmbientCellOptions(r *rand.Rand, p Palette) CellOptions {
	return CellOptions{
		Background:    p.Electron,
		ElectronCount: RandInt(r, 1, 4),
	}
}

// PointerCellOptions are the cells lit under the pointer. Presses emit more
// and longer-lived particles than moves.
func PointerCellOptions(p Palette, moving bool) CellOptions {
	o := CellOptions{
		Background:    p.Highlight,
		Force:         true,
		ElectronCount: 4,
		Particle: ParticleOptions{
			Speed:    3,
			Lifetime: time.Second,
			Color:    p.Highlight,
		},
	}
	if moving {
		o.ElectronCount = 2
		o.Particle.Lifetime = 500 * time.Millisecond
	}
	return o
}
