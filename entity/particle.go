// Package entity holds the particles and cells of the board and the world
// that owns them.
package entity

import (
	"image/color"
	"math"
	"math/rand"
	"time"

	"github.com/olivierh59500/circuitboard/grid"
	"github.com/olivierh59500/circuitboard/surface"
)

// MaxRetargetRetries bounds how often a particle re-rolls a destination it
// already visited before accepting it anyway.
const MaxRetargetRetries = 4

// Particle is a point of light that walks the grid lines until it expires.
type Particle struct {
	Pos      grid.Point
	Dest     grid.Point
	Speed    float64
	Color    color.NRGBA
	Radius   float64
	Blur     float64
	Born     time.Time
	Lifetime time.Duration
	ExpireAt time.Time

	moves   [4]grid.Point
	visited map[grid.Point]struct{}
}

// NewParticle creates a particle at pos with its first destination chosen.
func (w *World) NewParticle(pos grid.Point, opts ParticleOptions, now time.Time) *Particle {
	opts = opts.withDefaults(w.cfg.Particle)
	p := &Particle{
		Pos:      pos,
		Speed:    opts.Speed,
		Color:    opts.Color,
		Radius:   w.cfg.ParticleRadius,
		Blur:     w.cfg.ParticleBlur,
		Born:     now,
		Lifetime: opts.Lifetime,
		ExpireAt: now.Add(opts.Lifetime),
		moves:    w.cfg.Geometry.Moves(),
		visited:  make(map[grid.Point]struct{}),
	}
	p.setDest(p.randomPath(w.rng))
	return p
}

// Expired reports whether the particle's lifetime is over
func (p *Particle) Expired(now time.Time) bool {
	return !now.Before(p.ExpireAt)
}

// Visited reports whether dest was ever chosen as a destination
func (p *Particle) Visited(dest grid.Point) bool {
	_, ok := p.visited[dest]
	return ok
}

func (p *Particle) randomPath(r *rand.Rand) grid.Point {
	return p.Pos.Add(p.moves[r.Intn(len(p.moves))])
}

func (p *Particle) setDest(dest grid.Point) {
	p.Dest = dest
	p.visited[dest] = struct{}{}
}

// Advance moves the particle one step. Once within half a step of its
// destination on both axes it first picks a new one a grid pitch away.
// Each axis moves a full step on its own; diagonal travel is faster.
func (p *Particle) Advance(r *rand.Rand) grid.Point {
	half := p.Speed / 2
	if math.Abs(p.Pos.X-p.Dest.X) <= half && math.Abs(p.Pos.Y-p.Dest.Y) <= half {
		dest := p.randomPath(r)
		for try := 1; p.Visited(dest) && try <= MaxRetargetRetries; try++ {
			dest = p.randomPath(r)
		}
		p.setDest(dest)
	}

	if dx := p.Dest.X - p.Pos.X; dx != 0 {
		p.Pos.X += math.Copysign(p.Speed, dx)
	}
	if dy := p.Dest.Y - p.Pos.Y; dy != 0 {
		p.Pos.Y += math.Copysign(p.Speed, dy)
	}
	return p.Pos
}

// Opacity fades linearly from 1 at birth to 0 at expiry.
func (p *Particle) Opacity(now time.Time) float64 {
	if p.Lifetime <= 0 {
		return 0
	}
	left := float64(p.ExpireAt.Sub(now)) / float64(p.Lifetime)
	return math.Max(0, math.Min(1, left))
}

// Draw advances the particle and paints its glow.
func (p *Particle) Draw(s *surface.Surface, now time.Time, r *rand.Rand) {
	pos := p.Advance(r)
	_ = s.Paint(func(pen *surface.Pen) error {
		pen.SetAlpha(p.Opacity(now))
		pen.SetFill(p.Color)
		pen.SetGlow(p.Blur)
		pen.SetComposite(surface.Lighter)
		pen.FillDisc(pos.X, pos.Y, p.Radius)
		return nil
	})
}
