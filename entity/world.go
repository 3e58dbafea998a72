package entity

import (
	"math/rand"
	"time"

	"github.com/olivierh59500/circuitboard/grid"
	"github.com/olivierh59500/circuitboard/surface"
)

// Config holds the world-wide entity parameters
type Config struct {
	Geometry       grid.Geometry
	MaxParticles   int
	Particle       ParticleOptions
	ParticleRadius float64
	ParticleBlur   float64
	RepaintMin     time.Duration
	RepaintMax     time.Duration
}

// DefaultConfig returns the stock tuning: 100 particles, 3s default
// lifetime, repaints every 300-500ms.
func DefaultConfig() Config {
	g := grid.Default()
	radius := float64(g.Border) / 2
	return Config{
		Geometry:     g,
		MaxParticles: 100,
		Particle: ParticleOptions{
			Lifetime: 3 * time.Second,
			Speed:    1,
			Color:    DefaultPalette().Electron,
		},
		ParticleRadius: radius,
		ParticleBlur:   radius * 5,
		RepaintMin:     300 * time.Millisecond,
		RepaintMax:     500 * time.Millisecond,
	}
}

// World owns the active particles and pinned cells. Both collections keep
// insertion order. Producers append; the animation loop sweeps.
type World struct {
	cfg Config
	rng *rand.Rand

	Particles []*Particle
	Cells     []*Cell
}

// NewWorld creates an empty world
func NewWorld(cfg Config, rng *rand.Rand) *World {
	return &World{cfg: cfg, rng: rng}
}

// Config returns the world parameters
func (w *World) Config() Config { return w.cfg }

// Rand returns the world's random source
func (w *World) Rand() *rand.Rand { return w.rng }

// Room returns how many particles can still be added under the cap.
func (w *World) Room() int {
	return max(0, w.cfg.MaxParticles-len(w.Particles))
}

// AddParticle appends p to the active particles
func (w *World) AddParticle(p *Particle) {
	w.Particles = append(w.Particles, p)
}

func (w *World) pin(c *Cell) {
	w.Cells = append(w.Cells, c)
}

// ClearCells drops every pinned cell
func (w *World) ClearCells() {
	clear(w.Cells)
	w.Cells = w.Cells[:0]
}

// Reset drops every cell and particle
func (w *World) Reset() {
	w.ClearCells()
	clear(w.Particles)
	w.Particles = w.Particles[:0]
}

// PruneParticles drops particles with less than within left to live.
func (w *World) PruneParticles(now time.Time, within time.Duration) {
	w.Particles = filter(w.Particles, func(p *Particle) bool {
		return p.ExpireAt.Sub(now) >= within
	}, nil)
}

// Sweep draws every live pinned cell, then every live particle, in
// insertion order, dropping expired entries of both. Particles emitted by
// cells during the pass are drawn in the same pass.
func (w *World) Sweep(s *surface.Surface, now time.Time) {
	w.Cells = filter(w.Cells, func(c *Cell) bool {
		return !c.Expired(now)
	}, func(c *Cell) {
		c.ConsiderRepaint(s, now)
	})
	w.Particles = filter(w.Particles, func(p *Particle) bool {
		return !p.Expired(now)
	}, func(p *Particle) {
		p.Draw(s, now, w.rng)
	})
}

// filter keeps the entries matching keep, in order, visiting each kept
// entry. It compacts in place; the dropped tail is zeroed.
func filter[T any](list []T, keep func(T) bool, visit func(T)) []T {
	kept := list[:0]
	for _, v := range list {
		if !keep(v) {
			continue
		}
		if visit != nil {
			visit(v)
		}
		kept = append(kept, v)
	}
	clear(list[len(kept):])
	return kept
}
