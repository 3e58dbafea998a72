package entity

import (
	"image/color"
	"math"
	"time"

	"github.com/olivierh59500/circuitboard/grid"
	"github.com/olivierh59500/circuitboard/surface"
)

// MaxElectrons is the number of tile corners a cell can emit from
const MaxElectrons = 4

// Forever is the lifetime of a cell pinned without an explicit one.
const Forever = time.Duration(math.MaxInt32) * time.Millisecond

// Cell is a grid tile that lights up every few hundred milliseconds and
// emits particles from its corners.
type Cell struct {
	Coord         grid.Coord
	Origin        grid.Point
	Background    color.NRGBA
	ElectronCount int
	Force         bool
	Particle      ParticleOptions

	// NextRepaint is the earliest time the cell may light up again; zero
	// means now.
	NextRepaint time.Time
	// ExpireAt is zero for a cell that never expires.
	ExpireAt time.Time

	w *World
}

// NewCell creates an unpinned cell at c.
func (w *World) NewCell(c grid.Coord, opts CellOptions) *Cell {
	return &Cell{
		Coord:         c,
		Origin:        w.cfg.Geometry.Origin(c),
		Background:    opts.Background,
		ElectronCount: max(0, min(opts.ElectronCount, MaxElectrons)),
		Force:         opts.Force,
		Particle:      opts.Particle,
		w:             w,
	}
}

// Expired reports whether a pinned cell has outlived its lifetime.
func (c *Cell) Expired(now time.Time) bool {
	return !c.ExpireAt.IsZero() && !now.Before(c.ExpireAt)
}

// Pin keeps the cell in the world until now+lifetime.
func (c *Cell) Pin(now time.Time, lifetime time.Duration) {
	c.ExpireAt = now.Add(lifetime)
	c.w.pin(c)
}

// PinForever pins the cell with an effectively unbounded lifetime.
func (c *Cell) PinForever(now time.Time) {
	c.Pin(now, Forever)
}

// Delay pins the cell for one and a half times d and holds its first
// repaint back until now+d.
func (c *Cell) Delay(now time.Time, d time.Duration) {
	c.Pin(now, d*3/2)
	c.NextRepaint = now.Add(d)
}

// ScheduleRepaint sets the next repaint to a random time in [lo, hi] from now.
func (c *Cell) ScheduleRepaint(now time.Time, lo, hi time.Duration) {
	c.NextRepaint = now.Add(RandMillis(c.w.rng, int(lo.Milliseconds()), int(hi.Milliseconds())))
}

// ConsiderRepaint lights the cell when it is due: it schedules the next
// repaint, emits particles and paints the tile.
func (c *Cell) ConsiderRepaint(s *surface.Surface, now time.Time) bool {
	if !c.NextRepaint.IsZero() && now.Before(c.NextRepaint) {
		return false
	}
	c.ScheduleRepaint(now, c.w.cfg.RepaintMin, c.w.cfg.RepaintMax)
	c.SpawnParticles(now)

	size := float64(c.w.cfg.Geometry.CellSize)
	_ = s.Paint(func(pen *surface.Pen) error {
		pen.SetComposite(surface.Lighter)
		pen.SetFill(c.Background)
		pen.FillRect(c.Origin.X, c.Origin.Y, size, size)
		return nil
	})
	return true
}

// SpawnParticles emits up to ElectronCount particles, each from a different
// corner picked at random. Unless forced, the world's particle cap limits
// the count. It returns the number of particles added.
func (c *Cell) SpawnParticles(now time.Time) int {
	n := min(c.ElectronCount, MaxElectrons)
	if !c.Force {
		n = min(n, c.w.Room())
	}
	if n <= 0 {
		return 0
	}

	corners := c.w.cfg.Geometry.Corners()
	left := corners[:]
	for i := 0; i < n; i++ {
		idx := c.w.rng.Intn(len(left))
		off := left[idx]
		left = append(left[:idx], left[idx+1:]...)
		c.w.AddParticle(c.w.NewParticle(c.Origin.Add(off), c.Particle, now))
	}
	return n
}
