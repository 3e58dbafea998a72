package effect

import (
	"math"
	"time"

	"github.com/olivierh59500/circuitboard/clock"
	"github.com/olivierh59500/circuitboard/entity"
	"github.com/olivierh59500/circuitboard/grid"
)

// SpiralOptions shapes a ring or spiral of cells around the board center.
// Zero fields take the defaults noted per field.
type SpiralOptions struct {
	// Radius in cells. Nil selects a third of the smaller grid dimension.
	Radius *float64
	// Increment grows the radius after every cell; zero draws a ring.
	Increment float64
	// AngleStep in degrees between cells, 15 by default. Its sign is
	// ignored: the sweep runs clockwise unless Reverse is set.
	AngleStep float64
	Reverse   bool

	// Lifetime of the emitted particles, 250ms by default.
	Lifetime time.Duration
	// ElectronCount per cell, 1 by default.
	ElectronCount int
	// Capped makes the cells respect the particle cap.
	Capped bool
}

// Radius returns a pointer to r for SpiralOptions.Radius.
func Radius(r float64) *float64 { return &r }

// Spiral pins cells along a spiral that starts at a random angle. Each cell
// activates 16ms after the previous one, so the path is traced in order.
func (c *Composer) Spiral(opts SpiralOptions) []*entity.Cell {
	g := c.world.Config().Geometry
	r := c.world.Rand()
	rows, cols := g.Dims(c.main.Width(), c.main.Height())
	center := grid.Coord{Row: rows / 2, Col: cols / 2}

	radius := float64(min(rows, cols) / 3)
	if opts.Radius != nil {
		radius = *opts.Radius
	}
	step := math.Abs(opts.AngleStep)
	if step == 0 {
		step = 15
	}
	count := int(360 / step)
	if !opts.Reverse {
		step = -step
	}
	lifetime := opts.Lifetime
	if lifetime <= 0 {
		lifetime = 250 * time.Millisecond
	}
	electrons := opts.ElectronCount
	if electrons <= 0 {
		electrons = 1
	}

	cellOpts := entity.CellOptions{
		ElectronCount: electrons,
		Force:         !opts.Capped,
		Background:    c.opts.Palette.Highlight,
		Particle: entity.ParticleOptions{
			Lifetime: lifetime,
			Speed:    3,
			Color:    c.opts.Palette.Highlight,
		},
	}

	now := c.clk.Now()
	deg := float64(entity.RandInt(r, 0, 360))
	cells := make([]*entity.Cell, 0, count)
	for i := 1; i <= count; i++ {
		rad := deg * math.Pi / 180
		coord := grid.Coord{
			Row: center.Row + int(math.Floor(radius*math.Sin(rad))),
			Col: center.Col + int(math.Floor(radius*math.Cos(rad))),
		}
		cell := c.world.NewCell(coord, cellOpts)
		cell.Delay(now, clock.Millis(16*i))
		cells = append(cells, cell)

		deg += step
		radius += opts.Increment
	}
	return cells
}
