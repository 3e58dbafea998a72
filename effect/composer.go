// Package effect composes cells into shapes, spirals and bursts on top of an
// entity world.
package effect

import (
	"image"
	"math"
	"time"

	"github.com/olivierh59500/circuitboard/clock"
	"github.com/olivierh59500/circuitboard/entity"
	"github.com/olivierh59500/circuitboard/grid"
	"github.com/olivierh59500/circuitboard/shape"
	"github.com/olivierh59500/circuitboard/surface"
)

// Options tunes how shapes are laid out and brought in.
type Options struct {
	Palette     entity.Palette
	FillRatio   float64
	MaxFontSize float64

	// Shape cells light up one after another across this window.
	ActivationMin time.Duration
	ActivationMax time.Duration
}

// DefaultOptions returns shapes filling 80% of the layer, text capped at
// 500px, cells activating between 200ms and 500ms.
func DefaultOptions() Options {
	return Options{
		Palette:       entity.DefaultPalette(),
		FillRatio:     0.8,
		MaxFontSize:   500,
		ActivationMin: 200 * time.Millisecond,
		ActivationMax: 500 * time.Millisecond,
	}
}

// Composer draws text and images as lit cells and runs the transition
// effects between them.
type Composer struct {
	world *entity.World
	main  *surface.Surface
	layer *surface.Surface
	font  *shape.Font
	clk   clock.Clock
	opts  Options

	lastText   string
	lastImage  image.Image
	lastMatrix shape.Matrix

	pointer    grid.Coord
	hasPointer bool

	// OnBurst is called once per Explode with the number of cells lit.
	OnBurst func(cells int)
}

// New creates a composer painting cells onto main and laying shapes out on
// layer.
func New(w *entity.World, main, layer *surface.Surface, font *shape.Font, clk clock.Clock, opts Options) *Composer {
	return &Composer{
		world: w,
		main:  main,
		layer: layer,
		font:  font,
		clk:   clk,
		opts:  opts,
	}
}

// Text returns the text currently shown, if any
func (c *Composer) Text() string { return c.lastText }

// Image returns the image currently shown, if any
func (c *Composer) Image() image.Image { return c.lastImage }

// Matrix returns the cells of the current shape in activation order. It is
// nil when no shape is shown.
func (c *Composer) Matrix() shape.Matrix { return c.lastMatrix }

// RenderText replaces the current shape with s. An empty s only clears, and
// plays the closing spiral when text was showing.
func (c *Composer) RenderText(s string) shape.Matrix {
	hadText := c.lastText != ""
	c.Clear()

	if s == "" {
		if hadText {
			c.Spiral(SpiralOptions{
				Reverse:       true,
				Lifetime:      500 * time.Millisecond,
				ElectronCount: 2,
			})
		}
		return nil
	}

	c.Spiral(SpiralOptions{})
	c.lastImage = nil
	c.lastText = s

	size := c.fitText(s)
	// glyphs are drawn in backing pixels
	face := c.font.Face(size * c.layer.Scale())
	w, h := c.layer.Width(), c.layer.Height()
	_ = c.layer.Repaint(func(pen *surface.Pen) error {
		pen.SetFill(c.opts.Palette.Font)
		pen.FillText(face, s, w/2, h/2)
		return nil
	})
	return c.stamp()
}

func (c *Composer) fitText(s string) float64 {
	advance := func(size float64) float64 {
		w, _ := c.font.Measure(s, size)
		return w
	}
	size := shape.FitWidth(advance, c.layer.Width(), c.opts.FillRatio, c.opts.MaxFontSize)
	return max(size, 1)
}

// RenderImage replaces the current shape with img, scaled to fit and
// centered. A nil image only clears.
func (c *Composer) RenderImage(img image.Image) shape.Matrix {
	c.Clear()
	if img == nil {
		return nil
	}

	c.Spiral(SpiralOptions{})
	c.lastText = ""
	c.lastImage = img

	b := img.Bounds()
	x, y, w, h := shape.FitImage(float64(b.Dx()), float64(b.Dy()), c.layer.Width(), c.layer.Height(), c.opts.FillRatio)
	_ = c.layer.Repaint(func(pen *surface.Pen) error {
		pen.DrawImage(img, x, y, w, h)
		return nil
	})
	return c.stamp()
}

// Rerender lays the current text or image out again, after the shape layer
// changed size.
func (c *Composer) Rerender() shape.Matrix {
	switch {
	case c.lastText != "":
		return c.RenderText(c.lastText)
	case c.lastImage != nil:
		return c.RenderImage(c.lastImage)
	}
	return nil
}

// stamp rasterizes the shape layer and pins one cell per covered grid
// position, in shuffled order with increasing activation times. The layer
// is sampled at its backing resolution.
func (c *Composer) stamp() shape.Matrix {
	pitch := int(math.Round(float64(c.world.Config().Geometry.Pitch()) * c.layer.Scale()))
	m := shape.Shuffle(shape.Rasterize(c.layer.Pixels(), pitch), c.world.Rand())
	c.lastMatrix = m

	now := c.clk.Now()
	lo, span := c.opts.ActivationMin, max(0, c.opts.ActivationMax-c.opts.ActivationMin)
	for i, coord := range m {
		cell := c.world.NewCell(coord, entity.ShapeCellOptions(c.world.Rand(), c.opts.Palette))
		cell.PinForever(now)
		cell.NextRepaint = now.Add(lo + span*time.Duration(i)/time.Duration(len(m)))
	}
	return m
}

// Clear drops every pinned cell and the current shape. A shape that was
// showing bursts apart.
func (c *Composer) Clear() {
	last := c.lastMatrix
	c.lastText = ""
	c.lastImage = nil
	c.lastMatrix = nil
	c.world.ClearCells()

	if last != nil {
		c.Explode(last)
	}
}

// Reset forgets the current shape and pointer without any transition.
func (c *Composer) Reset() {
	c.lastText = ""
	c.lastImage = nil
	c.lastMatrix = nil
	c.hasPointer = false
}

// Explode bursts cells apart and returns how many it lit. Particles close to
// expiry are dropped first. With a matrix, a few of its leading cells burst;
// without one, 10 to 20 random cells do, as long as the particle cap allows.
func (c *Composer) Explode(m shape.Matrix) int {
	now := c.clk.Now()
	r := c.world.Rand()
	c.world.PruneParticles(now, time.Second)

	lit := 0
	if m != nil {
		n := min(50, entity.RandInt(r, len(m)/20, len(m)/10), len(m))
		for _, coord := range m[:n] {
			cell := c.world.NewCell(coord, entity.ExplodeCellOptions(r, c.opts.Palette))
			cell.ConsiderRepaint(c.main, now)
		}
		lit = n
	} else {
		n := entity.RandInt(r, 10, 20)
		for i := 0; i < n; i++ {
			if c.SpawnRandom(entity.ExplodeCellOptions(r, c.opts.Palette)) {
				lit++
			}
		}
	}

	if c.OnBurst != nil {
		c.OnBurst(lit)
	}
	return lit
}

// SpawnRandom lights a cell at a random grid position. It does nothing when
// the particle cap is reached.
func (c *Composer) SpawnRandom(opts entity.CellOptions) bool {
	if c.world.Room() <= 0 {
		return false
	}
	r := c.world.Rand()
	rows, cols := c.world.Config().Geometry.Dims(c.main.Width(), c.main.Height())
	coord := grid.Coord{Row: entity.RandInt(r, 0, rows), Col: entity.RandInt(r, 0, cols)}
	c.world.NewCell(coord, opts).ConsiderRepaint(c.main, c.clk.Now())
	return true
}

// Touch lights the cell under the logical point (x, y). Moves that stay in
// the cell lit by the previous move are ignored.
func (c *Composer) Touch(x, y float64, moving bool) bool {
	coord := c.world.Config().Geometry.CellAt(x, y)
	if moving {
		same := c.hasPointer && coord == c.pointer
		c.pointer, c.hasPointer = coord, true
		if same {
			return false
		}
	}
	cell := c.world.NewCell(coord, entity.PointerCellOptions(c.opts.Palette, moving))
	cell.ConsiderRepaint(c.main, c.clk.Now())
	return true
}
