package engine

import (
	"image/color"

	"github.com/olivierh59500/circuitboard/surface"
)

// paintGrid fills the background layer with the board: tiles separated by
// border lines, some border segments lit as traces where the noise field
// peaks.
func (e *Engine) paintGrid(s *surface.Surface) {
	g := e.opts.Entity.Geometry
	pitch := float64(g.Pitch())
	cell, border := float64(g.CellSize), float64(g.Border)
	w, h := s.Width(), s.Height()

	_ = s.Repaint(func(pen *surface.Pen) error {
		pen.SetFill(e.opts.Background)
		pen.FillRect(0, 0, w, h)

		pen.SetFill(e.opts.Border)
		for y := cell; y < h; y += pitch {
			pen.FillRect(0, y, w, border)
		}
		for x := cell; x < w; x += pitch {
			pen.FillRect(x, 0, border, h)
		}

		if e.opts.TraceThreshold >= 1 || e.opts.Trace == (color.NRGBA{}) {
			return nil
		}
		pen.SetFill(e.opts.Trace)
		scale := e.opts.TraceScale
		for row, y := 0, cell; y < h; row, y = row+1, y+pitch {
			for col, x := 0, 0.0; x < w; col, x = col+1, x+pitch {
				if e.noise.Noise2D(float64(col)*scale, float64(row)*scale) > e.opts.TraceThreshold {
					pen.FillRect(x, y, pitch, border)
				}
			}
		}
		for col, x := 0, cell; x < w; col, x = col+1, x+pitch {
			for row, y := 0, 0.0; y < h; row, y = row+1, y+pitch {
				// offset so vertical traces do not mirror horizontal ones
				if e.noise.Noise2D(float64(col)*scale+97.3, float64(row)*scale+41.9) > e.opts.TraceThreshold {
					pen.FillRect(x, y, border, pitch)
				}
			}
		}
		return nil
	})
}

// prepaint whitens the visible layer and fades the grid in over it, so the
// board appears with a flash. The background layer must be painted first.
func (e *Engine) prepaint(s *surface.Surface) {
	w, h := s.Width(), s.Height()
	_ = s.Repaint(func(pen *surface.Pen) error {
		pen.SetFill(color.White)
		pen.FillRect(0, 0, w, h)
		return nil
	})
	s.CompositeFrom(e.bg, e.opts.PrepaintOpacity, surface.Normal)
}
