// Package surface wraps a gg drawing context as a resizable, device-scaled
// layer that can be painted in scoped sessions and composited onto other
// layers.
package surface

import (
	"image"
	"image/draw"
	"math"

	"github.com/gogpu/gg"
)

// Composite selects how painted pixels combine with what is already there.
type Composite int

const (
	// Normal is source-over blending.
	Normal Composite = iota
	// Lighter brightens the destination; painted glows accumulate.
	Lighter
)

func (c Composite) blendMode() gg.BlendMode {
	if c == Lighter {
		return gg.BlendScreen
	}
	return gg.BlendNormal
}

// Container supplies the logical size of the host region.
type Container interface {
	Size() (width, height int)
}

// Surface is a drawable layer. Callers draw in logical pixels; the backing
// store is logical size times the device scale.
type Surface struct {
	ctx *gg.Context

	width, height         float64
	realWidth, realHeight int
	scale                 float64

	pen      Pen
	handlers []func(*Surface)
	sprites  map[spriteKey]*gg.ImageBuf

	// version changes whenever the pixels may have changed, so snapshots
	// taken for compositing can be reused between frames.
	version  uint64
	snap     *gg.ImageBuf
	snapSeen uint64
}

// New creates a surface of the given logical size. A scale below 1 is
// treated as 1.
func New(width, height int, scale float64) *Surface {
	if scale < 1 {
		scale = 1
	}
	s := &Surface{
		scale:   scale,
		sprites: make(map[spriteKey]*gg.ImageBuf),
	}
	s.pen = newPen(s)
	s.allocate(width, height)
	return s
}

func (s *Surface) allocate(width, height int) {
	width = max(width, 1)
	height = max(height, 1)
	if s.ctx != nil {
		_ = s.ctx.Close()
	}
	s.width = float64(width)
	s.height = float64(height)
	s.realWidth = int(math.Round(float64(width) * s.scale))
	s.realHeight = int(math.Round(float64(height) * s.scale))
	s.ctx = gg.NewContext(s.realWidth, s.realHeight)
	s.ctx.Scale(s.scale, s.scale)
	s.version++
}

// Width returns the logical width
func (s *Surface) Width() float64 { return s.width }

// Height returns the logical height
func (s *Surface) Height() float64 { return s.height }

// Scale returns the device scale factor
func (s *Surface) Scale() float64 { return s.scale }

// BackingSize returns the size of the pixel buffer
func (s *Surface) BackingSize() (int, int) { return s.realWidth, s.realHeight }

// OnResize registers fn to run after every Resize, in registration order.
func (s *Surface) OnResize(fn func(*Surface)) {
	if fn == nil {
		return
	}
	s.handlers = append(s.handlers, fn)
}

// Resize reads the container size, reallocates the backing store and
// replays the resize handlers with the fresh context.
func (s *Surface) Resize(c Container) {
	w, h := c.Size()
	s.allocate(w, h)
	for _, fn := range s.handlers {
		fn(s)
	}
}

// Clear resets every pixel to transparent.
func (s *Surface) Clear() {
	s.ctx.Clear()
	s.version++
}

// Paint runs fn with exclusive use of the pen. Pen state and the context
// transform are restored afterwards, also when fn fails or panics.
func (s *Surface) Paint(fn func(*Pen) error) error {
	if fn == nil {
		return nil
	}
	saved := s.pen
	s.ctx.Push()
	defer func() {
		s.ctx.Pop()
		s.pen = saved
		s.version++
	}()

	s.pen.err = nil
	if err := fn(&s.pen); err != nil {
		return err
	}
	return s.pen.err
}

// Repaint clears the surface and paints it.
func (s *Surface) Repaint(fn func(*Pen) error) error {
	s.Clear()
	return s.Paint(fn)
}

// CompositeFrom draws the current contents of src over the whole surface at
// the given opacity. Non-positive opacity draws nothing.
func (s *Surface) CompositeFrom(src *Surface, opacity float64, mode Composite) {
	if src == nil || opacity <= 0 {
		return
	}
	s.ctx.DrawImageEx(src.snapshot(), gg.DrawImageOptions{
		DstWidth:      s.width,
		DstHeight:     s.height,
		Interpolation: gg.InterpNearest,
		Opacity:       math.Min(opacity, 1),
		BlendMode:     mode.blendMode(),
	})
	s.version++
}

func (s *Surface) snapshot() *gg.ImageBuf {
	if s.snap == nil || s.snapSeen != s.version {
		s.snap = gg.ImageBufFromImage(s.Pixels())
		s.snapSeen = s.version
	}
	return s.snap
}

// Pixels returns a copy of the backing store.
func (s *Surface) Pixels() *image.RGBA {
	_ = s.ctx.FlushGPU()
	img := s.ctx.Image()
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

// SavePNG writes the backing store to path.
func (s *Surface) SavePNG(path string) error {
	return s.ctx.SavePNG(path)
}

// Close releases the drawing context.
func (s *Surface) Close() error {
	return s.ctx.Close()
}
