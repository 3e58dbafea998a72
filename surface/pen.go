package surface

import (
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
)

// Pen carries the drawing state of one Paint session.
type Pen struct {
	s *Surface

	alpha float64
	mode  Composite
	fill  gg.RGBA
	glow  float64

	err error
}

func newPen(s *Surface) Pen {
	return Pen{s: s, alpha: 1, fill: gg.RGBA{A: 1}}
}

// Surface returns the surface being painted
func (p *Pen) Surface() *Surface { return p.s }

// SetAlpha sets the global opacity, clamped to [0, 1].
func (p *Pen) SetAlpha(a float64) {
	p.alpha = math.Max(0, math.Min(1, a))
}

// SetComposite sets the composite mode
func (p *Pen) SetComposite(c Composite) { p.mode = c }

// SetFill sets the fill color
func (p *Pen) SetFill(c color.Color) { p.fill = gg.FromColor(c) }

// SetGlow sets the blur radius of the halo drawn around discs.
func (p *Pen) SetGlow(blur float64) { p.glow = math.Max(0, blur) }

// FillRect fills an axis-aligned rectangle.
func (p *Pen) FillRect(x, y, w, h float64) {
	if w <= 0 || h <= 0 || p.alpha <= 0 {
		return
	}
	ctx := p.s.ctx
	if p.mode == Normal {
		ctx.SetRGBA(p.fill.R, p.fill.G, p.fill.B, p.fill.A*p.alpha)
		ctx.DrawRectangle(x, y, w, h)
		p.record(ctx.Fill())
		return
	}
	sprite := p.s.rectSprite(p.fill, w, h)
	p.drawSprite(sprite, x, y, w, h, gg.InterpNearest)
}

// FillDisc fills a circle of radius r centered on (x, y), surrounded by a
// soft halo when a glow is set.
func (p *Pen) FillDisc(x, y, r float64) {
	if r <= 0 || p.alpha <= 0 {
		return
	}
	outer := r + p.glow
	sprite := p.s.discSprite(p.fill, r, p.glow)
	p.drawSprite(sprite, x-outer, y-outer, 2*outer, 2*outer, gg.InterpBilinear)
}

// FillText draws s centered on the logical point (x, y). The face is used
// as is, so its size is in backing pixels.
func (p *Pen) FillText(face text.Face, s string, x, y float64) {
	if face == nil || s == "" || p.alpha <= 0 {
		return
	}
	ctx := p.s.ctx
	ctx.SetFont(face)
	ctx.SetRGBA(p.fill.R, p.fill.G, p.fill.B, p.fill.A*p.alpha)
	tx, ty := ctx.TransformPoint(x, y)
	ctx.DrawStringAnchored(s, tx, ty, 0.5, 0.5)
}

// MeasureText returns the advance width and line height of s.
func (p *Pen) MeasureText(face text.Face, s string) (w, h float64) {
	if face == nil {
		return 0, 0
	}
	return text.Measure(s, face)
}

// DrawImage draws img scaled into the rectangle (x, y, w, h).
func (p *Pen) DrawImage(img image.Image, x, y, w, h float64) {
	if img == nil || w <= 0 || h <= 0 || p.alpha <= 0 {
		return
	}
	p.drawSprite(gg.ImageBufFromImage(img), x, y, w, h, gg.InterpBilinear)
}

func (p *Pen) drawSprite(buf *gg.ImageBuf, x, y, w, h float64, interp gg.InterpolationMode) {
	p.s.ctx.DrawImageEx(buf, gg.DrawImageOptions{
		X:             x,
		Y:             y,
		DstWidth:      w,
		DstHeight:     h,
		Interpolation: interp,
		Opacity:       p.alpha,
		BlendMode:     p.mode.blendMode(),
	})
}

func (p *Pen) record(err error) {
	if err != nil && p.err == nil {
		p.err = err
	}
}
