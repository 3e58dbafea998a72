package surface

import (
	"math"

	"github.com/gogpu/gg"
)

// glowSteps is the number of rings used to approximate a blurred halo
const glowSteps = 6

type spriteKey struct {
	fill   gg.RGBA
	w, h   int
	radius float64
	glow   float64
	isDisc bool
}

// rectSprite returns a solid tile sized in backing pixels.
func (s *Surface) rectSprite(fill gg.RGBA, w, h float64) *gg.ImageBuf {
	key := spriteKey{
		fill: fill,
		w:    max(1, int(math.Ceil(w*s.scale))),
		h:    max(1, int(math.Ceil(h*s.scale))),
	}
	if buf, ok := s.sprites[key]; ok {
		return buf
	}
	dc := gg.NewContext(key.w, key.h)
	defer dc.Close()
	dc.ClearWithColor(fill)
	buf := gg.ImageBufFromImage(dc.Image())
	s.sprites[key] = buf
	return buf
}

// discSprite returns a disc of radius r with a halo of width glow fading out
// from the disc edge.
func (s *Surface) discSprite(fill gg.RGBA, r, glow float64) *gg.ImageBuf {
	outer := r + glow
	size := max(2, int(math.Ceil(2*outer*s.scale)))
	key := spriteKey{fill: fill, w: size, h: size, radius: r, glow: glow, isDisc: true}
	if buf, ok := s.sprites[key]; ok {
		return buf
	}

	dc := gg.NewContext(size, size)
	defer dc.Close()
	k := float64(size) / (2 * outer)
	c := float64(size) / 2
	if glow > 0 {
		for i := 0; i < glowSteps; i++ {
			t := float64(i) / glowSteps
			dc.SetRGBA(fill.R, fill.G, fill.B, fill.A*0.12*(t+0.2))
			dc.DrawCircle(c, c, (outer-glow*t)*k)
			_ = dc.Fill()
		}
	}
	dc.SetRGBA(fill.R, fill.G, fill.B, fill.A)
	dc.DrawCircle(c, c, r*k)
	_ = dc.Fill()

	buf := gg.ImageBufFromImage(dc.Image())
	s.sprites[key] = buf
	return buf
}
