package shape

import (
	"fmt"
	"math"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Font is the typeface shapes are drawn with
type Font struct {
	source *text.FontSource
}

// NewFont loads the embedded Go font for weight ("bold" or "normal").
func NewFont(weight string) (*Font, error) {
	data := goregular.TTF
	if weight == "bold" {
		data = gobold.TTF
	}
	src, err := text.NewFontSource(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s font: %w", weight, err)
	}
	return &Font{source: src}, nil
}

// Face returns the font at size pixels
func (f *Font) Face(size float64) text.Face {
	return f.source.Face(size)
}

// Measure returns the advance width and line height of s at size pixels.
func (f *Font) Measure(s string, size float64) (w, h float64) {
	return text.Measure(s, f.Face(size))
}

// Close releases the font source
func (f *Font) Close() error {
	return f.source.Close()
}

// FitWidth scales the font so the text spans ratio of width, measuring it
// once at maxSize. The result never exceeds maxSize. Height is not bounded,
// so short strings get the full size.
func FitWidth(advance func(size float64) float64, width, ratio, maxSize float64) float64 {
	w := advance(maxSize)
	if w <= 0 {
		return maxSize
	}
	return min(maxSize, maxSize*width/w*ratio)
}

// FitImage scales a srcW x srcH image uniformly to fit ratio of a dstW x dstH
// area and centers it.
func FitImage(srcW, srcH, dstW, dstH, ratio float64) (x, y, w, h float64) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0, 0, 0
	}
	scale := math.Min(dstW*ratio/srcW, dstH*ratio/srcH)
	w, h = srcW*scale, srcH*scale
	return (dstW - w) / 2, (dstH - h) / 2, w, h
}
