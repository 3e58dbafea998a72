// Package shape turns rendered text and images into the set of grid cells
// they cover.
package shape

import (
	"image"
	"math/rand"

	"github.com/olivierh59500/circuitboard/grid"
)

// Matrix is an ordered list of grid cells
type Matrix []grid.Coord

// Rasterize samples img once per grid cell, at the cell's top-left pixel,
// scanning rows top to bottom. Any non-zero alpha marks the cell.
func Rasterize(img image.Image, pitch int) Matrix {
	if img == nil || pitch <= 0 {
		return nil
	}
	b := img.Bounds()
	alpha := alphaReader(img)

	var m Matrix
	for y := 0; y < b.Dy(); y += pitch {
		for x := 0; x < b.Dx(); x += pitch {
			if alpha(b.Min.X+x, b.Min.Y+y) > 0 {
				m = append(m, grid.Coord{Row: y / pitch, Col: x / pitch})
			}
		}
	}
	return m
}

func alphaReader(img image.Image) func(x, y int) uint32 {
	switch src := img.(type) {
	case *image.RGBA:
		return func(x, y int) uint32 { return uint32(src.Pix[src.PixOffset(x, y)+3]) }
	case *image.NRGBA:
		return func(x, y int) uint32 { return uint32(src.Pix[src.PixOffset(x, y)+3]) }
	default:
		return func(x, y int) uint32 {
			_, _, _, a := img.At(x, y).RGBA()
			return a
		}
	}
}

// Shuffle returns a uniformly random permutation of m. The input is left
// untouched.
func Shuffle(m Matrix, r *rand.Rand) Matrix {
	out := make(Matrix, len(m))
	copy(out, m)
	for i := len(out) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
