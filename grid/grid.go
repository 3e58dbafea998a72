// Package grid maps grid rows and columns to pixel origins and back.
package grid

import "math"

// Default tile geometry
const (
	DefaultCellSize = 8
	DefaultBorder   = 2
)

// Coord is a grid position
type Coord struct {
	Row, Col int
}

// Point is a continuous position in grid-pixel space
type Point struct {
	X, Y float64
}

// Add returns p offset by d
func (p Point) Add(d Point) Point {
	return Point{p.X + d.X, p.Y + d.Y}
}

// Geometry describes the tile size and the border drawn between tiles
type Geometry struct {
	CellSize int
	Border   int
}

// Default returns the 8px cell / 2px border geometry
func Default() Geometry {
	return Geometry{CellSize: DefaultCellSize, Border: DefaultBorder}
}

// Pitch is the distance between the origins of two adjacent cells.
func (g Geometry) Pitch() int {
	return g.CellSize + g.Border
}

// Origin returns the top-left pixel of a cell.
func (g Geometry) Origin(c Coord) Point {
	p := float64(g.Pitch())
	return Point{X: float64(c.Col) * p, Y: float64(c.Row) * p}
}

// CellAt returns the cell containing the logical pixel (x, y).
func (g Geometry) CellAt(x, y float64) Coord {
	p := float64(g.Pitch())
	return Coord{Row: int(math.Floor(y / p)), Col: int(math.Floor(x / p))}
}

// Dims returns how many whole rows and columns fit in width x height.
func (g Geometry) Dims(width, height float64) (rows, cols int) {
	p := float64(g.Pitch())
	return int(math.Floor(height / p)), int(math.Floor(width / p))
}

// Moves returns the four cardinal one-pitch steps: down, up, right, left.
func (g Geometry) Moves() [4]Point {
	p := float64(g.Pitch())
	return [4]Point{{0, p}, {0, -p}, {p, 0}, {-p, 0}}
}

// Corners returns the particle origins relative to a cell origin, centered
// on the border lines around the tile: left-top, left-bottom, right-top,
// right-bottom.
func (g Geometry) Corners() [4]Point {
	p := float64(g.Pitch())
	h := float64(g.Border) / 2
	return [4]Point{
		{-h, -h},
		{-h, p - h},
		{p - h, -h},
		{p - h, p - h},
	}
}
