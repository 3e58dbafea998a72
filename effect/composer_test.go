package effect

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/olivierh59500/circuitboard/clock"
	"github.com/olivierh59500/circuitboard/entity"
	"github.com/olivierh59500/circuitboard/grid"
	"github.com/olivierh59500/circuitboard/shape"
	"github.com/olivierh59500/circuitboard/surface"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	c      *Composer
	world  *entity.World
	clk    *clock.Manual
	bursts []int
}

func newFixture(t *testing.T, seed int64, w, h int) *fixture {
	t.Helper()
	font, err := shape.NewFont("bold")
	if err != nil {
		t.Fatalf("NewFont: %v", err)
	}
	main := surface.New(w, h, 1)
	layer := surface.New(w, h, 1)
	t.Cleanup(func() {
		_ = main.Close()
		_ = layer.Close()
		_ = font.Close()
	})

	f := &fixture{
		world: entity.NewWorld(entity.DefaultConfig(), rand.New(rand.NewSource(seed))),
		clk:   clock.NewManual(epoch),
	}
	f.c = New(f.world, main, layer, font, f.clk, DefaultOptions())
	f.c.OnBurst = func(n int) { f.bursts = append(f.bursts, n) }
	return f
}

func TestRenderTextThenClearExplodesOnce(t *testing.T) {
	f := newFixture(t, 1, 800, 600)

	m := f.c.RenderText("AI")
	if len(m) == 0 {
		t.Fatal("rendering AI produced an empty matrix")
	}
	if len(f.bursts) != 0 {
		t.Fatalf("first render burst %d times", len(f.bursts))
	}
	if f.c.Text() != "AI" || len(f.c.Matrix()) != len(m) {
		t.Fatal("shape state not recorded")
	}
	// intro spiral plus one cell per covered position
	if got, want := len(f.world.Cells), 24+len(m); got != want {
		t.Fatalf("pinned cells = %d, want %d", got, want)
	}

	f.c.RenderText("")
	if len(f.bursts) != 1 {
		t.Fatalf("clearing burst %d times, want 1", len(f.bursts))
	}
	if f.c.Matrix() != nil || f.c.Text() != "" {
		t.Fatal("shape state survived the clear")
	}
	// only the closing spiral stays pinned
	if len(f.world.Cells) != 24 {
		t.Fatalf("pinned cells after clear = %d, want 24", len(f.world.Cells))
	}
	for _, c := range f.world.Cells {
		if c.ElectronCount != 2 {
			t.Fatalf("closing spiral cell has %d electrons", c.ElectronCount)
		}
	}
}

func TestEmptyTextWithoutShapeIsQuiet(t *testing.T) {
	f := newFixture(t, 2, 400, 400)
	if m := f.c.RenderText(""); m != nil {
		t.Fatalf("empty text produced %v", m)
	}
	if len(f.bursts) != 0 || len(f.world.Cells) != 0 {
		t.Fatal("empty text on an empty board had effects")
	}
}

func TestShapeCellsActivateInOrder(t *testing.T) {
	f := newFixture(t, 3, 800, 600)
	m := f.c.RenderText("AI")

	shapeCells := f.world.Cells[24:]
	if len(shapeCells) != len(m) {
		t.Fatalf("shape cells = %d, want %d", len(shapeCells), len(m))
	}
	prev := time.Duration(0)
	for i, c := range shapeCells {
		if c.Coord != m[i] {
			t.Fatalf("cell %d at %v, want %v", i, c.Coord, m[i])
		}
		d := c.NextRepaint.Sub(epoch)
		if d < 200*time.Millisecond || d >= 500*time.Millisecond {
			t.Fatalf("cell %d activates after %v", i, d)
		}
		if d < prev {
			t.Fatalf("cell %d activates before cell %d", i, i-1)
		}
		prev = d
		if c.Expired(epoch.Add(24 * time.Hour)) {
			t.Fatal("shape cell expires")
		}
	}
}

func TestSpiralRing(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		f := newFixture(t, seed, 400, 400)
		cells := f.c.Spiral(SpiralOptions{Radius: Radius(10), AngleStep: 15})
		if len(cells) != 24 {
			t.Fatalf("spiral produced %d cells, want 24", len(cells))
		}

		center := grid.Coord{Row: 20, Col: 20}
		at := func(start, i int) grid.Coord {
			rad := float64(start-15*i) * math.Pi / 180
			return grid.Coord{
				Row: center.Row + int(math.Floor(10*math.Sin(rad))),
				Col: center.Col + int(math.Floor(10*math.Cos(rad))),
			}
		}
		start := -1
		for s := 0; s <= 360 && start < 0; s++ {
			ok := true
			for i, c := range cells {
				if c.Coord != at(s, i) {
					ok = false
					break
				}
			}
			if ok {
				start = s
			}
		}
		if start < 0 {
			t.Fatalf("seed %d: cells do not follow a -15 degree ring", seed)
		}

		for i, c := range cells {
			want := time.Duration(16*(i+1)) * time.Millisecond
			if got := c.NextRepaint.Sub(epoch); got != want {
				t.Fatalf("cell %d delayed %v, want %v", i, got, want)
			}
			if !c.Force || c.ElectronCount != 1 {
				t.Fatalf("cell %d options %+v", i, c)
			}
		}
	}
}

func TestSpiralReverseAndIncrement(t *testing.T) {
	f := newFixture(t, 7, 400, 400)
	cells := f.c.Spiral(SpiralOptions{Radius: Radius(0), Increment: 1, AngleStep: 30, Reverse: true, Capped: true})
	if len(cells) != 12 {
		t.Fatalf("spiral produced %d cells, want 12", len(cells))
	}
	if cells[0].Coord != (grid.Coord{Row: 20, Col: 20}) {
		t.Fatalf("zero-radius start at %v", cells[0].Coord)
	}
	if cells[0].Force {
		t.Fatal("capped spiral cell is forced")
	}
}

func TestSpiralDefaultRadius(t *testing.T) {
	f := newFixture(t, 8, 600, 300)
	cells := f.c.Spiral(SpiralOptions{})
	// 30 rows, 60 cols: radius 10 around (15, 30)
	for _, c := range cells {
		dr, dc := float64(c.Coord.Row-15), float64(c.Coord.Col-30)
		if d := math.Hypot(dr, dc); d < 8.5 || d > 11.5 {
			t.Fatalf("cell %v is %.2f cells from center", c.Coord, d)
		}
	}
}

func spacedMatrix(n int) shape.Matrix {
	m := make(shape.Matrix, n)
	for i := range m {
		m[i] = grid.Coord{Row: (i / 20) * 3, Col: (i % 20) * 3}
	}
	return m
}

func TestExplodeMatrixUsesLeadingCells(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		f := newFixture(t, seed, 800, 600)
		m := spacedMatrix(200)

		k := f.c.Explode(m)
		if k < 10 || k > 20 {
			t.Fatalf("seed %d: burst of %d cells, want 10-20", seed, k)
		}
		if len(f.bursts) != 1 || f.bursts[0] != k {
			t.Fatalf("OnBurst saw %v", f.bursts)
		}

		g := f.world.Config().Geometry
		owner := map[grid.Point]grid.Coord{}
		for _, c := range m {
			for _, off := range g.Corners() {
				owner[g.Origin(c).Add(off)] = c
			}
		}
		used := map[grid.Coord]bool{}
		for _, p := range f.world.Particles {
			c, ok := owner[p.Pos]
			if !ok {
				t.Fatalf("particle at %v is off the matrix", p.Pos)
			}
			used[c] = true
		}
		for i, c := range m {
			if used[c] != (i < k) {
				t.Fatalf("seed %d: cell %d used=%v with k=%d", seed, i, used[c], k)
			}
		}
	}
}

func TestExplodeSmallMatrix(t *testing.T) {
	f := newFixture(t, 4, 400, 400)
	if k := f.c.Explode(spacedMatrix(5)); k != 0 {
		t.Fatalf("burst of %d from 5 cells, want 0", k)
	}
	if k := f.c.Explode(shape.Matrix{}); k != 0 {
		t.Fatalf("burst of %d from an empty matrix", k)
	}
	if len(f.bursts) != 2 {
		t.Fatalf("OnBurst called %d times, want 2", len(f.bursts))
	}
}

func TestExplodeRandomRespectsCap(t *testing.T) {
	f := newFixture(t, 5, 800, 600)
	if k := f.c.Explode(nil); k < 10 || k > 20 {
		t.Fatalf("random burst of %d cells, want 10-20", k)
	}

	f = newFixture(t, 6, 800, 600)
	for i := 0; i < 100; i++ {
		f.world.AddParticle(f.world.NewParticle(grid.Point{}, entity.ParticleOptions{}, epoch))
	}
	if k := f.c.Explode(nil); k != 0 {
		t.Fatalf("burst of %d cells at the cap", k)
	}
	if len(f.world.Particles) != 100 {
		t.Fatalf("particles = %d, want 100", len(f.world.Particles))
	}
}

func TestExplodeStripsOldParticles(t *testing.T) {
	f := newFixture(t, 9, 400, 400)
	old := f.world.NewParticle(grid.Point{}, entity.ParticleOptions{Lifetime: 800 * time.Millisecond}, epoch)
	f.world.AddParticle(old)
	f.c.Explode(shape.Matrix{})
	for _, p := range f.world.Particles {
		if p == old {
			t.Fatal("particle expiring within a second survived")
		}
	}
}

func TestTouch(t *testing.T) {
	f := newFixture(t, 10, 400, 400)

	if !f.c.Touch(15, 15, true) {
		t.Fatal("first move ignored")
	}
	if len(f.world.Particles) != 2 {
		t.Fatalf("move spawned %d particles, want 2", len(f.world.Particles))
	}
	if f.c.Touch(18, 12, true) {
		t.Fatal("move within the same cell lit it again")
	}
	if !f.c.Touch(15, 15, false) {
		t.Fatal("press ignored")
	}
	if len(f.world.Particles) != 6 {
		t.Fatalf("press spawned %d particles, want 4", len(f.world.Particles)-2)
	}
	if !f.c.Touch(25, 15, true) {
		t.Fatal("move into a new cell ignored")
	}
	if len(f.world.Cells) != 0 {
		t.Fatal("pointer cells were pinned")
	}
}

func TestRenderImage(t *testing.T) {
	f := newFixture(t, 11, 400, 400)
	img := image.NewRGBA(image.Rect(0, 0, 100, 50))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 200, A: 255}), image.Point{}, draw.Src)

	m := f.c.RenderImage(img)
	// 320x160 at (40, 120)
	if len(m) < 31*15 || len(m) > 34*18 {
		t.Fatalf("image covers %d cells", len(m))
	}
	for _, c := range m {
		if c.Row < 11 || c.Row > 28 || c.Col < 3 || c.Col > 36 {
			t.Fatalf("cell %v outside the image", c)
		}
	}
	if f.c.Image() != img || f.c.Text() != "" {
		t.Fatal("image state not recorded")
	}

	again := f.c.Rerender()
	if len(again) != len(m) {
		t.Fatalf("rerender covers %d cells, want %d", len(again), len(m))
	}
	if len(f.bursts) != 1 {
		t.Fatalf("rerender burst %d times, want 1", len(f.bursts))
	}
}

func TestRenderNilImageClears(t *testing.T) {
	f := newFixture(t, 12, 400, 400)
	f.c.RenderText("AI")
	if m := f.c.RenderImage(nil); m != nil {
		t.Fatal("nil image produced a shape")
	}
	if len(f.bursts) != 1 || f.c.Matrix() != nil {
		t.Fatal("nil image did not clear the shape")
	}
}

func TestShortTextSizedByWidthOnly(t *testing.T) {
	f := newFixture(t, 14, 400, 300)

	// a single digit is far narrower than the layer, so only the cap applies
	if got := f.c.fitText("1"); got != f.c.opts.MaxFontSize {
		t.Fatalf("fitText(1) = %v, want the %v cap", got, f.c.opts.MaxFontSize)
	}
	wide := f.c.fitText("WWWWWWWWWW")
	if w, _ := f.c.font.Measure("WWWWWWWWWW", wide); math.Abs(w-400*0.8) > 10 {
		t.Fatalf("wide text spans %v, want %v", w, 400*0.8)
	}
	if m := f.c.RenderText("1"); len(m) == 0 {
		t.Fatal("a single digit produced no cells")
	}
}
