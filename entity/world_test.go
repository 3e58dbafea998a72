package entity

import (
	"testing"
	"time"

	"github.com/olivierh59500/circuitboard/grid"
	"github.com/olivierh59500/circuitboard/surface"
)

func TestSweepPrunesExpiredInOrder(t *testing.T) {
	w := newTestWorld(1)
	s := surface.New(200, 200, 1)

	var cells []*Cell
	for i := 0; i < 6; i++ {
		c := w.NewCell(grid.Coord{Row: i, Col: i}, CellOptions{})
		// odd cells expire after 10ms, even ones live on
		if i%2 == 1 {
			c.Pin(epoch, 10*time.Millisecond)
		} else {
			c.PinForever(epoch)
		}
		cells = append(cells, c)
	}
	// consecutive expired entries must not skip their neighbours
	cells[2].ExpireAt = epoch.Add(5 * time.Millisecond)

	w.Sweep(s, epoch.Add(20*time.Millisecond))

	want := []*Cell{cells[0], cells[4]}
	if len(w.Cells) != len(want) {
		t.Fatalf("cells left = %d, want %d", len(w.Cells), len(want))
	}
	for i, c := range want {
		if w.Cells[i] != c {
			t.Fatalf("cell %d = %v, want %v", i, w.Cells[i].Coord, c.Coord)
		}
		if c.NextRepaint.IsZero() {
			t.Fatalf("live cell %v was not drawn", c.Coord)
		}
	}
}

func TestSweepDrawsFreshParticles(t *testing.T) {
	w := newTestWorld(2)
	s := surface.New(200, 200, 1)
	c := w.NewCell(grid.Coord{Row: 3, Col: 3}, CellOptions{ElectronCount: 2, Force: true})
	c.PinForever(epoch)

	w.Sweep(s, epoch)
	if len(w.Particles) != 2 {
		t.Fatalf("particles = %d, want 2", len(w.Particles))
	}
	corners := map[grid.Point]bool{}
	for _, off := range w.Config().Geometry.Corners() {
		corners[c.Origin.Add(off)] = true
	}
	for _, p := range w.Particles {
		if corners[p.Pos] {
			t.Fatalf("particle at %v was not advanced", p.Pos)
		}
	}

	// unpinned, the cell emits nothing more and only expiry is left
	w.ClearCells()
	w.Sweep(s, epoch.Add(10*time.Second))
	if len(w.Particles) != 0 {
		t.Fatalf("expired particles left: %d", len(w.Particles))
	}
}

func TestSweepReplacesExpiredParticles(t *testing.T) {
	w := newTestWorld(2)
	s := surface.New(200, 200, 1)
	c := w.NewCell(grid.Coord{Row: 3, Col: 3}, CellOptions{ElectronCount: 2, Force: true})
	c.PinForever(epoch)
	w.Sweep(s, epoch)

	later := epoch.Add(10 * time.Second)
	w.Sweep(s, later)
	if len(w.Particles) != 2 {
		t.Fatalf("particles = %d, want 2 from the repaint", len(w.Particles))
	}
	for _, p := range w.Particles {
		if !p.Born.Equal(later) {
			t.Fatalf("particle born at %v survived its expiry", p.Born)
		}
	}
}

func TestPruneParticles(t *testing.T) {
	w := newTestWorld(3)
	short := w.NewParticle(grid.Point{}, ParticleOptions{Lifetime: 500 * time.Millisecond}, epoch)
	long := w.NewParticle(grid.Point{}, ParticleOptions{Lifetime: 5 * time.Second}, epoch)
	w.AddParticle(short)
	w.AddParticle(long)

	w.PruneParticles(epoch, time.Second)
	if len(w.Particles) != 1 || w.Particles[0] != long {
		t.Fatalf("PruneParticles kept %d particles", len(w.Particles))
	}
}

func TestResetAndRoom(t *testing.T) {
	w := newTestWorld(4)
	for i := 0; i < 10; i++ {
		w.AddParticle(w.NewParticle(grid.Point{}, ParticleOptions{}, epoch))
	}
	w.NewCell(grid.Coord{}, CellOptions{}).PinForever(epoch)
	if w.Room() != 90 {
		t.Fatalf("Room() = %d, want 90", w.Room())
	}
	w.Reset()
	if len(w.Particles) != 0 || len(w.Cells) != 0 {
		t.Fatal("Reset left entities")
	}
	if w.Room() != 100 {
		t.Fatalf("Room() = %d, want 100", w.Room())
	}
}

func TestOptionBundles(t *testing.T) {
	w := newTestWorld(5)
	p := DefaultPalette()
	for i := 0; i < 100; i++ {
		o := ExplodeCellOptions(w.Rand(), p)
		if o.ElectronCount < 1 || o.ElectronCount > 4 {
			t.Fatalf("electron count %d out of range", o.ElectronCount)
		}
		if o.Particle.Lifetime < 500*time.Millisecond || o.Particle.Lifetime > 1500*time.Millisecond {
			t.Fatalf("explode lifetime %v out of range", o.Particle.Lifetime)
		}
		s := ShapeParticleOptions(w.Rand(), p)
		if s.Lifetime < 300*time.Millisecond || s.Lifetime > 500*time.Millisecond || s.Speed != 2 {
			t.Fatalf("shape particle options %+v", s)
		}
	}
	if o := PointerCellOptions(p, true); o.ElectronCount != 2 || !o.Force {
		t.Fatalf("pointer move options %+v", o)
	}
	if RandInt(w.Rand(), 5, 5) != 5 || RandInt(w.Rand(), 5, 2) != 5 {
		t.Fatal("RandInt degenerate range")
	}
}
