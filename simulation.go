package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/olivierh59500/circuitboard/effect"
	"github.com/olivierh59500/circuitboard/engine"
)

// programKeys starts a scripted program; the typed text feeds Typewriter.
var programKeys = map[ebiten.Key]engine.Program{
	ebiten.KeyF1: engine.Ring,
	ebiten.KeyF2: engine.Galaxy,
	ebiten.KeyF3: engine.Countdown,
	ebiten.KeyF4: engine.Typewriter,
}

// point is a pointer position in window coordinates
type point struct{ x, y int }

// Simulation hosts the board in an Ebitengine window.
type Simulation struct {
	board *engine.Engine
	tick  func()
	log   *slog.Logger

	width, height int // logical window size
	started       bool
	input         []rune
	showStats     bool
	snapshotDir   string

	cursor    point
	hasCursor bool
	touches   map[ebiten.TouchID]point

	frame *ebiten.Image
}

// NewSimulation creates the window host. tick runs the board's frame queue.
func NewSimulation(board *engine.Engine, tick func(), snapshotDir string, log *slog.Logger) *Simulation {
	if tick == nil {
		tick = board.Frames().Run
	}
	return &Simulation{
		board:       board,
		tick:        tick,
		log:         log,
		snapshotDir: snapshotDir,
		touches:     make(map[ebiten.TouchID]point),
	}
}

// Size implements surface.Container with the logical window size
func (s *Simulation) Size() (int, int) { return s.width, s.height }

// Update is called each tick by Ebitengine
func (s *Simulation) Update() error {
	if !s.started {
		if s.width == 0 || s.height == 0 {
			return nil
		}
		s.board.Start(s)
		s.started = true
	}

	s.handleInput()
	s.handlePointer()
	s.tick()
	return nil
}

// Draw is called each frame by Ebitengine
func (s *Simulation) Draw(screen *ebiten.Image) {
	pixels := s.board.MainPixels()
	w, h := pixels.Bounds().Dx(), pixels.Bounds().Dy()
	if w == 0 || h == 0 {
		return
	}
	if s.frame == nil || s.frame.Bounds().Dx() != w || s.frame.Bounds().Dy() != h {
		if s.frame != nil {
			s.frame.Deallocate()
		}
		s.frame = ebiten.NewImage(w, h)
	}
	s.frame.WritePixels(pixels.Pix)

	op := &ebiten.DrawImageOptions{}
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	if sw != w || sh != h {
		// stretch until the debounced relayout catches up
		op.GeoM.Scale(float64(sw)/float64(w), float64(sh)/float64(h))
	}
	screen.DrawImage(s.frame, op)

	ebitenutil.DebugPrint(screen, s.overlay())
}

// Layout reports the backing size of the board and notifies it when the
// window changes size
func (s *Simulation) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != s.width || outsideHeight != s.height {
		s.width, s.height = outsideWidth, outsideHeight
		if s.started {
			s.board.NotifyResize()
		}
	}
	if !s.started {
		return max(outsideWidth, 1), max(outsideHeight, 1)
	}
	return s.board.MainSize()
}

func (s *Simulation) overlay() string {
	var b strings.Builder
	fmt.Fprintf(&b, "> %s", string(s.input))
	if s.board.Playing() {
		b.WriteString("  [program]")
	}
	if s.showStats {
		st := s.board.Stats()
		fmt.Fprintf(&b, "\nTPS %.0f  frames %d  particles %d  cells %d  shape %d",
			ebiten.ActualTPS(), st.Frames, st.Particles, st.Cells, st.ShapeCells)
	}
	return b.String()
}

// handleInput processes keyboard input
func (s *Simulation) handleInput() {
	s.input = ebiten.AppendInputChars(s.input)

	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter) {
		text := strings.TrimSpace(string(s.input))
		s.input = s.input[:0]
		s.board.SetText(text)
	}
	if len(s.input) > 0 && repeating(ebiten.KeyBackspace) {
		s.input = s.input[:len(s.input)-1]
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		s.input = s.input[:0]
		s.board.ClearShape()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		s.board.Burst(nil)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		s.board.Sweep(effect.SpiralOptions{})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF6) {
		s.board.StopProgram()
	}
	for key, p := range programKeys {
		if inpututil.IsKeyJustPressed(key) {
			s.board.Play(p, strings.TrimSpace(string(s.input)))
			s.input = s.input[:0]
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		s.showStats = !s.showStats
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		s.snapshot()
	}
}

// repeating reports a key press, repeated while the key is held
func repeating(key ebiten.Key) bool {
	const delay, interval = 30, 3
	d := inpututil.KeyPressDuration(key)
	return d == 1 || (d >= delay && (d-delay)%interval == 0)
}

// handlePointer lights cells under the mouse and touches. A press always
// lights, a move only when the position changed.
func (s *Simulation) handlePointer() {
	mx, my := ebiten.CursorPosition()
	cur := point{mx, my}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		s.touch(cur, false)
	} else if s.hasCursor && cur != s.cursor {
		s.touch(cur, true)
	}
	s.cursor, s.hasCursor = cur, true

	for _, id := range inpututil.AppendJustPressedTouchIDs(nil) {
		x, y := ebiten.TouchPosition(id)
		s.touches[id] = point{x, y}
		s.touch(point{x, y}, false)
	}
	for _, id := range ebiten.AppendTouchIDs(nil) {
		x, y := ebiten.TouchPosition(id)
		p := point{x, y}
		if last, ok := s.touches[id]; ok && last != p {
			s.touch(p, true)
		}
		s.touches[id] = p
	}
	for id := range s.touches {
		if inpututil.IsTouchJustReleased(id) {
			delete(s.touches, id)
		}
	}
}

// touch converts a screen position to board coordinates
func (s *Simulation) touch(p point, moving bool) {
	bw, bh := s.board.MainSize()
	if bw == 0 || bh == 0 {
		return
	}
	x := float64(p.x) * float64(s.width) / float64(bw)
	y := float64(p.y) * float64(s.height) / float64(bh)
	s.board.Touch(x, y, moving)
}

// snapshot saves the visible layer as a PNG
func (s *Simulation) snapshot() {
	name := fmt.Sprintf("circuitboard-%s.png", time.Now().Format("20060102-150405"))
	path := filepath.Join(s.snapshotDir, name)
	if err := s.board.SavePNG(path); err != nil {
		s.log.Error("snapshot failed", "path", path, "error", err)
		return
	}
	s.log.Info("snapshot saved", "path", path)
}
