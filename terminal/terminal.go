// Package terminal presents the board on a text terminal. Every character
// cell shows two board pixels with an upper half block.
package terminal

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/olivierh59500/circuitboard/clock"
	"github.com/olivierh59500/circuitboard/shape"
	"github.com/olivierh59500/circuitboard/surface"
)

const (
	frameInterval = 16 * time.Millisecond
	upperHalf     = '▀'
	promptPrefix  = "> "
)

// Board is the part of the engine the terminal drives.
type Board interface {
	Start(c surface.Container)
	Stop()
	Frames() *clock.FrameQueue
	MainPixels() *image.RGBA
	NotifyResize()
	SetText(s string)
	ClearShape()
	Burst(m shape.Matrix) int
	Touch(x, y float64, moving bool)
}

// Options configures a Host.
type Options struct {
	// Scale is the number of board pixels per terminal pixel horizontally.
	// A character cell covers Scale by 2*Scale board pixels.
	Scale  int
	Logger *slog.Logger
	// Tick runs the frame queue once. Defaults to board.Frames().Run.
	Tick func()
}

// Host runs the board inside a tcell screen.
type Host struct {
	screen tcell.Screen
	board  Board
	opts   Options
	log    *slog.Logger

	input     []rune
	lastMouse [2]int
	hasMouse  bool
	mouseDown bool
}

// New creates a host on the current terminal. The screen is initialized by Run.
func New(board Board, opts Options) (*Host, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("creating terminal screen: %w", err)
	}
	if opts.Scale < 1 {
		opts.Scale = 4
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Tick == nil {
		opts.Tick = board.Frames().Run
	}
	return &Host{screen: screen, board: board, opts: opts, log: opts.Logger}, nil
}

// Size implements surface.Container. The bottom row holds the prompt.
func (h *Host) Size() (int, int) {
	cols, rows := h.screen.Size()
	return cols * h.opts.Scale, max(rows-1, 0) * 2 * h.opts.Scale
}

// Run shows the board until ctx is done or the user quits with Esc or Ctrl-C.
func (h *Host) Run(ctx context.Context) error {
	if err := h.screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal screen: %w", err)
	}
	defer h.screen.Fini()
	h.screen.EnableMouse()
	h.screen.HideCursor()

	h.board.Start(h)
	defer h.board.Stop()

	done := make(chan struct{})
	defer close(done)
	events, _ := h.pollEvents(done)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !h.handleEvent(ev) {
				return nil
			}
		case <-ticker.C:
			h.opts.Tick()
			h.draw()
		}
	}
}

// pollEvents forwards screen events until the screen is finalized or done
// is closed. stopped is closed when the forwarding goroutine exits.
func (h *Host) pollEvents(done <-chan struct{}) (events <-chan tcell.Event, stopped <-chan struct{}) {
	ch := make(chan tcell.Event, 100)
	exit := make(chan struct{})
	go func() {
		defer close(exit)
		for {
			ev := h.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case ch <- ev:
			case <-done:
				return
			}
		}
	}()
	return ch, exit
}

// handleEvent returns false when the user asked to quit.
func (h *Host) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyEnter:
			text := string(h.input)
			h.input = h.input[:0]
			h.board.SetText(text)
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			if len(h.input) > 0 {
				h.input = h.input[:len(h.input)-1]
			}
		case tcell.KeyTab:
			h.board.Burst(nil)
		case tcell.KeyCtrlL:
			h.board.ClearShape()
		case tcell.KeyRune:
			h.input = append(h.input, ev.Rune())
		}

	case *tcell.EventMouse:
		x, y := ev.Position()
		down := ev.Buttons()&tcell.Button1 != 0
		moved := !h.hasMouse || h.lastMouse != [2]int{x, y}
		px, py := CellCenter(x, y, h.opts.Scale)
		switch {
		case down && !h.mouseDown:
			h.board.Touch(px, py, false)
		case moved:
			h.board.Touch(px, py, true)
		}
		h.lastMouse, h.hasMouse, h.mouseDown = [2]int{x, y}, true, down

	case *tcell.EventResize:
		h.screen.Sync()
		h.board.NotifyResize()
		h.log.Debug("terminal resized")
	}
	return true
}

func (h *Host) draw() {
	cols, rows := h.screen.Size()
	boardRows := max(rows-1, 0)

	HalfBlocks(h.board.MainPixels(), cols, boardRows, func(x, y int, upper, lower color.RGBA) {
		style := tcell.StyleDefault.
			Foreground(tcell.NewRGBColor(int32(upper.R), int32(upper.G), int32(upper.B))).
			Background(tcell.NewRGBColor(int32(lower.R), int32(lower.G), int32(lower.B)))
		h.screen.SetContent(x, y, upperHalf, nil, style)
	})

	prompt := []rune(promptPrefix + string(h.input))
	for x := 0; x < cols; x++ {
		r := ' '
		if x < len(prompt) {
			r = prompt[x]
		}
		h.screen.SetContent(x, boardRows, r, nil, tcell.StyleDefault)
	}
	h.screen.Show()
}

// HalfBlocks samples img onto a cols by rows character grid and calls set
// with the colors of the upper and lower half of every character.
func HalfBlocks(img *image.RGBA, cols, rows int, set func(x, y int, upper, lower color.RGBA)) {
	if img == nil || cols <= 0 || rows <= 0 {
		return
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return
	}
	for y := 0; y < rows; y++ {
		uy := b.Min.Y + (4*y+1)*h/(4*rows)
		ly := b.Min.Y + (4*y+3)*h/(4*rows)
		for x := 0; x < cols; x++ {
			px := b.Min.X + (2*x+1)*w/(2*cols)
			set(x, y, img.RGBAAt(px, uy), img.RGBAAt(px, ly))
		}
	}
}

// CellCenter returns the board point at the center of the character at
// (col, row).
func CellCenter(col, row, scale int) (float64, float64) {
	s := float64(scale)
	return (float64(col) + 0.5) * s, (float64(row) + 0.5) * 2 * s
}
