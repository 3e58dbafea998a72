package engine

import (
	"time"

	"github.com/olivierh59500/circuitboard/clock"
	"github.com/olivierh59500/circuitboard/effect"
)

// Program is a scripted effect sequence replayed on the frame clock.
type Program int

const (
	// Ring redraws the default ring every 16ms.
	Ring Program = iota + 1
	// Galaxy grows a spiral out of the center every 16ms.
	Galaxy
	// Countdown shows 3, 2, 1 a second apart, then plays Galaxy.
	Countdown
	// Typewriter reveals a text one letter per second.
	Typewriter
)

func (p Program) String() string {
	switch p {
	case Ring:
		return "ring"
	case Galaxy:
		return "galaxy"
	case Countdown:
		return "countdown"
	case Typewriter:
		return "typewriter"
	}
	return "none"
}

// ParseProgram returns the program named name, as printed by String.
func ParseProgram(name string) (Program, bool) {
	for p := Ring; p <= Typewriter; p++ {
		if p.String() == name {
			return p, true
		}
	}
	return 0, false
}

// DefaultTypewriterText is typed when Typewriter gets no text.
const DefaultTypewriterText = "naïve"

type timer struct {
	at time.Time
	fn func()
}

// Play starts p, replacing any program in progress. text is only used by
// Typewriter. Setting a text or image, or clearing, ends the program.
func (e *Engine) Play(p Program, text string) {
	e.program = nil
	e.log.Debug("program started", "program", p.String())
	switch p {
	case Ring:
		e.composer.Clear()
		e.ring()
	case Galaxy:
		e.composer.Clear()
		e.galaxy()
	case Countdown:
		e.countdown(0)
	case Typewriter:
		if text == "" {
			text = DefaultTypewriterText
		}
		e.typewriter([]rune(text), 1)
	}
}

// StopProgram ends the program in progress, leaving the board as it is.
func (e *Engine) StopProgram() {
	e.program = nil
}

// Playing reports whether a program is in progress
func (e *Engine) Playing() bool { return e.program != nil }

func (e *Engine) after(d time.Duration, fn func()) {
	e.program = &timer{at: e.clk.Now().Add(d), fn: fn}
}

func (e *Engine) runProgram(now time.Time) {
	t := e.program
	if t == nil || now.Before(t.at) {
		return
	}
	e.program = nil
	t.fn()
}

func (e *Engine) ring() {
	e.composer.Spiral(effect.SpiralOptions{})
	e.after(16*time.Millisecond, e.ring)
}

func (e *Engine) galaxy() {
	e.composer.Spiral(effect.SpiralOptions{
		Radius:        effect.Radius(0),
		Increment:     1,
		Lifetime:      100 * time.Millisecond,
		ElectronCount: 1,
	})
	e.after(16*time.Millisecond, e.galaxy)
}

func (e *Engine) countdown(i int) {
	steps := [...]string{"3", "2", "1"}
	if i >= len(steps) {
		e.composer.Clear()
		e.galaxy()
		return
	}
	e.composer.RenderText(steps[i])
	e.after(time.Second+clock.Millis(i+1), func() { e.countdown(i + 1) })
}

func (e *Engine) typewriter(text []rune, n int) {
	e.composer.RenderText(string(text[:n]))
	if n >= len(text) {
		return
	}
	e.after(time.Second+clock.Millis(n), func() { e.typewriter(text, n+1) })
}
