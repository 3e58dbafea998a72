// Package engine drives the board: it owns the layers and the entity world,
// runs one animation step per frame and exposes the host-facing controls.
package engine

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math/rand"
	"time"

	"github.com/aquilax/go-perlin"

	"github.com/olivierh59500/circuitboard/clock"
	"github.com/olivierh59500/circuitboard/config"
	"github.com/olivierh59500/circuitboard/effect"
	"github.com/olivierh59500/circuitboard/entity"
	"github.com/olivierh59500/circuitboard/grid"
	"github.com/olivierh59500/circuitboard/imagesrc"
	"github.com/olivierh59500/circuitboard/shape"
	"github.com/olivierh59500/circuitboard/surface"
)

// Options configures an Engine. Zero Clock, Rand, Frames and Logger fields
// get working defaults.
type Options struct {
	Entity entity.Config
	Effect effect.Options

	Background color.NRGBA
	Border     color.NRGBA
	Trace      color.NRGBA

	DPR             float64
	ScaleDisabled   bool
	FadeOpacity     float64
	PrepaintOpacity float64
	AmbientMin      time.Duration
	AmbientMax      time.Duration
	Debounce        time.Duration

	FontWeight   string
	FallbackText string

	TraceThreshold float64
	TraceScale     float64
	NoiseAlpha     float64
	NoiseBeta      float64
	NoiseOctaves   int

	Clock  clock.Clock
	Rand   *rand.Rand
	Frames *clock.FrameQueue
	Logger *slog.Logger

	// OnBurst is called after every explode with the number of cells lit.
	OnBurst func(cells int)
}

// FromConfig builds engine options from a loaded configuration.
func FromConfig(cfg *config.Config) Options {
	d := cfg.Derived
	g := grid.Geometry{CellSize: cfg.Grid.CellSize, Border: cfg.Grid.BorderWidth}
	palette := entity.Palette{Highlight: d.Highlight, Electron: d.Electron, Font: d.Font}

	return Options{
		Entity: entity.Config{
			Geometry:     g,
			MaxParticles: cfg.Particles.MaxActive,
			Particle: entity.ParticleOptions{
				Lifetime: d.ParticleLifetime,
				Speed:    cfg.Particles.DefaultSpeed,
				Color:    d.Electron,
			},
			ParticleRadius: d.ParticleRadius,
			ParticleBlur:   d.ParticleRadius * cfg.Particles.BlurFactor,
			RepaintMin:     d.RepaintMin,
			RepaintMax:     d.RepaintMax,
		},
		Effect: effect.Options{
			Palette:       palette,
			FillRatio:     cfg.Shape.FillRatio,
			MaxFontSize:   cfg.Shape.MaxFontSize,
			ActivationMin: d.ActivationMin,
			ActivationMax: d.ActivationMax,
		},
		Background:      d.Background,
		Border:          d.Border,
		Trace:           d.Trace,
		DPR:             cfg.Screen.DPR,
		ScaleDisabled:   cfg.Screen.ScaleDisabled,
		FadeOpacity:     cfg.Background.FadeOpacity,
		PrepaintOpacity: cfg.Background.PrepaintOpacity,
		AmbientMin:      d.AmbientMin,
		AmbientMax:      d.AmbientMax,
		Debounce:        d.Debounce,
		FontWeight:      cfg.Shape.FontWeight,
		FallbackText:    cfg.Shape.FallbackText,
		TraceThreshold:  cfg.Background.TraceThreshold,
		TraceScale:      cfg.Background.TraceScale,
		NoiseAlpha:      cfg.Background.NoiseAlpha,
		NoiseBeta:       cfg.Background.NoiseBeta,
		NoiseOctaves:    cfg.Background.NoiseOctaves,
	}
}

// DefaultOptions returns the options of the embedded configuration.
func DefaultOptions() Options {
	return FromConfig(config.Default())
}

// Stats is a snapshot of the board state.
type Stats struct {
	Running    bool
	Frames     int
	Particles  int
	Cells      int
	ShapeCells int
	Text       string
}

// FixedSize is a container of constant size.
type FixedSize struct {
	Width, Height int
}

// Size implements surface.Container
func (s FixedSize) Size() (int, int) { return s.Width, s.Height }

// Engine runs the board. All methods must be called from the goroutine that
// runs the frame queue.
type Engine struct {
	opts   Options
	log    *slog.Logger
	clk    clock.Clock
	rng    *rand.Rand
	frames *clock.FrameQueue

	container surface.Container
	bg        *surface.Surface
	main      *surface.Surface
	layer     *surface.Surface

	world    *entity.World
	composer *effect.Composer
	font     *shape.Font
	noise    *perlin.Perlin
	resize   *surface.Debouncer

	running     bool
	frameID     clock.FrameID
	frameCount  int
	nextAmbient time.Time
	program     *timer
	loadCancel  context.CancelFunc
}

// New creates a stopped engine.
func New(opts Options) (*Engine, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Frames == nil {
		opts.Frames = clock.NewFrameQueue()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.FallbackText == "" {
		opts.FallbackText = "AI"
	}

	font, err := shape.NewFont(opts.FontWeight)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	e := &Engine{
		opts:   opts,
		log:    opts.Logger,
		clk:    opts.Clock,
		rng:    opts.Rand,
		frames: opts.Frames,
		font:   font,
		resize: surface.NewDebouncer(opts.Debounce),
		noise:  perlin.NewPerlin(opts.NoiseAlpha, opts.NoiseBeta, int32(max(opts.NoiseOctaves, 1)), opts.Rand.Int63()),
	}
	e.bg = surface.New(1, 1, opts.DPR)
	e.main = surface.New(1, 1, opts.DPR)
	layerScale := opts.DPR
	if opts.ScaleDisabled {
		layerScale = 1
	}
	e.layer = surface.New(1, 1, layerScale)
	e.bg.OnResize(e.paintGrid)
	e.main.OnResize(e.prepaint)
	e.layer.OnResize(func(*surface.Surface) { e.composer.Rerender() })

	e.world = entity.NewWorld(opts.Entity, opts.Rand)
	e.composer = effect.New(e.world, e.main, e.layer, font, opts.Clock, opts.Effect)
	e.composer.OnBurst = e.burst
	return e, nil
}

// Frames returns the queue the engine schedules its frames on
func (e *Engine) Frames() *clock.FrameQueue { return e.frames }

// World returns the entity world
func (e *Engine) World() *entity.World { return e.world }

// Running reports whether the animation loop is active
func (e *Engine) Running() bool { return e.running }

// Start sizes the layers to c, paints the grid and starts the animation
// loop. Starting a running engine does nothing.
func (e *Engine) Start(c surface.Container) {
	if e.running {
		return
	}
	e.container = c
	e.resizeAll()
	e.running = true
	e.nextAmbient = time.Time{}
	e.frameID = e.frames.Request(e.Frame)

	w, h := c.Size()
	e.log.Info("engine started", "width", w, "height", h, "dpr", e.main.Scale())
}

// Stop cancels the pending frame, timers and image loads and empties the
// world. The layers keep their pixels.
func (e *Engine) Stop() {
	if !e.running {
		return
	}
	e.frames.Cancel(e.frameID)
	e.resize.Cancel()
	e.program = nil
	if e.loadCancel != nil {
		e.loadCancel()
		e.loadCancel = nil
	}
	e.world.Reset()
	e.composer.Reset()
	e.running = false
	e.log.Info("engine stopped", "frames", e.frameCount)
}

// Close stops the engine and releases its layers and font.
func (e *Engine) Close() error {
	e.Stop()
	for _, s := range []*surface.Surface{e.bg, e.main, e.layer} {
		if err := s.Close(); err != nil {
			return err
		}
	}
	return e.font.Close()
}

// Frame runs one animation step and schedules the next.
func (e *Engine) Frame() {
	if !e.running {
		return
	}
	now := e.clk.Now()
	if e.resize.Poll(now) {
		e.resizeAll()
	}
	e.runProgram(now)

	e.main.CompositeFrom(e.bg, e.opts.FadeOpacity, surface.Normal)
	e.world.Sweep(e.main, now)
	e.ambient(now)

	e.frameCount++
	e.frameID = e.frames.Request(e.Frame)
}

func (e *Engine) ambient(now time.Time) {
	if now.Before(e.nextAmbient) {
		return
	}
	lo, hi := int(e.opts.AmbientMin.Milliseconds()), int(e.opts.AmbientMax.Milliseconds())
	e.nextAmbient = now.Add(entity.RandMillis(e.rng, lo, hi))
	e.composer.SpawnRandom(entity.AmbientCellOptions(e.rng, e.opts.Effect.Palette))
}

// NotifyResize reports that the container changed size. The layers follow
// once no further notification arrives for the debounce period.
func (e *Engine) NotifyResize() {
	e.resize.Signal(e.clk.Now())
}

func (e *Engine) resizeAll() {
	if e.container == nil {
		return
	}
	e.bg.Resize(e.container)
	e.main.Resize(e.container)
	e.layer.Resize(e.container)

	rw, rh := e.main.BackingSize()
	e.log.Debug("layers resized",
		"width", e.main.Width(), "height", e.main.Height(),
		"backing_width", rw, "backing_height", rh)
}

// SetText shows s as a shape; an empty s clears the board.
func (e *Engine) SetText(s string) {
	e.program = nil
	m := e.composer.RenderText(s)
	e.log.Debug("text rendered", "text", s, "cells", len(m))
}

// SetImage shows img as a shape; nil clears the board.
func (e *Engine) SetImage(img image.Image) {
	e.program = nil
	m := e.composer.RenderImage(img)
	e.log.Debug("image rendered", "cells", len(m))
}

// LoadImage decodes src in the background and shows it on a later frame.
// If decoding fails the fallback text is shown instead. A newer load or Stop
// supersedes a pending one.
func (e *Engine) LoadImage(src string) {
	if e.loadCancel != nil {
		e.loadCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.loadCancel = cancel

	go func() {
		img, err := imagesrc.Load(ctx, src)
		e.frames.Post(func() {
			if ctx.Err() != nil {
				return
			}
			cancel()
			e.loadCancel = nil
			if err != nil {
				e.log.Warn("image decode failed", "src", truncate(src, 64), "err", err)
				e.SetText(e.opts.FallbackText)
				return
			}
			e.SetImage(img.Image)
		})
	}()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ClearShape removes the current shape with a burst.
func (e *Engine) ClearShape() {
	e.program = nil
	e.composer.Clear()
}

// Burst explodes cells of m, or random cells when m is nil.
func (e *Engine) Burst(m shape.Matrix) int {
	return e.composer.Explode(m)
}

func (e *Engine) burst(cells int) {
	e.log.Debug("burst", "cells", cells)
	if e.opts.OnBurst != nil {
		e.opts.OnBurst(cells)
	}
}

// Sweep draws a ring or spiral of cells.
func (e *Engine) Sweep(opts effect.SpiralOptions) []*entity.Cell {
	return e.composer.Spiral(opts)
}

// Touch lights the cell under the logical point (x, y).
func (e *Engine) Touch(x, y float64, moving bool) {
	e.composer.Touch(x, y, moving)
}

// Matrix returns the cells of the current shape
func (e *Engine) Matrix() shape.Matrix { return e.composer.Matrix() }

// Stats returns a snapshot of the board state
func (e *Engine) Stats() Stats {
	return Stats{
		Running:    e.running,
		Frames:     e.frameCount,
		Particles:  len(e.world.Particles),
		Cells:      len(e.world.Cells),
		ShapeCells: len(e.composer.Matrix()),
		Text:       e.composer.Text(),
	}
}

// MainPixels returns the pixels of the visible layer
func (e *Engine) MainPixels() *image.RGBA { return e.main.Pixels() }

// MainSize returns the backing size of the visible layer
func (e *Engine) MainSize() (int, int) { return e.main.BackingSize() }

// SavePNG writes the visible layer to path.
func (e *Engine) SavePNG(path string) error {
	if err := e.main.SavePNG(path); err != nil {
		return fmt.Errorf("saving frame: %w", err)
	}
	return nil
}
