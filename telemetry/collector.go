// Package telemetry aggregates per-frame statistics of the board.
package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// FrameSample is what one animation frame reports.
type FrameSample struct {
	Duration  time.Duration
	Particles int
	Cells     int
}

// WindowStats holds aggregated statistics for a window of frames.
type WindowStats struct {
	WindowEnd int `csv:"window_end"`
	Frames    int `csv:"frames"`

	FrameMeanMS float64 `csv:"frame_mean_ms"`
	FrameP50MS  float64 `csv:"frame_p50_ms"`
	FrameP95MS  float64 `csv:"frame_p95_ms"`
	FrameMaxMS  float64 `csv:"frame_max_ms"`

	ParticlesMean float64 `csv:"particles_mean"`
	ParticlesMax  int     `csv:"particles_max"`
	CellsMax      int     `csv:"cells_max"`

	Bursts int `csv:"bursts"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_end", s.WindowEnd),
		slog.Int("frames", s.Frames),
		slog.Float64("frame_mean_ms", s.FrameMeanMS),
		slog.Float64("frame_p95_ms", s.FrameP95MS),
		slog.Int("particles_max", s.ParticlesMax),
		slog.Int("cells_max", s.CellsMax),
		slog.Int("bursts", s.Bursts),
	)
}

// Collector buffers frame samples and summarizes them every window.
type Collector struct {
	window  int
	frame   int
	samples []FrameSample
	bursts  int
}

// NewCollector creates a collector summarizing every window frames.
func NewCollector(window int) *Collector {
	if window < 1 {
		window = 120
	}
	return &Collector{window: window, samples: make([]FrameSample, 0, window)}
}

// RecordBurst counts an explode in the current window
func (c *Collector) RecordBurst() {
	c.bursts++
}

// Record adds a frame. When the window fills it returns the window's stats
// and starts a new one.
func (c *Collector) Record(s FrameSample) (WindowStats, bool) {
	c.frame++
	c.samples = append(c.samples, s)
	if len(c.samples) < c.window {
		return WindowStats{}, false
	}
	return c.Flush()
}

// Flush summarizes the frames recorded so far, if any.
func (c *Collector) Flush() (WindowStats, bool) {
	if len(c.samples) == 0 {
		return WindowStats{}, false
	}
	stats := summarize(c.samples)
	stats.WindowEnd = c.frame
	stats.Bursts = c.bursts

	c.samples = c.samples[:0]
	c.bursts = 0
	return stats, true
}

func summarize(samples []FrameSample) WindowStats {
	ms := make([]float64, len(samples))
	particles := make([]float64, len(samples))
	s := WindowStats{Frames: len(samples)}
	for i, f := range samples {
		ms[i] = float64(f.Duration) / float64(time.Millisecond)
		particles[i] = float64(f.Particles)
		s.ParticlesMax = max(s.ParticlesMax, f.Particles)
		s.CellsMax = max(s.CellsMax, f.Cells)
	}

	s.FrameMeanMS = stat.Mean(ms, nil)
	s.ParticlesMean = stat.Mean(particles, nil)

	slices.Sort(ms)
	s.FrameP50MS = stat.Quantile(0.5, stat.Empirical, ms, nil)
	s.FrameP95MS = stat.Quantile(0.95, stat.Empirical, ms, nil)
	s.FrameMaxMS = ms[len(ms)-1]
	return s
}
