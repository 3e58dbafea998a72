// Package config provides configuration loading for the board.
package config

import (
	_ "embed"
	"fmt"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gogpu/gg"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all board configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Grid       GridConfig       `yaml:"grid"`
	Colors     ColorsConfig     `yaml:"colors"`
	Particles  ParticlesConfig  `yaml:"particles"`
	Cells      CellsConfig      `yaml:"cells"`
	Ambient    AmbientConfig    `yaml:"ambient"`
	Shape      ShapeConfig      `yaml:"shape"`
	Background BackgroundConfig `yaml:"background"`
	Resize     ResizeConfig     `yaml:"resize"`
	Audio      AudioConfig      `yaml:"audio"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds window settings.
type ScreenConfig struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	TPS    int     `yaml:"tps"`
	DPR    float64 `yaml:"dpr"` // Device pixel ratio of the main layers
	Title  string  `yaml:"title"`

	// ScaleDisabled keeps the shape layer at one backing pixel per logical
	// pixel whatever the dpr.
	ScaleDisabled bool `yaml:"scale_disabled"`
}

// GridConfig holds the tile geometry in logical pixels.
type GridConfig struct {
	CellSize    int `yaml:"cell_size"`
	BorderWidth int `yaml:"border_width"`
}

// ColorsConfig holds the theme as hex strings.
type ColorsConfig struct {
	Background string `yaml:"background"`
	Border     string `yaml:"border"`
	Trace      string `yaml:"trace"`
	Highlight  string `yaml:"highlight"`
	Electron   string `yaml:"electron"`
	Font       string `yaml:"font"`
}

// ParticlesConfig holds particle defaults.
type ParticlesConfig struct {
	MaxActive         int     `yaml:"max_active"`
	DefaultLifetimeMS int     `yaml:"default_lifetime_ms"`
	DefaultSpeed      float64 `yaml:"default_speed"`
	Radius            float64 `yaml:"radius"`      // 0 = half the border width
	BlurFactor        float64 `yaml:"blur_factor"` // Glow radius / particle radius
}

// CellsConfig holds the repaint interval of lit cells.
type CellsConfig struct {
	RepaintMinMS int `yaml:"repaint_min_ms"`
	RepaintMaxMS int `yaml:"repaint_max_ms"`
}

// AmbientConfig holds the interval between random background cells.
type AmbientConfig struct {
	MinMS int `yaml:"min_ms"`
	MaxMS int `yaml:"max_ms"`
}

// ShapeConfig holds text and image layout parameters.
type ShapeConfig struct {
	FillRatio       float64 `yaml:"fill_ratio"`
	MaxFontSize     float64 `yaml:"max_font_size"`
	FontWeight      string  `yaml:"font_weight"` // "bold" or "normal"
	FallbackText    string  `yaml:"fallback_text"`
	ActivationMinMS int     `yaml:"activation_min_ms"`
	ActivationMaxMS int     `yaml:"activation_max_ms"`
}

// BackgroundConfig holds the grid layer and fade parameters.
type BackgroundConfig struct {
	FadeOpacity     float64 `yaml:"fade_opacity"`
	PrepaintOpacity float64 `yaml:"prepaint_opacity"`
	TraceThreshold  float64 `yaml:"trace_threshold"` // >= 1 disables traces
	TraceScale      float64 `yaml:"trace_scale"`
	NoiseAlpha      float64 `yaml:"noise_alpha"`
	NoiseBeta       float64 `yaml:"noise_beta"`
	NoiseOctaves    int     `yaml:"noise_octaves"`
}

// ResizeConfig holds the resize debounce.
type ResizeConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

// AudioConfig holds burst sound parameters.
type AudioConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Volume     float64 `yaml:"volume"`
	SampleRate int     `yaml:"sample_rate"`
}

// TelemetryConfig holds frame statistics parameters.
type TelemetryConfig struct {
	WindowFrames int `yaml:"window_frames"`
}

// DerivedConfig holds parsed values computed from the loaded config.
type DerivedConfig struct {
	Background color.NRGBA
	Border     color.NRGBA
	Trace      color.NRGBA
	Highlight  color.NRGBA
	Electron   color.NRGBA
	Font       color.NRGBA

	ParticleLifetime time.Duration
	ParticleRadius   float64
	RepaintMin       time.Duration
	RepaintMax       time.Duration
	AmbientMin       time.Duration
	AmbientMax       time.Duration
	ActivationMin    time.Duration
	ActivationMax    time.Duration
	Debounce         time.Duration
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived parses colors and converts millisecond fields.
func (c *Config) computeDerived() error {
	if c.Grid.CellSize <= 0 || c.Grid.BorderWidth < 0 {
		return fmt.Errorf("invalid grid geometry %dpx + %dpx", c.Grid.CellSize, c.Grid.BorderWidth)
	}
	if c.Screen.DPR < 1 {
		c.Screen.DPR = 1
	}

	colors := []struct {
		name string
		hex  string
		dst  *color.NRGBA
	}{
		{"background", c.Colors.Background, &c.Derived.Background},
		{"border", c.Colors.Border, &c.Derived.Border},
		{"trace", c.Colors.Trace, &c.Derived.Trace},
		{"highlight", c.Colors.Highlight, &c.Derived.Highlight},
		{"electron", c.Colors.Electron, &c.Derived.Electron},
		{"font", c.Colors.Font, &c.Derived.Font},
	}
	for _, col := range colors {
		v, err := ParseHex(col.hex)
		if err != nil {
			return fmt.Errorf("colors.%s: %w", col.name, err)
		}
		*col.dst = v
	}

	d := &c.Derived
	d.ParticleLifetime = millis(c.Particles.DefaultLifetimeMS)
	d.ParticleRadius = c.Particles.Radius
	if d.ParticleRadius <= 0 {
		d.ParticleRadius = float64(c.Grid.BorderWidth) / 2
	}
	d.RepaintMin, d.RepaintMax = millisRange(c.Cells.RepaintMinMS, c.Cells.RepaintMaxMS)
	d.AmbientMin, d.AmbientMax = millisRange(c.Ambient.MinMS, c.Ambient.MaxMS)
	d.ActivationMin, d.ActivationMax = millisRange(c.Shape.ActivationMinMS, c.Shape.ActivationMaxMS)
	d.Debounce = millis(c.Resize.DebounceMS)
	return nil
}

func millis(ms int) time.Duration {
	return time.Duration(max(ms, 0)) * time.Millisecond
}

// millisRange converts a [lo, hi] pair, swapping it when reversed.
func millisRange(lo, hi int) (time.Duration, time.Duration) {
	if hi < lo {
		lo, hi = hi, lo
	}
	return millis(lo), millis(hi)
}

// ParseHex parses "#RGB", "#RGBA", "#RRGGBB" or "#RRGGBBAA".
func ParseHex(s string) (color.NRGBA, error) {
	digits := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(digits) {
	case 3, 4, 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("bad color %q", s)
	}
	if _, err := strconv.ParseUint(digits, 16, 32); err != nil {
		return color.NRGBA{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	c := gg.Hex(digits)
	to8 := func(v float64) uint8 { return uint8(math.Round(v * 255)) }
	return color.NRGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(c.A)}, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
