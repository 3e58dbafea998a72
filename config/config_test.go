package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Grid.CellSize != 8 || cfg.Grid.BorderWidth != 2 {
		t.Errorf("grid = %+v", cfg.Grid)
	}
	if !cfg.Screen.ScaleDisabled {
		t.Error("shape layer follows dpr by default")
	}
	if cfg.Particles.MaxActive != 100 {
		t.Errorf("max_active = %d", cfg.Particles.MaxActive)
	}
	d := cfg.Derived
	if d.Background != (color.NRGBA{0x0F, 0x0F, 0x0F, 0xFF}) {
		t.Errorf("background = %v", d.Background)
	}
	if d.Highlight != (color.NRGBA{0xF2, 0x5C, 0x1F, 0xFF}) {
		t.Errorf("highlight = %v", d.Highlight)
	}
	if d.ParticleRadius != 1 {
		t.Errorf("particle radius = %v, want half the border", d.ParticleRadius)
	}
	if d.RepaintMin != 300*time.Millisecond || d.RepaintMax != 500*time.Millisecond {
		t.Errorf("repaint = %v..%v", d.RepaintMin, d.RepaintMax)
	}
	if d.AmbientMax != time.Second || d.Debounce != 100*time.Millisecond {
		t.Errorf("ambient max %v, debounce %v", d.AmbientMax, d.Debounce)
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	user := "particles:\n  max_active: 40\ncolors:\n  electron: \"#0f0\"\ncells:\n  repaint_min_ms: 900\n  repaint_max_ms: 600\n"
	if err := os.WriteFile(path, []byte(user), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Particles.MaxActive != 40 {
		t.Errorf("max_active = %d, want 40", cfg.Particles.MaxActive)
	}
	if cfg.Particles.DefaultLifetimeMS != 3000 {
		t.Errorf("unset field lost its default: %d", cfg.Particles.DefaultLifetimeMS)
	}
	if cfg.Derived.Electron != (color.NRGBA{0, 0xFF, 0, 0xFF}) {
		t.Errorf("electron = %v", cfg.Derived.Electron)
	}
	if cfg.Derived.RepaintMin != 600*time.Millisecond || cfg.Derived.RepaintMax != 900*time.Millisecond {
		t.Errorf("reversed range not swapped: %v..%v", cfg.Derived.RepaintMin, cfg.Derived.RepaintMax)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("colors:\n  font: \"#zzzzzz\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("invalid color accepted")
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#13191f", color.NRGBA{0x13, 0x19, 0x1F, 0xFF}, false},
		{"fff", color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}, false},
		{"#F25C1F80", color.NRGBA{0xF2, 0x5C, 0x1F, 0x80}, false},
		{"#12345", color.NRGBA{}, true},
		{"", color.NRGBA{}, true},
		{"#ggg", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Shape.FallbackText = "GO"
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Shape.FallbackText != "GO" {
		t.Fatalf("fallback text = %q", back.Shape.FallbackText)
	}
}
