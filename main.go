package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gogpu/gg"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/olivierh59500/circuitboard/audio"
	"github.com/olivierh59500/circuitboard/clock"
	"github.com/olivierh59500/circuitboard/config"
	"github.com/olivierh59500/circuitboard/engine"
	"github.com/olivierh59500/circuitboard/imagesrc"
	"github.com/olivierh59500/circuitboard/telemetry"
	"github.com/olivierh59500/circuitboard/terminal"
)

const headlessStep = 16 * time.Millisecond

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	headless := flag.Bool("headless", false, "Run without a window and save the last frame")
	term := flag.Bool("term", false, "Run in the terminal")
	frames := flag.Int("frames", 300, "Frames to run in headless mode")
	outDir := flag.String("out", ".", "Directory for the headless frame and snapshots")
	statsDir := flag.String("stats", "", "Directory for stats.csv and a config snapshot (empty = off)")
	text := flag.String("text", "", "Text to show at start")
	imageSrc := flag.String("image", "", "Image file or data URI to show at start")
	program := flag.String("program", "", "Program to play at start: ring, galaxy, countdown or typewriter")
	sound := flag.Bool("sound", false, "Play a blip on every burst")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn or error")

	flag.Parse()

	// Set up slog (JSON to stderr so the terminal host keeps stdout)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	gg.SetLogger(logger.With("component", "gg"))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	player := audio.NewPlayer()
	if *sound || cfg.Audio.Enabled {
		if err := player.Init(cfg.Audio.SampleRate, cfg.Audio.Volume); err != nil {
			// the board runs fine without sound
			slog.Warn("audio unavailable", "error", err)
		}
	}
	defer player.Close()

	collector := telemetry.NewCollector(cfg.Telemetry.WindowFrames)
	out, err := telemetry.NewOutput(*statsDir)
	if err != nil {
		slog.Error("failed to create stats output", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if *statsDir != "" {
		if err := cfg.WriteYAML(filepath.Join(*statsDir, "config.yaml")); err != nil {
			slog.Warn("config snapshot failed", "error", err)
		}
	}

	opts := engine.FromConfig(cfg)
	opts.Rand = rand.New(rand.NewSource(rngSeed))
	opts.Logger = logger
	opts.OnBurst = func(cells int) {
		player.Blip(cells)
		collector.RecordBurst()
	}
	var manual *clock.Manual
	if *headless {
		manual = clock.NewManual(time.Now())
		opts.Clock = manual
	}

	board, err := engine.New(opts)
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}
	defer board.Close()

	// tick runs one pass of the frame queue and records its timing
	tick := func() {
		start := time.Now()
		board.Frames().Run()
		st := board.Stats()
		ws, ok := collector.Record(telemetry.FrameSample{
			Duration:  time.Since(start),
			Particles: st.Particles,
			Cells:     st.Cells,
		})
		if !ok {
			return
		}
		slog.Debug("frame window", "stats", ws)
		if err := out.Write(ws); err != nil {
			slog.Warn("stats write failed", "error", err)
		}
	}
	defer func() {
		if ws, ok := collector.Flush(); ok {
			_ = out.Write(ws)
		}
	}()

	slog.Info("starting board",
		"seed", rngSeed,
		"headless", *headless,
		"term", *term,
		"cell_size", cfg.Grid.CellSize,
		"max_particles", cfg.Particles.MaxActive,
	)

	show := func() {
		switch {
		case *program != "":
			p, ok := engine.ParseProgram(*program)
			if !ok {
				slog.Warn("unknown program", "program", *program)
				return
			}
			board.Play(p, *text)
		case *imageSrc != "" && *headless:
			// decode in place so the image lands before the first frame
			img, err := imagesrc.Load(context.Background(), *imageSrc)
			if err != nil {
				slog.Warn("image decode failed", "error", err)
				board.SetText(cfg.Shape.FallbackText)
				return
			}
			board.SetImage(img.Image)
		case *imageSrc != "":
			board.LoadImage(*imageSrc)
		case *text != "":
			board.SetText(*text)
		}
	}

	switch {
	case *headless:
		board.Start(engine.FixedSize{Width: cfg.Screen.Width, Height: cfg.Screen.Height})
		show()
		for i := 0; i < *frames; i++ {
			manual.Advance(headlessStep)
			tick()
		}
		path := filepath.Join(*outDir, "frame.png")
		if err := board.SavePNG(path); err != nil {
			slog.Error("failed to save frame", "error", err)
			os.Exit(1)
		}
		st := board.Stats()
		slog.Info("headless run finished",
			"frames", st.Frames,
			"particles", st.Particles,
			"cells", st.Cells,
			"path", path,
		)

	case *term:
		host, err := terminal.New(board, terminal.Options{Logger: logger, Tick: tick})
		if err != nil {
			slog.Error("failed to open terminal", "error", err)
			os.Exit(1)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		// the host starts the board; programs need the layers sized first
		board.Frames().Post(show)
		if err := host.Run(ctx); err != nil {
			slog.Error("terminal host failed", "error", err)
			os.Exit(1)
		}

	default:
		sim := NewSimulation(board, tick, *outDir, logger)
		board.Frames().Post(show)

		ebiten.SetWindowSize(cfg.Screen.Width, cfg.Screen.Height)
		ebiten.SetWindowTitle(cfg.Screen.Title)
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
		ebiten.SetTPS(cfg.Screen.TPS)

		if err := ebiten.RunGame(sim); err != nil {
			slog.Error("game loop failed", "error", err)
			os.Exit(1)
		}
	}
}
