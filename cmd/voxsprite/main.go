// voxsprite - Voxel Sprite Renderer
// Draws ray-traced voxel sprites and textured planes in the terminal, a
// desktop window, or headless to a PNG/GIF file.
//
// Controls (terminal and window):
//
//	Mouse drag  - Turn pointer-controlled sprites
//	Esc/Q       - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/taigrr/voxsprite/pkg/config"
	"github.com/taigrr/voxsprite/pkg/render"
	"github.com/taigrr/voxsprite/pkg/scene"
	"github.com/taigrr/voxsprite/pkg/viewport"
	"github.com/taigrr/voxsprite/pkg/window"
	"golang.org/x/term"
)

const (
	modeTerminal = "terminal"
	modeWindow   = "window"
	modeHeadless = "headless"
)

var (
	configPath = flag.String("config", "", "Path to a JSON scene config (default: built-in demo)")
	mode       = flag.String("mode", "", "Output: terminal, window or headless (default: terminal on a TTY, else headless)")
	frames     = flag.Int("frames", 0, "Stop after this many frames (headless default 1)")
	outPath    = flag.String("out", "", "Record to a .png (last frame) or .gif (all frames)")
	targetFPS  = flag.Int("fps", 0, "Target FPS (overrides config)")
	workers    = flag.Int("workers", 0, "Voxel shading goroutines (overrides config)")
	debug      = flag.Bool("debug", false, "Debug logging")
	logPath    = flag.String("log", "", "Log file in terminal mode (default: discard)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "voxsprite - Voxel Sprite Renderer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: voxsprite [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Mouse drag  - Turn the sprite\n")
		fmt.Fprintf(os.Stderr, "  Esc/Q       - Quit\n")
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m := *mode
	if m == "" {
		m = modeHeadless
		if term.IsTerminal(int(os.Stdout.Fd())) {
			m = modeTerminal
		}
	}

	closeLog, err := setupLogging(m)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	var rec *scene.Recorder
	if *outPath != "" {
		rec, err = scene.NewRecorder(*outPath, cfg.FPS)
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				slog.Error("voxsprite: recording failed", "path", *outPath, "err", err)
			}
		}()
	}

	switch m {
	case modeTerminal:
		return runTerminal(ctx, cancel, cfg, rec)
	case modeWindow:
		return runWindow(ctx, cfg, rec)
	case modeHeadless:
		return runHeadless(ctx, cfg, rec)
	}
	return fmt.Errorf("unknown mode %q (use terminal, window or headless)", m)
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}
	if *targetFPS > 0 {
		cfg.FPS = *targetFPS
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	return cfg, cfg.Validate()
}

// setupLogging installs the default logger. Terminal mode must not write
// to the screen, so it logs to -log or nowhere.
func setupLogging(m string) (func(), error) {
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	closer := func() {}
	if m == modeTerminal {
		w = io.Discard
		if *logPath != "" {
			f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open log: %w", err)
			}
			w = f
			closer = func() { f.Close() }
		}
	}

	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(l)
	scene.SetLogger(l)
	return closer, nil
}

func newLoop(cfg *config.Config, vp *viewport.Viewport) (*scene.Loop, error) {
	s, err := scene.New(cfg, vp)
	if err != nil {
		return nil, err
	}
	return &scene.Loop{Scene: s, FPS: cfg.FPS, Frames: *frames}, nil
}

// withRecorder adds rec after p when recording.
func withRecorder(p scene.Presenter, rec *scene.Recorder) scene.Presenter {
	if rec == nil {
		return p
	}
	return scene.Tee(p, rec)
}

func runHeadless(ctx context.Context, cfg *config.Config, rec *scene.Recorder) error {
	vp := viewport.New(cfg.Viewport.Width, cfg.Viewport.Height, cfg.Viewport.PixelRatio)
	loop, err := newLoop(cfg, vp)
	if err != nil {
		return err
	}
	defer loop.Scene.Close()

	if loop.Frames == 0 {
		loop.Frames = 1
	}
	loop.Unthrottled = true

	discard := scene.PresenterFunc(func(*render.Framebuffer) error { return nil })
	if err := loop.Run(ctx, withRecorder(discard, rec)); err != nil {
		return err
	}
	slog.Info("voxsprite: headless run finished", "frames", loop.Frame())
	return nil
}

func runWindow(ctx context.Context, cfg *config.Config, rec *scene.Recorder) error {
	vp := viewport.New(cfg.Viewport.Width, cfg.Viewport.Height, cfg.Viewport.PixelRatio)
	loop, err := newLoop(cfg, vp)
	if err != nil {
		return err
	}
	defer loop.Scene.Close()

	var extra scene.Presenter
	if rec != nil {
		extra = rec
	}
	return window.New(ctx, loop, extra).Run("voxsprite")
}
