package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/voxsprite/pkg/config"
	"github.com/taigrr/voxsprite/pkg/render"
	"github.com/taigrr/voxsprite/pkg/scene"
	"github.com/taigrr/voxsprite/pkg/viewport"
)

// terminalPresenter draws each surface as half-block cells. Terminal
// resizes arrive on the event goroutine and are applied before the next
// draw.
type terminalPresenter struct {
	term *uv.Terminal

	mu      sync.Mutex
	pending *uv.Size
}

func (p *terminalPresenter) resize(width, height int) {
	p.mu.Lock()
	p.pending = &uv.Size{Width: width, Height: height}
	p.mu.Unlock()
}

func (p *terminalPresenter) Present(surface *render.Framebuffer) error {
	p.mu.Lock()
	size := p.pending
	p.pending = nil
	p.mu.Unlock()
	if size != nil {
		p.term.Erase()
		if err := p.term.Resize(size.Width, size.Height); err != nil {
			return fmt.Errorf("resize terminal: %w", err)
		}
	}

	p.term.Draw(surface)
	if err := p.term.Display(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

func runTerminal(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, rec *scene.Recorder) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	// One pixel column per cell and two pixel rows per cell.
	size := render.TerminalSize(width, height)
	vp := viewport.New(size.Width, size.Height, 1)
	loop, err := newLoop(cfg, vp)
	if err != nil {
		return err
	}
	defer loop.Scene.Close()

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	if err := term.Resize(width, height); err != nil {
		return fmt.Errorf("resize terminal: %w", err)
	}

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	tp := &terminalPresenter{term: term}
	go handleEvents(ctx, cancel, term, tp, loop.Scene)

	return loop.Run(ctx, withRecorder(tp, rec))
}

// handleEvents feeds terminal input to the scene until ctx is done.
func handleEvents(ctx context.Context, cancel context.CancelFunc, term *uv.Terminal, tp *terminalPresenter, s *scene.Scene) {
	vp := s.Viewport
	// Cell centers in pixel space.
	move := func(x, y int) {
		vp.MovePointer(float64(x)+0.5, float64(y)*2+1)
	}

	for {
		var ev uv.Event
		var ok bool
		select {
		case <-ctx.Done():
			return
		case ev, ok = <-term.Events():
			if !ok {
				return
			}
		}

		switch ev := ev.(type) {
		case uv.WindowSizeEvent:
			size := render.TerminalSize(ev.Width, ev.Height)
			tp.resize(ev.Width, ev.Height)
			s.RequestResize(size.Width, size.Height)

		case uv.KeyPressEvent:
			if ev.MatchString("escape", "q", "ctrl+c") {
				cancel()
				return
			}

		case uv.MouseClickEvent:
			if ev.Button == uv.MouseLeft {
				move(ev.X, ev.Y)
				vp.SetPointerDown(true)
			}

		case uv.MouseReleaseEvent:
			if ev.Button == uv.MouseLeft {
				vp.SetPointerDown(false)
			}

		case uv.MouseMotionEvent:
			move(ev.X, ev.Y)
		}
	}
}
