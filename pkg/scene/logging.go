package scene

import (
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/taigrr/voxsprite/pkg/render"
	"github.com/taigrr/voxsprite/pkg/script"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// SetLogger sets the logger for the scene loop and the render and script
// packages it drives. A nil logger silences them.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger.Store(l)
	render.SetLogger(l)
	script.SetLogger(l)
}

func slogger() *slog.Logger {
	return logger.Load()
}
