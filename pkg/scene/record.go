package scene

import (
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/taigrr/voxsprite/pkg/render"
	"golang.org/x/image/draw"
)

// ErrOutputFormat is returned for output paths that are neither .png nor
// .gif.
var ErrOutputFormat = errors.New("scene: unsupported output format")

// Recorder is a Presenter that keeps presented frames and writes them on
// Close: the last frame as a PNG, or every frame as a looping GIF.
type Recorder struct {
	path   string
	gif    bool
	delay  int
	frames []*image.NRGBA
}

// NewRecorder creates a recorder for path. fps sets the GIF frame delay.
func NewRecorder(path string, fps int) (*Recorder, error) {
	r := &Recorder{path: path, delay: max(100/max(fps, 1), 1)}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
	case ".gif":
		r.gif = true
	default:
		return nil, fmt.Errorf("%w: %s", ErrOutputFormat, path)
	}
	return r, nil
}

// Present implements Presenter.
func (r *Recorder) Present(surface *render.Framebuffer) error {
	snap := surface.Snapshot()
	if !r.gif {
		r.frames = r.frames[:0]
	}
	r.frames = append(r.frames, snap)
	return nil
}

// Frames returns the number of frames held.
func (r *Recorder) Frames() int {
	return len(r.frames)
}

// Close writes the recording. A recorder that saw no frames writes
// nothing.
func (r *Recorder) Close() error {
	if len(r.frames) == 0 {
		return nil
	}
	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", r.path, err)
	}
	if err := r.encode(f); err != nil {
		f.Close()
		return err
	}
	slogger().Info("scene: recording written", "path", r.path, "frames", len(r.frames))
	return f.Close()
}

func (r *Recorder) encode(w io.Writer) error {
	if !r.gif {
		if err := png.Encode(w, r.frames[0]); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
		return nil
	}

	out := &gif.GIF{
		Image: make([]*image.Paletted, 0, len(r.frames)),
		Delay: make([]int, 0, len(r.frames)),
	}
	for _, frame := range r.frames {
		pimg := image.NewPaletted(frame.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(pimg, pimg.Bounds(), frame, image.Point{})
		out.Image = append(out.Image, pimg)
		out.Delay = append(out.Delay, r.delay)
	}
	if err := gif.EncodeAll(w, out); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	return nil
}
