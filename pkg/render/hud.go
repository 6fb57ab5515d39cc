package render

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	hudText       = color.RGBA{0, 220, 90, 255}
	hudBackground = color.RGBA{0, 0, 0, 160}
)

// HUD is a text overlay showing the frame rate and traversal counters.
type HUD struct {
	Title string

	fps       float64
	frame     int
	fpsFrames int
	fpsTime   time.Time
	stats     Stats
	now       func() time.Time
}

// NewHUD creates a HUD with an optional title line.
func NewHUD(title string) *HUD {
	h := &HUD{Title: title, now: time.Now}
	h.fpsTime = h.now()
	return h
}

// Tick records one finished frame and its rasterizer stats.
func (h *HUD) Tick(stats Stats) {
	h.frame++
	h.fpsFrames++
	h.stats = stats
	now := h.now()
	if elapsed := now.Sub(h.fpsTime); elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = now
	}
}

// FPS returns the frame rate measured over the last full second.
func (h *HUD) FPS() float64 {
	return h.fps
}

// Lines returns the text the HUD draws, top to bottom.
func (h *HUD) Lines() []string {
	var lines []string
	if h.Title != "" {
		lines = append(lines, h.Title)
	}
	return append(lines,
		fmt.Sprintf("%.0f fps  frame %d", h.fps, h.frame),
		fmt.Sprintf("%d rays  %d hits  %d culled", h.stats.Samples, h.stats.Hits, h.stats.Culled),
	)
}

// DrawOverlay implements Overlay. Text ignores depth.
func (h *HUD) DrawOverlay(fb *Framebuffer, _ *DepthBuffer) error {
	face := basicfont.Face7x13
	lines := h.Lines()

	const pad = 2
	lineHeight := face.Metrics().Height.Ceil()
	width := 0
	for _, l := range lines {
		width = max(width, font.MeasureString(face, l).Ceil())
	}
	fb.FillRect(0, 0, width+2*pad, len(lines)*lineHeight+2*pad, hudBackground)

	d := font.Drawer{
		Dst:  fb.Image(),
		Src:  image.NewUniform(hudText),
		Face: face,
	}
	for i, l := range lines {
		d.Dot = fixed.P(pad, pad+face.Metrics().Ascent.Ceil()+i*lineHeight)
		d.DrawString(l)
	}
	return nil
}
