// Package config loads the JSON scene description and fills in defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"slices"
)

// ErrInvalid is returned by Validate and Load for unusable settings.
var ErrInvalid = errors.New("config: invalid")

// Color is an RGBA8 color written as a four element JSON array.
type Color [4]uint8

// ToRGBA converts c for drawing.
func (c Color) ToRGBA() color.RGBA {
	return color.RGBA{c[0], c[1], c[2], c[3]}
}

type Viewport struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	PixelRatio float64 `json:"pixelRatio,omitempty"`
}

// Smoothing parameterizes the springs that ease pointer-driven rotation.
type Smoothing struct {
	Frequency float64 `json:"frequency,omitempty"`
	Damping   float64 `json:"damping,omitempty"`
}

type Perspective struct {
	Near  float64 `json:"near,omitempty"`
	Far   float64 `json:"far,omitempty"`
	Ratio float64 `json:"ratio,omitempty"`
	Size  float64 `json:"size,omitempty"`
}

// Raw is inline RGBA8 data. Depth is ignored for planes.
type Raw struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Depth  int    `json:"depth,omitempty"`
	Data   []byte `json:"data"` // base64
}

const (
	KindVoxel = "voxel"
	KindPlane = "plane"

	SourceDemo  = "demo"
	SourceVox   = "vox"
	SourceGLTF  = "gltf"
	SourceImage = "image"
	SourceRaw   = "raw"
)

type Sprite struct {
	Name   string `json:"name"`
	Kind   string `json:"kind,omitempty"`
	Source string `json:"source,omitempty"`
	Path   string `json:"path,omitempty"`
	Raw    *Raw   `json:"raw,omitempty"`
	// Resolution is the voxel grid edge used when voxelizing a mesh.
	Resolution int `json:"resolution,omitempty"`

	Position *[3]float64 `json:"position,omitempty"`
	RotDeg   [3]float64  `json:"rotDeg"`
	Scale    *[3]float64 `json:"scale,omitempty"`

	Perspective    Perspective `json:"perspective"`
	AutoResize     *bool       `json:"autoResize,omitempty"`
	PointerControl bool        `json:"pointerControl,omitempty"`
	DiscardMisses  bool        `json:"discardMisses,omitempty"`
}

// Follows reports whether the sprite re-derives its projection on resize.
func (s Sprite) Follows() bool {
	return s.AutoResize == nil || *s.AutoResize
}

type Config struct {
	Viewport    Viewport  `json:"viewport"`
	FPS         int       `json:"fps,omitempty"`
	Workers     int       `json:"workers,omitempty"`
	Background  *Color    `json:"background,omitempty"`
	FrameClear  *Color    `json:"frameClear,omitempty"`
	OverlayMode string    `json:"overlayMode,omitempty"`
	Smoothing   Smoothing `json:"smoothing"`
	HUD         bool      `json:"hud,omitempty"`
	Hull        bool      `json:"hull,omitempty"`
	Script      string    `json:"script,omitempty"`
	Sprites     []Sprite  `json:"sprites,omitempty"`
}

const (
	DefaultWidth      = 640
	DefaultHeight     = 480
	DefaultFPS        = 30
	DefaultResolution = 16
)

var white = Color{255, 255, 255, 255}

// Default returns the built-in demo scene: a pointer-controlled voxel
// cube in the middle and a small grey tile in the bottom-left corner.
func Default() *Config {
	cfg := &Config{
		Sprites: []Sprite{
			{
				Name:           "cube",
				Kind:           KindVoxel,
				Source:         SourceDemo,
				Position:       &[3]float64{0, 0, 2},
				Scale:          &[3]float64{0.25, 0.25, 0.25},
				PointerControl: true,
			},
			{
				Name:     "tile",
				Kind:     KindPlane,
				Source:   SourceDemo,
				Position: &[3]float64{-7.0 / 8, -7.0 / 8, 5},
				Scale:    &[3]float64{1.0 / 8, 1.0 / 8, 1},
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads a JSON config, applies defaults and validates it. A config
// without sprites gets the demo sprites.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(cfg.Sprites) == 0 {
		cfg.Sprites = Default().Sprites
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills every zero field with its default.
func (c *Config) ApplyDefaults() {
	if c.Viewport.Width <= 0 {
		c.Viewport.Width = DefaultWidth
	}
	if c.Viewport.Height <= 0 {
		c.Viewport.Height = DefaultHeight
	}
	if c.Viewport.PixelRatio <= 0 {
		c.Viewport.PixelRatio = 1
	}
	if c.FPS == 0 {
		c.FPS = DefaultFPS
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.Background == nil {
		bg := white
		c.Background = &bg
	}
	if c.FrameClear == nil {
		fc := white
		c.FrameClear = &fc
	}
	if c.OverlayMode == "" {
		c.OverlayMode = "target"
	}
	if c.Smoothing.Frequency == 0 {
		c.Smoothing.Frequency = 4
	}
	if c.Smoothing.Damping == 0 {
		c.Smoothing.Damping = 1
	}
	for i := range c.Sprites {
		c.Sprites[i].applyDefaults()
	}
}

func (s *Sprite) applyDefaults() {
	if s.Kind == "" {
		s.Kind = KindVoxel
	}
	if s.Source == "" {
		s.Source = SourceDemo
	}
	if s.Resolution == 0 {
		s.Resolution = DefaultResolution
	}
	if s.Position == nil {
		s.Position = &[3]float64{0, 0, 5}
	}
	if s.Scale == nil {
		if s.Kind == KindPlane {
			s.Scale = &[3]float64{1, 1, 1}
		} else {
			s.Scale = &[3]float64{0.5, 0.5, 0.5}
		}
	}
	p := &s.Perspective
	if p.Near == 0 && p.Far == 0 {
		p.Near, p.Far = 1, 9
	}
	if p.Ratio == 0 {
		p.Ratio = 2
		if s.Kind == KindPlane {
			p.Ratio = 1
		}
	}
	if p.Size == 0 {
		p.Size = 1
	}
}

// Validate reports every problem found, joined into one error wrapping
// ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		errs = append(errs, fmt.Errorf("viewport %dx%d must be positive", c.Viewport.Width, c.Viewport.Height))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps %d must be positive", c.FPS))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers %d must be at least 1", c.Workers))
	}
	if c.OverlayMode != "target" && c.OverlayMode != "direct" {
		errs = append(errs, fmt.Errorf("overlayMode %q must be target or direct", c.OverlayMode))
	}
	if c.Smoothing.Frequency < 0 || c.Smoothing.Damping < 0 {
		errs = append(errs, fmt.Errorf("smoothing %+v must not be negative", c.Smoothing))
	}

	seen := map[string]bool{}
	for i, s := range c.Sprites {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		} else if seen[name] {
			errs = append(errs, fmt.Errorf("sprite %s: duplicate name", name))
		}
		seen[name] = true
		for _, err := range s.validate() {
			errs = append(errs, fmt.Errorf("sprite %s: %w", name, err))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

var sources = map[string][]string{
	KindVoxel: {SourceDemo, SourceVox, SourceGLTF, SourceRaw},
	KindPlane: {SourceDemo, SourceImage, SourceRaw},
}

func (s Sprite) validate() []error {
	var errs []error
	allowed, ok := sources[s.Kind]
	if !ok {
		return []error{fmt.Errorf("kind %q must be voxel or plane", s.Kind)}
	}
	if !slices.Contains(allowed, s.Source) {
		errs = append(errs, fmt.Errorf("source %q not valid for %s sprites", s.Source, s.Kind))
	}
	switch s.Source {
	case SourceVox, SourceGLTF, SourceImage:
		if s.Path == "" {
			errs = append(errs, fmt.Errorf("source %s needs a path", s.Source))
		}
	case SourceRaw:
		if s.Raw == nil {
			errs = append(errs, errors.New("source raw needs raw data"))
		}
	}
	if s.Resolution < 1 || s.Resolution > 256 {
		errs = append(errs, fmt.Errorf("resolution %d must be in 1..256", s.Resolution))
	}
	p := s.Perspective
	if p.Near == p.Far {
		errs = append(errs, fmt.Errorf("perspective near and far are both %g", p.Near))
	}
	if p.Ratio <= 0 {
		errs = append(errs, fmt.Errorf("perspective ratio %g must be positive", p.Ratio))
	}
	if p.Size <= 0 {
		errs = append(errs, fmt.Errorf("perspective size %g must be positive", p.Size))
	}
	return errs
}
