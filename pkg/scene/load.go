package scene

import (
	"fmt"

	"github.com/taigrr/voxsprite/pkg/config"
	"github.com/taigrr/voxsprite/pkg/models"
	"github.com/taigrr/voxsprite/pkg/render"
	"github.com/taigrr/voxsprite/pkg/voxel"
)

// demoTile is the 4×4 grey frame shown by the demo plane sprite.
var demoTile = []byte{
	51, 51, 51, 255, 153, 153, 153, 255, 153, 153, 153, 255, 51, 51, 51, 255,
	153, 153, 153, 255, 204, 204, 204, 255, 204, 204, 204, 255, 153, 153, 153, 255,
	153, 153, 153, 255, 204, 204, 204, 255, 204, 204, 204, 255, 153, 153, 153, 255,
	51, 51, 51, 255, 153, 153, 153, 255, 153, 153, 153, 255, 51, 51, 51, 255,
}

// LoadGrid builds the voxel grid described by a voxel sprite's source.
func LoadGrid(s config.Sprite) (*voxel.Grid, error) {
	g := voxel.NewGrid()
	switch s.Source {
	case config.SourceDemo:
		return g, g.SetBuffer(voxel.DemoBuffer())
	case config.SourceVox:
		b, err := voxel.LoadVoxFile(s.Path)
		if err != nil {
			return nil, err
		}
		return g, g.SetBuffer(b)
	case config.SourceGLTF:
		mesh, err := models.LoadGLTF(s.Path)
		if err != nil {
			return nil, err
		}
		slogger().Debug("scene: voxelizing mesh", "sprite", s.Name, "triangles", mesh.TriangleCount(), "resolution", s.Resolution)
		return g, g.SetBuffer(voxel.Voxelize(mesh, s.Resolution, s.Resolution, s.Resolution))
	case config.SourceRaw:
		if s.Raw == nil {
			return nil, fmt.Errorf("%w: raw source without data", config.ErrInvalid)
		}
		if err := g.SetData(s.Raw.Width, s.Raw.Height, s.Raw.Depth, s.Raw.Data); err != nil {
			return nil, err
		}
		return g, nil
	}
	return nil, fmt.Errorf("%w: voxel source %q", config.ErrInvalid, s.Source)
}

// LoadTexture builds the texture described by a plane sprite's source.
func LoadTexture(s config.Sprite) (*render.Texture, error) {
	switch s.Source {
	case config.SourceDemo:
		return newTexture(4, 4, demoTile)
	case config.SourceImage:
		return render.LoadTexture(s.Path)
	case config.SourceRaw:
		if s.Raw == nil {
			return nil, fmt.Errorf("%w: raw source without data", config.ErrInvalid)
		}
		return newTexture(s.Raw.Width, s.Raw.Height, s.Raw.Data)
	}
	return nil, fmt.Errorf("%w: plane source %q", config.ErrInvalid, s.Source)
}

func newTexture(w, h int, data []byte) (*render.Texture, error) {
	tex, err := render.NewTexture(w, h)
	if err != nil {
		return nil, err
	}
	if err := tex.SetData(w, h, data); err != nil {
		return nil, err
	}
	return tex, nil
}
