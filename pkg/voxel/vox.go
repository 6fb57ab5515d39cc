package voxel

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
)

const voxMagic = "VOX "

// maxVoxChunk bounds a single chunk body. The largest legal chunk is an
// XYZI holding every cell of a MaxDimension³ model.
const maxVoxChunk = 4 + MaxDimension*MaxDimension*MaxDimension*4

// ErrInvalidVox is returned for input that is not a MagicaVoxel file.
var ErrInvalidVox = errors.New("voxel: invalid vox file")

type voxModel struct {
	sizeX, sizeY, sizeZ int
	voxels              [][4]byte // x, y, z, palette index
}

// LoadVoxFile reads the first model of a MagicaVoxel .vox file.
func LoadVoxFile(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vox: %w", err)
	}
	defer f.Close()
	return LoadVox(bufio.NewReader(f))
}

// LoadVox reads the first model of a MagicaVoxel stream into a Buffer.
//
// MagicaVoxel is Z-up while grids are Y-down, so a vox voxel (x, y, z)
// lands at grid index (x, sizeZ-1-z, y).
func LoadVox(r io.Reader) (*Buffer, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read vox header: %w", err)
	}
	if string(header[:4]) != voxMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidVox, header[:4])
	}

	palette := defaultPalette()
	var models []voxModel

	for {
		var chunk [12]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read vox chunk: %w", err)
		}
		id := string(chunk[:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])
		if size > maxVoxChunk {
			return nil, fmt.Errorf("%w: %s chunk of %d bytes", ErrInvalidVox, id, size)
		}

		data := make([]byte, size)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("read vox %s: %w", id, err)
		}

		switch id {
		case "MAIN", "PACK":
			// MAIN children follow inline; PACK only announces the model
			// count, which the SIZE chunks already give.
		case "SIZE":
			if len(data) < 12 {
				return nil, fmt.Errorf("%w: SIZE chunk too small", ErrInvalidVox)
			}
			var dims [3]int
			for i := range dims {
				n := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
				if n < 1 || n > MaxDimension {
					return nil, fmt.Errorf("%w: SIZE axis %d is %d, want 1..%d", ErrInvalidVox, i, n, MaxDimension)
				}
				dims[i] = int(n)
			}
			models = append(models, voxModel{sizeX: dims[0], sizeY: dims[1], sizeZ: dims[2]})
		case "XYZI":
			if len(models) == 0 {
				return nil, fmt.Errorf("%w: XYZI before SIZE", ErrInvalidVox)
			}
			if len(data) < 4 {
				return nil, fmt.Errorf("%w: XYZI chunk too small", ErrInvalidVox)
			}
			n := int(binary.LittleEndian.Uint32(data[:4]))
			if 4+n*4 > len(data) {
				return nil, fmt.Errorf("%w: XYZI holds %d voxels in %d bytes", ErrInvalidVox, n, len(data))
			}
			m := &models[len(models)-1]
			m.voxels = make([][4]byte, n)
			for i := range n {
				copy(m.voxels[i][:], data[4+i*4:8+i*4])
			}
		case "RGBA":
			// Palette entry i describes color index i+1.
			for i := 0; i < 255 && i*4+3 < len(data); i++ {
				palette[i+1] = color.RGBA{data[i*4], data[i*4+1], data[i*4+2], data[i*4+3]}
			}
		}
	}

	if len(models) == 0 {
		return nil, fmt.Errorf("%w: no models", ErrInvalidVox)
	}
	m := models[0]

	b := NewBuffer(m.sizeX, m.sizeZ, m.sizeY)
	for _, v := range m.voxels {
		x, y, z, idx := int(v[0]), int(v[1]), int(v[2]), v[3]
		b.Set(x, m.sizeZ-1-z, y, palette[idx])
	}
	return b, nil
}

// defaultPalette stands in when a file carries no RGBA chunk. Index 0 is
// empty, every other index is opaque white.
func defaultPalette() [256]color.RGBA {
	var p [256]color.RGBA
	for i := 1; i < len(p); i++ {
		p[i] = color.RGBA{255, 255, 255, 255}
	}
	return p
}
