package voxel

// demoPix is a 4×4×4 sample model: a grey frame with a coloured core.
var demoPix = []byte{
	// z = 0
	51, 255, 51, 0, 153, 153, 153, 0, 153, 153, 153, 0, 255, 255, 51, 0,
	153, 153, 153, 0, 204, 204, 204, 0, 204, 204, 204, 0, 153, 153, 153, 0,
	153, 153, 153, 0, 204, 204, 204, 0, 204, 204, 204, 0, 153, 153, 153, 0,
	51, 51, 51, 255, 204, 204, 204, 255, 204, 204, 204, 255, 51, 51, 51, 255,

	// z = 1
	153, 153, 153, 0, 204, 204, 204, 0, 204, 204, 204, 0, 153, 153, 153, 0,
	204, 204, 204, 0, 204, 204, 204, 0, 204, 204, 204, 0, 204, 204, 204, 0,
	204, 204, 204, 0, 204, 204, 204, 0, 204, 204, 204, 0, 204, 51, 51, 255,
	204, 204, 204, 255, 51, 204, 51, 255, 51, 204, 51, 255, 255, 255, 51, 255,

	// z = 2
	153, 153, 153, 0, 204, 204, 204, 0, 204, 204, 204, 0, 153, 153, 153, 0,
	204, 204, 204, 0, 204, 204, 204, 0, 204, 204, 204, 0, 204, 51, 51, 255,
	204, 204, 204, 0, 204, 204, 204, 0, 51, 51, 51, 255, 204, 51, 51, 255,
	204, 204, 204, 255, 51, 204, 51, 255, 51, 204, 51, 255, 255, 255, 51, 255,

	// z = 3
	51, 255, 255, 0, 153, 153, 153, 0, 153, 153, 153, 0, 51, 51, 51, 255,
	153, 153, 153, 0, 204, 204, 204, 0, 51, 51, 204, 255, 204, 51, 204, 255,
	153, 153, 153, 0, 51, 51, 204, 255, 51, 51, 204, 255, 204, 51, 204, 255,
	51, 51, 51, 255, 51, 204, 204, 255, 51, 204, 204, 255, 51, 51, 51, 255,
}

// DemoBuffer returns a copy of the built-in 4×4×4 sample model.
func DemoBuffer() *Buffer {
	b := NewBuffer(4, 4, 4)
	copy(b.Pix, demoPix)
	return b
}
