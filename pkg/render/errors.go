package render

import "errors"

var (
	// ErrResourceCreation is returned when a drawing target or texture
	// cannot be allocated.
	ErrResourceCreation = errors.New("render: resource creation failed")

	// ErrShapeMismatch is returned when texture data does not match its
	// declared size.
	ErrShapeMismatch = errors.New("render: shape mismatch")

	// ErrFrameOrder is returned when a compositor call arrives outside its
	// place in the frame sequence.
	ErrFrameOrder = errors.New("render: frame order violation")
)
