package evolve

import "errors"

var (
	// ErrShapeMismatch is returned when two images that must align do not
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrEmptyInput is returned when an operation needs at least one image
	ErrEmptyInput = errors.New("empty input")

	// ErrOutOfRange is returned when a normalized pixel lies outside [0, 1]
	ErrOutOfRange = errors.New("pixel value out of range")

	// ErrInvalidConfiguration is returned before any generation runs when
	// the evolution parameters cannot produce a valid run
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
