package anim

import "errors"

var (
	// ErrNoKeyframes is returned when evaluating a curve without keys.
	ErrNoKeyframes = errors.New("anim: curve has no keyframes")

	// ErrInvalidRange is returned when a strip would end before it starts.
	ErrInvalidRange = errors.New("anim: strip frame range is inverted")

	// ErrNotAnimatable is returned when an ID's type cannot carry animation.
	ErrNotAnimatable = errors.New("anim: ID type cannot be animated")

	// ErrIDTypeMismatch is returned when an output is bound to an ID of another type.
	ErrIDTypeMismatch = errors.New("anim: ID type does not match output")

	// ErrIDAlreadyAnimated is returned when an ID already has an output on the animation.
	ErrIDAlreadyAnimated = errors.New("anim: ID is already animated by another output")
)
