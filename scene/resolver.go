package scene

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/ledanim/anim"
)

// Animatable property paths of a Light.
const (
	PathLocation = "location"
	PathRotation = "rotation_euler"
	PathColour   = "color"
	PathEnergy   = "energy"
)

type vectorHandle struct {
	v *[3]float64
}

func (h vectorHandle) Len() int                     { return len(h.v) }
func (h vectorHandle) Get(index int) float64        { return h.v[index] }
func (h vectorHandle) Set(index int, value float64) { h.v[index] = value }

type scalarHandle struct {
	v *float64
}

func (h scalarHandle) Len() int                 { return 1 }
func (h scalarHandle) Get(int) float64          { return *h.v }
func (h scalarHandle) Set(_ int, value float64) { *h.v = value }

// colourHandle exposes R, G and B as elements 0, 1 and 2.
type colourHandle struct {
	c *colorful.Color
}

func (h colourHandle) Len() int { return 3 }

func (h colourHandle) Get(index int) float64 {
	switch index {
	case 0:
		return h.c.R
	case 1:
		return h.c.G
	}
	return h.c.B
}

func (h colourHandle) Set(index int, value float64) {
	switch index {
	case 0:
		h.c.R = value
	case 1:
		h.c.G = value
	default:
		h.c.B = value
	}
}

// Resolver implements anim.PropertyResolver for lights.
type Resolver struct{}

// Resolve returns a handle on the light property at path.
func (Resolver) Resolve(target anim.Target, path string) (anim.PropertyHandle, bool) {
	l, ok := target.(*Light)
	if !ok {
		return nil, false
	}

	switch path {
	case PathLocation:
		return vectorHandle{&l.Location}, true
	case PathRotation:
		return vectorHandle{&l.Rotation}, true
	case PathColour:
		return colourHandle{&l.Colour}, true
	case PathEnergy:
		return scalarHandle{&l.Energy}, true
	}
	return nil, false
}
