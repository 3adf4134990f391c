package scene

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/ledanim/anim"
)

// Light is one addressable light of the rig.
type Light struct {
	ID       anim.ID
	Location [3]float64
	Rotation [3]float64
	Colour   colorful.Color
	Energy   float64
}

// NewLight creates a white Light at full energy.
func NewLight(name string) *Light {
	l := new(Light)
	l.ID.Name = CodeLight + name
	l.Colour = colorful.Color{R: 1, G: 1, B: 1}
	l.Energy = 1.0
	return l
}

// AnimID implements anim.Target.
func (l *Light) AnimID() *anim.ID {
	return &l.ID
}

// Name returns the light's name without its type code.
func (l *Light) Name() string {
	return l.ID.DisplayName()
}

// Emitted returns the colour the light shows, scaled by its energy.
func (l *Light) Emitted() colorful.Color {
	return colorful.Color{
		R: l.Colour.R * l.Energy,
		G: l.Colour.G * l.Energy,
		B: l.Colour.B * l.Energy,
	}.Clamped()
}
