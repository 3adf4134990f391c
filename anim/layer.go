package anim

import "fmt"

// MixMode selects how a layer combines with the layers beneath it.
type MixMode int

const (
	MixReplace MixMode = iota
	MixAdd
	MixSubtract
	MixMultiply
)

var mixModeNames = []string{"replace", "add", "subtract", "multiply"}

func (m MixMode) String() string {
	if m < 0 || int(m) >= len(mixModeNames) {
		return fmt.Sprintf("MixMode(%d)", int(m))
	}
	return mixModeNames[m]
}

// ParseMixMode converts a name such as "add" to a MixMode.
func ParseMixMode(name string) (MixMode, error) {
	for i, n := range mixModeNames {
		if n == name {
			return MixMode(i), nil
		}
	}
	return 0, fmt.Errorf("anim: unknown mix mode %q", name)
}

// mix combines a lower value with this layer's value at the given influence.
func (m MixMode) mix(lower, value, influence float64) float64 {
	switch m {
	case MixAdd:
		return lower + value*influence
	case MixSubtract:
		return lower - value*influence
	case MixMultiply:
		return lower * (1 + (value-1)*influence)
	}
	return lower + (value-lower)*influence
}

// A Layer is an ordered group of strips. Layers higher in the stack take
// priority over lower ones.
type Layer struct {
	Name      string
	Influence float64
	MixMode   MixMode

	strips []*Strip
}

func newLayer(name string) *Layer {
	l := new(Layer)
	l.Name = name
	l.Influence = 1.0
	l.MixMode = MixReplace
	return l
}

// StripAdd appends a new infinite strip of the given kind.
func (l *Layer) StripAdd(kind StripKind) *Strip {
	s := newStrip(kind)
	l.strips = append(l.strips, s)
	return s
}

// Strips returns the layer's strips in the order they were added.
func (l *Layer) Strips() []*Strip {
	return l.strips
}

// StripRemove deletes s from the layer. It reports whether s was found.
func (l *Layer) StripRemove(s *Strip) bool {
	for i, candidate := range l.strips {
		if candidate == s {
			l.strips = append(l.strips[:i], l.strips[i+1:]...)
			return true
		}
	}
	return false
}
