package anim

import "fmt"

// Animation is a stack of layers shared by any number of Outputs.
type Animation struct {
	Name string

	layers          []*Layer
	outputs         []*Output
	lastOutputIndex int
}

// NewAnimation creates an empty Animation.
func NewAnimation(name string) *Animation {
	a := new(Animation)
	a.Name = name
	return a
}

// LayerAdd pushes a new layer on top of the stack.
func (a *Animation) LayerAdd(name string) *Layer {
	l := newLayer(name)
	a.layers = append(a.layers, l)
	return l
}

// Layers returns the layers bottom to top.
func (a *Animation) Layers() []*Layer {
	return a.layers
}

// Layer returns the layer at index i, or nil.
func (a *Animation) Layer(i int) *Layer {
	if i < 0 || i >= len(a.layers) {
		return nil
	}
	return a.layers[i]
}

// LayerRemove deletes l and its strips. It reports whether l was found.
func (a *Animation) LayerRemove(l *Layer) bool {
	for i, candidate := range a.layers {
		if candidate == l {
			a.layers = append(a.layers[:i], a.layers[i+1:]...)
			return true
		}
	}
	return false
}

// OutputAdd creates an Output with a stable index that has never been used
// on this animation.
func (a *Animation) OutputAdd() *Output {
	a.lastOutputIndex++
	return a.addOutput(a.lastOutputIndex)
}

// OutputRestore recreates an Output with a known stable index, as when loading
// a saved animation. An existing output with that index is returned unchanged.
func (a *Animation) OutputRestore(stableIndex int) *Output {
	if out := a.OutputForIndex(stableIndex); out != nil {
		return out
	}
	if stableIndex > a.lastOutputIndex {
		a.lastOutputIndex = stableIndex
	}
	return a.addOutput(stableIndex)
}

func (a *Animation) addOutput(stableIndex int) *Output {
	out := new(Output)
	out.StableIndex = stableIndex
	out.animation = a
	a.outputs = append(a.outputs, out)
	return out
}

// Outputs returns the animation's outputs in creation order.
func (a *Animation) Outputs() []*Output {
	return a.outputs
}

// OutputForIndex returns the output with the given stable index, or nil.
func (a *Animation) OutputForIndex(stableIndex int) *Output {
	for _, out := range a.outputs {
		if out.StableIndex == stableIndex {
			return out
		}
	}
	return nil
}

// OutputForID returns the output animating id, or nil. Outputs bound to id
// win over unbound outputs that only remember its name.
func (a *Animation) OutputForID(id *ID) *Output {
	if id == nil {
		return nil
	}
	for _, out := range a.outputs {
		if out.id == id {
			return out
		}
	}
	for _, out := range a.outputs {
		if out.id == nil && out.FallbackName != "" && out.FallbackName == id.Name {
			return out
		}
	}
	return nil
}

// OutputRemove deletes out and every channel that animates it.
func (a *Animation) OutputRemove(out *Output) bool {
	for i, candidate := range a.outputs {
		if candidate != out {
			continue
		}
		a.outputs = append(a.outputs[:i], a.outputs[i+1:]...)
		for _, l := range a.layers {
			for _, s := range l.strips {
				if ks, ok := s.AsKeyframe(); ok {
					ks.removeOutput(out.StableIndex)
				}
			}
		}
		out.animation = nil
		out.id = nil
		return true
	}
	return false
}

// Output is the animation's handle on one animated ID.
type Output struct {
	StableIndex  int
	FallbackName string
	IDType       string

	animation *Animation
	id        *ID
}

// ID returns the bound ID, or nil.
func (o *Output) ID() *ID {
	return o.id
}

// AssignID binds id to the output. The output keeps the type of the first
// ID it was bound to.
func (o *Output) AssignID(id *ID, reg *TypeRegistry) error {
	if !reg.CanHaveAnimation(id) {
		return fmt.Errorf("assign %q: %w", idName(id), ErrNotAnimatable)
	}
	if o.IDType != "" && o.IDType != id.Code() {
		return fmt.Errorf("assign %q to %s output: %w", id.Name, o.IDType, ErrIDTypeMismatch)
	}
	if o.animation != nil {
		for _, other := range o.animation.outputs {
			if other != o && other.id == id {
				return fmt.Errorf("assign %q: %w", id.Name, ErrIDAlreadyAnimated)
			}
		}
	}

	o.id = id
	o.IDType = id.Code()
	o.FallbackName = id.Name
	return nil
}

// UnassignID unbinds the output's ID. The fallback name is kept so the ID
// can be found again.
func (o *Output) UnassignID() {
	o.id = nil
}

func idName(id *ID) string {
	if id == nil {
		return "<nil>"
	}
	return id.Name
}
