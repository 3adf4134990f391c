package scene

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/ledanim/anim"
	"gopkg.in/yaml.v2"
)

var (
	// ErrUnknownTarget is returned when a channel names a light that does not exist.
	ErrUnknownTarget = errors.New("scene: unknown light")

	// ErrUnknownProperty is returned when a channel names a property lights do not have.
	ErrUnknownProperty = errors.New("scene: unknown property")
)

type document struct {
	Name   string          `yaml:"name"`
	Lights []lightDocument `yaml:"lights"`
	Layers []layerDocument `yaml:"layers"`
}

type lightDocument struct {
	Name     string    `yaml:"name"`
	Colour   string    `yaml:"color"`
	Energy   *float64  `yaml:"energy"`
	Location []float64 `yaml:"location"`
}

type layerDocument struct {
	Name      string          `yaml:"name"`
	Influence *float64        `yaml:"influence"`
	Mix       string          `yaml:"mix"`
	Strips    []stripDocument `yaml:"strips"`
}

type stripDocument struct {
	Start    *float64          `yaml:"start"`
	End      *float64          `yaml:"end"`
	Channels []channelDocument `yaml:"channels"`
}

type channelDocument struct {
	Light         string      `yaml:"light"`
	Path          string      `yaml:"path"`
	Index         int         `yaml:"index"`
	Interpolation string      `yaml:"interpolation"`
	Extrapolation string      `yaml:"extrapolation"`
	Keys          [][]float64 `yaml:"keys"`
}

// Scene is a rig of lights and the animation that drives them.
//
// The animation data has no locking of its own. Callers that evaluate while
// another goroutine applies results go through Read and Write.
type Scene struct {
	Animation *anim.Animation

	mu     sync.RWMutex
	lights []*Light
	byName map[string]*Light
}

// New creates a Scene with no lights around a.
func New(a *anim.Animation) *Scene {
	s := new(Scene)
	s.Animation = a
	s.byName = make(map[string]*Light)
	return s
}

// AddLight adds l to the scene and binds it to a new output.
func (s *Scene) AddLight(l *Light, reg *anim.TypeRegistry) (*anim.Output, error) {
	if _, exists := s.byName[l.Name()]; exists {
		return nil, fmt.Errorf("scene: duplicate light %q", l.Name())
	}
	out := s.Animation.OutputAdd()
	if err := out.AssignID(l.AnimID(), reg); err != nil {
		s.Animation.OutputRemove(out)
		return nil, err
	}
	s.lights = append(s.lights, l)
	s.byName[l.Name()] = l
	return out, nil
}

// Light returns the light called name, or nil.
func (s *Scene) Light(name string) *Light {
	return s.byName[name]
}

// Lights returns the lights in document order.
func (s *Scene) Lights() []*Light {
	return s.lights
}

// Rebind replaces the scene's animation with a, binding each light to the
// output that remembers its name. Lights without such an output stay unanimated.
func (s *Scene) Rebind(a *anim.Animation, reg *anim.TypeRegistry) error {
	for _, l := range s.lights {
		out := a.OutputForID(l.AnimID())
		if out == nil {
			continue
		}
		if err := out.AssignID(l.AnimID(), reg); err != nil {
			return fmt.Errorf("rebind %s: %w", l.Name(), err)
		}
	}
	s.Animation = a
	return nil
}

// Read runs fn while holding the scene's read lock.
func (s *Scene) Read(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// Write runs fn while holding the scene's write lock.
func (s *Scene) Write(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Load decodes a YAML scene document.
func Load(r io.Reader, reg *anim.TypeRegistry) (*Scene, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}

	s := New(anim.NewAnimation(doc.Name))
	outputs := make(map[string]*anim.Output)
	for _, ld := range doc.Lights {
		l, err := ld.light()
		if err != nil {
			return nil, err
		}
		out, err := s.AddLight(l, reg)
		if err != nil {
			return nil, err
		}
		outputs[ld.Name] = out
	}

	for _, layerDoc := range doc.Layers {
		if err := layerDoc.build(s, outputs); err != nil {
			return nil, fmt.Errorf("layer %q: %w", layerDoc.Name, err)
		}
	}
	return s, nil
}

func (ld lightDocument) light() (*Light, error) {
	l := NewLight(ld.Name)
	if ld.Colour != "" {
		c, err := colorful.Hex(ld.Colour)
		if err != nil {
			return nil, fmt.Errorf("light %q: %w", ld.Name, err)
		}
		l.Colour = c
	}
	if ld.Energy != nil {
		l.Energy = *ld.Energy
	}
	if len(ld.Location) > 3 {
		return nil, fmt.Errorf("light %q: location has %d elements", ld.Name, len(ld.Location))
	}
	copy(l.Location[:], ld.Location)
	return l, nil
}

func (ld layerDocument) build(s *Scene, outputs map[string]*anim.Output) error {
	layer := s.Animation.LayerAdd(ld.Name)
	if ld.Influence != nil {
		layer.Influence = *ld.Influence
	}
	if ld.Mix != "" {
		mode, err := anim.ParseMixMode(ld.Mix)
		if err != nil {
			return err
		}
		layer.MixMode = mode
	}

	for _, sd := range ld.Strips {
		strip := layer.StripAdd(anim.StripKindKeyframe)
		start, end := math.Inf(-1), math.Inf(1)
		if sd.Start != nil {
			start = *sd.Start
		}
		if sd.End != nil {
			end = *sd.End
		}
		if err := strip.Resize(start, end); err != nil {
			return err
		}

		ks, _ := strip.AsKeyframe()
		for _, cd := range sd.Channels {
			if err := cd.build(s, ks, outputs); err != nil {
				return err
			}
		}
	}
	return nil
}

func (cd channelDocument) build(s *Scene, ks *anim.KeyframeStrip, outputs map[string]*anim.Output) error {
	l := s.Light(cd.Light)
	out := outputs[cd.Light]
	if l == nil || out == nil {
		return fmt.Errorf("%q: %w", cd.Light, ErrUnknownTarget)
	}
	handle, ok := Resolver{}.Resolve(l, cd.Path)
	if !ok || cd.Index < 0 || cd.Index >= handle.Len() {
		return fmt.Errorf("%s[%d]: %w", cd.Path, cd.Index, ErrUnknownProperty)
	}

	settings := anim.DefaultKeyframeSettings()
	if cd.Interpolation != "" {
		interp, err := anim.ParseInterpolation(cd.Interpolation)
		if err != nil {
			return err
		}
		settings.Interpolation = interp
	}

	c := ks.ChannelsEnsure(out).CurveEnsure(cd.Path, cd.Index)
	switch cd.Extrapolation {
	case "", "constant":
		c.Extrapolation = anim.ExtrapolationConstant
	case "linear":
		c.Extrapolation = anim.ExtrapolationLinear
	default:
		return fmt.Errorf("scene: unknown extrapolation %q", cd.Extrapolation)
	}

	for _, key := range cd.Keys {
		if len(key) != 2 {
			return fmt.Errorf("%s[%d]: key %v is not a [time, value] pair", cd.Path, cd.Index, key)
		}
		ks.KeyframeInsert(out, cd.Path, cd.Index, anim.Keyframe{Time: key[0], Value: key[1]}, settings)
	}
	return nil
}
