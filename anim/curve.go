package anim

import (
	"fmt"
	"math"
	"sort"

	"github.com/fogleman/ease"
)

// keyTimeThreshold is how close two key times must be to count as the same key.
const keyTimeThreshold = 0.01

// Interpolation selects how a curve moves from one key to the next.
type Interpolation int

const (
	InterpolationConstant Interpolation = iota
	InterpolationLinear
	InterpolationEaseIn
	InterpolationEaseOut
	InterpolationEaseInOut
	InterpolationCubic
	InterpolationSine
	InterpolationBack
	InterpolationBounce
	InterpolationElastic
)

var interpolationNames = []string{
	"constant",
	"linear",
	"ease-in",
	"ease-out",
	"ease-in-out",
	"cubic",
	"sine",
	"back",
	"bounce",
	"elastic",
}

var interpolationEasing = map[Interpolation]func(float64) float64{
	InterpolationLinear:    ease.Linear,
	InterpolationEaseIn:    ease.InQuad,
	InterpolationEaseOut:   ease.OutQuad,
	InterpolationEaseInOut: ease.InOutQuad,
	InterpolationCubic:     ease.InOutCubic,
	InterpolationSine:      ease.InOutSine,
	InterpolationBack:      ease.InOutBack,
	InterpolationBounce:    ease.OutBounce,
	InterpolationElastic:   ease.OutElastic,
}

func (i Interpolation) String() string {
	if i < 0 || int(i) >= len(interpolationNames) {
		return fmt.Sprintf("Interpolation(%d)", int(i))
	}
	return interpolationNames[i]
}

// ParseInterpolation converts a name such as "linear" or "ease-in-out" to an Interpolation.
func ParseInterpolation(name string) (Interpolation, error) {
	for i, n := range interpolationNames {
		if n == name {
			return Interpolation(i), nil
		}
	}
	return 0, fmt.Errorf("anim: unknown interpolation %q", name)
}

// interpolate blends v0 towards v1 by the segment fraction f.
func (i Interpolation) interpolate(v0, v1, f float64) float64 {
	fn, ok := interpolationEasing[i]
	if !ok {
		return v0
	}
	return v0 + (v1-v0)*fn(f)
}

// Extrapolation selects how a curve continues past its first and last key.
type Extrapolation int

const (
	ExtrapolationConstant Extrapolation = iota
	ExtrapolationLinear
)

// KeyType tags a key for display. It does not affect evaluation.
type KeyType int

const (
	KeyTypeKeyframe KeyType = iota
	KeyTypeBreakdown
	KeyTypeExtreme
	KeyTypeJitter
)

// Keyframe is a single control point of a Curve. Interpolation applies to
// the segment that starts at this key.
type Keyframe struct {
	Time          float64
	Value         float64
	Interpolation Interpolation
	Type          KeyType
}

// KeyframeSettings are applied to keys created by Insert.
type KeyframeSettings struct {
	Interpolation Interpolation
	Type          KeyType
}

// DefaultKeyframeSettings returns the settings used for interactive keying.
func DefaultKeyframeSettings() KeyframeSettings {
	return KeyframeSettings{
		Interpolation: InterpolationEaseInOut,
		Type:          KeyTypeKeyframe,
	}
}

// Curve animates one element of one property. Keys are kept strictly
// increasing in time.
type Curve struct {
	Path          string
	Index         int
	Extrapolation Extrapolation

	keys []Keyframe
}

// NewCurve creates an empty Curve for the property element path[index].
func NewCurve(path string, index int) *Curve {
	c := new(Curve)
	c.Path = path
	c.Index = index
	return c
}

// Insert adds a key and returns its position. A key closer than
// keyTimeThreshold to an existing one replaces that key's value and settings.
func (c *Curve) Insert(time, value float64, settings KeyframeSettings) int {
	key := Keyframe{
		Time:          time,
		Value:         value,
		Interpolation: settings.Interpolation,
		Type:          settings.Type,
	}

	i := sort.Search(len(c.keys), func(i int) bool { return c.keys[i].Time >= time })
	for _, j := range []int{i - 1, i} {
		if j >= 0 && j < len(c.keys) && math.Abs(c.keys[j].Time-time) < keyTimeThreshold {
			key.Time = c.keys[j].Time
			c.keys[j] = key
			return j
		}
	}

	c.keys = append(c.keys, Keyframe{})
	copy(c.keys[i+1:], c.keys[i:])
	c.keys[i] = key
	return i
}

// Remove deletes the key at position i. It reports whether a key was removed.
func (c *Curve) Remove(i int) bool {
	if i < 0 || i >= len(c.keys) {
		return false
	}
	c.keys = append(c.keys[:i], c.keys[i+1:]...)
	return true
}

// Len returns the number of keys.
func (c *Curve) Len() int {
	return len(c.keys)
}

// Keyframes returns a copy of the keys in time order.
func (c *Curve) Keyframes() []Keyframe {
	out := make([]Keyframe, len(c.keys))
	copy(out, c.keys)
	return out
}

// Range returns the times of the first and last key.
func (c *Curve) Range() (start, end float64, ok bool) {
	if len(c.keys) == 0 {
		return 0, 0, false
	}
	return c.keys[0].Time, c.keys[len(c.keys)-1].Time, true
}

// Evaluate returns the curve's value at time.
func (c *Curve) Evaluate(time float64) (float64, error) {
	n := len(c.keys)
	if n == 0 {
		return 0, ErrNoKeyframes
	}

	first, last := c.keys[0], c.keys[n-1]
	if time <= first.Time {
		return first.Value + c.boundarySlope(0)*(time-first.Time), nil
	}
	if time >= last.Time {
		return last.Value + c.boundarySlope(n-2)*(time-last.Time), nil
	}

	// i is the first key after time, so keys[i-1] starts the segment.
	i := sort.Search(n, func(i int) bool { return c.keys[i].Time > time })
	k0, k1 := c.keys[i-1], c.keys[i]
	f := (time - k0.Time) / (k1.Time - k0.Time)
	return k0.Interpolation.interpolate(k0.Value, k1.Value, f), nil
}

// boundarySlope is the slope used to extrapolate from the segment starting at key i.
func (c *Curve) boundarySlope(i int) float64 {
	if c.Extrapolation != ExtrapolationLinear || i < 0 || i+1 >= len(c.keys) {
		return 0
	}
	k0, k1 := c.keys[i], c.keys[i+1]
	if k0.Interpolation == InterpolationConstant {
		return 0
	}
	return (k1.Value - k0.Value) / (k1.Time - k0.Time)
}
