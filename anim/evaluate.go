package anim

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
)

// Target is anything that can be animated.
type Target interface {
	AnimID() *ID
}

// PropertyHandle gives access to the elements of one property of a target.
type PropertyHandle interface {
	Len() int
	Get(index int) float64
	Set(index int, value float64)
}

// PropertyResolver finds a target's property by path.
type PropertyResolver interface {
	Resolve(target Target, path string) (PropertyHandle, bool)
}

// EvalContext carries the parameters of one evaluation.
type EvalContext struct {
	EvalTime float64
}

// PropIdentifier names one element of an animated property, e.g. location[0].
type PropIdentifier struct {
	Path  string
	Index int
}

func (p PropIdentifier) String() string {
	return fmt.Sprintf("%s[%d]", p.Path, p.Index)
}

// AnimatedProperty is an evaluated value together with the property it belongs to.
type AnimatedProperty struct {
	Value float64

	handle PropertyHandle
}

// EvaluationResult maps animated properties to their evaluated values.
// Properties without a usable curve are absent.
type EvaluationResult struct {
	props map[PropIdentifier]AnimatedProperty
}

func (r *EvaluationResult) store(id PropIdentifier, value float64, handle PropertyHandle) {
	if r.props == nil {
		r.props = make(map[PropIdentifier]AnimatedProperty)
	}
	r.props[id] = AnimatedProperty{Value: value, handle: handle}
}

// Lookup returns the evaluated value of id.
func (r EvaluationResult) Lookup(id PropIdentifier) (AnimatedProperty, bool) {
	p, ok := r.props[id]
	return p, ok
}

// IsEmpty reports whether nothing was animated.
func (r EvaluationResult) IsEmpty() bool {
	return len(r.props) == 0
}

// Len returns the number of animated property elements.
func (r EvaluationResult) Len() int {
	return len(r.props)
}

// Identifiers returns the animated properties sorted by path then index.
func (r EvaluationResult) Identifiers() []PropIdentifier {
	ids := make([]PropIdentifier, 0, len(r.props))
	for id := range r.props {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Path != ids[j].Path {
			return ids[i].Path < ids[j].Path
		}
		return ids[i].Index < ids[j].Index
	})
	return ids
}

// Apply writes every evaluated value to the target it was evaluated for.
func (r EvaluationResult) Apply() {
	for _, id := range r.Identifiers() {
		p := r.props[id]
		p.handle.Set(id.Index, p.Value)
	}
}

// Evaluator computes animated values. It never modifies the animation data
// and only writes to targets through EvaluationResult.Apply.
type Evaluator struct {
	resolver PropertyResolver
	logger   *slog.Logger
}

// NewEvaluator creates an Evaluator. A nil logger uses the package logger.
func NewEvaluator(resolver PropertyResolver, logger *slog.Logger) *Evaluator {
	e := new(Evaluator)
	e.resolver = resolver
	if logger == nil {
		logger = Logger()
	}
	e.logger = logger.With("component", "evaluator")
	return e
}

// EvaluateLayer evaluates every channel the layer holds for the output at
// ctx.EvalTime. Strips that do not contain the time are ignored, and later
// strips override earlier ones.
func (e *Evaluator) EvaluateLayer(target Target, layer *Layer, outputIndex int, ctx EvalContext) EvaluationResult {
	var result EvaluationResult
	for _, s := range layer.Strips() {
		if !s.ContainsFrame(ctx.EvalTime) {
			continue
		}
		ks, ok := s.AsKeyframe()
		if !ok {
			continue
		}
		cs := ks.channelsForIndex(outputIndex)
		if cs == nil {
			continue
		}
		e.evaluateChannels(target, cs, ctx, &result)
	}
	return result
}

func (e *Evaluator) evaluateChannels(target Target, cs *ChannelSet, ctx EvalContext, result *EvaluationResult) {
	for _, c := range cs.Curves() {
		handle, ok := e.resolver.Resolve(target, c.Path)
		if !ok || c.Index < 0 || c.Index >= handle.Len() {
			e.logger.Debug("property not found", "path", c.Path, "index", c.Index)
			continue
		}

		value, err := c.Evaluate(ctx.EvalTime)
		if err != nil {
			e.logger.Debug("curve skipped", "path", c.Path, "index", c.Index, "error", err)
			continue
		}
		result.store(PropIdentifier{Path: c.Path, Index: c.Index}, value, handle)
	}
}

// EvaluateAnimation evaluates all layers for target and blends them bottom
// to top by influence and mix mode. Properties not animated by a lower layer
// blend against the target's current value.
func (e *Evaluator) EvaluateAnimation(target Target, a *Animation, ctx EvalContext) EvaluationResult {
	var blended EvaluationResult

	out := a.OutputForID(target.AnimID())
	if out == nil {
		return blended
	}

	for _, layer := range a.Layers() {
		influence := math.Min(layer.Influence, 1.0)
		if influence <= 0 {
			continue
		}

		layerResult := e.EvaluateLayer(target, layer, out.StableIndex, ctx)
		for _, id := range layerResult.Identifiers() {
			p := layerResult.props[id]
			if layer.MixMode == MixReplace && influence >= 1.0 {
				blended.store(id, p.Value, p.handle)
				continue
			}

			var lower float64
			if prev, ok := blended.props[id]; ok {
				lower = prev.Value
			} else {
				lower = p.handle.Get(id.Index)
			}
			blended.store(id, layer.MixMode.mix(lower, p.Value, influence), p.handle)
		}
	}
	return blended
}

// FindCurveForProperty returns the curve that animates path[index] of id at
// frameTime. Layers are searched top-down and the first strip containing
// frameTime wins. Failing that, the curve on the strip whose nearest bound is
// closest to frameTime is returned, searching all layers. That fallback
// ignores layer priority. It returns nil when id has no output or no strip has
// a curve for the property.
func FindCurveForProperty(a *Animation, id *ID, frameTime float64, path string, index int) *Curve {
	out := a.OutputForID(id)
	if out == nil {
		return nil
	}

	var nearest *Curve
	nearestDistance := math.Inf(1)

	for i := len(a.layers) - 1; i >= 0; i-- {
		for _, s := range a.layers[i].Strips() {
			switch s.Kind {
			case StripKindKeyframe:
				cs := s.keyframe.ChannelsForOutput(out)
				if cs == nil {
					continue
				}
				c := cs.FindCurve(path, index)
				if c == nil {
					continue
				}

				if s.ContainsFrame(frameTime) {
					return c
				}

				distance := math.Min(math.Abs(frameTime-s.FrameStart), math.Abs(frameTime-s.FrameEnd))
				if distance < nearestDistance {
					nearest = c
					nearestDistance = distance
				}
			}
		}
	}

	return nearest
}
