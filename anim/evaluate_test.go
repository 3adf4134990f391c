package anim

import (
	"math"
	"reflect"
	"testing"
)

type testObject struct {
	id  ID
	loc [3]float64
	rot [3]float64
}

func (o *testObject) AnimID() *ID {
	return &o.id
}

type vectorHandle struct {
	v *[3]float64
}

func (h vectorHandle) Len() int                     { return len(h.v) }
func (h vectorHandle) Get(index int) float64        { return h.v[index] }
func (h vectorHandle) Set(index int, value float64) { h.v[index] = value }

type testResolver struct{}

func (testResolver) Resolve(target Target, path string) (PropertyHandle, bool) {
	o, ok := target.(*testObject)
	if !ok {
		return nil, false
	}
	switch path {
	case "location":
		return vectorHandle{&o.loc}, true
	case "rotation_euler":
		return vectorHandle{&o.rot}, true
	}
	return nil, false
}

type evaluationFixture struct {
	anim  *Animation
	cube  *testObject
	out   *Output
	layer *Layer
	eval  *Evaluator
}

func newEvaluationFixture(t *testing.T) *evaluationFixture {
	t.Helper()
	f := new(evaluationFixture)
	f.anim = NewAnimation("anim")
	f.cube = &testObject{id: ID{Name: "OBKüüübus"}}
	f.out = f.anim.OutputAdd()
	if err := f.out.AssignID(f.cube.AnimID(), testRegistry()); err != nil {
		t.Fatalf("AssignID: %v", err)
	}
	f.layer = f.anim.LayerAdd("Kübus layer")
	f.eval = NewEvaluator(testResolver{}, nil)
	return f
}

func (f *evaluationFixture) keyframeStrip(t *testing.T, layer *Layer, start, end float64) *KeyframeStrip {
	t.Helper()
	s := layer.StripAdd(StripKindKeyframe)
	if err := s.Resize(start, end); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	ks, _ := s.AsKeyframe()
	return ks
}

func TestEvaluateLayerKeyframes(t *testing.T) {
	f := newEvaluationFixture(t)
	ks, _ := f.layer.StripAdd(StripKindKeyframe).AsKeyframe()

	ks.KeyframeInsert(f.out, "location", 0, Keyframe{Time: 1.0, Value: 47.1}, linearSettings())
	ks.KeyframeInsert(f.out, "location", 0, Keyframe{Time: 5.0, Value: 47.5}, linearSettings())
	ks.KeyframeInsert(f.out, "rotation_euler", 1, Keyframe{Time: 1.0, Value: 0.0}, linearSettings())
	ks.KeyframeInsert(f.out, "rotation_euler", 1, Keyframe{Time: 5.0, Value: 3.14}, linearSettings())

	// Evaluation must leave these alone.
	f.cube.loc = [3]float64{3, 2, 7}
	f.cube.rot = [3]float64{3, 2, 7}
	before := *f.cube

	result := f.eval.EvaluateLayer(f.cube, f.layer, f.out.StableIndex, EvalContext{EvalTime: 3.0})

	if result.IsEmpty() {
		t.Fatal("result is empty")
	}
	loc0, ok := result.Lookup(PropIdentifier{"location", 0})
	if !ok {
		t.Fatal("location[0] should have been animated")
	}
	if math.Abs(loc0.Value-47.3) > epsilon {
		t.Errorf("location[0] = %v, want 47.3", loc0.Value)
	}
	rot1, ok := result.Lookup(PropIdentifier{"rotation_euler", 1})
	if !ok || math.Abs(rot1.Value-1.57) > epsilon {
		t.Errorf("rotation_euler[1] = %v, %v; want 1.57", rot1.Value, ok)
	}
	if _, ok := result.Lookup(PropIdentifier{"location", 1}); ok {
		t.Error("location[1] is not keyed but was animated")
	}

	if !reflect.DeepEqual(before, *f.cube) {
		t.Errorf("evaluation modified the animated object: before %+v, after %+v", before, *f.cube)
	}
}

func TestEvaluateLayerIsIdempotent(t *testing.T) {
	f := newEvaluationFixture(t)
	ks, _ := f.layer.StripAdd(StripKindKeyframe).AsKeyframe()
	ks.KeyframeInsert(f.out, "location", 2, Keyframe{Time: 0, Value: 0}, linearSettings())
	ks.KeyframeInsert(f.out, "location", 2, Keyframe{Time: 10, Value: 1}, linearSettings())

	ctx := EvalContext{EvalTime: 4}
	first := f.eval.EvaluateLayer(f.cube, f.layer, f.out.StableIndex, ctx)
	second := f.eval.EvaluateLayer(f.cube, f.layer, f.out.StableIndex, ctx)

	if !reflect.DeepEqual(first.Identifiers(), second.Identifiers()) {
		t.Fatalf("identifiers differ: %v vs %v", first.Identifiers(), second.Identifiers())
	}
	for _, id := range first.Identifiers() {
		a, _ := first.Lookup(id)
		b, _ := second.Lookup(id)
		if a.Value != b.Value {
			t.Errorf("%v: %v then %v", id, a.Value, b.Value)
		}
	}
}

func TestEvaluateLayerEmpty(t *testing.T) {
	f := newEvaluationFixture(t)

	if r := f.eval.EvaluateLayer(f.cube, f.layer, f.out.StableIndex, EvalContext{EvalTime: 1}); !r.IsEmpty() {
		t.Errorf("layer without strips produced %d values", r.Len())
	}

	ks, _ := f.layer.StripAdd(StripKindKeyframe).AsKeyframe()
	other := f.anim.OutputAdd()
	ks.KeyframeInsert(other, "location", 0, Keyframe{Time: 1, Value: 1}, linearSettings())
	if r := f.eval.EvaluateLayer(f.cube, f.layer, f.out.StableIndex, EvalContext{EvalTime: 1}); !r.IsEmpty() {
		t.Errorf("layer without channels for the output produced %d values", r.Len())
	}
}

func TestEvaluateLayerSkipsUnusableCurves(t *testing.T) {
	f := newEvaluationFixture(t)
	ks, _ := f.layer.StripAdd(StripKindKeyframe).AsKeyframe()
	ks.KeyframeInsert(f.out, "location", 0, Keyframe{Time: 1, Value: 5}, linearSettings())
	ks.KeyframeInsert(f.out, "scale", 0, Keyframe{Time: 1, Value: 2}, linearSettings())
	ks.KeyframeInsert(f.out, "location", 7, Keyframe{Time: 1, Value: 2}, linearSettings())
	ks.ChannelsForOutput(f.out).CurveEnsure("rotation_euler", 0)

	result := f.eval.EvaluateLayer(f.cube, f.layer, f.out.StableIndex, EvalContext{EvalTime: 1})
	if result.Len() != 1 {
		t.Fatalf("result has %d values (%v), want only location[0]", result.Len(), result.Identifiers())
	}
	if p, ok := result.Lookup(PropIdentifier{"location", 0}); !ok || p.Value != 5 {
		t.Errorf("location[0] = %v, %v; want 5", p.Value, ok)
	}
}

func TestEvaluateLayerStripOrder(t *testing.T) {
	f := newEvaluationFixture(t)
	early := f.keyframeStrip(t, f.layer, 0, 10)
	late := f.keyframeStrip(t, f.layer, 5, 20)
	early.KeyframeInsert(f.out, "location", 0, Keyframe{Time: 0, Value: 1}, linearSettings())
	late.KeyframeInsert(f.out, "location", 0, Keyframe{Time: 0, Value: 2}, linearSettings())

	tests := []struct {
		time float64
		want float64
	}{
		{2, 1},
		{7, 2},
		{15, 2},
	}
	for _, tt := range tests {
		r := f.eval.EvaluateLayer(f.cube, f.layer, f.out.StableIndex, EvalContext{EvalTime: tt.time})
		p, ok := r.Lookup(PropIdentifier{"location", 0})
		if !ok || p.Value != tt.want {
			t.Errorf("time %v: location[0] = %v, %v; want %v", tt.time, p.Value, ok, tt.want)
		}
	}

	r := f.eval.EvaluateLayer(f.cube, f.layer, f.out.StableIndex, EvalContext{EvalTime: 25})
	if !r.IsEmpty() {
		t.Errorf("time outside all strips produced %v", r.Identifiers())
	}
}

func TestEvaluationResultApply(t *testing.T) {
	f := newEvaluationFixture(t)
	ks, _ := f.layer.StripAdd(StripKindKeyframe).AsKeyframe()
	ks.KeyframeInsert(f.out, "location", 1, Keyframe{Time: 0, Value: 9}, linearSettings())

	result := f.eval.EvaluateLayer(f.cube, f.layer, f.out.StableIndex, EvalContext{EvalTime: 0})
	result.Apply()
	if f.cube.loc != [3]float64{0, 9, 0} {
		t.Errorf("loc after Apply = %v", f.cube.loc)
	}
}

func TestEvaluateAnimationBlending(t *testing.T) {
	f := newEvaluationFixture(t)
	f.cube.loc = [3]float64{10, 10, 10}

	base, _ := f.layer.StripAdd(StripKindKeyframe).AsKeyframe()
	base.KeyframeInsert(f.out, "location", 0, Keyframe{Time: 0, Value: 2}, linearSettings())

	top := f.anim.LayerAdd("top")
	topKeys, _ := top.StripAdd(StripKindKeyframe).AsKeyframe()
	topKeys.KeyframeInsert(f.out, "location", 0, Keyframe{Time: 0, Value: 4}, linearSettings())
	topKeys.KeyframeInsert(f.out, "location", 1, Keyframe{Time: 0, Value: 20}, linearSettings())

	tests := []struct {
		mode      MixMode
		influence float64
		want0     float64
		want1     float64
	}{
		{MixReplace, 1.0, 4, 20},
		{MixReplace, 0.5, 3, 15},
		{MixReplace, 0.0, 2, 10},
		{MixAdd, 1.0, 6, 30},
		{MixSubtract, 0.5, 0, 0},
		{MixMultiply, 1.0, 8, 200},
	}
	for _, tt := range tests {
		top.MixMode = tt.mode
		top.Influence = tt.influence

		r := f.eval.EvaluateAnimation(f.cube, f.anim, EvalContext{EvalTime: 0})
		p0, _ := r.Lookup(PropIdentifier{"location", 0})
		p1, ok1 := r.Lookup(PropIdentifier{"location", 1})
		if tt.influence == 0 {
			if ok1 {
				t.Errorf("%v@0: location[1] animated by a muted layer", tt.mode)
			}
			p1.Value = f.cube.loc[1]
		}
		if math.Abs(p0.Value-tt.want0) > epsilon || math.Abs(p1.Value-tt.want1) > epsilon {
			t.Errorf("%v@%v: location = %v, %v; want %v, %v", tt.mode, tt.influence, p0.Value, p1.Value, tt.want0, tt.want1)
		}
	}

	if f.cube.loc != [3]float64{10, 10, 10} {
		t.Errorf("EvaluateAnimation modified the object: %v", f.cube.loc)
	}
}

func TestEvaluateAnimationUnknownTarget(t *testing.T) {
	f := newEvaluationFixture(t)
	ks, _ := f.layer.StripAdd(StripKindKeyframe).AsKeyframe()
	ks.KeyframeInsert(f.out, "location", 0, Keyframe{Time: 0, Value: 1}, linearSettings())

	stranger := &testObject{id: ID{Name: "OBStranger"}}
	if r := f.eval.EvaluateAnimation(stranger, f.anim, EvalContext{}); !r.IsEmpty() {
		t.Errorf("unanimated target produced %v", r.Identifiers())
	}
}

func TestFindCurveForPropertyNoOutput(t *testing.T) {
	f := newEvaluationFixture(t)
	ks, _ := f.layer.StripAdd(StripKindKeyframe).AsKeyframe()
	ks.KeyframeInsert(f.out, "location", 0, Keyframe{Time: 0, Value: 1}, linearSettings())

	if c := FindCurveForProperty(f.anim, &ID{Name: "OBOther"}, 0, "location", 0); c != nil {
		t.Errorf("found curve %v for an ID without output", c)
	}
	if c := FindCurveForProperty(f.anim, nil, 0, "location", 0); c != nil {
		t.Error("found a curve for a nil ID")
	}
}

func TestFindCurveForPropertyTopLayerWins(t *testing.T) {
	f := newEvaluationFixture(t)
	id := f.cube.AnimID()

	lower := f.keyframeStrip(t, f.layer, 0, 100).
		KeyframeInsert(f.out, "location", 0, Keyframe{Time: 0, Value: 1}, linearSettings())
	upper := f.keyframeStrip(t, f.anim.LayerAdd("upper"), 10, 20).
		KeyframeInsert(f.out, "location", 0, Keyframe{Time: 0, Value: 2}, linearSettings())

	if got := FindCurveForProperty(f.anim, id, 15, "location", 0); got != upper {
		t.Error("time 15: expected the upper layer's curve")
	}
	if got := FindCurveForProperty(f.anim, id, 50, "location", 0); got != lower {
		t.Error("time 50: an exact match on a lower layer must beat a nearer upper strip")
	}
	if got := FindCurveForProperty(f.anim, id, 20, "location", 0); got != upper {
		t.Error("time 20: strip end is inclusive")
	}
	if got := FindCurveForProperty(f.anim, id, 15, "location", 1); got != nil {
		t.Error("found a curve for an unkeyed property")
	}
}

func TestFindCurveForPropertyNearestStrip(t *testing.T) {
	f := newEvaluationFixture(t)
	id := f.cube.AnimID()

	lower := f.keyframeStrip(t, f.layer, 0, 10).
		KeyframeInsert(f.out, "location", 0, Keyframe{Time: 0, Value: 1}, linearSettings())
	upper := f.keyframeStrip(t, f.anim.LayerAdd("upper"), 30, 40).
		KeyframeInsert(f.out, "location", 0, Keyframe{Time: 0, Value: 2}, linearSettings())

	tests := []struct {
		time float64
		want *Curve
	}{
		{11, lower}, // 1 from lower, 19 from upper
		{-5, lower}, // lower layer wins on distance despite priority
		{28, upper}, // 2 from upper
		{45, upper}, // past the end of the upper strip
		{20, upper}, // tie: the upper layer is scanned first
	}
	for _, tt := range tests {
		if got := FindCurveForProperty(f.anim, id, tt.time, "location", 0); got != tt.want {
			t.Errorf("time %v: got %p, want %p", tt.time, got, tt.want)
		}
	}
}

func TestFindCurveForPropertySkipsStripsWithoutCurve(t *testing.T) {
	f := newEvaluationFixture(t)
	id := f.cube.AnimID()

	keyed := f.keyframeStrip(t, f.layer, 0, 10).
		KeyframeInsert(f.out, "location", 0, Keyframe{Time: 0, Value: 1}, linearSettings())
	f.keyframeStrip(t, f.anim.LayerAdd("upper"), 0, 10).
		KeyframeInsert(f.out, "location", 1, Keyframe{Time: 0, Value: 2}, linearSettings())

	if got := FindCurveForProperty(f.anim, id, 5, "location", 0); got != keyed {
		t.Error("expected the curve from the lower layer")
	}
}
