package anim

import "math"

// StripKind discriminates the data a Strip carries.
type StripKind int

const (
	StripKindKeyframe StripKind = iota
)

func (k StripKind) String() string {
	switch k {
	case StripKindKeyframe:
		return "keyframe"
	}
	return "unknown"
}

// A Strip is a time-bounded region of a Layer. Bounds are inclusive.
type Strip struct {
	Kind       StripKind
	FrameStart float64
	FrameEnd   float64

	keyframe *KeyframeStrip
}

func newStrip(kind StripKind) *Strip {
	s := new(Strip)
	s.Kind = kind
	s.FrameStart = math.Inf(-1)
	s.FrameEnd = math.Inf(1)
	if kind == StripKindKeyframe {
		s.keyframe = newKeyframeStrip()
	}
	return s
}

// ContainsFrame reports whether frameTime lies within the strip.
func (s *Strip) ContainsFrame(frameTime float64) bool {
	return s.FrameStart <= frameTime && frameTime <= s.FrameEnd
}

// IsInfinite reports whether the strip covers all time.
func (s *Strip) IsInfinite() bool {
	return math.IsInf(s.FrameStart, -1) && math.IsInf(s.FrameEnd, 1)
}

// Resize sets the strip's bounds.
func (s *Strip) Resize(frameStart, frameEnd float64) error {
	if frameStart > frameEnd {
		return ErrInvalidRange
	}
	s.FrameStart = frameStart
	s.FrameEnd = frameEnd
	return nil
}

// AsKeyframe returns the keyframe data of a keyframe strip.
func (s *Strip) AsKeyframe() (*KeyframeStrip, bool) {
	return s.keyframe, s.keyframe != nil
}

// KeyframeStrip holds curves grouped per Output.
type KeyframeStrip struct {
	channels []*ChannelSet
}

func newKeyframeStrip() *KeyframeStrip {
	return new(KeyframeStrip)
}

// ChannelSets returns the strip's channel groups in creation order.
func (k *KeyframeStrip) ChannelSets() []*ChannelSet {
	return k.channels
}

// ChannelsForOutput returns the curves for the output, or nil if the strip
// does not animate it.
func (k *KeyframeStrip) ChannelsForOutput(out *Output) *ChannelSet {
	return k.channelsForIndex(out.StableIndex)
}

func (k *KeyframeStrip) channelsForIndex(outputIndex int) *ChannelSet {
	for _, cs := range k.channels {
		if cs.OutputIndex == outputIndex {
			return cs
		}
	}
	return nil
}

// ChannelsEnsure returns the curves for the output, creating an empty group if needed.
func (k *KeyframeStrip) ChannelsEnsure(out *Output) *ChannelSet {
	if cs := k.ChannelsForOutput(out); cs != nil {
		return cs
	}
	cs := &ChannelSet{OutputIndex: out.StableIndex}
	k.channels = append(k.channels, cs)
	return cs
}

func (k *KeyframeStrip) removeOutput(outputIndex int) {
	for i, cs := range k.channels {
		if cs.OutputIndex == outputIndex {
			k.channels = append(k.channels[:i], k.channels[i+1:]...)
			return
		}
	}
}

// KeyframeInsert keys path[index] for the output and returns the curve that
// received the key.
func (k *KeyframeStrip) KeyframeInsert(out *Output, path string, index int, key Keyframe, settings KeyframeSettings) *Curve {
	c := k.ChannelsEnsure(out).CurveEnsure(path, index)
	c.Insert(key.Time, key.Value, settings)
	return c
}

// ChannelSet is the group of curves a keyframe strip holds for one Output.
type ChannelSet struct {
	OutputIndex int

	curves []*Curve
}

// Curves returns the group's curves in creation order.
func (cs *ChannelSet) Curves() []*Curve {
	return cs.curves
}

// FindCurve returns the curve for path[index], or nil.
func (cs *ChannelSet) FindCurve(path string, index int) *Curve {
	for _, c := range cs.curves {
		if c.Path == path && c.Index == index {
			return c
		}
	}
	return nil
}

// CurveEnsure returns the curve for path[index], creating it if needed.
func (cs *ChannelSet) CurveEnsure(path string, index int) *Curve {
	if c := cs.FindCurve(path, index); c != nil {
		return c
	}
	c := NewCurve(path, index)
	cs.curves = append(cs.curves, c)
	return c
}
