package stream

import (
	"math"

	"github.com/matt-g-everett/ledanim/anim"
	"github.com/matt-g-everett/ledanim/scene"
)

// Player is an Animation that plays a scene's keyframe animation on a loop.
type Player struct {
	scene     *scene.Scene
	evaluator *anim.Evaluator
	frameRate float64
	loopStart float64
	loopEnd   float64
}

// NewPlayer creates a Player that loops over [loopStart, loopEnd] at frameRate frames per second.
func NewPlayer(s *scene.Scene, evaluator *anim.Evaluator, frameRate, loopStart, loopEnd float64) *Player {
	p := new(Player)
	p.scene = s
	p.evaluator = evaluator
	p.frameRate = frameRate
	p.loopStart = loopStart
	p.loopEnd = loopEnd
	return p
}

// FrameTime maps a runtime to a frame of the loop.
func (p *Player) FrameTime(runtimeMs int64) float64 {
	length := p.loopEnd - p.loopStart
	if length <= 0 {
		return p.loopStart
	}

	frames := float64(runtimeMs) / 1000.0 * p.frameRate
	offset := math.Mod(frames, length)
	if offset < 0 {
		offset += length
	}
	return p.loopStart + offset
}

// CalculateFrame evaluates the animation, applies it to every light and
// returns the lights' colours.
func (p *Player) CalculateFrame(runtimeMs int64) *Frame {
	ctx := anim.EvalContext{EvalTime: p.FrameTime(runtimeMs)}

	var f *Frame
	p.scene.Write(func() {
		lights := p.scene.Lights()
		f = NewFrame(len(lights))
		for i, l := range lights {
			p.evaluator.EvaluateAnimation(l, p.scene.Animation, ctx).Apply()
			f.pixels[i] = l.Emitted()
		}
	})

	return f
}
