package stream

import (
	"math"
	"strings"
	"testing"

	"github.com/matt-g-everett/ledanim/anim"
	"github.com/matt-g-everett/ledanim/scene"
)

const playerDocument = `
name: Fade
lights:
  - name: A
    color: "#000000"
  - name: B
    color: "#0000ff"
layers:
  - name: Base
    strips:
      - channels:
          - light: A
            path: color
            index: 0
            interpolation: linear
            keys: [[0, 0.0], [10, 1.0]]
`

func newTestPlayer(t *testing.T) (*Player, *scene.Scene) {
	t.Helper()
	reg := anim.NewTypeRegistry()
	scene.InitTypes(reg)
	s, err := scene.Load(strings.NewReader(playerDocument), reg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return NewPlayer(s, anim.NewEvaluator(scene.Resolver{}, nil), 10, 0, 20), s
}

func TestPlayerFrameTime(t *testing.T) {
	p, _ := newTestPlayer(t)

	tests := []struct {
		runtimeMs int64
		want      float64
	}{
		{0, 0},
		{500, 5},
		{1999, 19.99},
		{2000, 0},
		{2500, 5},
		{-500, 15},
	}
	for _, tt := range tests {
		if got := p.FrameTime(tt.runtimeMs); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("FrameTime(%d) = %v, want %v", tt.runtimeMs, got, tt.want)
		}
	}

	still := NewPlayer(nil, nil, 10, 7, 7)
	if got := still.FrameTime(12345); got != 7 {
		t.Errorf("FrameTime on an empty loop = %v, want 7", got)
	}
}

func TestPlayerCalculateFrame(t *testing.T) {
	p, s := newTestPlayer(t)

	f := p.CalculateFrame(500)
	if f.Len() != 2 {
		t.Fatalf("frame has %d pixels, want 2", f.Len())
	}
	if got := f.Pixel(0); math.Abs(got.R-0.5) > 1e-9 || got.G != 0 || got.B != 0 {
		t.Errorf("pixel 0 = %+v, want R=0.5", got)
	}
	if got := f.Pixel(1); got.B != 1 || got.R != 0 {
		t.Errorf("pixel 1 = %+v, want unanimated blue", got)
	}
	if a := s.Light("A"); math.Abs(a.Colour.R-0.5) > 1e-9 {
		t.Errorf("light A not updated: %+v", a.Colour)
	}

	f = p.CalculateFrame(1500)
	if got := f.Pixel(0); got.R != 1 {
		t.Errorf("pixel 0 past the last key = %+v, want R=1", got)
	}
}
