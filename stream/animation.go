package stream

// An Animation renders frames for a point in time.
type Animation interface {
	CalculateFrame(runtimeMs int64) *Frame
}
