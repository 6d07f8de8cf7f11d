package gfx

import (
	"time"

	geom "github.com/kjkrol/gokg/pkg/geometry"
)

// FrameState is the per-tick snapshot the scene is updated and drawn with.
type FrameState struct {
	Frame    uint64
	Elapsed  time.Duration
	Delta    time.Duration
	Viewport geom.Vec[int]
}

// Aspect returns width/height, or 1 for a degenerate viewport.
func (fs FrameState) Aspect() float32 {
	if fs.Viewport.X == 0 || fs.Viewport.Y == 0 {
		return 1
	}
	return float32(fs.Viewport.X) / float32(fs.Viewport.Y)
}

// Stats counts what the loop has submitted so far.
type Stats struct {
	Frames  uint64
	Draws   uint64
	Skipped uint64
}
