package renderer

import "time"

type FrameStats struct {
	// Frame dims and the number of tiles the frame was split into.
	FrameW, FrameH uint32
	Tiles          int

	// Ray counts.
	PrimaryRays uint64
	ShadowRays  uint64

	// Primary rays that hit geometry and the shadow rays that were blocked.
	Hits     uint64
	Occluded uint64

	// Total render time for entire frame.
	RenderTime time.Duration
}

// Traced rays per second.
func (s FrameStats) RaysPerSecond() float64 {
	if s.RenderTime <= 0 {
		return 0
	}
	return float64(s.PrimaryRays+s.ShadowRays) / s.RenderTime.Seconds()
}
