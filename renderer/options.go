package renderer

import "github.com/achilleasa/polaris-accel/types"

const defaultTileSize uint32 = 16

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Frame tiles are square with this side length. Defaults to 16.
	TileSize uint32

	// Trace a shadow ray towards LightDir for each primary hit.
	Shadows bool

	// Direction towards a distant light. Defaults to (1, 1, 1).
	LightDir types.Vec3
}
