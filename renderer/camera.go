package renderer

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/achilleasa/polaris-accel/types"
)

// Stores the ray directions at the four corners of the camera frustrum. It is
// used as a shortcut for generating per pixel rays via interpolation of the
// corner rays.
type Frustrum [4]types.Vec3

func (fr Frustrum) String() string {
	return fmt.Sprintf(
		"Frustrum Rays:\nTL : (%3.3f, %3.3f, %3.3f)\nTR : (%3.3f, %3.3f, %3.3f)\nBL : (%3.3f, %3.3f, %3.3f)\nBR : (%3.3f, %3.3f, %3.3f)",
		fr[0][0], fr[0][1], fr[0][2],
		fr[1][0], fr[1][1], fr[1][2],
		fr[2][0], fr[2][1], fr[2][2],
		fr[3][0], fr[3][1], fr[3][2],
	)
}

// The camera type controls the scene camera.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Rotation angles in radians. They are applied and reset by Update.
	Pitch float32
	Yaw   float32

	// Vertical FOV in degrees.
	FOV float32

	Frustrum Frustrum

	aspect float32
}

func NewCamera(fov float32) *Camera {
	return &Camera{
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
		aspect:   1,
	}
}

// Setup camera aspect ratio.
func (c *Camera) SetupProjection(aspect float32) {
	c.aspect = aspect
	c.Update()
}

// Update camera.
func (c *Camera) Update() {
	dir := c.LookAt.Sub(c.Position).Normalize()
	if c.Pitch != 0 || c.Yaw != 0 {
		pitchAxis := dir.Cross(c.Up)
		pitchQuat := types.QuatFromAxisAngle(pitchAxis, c.Pitch)
		yawQuat := types.QuatFromAxisAngle(c.Up, c.Yaw)

		orientQuat := pitchQuat.Mul(yawQuat).Normalize()

		// Update direction
		dir = orientQuat.Rotate(dir).Normalize()
		c.LookAt = c.Position.Add(dir)
		c.Pitch, c.Yaw = 0, 0
	}

	c.updateFrustrum(dir)
}

// Build the corner rays from the camera basis.
func (c *Camera) updateFrustrum(dir types.Vec3) {
	right := dir.Cross(c.Up).Normalize()
	up := right.Cross(dir)

	halfH := math32.Tan(0.5 * c.FOV * math32.Pi / 180)
	halfW := halfH * c.aspect

	dx := right.Mul(halfW)
	dy := up.Mul(halfH)

	c.Frustrum[0] = dir.Sub(dx).Add(dy)
	c.Frustrum[1] = dir.Add(dx).Add(dy)
	c.Frustrum[2] = dir.Sub(dx).Sub(dy)
	c.Frustrum[3] = dir.Add(dx).Sub(dy)
}

// Generate a primary ray through a point on the image plane. Both s and t are
// in [0, 1] with (0, 0) at the top-left corner.
func (c *Camera) Ray(s, t float32) types.Ray {
	top := lerp(c.Frustrum[0], c.Frustrum[1], s)
	bottom := lerp(c.Frustrum[2], c.Frustrum[3], s)
	return types.NewRay(c.Position, lerp(top, bottom, t).Normalize())
}

func lerp(a, b types.Vec3, t float32) types.Vec3 {
	return a.Mul(1 - t).Add(b.Mul(t))
}
