package renderer

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/achilleasa/polaris-accel/types"
)

func approxEqual(a, b types.Vec3) bool {
	return a.Sub(b).Len() < 1e-5
}

func TestCameraFrustrum(t *testing.T) {
	cam := NewCamera(90)
	cam.SetupProjection(1)

	exp := Frustrum{
		types.XYZ(-1, 1, -1),
		types.XYZ(1, 1, -1),
		types.XYZ(-1, -1, -1),
		types.XYZ(1, -1, -1),
	}
	for i := range exp {
		if !approxEqual(cam.Frustrum[i], exp[i]) {
			t.Fatalf("expected frustrum corner %d to be %v; got %v", i, exp[i], cam.Frustrum[i])
		}
	}

	type spec struct {
		s, t float32
		dir  types.Vec3
	}
	specs := []spec{
		{0.5, 0.5, types.XYZ(0, 0, -1)},
		{0, 0, types.XYZ(-1, 1, -1).Normalize()},
		{1, 0.5, types.XYZ(1, 0, -1).Normalize()},
	}
	for _, s := range specs {
		ray := cam.Ray(s.s, s.t)
		if !approxEqual(ray.Dir, s.dir) {
			t.Fatalf("expected ray (%f, %f) to have dir %v; got %v", s.s, s.t, s.dir, ray.Dir)
		}
		if ray.Origin != cam.Position {
			t.Fatalf("expected ray to start at the camera position; got %v", ray.Origin)
		}
	}
}

func TestCameraAspect(t *testing.T) {
	cam := NewCamera(90)
	cam.SetupProjection(2)

	if !approxEqual(cam.Frustrum[1], types.XYZ(2, 1, -1)) {
		t.Fatalf("expected top-right corner to be stretched horizontally; got %v", cam.Frustrum[1])
	}
}

func TestCameraYaw(t *testing.T) {
	cam := NewCamera(60)
	cam.Yaw = 0.5 * math32.Pi
	cam.Update()

	dir := cam.LookAt.Sub(cam.Position).Normalize()
	if !approxEqual(dir, types.XYZ(-1, 0, 0)) {
		t.Fatalf("expected camera to look towards -X; got %v", dir)
	}
	if cam.Yaw != 0 || cam.Pitch != 0 {
		t.Fatalf("expected angles to be reset after update; got pitch %f, yaw %f", cam.Pitch, cam.Yaw)
	}

	// A second update must not rotate again.
	cam.Update()
	if dir2 := cam.LookAt.Sub(cam.Position).Normalize(); !approxEqual(dir, dir2) {
		t.Fatalf("expected direction to stay %v; got %v", dir, dir2)
	}
}
