package types

import "github.com/chewxy/math32"

// A Ray is a half-line o + t*d for t in (0, TMax]. Intersection queries shrink
// TMax in place as closer hits are found, so a ray should not be reused
// across traversals.
type Ray struct {
	Origin Vec3
	Dir    Vec3
	TMax   float32
}

// Create a ray with an unbounded TMax.
func NewRay(origin, dir Vec3) Ray {
	return Ray{Origin: origin, Dir: dir, TMax: math32.Inf(1)}
}

// Point at parametric distance t.
func (r *Ray) At(t float32) Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Reciprocal direction and per-axis sign used by the slab test.
func (r *Ray) SlabParams() (invDir Vec3, dirIsNeg [3]int) {
	invDir = r.Dir.Recip()
	for axis := 0; axis < 3; axis++ {
		if invDir[axis] < 0 {
			dirIsNeg[axis] = 1
		}
	}
	return invDir, dirIsNeg
}
