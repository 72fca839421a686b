package types

import "github.com/chewxy/math32"

// Bounds3 is an axis-aligned bounding box. The zero value is the degenerate
// box at the origin; use EmptyBounds for a box that grows from nothing.
type Bounds3 struct {
	Min Vec3
	Max Vec3
}

// Create an empty bounding box (Min = +Inf, Max = -Inf).
func EmptyBounds() Bounds3 {
	inf := math32.Inf(1)
	return Bounds3{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// Create the smallest box containing the given points.
func BoundsFromPoints(points ...Vec3) Bounds3 {
	b := EmptyBounds()
	for _, p := range points {
		b = b.UnionPoint(p)
	}
	return b
}

// Return true if Min > Max along any axis.
func (b Bounds3) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Grow the box so that it also contains other.
func (b Bounds3) Union(other Bounds3) Bounds3 {
	return Bounds3{
		Min: MinVec3(b.Min, other.Min),
		Max: MaxVec3(b.Max, other.Max),
	}
}

// Grow the box so that it also contains p.
func (b Bounds3) UnionPoint(p Vec3) Bounds3 {
	return Bounds3{
		Min: MinVec3(b.Min, p),
		Max: MaxVec3(b.Max, p),
	}
}

// Return true if other lies completely inside the box.
func (b Bounds3) Contains(other Bounds3) bool {
	for axis := 0; axis < 3; axis++ {
		if other.Min[axis] < b.Min[axis] || other.Max[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}

func (b Bounds3) Diagonal() Vec3 {
	return b.Max.Sub(b.Min)
}

func (b Bounds3) Centroid() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Total surface area of the box. Empty boxes report 0.
func (b Bounds3) Area() float32 {
	if b.IsEmpty() {
		return 0
	}
	d := b.Diagonal()
	return 2 * (d[0]*d[1] + d[1]*d[2] + d[0]*d[2])
}

// Axis with the largest extent. Ties resolve to the lower axis.
func (b Bounds3) MaxExtent() Axis {
	d := b.Diagonal()
	if d[0] >= d[1] && d[0] >= d[2] {
		return XAxis
	}
	if d[1] >= d[2] {
		return YAxis
	}
	return ZAxis
}

// Position of p relative to the box corners; (0,0,0) at Min and (1,1,1) at
// Max. Axes with zero extent map to 0.
func (b Bounds3) Offset(p Vec3) Vec3 {
	o := p.Sub(b.Min)
	for axis := 0; axis < 3; axis++ {
		if b.Max[axis] > b.Min[axis] {
			o[axis] /= b.Max[axis] - b.Min[axis]
		} else {
			o[axis] = 0
		}
	}
	return o
}

func (b Bounds3) corner(neg int) Vec3 {
	if neg == 1 {
		return b.Max
	}
	return b.Min
}

// Slab test against a ray with precomputed reciprocal direction and per-axis
// direction sign (1 if negative). Only the [0, ray.TMax] interval counts.
func (b Bounds3) IntersectP(ray *Ray, invDir Vec3, dirIsNeg [3]int) bool {
	tMin := (b.corner(dirIsNeg[0])[0] - ray.Origin[0]) * invDir[0]
	tMax := (b.corner(1 - dirIsNeg[0])[0] - ray.Origin[0]) * invDir[0]
	tyMin := (b.corner(dirIsNeg[1])[1] - ray.Origin[1]) * invDir[1]
	tyMax := (b.corner(1 - dirIsNeg[1])[1] - ray.Origin[1]) * invDir[1]

	// Widen the far distances so boxes with zero extent are not missed
	// because of rounding.
	tMax *= slabRobustScale
	tyMax *= slabRobustScale

	if tMin > tyMax || tyMin > tMax {
		return false
	}
	if tyMin > tMin {
		tMin = tyMin
	}
	if tyMax < tMax {
		tMax = tyMax
	}

	tzMin := (b.corner(dirIsNeg[2])[2] - ray.Origin[2]) * invDir[2]
	tzMax := (b.corner(1 - dirIsNeg[2])[2] - ray.Origin[2]) * invDir[2]
	tzMax *= slabRobustScale

	if tMin > tzMax || tzMin > tMax {
		return false
	}
	if tzMin > tMin {
		tMin = tzMin
	}
	if tzMax < tMax {
		tMax = tzMax
	}

	return tMin < ray.TMax && tMax > 0
}

// 1 + 2*gamma(3) for float32 machine epsilon.
const slabRobustScale float32 = 1 + 2*(3*0x1p-24)/(1-3*0x1p-24)
