package scene

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/achilleasa/polaris-accel/bvh"
	"github.com/achilleasa/polaris-accel/types"
)

// Rays whose direction is this close to parallel with a triangle's plane
// never hit it.
const detEpsilon float32 = 1e-6

type ShadingMode uint8

const (
	// The shading normal equals the geometric normal.
	FlatShading ShadingMode = iota

	// The shading normal is interpolated from vertex normals.
	SmoothShading
)

// A Mesh is an indexed triangle list in world space.
type Mesh struct {
	Name    string
	Shading ShadingMode

	Positions []types.Vec3

	// Three vertex indices per triangle.
	Indices []uint32

	// Optional per-vertex attributes; either nil or len(Positions) long.
	Normals []types.Vec3
	UVs     []types.Vec2
}

// Create a mesh and validate its index and attribute lists.
func NewMesh(shading ShadingMode, positions []types.Vec3, indices []uint32, normals []types.Vec3, uvs []types.Vec2) (*Mesh, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: index count %d is not a multiple of 3", ErrInvalidMesh, len(indices))
	}
	for _, index := range indices {
		if int(index) >= len(positions) {
			return nil, fmt.Errorf("%w: vertex index %d out of range [0, %d)", ErrInvalidMesh, index, len(positions))
		}
	}
	if normals != nil && len(normals) != len(positions) {
		return nil, fmt.Errorf("%w: expected %d normals; got %d", ErrInvalidMesh, len(positions), len(normals))
	}
	if uvs != nil && len(uvs) != len(positions) {
		return nil, fmt.Errorf("%w: expected %d uvs; got %d", ErrInvalidMesh, len(positions), len(uvs))
	}

	return &Mesh{
		Shading:   shading,
		Positions: positions,
		Indices:   indices,
		Normals:   normals,
		UVs:       uvs,
	}, nil
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

func (m *Mesh) vertexIndices(tri int) (uint32, uint32, uint32) {
	return m.Indices[3*tri], m.Indices[3*tri+1], m.Indices[3*tri+2]
}

func (m *Mesh) vertices(tri int) (a, b, c types.Vec3) {
	ia, ib, ic := m.vertexIndices(tri)
	return m.Positions[ia], m.Positions[ib], m.Positions[ic]
}

func (m *Mesh) Bounds(tri int) types.Bounds3 {
	a, b, c := m.vertices(tri)
	return types.BoundsFromPoints(a, b, c)
}

func (m *Mesh) Area(tri int) float32 {
	a, b, c := m.vertices(tri)
	return 0.5 * b.Sub(a).Cross(c.Sub(a)).Len()
}

// Intersect a ray with a triangle using the Möller-Trumbore algorithm. Only
// hits in (0, ray.TMax] are reported.
func (m *Mesh) Intersect(tri int, ray *types.Ray) (dist float32, bary types.Vec2, hit bool) {
	a, b, c := m.vertices(tri)

	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := ray.Dir.Cross(e2)
	det := p.Dot(e1)
	if math32.Abs(det) < detEpsilon {
		return 0, bary, false
	}

	t := ray.Origin.Sub(a)
	detInv := 1 / det
	u := p.Dot(t) * detInv
	if u < 0 || u > 1 {
		return 0, bary, false
	}

	q := t.Cross(e1)
	v := q.Dot(ray.Dir) * detInv
	if v < 0 || u+v > 1 {
		return 0, bary, false
	}

	dist = q.Dot(e2) * detInv
	if dist <= 0 || dist > ray.TMax {
		return 0, bary, false
	}
	return dist, types.Vec2{u, v}, true
}

// Fill in the shading data for a hit with barycentric coordinates bary.
func (m *Mesh) ComputeInteraction(tri int, bary types.Vec2, isect *bvh.Interaction) {
	ia, ib, ic := m.vertexIndices(tri)
	a, b, c := m.Positions[ia], m.Positions[ib], m.Positions[ic]

	isect.P = types.Barycentric3(a, b, c, bary)
	isect.N = c.Sub(a).Cross(b.Sub(a)).Normalize()

	if m.Normals == nil || m.Shading == FlatShading {
		isect.Ns = isect.N
	} else {
		isect.Ns = types.Barycentric3(m.Normals[ia], m.Normals[ib], m.Normals[ic], bary).Normalize()
	}

	if m.UVs != nil {
		isect.UV = types.Barycentric2(m.UVs[ia], m.UVs[ib], m.UVs[ic], bary)
	} else {
		isect.UV = bary
	}
}
