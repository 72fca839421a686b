package scene

import (
	"math/rand"

	"github.com/chewxy/math32"

	"github.com/achilleasa/polaris-accel/types"
)

// Generate count unit-sized triangles scattered inside a cube with the given
// half-extent. Each triangle lies in a plane perpendicular to one of the
// three axes.
func RandomTriangles(rng *rand.Rand, count int, extent float32) *Mesh {
	positions := make([]types.Vec3, 0, 3*count)
	indices := make([]uint32, 0, 3*count)

	for i := 0; i < count; i++ {
		origin := types.XYZ(
			(2*rng.Float32()-1)*extent,
			(2*rng.Float32()-1)*extent,
			(2*rng.Float32()-1)*extent,
		)

		u := types.Axis(rng.Intn(3))
		v := (u + 1) % 3
		b, c := origin, origin
		b[u]++
		c[v]++

		base := uint32(len(positions))
		positions = append(positions, origin, b, c)
		indices = append(indices, base, base+1, base+2)
	}

	return &Mesh{
		Name:      "random",
		Shading:   FlatShading,
		Positions: positions,
		Indices:   indices,
	}
}

// Generate a flat grid of nx * nz quads centered at the origin on the y = 0
// plane. Normals point towards +Y.
func Grid(nx, nz int, size float32) *Mesh {
	if nx < 1 {
		nx = 1
	}
	if nz < 1 {
		nz = 1
	}

	vertCount := (nx + 1) * (nz + 1)
	positions := make([]types.Vec3, 0, vertCount)
	normals := make([]types.Vec3, 0, vertCount)
	uvs := make([]types.Vec2, 0, vertCount)
	indices := make([]uint32, 0, 6*nx*nz)

	half := 0.5 * size
	for z := 0; z <= nz; z++ {
		for x := 0; x <= nx; x++ {
			u := float32(x) / float32(nx)
			v := float32(z) / float32(nz)
			positions = append(positions, types.XYZ(-half+u*size, 0, -half+v*size))
			normals = append(normals, types.XYZ(0, 1, 0))
			uvs = append(uvs, types.XY(u, v))
		}
	}

	stride := uint32(nx + 1)
	for z := uint32(0); z < uint32(nz); z++ {
		for x := uint32(0); x < uint32(nx); x++ {
			i0 := z*stride + x
			i1 := i0 + 1
			i2 := i0 + stride
			i3 := i2 + 1
			indices = append(indices, i0, i1, i2, i1, i3, i2)
		}
	}

	return &Mesh{
		Name:      "grid",
		Shading:   SmoothShading,
		Positions: positions,
		Indices:   indices,
		Normals:   normals,
		UVs:       uvs,
	}
}

// Generate a UV sphere. The poles lie on the Y axis.
func Sphere(center types.Vec3, radius float32, stacks, slices int) *Mesh {
	if stacks < 2 {
		stacks = 2
	}
	if slices < 3 {
		slices = 3
	}

	vertCount := (stacks + 1) * (slices + 1)
	positions := make([]types.Vec3, 0, vertCount)
	normals := make([]types.Vec3, 0, vertCount)
	uvs := make([]types.Vec2, 0, vertCount)
	indices := make([]uint32, 0, 6*stacks*slices)

	for st := 0; st <= stacks; st++ {
		v := float32(st) / float32(stacks)
		sinTheta, cosTheta := math32.Sincos(v * math32.Pi)
		for sl := 0; sl <= slices; sl++ {
			u := float32(sl) / float32(slices)
			sinPhi, cosPhi := math32.Sincos(u * 2 * math32.Pi)

			n := types.XYZ(sinTheta*cosPhi, cosTheta, sinTheta*sinPhi)
			positions = append(positions, center.Add(n.Mul(radius)))
			normals = append(normals, n)
			uvs = append(uvs, types.XY(u, v))
		}
	}

	stride := uint32(slices + 1)
	for st := uint32(0); st < uint32(stacks); st++ {
		for sl := uint32(0); sl < uint32(slices); sl++ {
			i0 := st*stride + sl
			i1 := i0 + 1
			i2 := i0 + stride
			i3 := i2 + 1

			// Skip the degenerate triangles at the poles.
			if st != 0 {
				indices = append(indices, i0, i2, i1)
			}
			if st != uint32(stacks)-1 {
				indices = append(indices, i1, i2, i3)
			}
		}
	}

	return &Mesh{
		Name:      "sphere",
		Shading:   SmoothShading,
		Positions: positions,
		Indices:   indices,
		Normals:   normals,
		UVs:       uvs,
	}
}
