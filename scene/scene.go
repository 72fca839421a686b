// Package scene stores triangle meshes and exposes them to the bvh package
// through stable mesh handles.
package scene

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"

	"github.com/achilleasa/polaris-accel/bvh"
	"github.com/achilleasa/polaris-accel/log"
	"github.com/achilleasa/polaris-accel/types"
)

// Scene owns a table of meshes and the acceleration structure built over
// them. Meshes must not be modified after Build.
type Scene struct {
	logger log.Logger

	// Camera placement loaded from a scene file, if any.
	View *View

	meshes []*Mesh
	accel  *bvh.Accelerator
}

func New() *Scene {
	return &Scene{
		logger: log.New("scene"),
	}
}

// Add a mesh and return its handle.
func (s *Scene) AddMesh(mesh *Mesh) bvh.MeshHandle {
	s.meshes = append(s.meshes, mesh)
	return bvh.MeshHandle(len(s.meshes) - 1)
}

// Look up a mesh by handle.
func (s *Scene) Mesh(handle bvh.MeshHandle) *Mesh {
	return s.meshes[handle]
}

func (s *Scene) MeshCount() int {
	return len(s.meshes)
}

func (s *Scene) TriangleCount() int {
	count := 0
	for _, mesh := range s.meshes {
		count += mesh.TriangleCount()
	}
	return count
}

// Build the acceleration structure over all meshes added so far.
func (s *Scene) Build(opts bvh.Options) error {
	accel := bvh.New(s, opts)
	for handle, mesh := range s.meshes {
		accel.RegisterMesh(bvh.MeshHandle(handle), mesh.TriangleCount())
	}
	if err := accel.Build(); err != nil {
		return err
	}

	s.accel = accel
	s.logger.Infof("built %s hierarchy for %d meshes (%d triangles)", opts.Method, len(s.meshes), accel.PrimitiveCount())
	return nil
}

// The acceleration structure created by the last successful Build.
func (s *Scene) Accelerator() *bvh.Accelerator {
	return s.accel
}

// Scene bounds. Only valid after Build.
func (s *Scene) Bounds() types.Bounds3 {
	return s.accel.Bounds()
}

// Occlusion query. Only valid after Build.
func (s *Scene) Intersect(ray *types.Ray) bool {
	return s.accel.Intersect(ray)
}

// Closest hit query. Only valid after Build.
func (s *Scene) IntersectHit(ray *types.Ray, isect *bvh.Interaction) bool {
	return s.accel.IntersectHit(ray, isect)
}

func (s *Scene) TriangleBounds(mesh bvh.MeshHandle, tri int) types.Bounds3 {
	return s.meshes[mesh].Bounds(tri)
}

func (s *Scene) IntersectTriangle(mesh bvh.MeshHandle, tri int, ray *types.Ray) bool {
	_, _, hit := s.meshes[mesh].Intersect(tri, ray)
	return hit
}

func (s *Scene) IntersectTriangleHit(mesh bvh.MeshHandle, tri int, ray *types.Ray) (types.Vec2, bool) {
	dist, bary, hit := s.meshes[mesh].Intersect(tri, ray)
	if !hit {
		return bary, false
	}
	ray.TMax = dist
	return bary, true
}

func (s *Scene) ComputeInteraction(mesh bvh.MeshHandle, tri int, bary types.Vec2, isect *bvh.Interaction) {
	s.meshes[mesh].ComputeInteraction(tri, bary, isect)
}

// Render a table with per-mesh information.
func (s *Scene) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Mesh", "Name", "Shading", "Vertices", "Triangles", "Normals", "UVs"})

	vertices := 0
	for handle, mesh := range s.meshes {
		shading := "flat"
		if mesh.Shading == SmoothShading {
			shading = "smooth"
		}
		vertices += len(mesh.Positions)
		table.Append([]string{
			fmt.Sprintf("%d", handle),
			mesh.Name,
			shading,
			fmt.Sprintf("%d", len(mesh.Positions)),
			fmt.Sprintf("%d", mesh.TriangleCount()),
			fmt.Sprintf("%t", mesh.Normals != nil),
			fmt.Sprintf("%t", mesh.UVs != nil),
		})
	}
	table.SetFooter([]string{"", "", "TOTAL", fmt.Sprintf("%d", vertices), fmt.Sprintf("%d", s.TriangleCount()), "", ""})

	table.Render()
	return buf.String()
}
