package bvh

import "sort"

// The registry maps global primitive indices to (mesh, local triangle) pairs
// using a prefix sum over the triangle counts of the registered meshes.
type registry struct {
	// offsets[i] is the global index of the first triangle of meshes[i];
	// the last entry is the total primitive count.
	offsets []int
	meshes  []MeshHandle
}

func newRegistry() registry {
	return registry{offsets: []int{0}}
}

func (r *registry) register(mesh MeshHandle, triangleCount int) {
	r.meshes = append(r.meshes, mesh)
	r.offsets = append(r.offsets, r.offsets[len(r.offsets)-1]+triangleCount)
}

func (r *registry) primitiveCount() int {
	return r.offsets[len(r.offsets)-1]
}

// Resolve a global primitive index. Meshes without triangles are skipped
// because the search selects the last offset that is <= index.
func (r *registry) resolve(index int) (MeshHandle, int) {
	slot := sort.Search(len(r.offsets), func(i int) bool {
		return r.offsets[i] > index
	}) - 1
	return r.meshes[slot], index - r.offsets[slot]
}
