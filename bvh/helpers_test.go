package bvh

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/chewxy/math32"

	"github.com/achilleasa/polaris-accel/types"
)

type triangle [3]types.Vec3

// A minimal Geometry implementation backed by plain triangle lists.
type triangleSoup struct {
	meshes [][]triangle
}

func (s *triangleSoup) add(tris []triangle) MeshHandle {
	s.meshes = append(s.meshes, tris)
	return MeshHandle(len(s.meshes) - 1)
}

func (s *triangleSoup) TriangleBounds(mesh MeshHandle, tri int) types.Bounds3 {
	t := s.meshes[mesh][tri]
	return types.BoundsFromPoints(t[0], t[1], t[2])
}

func (s *triangleSoup) IntersectTriangle(mesh MeshHandle, tri int, ray *types.Ray) bool {
	_, _, ok := intersectTriangle(s.meshes[mesh][tri], ray)
	return ok
}

func (s *triangleSoup) IntersectTriangleHit(mesh MeshHandle, tri int, ray *types.Ray) (types.Vec2, bool) {
	dist, bary, ok := intersectTriangle(s.meshes[mesh][tri], ray)
	if !ok {
		return types.Vec2{}, false
	}
	ray.TMax = dist
	return bary, true
}

func (s *triangleSoup) ComputeInteraction(mesh MeshHandle, tri int, bary types.Vec2, isect *Interaction) {
	t := s.meshes[mesh][tri]
	isect.P = types.Barycentric3(t[0], t[1], t[2], bary)
	isect.N = t[2].Sub(t[0]).Cross(t[1].Sub(t[0])).Normalize()
	isect.Ns = isect.N
	isect.UV = bary
}

func intersectTriangle(t triangle, ray *types.Ray) (float32, types.Vec2, bool) {
	e1 := t[1].Sub(t[0])
	e2 := t[2].Sub(t[0])
	p := ray.Dir.Cross(e2)
	det := p.Dot(e1)
	if math32.Abs(det) < 1e-6 {
		return 0, types.Vec2{}, false
	}

	tv := ray.Origin.Sub(t[0])
	invDet := 1 / det
	u := p.Dot(tv) * invDet
	if u < 0 || u > 1 {
		return 0, types.Vec2{}, false
	}
	q := tv.Cross(e1)
	v := q.Dot(ray.Dir) * invDet
	if v < 0 || u+v > 1 {
		return 0, types.Vec2{}, false
	}
	dist := q.Dot(e2) * invDet
	if dist <= 0 || dist > ray.TMax {
		return 0, types.Vec2{}, false
	}
	return dist, types.Vec2{u, v}, true
}

// Unit right triangles perpendicular to a random axis, scattered in a cube.
func randomAxisAlignedTriangles(rng *rand.Rand, count int, extent float32) []triangle {
	tris := make([]triangle, count)
	for i := range tris {
		o := types.Vec3{rng.Float32() * extent, rng.Float32() * extent, rng.Float32() * extent}
		axis := rng.Intn(3)
		u, v := (axis+1)%3, (axis+2)%3

		b, c := o, o
		b[u]++
		c[v]++
		tris[i] = triangle{o, b, c}
	}
	return tris
}

func buildSoup(t testing.TB, method BuildMethod, meshes ...[]triangle) (*Accelerator, *triangleSoup) {
	soup := &triangleSoup{}
	accel := New(soup, Options{Method: method})
	for _, tris := range meshes {
		accel.RegisterMesh(soup.add(tris), len(tris))
	}
	if err := accel.Build(); err != nil {
		t.Fatal(err)
	}
	return accel, soup
}

// Verify the structural invariants of the flattened hierarchy.
func checkHierarchy(t *testing.T, accel *Accelerator, soup *triangleSoup) {
	t.Helper()

	if len(accel.nodes) != cap(accel.nodes) {
		t.Fatalf("expected node array to be pre-sized to the node count %d; got capacity %d", len(accel.nodes), cap(accel.nodes))
	}

	seen := make([]int, accel.PrimitiveCount())
	var visit func(index int32) types.Bounds3
	visit = func(index int32) types.Bounds3 {
		node := &accel.nodes[index]
		if node.isLeaf() {
			union := types.EmptyBounds()
			for i := 0; i < int(node.nPrims); i++ {
				prim := int(accel.primIndices[node.primsOffset()+i])
				seen[prim]++
				mesh, tri := accel.registry.resolve(prim)
				primBounds := soup.TriangleBounds(mesh, tri)
				if !node.bounds.Contains(primBounds) {
					t.Fatalf("expected leaf %d bounds %v to contain primitive %d bounds %v", index, node.bounds, prim, primBounds)
				}
				union = union.Union(primBounds)
			}
			if union != node.bounds {
				t.Fatalf("expected leaf %d bounds %v to equal its primitive union %v", index, node.bounds, union)
			}
			return node.bounds
		}

		left := visit(index + 1)
		right := visit(node.rightChild())
		if left.Union(right) != node.bounds {
			t.Fatalf("expected interior node %d bounds %v to equal child union %v", index, node.bounds, left.Union(right))
		}
		return node.bounds
	}
	root := visit(0)

	all := types.EmptyBounds()
	for mesh := range soup.meshes {
		for tri := range soup.meshes[mesh] {
			all = all.Union(soup.TriangleBounds(MeshHandle(mesh), tri))
		}
	}
	if root != all {
		t.Fatalf("expected root bounds %v to equal the union of all primitives %v", root, all)
	}
	if accel.Bounds() != root {
		t.Fatalf("expected Bounds() to return root bounds")
	}

	for prim, count := range seen {
		if count != 1 {
			t.Fatalf("expected primitive %d to be referenced by exactly one leaf; referenced %d times", prim, count)
		}
	}
}

// A canonical representation of the leaf partitions, independent of node and
// primitive order.
func leafPartitions(accel *Accelerator) map[string]int {
	partitions := make(map[string]int)
	for i := range accel.nodes {
		node := &accel.nodes[i]
		if !node.isLeaf() {
			continue
		}
		prims := make([]int, node.nPrims)
		for j := range prims {
			prims[j] = int(accel.primIndices[node.primsOffset()+j])
		}
		sort.Ints(prims)
		partitions[strings.Trim(fmt.Sprint(prims), "[]")]++
	}
	return partitions
}

type bruteForceHit struct {
	hit  bool
	hits int
	dist float32
	prim int
}

func bruteForce(soup *triangleSoup, ray types.Ray) bruteForceHit {
	res := bruteForceHit{dist: ray.TMax}
	prim := 0
	for mesh := range soup.meshes {
		for _, tri := range soup.meshes[mesh] {
			if dist, _, ok := intersectTriangle(tri, &ray); ok {
				res.hits++
				if dist < res.dist {
					res.hit = true
					res.dist = dist
					res.prim = prim
				}
			}
			prim++
		}
	}
	return res
}

type countingHook struct {
	nodesVisited int64
	nodesHit     int64
	primsTested  int64
}

func (h *countingHook) NodeVisited(node int, hit bool) {
	atomic.AddInt64(&h.nodesVisited, 1)
	if hit {
		atomic.AddInt64(&h.nodesHit, 1)
	}
}

func (h *countingHook) PrimitiveTested(prim int) {
	atomic.AddInt64(&h.primsTested, 1)
}
