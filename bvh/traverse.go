package bvh

import "github.com/achilleasa/polaris-accel/types"

// Capacity of the traversal stack. Hierarchies deeper than this are not
// supported.
const maxTraversalDepth = 64

// Intersect reports whether the ray hits any triangle in (0, ray.TMax]. The
// ray is not modified.
func (a *Accelerator) Intersect(ray *types.Ray) bool {
	invDir, dirIsNeg := ray.SlabParams()

	var toVisit [maxTraversalDepth]int32
	toVisitOffset := 1

	for toVisitOffset > 0 {
		toVisitOffset--
		current := toVisit[toVisitOffset]
		node := &a.nodes[current]

		hit := node.bounds.IntersectP(ray, invDir, dirIsNeg)
		if a.hook != nil {
			a.hook.NodeVisited(int(current), hit)
		}
		if !hit {
			continue
		}

		if node.isLeaf() {
			for i := 0; i < int(node.nPrims); i++ {
				prim := int(a.primIndices[node.primsOffset()+i])
				if a.hook != nil {
					a.hook.PrimitiveTested(prim)
				}
				mesh, tri := a.registry.resolve(prim)
				if a.geom.IntersectTriangle(mesh, tri, ray) {
					return true
				}
			}
			continue
		}

		toVisitOffset = pushChildren(&toVisit, toVisitOffset, current, node, dirIsNeg)
	}

	return false
}

// IntersectHit finds the closest triangle hit in (0, ray.TMax]. On a hit
// ray.TMax is set to the hit distance and isect is filled in.
func (a *Accelerator) IntersectHit(ray *types.Ray, isect *Interaction) bool {
	invDir, dirIsNeg := ray.SlabParams()

	var (
		toVisit       [maxTraversalDepth]int32
		toVisitOffset = 1

		hit      bool
		hitMesh  MeshHandle
		hitTri   int
		hitCoord types.Vec2
	)

	for toVisitOffset > 0 {
		toVisitOffset--
		current := toVisit[toVisitOffset]
		node := &a.nodes[current]

		boxHit := node.bounds.IntersectP(ray, invDir, dirIsNeg)
		if a.hook != nil {
			a.hook.NodeVisited(int(current), boxHit)
		}
		if !boxHit {
			continue
		}

		if node.isLeaf() {
			for i := 0; i < int(node.nPrims); i++ {
				prim := int(a.primIndices[node.primsOffset()+i])
				if a.hook != nil {
					a.hook.PrimitiveTested(prim)
				}
				mesh, tri := a.registry.resolve(prim)
				if bary, ok := a.geom.IntersectTriangleHit(mesh, tri, ray); ok {
					hit = true
					hitMesh, hitTri, hitCoord = mesh, tri, bary
				}
			}
			continue
		}

		toVisitOffset = pushChildren(&toVisit, toVisitOffset, current, node, dirIsNeg)
	}

	// Shading data is only computed for the final closest hit.
	if hit {
		isect.Mesh = hitMesh
		isect.Triangle = hitTri
		a.geom.ComputeInteraction(hitMesh, hitTri, hitCoord, isect)
	}
	return hit
}

// Push both children of an interior node so that the child closer to the ray
// origin along the split axis is popped first.
func pushChildren(stack *[maxTraversalDepth]int32, offset int, current int32, node *linearNode, dirIsNeg [3]int) int {
	left, right := current+1, node.rightChild()
	if dirIsNeg[node.axis] == 1 {
		stack[offset] = left
		stack[offset+1] = right
	} else {
		stack[offset] = right
		stack[offset+1] = left
	}
	return offset + 2
}
