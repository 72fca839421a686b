// Package bvh implements a bounding volume hierarchy over triangle meshes.
//
// Meshes are registered by handle, the hierarchy is built once with either a
// binned surface area heuristic builder or a hierarchical linear (Morton code)
// builder, and is then flattened into a depth-first node array. After Build
// returns, Intersect and IntersectHit may be called concurrently.
package bvh

import (
	"fmt"
	"strings"
	"time"

	"github.com/achilleasa/polaris-accel/log"
	"github.com/achilleasa/polaris-accel/parallel"
	"github.com/achilleasa/polaris-accel/types"
)

// A stable handle to a mesh owned by the scene.
type MeshHandle uint32

// The hierarchy construction strategy.
type BuildMethod uint8

const (
	// Recursive binned SAH split with an exhaustive SAH search for small
	// ranges.
	BuildSAH BuildMethod = iota

	// Morton code clustering into treelets that are built in parallel and
	// merged with the SAH builder.
	BuildHLBVH
)

func (m BuildMethod) String() string {
	switch m {
	case BuildSAH:
		return "sah"
	case BuildHLBVH:
		return "hlbvh"
	default:
		return fmt.Sprintf("BuildMethod(%d)", uint8(m))
	}
}

// Parse a build method name (case insensitive).
func ParseBuildMethod(name string) (BuildMethod, error) {
	switch strings.ToLower(name) {
	case "sah":
		return BuildSAH, nil
	case "hlbvh":
		return BuildHLBVH, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBuildMethod, name)
	}
}

// Options controls hierarchy construction.
type Options struct {
	Method BuildMethod
}

// Geometry is implemented by the scene that owns the meshes. All methods
// must be safe for concurrent use.
type Geometry interface {
	// Bounds of a single triangle.
	TriangleBounds(mesh MeshHandle, tri int) types.Bounds3

	// Occlusion test; must not modify ray.
	IntersectTriangle(mesh MeshHandle, tri int, ray *types.Ray) bool

	// Closest hit test. On a hit ray.TMax is set to the hit distance and the
	// barycentric coordinates of the hit are returned.
	IntersectTriangleHit(mesh MeshHandle, tri int, ray *types.Ray) (types.Vec2, bool)

	// Fill isect with shading data for a previously found hit.
	ComputeInteraction(mesh MeshHandle, tri int, bary types.Vec2, isect *Interaction)
}

// Interaction describes the closest hit along a ray.
type Interaction struct {
	// Hit position.
	P types.Vec3

	// Geometric and shading normals.
	N  types.Vec3
	Ns types.Vec3

	// Texture coordinates, or barycentrics if the mesh has none.
	UV types.Vec2

	Mesh     MeshHandle
	Triangle int
}

// TraversalHook receives traversal events. It is meant for instrumentation
// and tests; it is invoked from every goroutine that calls Intersect or
// IntersectHit.
type TraversalHook interface {
	NodeVisited(node int, hit bool)
	PrimitiveTested(prim int)
}

// Accelerator answers ray intersection queries against registered meshes.
type Accelerator struct {
	logger   log.Logger
	geom     Geometry
	opts     Options
	registry registry

	// The flattened hierarchy; nodes[0] is the root.
	nodes []linearNode

	// Global primitive indices in leaf order.
	primIndices []int32

	hook  TraversalHook
	stats BuildStats
}

// Create an accelerator that pulls triangle data from geom.
func New(geom Geometry, opts Options) *Accelerator {
	return &Accelerator{
		logger:   log.New("bvh"),
		geom:     geom,
		opts:     opts,
		registry: newRegistry(),
	}
}

// Register a mesh. Its triangles occupy the next triangleCount global
// primitive indices. Meshes cannot be registered once Build has been called.
func (a *Accelerator) RegisterMesh(mesh MeshHandle, triangleCount int) {
	a.registry.register(mesh, triangleCount)
}

// Total number of registered triangles.
func (a *Accelerator) PrimitiveCount() int {
	return a.registry.primitiveCount()
}

// Install a traversal hook. Pass nil to remove it. Must not be called while
// intersection queries are running.
func (a *Accelerator) SetTraversalHook(hook TraversalHook) {
	a.hook = hook
}

// Bounds of the whole hierarchy. Only valid after Build.
func (a *Accelerator) Bounds() types.Bounds3 {
	return a.nodes[0].bounds
}

// Statistics collected by the last Build.
func (a *Accelerator) Stats() BuildStats {
	return a.stats
}

// Build the hierarchy over all registered triangles.
func (a *Accelerator) Build() error {
	count := a.registry.primitiveCount()
	if count == 0 {
		return ErrNoPrimitives
	}

	start := time.Now()
	primInfos := make([]primInfo, count)
	parallel.For(count, primInfoChunkSize, func(i int) {
		mesh, tri := a.registry.resolve(i)
		primInfos[i] = newPrimInfo(int32(i), a.geom.TriangleBounds(mesh, tri))
	})

	b := newBuilder(primInfos)
	var root int32
	switch a.opts.Method {
	case BuildHLBVH:
		root = b.hlbvhBuild()
	default:
		root = b.sahBuild()
	}

	a.nodes = b.flatten(root)
	a.primIndices = b.orderedPrims
	a.stats = collectStats(a.nodes)
	a.stats.Method = a.opts.Method
	a.stats.Primitives = count
	a.stats.CostEvaluations = b.costEvaluations
	a.stats.BuildTime = time.Since(start)

	a.logger.Debugf(
		"%s build time: %d ms, primitives: %d, nodes: %d, leafs: %d, maxDepth: %d",
		a.opts.Method, a.stats.BuildTime.Nanoseconds()/1e6,
		count, a.stats.Nodes, a.stats.Leaves, a.stats.MaxDepth,
	)
	return nil
}
