package bvh

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/achilleasa/polaris-accel/types"
)

const (
	// Ranges with fewer primitives are split with the exhaustive SAH search.
	sahApplyCount = 32

	// Number of buckets used by the binned SAH split.
	bucketCount = 16

	// Cost of a box test relative to a primitive test.
	traversalCost float32 = 0.25

	// Below this centroid extent a range cannot be split meaningfully.
	degenerateExtent float32 = 1e-5

	// Leaf primitive counts are stored in 16 bits.
	maxPrimsInLeaf = math.MaxUint16

	primInfoChunkSize = 1024
)

// Per-primitive build record.
type primInfo struct {
	// Global primitive index; during the upper HLBVH build this is the
	// index of a treelet root node instead.
	primIndex int32
	bounds    types.Bounds3
	centroid  types.Vec3
}

func newPrimInfo(index int32, bounds types.Bounds3) primInfo {
	return primInfo{
		primIndex: index,
		bounds:    bounds,
		centroid:  bounds.Centroid(),
	}
}

type nodeKind uint8

const (
	leafNode nodeKind = iota
	interiorNode
)

// A node of the transient build tree. Children are indices into the
// builder's node arena.
type buildNode struct {
	kind   nodeKind
	bounds types.Bounds3

	// Leaf payload.
	primsOffset int
	nPrims      int

	// Interior payload.
	axis     types.Axis
	children [2]int32
}

type bucket struct {
	count  int
	bounds types.Bounds3
}

// The builder owns the transient tree. Nodes live in an arena and the
// whole tree is released together with the builder.
type builder struct {
	primInfos []primInfo

	nodes []buildNode

	// Node count shared by all goroutines taking part in the build. It can
	// be lower than len(nodes) as the linear builder reserves node slots
	// per treelet up front.
	totalNodes atomic.Int64

	// Leaf primitives in final order; ranges are reserved with an atomic
	// add so concurrent treelet builds never overlap.
	orderedPrims  []int32
	orderedOffset atomic.Int64

	costEvaluations int
}

func newBuilder(primInfos []primInfo) *builder {
	return &builder{
		primInfos:    primInfos,
		orderedPrims: make([]int32, len(primInfos)),
	}
}

// Build the tree with the binned SAH strategy and return the root index.
func (b *builder) sahBuild() int32 {
	b.nodes = make([]buildNode, 0, 2*len(b.primInfos)-1)
	s := &sahSplitter{b: b}
	return s.recursiveBuild(b.primInfos)
}

func (b *builder) appendNode(node buildNode) int32 {
	b.nodes = append(b.nodes, node)
	b.totalNodes.Add(1)
	return int32(len(b.nodes) - 1)
}

func (b *builder) appendInterior(axis types.Axis, left, right int32) int32 {
	return b.appendNode(buildNode{
		kind:     interiorNode,
		bounds:   b.nodes[left].bounds.Union(b.nodes[right].bounds),
		axis:     axis,
		children: [2]int32{left, right},
	})
}

// Reserve a slice of the ordered primitive array.
func (b *builder) reservePrims(count int) int {
	return int(b.orderedOffset.Add(int64(count)) - int64(count))
}

// The sahSplitter recursively partitions a range of build records. When
// upper is set the records describe already built treelets: a single record
// maps to its existing root node and leaves with several records are never
// created.
type sahSplitter struct {
	b     *builder
	upper bool
}

// The cost of not splitting a range of n records.
func (s *sahSplitter) leafCost(n int) float32 {
	if s.upper {
		return float32(math.Inf(1))
	}
	return float32(n)
}

func (s *sahSplitter) splitCost(leftCount int, leftBounds types.Bounds3, rightCount int, rightBounds types.Bounds3, invTotalArea float32) float32 {
	s.b.costEvaluations++
	return traversalCost +
		(float32(leftCount)*leftBounds.Area()+float32(rightCount)*rightBounds.Area())*invTotalArea
}

func (s *sahSplitter) recursiveBuild(infos []primInfo) int32 {
	n := len(infos)
	if n == 1 {
		return s.leaf(infos)
	}
	if n < sahApplyCount {
		return s.exhaustiveBuild(infos)
	}

	centroidBounds := types.EmptyBounds()
	for i := range infos {
		centroidBounds = centroidBounds.UnionPoint(infos[i].centroid)
	}
	dim := centroidBounds.MaxExtent()
	minC := centroidBounds.Min[dim]
	extent := centroidBounds.Max[dim] - minC
	if extent < degenerateExtent {
		return s.leaf(infos)
	}

	bucketOf := func(info *primInfo) int {
		b := int(bucketCount * (info.centroid[dim] - minC) / extent)
		if b >= bucketCount {
			b = bucketCount - 1
		}
		return b
	}

	var buckets [bucketCount]bucket
	for i := range buckets {
		buckets[i].bounds = types.EmptyBounds()
	}
	for i := range infos {
		b := bucketOf(&infos[i])
		buckets[b].count++
		buckets[b].bounds = buckets[b].bounds.Union(infos[i].bounds)
	}

	// rightBounds[i] covers buckets (i, bucketCount).
	var rightBounds [bucketCount]types.Bounds3
	rightBounds[bucketCount-1] = types.EmptyBounds()
	for i := bucketCount - 2; i >= 0; i-- {
		rightBounds[i] = rightBounds[i+1].Union(buckets[i+1].bounds)
	}
	totalBounds := rightBounds[0].Union(buckets[0].bounds)
	invTotalArea := 1 / totalBounds.Area()

	splitBucket := -1
	minCost := s.leafCost(n)
	leftCount := 0
	leftBounds := types.EmptyBounds()
	for i := 0; i < bucketCount-1; i++ {
		leftCount += buckets[i].count
		leftBounds = leftBounds.Union(buckets[i].bounds)
		cost := s.splitCost(leftCount, leftBounds, n-leftCount, rightBounds[i], invTotalArea)
		if cost < minCost {
			splitBucket = i
			minCost = cost
		}
	}

	// Pathological bucket distributions get a second chance with the
	// exhaustive search.
	if splitBucket == -1 {
		return s.exhaustiveBuild(infos)
	}

	mid := partition(infos, func(info *primInfo) bool {
		return bucketOf(info) <= splitBucket
	})

	left := s.recursiveBuild(infos[:mid])
	right := s.recursiveBuild(infos[mid:])
	return s.b.appendInterior(dim, left, right)
}

// Evaluate every split position along every axis.
func (s *sahSplitter) exhaustiveBuild(infos []primInfo) int32 {
	n := len(infos)
	if n == 1 {
		return s.leaf(infos)
	}

	// rightBounds[i] covers infos (i, n).
	rightBounds := make([]types.Bounds3, n)
	var invTotalArea float32

	splitAxis := -1
	splitPrim := 0
	minCost := s.leafCost(n)

	for axis := types.XAxis; axis <= types.ZAxis; axis++ {
		sortByCentroid(infos, axis)

		rightBounds[n-1] = types.EmptyBounds()
		for i := n - 2; i >= 0; i-- {
			rightBounds[i] = rightBounds[i+1].Union(infos[i+1].bounds)
		}
		if axis == types.XAxis {
			invTotalArea = 1 / infos[0].bounds.Union(rightBounds[0]).Area()
		}

		leftBounds := types.EmptyBounds()
		for i := 0; i < n-1; i++ {
			leftBounds = leftBounds.Union(infos[i].bounds)
			cost := s.splitCost(i+1, leftBounds, n-i-1, rightBounds[i], invTotalArea)
			if cost < minCost {
				splitAxis = int(axis)
				splitPrim = i
				minCost = cost
			}
		}
	}

	if splitAxis == -1 {
		return s.leaf(infos)
	}

	sortByCentroid(infos, types.Axis(splitAxis))
	mid := splitPrim + 1

	left := s.exhaustiveBuild(infos[:mid])
	right := s.exhaustiveBuild(infos[mid:])
	return s.b.appendInterior(types.Axis(splitAxis), left, right)
}

// Terminate the recursion for a range that could not (or should not) be
// split by the heuristic.
func (s *sahSplitter) leaf(infos []primInfo) int32 {
	n := len(infos)
	if s.upper {
		if n == 1 {
			return infos[0].primIndex
		}
		return s.midpointSplit(infos)
	}
	if n > maxPrimsInLeaf {
		return s.midpointSplit(infos)
	}
	return s.b.createLeaf(infos)
}

// Split a range in two halves along the axis of largest extent.
func (s *sahSplitter) midpointSplit(infos []primInfo) int32 {
	bounds := types.EmptyBounds()
	for i := range infos {
		bounds = bounds.Union(infos[i].bounds)
	}
	axis := bounds.MaxExtent()
	sortByCentroid(infos, axis)

	mid := len(infos) / 2
	left := s.leaf(infos[:mid])
	right := s.leaf(infos[mid:])
	return s.b.appendInterior(axis, left, right)
}

func (b *builder) createLeaf(infos []primInfo) int32 {
	offset := b.reservePrims(len(infos))
	bounds := types.EmptyBounds()
	for i := range infos {
		bounds = bounds.Union(infos[i].bounds)
		b.orderedPrims[offset+i] = infos[i].primIndex
	}

	return b.appendNode(buildNode{
		kind:        leafNode,
		bounds:      bounds,
		primsOffset: offset,
		nPrims:      len(infos),
	})
}

func sortByCentroid(infos []primInfo, axis types.Axis) {
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].centroid[axis] < infos[j].centroid[axis]
	})
}

// Reorder infos so that all entries matching pred come first and return the
// number of matching entries. Relative order is not preserved.
func partition(infos []primInfo, pred func(*primInfo) bool) int {
	first := 0
	for first < len(infos) && pred(&infos[first]) {
		first++
	}
	for i := first + 1; i < len(infos); i++ {
		if pred(&infos[i]) {
			infos[i], infos[first] = infos[first], infos[i]
			first++
		}
	}
	return first
}
