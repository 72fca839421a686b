package bvh

import (
	"sort"

	"github.com/achilleasa/polaris-accel/parallel"
	"github.com/achilleasa/polaris-accel/types"
)

const (
	mortonBits  = 10
	mortonScale = 1 << mortonBits

	// Treelets group primitives that share the top 12 bits of their
	// 30-bit Morton code.
	treeletMask uint32 = 0x3ffc0000

	// The highest code bit that is not part of the treelet prefix.
	firstBitIndex = 29 - 12

	// Treelet ranges with this many primitives or fewer become leaves.
	maxPrimsInTreeletLeaf = 4

	radixBitsPerPass = 6
	radixPasses      = 30 / radixBitsPerPass
	radixBuckets     = 1 << radixBitsPerPass

	mortonChunkSize = 512
)

type mortonPrimitive struct {
	// Index into the builder's primInfos.
	index int32
	code  uint32
}

// A contiguous run of sorted Morton primitives built as one subtree.
type treelet struct {
	start, count int

	// First arena slot reserved for the treelet's nodes.
	nodeBase int
}

// Build the tree with the hierarchical linear strategy and return the root
// index.
func (b *builder) hlbvhBuild() int32 {
	n := len(b.primInfos)

	centroidBounds := types.EmptyBounds()
	for i := range b.primInfos {
		centroidBounds = centroidBounds.UnionPoint(b.primInfos[i].centroid)
	}

	mortonPrims := make([]mortonPrimitive, n)
	parallel.For(n, mortonChunkSize, func(i int) {
		offset := centroidBounds.Offset(b.primInfos[i].centroid).Mul(mortonScale)
		mortonPrims[i] = mortonPrimitive{
			index: int32(i),
			code:  encodeMorton3(offset),
		}
	})

	radixSort(mortonPrims)

	// A treelet with n primitives needs at most 2n-1 nodes; reserving
	// that many arena slots per treelet lets treelets be built
	// concurrently without sharing an allocator.
	var treelets []treelet
	reserved := 0
	for start, end := 0, 1; end <= n; end++ {
		if end == n || mortonPrims[start].code&treeletMask != mortonPrims[end].code&treeletMask {
			count := end - start
			treelets = append(treelets, treelet{start: start, count: count, nodeBase: reserved})
			reserved += 2*count - 1
			start = end
		}
	}
	b.nodes = make([]buildNode, reserved, reserved+len(treelets)-1)

	roots := make([]primInfo, len(treelets))
	parallel.For(len(treelets), 1, func(i int) {
		tr := treelets[i]
		next := tr.nodeBase
		root := b.emitTreelet(mortonPrims[tr.start:tr.start+tr.count], firstBitIndex, &next)
		roots[i] = newPrimInfo(root, b.nodes[root].bounds)
	})

	s := &sahSplitter{b: b, upper: true}
	return s.recursiveBuild(roots)
}

// Recursively split a Morton-sorted range on the highest differing code bit.
// New nodes are written to the arena slot pointed to by next.
func (b *builder) emitTreelet(prims []mortonPrimitive, bitIndex int, next *int) int32 {
	n := len(prims)
	if bitIndex < 0 || n <= maxPrimsInTreeletLeaf {
		if n > maxPrimsInLeaf {
			return b.emitTreeletInterior(prims, n/2, bitIndex, next)
		}
		return b.emitTreeletLeaf(prims, next)
	}

	// All codes in the range share the bits above bitIndex, so the bit is
	// 0 for a prefix of the range and 1 for the rest.
	mask := uint32(1) << uint(bitIndex)
	if prims[0].code&mask == prims[n-1].code&mask {
		return b.emitTreelet(prims, bitIndex-1, next)
	}
	split := sort.Search(n, func(i int) bool {
		return prims[i].code&mask != 0
	})
	return b.emitTreeletInterior(prims, split, bitIndex, next)
}

func (b *builder) emitTreeletInterior(prims []mortonPrimitive, split, bitIndex int, next *int) int32 {
	b.totalNodes.Add(1)
	index := *next
	*next++

	left := b.emitTreelet(prims[:split], bitIndex-1, next)
	right := b.emitTreelet(prims[split:], bitIndex-1, next)

	axis := types.XAxis
	if bitIndex > 0 {
		axis = types.Axis(bitIndex % 3)
	}
	b.nodes[index] = buildNode{
		kind:     interiorNode,
		bounds:   b.nodes[left].bounds.Union(b.nodes[right].bounds),
		axis:     axis,
		children: [2]int32{left, right},
	}
	return int32(index)
}

func (b *builder) emitTreeletLeaf(prims []mortonPrimitive, next *int) int32 {
	b.totalNodes.Add(1)
	index := *next
	*next++

	offset := b.reservePrims(len(prims))
	bounds := types.EmptyBounds()
	for i, mp := range prims {
		info := &b.primInfos[mp.index]
		bounds = bounds.Union(info.bounds)
		b.orderedPrims[offset+i] = info.primIndex
	}

	b.nodes[index] = buildNode{
		kind:        leafNode,
		bounds:      bounds,
		primsOffset: offset,
		nPrims:      len(prims),
	}
	return int32(index)
}

// Spread the low 10 bits of x so that there are two zero bits between each
// pair of consecutive bits.
func leftShift3(x uint32) uint32 {
	if x == mortonScale {
		x--
	}
	x = (x | (x << 16)) & 0x030000ff
	x = (x | (x << 8)) & 0x0300f00f
	x = (x | (x << 4)) & 0x030c30c3
	x = (x | (x << 2)) & 0x09249249
	return x
}

// Interleave a point with components in [0, 1024] into a 30-bit Morton code.
// Bit i of the code belongs to axis i%3.
func encodeMorton3(v types.Vec3) uint32 {
	return leftShift3(quantize(v[2]))<<2 | leftShift3(quantize(v[1]))<<1 | leftShift3(quantize(v[0]))
}

func quantize(f float32) uint32 {
	if f <= 0 {
		return 0
	}
	if f >= mortonScale {
		return mortonScale
	}
	return uint32(f)
}

// Stable LSD radix sort on the 30-bit codes.
func radixSort(prims []mortonPrimitive) {
	tmp := make([]mortonPrimitive, len(prims))
	in, out := prims, tmp

	for pass := 0; pass < radixPasses; pass++ {
		shift := uint(pass * radixBitsPerPass)

		var bucketStart [radixBuckets]int
		for _, mp := range in {
			bucketStart[(mp.code>>shift)&(radixBuckets-1)]++
		}
		offset := 0
		for i, count := range bucketStart {
			bucketStart[i] = offset
			offset += count
		}

		for _, mp := range in {
			bucket := (mp.code >> shift) & (radixBuckets - 1)
			out[bucketStart[bucket]] = mp
			bucketStart[bucket]++
		}
		in, out = out, in
	}

	if radixPasses%2 == 1 {
		copy(prims, in)
	}
}
