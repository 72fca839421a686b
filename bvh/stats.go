package bvh

import "time"

// BuildStats summarises a built hierarchy.
type BuildStats struct {
	Method     BuildMethod
	Primitives int

	Nodes        int
	Leaves       int
	MaxDepth     int
	MaxLeafPrims int

	// Expected cost of a random ray query relative to a single primitive
	// test, estimated with the surface area heuristic.
	SAHCost float32

	// The number of split candidates evaluated by the SAH builder.
	CostEvaluations int

	BuildTime time.Duration
}

func collectStats(nodes []linearNode) BuildStats {
	stats := BuildStats{Nodes: len(nodes)}

	rootArea := nodes[0].bounds.Area()
	var cost float32

	type entry struct {
		index int32
		depth int
	}
	stack := []entry{{0, 0}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &nodes[e.index]

		if e.depth > stats.MaxDepth {
			stats.MaxDepth = e.depth
		}

		if node.isLeaf() {
			stats.Leaves++
			if int(node.nPrims) > stats.MaxLeafPrims {
				stats.MaxLeafPrims = int(node.nPrims)
			}
			cost += float32(node.nPrims) * node.bounds.Area()
			continue
		}

		cost += traversalCost * node.bounds.Area()
		stack = append(stack, entry{e.index + 1, e.depth + 1}, entry{node.rightChild(), e.depth + 1})
	}

	if rootArea > 0 {
		stats.SAHCost = cost / rootArea
	}
	return stats
}
