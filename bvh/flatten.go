package bvh

import "github.com/achilleasa/polaris-accel/types"

// A node of the flattened hierarchy. Nodes are stored in depth-first
// pre-order so the left child of an interior node is always the next node.
//
// The node is a leaf if nPrims > 0; offset then points to its first entry in
// the primitive index array. Otherwise offset is the index of the right
// child.
type linearNode struct {
	bounds types.Bounds3
	offset int32
	nPrims uint16
	axis   types.Axis
}

func (n *linearNode) isLeaf() bool {
	return n.nPrims != 0
}

func (n *linearNode) primsOffset() int {
	return int(n.offset)
}

func (n *linearNode) rightChild() int32 {
	return n.offset
}

// Convert the transient tree rooted at root into its linear layout.
func (b *builder) flatten(root int32) []linearNode {
	nodes := make([]linearNode, 0, b.totalNodes.Load())

	var visit func(index int32)
	visit = func(index int32) {
		node := &b.nodes[index]
		if node.kind == leafNode {
			nodes = append(nodes, linearNode{
				bounds: node.bounds,
				offset: int32(node.primsOffset),
				nPrims: uint16(node.nPrims),
			})
			return
		}

		self := len(nodes)
		nodes = append(nodes, linearNode{
			bounds: node.bounds,
			axis:   node.axis,
		})
		visit(node.children[0])
		nodes[self].offset = int32(len(nodes))
		visit(node.children[1])
	}
	visit(root)

	return nodes
}
