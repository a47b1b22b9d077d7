package bvh

import "github.com/achilleasa/lightbake/types"

// A Node is either an inner node pointing at two children or a leaf
// pointing at a contiguous primitive range. Leaves store the negated index
// of their first primitive in lData; inner nodes always store a positive
// left child index since children are appended after their parent.
type Node struct {
	Min   types.Vec3
	lData int32

	Max   types.Vec3
	rData int32
}

// Set left and right child node indices.
func (n *Node) SetChildNodes(left, right uint32) {
	n.lData = int32(left)
	n.rData = int32(right)
}

// Set primitive index and count.
func (n *Node) SetPrimitives(firstPrimIndex, count uint32) {
	n.lData = -int32(firstPrimIndex)
	n.rData = int32(count)
}

func (n *Node) IsLeaf() bool {
	return n.lData <= 0
}

// Get the child node indices of an inner node.
func (n *Node) Children() (left, right int) {
	return int(n.lData), int(n.rData)
}

// Get the primitive range of a leaf.
func (n *Node) Primitives() (first, count int) {
	return int(-n.lData), int(n.rData)
}
