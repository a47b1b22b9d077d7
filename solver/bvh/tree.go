package bvh

import (
	"github.com/achilleasa/lightbake/types"
	"github.com/chewxy/math32"
)

const (
	// Leaves hold at most this many triangles.
	maxLeafTriangles = 4

	intersectEpsilon float32 = 1e-6
)

// A world space triangle.
type Triangle struct {
	V0, V1, V2 types.Vec3

	// Index of the source mesh in the scene mesh list.
	Mesh int32
}

func (t *Triangle) BBox() [2]types.Vec3 {
	return [2]types.Vec3{
		types.MinVec3(t.V0, types.MinVec3(t.V1, t.V2)),
		types.MaxVec3(t.V0, types.MaxVec3(t.V1, t.V2)),
	}
}

func (t *Triangle) Center() types.Vec3 {
	return t.V0.Add(t.V1).Add(t.V2).Mul(1.0 / 3.0)
}

// Geometric normal; follows the counter-clockwise winding.
func (t *Triangle) Normal() types.Vec3 {
	return t.V1.Sub(t.V0).Cross(t.V2.Sub(t.V0)).Normalize()
}

// A ray query result.
type Hit struct {
	// Distance along the ray.
	T float32

	// Index into Tree.Triangles.
	Triangle int

	// Barycentric coordinates of the hit point.
	U, V float32
}

// A Tree is an immutable BVH that can be queried concurrently.
type Tree struct {
	Nodes []Node

	// Triangles reordered so that every leaf references a contiguous range.
	Triangles []Triangle
}

// Build a tree over triangles.
func NewTree(triangles []Triangle) *Tree {
	tree := &Tree{
		Triangles: make([]Triangle, 0, len(triangles)),
	}
	if len(triangles) == 0 {
		return tree
	}

	workList := make([]BoundedVolume, len(triangles))
	for idx := range triangles {
		workList[idx] = &triangles[idx]
	}

	tree.Nodes = Build(workList, maxLeafTriangles, func(leaf *Node, itemList []BoundedVolume) {
		leaf.SetPrimitives(uint32(len(tree.Triangles)), uint32(len(itemList)))
		for _, item := range itemList {
			tree.Triangles = append(tree.Triangles, *item.(*Triangle))
		}
	}, SurfaceAreaHeuristic)
	return tree
}

// Find the closest intersection in (tMin, tMax).
func (tr *Tree) Intersect(origin, dir types.Vec3, tMin, tMax float32) (Hit, bool) {
	var (
		best  Hit
		found bool
	)
	tr.traverse(origin, dir, tMin, tMax, func(triIndex int, t, u, v float32) (float32, bool) {
		best = Hit{T: t, Triangle: triIndex, U: u, V: v}
		found = true
		return t, false
	})
	return best, found
}

// Returns true if anything intersects the ray in (tMin, tMax).
func (tr *Tree) Occluded(origin, dir types.Vec3, tMin, tMax float32) bool {
	var occluded bool
	tr.traverse(origin, dir, tMin, tMax, func(int, float32, float32, float32) (float32, bool) {
		occluded = true
		return 0, true
	})
	return occluded
}

// Walk the tree invoking onHit for every triangle hit closer than the
// current tMax. onHit returns the new tMax and whether to stop.
func (tr *Tree) traverse(origin, dir types.Vec3, tMin, tMax float32, onHit func(triIndex int, t, u, v float32) (float32, bool)) {
	if len(tr.Nodes) == 0 {
		return
	}

	invDir := types.Vec3{1 / dir[0], 1 / dir[1], 1 / dir[2]}

	stack := make([]int, 1, 64)
	for len(stack) > 0 {
		node := &tr.Nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		if !rayBoxOverlap(origin, invDir, node.Min, node.Max, tMin, tMax) {
			continue
		}

		if !node.IsLeaf() {
			left, right := node.Children()
			stack = append(stack, right, left)
			continue
		}

		first, count := node.Primitives()
		for idx := first; idx < first+count; idx++ {
			t, u, v, hit := intersectTriangle(&tr.Triangles[idx], origin, dir)
			if !hit || t <= tMin || t >= tMax {
				continue
			}
			var stop bool
			if tMax, stop = onHit(idx, t, u, v); stop {
				return
			}
		}
	}
}

// Slab test.
func rayBoxOverlap(origin, invDir, min, max types.Vec3, tMin, tMax float32) bool {
	for axis := 0; axis < 3; axis++ {
		t0 := (min[axis] - origin[axis]) * invDir[axis]
		t1 := (max[axis] - origin[axis]) * invDir[axis]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		// NaN from 0 * Inf on a slab boundary keeps the current interval
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMax < tMin {
			return false
		}
	}
	return true
}

// Moller-Trumbore ray triangle intersection. Both faces are hit.
func intersectTriangle(tri *Triangle, origin, dir types.Vec3) (t, u, v float32, hit bool) {
	e1 := tri.V1.Sub(tri.V0)
	e2 := tri.V2.Sub(tri.V0)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < intersectEpsilon {
		return 0, 0, 0, false
	}
	invDet := 1 / det

	s := origin.Sub(tri.V0)
	u = s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := s.Cross(e1)
	v = dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = e2.Dot(q) * invDet
	return t, u, v, true
}
