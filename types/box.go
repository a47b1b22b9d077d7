package types

import "github.com/chewxy/math32"

// An axis aligned bounding box. The w component of both corners is unused
// and kept for wire compatibility.
type Box struct {
	Min Vec4
	Max Vec4
}

// Create an empty box that can be grown with Extend.
func EmptyBox() Box {
	return Box{
		Min: Vec4{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32, 0},
		Max: Vec4{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32, 0},
	}
}

// Create a box from two corners.
func BoxFromCorners(min, max Vec3) Box {
	return Box{Min: min.Vec4(0), Max: max.Vec4(0)}
}

// Grow box to include point.
func (b Box) Extend(p Vec3) Box {
	b.Min = MinVec3(b.Min.Vec3(), p).Vec4(0)
	b.Max = MaxVec3(b.Max.Vec3(), p).Vec4(0)
	return b
}

// Returns true if the box contains no points.
func (b Box) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Get box center.
func (b Box) Center() Vec3 {
	return b.Min.Vec3().Add(b.Max.Vec3()).Mul(0.5)
}

// Get box half extent.
func (b Box) Extent() Vec3 {
	return b.Max.Vec3().Sub(b.Min.Vec3()).Mul(0.5)
}

// Returns true if p lies inside or on the box.
func (b Box) Contains(p Vec3) bool {
	for axis := 0; axis < 3; axis++ {
		if p[axis] < b.Min[axis] || p[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}
