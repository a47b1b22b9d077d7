package solver

import (
	"context"

	"github.com/achilleasa/lightbake/lighting"
	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/types"
	"github.com/bits-and-blooms/bitset"
)

// Evaluate mesh visibility from every cell of a visibility task. Bit i of a
// cell is set when the center of mesh i can be seen from the cell center.
func (s *Direct) Visibility(ctx context.Context, task *scene.VisibilityTask) (*lighting.VisibilityResult, error) {
	numMeshes := uint(len(s.sc.Meshes))
	centers := make([]types.Vec3, numMeshes)
	hasGeometry := bitset.New(numMeshes)
	for idx, mesh := range s.sc.Meshes {
		sm, isStatic := mesh.(*scene.StaticMesh)
		if !isStatic || len(sm.LODs) == 0 || len(sm.LODs[0].Vertices) == 0 {
			continue
		}
		centers[idx] = sm.Bounds(0).Center()
		hasGeometry.Set(uint(idx))
	}

	res := &lighting.VisibilityResult{
		TaskGuid: task.Guid,
		Cells:    make([]lighting.VisibilityCell, 0, len(task.Cells)),
	}
	for _, cell := range task.Cells {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		origin := cell.Center()
		visible := bitset.New(numMeshes)
		for idx, ok := hasGeometry.NextSet(0); ok; idx, ok = hasGeometry.NextSet(idx + 1) {
			toMesh := centers[idx].Sub(origin)
			dist := toMesh.Len()
			var hit bool
			if dist > s.opts.RayBias {
				h, found := s.closestHit(origin, toMesh.Mul(1/dist), dist)
				hit = found && h.mesh != int32(idx)
			}
			if !hit {
				visible.Set(idx)
			}
			if s.opts.DebugVisibility {
				res.DebugRays = append(res.DebugRays, lighting.DebugVisibilityRay{
					Start: origin.Vec4(1),
					End:   centers[idx].Vec4(1),
					Hit:   hit,
				})
			}
		}

		res.Cells = append(res.Cells, lighting.VisibilityCell{
			Bounds: cell,
			Data:   lighting.PackBits(visible, numMeshes),
		})
	}
	return res, nil
}

type bvhHit struct {
	t    float32
	mesh int32
}

func (s *Direct) closestHit(origin, dir types.Vec3, maxDist float32) (bvhHit, bool) {
	hit, found := s.tree.Intersect(origin, dir, s.opts.RayBias, maxDist)
	if !found {
		return bvhHit{}, false
	}
	return bvhHit{t: hit.T, mesh: s.tree.Triangles[hit.Triangle].Mesh}, true
}
