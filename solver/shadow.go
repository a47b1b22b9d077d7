package solver

import (
	"context"
	"fmt"

	"github.com/achilleasa/lightbake/lighting"
	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/types"
	"github.com/chewxy/math32"
)

// Render a depth map of the shadow casting geometry as seen from a dominant
// light. Distances are stored relative to the light space depth range.
func (s *Direct) DominantShadow(ctx context.Context, light *scene.Light) (*lighting.DominantShadowResult, error) {
	if s.bounds.IsEmpty() {
		return nil, ErrNoGeometry
	}

	var dir types.Vec3
	switch light.Type {
	case scene.PointLight:
		dir = s.bounds.Center().Sub(light.Position.Vec3()).Normalize()
	default:
		dir = light.Direction.Vec3().Normalize()
	}
	if dir.Len() == 0 {
		return nil, fmt.Errorf("solver: light %s has no direction", light.Guid)
	}
	t, b := tangentFrame(dir)

	// Project the scene bounds into light space.
	lsMin := types.XYZ(math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32)
	lsMax := lsMin.Mul(-1)
	for corner := 0; corner < 8; corner++ {
		p := types.XYZ(
			pick(corner&1 != 0, s.bounds.Max[0], s.bounds.Min[0]),
			pick(corner&2 != 0, s.bounds.Max[1], s.bounds.Min[1]),
			pick(corner&4 != 0, s.bounds.Max[2], s.bounds.Min[2]),
		)
		ls := toTangent(p, t, b, dir)
		lsMin = types.MinVec3(lsMin, ls)
		lsMax = types.MaxVec3(lsMax, ls)
	}

	consts := &s.sc.Constants
	span := lsMax.Sub(lsMin)
	texelSize := consts.DominantShadowTexelSize
	if texelSize <= 0 {
		texelSize = math32.Max(span[0], span[1]) / 64
	}
	maxResolution := max(1, int(consts.DominantShadowMaxResolution))
	sizeX := min(maxResolution, max(1, int(math32.Ceil(span[0]/texelSize))))
	sizeY := min(maxResolution, max(1, int(math32.Ceil(span[1]/texelSize))))

	res := &lighting.DominantShadowResult{
		Info: lighting.DominantLightShadowInfo{
			LightGuid: light.Guid,
			WorldToLight: [16]float32{
				t[0], t[1], t[2], 0,
				b[0], b[1], b[2], 0,
				dir[0], dir[1], dir[2], 0,
				0, 0, 0, 1,
			},
			LightSpaceBoundsMin: lsMin.Vec4(0),
			LightSpaceBoundsMax: lsMax.Vec4(0),
			ShadowMapSizeX:      uint32(sizeX),
			ShadowMapSizeY:      uint32(sizeY),
		},
		Samples: make([]lighting.DominantLightShadowSample, sizeX*sizeY),
	}

	bias := s.opts.RayBias
	depthRange := span[2] + 2*bias
	stepX, stepY := span[0]/float32(sizeX), span[1]/float32(sizeY)
	for y := 0; y < sizeY; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < sizeX; x++ {
			lx := lsMin[0] + (float32(x)+0.5)*stepX
			ly := lsMin[1] + (float32(y)+0.5)*stepY
			origin := t.Mul(lx).Add(b.Mul(ly)).Add(dir.Mul(lsMin[2] - bias))

			hit, found := s.tree.Intersect(origin, dir, 0, depthRange)
			if !found {
				continue
			}
			res.Samples[y*sizeX+x] = lighting.DominantLightShadowSample{
				Distance: uint16(math32.Round(math32.Min(1, hit.T/depthRange) * 65535)),
				Mapped:   true,
			}
		}
	}
	return res, nil
}

func pick(cond bool, a, b float32) float32 {
	if cond {
		return a
	}
	return b
}
