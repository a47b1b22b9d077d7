package solver

import (
	"github.com/achilleasa/lightbake/lighting"
	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/types"
)

// Relevant lights of a mapping split by how their contribution is stored.
type lightSets struct {
	// Baked into the light map.
	baked []*scene.Light
	sky   []*scene.Light

	// Stored as separate shadow maps so the editor can apply them at runtime.
	shadowed []*scene.Light
	sdf      []*scene.Light
}

func classifyLights(lights []*scene.Light) lightSets {
	var sets lightSets
	for _, light := range lights {
		switch {
		case light.Type == scene.SkyLight:
			sets.sky = append(sets.sky, light)
		case light.UsesDistanceFieldShadows():
			sets.sdf = append(sets.sdf, light)
		case light.IsDominant():
			sets.shadowed = append(sets.shadowed, light)
		default:
			sets.baked = append(sets.baked, light)
		}
	}
	return sets
}

// Guids of the lights baked into the light map.
func (ls *lightSets) bakedGuids() []types.Guid {
	guids := make([]types.Guid, 0, len(ls.baked)+len(ls.sky))
	for _, light := range ls.baked {
		guids = append(guids, light.Guid)
	}
	for _, light := range ls.sky {
		guids = append(guids, light.Guid)
	}
	return guids
}

type shadeResult struct {
	sample lighting.LightSample

	// Per light visibility for ls.shadowed and ls.sdf.
	shadowVisibility []float32
	sdfLit           []bool

	// Fraction of unoccluded sky directions; 1 when there are no sky lights.
	skyVisibility float32
}

// Compute the lighting at a surface point. Rays are recorded to dbg when it
// is enabled.
func (s *Direct) shade(p, n types.Vec3, sets *lightSets, dbg *lighting.DebugRecorder) shadeResult {
	res := shadeResult{
		sample:           lighting.LightSample{Mapped: true},
		shadowVisibility: make([]float32, len(sets.shadowed)),
		sdfLit:           make([]bool, len(sets.sdf)),
		skyVisibility:    1,
	}
	t, b := tangentFrame(n)

	for _, light := range sets.baked {
		in, reaches := evalLight(light, p, n)
		if !reaches {
			continue
		}
		if light.CastsStaticShadows() && s.tracedOcclusion(p, n, in, dbg) {
			continue
		}
		res.sample.AddIncident(in.radiance, toTangent(in.dir, t, b, n))
	}

	for idx, light := range sets.shadowed {
		if in, reaches := evalLight(light, p, n); reaches && !s.tracedOcclusion(p, n, in, dbg) {
			res.shadowVisibility[idx] = 1
		}
	}
	for idx, light := range sets.sdf {
		if in, reaches := evalLight(light, p, n); reaches && !s.tracedOcclusion(p, n, in, dbg) {
			res.sdfLit[idx] = true
		}
	}

	if len(sets.sky) != 0 {
		res.skyVisibility = s.skyVisibility(p, n, t, b)
		for _, light := range sets.sky {
			res.sample.AddIncident(light.Intensity().Mul(res.skyVisibility), types.XYZ(0, 0, 1))
		}
	}
	return res
}

func (s *Direct) tracedOcclusion(p, n types.Vec3, in incidentLight, dbg *lighting.DebugRecorder) bool {
	origin := p.Add(n.Mul(s.opts.RayBias))
	hit := s.occluded(origin, in.dir, in.distance)
	if dbg.Enabled() {
		end := origin.Add(in.dir.Mul(min(in.distance, s.bounds.Extent().Len()*2+1)))
		dbg.ShadowRay(origin, end, hit)
	}
	return hit
}

// Estimate the unoccluded fraction of the hemisphere around n.
func (s *Direct) skyVisibility(p, n, t, b types.Vec3) float32 {
	origin := p.Add(n.Mul(s.opts.RayBias))
	var visible int
	for _, d := range s.skyDirs {
		dir := t.Mul(d[0]).Add(b.Mul(d[1])).Add(n.Mul(d[2]))
		if !s.occluded(origin, dir, farDistance) {
			visible++
		}
	}
	return float32(visible) / float32(len(s.skyDirs))
}
