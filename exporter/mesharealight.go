package exporter

import (
	"github.com/achilleasa/lightbake/lighting"
	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/types"
	"github.com/chewxy/math32"
)

// Cone angle of synthesized lights; a hemisphere approximates the cosine
// falloff of an emissive surface.
const meshAreaLightConeAngle = math32.Pi / 2

// Approximate every emissive mesh with a single spot light. The light sits at
// the area-weighted centroid pushed out along the area-weighted normal by
// surfaceOffset. Lights without any triangle area are skipped.
func SynthesizeMeshAreaLights(lights []*scene.MeshAreaLight, surfaceOffset float32) []lighting.MeshAreaLightData {
	out := make([]lighting.MeshAreaLightData, 0, len(lights))
	for _, mal := range lights {
		var (
			totalArea float32
			centroid  types.Vec3
			normalSum types.Vec3
			fallback  types.Vec3
		)
		for idx, tri := range mal.Triangles {
			area, normal := tri.AreaAndNormal()
			if idx == 0 {
				fallback = normal
			}
			totalArea += area
			centroid = centroid.Add(tri.Centroid().Mul(area))
			normalSum = normalSum.Add(normal.Mul(area))
		}
		if totalArea <= 0 {
			continue
		}
		centroid = centroid.Mul(1 / totalArea)

		normal := fallback
		if normalSum.Len() > 0 {
			normal = normalSum.Normalize()
		}

		peak := mal.EmissiveColor.Max()
		var color types.LinearColor
		if peak > 0 {
			color = mal.EmissiveColor.Mul(1 / peak)
		}
		color.A = 1

		out = append(out, lighting.MeshAreaLightData{
			LevelId:         mal.LevelId,
			Position:        centroid.Add(normal.Mul(surfaceOffset)).Vec4(1),
			Direction:       normal.Vec4(0),
			Radius:          mal.InfluenceRadius,
			ConeAngle:       meshAreaLightConeAngle,
			Color:           color,
			Brightness:      peak,
			FalloffExponent: mal.FalloffExponent,
		})
	}
	return out
}
