package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/achilleasa/lightbake/lighting"
	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/types"
	"github.com/chewxy/math32"
)

// Search window, in texels, used when looking for the closest shadow
// transition of a distance field shadow map.
const sdfSearchRadius = 8

// A light map texel covered by the mapped surface.
type texel struct {
	mapped   bool
	position types.Vec3
	normal   types.Vec3
}

// Compute lighting for every texel of a texture mapping.
func (s *Direct) TextureMapping(ctx context.Context, m *scene.TextureMapping, dbg *lighting.DebugRecorder) (*lighting.TextureMappingResult, error) {
	start := time.Now()
	lod := s.sc.MappingLOD(m)
	if lod == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedMapping, m.Guid)
	}

	sizeX, sizeY := int(m.CachedSizeX), int(m.CachedSizeY)
	res := &lighting.TextureMappingResult{
		Guid:    m.Guid,
		SizeX:   sizeX,
		SizeY:   sizeY,
		Samples: make([]lighting.LightSample, sizeX*sizeY),
	}
	sets := classifyLights(s.relevantLights(&m.BaseMapping))
	res.Lights = sets.bakedGuids()
	if len(res.Samples) == 0 {
		res.Lights = nil
		res.ExecutionTime = time.Since(start).Seconds()
		return res, nil
	}

	texels, texelSize := rasterize(m, lod, lightmapCoordinateIndex(m, s.sc.MappingMesh(m)), sizeX, sizeY)

	shadowMaps := make([]lighting.ShadowMap2D, len(sets.shadowed))
	for idx, light := range sets.shadowed {
		shadowMaps[idx] = lighting.ShadowMap2D{LightGuid: light.Guid, SizeX: sizeX, SizeY: sizeY, Samples: make([]lighting.ShadowSample, len(texels))}
	}
	sdfLit := make([][]bool, len(sets.sdf))
	for idx := range sdfLit {
		sdfLit[idx] = make([]bool, len(texels))
	}

	debugIndex := s.debugSampleIndex(dbg)
	var (
		skyTotal  float64
		numShaded int
	)
	for y := 0; y < sizeY; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < sizeX; x++ {
			idx := y*sizeX + x
			tx := &texels[idx]
			if !tx.mapped {
				continue
			}

			var rec *lighting.DebugRecorder
			if idx == debugIndex {
				rec = dbg
				recordTexel(rec, tx, texelSize)
			}

			sr := s.shade(tx.position, tx.normal, &sets, rec)
			res.Samples[idx] = sr.sample
			for lightIdx := range shadowMaps {
				shadowMaps[lightIdx].Samples[idx] = lighting.ShadowSample{Visibility: sr.shadowVisibility[lightIdx], Mapped: true}
			}
			for lightIdx := range sdfLit {
				sdfLit[lightIdx][idx] = sr.sdfLit[lightIdx]
			}
			skyTotal += float64(sr.skyVisibility)
			numShaded++
		}
	}

	res.ShadowMaps = shadowMaps
	for idx, light := range sets.sdf {
		res.SignedDistanceFieldShadowMaps = append(res.SignedDistanceFieldShadowMaps, lighting.SignedDistanceFieldShadowMap2D{
			LightGuid: light.Guid,
			SizeX:     sizeX,
			SizeY:     sizeY,
			Samples:   signedDistanceField(texels, sdfLit[idx], sizeX, sizeY, texelSize, light.SourceRadius, s.sc.Constants.MaxSignedDistance),
		})
	}

	res.PreviewEnvironmentShadowing = 1
	if numShaded != 0 {
		res.PreviewEnvironmentShadowing = skyTotal / float64(numShaded)
	}
	res.ExecutionTime = time.Since(start).Seconds()
	return res, nil
}

// Compute lighting for every vertex of a vertex mapping.
func (s *Direct) VertexMapping(ctx context.Context, m *scene.VertexMapping, dbg *lighting.DebugRecorder) (*lighting.VertexMappingResult, error) {
	start := time.Now()
	lod := s.sc.MappingLOD(m)
	if lod == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedMapping, m.Guid)
	}

	// Vertex mappings have no texel neighborhood so distance field lights
	// fall back to plain shadow maps.
	sets := classifyLights(s.relevantLights(&m.BaseMapping))
	sets.shadowed = append(sets.shadowed, sets.sdf...)
	sets.sdf = nil

	res := &lighting.VertexMappingResult{
		Guid:    m.Guid,
		Samples: make([]lighting.LightSample, len(lod.Vertices)),
		Lights:  sets.bakedGuids(),
	}
	res.ShadowMaps = make([]lighting.ShadowMap1D, len(sets.shadowed))
	for idx, light := range sets.shadowed {
		res.ShadowMaps[idx] = lighting.ShadowMap1D{LightGuid: light.Guid, Samples: make([]lighting.ShadowSample, len(lod.Vertices))}
	}

	debugIndex := s.debugSampleIndex(dbg)
	var skyTotal float64
	for idx := range lod.Vertices {
		if idx%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		v := &lod.Vertices[idx]
		pos, normal := v.Position.Vec3(), v.Normal.Vec3().Normalize()
		if normal.Len() == 0 {
			normal = types.XYZ(0, 0, 1)
		}

		var rec *lighting.DebugRecorder
		if idx == debugIndex {
			rec = dbg
			rec.Vertex(int32(idx), pos, normal)
		}

		sr := s.shade(pos, normal, &sets, rec)
		res.Samples[idx] = sr.sample
		for lightIdx := range res.ShadowMaps {
			res.ShadowMaps[lightIdx].Samples[idx] = lighting.ShadowSample{Visibility: sr.shadowVisibility[lightIdx], Mapped: true}
		}
		skyTotal += float64(sr.skyVisibility)
	}

	res.PreviewEnvironmentShadowing = 1
	if len(lod.Vertices) != 0 {
		res.PreviewEnvironmentShadowing = skyTotal / float64(len(lod.Vertices))
	}
	res.ExecutionTime = time.Since(start).Seconds()
	return res, nil
}

// Get the sample index traced for debugging or -1 if dbg is disabled.
func (s *Direct) debugSampleIndex(dbg *lighting.DebugRecorder) int {
	if !dbg.Enabled() {
		return -1
	}
	return int(s.sc.Constants.DebugSampleIndex)
}

func recordTexel(dbg *lighting.DebugRecorder, tx *texel, texelSize float32) {
	t, b := tangentFrame(tx.normal)
	half := texelSize * 0.5
	var (
		corners [4]types.Vec3
		valid   = [4]bool{true, true, true, true}
	)
	for idx, sign := range [4][2]float32{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
		corners[idx] = tx.position.Add(t.Mul(sign[0] * half)).Add(b.Mul(sign[1] * half))
	}
	dbg.TexelCorners(corners, valid, half)
}

// Select the UV set holding light map coordinates. The mapping's index wins;
// the mesh's index is used when the mapping names a set the vertices lack.
func lightmapCoordinateIndex(m *scene.TextureMapping, mesh scene.Mesh) int {
	idx := m.LightmapCoordinateIndex
	if idx >= scene.MaxTexCoords {
		if static, ok := mesh.(*scene.StaticMesh); ok {
			idx = static.LightmapCoordinateIndex
		}
	}
	return min(int(idx), scene.MaxTexCoords-1)
}

// Rasterize the light map UVs of a LOD into texels. Texel centers covered by
// more than one triangle keep the first one. It returns the texels and the
// average world space size of a texel.
func rasterize(m *scene.TextureMapping, lod *scene.StaticMeshLOD, coordIndex, sizeX, sizeY int) ([]texel, float32) {
	texels := make([]texel, sizeX*sizeY)

	offset, inner := float32(0), types.XY(float32(sizeX), float32(sizeY))
	if m.Padded && sizeX > 2 && sizeY > 2 {
		offset, inner = 1, types.XY(float32(sizeX-2), float32(sizeY-2))
	}

	var worldArea, uvArea float32
	for tri := 0; tri < lod.NumTriangles(); tri++ {
		v0, v1, v2 := lod.Triangle(tri)
		uv := [3]types.Vec2{
			texelSpace(v0.TexCoords[coordIndex], inner, offset),
			texelSpace(v1.TexCoords[coordIndex], inner, offset),
			texelSpace(v2.TexCoords[coordIndex], inner, offset),
		}
		area := edge(uv[0], uv[1], uv[2])
		if math32.Abs(area) < 1e-12 {
			continue
		}

		p0, p1, p2 := v0.Position.Vec3(), v1.Position.Vec3(), v2.Position.Vec3()
		faceNormal := p1.Sub(p0).Cross(p2.Sub(p0))
		worldArea += 0.5 * faceNormal.Len()
		uvArea += 0.5 * math32.Abs(area)
		faceNormal = faceNormal.Normalize()

		minX := max(0, int(math32.Floor(min(uv[0][0], uv[1][0], uv[2][0]))))
		maxX := min(sizeX-1, int(math32.Ceil(max(uv[0][0], uv[1][0], uv[2][0]))))
		minY := max(0, int(math32.Floor(min(uv[0][1], uv[1][1], uv[2][1]))))
		maxY := min(sizeY-1, int(math32.Ceil(max(uv[0][1], uv[1][1], uv[2][1]))))

		for y := minY; y <= maxY; y++ {
			for x := minX; x <= maxX; x++ {
				tx := &texels[y*sizeX+x]
				if tx.mapped {
					continue
				}
				center := types.XY(float32(x)+0.5, float32(y)+0.5)
				w0 := edge(uv[1], uv[2], center) / area
				w1 := edge(uv[2], uv[0], center) / area
				w2 := 1 - w0 - w1
				if w0 < -1e-5 || w1 < -1e-5 || w2 < -1e-5 {
					continue
				}

				tx.mapped = true
				tx.position = p0.Mul(w0).Add(p1.Mul(w1)).Add(p2.Mul(w2))
				tx.normal = v0.Normal.Vec3().Mul(w0).Add(v1.Normal.Vec3().Mul(w1)).Add(v2.Normal.Vec3().Mul(w2)).Normalize()
				if tx.normal.Len() == 0 {
					tx.normal = faceNormal
				}
			}
		}
	}

	texelSize := float32(1)
	if uvArea > 0 && worldArea > 0 {
		texelSize = math32.Sqrt(worldArea / uvArea)
	}
	return texels, texelSize
}

func texelSpace(uv, inner types.Vec2, offset float32) types.Vec2 {
	return types.XY(uv[0]*inner[0]+offset, uv[1]*inner[1]+offset)
}

// Twice the signed area of triangle (a, b, c).
func edge(a, b, c types.Vec2) float32 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// Convert binary light visibility into signed distances to the closest
// transition. Texels without a transition inside the search window get the
// maximum distance.
func signedDistanceField(texels []texel, lit []bool, sizeX, sizeY int, texelSize, penumbra, maxDistance float32) []lighting.SignedDistanceFieldShadowSample {
	if maxDistance <= 0 {
		maxDistance = texelSize * sdfSearchRadius
	}
	out := make([]lighting.SignedDistanceFieldShadowSample, len(texels))
	for y := 0; y < sizeY; y++ {
		for x := 0; x < sizeX; x++ {
			idx := y*sizeX + x
			if !texels[idx].mapped {
				continue
			}

			closest := maxDistance
			for dy := -sdfSearchRadius; dy <= sdfSearchRadius; dy++ {
				for dx := -sdfSearchRadius; dx <= sdfSearchRadius; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= sizeX || ny >= sizeY {
						continue
					}
					nIdx := ny*sizeX + nx
					if !texels[nIdx].mapped || lit[nIdx] == lit[idx] {
						continue
					}
					// The transition lies half way between the two texel centers.
					dist := (math32.Sqrt(float32(dx*dx+dy*dy)) - 0.5) * texelSize
					closest = min(closest, dist)
				}
			}

			if !lit[idx] {
				closest = -closest
			}
			out[idx] = lighting.SignedDistanceFieldShadowSample{
				Distance:     closest,
				PenumbraSize: penumbra,
				Mapped:       true,
			}
		}
	}
	return out
}
