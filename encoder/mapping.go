package encoder

import (
	"github.com/achilleasa/lightbake/lighting"
	"github.com/achilleasa/lightbake/types"
)

// Pre and post quantization values of a single sample, captured for the
// editor's texel debugging view.
type DebugSample struct {
	Index     int
	Original  lighting.LightSample
	Quantized QuantizedLightSampleData
	Scale     Scale
}

type QuantizedShadowMap2D struct {
	LightGuid types.Guid
	Header    ShadowMapData2DData
	Samples   []QuantizedShadowSampleData
}

type QuantizedSignedDistanceFieldShadowMap2D struct {
	LightGuid types.Guid
	Header    ShadowMapData2DData
	Samples   []QuantizedSignedDistanceFieldShadowSampleData
}

type ShadowMap1D struct {
	LightGuid  types.Guid
	Visibility []float32
}

// The quantized form of a texture mapping result. This is exactly what an
// encoded frame decodes to.
type QuantizedTextureMapping struct {
	Guid                          types.Guid
	ExecutionTime                 float64
	LightMap                      LightMapData2DData
	Lights                        []types.Guid
	Samples                       []QuantizedLightSampleData
	PreviewEnvironmentShadowing   float64
	ShadowMaps                    []QuantizedShadowMap2D
	SignedDistanceFieldShadowMaps []QuantizedSignedDistanceFieldShadowMap2D
}

// The quantized form of a vertex mapping result.
type QuantizedVertexMapping struct {
	Guid                        types.Guid
	ExecutionTime               float64
	LightMap                    LightMapData1DData
	Lights                      []types.Guid
	Samples                     []QuantizedLightSampleData
	PreviewEnvironmentShadowing float64
	ShadowMaps                  []ShadowMap1D
}

// Quantize a texture mapping result. The returned debug sample is nil
// unless opts requests a capture of an existing sample.
func QuantizeTextureMapping(res *lighting.TextureMappingResult, opts Options) (*QuantizedTextureMapping, *DebugSample, error) {
	numSamples := res.SizeX * res.SizeY
	if res.SizeX < 0 || res.SizeY < 0 || len(res.Samples) != numSamples {
		return nil, nil, ErrSampleCountMismatch
	}

	q := &QuantizedTextureMapping{
		Guid:                        res.Guid,
		ExecutionTime:               res.ExecutionTime,
		PreviewEnvironmentShadowing: res.PreviewEnvironmentShadowing,
	}
	q.LightMap.SizeX = uint32(res.SizeX)
	q.LightMap.SizeY = uint32(res.SizeY)

	if numSamples == 0 {
		return q, nil, nil
	}

	mapped := lighting.AnyMapped(res.Samples)
	scale := ComputeScale(res.Samples, opts)
	q.LightMap.Scale = scale
	q.Samples = QuantizeLightSamples(res.Samples, scale)
	q.LightMap.UncompressedDataSize = uint32(len(q.Samples) * quantizedLightSampleSize)

	// A mapping without a single mapped texel carries no light contribution
	if !mapped {
		return q, captureDebugSample(res.Samples, q.Samples, scale, opts), nil
	}
	q.Lights = distinctGuids(res.Lights)

	for _, sm := range res.ShadowMaps {
		if sm.SizeX != res.SizeX || sm.SizeY != res.SizeY || len(sm.Samples) != numSamples {
			return nil, nil, ErrShadowMapSize
		}
		samples := QuantizeShadowSamples(sm.Samples)
		q.ShadowMaps = append(q.ShadowMaps, QuantizedShadowMap2D{
			LightGuid: sm.LightGuid,
			Header: ShadowMapData2DData{
				SizeX:                uint32(sm.SizeX),
				SizeY:                uint32(sm.SizeY),
				UncompressedDataSize: uint32(len(samples) * quantizedShadowSampleSize),
			},
			Samples: samples,
		})
	}

	for _, sm := range res.SignedDistanceFieldShadowMaps {
		if sm.SizeX != res.SizeX || sm.SizeY != res.SizeY || len(sm.Samples) != numSamples {
			return nil, nil, ErrShadowMapSize
		}
		samples := QuantizeSignedDistanceFieldSamples(sm.Samples, opts.MaxSignedDistance)
		q.SignedDistanceFieldShadowMaps = append(q.SignedDistanceFieldShadowMaps, QuantizedSignedDistanceFieldShadowMap2D{
			LightGuid: sm.LightGuid,
			Header: ShadowMapData2DData{
				SizeX:                uint32(sm.SizeX),
				SizeY:                uint32(sm.SizeY),
				UncompressedDataSize: uint32(len(samples) * quantizedSDFSampleSize),
			},
			Samples: samples,
		})
	}

	return q, captureDebugSample(res.Samples, q.Samples, scale, opts), nil
}

// Quantize a vertex mapping result.
func QuantizeVertexMapping(res *lighting.VertexMappingResult, opts Options) (*QuantizedVertexMapping, *DebugSample, error) {
	q := &QuantizedVertexMapping{
		Guid:                        res.Guid,
		ExecutionTime:               res.ExecutionTime,
		PreviewEnvironmentShadowing: res.PreviewEnvironmentShadowing,
	}
	q.LightMap.NumSamples = uint32(len(res.Samples))
	if len(res.Samples) == 0 {
		return q, nil, nil
	}

	scale := ComputeScale(res.Samples, opts)
	q.LightMap.Scale = scale
	q.Samples = QuantizeLightSamples(res.Samples, scale)
	q.LightMap.UncompressedDataSize = uint32(len(q.Samples) * quantizedLightSampleSize)

	if !lighting.AnyMapped(res.Samples) {
		return q, captureDebugSample(res.Samples, q.Samples, scale, opts), nil
	}
	q.Lights = distinctGuids(res.Lights)

	for _, sm := range res.ShadowMaps {
		if len(sm.Samples) != len(res.Samples) {
			return nil, nil, ErrShadowMapSize
		}
		vis := make([]float32, len(sm.Samples))
		for idx, s := range sm.Samples {
			if s.Mapped {
				vis[idx] = s.Visibility
			}
		}
		q.ShadowMaps = append(q.ShadowMaps, ShadowMap1D{LightGuid: sm.LightGuid, Visibility: vis})
	}

	return q, captureDebugSample(res.Samples, q.Samples, scale, opts), nil
}

// Expand the quantized light samples of a texture mapping.
func (q *QuantizedTextureMapping) Dequantize() []lighting.LightSample {
	return dequantizeAll(q.Samples, q.LightMap.Scale)
}

// Expand the quantized light samples of a vertex mapping.
func (q *QuantizedVertexMapping) Dequantize() []lighting.LightSample {
	return dequantizeAll(q.Samples, q.LightMap.Scale)
}

func dequantizeAll(samples []QuantizedLightSampleData, scale Scale) []lighting.LightSample {
	out := make([]lighting.LightSample, len(samples))
	for idx := range samples {
		out[idx] = DequantizeLightSample(samples[idx], scale)
	}
	return out
}

func captureDebugSample(orig []lighting.LightSample, quantized []QuantizedLightSampleData, scale Scale, opts Options) *DebugSample {
	if opts.DebugSampleIndex < 0 || opts.DebugSampleIndex >= len(orig) {
		return nil
	}
	return &DebugSample{
		Index:     opts.DebugSampleIndex,
		Original:  orig[opts.DebugSampleIndex],
		Quantized: quantized[opts.DebugSampleIndex],
		Scale:     scale,
	}
}

// Drop duplicate guids, keeping first-seen order.
func distinctGuids(guids []types.Guid) []types.Guid {
	if len(guids) == 0 {
		return nil
	}
	seen := make(map[types.Guid]struct{}, len(guids))
	out := make([]types.Guid, 0, len(guids))
	for _, g := range guids {
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

// Get the wire form of the debug sample.
func (d *DebugSample) Data() DebugSampleData {
	return DebugSampleData{
		Index:          int32(d.Index),
		Original:       d.Original.Coefficients,
		OriginalMapped: d.Original.Mapped,
		Quantized:      d.Quantized,
		Scale:          d.Scale,
	}
}
