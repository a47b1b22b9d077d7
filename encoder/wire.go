package encoder

import (
	"github.com/achilleasa/lightbake/lighting"
	"github.com/achilleasa/lightbake/types"
)

// Per-coefficient, per-channel light map scale.
type Scale [lighting.NumStoredCoefficients][3]float32

// A quantized light sample. Coverage is 255 for mapped samples and 0
// otherwise.
type QuantizedLightSampleData struct {
	Coverage     uint8
	Coefficients [lighting.NumStoredCoefficients][3]uint8
}

// Light map metadata for texture mappings.
type LightMapData2DData struct {
	SizeX, SizeY         uint32
	Scale                Scale
	CompressedDataSize   uint32
	UncompressedDataSize uint32
}

// Light map metadata for vertex mappings.
type LightMapData1DData struct {
	NumSamples           uint32
	Scale                Scale
	CompressedDataSize   uint32
	UncompressedDataSize uint32
}

type QuantizedShadowSampleData struct {
	Visibility uint8
	Coverage   uint8
}

type QuantizedSignedDistanceFieldShadowSampleData struct {
	Distance     uint8
	PenumbraSize uint8
	Coverage     uint8
}

// Shadow map metadata for texture mappings. Used by both regular and
// distance field shadow maps.
type ShadowMapData2DData struct {
	SizeX, SizeY         uint32
	CompressedDataSize   uint32
	UncompressedDataSize uint32
}

// Shadow map metadata for vertex mappings. NumSamples float32 visibility
// values follow it.
type ShadowMapData1DData struct {
	NumSamples uint32
}

// Leading header of a texture mapping frame.
type TextureMappingHeaderData struct {
	Guid                              types.Guid
	ExecutionTime                     float64
	LightMap                          LightMapData2DData
	ShadowMapCount                    int32
	SignedDistanceFieldShadowMapCount int32
	LightCount                        int32
}

// Leading header of a vertex mapping frame.
type VertexMappingHeaderData struct {
	Guid           types.Guid
	ExecutionTime  float64
	LightMap       LightMapData1DData
	ShadowMapCount int32
	LightCount     int32
}

// Wire form of a DebugSample, appended to the debug output channel.
type DebugSampleData struct {
	Index          int32
	Original       [lighting.NumStoredCoefficients][3]float32
	OriginalMapped bool
	Quantized      QuantizedLightSampleData
	Scale          Scale
}
