package lighting

import "github.com/achilleasa/lightbake/types"

// A volume lighting probe. The struct is stored on the wire as is.
type VolumeLightingSample struct {
	PositionAndRadius    types.Vec4
	IndirectDirection    types.Vec4
	EnvironmentDirection types.Vec4
	IndirectRadiance     types.Color
	EnvironmentRadiance  types.Color
	AmbientRadiance      types.Color

	ShadowedFromDominantLights bool
}

// Probes grouped by spatial brick.
type VolumeBrick struct {
	BrickId int32
	Samples []VolumeLightingSample
}

// Debug view of a probe.
type VolumeLightingDebugSample struct {
	PositionAndRadius types.Vec4
	IndirectRadiance  types.LinearColor
}

// Solver output for the volume lighting task.
type VolumeLightingResult struct {
	Center types.Vec4
	Extent types.Vec4
	Bricks []VolumeBrick

	// Only filled when debug output was requested.
	DebugSamples []VolumeLightingDebugSample
}

// Wire header for the volume distance field.
type VolumeDistanceFieldData struct {
	SizeX, SizeY, SizeZ int32
	MaxDistance         float32
	BoxMin              types.Vec4
	BoxMax              types.Vec4
}

// A dense voxel grid storing the distance to the closest surface in the
// alpha channel and the surface color in RGB.
type VolumeDistanceField struct {
	VolumeDistanceFieldData
	Voxels []types.Color
}

// Wire header for a dominant light shadow map.
type DominantLightShadowInfo struct {
	LightGuid types.Guid

	// Row major transform from world to light space.
	WorldToLight [16]float32

	LightSpaceBoundsMin types.Vec4
	LightSpaceBoundsMax types.Vec4
	ShadowMapSizeX      uint32
	ShadowMapSizeY      uint32
}

// Quantized distance from the light to the first occluder.
type DominantLightShadowSample struct {
	Distance uint16
	Mapped   bool
}

// Solver output for a dominant light.
type DominantShadowResult struct {
	Info    DominantLightShadowInfo
	Samples []DominantLightShadowSample
}

// A light synthesized from an emissive mesh. The struct is stored on the
// wire as is.
type MeshAreaLightData struct {
	LevelId         int32
	Position        types.Vec4
	Direction       types.Vec4
	Radius          float32
	ConeAngle       float32
	Color           types.LinearColor
	Brightness      float32
	FalloffExponent float32
}
