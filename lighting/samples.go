// Package lighting defines the floating point results produced by the
// solver for every kind of task.
package lighting

import (
	"github.com/achilleasa/lightbake/types"
)

const (
	// Directional light map coefficients.
	NumDirectionalCoefficients = 3

	// Directional coefficients plus the simple (non-directional) one.
	NumStoredCoefficients = NumDirectionalCoefficients + 1

	// Index of the simple light map coefficient.
	SimpleCoefficientIndex = NumDirectionalCoefficients
)

// Incident lighting at a texel or vertex. Coefficients hold linear RGB.
type LightSample struct {
	Coefficients [NumStoredCoefficients][3]float32

	// Set if the sample lies on the mapped surface. Unmapped samples carry
	// no lighting and are distinct from black mapped samples.
	Mapped bool
}

// Accumulate light arriving from a tangent space direction. The directional
// coefficients use the three-vector basis of directional light maps.
func (s *LightSample) AddIncident(color types.LinearColor, tangentDir types.Vec3) {
	for basis := 0; basis < NumDirectionalCoefficients; basis++ {
		weight := tangentDir.Dot(directionalBasis[basis])
		if weight <= 0 {
			continue
		}
		s.addCoefficient(basis, color, weight)
	}
	if tangentDir[2] > 0 {
		s.addCoefficient(SimpleCoefficientIndex, color, tangentDir[2])
	}
}

func (s *LightSample) addCoefficient(index int, color types.LinearColor, weight float32) {
	s.Coefficients[index][0] += color.R * weight
	s.Coefficients[index][1] += color.G * weight
	s.Coefficients[index][2] += color.B * weight
}

// The directional light map basis in tangent space.
var directionalBasis = [NumDirectionalCoefficients]types.Vec3{
	{-0.408248290, 0.707106781, 0.577350269},
	{-0.408248290, -0.707106781, 0.577350269},
	{0.816496581, 0, 0.577350269},
}

// Fraction of a light that reaches a sample.
type ShadowSample struct {
	Visibility float32
	Mapped     bool
}

// Signed distance from a sample to the closest shadow transition. Positive
// distances are lit.
type SignedDistanceFieldShadowSample struct {
	Distance     float32
	PenumbraSize float32
	Mapped       bool
}

// A per-texel shadow map for a single light.
type ShadowMap2D struct {
	LightGuid    types.Guid
	SizeX, SizeY int
	Samples      []ShadowSample
}

// A per-texel distance field shadow map for a single light.
type SignedDistanceFieldShadowMap2D struct {
	LightGuid    types.Guid
	SizeX, SizeY int
	Samples      []SignedDistanceFieldShadowSample
}

// A per-vertex shadow map for a single light.
type ShadowMap1D struct {
	LightGuid types.Guid
	Samples   []ShadowSample
}

// Solver output for a texture mapping.
type TextureMappingResult struct {
	Guid types.Guid

	// Wall clock seconds spent on the mapping.
	ExecutionTime float64

	SizeX, SizeY int
	Samples      []LightSample

	// Lights whose contribution is baked into Samples.
	Lights []types.Guid

	ShadowMaps                    []ShadowMap2D
	SignedDistanceFieldShadowMaps []SignedDistanceFieldShadowMap2D

	// Average sky visibility used by the editor preview.
	PreviewEnvironmentShadowing float64
}

// Solver output for a vertex mapping.
type VertexMappingResult struct {
	Guid          types.Guid
	ExecutionTime float64
	Samples       []LightSample
	Lights        []types.Guid
	ShadowMaps    []ShadowMap1D

	PreviewEnvironmentShadowing float64
}

// Returns true if at least one sample is mapped.
func AnyMapped(samples []LightSample) bool {
	for idx := range samples {
		if samples[idx].Mapped {
			return true
		}
	}
	return false
}

// Common interface of mapping results.
type MappingResult interface {
	MappingGuid() types.Guid
}

func (r *TextureMappingResult) MappingGuid() types.Guid { return r.Guid }
func (r *VertexMappingResult) MappingGuid() types.Guid  { return r.Guid }
