package lighting

import (
	"sync"

	"github.com/achilleasa/lightbake/types"
)

type DebugStaticLightingRay struct {
	Start, End types.Vec4
	Hit        bool
	Positive   bool
}

type DebugStaticLightingVertex struct {
	VertexNormal   types.Vec4
	VertexPosition types.Vec4
}

type DebugLightingCacheRecord struct {
	NearSelectedTexel bool
	RecordId          int32
	Vertex            DebugStaticLightingVertex
	Radius            float32
}

type DebugPhoton struct {
	Id        int32
	Position  types.Vec4
	Direction types.Vec4
	Normal    types.Vec4
}

type DebugOctreeNode struct {
	Center types.Vec4
	Extent types.Vec4
}

// Solver traces for the nominated debug mapping.
type DebugOutput struct {
	Valid bool

	PathRays                  []DebugStaticLightingRay
	ShadowRays                []DebugStaticLightingRay
	IndirectPhotonPaths       []DebugStaticLightingRay
	SelectedVertexIndices     []int32
	Vertices                  []DebugStaticLightingVertex
	CacheRecords              []DebugLightingCacheRecord
	DirectPhotons             []DebugPhoton
	IndirectPhotons           []DebugPhoton
	IrradiancePhotons         []DebugPhoton
	GatheredCausticPhotons    []DebugPhoton
	GatheredPhotons           []DebugPhoton
	GatheredImportancePhotons []DebugPhoton
	GatheredPhotonNodes       []DebugOctreeNode

	DirectPhotonValid    bool
	GatheredDirectPhoton DebugPhoton
	TexelCorners         [4]types.Vec4
	CornerValid          [4]bool
	SampleRadius         float32
}

// Photon list selector for DebugRecorder.Photon.
type PhotonList uint8

const (
	DirectPhotons PhotonList = iota
	IndirectPhotons
	IrradiancePhotons
	GatheredCausticPhotons
	GatheredPhotons
	GatheredImportancePhotons
)

// A DebugRecorder collects solver traces. A nil or disabled recorder
// ignores every call, so solvers record unconditionally.
type DebugRecorder struct {
	mu  sync.Mutex
	out *DebugOutput
}

// Create a recorder. Disabled recorders drop all traces.
func NewDebugRecorder(enabled bool) *DebugRecorder {
	if !enabled {
		return &DebugRecorder{}
	}
	return &DebugRecorder{out: &DebugOutput{Valid: true}}
}

// Returns true if traces are being collected.
func (r *DebugRecorder) Enabled() bool {
	return r != nil && r.out != nil
}

// Get the collected traces. Disabled recorders return an invalid, empty output.
func (r *DebugRecorder) Output() *DebugOutput {
	if !r.Enabled() {
		return &DebugOutput{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out
}

func (r *DebugRecorder) record(fn func(out *DebugOutput)) {
	if !r.Enabled() {
		return
	}
	r.mu.Lock()
	fn(r.out)
	r.mu.Unlock()
}

// Record a camera or gather path segment.
func (r *DebugRecorder) PathRay(start, end types.Vec3, hit bool) {
	r.record(func(out *DebugOutput) {
		out.PathRays = append(out.PathRays, DebugStaticLightingRay{Start: start.Vec4(1), End: end.Vec4(1), Hit: hit})
	})
}

// Record a shadow ray. Positive rays reached the light.
func (r *DebugRecorder) ShadowRay(start, end types.Vec3, hit bool) {
	r.record(func(out *DebugOutput) {
		out.ShadowRays = append(out.ShadowRays, DebugStaticLightingRay{Start: start.Vec4(1), End: end.Vec4(1), Hit: hit, Positive: !hit})
	})
}

// Record a shading vertex and mark it as selected.
func (r *DebugRecorder) Vertex(index int32, position, normal types.Vec3) {
	r.record(func(out *DebugOutput) {
		out.SelectedVertexIndices = append(out.SelectedVertexIndices, index)
		out.Vertices = append(out.Vertices, DebugStaticLightingVertex{VertexNormal: normal.Vec4(0), VertexPosition: position.Vec4(1)})
	})
}

// Record a photon in one of the photon lists.
func (r *DebugRecorder) Photon(list PhotonList, photon DebugPhoton) {
	r.record(func(out *DebugOutput) {
		switch list {
		case DirectPhotons:
			out.DirectPhotons = append(out.DirectPhotons, photon)
		case IndirectPhotons:
			out.IndirectPhotons = append(out.IndirectPhotons, photon)
		case IrradiancePhotons:
			out.IrradiancePhotons = append(out.IrradiancePhotons, photon)
		case GatheredCausticPhotons:
			out.GatheredCausticPhotons = append(out.GatheredCausticPhotons, photon)
		case GatheredPhotons:
			out.GatheredPhotons = append(out.GatheredPhotons, photon)
		case GatheredImportancePhotons:
			out.GatheredImportancePhotons = append(out.GatheredImportancePhotons, photon)
		}
	})
}

// Record the world space corners of the selected texel.
func (r *DebugRecorder) TexelCorners(corners [4]types.Vec3, valid [4]bool, sampleRadius float32) {
	r.record(func(out *DebugOutput) {
		for idx := range corners {
			out.TexelCorners[idx] = corners[idx].Vec4(1)
		}
		out.CornerValid = valid
		out.SampleRadius = sampleRadius
	})
}
