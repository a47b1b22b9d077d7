// Package scene defines the lighting scene handed to the workers by the
// editor and the packed channel format used to transport it.
package scene

import (
	"fmt"

	"github.com/achilleasa/lightbake/log"
	"github.com/achilleasa/lightbake/types"
)

// Wire header at the start of the scene channel.
type SceneHeaderData struct {
	Version uint32
	Guid    types.Guid
}

// Scene-wide settings controlled by the editor. The struct is stored on the
// wire as is.
type Constants struct {
	// World units per meter. Vertex sample densities are divided by its
	// square during import.
	LevelScale float32

	// Quantize simple light maps against a fixed scale instead of the
	// brightest sample so that all mappings stay commensurate.
	UseFixedScaleForSimpleLightmaps bool
	FixedScaleValue                 float32

	// Compress quantized light and shadow map payloads.
	CompressLightmaps bool

	// World space distance mapped to the edge of the distance field shadow
	// range.
	MaxSignedDistance float32

	// Offset applied along the surface normal when placing lights
	// synthesized from emissive meshes.
	MeshAreaLightSurfaceOffset float32

	// Mapping whose solver traces are exported for debugging and the
	// sample index to capture. A zero guid disables debug output.
	DebugMappingGuid types.Guid
	DebugSampleIndex int32

	// Volume lighting samples are placed on a grid with this spacing inside
	// the bounds. Zero spacing disables volume lighting.
	VolumeLightingBounds  types.Box
	VolumeLightingSpacing float32
	VolumeBrickSize       int32

	// Volume distance field settings. Zero voxel size disables it.
	DistanceFieldBounds      types.Box
	DistanceFieldVoxelSize   float32
	DistanceFieldMaxDistance float32

	// World size of a dominant shadow texel and the resolution cap.
	DominantShadowTexelSize     float32
	DominantShadowMaxResolution int32
}

// Get the default scene constants.
func DefaultConstants() Constants {
	return Constants{
		LevelScale:                  1,
		FixedScaleValue:             1,
		CompressLightmaps:           true,
		MaxSignedDistance:           4,
		MeshAreaLightSurfaceOffset:  0.5,
		DebugSampleIndex:            -1,
		VolumeBrickSize:             4,
		DistanceFieldMaxDistance:    8,
		DominantShadowTexelSize:     1,
		DominantShadowMaxResolution: 512,
	}
}

// Returns true if a debug mapping was nominated.
func (c *Constants) HasDebugMapping() bool {
	return !c.DebugMappingGuid.IsZero()
}

// The lighting scene. It is immutable once imported and shared by all worker
// goroutines without locking.
type Scene struct {
	Guid      types.Guid
	Constants Constants

	Lights          []*Light
	MeshAreaLights  []*MeshAreaLight
	Meshes          []Mesh
	Mappings        []Mapping
	VisibilityTasks []*VisibilityTask

	meshIndex    map[types.Guid]int
	mappingIndex map[types.Guid]int
	lightIndex   map[types.Guid]int
}

// Create an empty scene with default constants.
func New(guid types.Guid) *Scene {
	return &Scene{
		Guid:      guid,
		Constants: DefaultConstants(),
	}
}

// Lookup a mesh by guid.
func (sc *Scene) Mesh(guid types.Guid) (Mesh, bool) {
	idx, exists := sc.meshIndex[guid]
	if !exists {
		return nil, false
	}
	return sc.Meshes[idx], true
}

// Lookup a mapping by guid.
func (sc *Scene) Mapping(guid types.Guid) (Mapping, bool) {
	idx, exists := sc.mappingIndex[guid]
	if !exists {
		return nil, false
	}
	return sc.Mappings[idx], true
}

// Lookup a light by guid.
func (sc *Scene) Light(guid types.Guid) (*Light, bool) {
	idx, exists := sc.lightIndex[guid]
	if !exists {
		return nil, false
	}
	return sc.Lights[idx], true
}

// Get the mesh referenced by a resolved mapping.
func (sc *Scene) MappingMesh(m Mapping) Mesh {
	return sc.Meshes[m.Base().MeshIndex]
}

// Get the static mesh LOD referenced by a resolved mapping.
func (sc *Scene) MappingLOD(m Mapping) *StaticMeshLOD {
	mesh, ok := sc.MappingMesh(m).(*StaticMesh)
	if !ok {
		return nil
	}
	return &mesh.LODs[m.Base().LODIndex]
}

// Options that control how cross references are resolved.
type ImportOptions struct {
	// Abort instead of dropping mappings whose mesh cannot be resolved.
	StrictMeshReferences bool
}

// Build guid lookup tables and resolve mapping references. Mappings that
// reference unknown meshes or LODs are dropped with a warning unless
// opts.StrictMeshReferences is set.
func (sc *Scene) Resolve(opts ImportOptions) error {
	logger := log.New("scene importer")

	sc.lightIndex = make(map[types.Guid]int, len(sc.Lights))
	for idx, light := range sc.Lights {
		if _, dup := sc.lightIndex[light.Guid]; dup {
			return fmt.Errorf("%w: light %s", ErrDuplicateGuid, light.Guid)
		}
		sc.lightIndex[light.Guid] = idx
	}

	sc.meshIndex = make(map[types.Guid]int, len(sc.Meshes))
	for idx, mesh := range sc.Meshes {
		guid := mesh.Base().Guid
		if _, dup := sc.meshIndex[guid]; dup {
			return fmt.Errorf("%w: mesh %s", ErrDuplicateGuid, guid)
		}
		sc.meshIndex[guid] = idx
	}

	kept := make([]Mapping, 0, len(sc.Mappings))
	sc.mappingIndex = make(map[types.Guid]int, len(sc.Mappings))
	for _, mapping := range sc.Mappings {
		base := mapping.Base()
		if _, dup := sc.mappingIndex[base.Guid]; dup {
			return fmt.Errorf("%w: mapping %s", ErrDuplicateGuid, base.Guid)
		}

		if err := sc.resolveMesh(base); err != nil {
			if opts.StrictMeshReferences {
				return err
			}
			logger.Warningf("dropping %s mapping %s: %v", mapping.Kind(), base.Guid, err)
			continue
		}

		relevant := base.RelevantLights[:0]
		for _, lightGuid := range base.RelevantLights {
			if _, exists := sc.lightIndex[lightGuid]; !exists {
				logger.Warningf("mapping %s references unknown light %s; ignoring", base.Guid, lightGuid)
				continue
			}
			relevant = append(relevant, lightGuid)
		}
		base.RelevantLights = relevant

		sc.mappingIndex[base.Guid] = len(kept)
		kept = append(kept, mapping)
	}
	sc.Mappings = kept

	return nil
}

func (sc *Scene) resolveMesh(base *BaseMapping) error {
	meshIdx, exists := sc.meshIndex[base.MeshGuid]
	if !exists {
		return fmt.Errorf("%w: mapping %s references mesh %s", ErrUnresolvedMesh, base.Guid, base.MeshGuid)
	}

	if mesh, isStatic := sc.Meshes[meshIdx].(*StaticMesh); isStatic && int(base.LODIndex) >= len(mesh.LODs) {
		return fmt.Errorf("%w: mapping %s references LOD %d of mesh %s with %d LODs", ErrInvalidLOD, base.Guid, base.LODIndex, base.MeshGuid, len(mesh.LODs))
	}

	base.MeshIndex = meshIdx
	return nil
}
