package scene

import "github.com/achilleasa/lightbake/types"

// Wire tag preceding every mapping record.
type MappingKind uint32

const (
	MappingKindVertex  MappingKind = 1
	MappingKindTexture MappingKind = 2
)

func (k MappingKind) String() string {
	switch k {
	case MappingKindVertex:
		return "vertex"
	case MappingKindTexture:
		return "texture"
	}
	return "unknown"
}

// The Mapping interface is implemented by all mapping variants.
type Mapping interface {
	Kind() MappingKind
	Base() *BaseMapping
}

// Wire header shared by all mappings. The relevant light guids follow it as
// a length-prefixed array.
type MappingData struct {
	Guid     types.Guid
	MeshGuid types.Guid
	LODIndex uint32
	Padded   bool
}

// Data shared by all mapping variants.
type BaseMapping struct {
	Guid     types.Guid
	MeshGuid types.Guid
	LODIndex uint32

	// Texture mappings reserve a one texel border for filtering.
	Padded bool

	// Lights that may affect this mapping.
	RelevantLights []types.Guid

	// Index of the referenced mesh in Scene.Meshes; set during import.
	MeshIndex int
}

type VertexMappingData struct {
	SampleToAreaRatio float32
}

// Stores lighting per vertex.
type VertexMapping struct {
	BaseMapping

	// Sample density. Stored in world units on the wire and rescaled to a
	// unit-agnostic density by the importer.
	SampleToAreaRatio float32
}

func (m *VertexMapping) Kind() MappingKind {
	return MappingKindVertex
}

func (m *VertexMapping) Base() *BaseMapping {
	return &m.BaseMapping
}

type TextureMappingData struct {
	SizeX, SizeY            int32
	LightmapCoordinateIndex uint32
}

// Stores lighting per light map texel.
type TextureMapping struct {
	BaseMapping

	SizeX, SizeY int32

	// Dimensions the solver works with; equal to SizeX/SizeY after import.
	CachedSizeX, CachedSizeY int32

	LightmapCoordinateIndex uint32
}

func (m *TextureMapping) Kind() MappingKind {
	return MappingKindTexture
}

func (m *TextureMapping) Base() *BaseMapping {
	return &m.BaseMapping
}

// A precomputed visibility task covering a set of cells.
type VisibilityTask struct {
	Guid  types.Guid
	Cells []types.Box
}
