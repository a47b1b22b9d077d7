package scene

import "github.com/achilleasa/lightbake/types"

// Wire tag preceding every mesh record.
type MeshKind uint32

const (
	MeshKindStatic MeshKind = 1
)

// Mesh lighting flags.
const (
	MeshCastShadow uint32 = 1 << iota
	MeshTwoSided
)

// The Mesh interface is implemented by all mesh variants.
type Mesh interface {
	Kind() MeshKind
	Base() *BaseMeshData
}

// Data shared by all mesh variants.
type BaseMeshData struct {
	Guid          types.Guid
	LightingFlags uint32
	LevelId       int32
}

// Wire header for static meshes.
type StaticMeshData struct {
	NumLODs                 uint32
	LightmapCoordinateIndex uint32
}

// A group of triangles sharing a material.
type StaticMeshElement struct {
	MaterialIndex uint32
	FirstIndex    uint32
	NumPrimitives uint32
	CastShadow    bool
}

// Number of texture coordinate sets stored per vertex.
const MaxTexCoords = 2

type StaticMeshVertex struct {
	Position  types.Vec4
	Normal    types.Vec4
	TexCoords [MaxTexCoords]types.Vec2
}

type StaticMeshLOD struct {
	Elements []StaticMeshElement
	Indices  []uint16
	Vertices []StaticMeshVertex
}

// Get the vertices of the triangle with the given index.
func (lod *StaticMeshLOD) Triangle(tri int) (StaticMeshVertex, StaticMeshVertex, StaticMeshVertex) {
	base := tri * 3
	return lod.Vertices[lod.Indices[base]], lod.Vertices[lod.Indices[base+1]], lod.Vertices[lod.Indices[base+2]]
}

// Get the number of triangles in the LOD.
func (lod *StaticMeshLOD) NumTriangles() int {
	return len(lod.Indices) / 3
}

// A static mesh with one or more LODs.
type StaticMesh struct {
	BaseMeshData

	// Texture coordinate set used for light map UVs.
	LightmapCoordinateIndex uint32

	LODs []StaticMeshLOD
}

func (m *StaticMesh) Kind() MeshKind {
	return MeshKindStatic
}

func (m *StaticMesh) Base() *BaseMeshData {
	return &m.BaseMeshData
}

// Calculate the world space bounds of a LOD.
func (m *StaticMesh) Bounds(lodIndex int) types.Box {
	box := types.EmptyBox()
	for _, v := range m.LODs[lodIndex].Vertices {
		box = box.Extend(v.Position.Vec3())
	}
	return box
}
