package scene

import "github.com/achilleasa/lightbake/types"

// Create a single-LOD static mesh whose triangles form one element.
func NewStaticMesh(guid types.Guid, vertices []StaticMeshVertex, indices []uint16) *StaticMesh {
	return &StaticMesh{
		BaseMeshData: BaseMeshData{
			Guid:          guid,
			LightingFlags: MeshCastShadow,
		},
		LightmapCoordinateIndex: 1,
		LODs: []StaticMeshLOD{
			{
				Elements: []StaticMeshElement{
					{FirstIndex: 0, NumPrimitives: uint32(len(indices) / 3), CastShadow: true},
				},
				Indices:  indices,
				Vertices: vertices,
			},
		},
	}
}

// Create a vertex whose material and light map UVs are the same.
func NewVertex(pos, normal types.Vec3, uv types.Vec2) StaticMeshVertex {
	return StaticMeshVertex{
		Position:  pos.Vec4(1),
		Normal:    normal.Vec4(0),
		TexCoords: [MaxTexCoords]types.Vec2{uv, uv},
	}
}

// Create a texture mapping for the first LOD of a mesh.
func NewTextureMapping(guid, meshGuid types.Guid, sizeX, sizeY int32, relevantLights ...types.Guid) *TextureMapping {
	return &TextureMapping{
		BaseMapping: BaseMapping{
			Guid:           guid,
			MeshGuid:       meshGuid,
			RelevantLights: relevantLights,
		},
		SizeX:                   sizeX,
		SizeY:                   sizeY,
		CachedSizeX:             sizeX,
		CachedSizeY:             sizeY,
		LightmapCoordinateIndex: 1,
	}
}

// Create a vertex mapping for the first LOD of a mesh.
func NewVertexMapping(guid, meshGuid types.Guid, sampleToAreaRatio float32, relevantLights ...types.Guid) *VertexMapping {
	return &VertexMapping{
		BaseMapping: BaseMapping{
			Guid:           guid,
			MeshGuid:       meshGuid,
			RelevantLights: relevantLights,
		},
		SampleToAreaRatio: sampleToAreaRatio,
	}
}
