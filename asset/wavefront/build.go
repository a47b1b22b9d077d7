package wavefront

import (
	"fmt"

	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/types"
)

// Max vertices addressable by the 16-bit index buffer.
const maxMeshVertices = 1 << 16

// Key used to weld face corners into shared vertices. Corners without a
// normal use the face normal and are keyed by face so they never weld.
type vertexKey struct {
	v, vt, vn int
	face      int
}

// Assemble the parsed objects into a scene and resolve its references.
func (r *sceneReader) build() (*scene.Scene, error) {
	if len(r.objects) == 0 {
		return nil, ErrEmptyScene
	}

	sc := r.sc
	lightGuids := make([]types.Guid, 0, len(sc.Lights))
	for _, light := range sc.Lights {
		lightGuids = append(lightGuids, light.Guid)
	}

	var debugFound bool
	for _, obj := range r.objects {
		mesh, err := r.buildMesh(obj)
		if err != nil {
			return nil, fmt.Errorf("wavefront reader: object %q: %w", obj.name, err)
		}
		sc.Meshes = append(sc.Meshes, mesh)
		sc.MeshAreaLights = append(sc.MeshAreaLights, r.buildMeshAreaLights(obj, mesh)...)

		mapping := r.buildMapping(obj, mesh, lightGuids)
		sc.Mappings = append(sc.Mappings, mapping)

		if obj.name == r.debugObject {
			sc.Constants.DebugMappingGuid = mapping.Base().Guid
			debugFound = true
		}
	}
	if r.debugObject != "" && !debugFound {
		return nil, fmt.Errorf("%w: debug mapping %q", ErrUnknownObject, r.debugObject)
	}

	sc.VisibilityTasks = append(sc.VisibilityTasks, r.visibilityOrder...)

	if err := sc.Resolve(scene.ImportOptions{StrictMeshReferences: true}); err != nil {
		return nil, err
	}
	return sc, nil
}

func (r *sceneReader) meshGuid(obj *object) types.Guid {
	return types.GuidFromName(r.opts.Name + "/mesh/" + obj.name)
}

// Build a single-LOD static mesh with one element per run of faces that
// share a material.
func (r *sceneReader) buildMesh(obj *object) (*scene.StaticMesh, error) {
	var (
		vertices []scene.StaticMeshVertex
		indices  = make([]uint16, 0, 3*len(obj.faces))
		elements []scene.StaticMeshElement
		welded   = make(map[vertexKey]uint16)
	)

	for faceIdx, f := range obj.faces {
		if len(elements) == 0 || obj.faces[faceIdx-1].mat != f.mat {
			elements = append(elements, scene.StaticMeshElement{
				MaterialIndex: materialIndex(f.mat),
				FirstIndex:    uint32(len(indices)),
				CastShadow:    true,
			})
		}
		elements[len(elements)-1].NumPrimitives++

		var faceNormal types.Vec3
		for _, c := range f.corners {
			if c.vn < 0 {
				faceNormal = r.faceNormal(f)
				break
			}
		}

		for _, c := range f.corners {
			key := vertexKey{v: c.v, vt: c.vt, vn: c.vn, face: -1}
			if c.vn < 0 {
				key.face = faceIdx
			}
			index, exists := welded[key]
			if !exists {
				if len(vertices) == maxMeshVertices {
					return nil, ErrTooManyVertices
				}
				normal := faceNormal
				if c.vn >= 0 {
					normal = r.normalList[c.vn].Normalize()
				}
				var uv types.Vec2
				if c.vt >= 0 {
					uv = r.uvList[c.vt]
				}
				index = uint16(len(vertices))
				welded[key] = index
				vertices = append(vertices, scene.NewVertex(r.vertexList[c.v], normal, uv))
			}
			indices = append(indices, index)
		}
	}

	mesh := scene.NewStaticMesh(r.meshGuid(obj), vertices, indices)
	mesh.LODs[0].Elements = elements
	return mesh, nil
}

func (r *sceneReader) faceNormal(f face) types.Vec3 {
	v0, v1, v2 := r.vertexList[f.corners[0].v], r.vertexList[f.corners[1].v], r.vertexList[f.corners[2].v]
	return v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
}

func materialIndex(mat *material) uint32 {
	if mat == nil {
		return 0
	}
	return uint32(mat.index)
}

// Create one mesh area light per emissive material used by the object.
func (r *sceneReader) buildMeshAreaLights(obj *object, mesh *scene.StaticMesh) []*scene.MeshAreaLight {
	var (
		lights []*scene.MeshAreaLight
		byMat  = make(map[*material]*scene.MeshAreaLight)
	)
	for _, f := range obj.faces {
		if f.mat == nil || !f.mat.emissive() {
			continue
		}
		mal, exists := byMat[f.mat]
		if !exists {
			mal = &scene.MeshAreaLight{
				MeshAreaLightHeader: scene.MeshAreaLightHeader{
					Guid:            types.GuidFromName(r.opts.Name + "/mal/" + obj.name + "/" + f.mat.name),
					MeshGuid:        mesh.Guid,
					EmissiveColor:   f.mat.radiance(),
					FalloffExponent: f.mat.keFalloff,
					InfluenceRadius: f.mat.keRadius,
				},
			}
			byMat[f.mat] = mal
			lights = append(lights, mal)
		}
		mal.Triangles = append(mal.Triangles, scene.EmissiveTriangle{
			V0: r.vertexList[f.corners[0].v].Vec4(1),
			V1: r.vertexList[f.corners[1].v].Vec4(1),
			V2: r.vertexList[f.corners[2].v].Vec4(1),
		})
	}
	return lights
}

// Create the mapping for an object. Objects without texture coordinates
// cannot be rasterized into a light map and fall back to vertex mappings.
func (r *sceneReader) buildMapping(obj *object, mesh *scene.StaticMesh, lights []types.Guid) scene.Mapping {
	spec := obj.mapping
	if spec == nil {
		spec = &mappingSpec{
			vertex:            r.opts.VertexMappings,
			sizeX:             r.opts.LightmapSize,
			sizeY:             r.opts.LightmapSize,
			sampleToAreaRatio: r.opts.SampleToAreaRatio,
		}
	}
	if !spec.vertex && !hasTexCoords(obj) {
		r.logger.Warningf(`object "%s" has no texture coordinates; using a vertex mapping`, obj.name)
		spec = &mappingSpec{vertex: true, sampleToAreaRatio: r.opts.SampleToAreaRatio}
	}

	guid := types.GuidFromName(r.opts.Name + "/mapping/" + obj.name)
	relevant := append([]types.Guid(nil), lights...)
	if spec.vertex {
		return scene.NewVertexMapping(guid, mesh.Guid, spec.sampleToAreaRatio, relevant...)
	}
	m := scene.NewTextureMapping(guid, mesh.Guid, spec.sizeX, spec.sizeY, relevant...)
	m.Padded = true
	return m
}

func hasTexCoords(obj *object) bool {
	for _, f := range obj.faces {
		for _, c := range f.corners {
			if c.vt >= 0 {
				return true
			}
		}
	}
	return false
}
