package scene

import (
	"fmt"
	"io"
	"time"

	"github.com/achilleasa/lightbake/codec"
	"github.com/achilleasa/lightbake/fabric"
	"github.com/achilleasa/lightbake/log"
	"github.com/achilleasa/lightbake/types"
)

// Open the scene channel for guid, read the scene and close the channel.
func Import(s *fabric.Session, guid types.Guid, opts ImportOptions) (*Scene, error) {
	if _, err := s.OpenKind(fabric.KindScene, guid, fabric.ModeRead); err != nil {
		return nil, err
	}

	sc, err := Read(s, opts)
	closeErr := s.CloseCurrentChannel()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, closeErr
	}

	if sc.Guid != guid {
		log.New("scene importer").Warningf("scene channel for %s carries guid %s", guid, sc.Guid)
	}
	return sc, nil
}

type sceneReader struct {
	logger log.Logger
	r      io.Reader
	sc     *Scene
}

// Read a scene from r. Any read failure, a version mismatch or a malformed
// mesh aborts the import.
func Read(r io.Reader, opts ImportOptions) (*Scene, error) {
	sr := &sceneReader{
		logger: log.New("scene importer"),
		r:      r,
	}

	start := time.Now()
	steps := []struct {
		name string
		fn   func() error
	}{
		{"header", sr.readHeader},
		{"constants", sr.readConstants},
		{"lights", sr.readLights},
		{"mesh area lights", sr.readMeshAreaLights},
		{"meshes", sr.readMeshes},
		{"mappings", sr.readMappings},
		{"visibility tasks", sr.readVisibilityTasks},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", step.name, err)
		}
	}

	if err := sr.sc.Resolve(opts); err != nil {
		return nil, err
	}

	sr.logger.Infof(
		"imported scene %s in %d ms: %d meshes, %d mappings, %d lights",
		sr.sc.Guid, time.Since(start).Nanoseconds()/1e6,
		len(sr.sc.Meshes), len(sr.sc.Mappings), len(sr.sc.Lights),
	)
	return sr.sc, nil
}

func (sr *sceneReader) readHeader() error {
	var header SceneHeaderData
	if err := codec.Read(sr.r, &header); err != nil {
		return err
	}
	if header.Version != fabric.SceneVersion {
		return fmt.Errorf("%w: expected %08X; got %08X", ErrVersionMismatch, fabric.SceneVersion, header.Version)
	}

	sr.sc = &Scene{Guid: header.Guid}
	return nil
}

func (sr *sceneReader) readConstants() error {
	if err := codec.Read(sr.r, &sr.sc.Constants); err != nil {
		return err
	}
	if sr.sc.Constants.LevelScale <= 0 {
		return ErrInvalidLevelScale
	}
	return nil
}

func (sr *sceneReader) readLights() error {
	lights, err := codec.ReadArray[Light](sr.r)
	if err != nil {
		return err
	}

	sr.sc.Lights = make([]*Light, len(lights))
	for idx := range lights {
		sr.sc.Lights[idx] = &lights[idx]
	}
	return nil
}

func (sr *sceneReader) readMeshAreaLights() error {
	count, err := codec.ReadLength(sr.r)
	if err != nil {
		return err
	}

	sr.sc.MeshAreaLights = make([]*MeshAreaLight, 0, listCapacity(count))
	for len(sr.sc.MeshAreaLights) < count {
		mal := &MeshAreaLight{}
		if err = codec.Read(sr.r, &mal.MeshAreaLightHeader); err != nil {
			return err
		}
		if mal.Triangles, err = codec.ReadArray[EmissiveTriangle](sr.r); err != nil {
			return err
		}
		sr.sc.MeshAreaLights = append(sr.sc.MeshAreaLights, mal)
	}
	return nil
}

func (sr *sceneReader) readMeshes() error {
	count, err := codec.ReadLength(sr.r)
	if err != nil {
		return err
	}

	sr.sc.Meshes = make([]Mesh, 0, listCapacity(count))
	for len(sr.sc.Meshes) < count {
		var kind MeshKind
		if err = codec.Read(sr.r, &kind); err != nil {
			return err
		}

		switch kind {
		case MeshKindStatic:
			var mesh *StaticMesh
			if mesh, err = sr.readStaticMesh(); err != nil {
				return err
			}
			sr.sc.Meshes = append(sr.sc.Meshes, mesh)
		default:
			return fmt.Errorf("%w: %d", ErrUnknownMeshKind, kind)
		}
	}
	return nil
}

func (sr *sceneReader) readStaticMesh() (*StaticMesh, error) {
	mesh := &StaticMesh{}
	if err := codec.Read(sr.r, &mesh.BaseMeshData); err != nil {
		return nil, err
	}

	var header StaticMeshData
	if err := codec.Read(sr.r, &header); err != nil {
		return nil, err
	}
	if header.NumLODs > codec.MaxArrayLength {
		return nil, codec.ErrArrayTooLarge
	}
	mesh.LightmapCoordinateIndex = header.LightmapCoordinateIndex

	var err error
	numLODs := int(header.NumLODs)
	mesh.LODs = make([]StaticMeshLOD, 0, listCapacity(numLODs))
	for lodIndex := 0; lodIndex < numLODs; lodIndex++ {
		lod := &StaticMeshLOD{}
		if lod.Elements, err = codec.ReadArray[StaticMeshElement](sr.r); err != nil {
			return nil, err
		}
		if lod.Indices, err = codec.ReadArray[uint16](sr.r); err != nil {
			return nil, err
		}
		if lod.Vertices, err = codec.ReadArray[StaticMeshVertex](sr.r); err != nil {
			return nil, err
		}
		if err = validateLOD(lod); err != nil {
			return nil, fmt.Errorf("mesh %s LOD %d: %w", mesh.Guid, lodIndex, err)
		}
		mesh.LODs = append(mesh.LODs, *lod)
	}
	return mesh, nil
}

// Only triangle lists are supported.
func validateLOD(lod *StaticMeshLOD) error {
	for elemIndex, elem := range lod.Elements {
		if elem.FirstIndex%3 != 0 {
			return fmt.Errorf("%w: element %d starts at index %d", ErrElementNotTriangleList, elemIndex, elem.FirstIndex)
		}
		if uint64(elem.FirstIndex)+3*uint64(elem.NumPrimitives) > uint64(len(lod.Indices)) {
			return fmt.Errorf("%w: element %d", ErrElementOutOfRange, elemIndex)
		}
	}
	for _, index := range lod.Indices {
		if int(index) >= len(lod.Vertices) {
			return fmt.Errorf("%w: index %d with %d vertices", ErrIndexOutOfRange, index, len(lod.Vertices))
		}
	}
	return nil
}

func (sr *sceneReader) readMappings() error {
	count, err := codec.ReadLength(sr.r)
	if err != nil {
		return err
	}

	levelScale := sr.sc.Constants.LevelScale
	sr.sc.Mappings = make([]Mapping, 0, listCapacity(count))
	for len(sr.sc.Mappings) < count {
		var kind MappingKind
		if err = codec.Read(sr.r, &kind); err != nil {
			return err
		}

		var header MappingData
		if err = codec.Read(sr.r, &header); err != nil {
			return err
		}
		base := BaseMapping{
			Guid:     header.Guid,
			MeshGuid: header.MeshGuid,
			LODIndex: header.LODIndex,
			Padded:   header.Padded,
		}
		if base.RelevantLights, err = codec.ReadArray[types.Guid](sr.r); err != nil {
			return err
		}

		switch kind {
		case MappingKindVertex:
			var data VertexMappingData
			if err = codec.Read(sr.r, &data); err != nil {
				return err
			}
			sr.sc.Mappings = append(sr.sc.Mappings, &VertexMapping{
				BaseMapping:       base,
				SampleToAreaRatio: data.SampleToAreaRatio / (levelScale * levelScale),
			})
		case MappingKindTexture:
			var data TextureMappingData
			if err = codec.Read(sr.r, &data); err != nil {
				return err
			}
			if data.SizeX < 0 || data.SizeY < 0 {
				return fmt.Errorf("%w: mapping %s is %dx%d", ErrInvalidMappingSize, base.Guid, data.SizeX, data.SizeY)
			}
			sr.sc.Mappings = append(sr.sc.Mappings, &TextureMapping{
				BaseMapping:             base,
				SizeX:                   data.SizeX,
				SizeY:                   data.SizeY,
				CachedSizeX:             data.SizeX,
				CachedSizeY:             data.SizeY,
				LightmapCoordinateIndex: data.LightmapCoordinateIndex,
			})
		default:
			return fmt.Errorf("%w: %d", ErrUnknownMappingKind, kind)
		}
	}
	return nil
}

func (sr *sceneReader) readVisibilityTasks() error {
	count, err := codec.ReadLength(sr.r)
	if err != nil {
		return err
	}

	sr.sc.VisibilityTasks = make([]*VisibilityTask, 0, listCapacity(count))
	for len(sr.sc.VisibilityTasks) < count {
		task := &VisibilityTask{}
		if err = codec.Read(sr.r, &task.Guid); err != nil {
			return err
		}
		if task.Cells, err = codec.ReadArray[types.Box](sr.r); err != nil {
			return err
		}
		sr.sc.VisibilityTasks = append(sr.sc.VisibilityTasks, task)
	}
	return nil
}

// Counts come from the stream, so lists start small and grow as entries are
// decoded.
func listCapacity(count int) int {
	return min(count, 1024)
}
