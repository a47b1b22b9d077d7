package scene

import (
	"bufio"
	"fmt"
	"io"

	"github.com/achilleasa/lightbake/codec"
	"github.com/achilleasa/lightbake/fabric"
)

// Open the scene channel for sc.Guid, serialize the scene into it and close
// the channel. This is the editor side of Import. A scene that fails to
// serialize is discarded.
func Export(s *fabric.Session, sc *Scene) error {
	if _, err := s.OpenKind(fabric.KindScene, sc.Guid, fabric.ModeWrite); err != nil {
		return err
	}

	bw := bufio.NewWriter(s)
	err := Write(bw, sc)
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		_ = s.AbortCurrentChannel()
		return err
	}
	return s.CloseCurrentChannel()
}

// Accumulates the first error so that long write sequences stay readable.
type wireWriter struct {
	w   io.Writer
	err error
}

func (ww *wireWriter) put(v interface{}) {
	if ww.err == nil {
		ww.err = codec.Write(ww.w, v)
	}
}

func putArray[T any](ww *wireWriter, items []T) {
	if ww.err == nil {
		ww.err = codec.WriteArray(ww.w, items)
	}
}

// Serialize a scene. Write is the exact inverse of Read: vertex sample
// densities are scaled back to world units.
func Write(w io.Writer, sc *Scene) error {
	ww := &wireWriter{w: w}

	ww.put(SceneHeaderData{Version: fabric.SceneVersion, Guid: sc.Guid})
	ww.put(sc.Constants)

	lights := make([]Light, len(sc.Lights))
	for idx, light := range sc.Lights {
		lights[idx] = *light
	}
	putArray(ww, lights)

	ww.put(int32(len(sc.MeshAreaLights)))
	for _, mal := range sc.MeshAreaLights {
		ww.put(mal.MeshAreaLightHeader)
		putArray(ww, mal.Triangles)
	}

	ww.put(int32(len(sc.Meshes)))
	for _, mesh := range sc.Meshes {
		switch m := mesh.(type) {
		case *StaticMesh:
			writeStaticMesh(ww, m)
		default:
			return fmt.Errorf("%w: %T", ErrUnknownMeshKind, mesh)
		}
	}

	levelScale := sc.Constants.LevelScale
	ww.put(int32(len(sc.Mappings)))
	for _, mapping := range sc.Mappings {
		base := mapping.Base()
		ww.put(mapping.Kind())
		ww.put(MappingData{
			Guid:     base.Guid,
			MeshGuid: base.MeshGuid,
			LODIndex: base.LODIndex,
			Padded:   base.Padded,
		})
		putArray(ww, base.RelevantLights)

		switch m := mapping.(type) {
		case *VertexMapping:
			ww.put(VertexMappingData{SampleToAreaRatio: m.SampleToAreaRatio * levelScale * levelScale})
		case *TextureMapping:
			ww.put(TextureMappingData{
				SizeX:                   m.SizeX,
				SizeY:                   m.SizeY,
				LightmapCoordinateIndex: m.LightmapCoordinateIndex,
			})
		default:
			return fmt.Errorf("%w: %T", ErrUnknownMappingKind, mapping)
		}
	}

	ww.put(int32(len(sc.VisibilityTasks)))
	for _, task := range sc.VisibilityTasks {
		ww.put(task.Guid)
		putArray(ww, task.Cells)
	}

	return ww.err
}

func writeStaticMesh(ww *wireWriter, mesh *StaticMesh) {
	ww.put(MeshKindStatic)
	ww.put(mesh.BaseMeshData)
	ww.put(StaticMeshData{
		NumLODs:                 uint32(len(mesh.LODs)),
		LightmapCoordinateIndex: mesh.LightmapCoordinateIndex,
	})
	for _, lod := range mesh.LODs {
		putArray(ww, lod.Elements)
		putArray(ww, lod.Indices)
		putArray(ww, lod.Vertices)
	}
}
