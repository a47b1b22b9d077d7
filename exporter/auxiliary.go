package exporter

import (
	"io"

	"github.com/achilleasa/lightbake/codec"
	"github.com/achilleasa/lightbake/encoder"
	"github.com/achilleasa/lightbake/fabric"
	"github.com/achilleasa/lightbake/lighting"
	"github.com/achilleasa/lightbake/types"
)

// Sticky-error writer for multi-part channel bodies.
type channelWriter struct {
	w   io.Writer
	err error
}

func (cw *channelWriter) put(v interface{}) {
	if cw.err != nil {
		return
	}
	cw.err = codec.Write(cw.w, v)
}

func putArray[T any](cw *channelWriter, items []T) {
	if cw.err != nil {
		return
	}
	cw.err = codec.WriteArray(cw.w, items)
}

// Build a channel body and write it to the channel for kind and
// guid. The channel is only opened once the whole body has been built.
func (e *Exporter) withChannel(kind fabric.Kind, guid types.Guid, body func(cw *channelWriter)) error {
	buf := codec.GetBuffer()
	defer codec.PutBuffer(buf)

	cw := &channelWriter{w: buf}
	body(cw)
	if cw.err != nil {
		return cw.err
	}
	return e.writeChannel(kind, guid, buf.Bytes())
}

// Export volume lighting samples. Debug samples, when present, are written
// to their own channel first.
func (e *Exporter) ExportVolumeLighting(res *lighting.VolumeLightingResult) error {
	if len(res.DebugSamples) > 0 {
		err := e.withChannel(fabric.KindVolumeDebugOutput, fabric.VolumeLightingDebugOutputGuid, func(cw *channelWriter) {
			putArray(cw, res.DebugSamples)
		})
		if err != nil {
			return err
		}
	}

	return e.withChannel(fabric.KindVolumeSamples, fabric.VolumeLightingGuid, func(cw *channelWriter) {
		cw.put(res.Center)
		cw.put(res.Extent)
		cw.put(int32(len(res.Bricks)))
		for _, brick := range res.Bricks {
			cw.put(brick.BrickId)
			putArray(cw, brick.Samples)
		}
	})
}

// Export the shadow map of a dominant light to a channel named after it.
func (e *Exporter) ExportDominantShadow(res *lighting.DominantShadowResult) error {
	return e.withChannel(fabric.KindDominantShadow, res.Info.LightGuid, func(cw *channelWriter) {
		cw.put(res.Info)
		putArray(cw, res.Samples)
	})
}

// Export the lights synthesized from emissive meshes.
func (e *Exporter) ExportMeshAreaLights(lights []lighting.MeshAreaLightData) error {
	return e.withChannel(fabric.KindMeshAreaLightData, fabric.MeshAreaLightDataGuid, func(cw *channelWriter) {
		putArray(cw, lights)
	})
}

// Export the volume distance field. It shares the mesh area light channel
// kind under its own guid.
func (e *Exporter) ExportVolumeDistanceField(vdf *lighting.VolumeDistanceField) error {
	return e.withChannel(fabric.KindMeshAreaLightData, fabric.VolumeDistanceFieldGuid, func(cw *channelWriter) {
		cw.put(vdf.VolumeDistanceFieldData)
		putArray(cw, vdf.Voxels)
	})
}

// Export solver traces for the debug mapping together with the quantization
// debug sample, if one was captured.
func (e *Exporter) ExportDebugOutput(out *lighting.DebugOutput, sample *encoder.DebugSample) error {
	return e.withChannel(fabric.KindDebugOutput, fabric.DebugOutputGuid, func(cw *channelWriter) {
		cw.put(out.Valid)
		putArray(cw, out.PathRays)
		putArray(cw, out.ShadowRays)
		putArray(cw, out.IndirectPhotonPaths)
		putArray(cw, out.SelectedVertexIndices)
		putArray(cw, out.Vertices)
		putArray(cw, out.CacheRecords)
		putArray(cw, out.DirectPhotons)
		putArray(cw, out.IndirectPhotons)
		putArray(cw, out.IrradiancePhotons)
		putArray(cw, out.GatheredCausticPhotons)
		putArray(cw, out.GatheredPhotons)
		putArray(cw, out.GatheredImportancePhotons)
		putArray(cw, out.GatheredPhotonNodes)
		cw.put(out.DirectPhotonValid)
		cw.put(out.GatheredDirectPhoton)
		cw.put(out.TexelCorners)
		cw.put(out.CornerValid)
		cw.put(out.SampleRadius)

		cw.put(sample != nil)
		if sample != nil {
			cw.put(sample.Data())
		}
	})
}

// Export the result of a precomputed visibility task.
func (e *Exporter) ExportVisibility(res *lighting.VisibilityResult) error {
	return e.withChannel(fabric.KindPrecomputedVisibility, res.TaskGuid, func(cw *channelWriter) {
		cw.put(int32(len(res.Cells)))
		for _, cell := range res.Cells {
			cw.put(cell.Bounds)
			putArray(cw, cell.Data)
		}
		putArray(cw, res.DebugRays)
	})
}
