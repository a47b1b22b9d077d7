package editor

import (
	"io"

	"github.com/achilleasa/lightbake/codec"
	"github.com/achilleasa/lightbake/encoder"
	"github.com/achilleasa/lightbake/fabric"
	"github.com/achilleasa/lightbake/lighting"
	"github.com/achilleasa/lightbake/types"
)

// Sticky-error reader for multi-part channel bodies.
type channelReader struct {
	r   io.Reader
	err error
}

func (cr *channelReader) get(v interface{}) {
	if cr.err != nil {
		return
	}
	cr.err = codec.Read(cr.r, v)
}

func getArray[T any](cr *channelReader, dst *[]T) {
	if cr.err != nil {
		return
	}
	*dst, cr.err = codec.ReadArray[T](cr.r)
}

func checkCount(n int32) error {
	switch {
	case n < 0:
		return codec.ErrNegativeLength
	case n > codec.MaxArrayLength:
		return codec.ErrArrayTooLarge
	}
	return nil
}

func ReadVolumeLighting(s *fabric.Session) (*lighting.VolumeLightingResult, error) {
	res := &lighting.VolumeLightingResult{}
	err := readChannel(s, fabric.KindVolumeSamples, fabric.VolumeLightingGuid, func(r io.Reader) error {
		cr := &channelReader{r: r}
		cr.get(&res.Center)
		cr.get(&res.Extent)

		var numBricks int32
		cr.get(&numBricks)
		if cr.err == nil {
			cr.err = checkCount(numBricks)
		}
		for idx := int32(0); cr.err == nil && idx < numBricks; idx++ {
			var brick lighting.VolumeBrick
			cr.get(&brick.BrickId)
			getArray(cr, &brick.Samples)
			res.Bricks = append(res.Bricks, brick)
		}
		return cr.err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func ReadVolumeLightingDebugSamples(s *fabric.Session) (samples []lighting.VolumeLightingDebugSample, err error) {
	err = readChannel(s, fabric.KindVolumeDebugOutput, fabric.VolumeLightingDebugOutputGuid, func(r io.Reader) error {
		samples, err = codec.ReadArray[lighting.VolumeLightingDebugSample](r)
		return err
	})
	return samples, err
}

func ReadDominantShadow(s *fabric.Session, lightGuid types.Guid) (*lighting.DominantShadowResult, error) {
	res := &lighting.DominantShadowResult{}
	err := readChannel(s, fabric.KindDominantShadow, lightGuid, func(r io.Reader) error {
		cr := &channelReader{r: r}
		cr.get(&res.Info)
		getArray(cr, &res.Samples)
		return cr.err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func ReadMeshAreaLights(s *fabric.Session) (lights []lighting.MeshAreaLightData, err error) {
	err = readChannel(s, fabric.KindMeshAreaLightData, fabric.MeshAreaLightDataGuid, func(r io.Reader) error {
		lights, err = codec.ReadArray[lighting.MeshAreaLightData](r)
		return err
	})
	return lights, err
}

func ReadVolumeDistanceField(s *fabric.Session) (*lighting.VolumeDistanceField, error) {
	vdf := &lighting.VolumeDistanceField{}
	err := readChannel(s, fabric.KindMeshAreaLightData, fabric.VolumeDistanceFieldGuid, func(r io.Reader) error {
		cr := &channelReader{r: r}
		cr.get(&vdf.VolumeDistanceFieldData)
		getArray(cr, &vdf.Voxels)
		return cr.err
	})
	if err != nil {
		return nil, err
	}
	return vdf, nil
}

// Read the debug output channel. The returned debug sample is nil when the
// encoder did not capture one.
func ReadDebugOutput(s *fabric.Session) (*lighting.DebugOutput, *encoder.DebugSampleData, error) {
	var (
		out    = &lighting.DebugOutput{}
		sample *encoder.DebugSampleData
	)
	err := readChannel(s, fabric.KindDebugOutput, fabric.DebugOutputGuid, func(r io.Reader) error {
		cr := &channelReader{r: r}
		cr.get(&out.Valid)
		getArray(cr, &out.PathRays)
		getArray(cr, &out.ShadowRays)
		getArray(cr, &out.IndirectPhotonPaths)
		getArray(cr, &out.SelectedVertexIndices)
		getArray(cr, &out.Vertices)
		getArray(cr, &out.CacheRecords)
		getArray(cr, &out.DirectPhotons)
		getArray(cr, &out.IndirectPhotons)
		getArray(cr, &out.IrradiancePhotons)
		getArray(cr, &out.GatheredCausticPhotons)
		getArray(cr, &out.GatheredPhotons)
		getArray(cr, &out.GatheredImportancePhotons)
		getArray(cr, &out.GatheredPhotonNodes)
		cr.get(&out.DirectPhotonValid)
		cr.get(&out.GatheredDirectPhoton)
		cr.get(&out.TexelCorners)
		cr.get(&out.CornerValid)
		cr.get(&out.SampleRadius)

		var hasSample bool
		cr.get(&hasSample)
		if cr.err == nil && hasSample {
			sample = &encoder.DebugSampleData{}
			cr.get(sample)
		}
		return cr.err
	})
	if err != nil {
		return nil, nil, err
	}
	return out, sample, nil
}

func ReadVisibility(s *fabric.Session, taskGuid types.Guid) (*lighting.VisibilityResult, error) {
	res := &lighting.VisibilityResult{TaskGuid: taskGuid}
	err := readChannel(s, fabric.KindPrecomputedVisibility, taskGuid, func(r io.Reader) error {
		cr := &channelReader{r: r}
		var numCells int32
		cr.get(&numCells)
		if cr.err == nil {
			cr.err = checkCount(numCells)
		}
		for idx := int32(0); cr.err == nil && idx < numCells; idx++ {
			var cell lighting.VisibilityCell
			cr.get(&cell.Bounds)
			getArray(cr, &cell.Data)
			res.Cells = append(res.Cells, cell)
		}
		getArray(cr, &res.DebugRays)
		return cr.err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
