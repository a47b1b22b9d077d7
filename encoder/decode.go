package encoder

import (
	"bytes"
	"fmt"
	"io"

	"github.com/achilleasa/lightbake/codec"
	"github.com/achilleasa/lightbake/types"
)

// Upper bound for per-frame element counts accepted by the decoders.
const maxFrameElements = 1 << 26

// Decode a texture mapping frame.
func DecodeTextureMapping(r io.Reader) (*QuantizedTextureMapping, error) {
	var hdr TextureMappingHeaderData
	if err := codec.Read(r, &hdr); err != nil {
		return nil, err
	}
	if hdr.ShadowMapCount < 0 || hdr.SignedDistanceFieldShadowMapCount < 0 || hdr.LightCount < 0 {
		return nil, fmt.Errorf("%w: negative count in header", ErrCorruptFrame)
	}

	q := &QuantizedTextureMapping{
		Guid:          hdr.Guid,
		ExecutionTime: hdr.ExecutionTime,
		LightMap:      hdr.LightMap,
	}

	var err error
	if q.Lights, err = readGuids(r, hdr.LightCount); err != nil {
		return nil, err
	}

	numSamples := uint64(hdr.LightMap.SizeX) * uint64(hdr.LightMap.SizeY)
	if q.Samples, err = readPayload[QuantizedLightSampleData](r, numSamples, hdr.LightMap.CompressedDataSize, hdr.LightMap.UncompressedDataSize); err != nil {
		return nil, fmt.Errorf("light map: %w", err)
	}
	if err = codec.Read(r, &q.PreviewEnvironmentShadowing); err != nil {
		return nil, err
	}

	for idx := int32(0); idx < hdr.ShadowMapCount; idx++ {
		var sm QuantizedShadowMap2D
		if err = codec.Read(r, &sm.LightGuid); err != nil {
			return nil, err
		}
		if err = codec.Read(r, &sm.Header); err != nil {
			return nil, err
		}
		n := uint64(sm.Header.SizeX) * uint64(sm.Header.SizeY)
		if sm.Samples, err = readPayload[QuantizedShadowSampleData](r, n, sm.Header.CompressedDataSize, sm.Header.UncompressedDataSize); err != nil {
			return nil, fmt.Errorf("shadow map %s: %w", sm.LightGuid, err)
		}
		q.ShadowMaps = append(q.ShadowMaps, sm)
	}

	for idx := int32(0); idx < hdr.SignedDistanceFieldShadowMapCount; idx++ {
		var sm QuantizedSignedDistanceFieldShadowMap2D
		if err = codec.Read(r, &sm.LightGuid); err != nil {
			return nil, err
		}
		if err = codec.Read(r, &sm.Header); err != nil {
			return nil, err
		}
		n := uint64(sm.Header.SizeX) * uint64(sm.Header.SizeY)
		if sm.Samples, err = readPayload[QuantizedSignedDistanceFieldShadowSampleData](r, n, sm.Header.CompressedDataSize, sm.Header.UncompressedDataSize); err != nil {
			return nil, fmt.Errorf("distance field shadow map %s: %w", sm.LightGuid, err)
		}
		q.SignedDistanceFieldShadowMaps = append(q.SignedDistanceFieldShadowMaps, sm)
	}

	return q, nil
}

// Decode a vertex mapping frame.
func DecodeVertexMapping(r io.Reader) (*QuantizedVertexMapping, error) {
	var hdr VertexMappingHeaderData
	if err := codec.Read(r, &hdr); err != nil {
		return nil, err
	}
	if hdr.ShadowMapCount < 0 || hdr.LightCount < 0 {
		return nil, fmt.Errorf("%w: negative count in header", ErrCorruptFrame)
	}

	q := &QuantizedVertexMapping{
		Guid:          hdr.Guid,
		ExecutionTime: hdr.ExecutionTime,
		LightMap:      hdr.LightMap,
	}

	var err error
	if q.Lights, err = readGuids(r, hdr.LightCount); err != nil {
		return nil, err
	}
	if q.Samples, err = readPayload[QuantizedLightSampleData](r, uint64(hdr.LightMap.NumSamples), hdr.LightMap.CompressedDataSize, hdr.LightMap.UncompressedDataSize); err != nil {
		return nil, fmt.Errorf("light map: %w", err)
	}
	if err = codec.Read(r, &q.PreviewEnvironmentShadowing); err != nil {
		return nil, err
	}

	for idx := int32(0); idx < hdr.ShadowMapCount; idx++ {
		var (
			sm  ShadowMap1D
			smh ShadowMapData1DData
		)
		if err = codec.Read(r, &sm.LightGuid); err != nil {
			return nil, err
		}
		if err = codec.Read(r, &smh); err != nil {
			return nil, err
		}
		if smh.NumSamples > maxFrameElements {
			return nil, fmt.Errorf("%w: shadow map too large", ErrCorruptFrame)
		}
		if smh.NumSamples > 0 {
			sm.Visibility = make([]float32, smh.NumSamples)
			if err = codec.Read(r, sm.Visibility); err != nil {
				return nil, err
			}
		}
		q.ShadowMaps = append(q.ShadowMaps, sm)
	}

	return q, nil
}

func readGuids(r io.Reader, count int32) ([]types.Guid, error) {
	if count == 0 {
		return nil, nil
	}
	if count < 0 || count > maxFrameElements {
		return nil, fmt.Errorf("%w: bad light count %d", ErrCorruptFrame, count)
	}
	return codec.ReadItems[types.Guid](r, int(count))
}

// Read a payload block holding numSamples elements.
func readPayload[T any](r io.Reader, numSamples uint64, compressedSize, uncompressedSize uint32) ([]T, error) {
	if numSamples == 0 {
		if uncompressedSize != 0 || compressedSize != 0 {
			return nil, fmt.Errorf("%w: payload without samples", ErrCorruptFrame)
		}
		return nil, nil
	}
	if numSamples > maxFrameElements {
		return nil, fmt.Errorf("%w: payload too large", ErrCorruptFrame)
	}

	var zero T
	if uint64(uncompressedSize) != numSamples*uint64(codec.Size(zero)) {
		return nil, fmt.Errorf("%w: payload size %d does not match %d samples", ErrCorruptFrame, uncompressedSize, numSamples)
	}

	blockSize := uncompressedSize
	if compressedSize != 0 {
		blockSize = compressedSize
	}
	block, err := codec.ReadItems[byte](r, int(blockSize))
	if err != nil {
		return nil, err
	}

	if compressedSize != 0 {
		if block, err = codec.Decompress(block, int(uncompressedSize)); err != nil {
			return nil, err
		}
	}

	samples := make([]T, numSamples)
	if err = codec.Read(bytes.NewReader(block), samples); err != nil {
		return nil, err
	}
	return samples, nil
}
