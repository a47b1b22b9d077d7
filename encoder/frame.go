package encoder

import (
	"bytes"
	"io"

	"github.com/achilleasa/lightbake/codec"
	"github.com/achilleasa/lightbake/lighting"
)

var (
	quantizedLightSampleSize  = codec.Size(QuantizedLightSampleData{})
	quantizedShadowSampleSize = codec.Size(QuantizedShadowSampleData{})
	quantizedSDFSampleSize    = codec.Size(QuantizedSignedDistanceFieldShadowSampleData{})
)

// An encoded mapping frame. Frames borrow pooled buffers; call Release
// once the bytes have been written out.
type Frame struct {
	buf *bytes.Buffer

	// Set when the encoder captured a debug sample for this mapping.
	Debug *DebugSample
}

// Get the encoded bytes. The slice is only valid until Release is called.
func (f *Frame) Bytes() []byte {
	if f.buf == nil {
		return nil
	}
	return f.buf.Bytes()
}

func (f *Frame) Len() int {
	if f.buf == nil {
		return 0
	}
	return f.buf.Len()
}

// Write the frame to w.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes())
	return int64(n), err
}

// Return the frame buffer to the pool. Calling Release more than once is
// a no-op.
func (f *Frame) Release() {
	codec.PutBuffer(f.buf)
	f.buf = nil
}

// Quantize and encode a texture mapping result.
func EncodeTextureMapping(res *lighting.TextureMappingResult, opts Options) (*Frame, error) {
	q, dbg, err := QuantizeTextureMapping(res, opts)
	if err != nil {
		return nil, err
	}

	buf := codec.GetBuffer()
	if err = q.encode(buf, opts.Compress); err != nil {
		codec.PutBuffer(buf)
		return nil, err
	}
	return &Frame{buf: buf, Debug: dbg}, nil
}

// Quantize and encode a vertex mapping result.
func EncodeVertexMapping(res *lighting.VertexMappingResult, opts Options) (*Frame, error) {
	q, dbg, err := QuantizeVertexMapping(res, opts)
	if err != nil {
		return nil, err
	}

	buf := codec.GetBuffer()
	if err = q.encode(buf, opts.Compress); err != nil {
		codec.PutBuffer(buf)
		return nil, err
	}
	return &Frame{buf: buf, Debug: dbg}, nil
}

// Serialize the mapping. The compressed size fields of the light map and
// shadow map headers are filled in as a side effect.
func (q *QuantizedTextureMapping) encode(w io.Writer, compress bool) error {
	payload, err := packPayload(q.Samples, compress, &q.LightMap.CompressedDataSize)
	if err != nil {
		return err
	}

	shadowPayloads := make([][]byte, len(q.ShadowMaps))
	for idx := range q.ShadowMaps {
		if shadowPayloads[idx], err = packPayload(q.ShadowMaps[idx].Samples, compress, &q.ShadowMaps[idx].Header.CompressedDataSize); err != nil {
			return err
		}
	}

	sdfPayloads := make([][]byte, len(q.SignedDistanceFieldShadowMaps))
	for idx := range q.SignedDistanceFieldShadowMaps {
		if sdfPayloads[idx], err = packPayload(q.SignedDistanceFieldShadowMaps[idx].Samples, compress, &q.SignedDistanceFieldShadowMaps[idx].Header.CompressedDataSize); err != nil {
			return err
		}
	}

	fw := &frameWriter{w: w}
	fw.put(TextureMappingHeaderData{
		Guid:                              q.Guid,
		ExecutionTime:                     q.ExecutionTime,
		LightMap:                          q.LightMap,
		ShadowMapCount:                    int32(len(q.ShadowMaps)),
		SignedDistanceFieldShadowMapCount: int32(len(q.SignedDistanceFieldShadowMaps)),
		LightCount:                        int32(len(q.Lights)),
	})
	fw.putSlice(q.Lights)
	fw.raw(payload)
	fw.put(q.PreviewEnvironmentShadowing)
	for idx, sm := range q.ShadowMaps {
		fw.put(sm.LightGuid)
		fw.put(sm.Header)
		fw.raw(shadowPayloads[idx])
	}
	for idx, sm := range q.SignedDistanceFieldShadowMaps {
		fw.put(sm.LightGuid)
		fw.put(sm.Header)
		fw.raw(sdfPayloads[idx])
	}
	return fw.err
}

func (q *QuantizedVertexMapping) encode(w io.Writer, compress bool) error {
	payload, err := packPayload(q.Samples, compress, &q.LightMap.CompressedDataSize)
	if err != nil {
		return err
	}

	fw := &frameWriter{w: w}
	fw.put(VertexMappingHeaderData{
		Guid:           q.Guid,
		ExecutionTime:  q.ExecutionTime,
		LightMap:       q.LightMap,
		ShadowMapCount: int32(len(q.ShadowMaps)),
		LightCount:     int32(len(q.Lights)),
	})
	fw.putSlice(q.Lights)
	fw.raw(payload)
	fw.put(q.PreviewEnvironmentShadowing)
	for _, sm := range q.ShadowMaps {
		fw.put(sm.LightGuid)
		fw.put(ShadowMapData1DData{NumSamples: uint32(len(sm.Visibility))})
		fw.putSlice(sm.Visibility)
	}
	return fw.err
}

// Pack samples into a payload block. The block is compressed only when
// compression is requested and shrinks it; compressedSize is set to the
// compressed length or to zero for raw blocks.
func packPayload[T any](samples []T, compress bool, compressedSize *uint32) ([]byte, error) {
	*compressedSize = 0
	if len(samples) == 0 {
		return nil, nil
	}

	var raw bytes.Buffer
	if err := codec.Write(&raw, samples); err != nil {
		return nil, err
	}
	if !compress {
		return raw.Bytes(), nil
	}

	packed, err := codec.Compress(raw.Bytes())
	if err != nil {
		return nil, err
	}
	if len(packed) >= raw.Len() {
		return raw.Bytes(), nil
	}
	*compressedSize = uint32(len(packed))
	return packed, nil
}

type frameWriter struct {
	w   io.Writer
	err error
}

func (fw *frameWriter) put(v interface{}) {
	if fw.err != nil {
		return
	}
	fw.err = codec.Write(fw.w, v)
}

func (fw *frameWriter) putSlice(v interface{}) {
	if fw.err != nil || codec.Size(v) == 0 {
		return
	}
	fw.err = codec.Write(fw.w, v)
}

func (fw *frameWriter) raw(data []byte) {
	if fw.err != nil || len(data) == 0 {
		return
	}
	_, fw.err = fw.w.Write(data)
}
