// Package editor parses the result channels a bake produces, the way the
// editor consumes them.
package editor

import (
	"fmt"
	"io"

	"github.com/achilleasa/lightbake/codec"
	"github.com/achilleasa/lightbake/encoder"
	"github.com/achilleasa/lightbake/fabric"
	"github.com/achilleasa/lightbake/types"
)

// Open the channel for kind and guid, run body over it and close it.
func readChannel(s *fabric.Session, kind fabric.Kind, guid types.Guid, body func(r io.Reader) error) error {
	if _, err := s.OpenKind(kind, guid, fabric.ModeRead); err != nil {
		return err
	}
	err := body(s)
	closeErr := s.CloseCurrentChannel()
	if err != nil {
		return fmt.Errorf("reading %s: %w", fabric.ChannelName(kind, guid), err)
	}
	return closeErr
}

// Read a texture mapping exported to its own channel.
func ReadTextureMapping(s *fabric.Session, guid types.Guid) (q *encoder.QuantizedTextureMapping, err error) {
	err = readChannel(s, fabric.KindTextureMapping, guid, func(r io.Reader) error {
		q, err = encoder.DecodeTextureMapping(r)
		return err
	})
	return q, err
}

// Read a vertex mapping exported to its own channel.
func ReadVertexMapping(s *fabric.Session, guid types.Guid) (q *encoder.QuantizedVertexMapping, err error) {
	err = readChannel(s, fabric.KindVertexMapping, guid, func(r io.Reader) error {
		q, err = encoder.DecodeVertexMapping(r)
		return err
	})
	return q, err
}

// Read a batch of texture mappings from the channel named after the first
// mapping of the batch.
func ReadTextureMappingBatch(s *fabric.Session, firstGuid types.Guid) (out []*encoder.QuantizedTextureMapping, err error) {
	err = readChannel(s, fabric.KindTextureMapping, firstGuid, func(r io.Reader) error {
		return readBatch(r, func(r io.Reader) error {
			q, err := encoder.DecodeTextureMapping(r)
			if err == nil {
				out = append(out, q)
			}
			return err
		})
	})
	return out, err
}

// Read a batch of vertex mappings.
func ReadVertexMappingBatch(s *fabric.Session, firstGuid types.Guid) (out []*encoder.QuantizedVertexMapping, err error) {
	err = readChannel(s, fabric.KindVertexMapping, firstGuid, func(r io.Reader) error {
		return readBatch(r, func(r io.Reader) error {
			q, err := encoder.DecodeVertexMapping(r)
			if err == nil {
				out = append(out, q)
			}
			return err
		})
	})
	return out, err
}

func readBatch(r io.Reader, decodeOne func(r io.Reader) error) error {
	var count uint32
	if err := codec.Read(r, &count); err != nil {
		return err
	}
	if count > codec.MaxArrayLength {
		return codec.ErrArrayTooLarge
	}
	for idx := uint32(0); idx < count; idx++ {
		if err := decodeOne(r); err != nil {
			return fmt.Errorf("mapping %d of %d: %w", idx, count, err)
		}
	}
	return nil
}
