// Package exporter writes solver results to fabric channels.
package exporter

import (
	"fmt"

	"github.com/achilleasa/lightbake/codec"
	"github.com/achilleasa/lightbake/encoder"
	"github.com/achilleasa/lightbake/fabric"
	"github.com/achilleasa/lightbake/lighting"
	"github.com/achilleasa/lightbake/log"
	"github.com/achilleasa/lightbake/types"
)

// Options for the result exporter.
type Options struct {
	Encoder encoder.Options

	// Quantization debugging is only captured for this mapping.
	DebugMapping types.Guid
}

type batchState struct {
	kind      fabric.Kind
	channel   string
	announced int
	exported  int
	broken    bool
}

// An Exporter encodes results and writes them through a session. Like the
// session it wraps, an exporter belongs to a single goroutine.
type Exporter struct {
	logger  log.Logger
	session *fabric.Session
	opts    Options
	batch   *batchState
}

// Create a new exporter on top of session.
func New(session *fabric.Session, opts Options) *Exporter {
	return &Exporter{
		logger:  log.New("exporter"),
		session: session,
		opts:    opts,
	}
}

func (e *Exporter) encoderOptions(guid types.Guid) encoder.Options {
	opts := e.opts.Encoder
	if e.opts.DebugMapping.IsZero() || guid != e.opts.DebugMapping {
		opts.DebugSampleIndex = -1
	}
	return opts
}

// Export a texture mapping to its own channel.
func (e *Exporter) ExportTextureMapping(res *lighting.TextureMappingResult) (*encoder.DebugSample, error) {
	frame, err := encoder.EncodeTextureMapping(res, e.encoderOptions(res.Guid))
	if err != nil {
		return nil, fmt.Errorf("encoding texture mapping %s: %w", res.Guid, err)
	}
	defer frame.Release()

	if err = e.writeChannel(fabric.KindTextureMapping, res.Guid, frame.Bytes()); err != nil {
		return nil, err
	}
	return frame.Debug, nil
}

// Export a vertex mapping to its own channel.
func (e *Exporter) ExportVertexMapping(res *lighting.VertexMappingResult) (*encoder.DebugSample, error) {
	frame, err := encoder.EncodeVertexMapping(res, e.encoderOptions(res.Guid))
	if err != nil {
		return nil, fmt.Errorf("encoding vertex mapping %s: %w", res.Guid, err)
	}
	defer frame.Release()

	if err = e.writeChannel(fabric.KindVertexMapping, res.Guid, frame.Bytes()); err != nil {
		return nil, err
	}
	return frame.Debug, nil
}

// Open a batch channel named after first and announce numMappings results.
// first still has to be passed to Export.
func (e *Exporter) BeginExport(first lighting.MappingResult, numMappings int) error {
	kind, err := resultKind(first)
	if err != nil {
		return err
	}
	return e.beginBatch(kind, first.MappingGuid(), numMappings)
}

func (e *Exporter) beginBatch(kind fabric.Kind, guid types.Guid, numMappings int) error {
	if e.batch != nil {
		return ErrBatchInProgress
	}
	if _, err := e.session.OpenKind(kind, guid, fabric.ModeWrite); err != nil {
		return err
	}
	if err := e.put(uint32(numMappings)); err != nil {
		_ = e.session.AbortCurrentChannel()
		return err
	}

	e.batch = &batchState{
		kind:      kind,
		channel:   fabric.ChannelName(kind, guid),
		announced: numMappings,
	}
	e.logger.Debugf("opened batch %s for %d mappings", e.batch.channel, numMappings)
	return nil
}

// Append a result to the open batch. A result that fails to encode is not
// written; the batch can then no longer be published.
func (e *Exporter) Export(res lighting.MappingResult) (*encoder.DebugSample, error) {
	if e.batch == nil {
		return nil, ErrNoBatch
	}
	if e.batch.exported >= e.batch.announced {
		return nil, ErrBatchOverflow
	}
	kind, err := resultKind(res)
	if err != nil {
		return nil, err
	}
	if kind != e.batch.kind {
		return nil, ErrBatchKindMismatch
	}

	frame, err := e.encode(res)
	if err != nil {
		return nil, err
	}
	defer frame.Release()

	if err = e.writeFrame(frame); err != nil {
		return nil, err
	}
	return frame.Debug, nil
}

func (e *Exporter) writeFrame(frame *encoder.Frame) error {
	if _, err := e.session.Write(frame.Bytes()); err != nil {
		e.batch.broken = true
		return err
	}
	e.batch.exported++
	return nil
}

// Close the open batch. If fewer results than announced were exported or a
// write failed, the channel is discarded instead of published.
func (e *Exporter) EndExport() error {
	if e.batch == nil {
		return ErrNoBatch
	}
	batch := e.batch
	e.batch = nil

	if batch.broken || batch.exported != batch.announced {
		if err := e.session.AbortCurrentChannel(); err != nil {
			e.logger.Warningf("discarding batch %s: %v", batch.channel, err)
		}
		return fmt.Errorf("%w: %s has %d of %d mappings", ErrBatchUnderflow, batch.channel, batch.exported, batch.announced)
	}
	return e.session.CloseCurrentChannel()
}

// The outcome of a single mapping in ExportBatch.
type BatchResult struct {
	Guid  types.Guid
	Debug *encoder.DebugSample
	Err   error
}

// Export results to a single batch channel named after firstGuid. Every
// result is encoded before the channel is opened so the announced count only
// covers mappings that made it into a frame; results that fail to encode are
// reported individually. If writing the channel fails, it is discarded and
// every encoded result reports the error. Nothing is written if no result
// could be encoded.
func (e *Exporter) ExportBatch(kind fabric.Kind, firstGuid types.Guid, results []lighting.MappingResult) []BatchResult {
	out := make([]BatchResult, len(results))
	frames := make([]*encoder.Frame, len(results))
	defer func() {
		for _, frame := range frames {
			if frame != nil {
				frame.Release()
			}
		}
	}()

	var numFrames int
	for idx, res := range results {
		out[idx].Guid = res.MappingGuid()
		resKind, err := resultKind(res)
		if err == nil && resKind != kind {
			err = ErrBatchKindMismatch
		}
		if err == nil {
			frames[idx], err = e.encode(res)
		}
		if err != nil {
			out[idx].Err = err
			continue
		}
		numFrames++
	}
	if numFrames == 0 {
		return out
	}

	err := e.beginBatch(kind, firstGuid, numFrames)
	if err == nil {
		for _, frame := range frames {
			if frame == nil {
				continue
			}
			if err = e.writeFrame(frame); err != nil {
				break
			}
		}
		if endErr := e.EndExport(); err == nil {
			err = endErr
		}
	}

	for idx, frame := range frames {
		if frame == nil {
			continue
		}
		if err != nil {
			out[idx].Err = err
			continue
		}
		out[idx].Debug = frame.Debug
	}
	return out
}

// Returns true while a batch is open.
func (e *Exporter) InBatch() bool {
	return e.batch != nil
}

func resultKind(res lighting.MappingResult) (fabric.Kind, error) {
	switch res.(type) {
	case *lighting.TextureMappingResult:
		return fabric.KindTextureMapping, nil
	case *lighting.VertexMappingResult:
		return fabric.KindVertexMapping, nil
	}
	return 0, ErrUnsupportedResult
}

// Open a channel, write data and close it. The channel is discarded if the
// write fails.
func (e *Exporter) writeChannel(kind fabric.Kind, guid types.Guid, data []byte) error {
	if _, err := e.session.OpenKind(kind, guid, fabric.ModeWrite); err != nil {
		return err
	}
	if _, err := e.session.Write(data); err != nil {
		_ = e.session.AbortCurrentChannel()
		return err
	}
	return e.session.CloseCurrentChannel()
}

func (e *Exporter) encode(res lighting.MappingResult) (*encoder.Frame, error) {
	var (
		frame *encoder.Frame
		err   error
	)
	switch r := res.(type) {
	case *lighting.TextureMappingResult:
		frame, err = encoder.EncodeTextureMapping(r, e.encoderOptions(r.Guid))
	case *lighting.VertexMappingResult:
		frame, err = encoder.EncodeVertexMapping(r, e.encoderOptions(r.Guid))
	default:
		return nil, ErrUnsupportedResult
	}
	if err != nil {
		return nil, fmt.Errorf("encoding mapping %s: %w", res.MappingGuid(), err)
	}
	return frame, nil
}

func (e *Exporter) put(v interface{}) error {
	return codec.Write(e.session, v)
}
