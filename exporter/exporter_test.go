package exporter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/achilleasa/lightbake/codec"
	"github.com/achilleasa/lightbake/editor"
	"github.com/achilleasa/lightbake/encoder"
	"github.com/achilleasa/lightbake/fabric"
	"github.com/achilleasa/lightbake/lighting"
	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/types"
	"github.com/chewxy/math32"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var lightGuid = types.MustParseGuid("00000000-0000-0000-0000-000000000003")

func guid(d uint32) types.Guid {
	return types.Guid{D: d}
}

func vertexResult(g types.Guid, numSamples int) *lighting.VertexMappingResult {
	res := &lighting.VertexMappingResult{
		Guid:    g,
		Samples: make([]lighting.LightSample, numSamples),
		Lights:  []types.Guid{lightGuid},
	}
	for idx := range res.Samples {
		res.Samples[idx].Mapped = true
		res.Samples[idx].Coefficients[lighting.SimpleCoefficientIndex] = [3]float32{float32(idx), 1, 0.5}
	}
	return res
}

func newTestExporter(opts Options) (*Exporter, *fabric.Memory) {
	mem := fabric.NewMemory()
	return New(fabric.NewSession(mem), opts), mem
}

func TestPerTaskExport(t *testing.T) {
	exp, mem := newTestExporter(Options{Encoder: encoder.Options{Compress: true}})

	tex := &lighting.TextureMappingResult{
		Guid:    guid(2),
		SizeX:   2,
		SizeY:   2,
		Samples: []lighting.LightSample{{Mapped: true}, {Mapped: true}, {}, {Mapped: true}},
		Lights:  []types.Guid{lightGuid},
	}
	if _, err := exp.ExportTextureMapping(tex); err != nil {
		t.Fatal(err)
	}
	if _, err := exp.ExportVertexMapping(vertexResult(guid(5), 3)); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{
		fabric.ChannelName(fabric.KindTextureMapping, guid(2)),
		fabric.ChannelName(fabric.KindVertexMapping, guid(5)),
	} {
		if _, exists := mem.Get(name); !exists {
			t.Fatalf("expected channel %s to be published", name)
		}
	}

	reader := fabric.NewSession(mem)
	q, err := editor.ReadTextureMapping(reader, guid(2))
	if err != nil {
		t.Fatal(err)
	}
	if q.Guid != guid(2) || len(q.Samples) != 4 || q.Samples[2].Coverage != 0 {
		t.Fatalf("unexpected texture mapping %+v", q)
	}

	v, err := editor.ReadVertexMapping(reader, guid(5))
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Lights) != 1 || v.Lights[0] != lightGuid {
		t.Fatalf("expected light list [%s]; got %v", lightGuid, v.Lights)
	}
}

func TestFailedEncodeWritesNothing(t *testing.T) {
	exp, mem := newTestExporter(Options{})

	bad := &lighting.TextureMappingResult{Guid: guid(9), SizeX: 4, SizeY: 4}
	if _, err := exp.ExportTextureMapping(bad); !errors.Is(err, encoder.ErrSampleCountMismatch) {
		t.Fatalf("expected error %v; got %v", encoder.ErrSampleCountMismatch, err)
	}
	if names := mem.List(); len(names) != 0 {
		t.Fatalf("expected no channels; got %v", names)
	}
}

func TestBatchedVertexMappings(t *testing.T) {
	exp, mem := newTestExporter(Options{})

	results := []*lighting.VertexMappingResult{
		vertexResult(guid(10), 3),
		vertexResult(guid(11), 5),
		vertexResult(guid(12), 1),
	}

	if err := exp.BeginExport(results[0], len(results)); err != nil {
		t.Fatal(err)
	}
	for _, res := range results {
		if _, err := exp.Export(res); err != nil {
			t.Fatal(err)
		}
	}
	if err := exp.EndExport(); err != nil {
		t.Fatal(err)
	}

	data, exists := mem.Get(fabric.ChannelName(fabric.KindVertexMapping, guid(10)))
	if !exists {
		t.Fatal("expected batch channel to be named after the first mapping")
	}
	var count uint32
	if err := codec.Read(bytes.NewReader(data), &count); err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("expected batch to start with 3; got %d", count)
	}

	mappings, err := editor.ReadVertexMappingBatch(fabric.NewSession(mem), guid(10))
	if err != nil {
		t.Fatal(err)
	}
	if len(mappings) != 3 {
		t.Fatalf("expected 3 mappings; got %d", len(mappings))
	}
	for idx, m := range mappings {
		if m.Guid != results[idx].Guid || int(m.LightMap.NumSamples) != len(results[idx].Samples) {
			t.Fatalf("[mapping %d] expected guid %s with %d samples; got %s with %d", idx, results[idx].Guid, len(results[idx].Samples), m.Guid, m.LightMap.NumSamples)
		}
	}
}

func TestBatchErrors(t *testing.T) {
	exp, mem := newTestExporter(Options{})
	first := vertexResult(guid(20), 2)

	if _, err := exp.Export(first); err != ErrNoBatch {
		t.Fatalf("expected %v; got %v", ErrNoBatch, err)
	}

	if err := exp.BeginExport(first, 1); err != nil {
		t.Fatal(err)
	}
	if err := exp.BeginExport(first, 1); err != ErrBatchInProgress {
		t.Fatalf("expected %v; got %v", ErrBatchInProgress, err)
	}
	tex := &lighting.TextureMappingResult{Guid: guid(21)}
	if _, err := exp.Export(tex); err != ErrBatchKindMismatch {
		t.Fatalf("expected %v; got %v", ErrBatchKindMismatch, err)
	}
	if _, err := exp.Export(first); err != nil {
		t.Fatal(err)
	}
	if _, err := exp.Export(first); err != ErrBatchOverflow {
		t.Fatalf("expected %v; got %v", ErrBatchOverflow, err)
	}
	if err := exp.EndExport(); err != nil {
		t.Fatal(err)
	}

	// An underflowing batch is discarded
	if err := exp.BeginExport(vertexResult(guid(22), 1), 2); err != nil {
		t.Fatal(err)
	}
	if _, err := exp.Export(vertexResult(guid(22), 1)); err != nil {
		t.Fatal(err)
	}
	if err := exp.EndExport(); !errors.Is(err, ErrBatchUnderflow) {
		t.Fatalf("expected %v; got %v", ErrBatchUnderflow, err)
	}
	if exp.InBatch() || exp.session.Depth() != 0 {
		t.Fatal("expected batch channel to be released")
	}
	if _, published := mem.Get(fabric.ChannelName(fabric.KindVertexMapping, guid(22))); published {
		t.Fatal("expected underflowing batch not to be published")
	}
}

func textureResult(g types.Guid) *lighting.TextureMappingResult {
	return &lighting.TextureMappingResult{
		Guid:    g,
		SizeX:   2,
		SizeY:   1,
		Samples: []lighting.LightSample{{Mapped: true}, {Mapped: true}},
		Lights:  []types.Guid{lightGuid},
	}
}

func TestExportFailureInsideBatch(t *testing.T) {
	exp, mem := newTestExporter(Options{})

	first := vertexResult(guid(25), 2)
	second := vertexResult(guid(26), 2)
	second.ShadowMaps = []lighting.ShadowMap1D{{LightGuid: lightGuid, Samples: make([]lighting.ShadowSample, 1)}}

	if err := exp.BeginExport(first, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := exp.Export(first); err != nil {
		t.Fatal(err)
	}
	if _, err := exp.Export(second); !errors.Is(err, encoder.ErrShadowMapSize) {
		t.Fatalf("expected error %v; got %v", encoder.ErrShadowMapSize, err)
	}
	if err := exp.EndExport(); !errors.Is(err, ErrBatchUnderflow) {
		t.Fatalf("expected %v; got %v", ErrBatchUnderflow, err)
	}
	if names := mem.List(); len(names) != 0 {
		t.Fatalf("expected no channel with a wrong mapping count; got %v", names)
	}

	// Encoding up front publishes the good mapping with a matching count
	out := exp.ExportBatch(fabric.KindVertexMapping, guid(25), []lighting.MappingResult{first, second})
	if out[0].Err != nil || !errors.Is(out[1].Err, encoder.ErrShadowMapSize) {
		t.Fatalf("expected only the second mapping to fail; got %v and %v", out[0].Err, out[1].Err)
	}
	mappings, err := editor.ReadVertexMappingBatch(fabric.NewSession(mem), guid(25))
	if err != nil {
		t.Fatal(err)
	}
	if len(mappings) != 1 || mappings[0].Guid != guid(25) {
		t.Fatalf("expected a batch holding mapping %s; got %d mappings", guid(25), len(mappings))
	}
}

func TestExportBatch(t *testing.T) {
	bad := &lighting.TextureMappingResult{Guid: guid(32), SizeX: 4, SizeY: 4}

	specs := []struct {
		results  []lighting.MappingResult
		expCount int
		expErrs  []error
	}{
		{
			[]lighting.MappingResult{textureResult(guid(31)), bad, textureResult(guid(33))},
			2,
			[]error{nil, encoder.ErrSampleCountMismatch, nil},
		},
		{
			[]lighting.MappingResult{textureResult(guid(31)), vertexResult(guid(34), 1)},
			1,
			[]error{nil, ErrBatchKindMismatch},
		},
		{
			[]lighting.MappingResult{bad},
			0,
			[]error{encoder.ErrSampleCountMismatch},
		},
	}

	for specIndex, spec := range specs {
		exp, mem := newTestExporter(Options{})

		// The channel is named after the planned first mapping even if it
		// is not part of the results
		out := exp.ExportBatch(fabric.KindTextureMapping, guid(30), spec.results)
		if len(out) != len(spec.results) {
			t.Fatalf("[spec %d] expected %d results; got %d", specIndex, len(spec.results), len(out))
		}
		for idx, res := range out {
			if res.Guid != spec.results[idx].MappingGuid() {
				t.Fatalf("[spec %d] expected result %d to be %s; got %s", specIndex, idx, spec.results[idx].MappingGuid(), res.Guid)
			}
			if !errors.Is(res.Err, spec.expErrs[idx]) {
				t.Fatalf("[spec %d] expected result %d error %v; got %v", specIndex, idx, spec.expErrs[idx], res.Err)
			}
		}
		if exp.InBatch() || exp.session.Depth() != 0 {
			t.Fatalf("[spec %d] expected batch to be closed", specIndex)
		}

		if spec.expCount == 0 {
			if names := mem.List(); len(names) != 0 {
				t.Fatalf("[spec %d] expected nothing to be written; got %v", specIndex, names)
			}
			continue
		}

		mappings, err := editor.ReadTextureMappingBatch(fabric.NewSession(mem), guid(30))
		if err != nil {
			t.Fatalf("[spec %d] %v", specIndex, err)
		}
		if len(mappings) != spec.expCount {
			t.Fatalf("[spec %d] expected %d mappings; got %d", specIndex, spec.expCount, len(mappings))
		}
		if mappings[0].Guid != guid(31) {
			t.Fatalf("[spec %d] expected first mapping %s; got %s", specIndex, guid(31), mappings[0].Guid)
		}
	}
}

func TestDominantShadowExport(t *testing.T) {
	exp, mem := newTestExporter(Options{})

	res := &lighting.DominantShadowResult{
		Info: lighting.DominantLightShadowInfo{
			LightGuid:      lightGuid,
			ShadowMapSizeX: 16,
			ShadowMapSizeY: 16,
		},
		Samples: make([]lighting.DominantLightShadowSample, 256),
	}
	for i := 0; i < 16; i++ {
		res.Samples[i*16+i] = lighting.DominantLightShadowSample{Distance: uint16(i), Mapped: true}
	}
	if err := exp.ExportDominantShadow(res); err != nil {
		t.Fatal(err)
	}

	got, err := editor.ReadDominantShadow(fabric.NewSession(mem), lightGuid)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Samples) != 256 {
		t.Fatalf("expected 256 samples; got %d", len(got.Samples))
	}
	for idx, s := range got.Samples {
		onDiagonal := idx/16 == idx%16
		if s.Mapped != onDiagonal {
			t.Fatalf("[sample %d] expected mapped to be %t; got %t", idx, onDiagonal, s.Mapped)
		}
	}
}

func TestVisibilityExport(t *testing.T) {
	exp, mem := newTestExporter(Options{})
	task := guid(40)

	res := &lighting.VisibilityResult{
		TaskGuid: task,
		Cells: []lighting.VisibilityCell{
			{Bounds: types.BoxFromCorners(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1)), Data: []byte{0xFF, 0x00, 0x00, 0x00}},
			{Bounds: types.BoxFromCorners(types.XYZ(2, 2, 2), types.XYZ(3, 3, 3)), Data: []byte{0x00, 0x00, 0x00, 0xFF}},
		},
	}
	if err := exp.ExportVisibility(res); err != nil {
		t.Fatal(err)
	}

	got, err := editor.ReadVisibility(fabric.NewSession(mem), task)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(res, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("visibility mismatch (-exp +got):\n%s", diff)
	}
}

func TestVolumeLightingExport(t *testing.T) {
	exp, mem := newTestExporter(Options{})

	res := &lighting.VolumeLightingResult{
		Center: types.XYZW(0, 0, 0, 0),
		Extent: types.XYZW(4, 4, 4, 0),
		Bricks: []lighting.VolumeBrick{
			{BrickId: 0, Samples: []lighting.VolumeLightingSample{{PositionAndRadius: types.XYZW(1, 1, 1, 2)}}},
			{BrickId: 7, Samples: []lighting.VolumeLightingSample{{ShadowedFromDominantLights: true}, {}}},
		},
		DebugSamples: []lighting.VolumeLightingDebugSample{{PositionAndRadius: types.XYZW(1, 1, 1, 2)}},
	}
	if err := exp.ExportVolumeLighting(res); err != nil {
		t.Fatal(err)
	}

	reader := fabric.NewSession(mem)
	dbg, err := editor.ReadVolumeLightingDebugSamples(reader)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(dbg, res.DebugSamples) {
		t.Fatalf("expected debug samples %v; got %v", res.DebugSamples, dbg)
	}

	got, err := editor.ReadVolumeLighting(reader)
	if err != nil {
		t.Fatal(err)
	}
	got.DebugSamples = dbg
	if diff := cmp.Diff(res, got); diff != "" {
		t.Fatalf("volume lighting mismatch (-exp +got):\n%s", diff)
	}
}

func TestVolumeDistanceFieldAndMeshAreaLightsShareKind(t *testing.T) {
	exp, mem := newTestExporter(Options{})

	vdf := &lighting.VolumeDistanceField{
		VolumeDistanceFieldData: lighting.VolumeDistanceFieldData{SizeX: 2, SizeY: 1, SizeZ: 1, MaxDistance: 3},
		Voxels:                  []types.Color{{A: 255}, {R: 10, A: 128}},
	}
	lights := []lighting.MeshAreaLightData{{LevelId: 1, Radius: 5}}

	if err := exp.ExportVolumeDistanceField(vdf); err != nil {
		t.Fatal(err)
	}
	if err := exp.ExportMeshAreaLights(lights); err != nil {
		t.Fatal(err)
	}
	if names := mem.List(); len(names) != 2 {
		t.Fatalf("expected 2 distinct channels; got %v", names)
	}

	reader := fabric.NewSession(mem)
	gotVdf, err := editor.ReadVolumeDistanceField(reader)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(vdf, gotVdf); diff != "" {
		t.Fatalf("distance field mismatch (-exp +got):\n%s", diff)
	}
	gotLights, err := editor.ReadMeshAreaLights(reader)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(lights, gotLights) {
		t.Fatalf("expected lights %v; got %v", lights, gotLights)
	}
}

func TestDebugOutputExport(t *testing.T) {
	type spec struct {
		enabled bool
		sample  *encoder.DebugSample
	}

	specs := []spec{
		{false, nil},
		{true, &encoder.DebugSample{Index: 3, Original: lighting.LightSample{Mapped: true}}},
	}

	for specIndex, s := range specs {
		exp, mem := newTestExporter(Options{})

		rec := lighting.NewDebugRecorder(s.enabled)
		rec.ShadowRay(types.XYZ(0, 0, 0), types.XYZ(0, 0, 1), false)
		rec.PathRay(types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), true)
		out := rec.Output()

		if err := exp.ExportDebugOutput(out, s.sample); err != nil {
			t.Fatalf("[spec %d] %v", specIndex, err)
		}

		got, sample, err := editor.ReadDebugOutput(fabric.NewSession(mem))
		if err != nil {
			t.Fatalf("[spec %d] %v", specIndex, err)
		}
		if diff := cmp.Diff(out, got, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("[spec %d] debug output mismatch (-exp +got):\n%s", specIndex, diff)
		}
		if (sample != nil) != (s.sample != nil) {
			t.Fatalf("[spec %d] expected debug sample presence %t; got %t", specIndex, s.sample != nil, sample != nil)
		}
		if sample != nil && sample.Index != 3 {
			t.Fatalf("[spec %d] expected debug sample index 3; got %d", specIndex, sample.Index)
		}

		// Debug channels are ephemeral
		if names := mem.List(); len(names) != 0 {
			t.Fatalf("[spec %d] expected debug channel to be consumed; got %v", specIndex, names)
		}
	}
}

func TestDebugSampleOnlyForDebugMapping(t *testing.T) {
	opts := Options{
		Encoder:      encoder.Options{DebugSampleIndex: 0},
		DebugMapping: guid(50),
	}
	exp, _ := newTestExporter(opts)

	sample, err := exp.ExportVertexMapping(vertexResult(guid(51), 2))
	if err != nil {
		t.Fatal(err)
	}
	if sample != nil {
		t.Fatal("expected no debug sample for a regular mapping")
	}

	sample, err = exp.ExportVertexMapping(vertexResult(guid(50), 2))
	if err != nil {
		t.Fatal(err)
	}
	if sample == nil || sample.Index != 0 {
		t.Fatalf("expected debug sample 0 for the debug mapping; got %+v", sample)
	}
}

func TestSynthesizeMeshAreaLights(t *testing.T) {
	quad := []scene.EmissiveTriangle{
		{V0: types.XYZW(0, 0, 0, 1), V1: types.XYZW(2, 0, 0, 1), V2: types.XYZW(2, 2, 0, 1)},
		{V0: types.XYZW(0, 0, 0, 1), V1: types.XYZW(2, 2, 0, 1), V2: types.XYZW(0, 2, 0, 1)},
	}
	lights := []*scene.MeshAreaLight{
		{
			MeshAreaLightHeader: scene.MeshAreaLightHeader{
				LevelId:         2,
				EmissiveColor:   types.RGB(4, 2, 1),
				FalloffExponent: 2,
				InfluenceRadius: 10,
			},
			Triangles: quad,
		},
		// degenerate lights are skipped
		{Triangles: []scene.EmissiveTriangle{{}}},
	}

	out := SynthesizeMeshAreaLights(lights, 0.5)
	if len(out) != 1 {
		t.Fatalf("expected 1 light; got %d", len(out))
	}

	l := out[0]
	expPos := types.XYZW(1, 1, 0.5, 1)
	for i := 0; i < 4; i++ {
		if math32.Abs(l.Position[i]-expPos[i]) > 1e-5 {
			t.Fatalf("expected position %v; got %v", expPos, l.Position)
		}
	}
	if l.Direction != types.XYZW(0, 0, 1, 0) {
		t.Fatalf("expected direction +Z; got %v", l.Direction)
	}
	if l.Brightness != 4 || l.Color.R != 1 || l.Color.G != 0.5 || l.Color.B != 0.25 {
		t.Fatalf("expected normalized color with brightness 4; got %+v at %f", l.Color, l.Brightness)
	}
	if l.ConeAngle != math32.Pi/2 || l.Radius != 10 || l.LevelId != 2 || l.FalloffExponent != 2 {
		t.Fatalf("unexpected light parameters %+v", l)
	}
}
