package solver

import (
	"context"
	"errors"
	"testing"

	"github.com/achilleasa/lightbake/lighting"
	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/types"
	"github.com/chewxy/math32"
)

var (
	groundGuid   = types.Guid{D: 1}
	occluderGuid = types.Guid{D: 2}
	mappingGuid  = types.Guid{D: 10}
	vertexGuid   = types.Guid{D: 11}
	sunGuid      = types.Guid{D: 20}
	skyGuid      = types.Guid{D: 21}
	white        = types.Color{R: 255, G: 255, B: 255, A: 255}
)

func quad(guid types.Guid, lo, hi types.Vec2, z float32, uvScale float32) *scene.StaticMesh {
	up := types.XYZ(0, 0, 1)
	corner := func(x, y float32) scene.StaticMeshVertex {
		return scene.NewVertex(types.XYZ(x, y, z), up, types.XY(x*uvScale, y*uvScale))
	}
	return scene.NewStaticMesh(guid, []scene.StaticMeshVertex{
		corner(lo[0], lo[1]),
		corner(hi[0], lo[1]),
		corner(hi[0], hi[1]),
		corner(lo[0], hi[1]),
	}, []uint16{0, 1, 2, 0, 2, 3})
}

// A 10x10 ground quad lit from above with an occluder hovering over the
// half of the ground where x < 5.
func testScene(t *testing.T, sunFlags scene.LightFlags, modify func(sc *scene.Scene)) *scene.Scene {
	sc := scene.New(types.Guid{D: 0xFF})
	sc.Meshes = []scene.Mesh{
		quad(groundGuid, types.XY(0, 0), types.XY(10, 10), 0, 0.1),
		quad(occluderGuid, types.XY(-1, -1), types.XY(5, 11), 1, 0.1),
	}
	sc.Lights = []*scene.Light{
		{
			Guid:       sunGuid,
			Type:       scene.DirectionalLight,
			Flags:      scene.LightCastShadows | scene.LightCastStaticShadows | sunFlags,
			Color:      white,
			Brightness: 1,
			Direction:  types.XYZW(0, 0, -1, 0),
		},
		{
			Guid:       skyGuid,
			Type:       scene.SkyLight,
			Color:      white,
			Brightness: 1,
		},
	}
	sc.Mappings = []scene.Mapping{
		scene.NewTextureMapping(mappingGuid, groundGuid, 8, 8, sunGuid),
		scene.NewVertexMapping(vertexGuid, groundGuid, 1, sunGuid),
	}
	if modify != nil {
		modify(sc)
	}
	if err := sc.Resolve(scene.ImportOptions{}); err != nil {
		t.Fatal(err)
	}
	return sc
}

func textureMapping(t *testing.T, sc *scene.Scene) *scene.TextureMapping {
	m, found := sc.Mapping(mappingGuid)
	if !found {
		t.Fatal("texture mapping not found")
	}
	return m.(*scene.TextureMapping)
}

func TestTextureMappingDirectShadows(t *testing.T) {
	sc := testScene(t, 0, nil)
	s := NewDirect(sc, DefaultOptions())

	res, err := s.TextureMapping(context.Background(), textureMapping(t, sc), nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Lights) != 1 || res.Lights[0] != sunGuid {
		t.Fatalf("expected baked lights to be [%s]; got %v", sunGuid, res.Lights)
	}
	if len(res.ShadowMaps) != 0 || len(res.SignedDistanceFieldShadowMaps) != 0 {
		t.Fatalf("expected no shadow maps for a non-dominant light")
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			sample := res.Samples[y*8+x]
			if !sample.Mapped {
				t.Fatalf("expected texel (%d, %d) to be mapped", x, y)
			}
			expIntensity := float32(1)
			if x < 4 {
				expIntensity = 0
			}
			if got := sample.Coefficients[lighting.SimpleCoefficientIndex][0]; math32.Abs(got-expIntensity) > 1e-4 {
				t.Fatalf("expected texel (%d, %d) simple coefficient to be %f; got %f", x, y, expIntensity, got)
			}
		}
	}

	if res.PreviewEnvironmentShadowing != 1 {
		t.Fatalf("expected preview environment shadowing to be 1 without sky lights; got %f", res.PreviewEnvironmentShadowing)
	}
}

func TestTextureMappingShadowMaps(t *testing.T) {
	specs := []struct {
		flags     scene.LightFlags
		expShadow int
		expSDF    int
	}{
		{scene.LightDominant, 1, 0},
		{scene.LightUseSignedDistanceFieldShadows, 0, 1},
	}

	for specIndex, spec := range specs {
		sc := testScene(t, spec.flags, nil)
		res, err := NewDirect(sc, DefaultOptions()).TextureMapping(context.Background(), textureMapping(t, sc), nil)
		if err != nil {
			t.Fatalf("[spec %d] %v", specIndex, err)
		}

		if len(res.Lights) != 0 {
			t.Fatalf("[spec %d] expected no baked lights; got %v", specIndex, res.Lights)
		}
		if len(res.ShadowMaps) != spec.expShadow || len(res.SignedDistanceFieldShadowMaps) != spec.expSDF {
			t.Fatalf("[spec %d] expected %d shadow and %d SDF maps; got %d and %d", specIndex, spec.expShadow, spec.expSDF, len(res.ShadowMaps), len(res.SignedDistanceFieldShadowMaps))
		}

		for _, sm := range res.ShadowMaps {
			for x := 0; x < 8; x++ {
				expVisibility := float32(1)
				if x < 4 {
					expVisibility = 0
				}
				if got := sm.Samples[2*8+x].Visibility; got != expVisibility {
					t.Fatalf("[spec %d] expected visibility of texel %d to be %f; got %f", specIndex, x, expVisibility, got)
				}
			}
		}

		for _, sdf := range res.SignedDistanceFieldShadowMaps {
			// Texels are 1.25 units wide so the transition lies 0.625 units
			// from the centers of the texels on either side.
			if got := sdf.Samples[2*8+3].Distance; math32.Abs(got+0.625) > 1e-4 {
				t.Fatalf("[spec %d] expected shadowed texel distance to be -0.625; got %f", specIndex, got)
			}
			if got := sdf.Samples[2*8+4].Distance; math32.Abs(got-0.625) > 1e-4 {
				t.Fatalf("[spec %d] expected lit texel distance to be 0.625; got %f", specIndex, got)
			}
			if got := sdf.Samples[2*8].Distance; got != -sc.Constants.MaxSignedDistance {
				t.Fatalf("[spec %d] expected far texel distance to be clamped to %f; got %f", specIndex, -sc.Constants.MaxSignedDistance, got)
			}
		}
	}
}

func TestPaddedMappingLeavesBorderUnmapped(t *testing.T) {
	sc := testScene(t, 0, func(sc *scene.Scene) {
		sc.Mappings[0].Base().Padded = true
	})
	res, err := NewDirect(sc, DefaultOptions()).TextureMapping(context.Background(), textureMapping(t, sc), nil)
	if err != nil {
		t.Fatal(err)
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			expMapped := x > 0 && x < 7 && y > 0 && y < 7
			if got := res.Samples[y*8+x].Mapped; got != expMapped {
				t.Fatalf("expected texel (%d, %d) mapped flag to be %t; got %t", x, y, expMapped, got)
			}
		}
	}
}

func TestLightmapCoordinateFallback(t *testing.T) {
	specs := []struct {
		mappingIndex uint32
		meshIndex    uint32
		expHalf      bool
	}{
		// The mapping's UV set wins when valid
		{1, 0, false},
		{0, 1, true},
		// Out of range mapping index falls back to the mesh
		{5, 0, true},
		{5, 1, false},
	}

	for specIndex, spec := range specs {
		sc := testScene(t, 0, func(sc *scene.Scene) {
			ground := sc.Meshes[0].(*scene.StaticMesh)
			ground.LightmapCoordinateIndex = spec.meshIndex
			// UV set 0 only covers the left half of the light map
			for idx := range ground.LODs[0].Vertices {
				ground.LODs[0].Vertices[idx].TexCoords[0][0] *= 0.5
			}
			sc.Mappings[0].(*scene.TextureMapping).LightmapCoordinateIndex = spec.mappingIndex
		})
		res, err := NewDirect(sc, DefaultOptions()).TextureMapping(context.Background(), textureMapping(t, sc), nil)
		if err != nil {
			t.Fatal(err)
		}

		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				expMapped := !spec.expHalf || x < 4
				if got := res.Samples[y*8+x].Mapped; got != expMapped {
					t.Fatalf("[spec %d] expected texel (%d, %d) mapped flag to be %t; got %t", specIndex, x, y, expMapped, got)
				}
			}
		}
	}
}

func TestSkyVisibility(t *testing.T) {
	sc := testScene(t, 0, func(sc *scene.Scene) {
		sc.Mappings[0].Base().RelevantLights = append(sc.Mappings[0].Base().RelevantLights, skyGuid)
	})
	res, err := NewDirect(sc, DefaultOptions()).TextureMapping(context.Background(), textureMapping(t, sc), nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Lights) != 2 {
		t.Fatalf("expected sun and sky to be baked; got %v", res.Lights)
	}
	if res.PreviewEnvironmentShadowing <= 0 || res.PreviewEnvironmentShadowing >= 1 {
		t.Fatalf("expected partially occluded sky; got preview shadowing %f", res.PreviewEnvironmentShadowing)
	}
}

func TestVertexMapping(t *testing.T) {
	sc := testScene(t, scene.LightDominant, nil)
	m, _ := sc.Mapping(vertexGuid)

	res, err := NewDirect(sc, DefaultOptions()).VertexMapping(context.Background(), m.(*scene.VertexMapping), nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Samples) != 4 || len(res.ShadowMaps) != 1 {
		t.Fatalf("expected 4 samples and 1 shadow map; got %d and %d", len(res.Samples), len(res.ShadowMaps))
	}
	// Vertices 0 and 3 lie at x = 0 underneath the occluder.
	expVisibility := []float32{0, 1, 1, 0}
	for idx, exp := range expVisibility {
		if got := res.ShadowMaps[0].Samples[idx].Visibility; got != exp {
			t.Fatalf("expected vertex %d visibility to be %f; got %f", idx, exp, got)
		}
	}
}

func TestDebugRecording(t *testing.T) {
	sc := testScene(t, 0, func(sc *scene.Scene) {
		sc.Constants.DebugMappingGuid = mappingGuid
		sc.Constants.DebugSampleIndex = 9
	})
	s := NewDirect(sc, DefaultOptions())

	specs := []struct {
		enabled    bool
		expRays    int
		expCorners bool
	}{
		{false, 0, false},
		{true, 1, true},
	}
	for specIndex, spec := range specs {
		dbg := lighting.NewDebugRecorder(spec.enabled)
		if _, err := s.TextureMapping(context.Background(), textureMapping(t, sc), dbg); err != nil {
			t.Fatalf("[spec %d] %v", specIndex, err)
		}
		out := dbg.Output()
		if got := len(out.ShadowRays); got != spec.expRays {
			t.Fatalf("[spec %d] expected %d shadow rays; got %d", specIndex, spec.expRays, got)
		}
		if got := out.CornerValid[0]; got != spec.expCorners {
			t.Fatalf("[spec %d] expected corner valid flag to be %t; got %t", specIndex, spec.expCorners, got)
		}
	}
}

func TestCancelledMapping(t *testing.T) {
	sc := testScene(t, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDirect(sc, DefaultOptions()).TextureMapping(ctx, textureMapping(t, sc), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled; got %v", err)
	}
}

func TestVolumeSamples(t *testing.T) {
	sc := testScene(t, 0, func(sc *scene.Scene) {
		sc.Constants.VolumeLightingBounds = types.BoxFromCorners(types.XYZ(0, 0, 2), types.XYZ(3, 3, 2))
		sc.Constants.VolumeLightingSpacing = 1
		sc.Constants.VolumeBrickSize = 2
	})
	s := NewDirect(sc, DefaultOptions())

	res, err := s.VolumeSamples(context.Background(), lighting.NewDebugRecorder(true))
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Bricks) != 4 {
		t.Fatalf("expected 4 bricks; got %d", len(res.Bricks))
	}
	for idx, brick := range res.Bricks {
		if brick.BrickId != int32(idx) || len(brick.Samples) != 4 {
			t.Fatalf("expected brick %d to hold 4 samples; got id %d with %d samples", idx, brick.BrickId, len(brick.Samples))
		}
		for _, sample := range brick.Samples {
			if sample.IndirectRadiance.R != 255 || sample.ShadowedFromDominantLights {
				t.Fatalf("expected unshadowed white probe; got %+v", sample)
			}
		}
	}
	if len(res.DebugSamples) != 16 {
		t.Fatalf("expected 16 debug samples; got %d", len(res.DebugSamples))
	}

	// Volumes are optional.
	sc.Constants.VolumeLightingSpacing = 0
	if _, err = s.VolumeSamples(context.Background(), nil); !errors.Is(err, ErrEmptyVolume) {
		t.Fatalf("expected ErrEmptyVolume; got %v", err)
	}

	sc.Constants.VolumeLightingSpacing = 0.001
	if _, err = s.VolumeSamples(context.Background(), nil); !errors.Is(err, ErrVolumeTooLarge) {
		t.Fatalf("expected ErrVolumeTooLarge; got %v", err)
	}
}

func TestVolumeDistanceField(t *testing.T) {
	sc := testScene(t, 0, func(sc *scene.Scene) {
		sc.Constants.DistanceFieldBounds = types.BoxFromCorners(types.XYZ(1, 1, 0.5), types.XYZ(3, 3, 0.5))
		sc.Constants.DistanceFieldVoxelSize = 1
		sc.Constants.DistanceFieldMaxDistance = 8
	})

	res, err := NewDirect(sc, DefaultOptions()).VolumeDistanceField(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if res.SizeX != 3 || res.SizeY != 3 || res.SizeZ != 1 || len(res.Voxels) != 9 {
		t.Fatalf("expected a 3x3x1 grid; got %dx%dx%d with %d voxels", res.SizeX, res.SizeY, res.SizeZ, len(res.Voxels))
	}
	// Every voxel sits half way between the ground and the occluder.
	expDistance := uint8(math32.Round(0.5 / 8 * 255))
	for idx, voxel := range res.Voxels {
		if voxel.A != expDistance {
			t.Fatalf("expected voxel %d distance to be %d; got %d", idx, expDistance, voxel.A)
		}
	}
}

func TestDominantShadow(t *testing.T) {
	sc := testScene(t, scene.LightDominant, nil)
	light, _ := sc.Light(sunGuid)

	res, err := NewDirect(sc, DefaultOptions()).DominantShadow(context.Background(), light)
	if err != nil {
		t.Fatal(err)
	}

	// Light space x follows world y and light space y follows world x.
	sizeX, sizeY := int(res.Info.ShadowMapSizeX), int(res.Info.ShadowMapSizeY)
	if sizeX != 12 || sizeY != 11 || len(res.Samples) != sizeX*sizeY {
		t.Fatalf("expected a 12x11 shadow map; got %dx%d with %d samples", sizeX, sizeY, len(res.Samples))
	}

	specs := []struct {
		worldX, worldY float32
		expNear        bool
	}{
		{2.5, 5.5, true},
		{7.5, 5.5, false},
	}
	for specIndex, spec := range specs {
		col := int(spec.worldY - res.Info.LightSpaceBoundsMin[0])
		row := int(spec.worldX - res.Info.LightSpaceBoundsMin[1])
		sample := res.Samples[row*sizeX+col]
		if !sample.Mapped {
			t.Fatalf("[spec %d] expected sample to be mapped", specIndex)
		}
		if near := sample.Distance < 1000; near != spec.expNear {
			t.Fatalf("[spec %d] expected near occluder flag to be %t; got distance %d", specIndex, spec.expNear, sample.Distance)
		}
	}

	// Texels outside both quads see nothing.
	if sample := res.Samples[10*sizeX+0]; sample.Mapped {
		t.Fatalf("expected corner texel to be unmapped")
	}
}

func TestVisibility(t *testing.T) {
	hiddenGuid := types.Guid{D: 3}
	sc := testScene(t, 0, func(sc *scene.Scene) {
		sc.Meshes = append(sc.Meshes, quad(hiddenGuid, types.XY(4, 4), types.XY(6, 6), -1, 1))
		sc.VisibilityTasks = []*scene.VisibilityTask{
			{
				Guid:  types.Guid{D: 60},
				Cells: []types.Box{types.BoxFromCorners(types.XYZ(2, 4.5, 0.25), types.XYZ(3, 5.5, 0.75))},
			},
		}
	})
	opts := DefaultOptions()
	opts.DebugVisibility = true

	res, err := NewDirect(sc, opts).Visibility(context.Background(), sc.VisibilityTasks[0])
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Cells) != 1 {
		t.Fatalf("expected 1 cell; got %d", len(res.Cells))
	}
	// The ground and the occluder are visible; the quad below the ground is not.
	if got := res.Cells[0].Data; len(got) != 1 || got[0] != 0x03 {
		t.Fatalf("expected visibility bits 0x03; got %v", got)
	}
	if len(res.DebugRays) != 3 {
		t.Fatalf("expected 3 debug rays; got %d", len(res.DebugRays))
	}
}
