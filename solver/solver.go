// Package solver computes lighting for the tasks of a plan.
package solver

import (
	"context"

	"github.com/achilleasa/lightbake/lighting"
	"github.com/achilleasa/lightbake/log"
	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/solver/bvh"
	"github.com/achilleasa/lightbake/types"
)

// The Solver interface is implemented by lighting solvers. Implementations
// must be safe for concurrent use; the scene they operate on is read only.
//
// The debug recorder passed to each call is disabled unless the task is the
// nominated debug task.
type Solver interface {
	TextureMapping(ctx context.Context, m *scene.TextureMapping, dbg *lighting.DebugRecorder) (*lighting.TextureMappingResult, error)
	VertexMapping(ctx context.Context, m *scene.VertexMapping, dbg *lighting.DebugRecorder) (*lighting.VertexMappingResult, error)
	VolumeSamples(ctx context.Context, dbg *lighting.DebugRecorder) (*lighting.VolumeLightingResult, error)
	VolumeDistanceField(ctx context.Context) (*lighting.VolumeDistanceField, error)
	DominantShadow(ctx context.Context, light *scene.Light) (*lighting.DominantShadowResult, error)
	Visibility(ctx context.Context, task *scene.VisibilityTask) (*lighting.VisibilityResult, error)
}

// Options for the direct lighting solver.
type Options struct {
	// Number of hemisphere directions used to estimate sky visibility.
	SkySamples int

	// Offset applied along the surface normal before tracing shadow rays.
	RayBias float32

	// Record the rays traced for visibility tasks.
	DebugVisibility bool

	// Upper bound for volume grid samples.
	MaxVolumeSamples int
}

func DefaultOptions() Options {
	return Options{
		SkySamples:       32,
		RayBias:          1e-3,
		MaxVolumeSamples: 1 << 20,
	}
}

// Direct is a reference solver that computes direct lighting from the scene
// lights with ray traced shadows. It does not simulate interreflections.
type Direct struct {
	logger log.Logger
	sc     *scene.Scene
	opts   Options

	// Shadow casting geometry.
	tree *bvh.Tree

	// Bounds of the shadow casting geometry.
	bounds types.Box

	skyDirs []types.Vec3
}

// Create a direct lighting solver for a resolved scene.
func NewDirect(sc *scene.Scene, opts Options) *Direct {
	if opts.SkySamples <= 0 {
		opts.SkySamples = DefaultOptions().SkySamples
	}
	if opts.MaxVolumeSamples <= 0 {
		opts.MaxVolumeSamples = DefaultOptions().MaxVolumeSamples
	}

	s := &Direct{
		logger:  log.New("solver"),
		sc:      sc,
		opts:    opts,
		bounds:  types.EmptyBox(),
		skyDirs: hemisphereDirections(opts.SkySamples),
	}

	triangles := s.collectOccluders()
	for _, tri := range triangles {
		s.bounds = s.bounds.Extend(tri.V0).Extend(tri.V1).Extend(tri.V2)
	}
	s.tree = bvh.NewTree(triangles)
	s.logger.Infof("built occluder BVH with %d triangles and %d nodes", len(s.tree.Triangles), len(s.tree.Nodes))
	return s
}

// Collect the triangles of the first LOD of every shadow casting mesh.
func (s *Direct) collectOccluders() []bvh.Triangle {
	var triangles []bvh.Triangle
	for meshIndex, mesh := range s.sc.Meshes {
		sm, isStatic := mesh.(*scene.StaticMesh)
		if !isStatic || len(sm.LODs) == 0 || sm.LightingFlags&scene.MeshCastShadow == 0 {
			continue
		}
		lod := &sm.LODs[0]
		for _, elem := range lod.Elements {
			if !elem.CastShadow {
				continue
			}
			first := int(elem.FirstIndex / 3)
			for tri := first; tri < first+int(elem.NumPrimitives) && tri < lod.NumTriangles(); tri++ {
				v0, v1, v2 := lod.Triangle(tri)
				triangles = append(triangles, bvh.Triangle{
					V0:   v0.Position.Vec3(),
					V1:   v1.Position.Vec3(),
					V2:   v2.Position.Vec3(),
					Mesh: int32(meshIndex),
				})
			}
		}
	}
	return triangles
}

// Resolve the relevant lights of a mapping. Unknown guids were already
// dropped during import.
func (s *Direct) relevantLights(m *scene.BaseMapping) []*scene.Light {
	lights := make([]*scene.Light, 0, len(m.RelevantLights))
	for _, guid := range m.RelevantLights {
		if light, exists := s.sc.Light(guid); exists {
			lights = append(lights, light)
		}
	}
	return lights
}

// Test whether the segment from p along dir is blocked before maxDist.
func (s *Direct) occluded(p, dir types.Vec3, maxDist float32) bool {
	return s.tree.Occluded(p, dir, s.opts.RayBias, maxDist-s.opts.RayBias)
}
