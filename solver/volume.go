package solver

import (
	"context"
	"fmt"

	"github.com/achilleasa/lightbake/lighting"
	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/types"
	"github.com/chewxy/math32"
)

// Voxel dimensions of a grid covering bounds with the given spacing.
func gridSize(bounds types.Box, spacing float32) [3]int {
	var dims [3]int
	for axis := 0; axis < 3; axis++ {
		span := bounds.Max[axis] - bounds.Min[axis]
		dims[axis] = max(1, int(math32.Floor(span/spacing))+1)
	}
	return dims
}

// Compute volume lighting probes on a regular grid inside the volume
// lighting bounds. Probes are grouped into cubic bricks.
func (s *Direct) VolumeSamples(ctx context.Context, dbg *lighting.DebugRecorder) (*lighting.VolumeLightingResult, error) {
	consts := &s.sc.Constants
	bounds, spacing := consts.VolumeLightingBounds, consts.VolumeLightingSpacing
	if bounds.IsEmpty() || spacing <= 0 {
		return nil, ErrEmptyVolume
	}

	dims := gridSize(bounds, spacing)
	if total := dims[0] * dims[1] * dims[2]; total > s.opts.MaxVolumeSamples {
		return nil, fmt.Errorf("%w: %d samples", ErrVolumeTooLarge, total)
	}
	brickSize := max(1, int(consts.VolumeBrickSize))
	var numBricks [3]int
	for axis := range numBricks {
		numBricks[axis] = (dims[axis] + brickSize - 1) / brickSize
	}

	var lights, skyLights []*scene.Light
	for _, light := range s.sc.Lights {
		if light.Type == scene.SkyLight {
			skyLights = append(skyLights, light)
		} else {
			lights = append(lights, light)
		}
	}

	res := &lighting.VolumeLightingResult{
		Center: bounds.Center().Vec4(0),
		Extent: bounds.Extent().Vec4(0),
	}
	radius := spacing * 0.5
	for bz := 0; bz < numBricks[2]; bz++ {
		for by := 0; by < numBricks[1]; by++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for bx := 0; bx < numBricks[0]; bx++ {
				brick := lighting.VolumeBrick{BrickId: int32((bz*numBricks[1]+by)*numBricks[0] + bx)}
				for z := bz * brickSize; z < min(dims[2], (bz+1)*brickSize); z++ {
					for y := by * brickSize; y < min(dims[1], (by+1)*brickSize); y++ {
						for x := bx * brickSize; x < min(dims[0], (bx+1)*brickSize); x++ {
							p := bounds.Min.Vec3().Add(types.XYZ(float32(x), float32(y), float32(z)).Mul(spacing))
							sample, indirect := s.volumeSample(p, radius, lights, skyLights)
							brick.Samples = append(brick.Samples, sample)
							if dbg.Enabled() {
								res.DebugSamples = append(res.DebugSamples, lighting.VolumeLightingDebugSample{
									PositionAndRadius: sample.PositionAndRadius,
									IndirectRadiance:  indirect,
								})
							}
						}
					}
				}
				res.Bricks = append(res.Bricks, brick)
			}
		}
	}

	return res, nil
}

// Shade a single probe. Returns the probe and its unquantized radiance.
func (s *Direct) volumeSample(p types.Vec3, radius float32, lights, skyLights []*scene.Light) (lighting.VolumeLightingSample, types.LinearColor) {
	sample := lighting.VolumeLightingSample{
		PositionAndRadius:    p.Vec4(radius),
		EnvironmentDirection: types.XYZW(0, 0, 1, 0),
	}

	var (
		radiance  types.LinearColor
		direction types.Vec3
	)
	for _, light := range lights {
		in, reaches := evalLightAt(light, p)
		if !reaches {
			continue
		}
		if light.CastsStaticShadows() && s.occluded(p, in.dir, in.distance) {
			if light.IsDominant() {
				sample.ShadowedFromDominantLights = true
			}
			continue
		}
		radiance = radiance.Add(in.radiance)
		direction = direction.Add(in.dir.Mul(in.radiance.Max()))
	}
	radiance.A = 1
	sample.IndirectRadiance = radiance.Quantize()
	sample.IndirectDirection = direction.Normalize().Vec4(0)

	var environment types.LinearColor
	if len(skyLights) != 0 {
		up := types.XYZ(0, 0, 1)
		t, b := tangentFrame(up)
		visibility := s.skyVisibility(p, up, t, b)
		for _, light := range skyLights {
			environment = environment.Add(light.Intensity().Mul(visibility))
		}
	}
	environment.A = 1
	sample.EnvironmentRadiance = environment.Quantize()

	ambient := radiance.Add(environment).Mul(0.5)
	ambient.A = 1
	sample.AmbientRadiance = ambient.Quantize()

	return sample, radiance
}

// Axis aligned directions traced when building the distance field.
var distanceFieldDirections = [6]types.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// Build a voxel distance field over the distance field bounds. Each voxel
// stores the distance to the closest surface found along the six axis
// directions in alpha and the surface normal, remapped to [0, 1], in RGB.
func (s *Direct) VolumeDistanceField(ctx context.Context) (*lighting.VolumeDistanceField, error) {
	consts := &s.sc.Constants
	bounds, voxelSize := consts.DistanceFieldBounds, consts.DistanceFieldVoxelSize
	if bounds.IsEmpty() || voxelSize <= 0 {
		return nil, ErrEmptyVolume
	}

	dims := gridSize(bounds, voxelSize)
	total := dims[0] * dims[1] * dims[2]
	if total > s.opts.MaxVolumeSamples {
		return nil, fmt.Errorf("%w: %d voxels", ErrVolumeTooLarge, total)
	}
	maxDistance := consts.DistanceFieldMaxDistance
	if maxDistance <= 0 {
		maxDistance = voxelSize * 4
	}

	res := &lighting.VolumeDistanceField{
		VolumeDistanceFieldData: lighting.VolumeDistanceFieldData{
			SizeX:       int32(dims[0]),
			SizeY:       int32(dims[1]),
			SizeZ:       int32(dims[2]),
			MaxDistance: maxDistance,
			BoxMin:      bounds.Min,
			BoxMax:      bounds.Max,
		},
		Voxels: make([]types.Color, 0, total),
	}

	for z := 0; z < dims[2]; z++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				p := bounds.Min.Vec3().Add(types.XYZ(float32(x), float32(y), float32(z)).Mul(voxelSize))
				res.Voxels = append(res.Voxels, s.distanceVoxel(p, maxDistance))
			}
		}
	}
	return res, nil
}

func (s *Direct) distanceVoxel(p types.Vec3, maxDistance float32) types.Color {
	closest := maxDistance
	var normal types.Vec3
	for _, dir := range distanceFieldDirections {
		hit, found := s.tree.Intersect(p, dir, 0, closest)
		if !found {
			continue
		}
		closest = hit.T
		normal = s.tree.Triangles[hit.Triangle].Normal()
		if normal.Dot(dir) > 0 {
			normal = normal.Mul(-1)
		}
	}

	return types.LinearColor{
		R: normal[0]*0.5 + 0.5,
		G: normal[1]*0.5 + 0.5,
		B: normal[2]*0.5 + 0.5,
		A: closest / maxDistance,
	}.Quantize()
}
