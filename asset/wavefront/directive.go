package wavefront

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/types"
	"github.com/chewxy/math32"
)

// Parse a lighting directive. Unknown statements are ignored so that
// files exported by modelling tools can be read unmodified.
func (r *sceneReader) parseDirective(tokens []string) error {
	consts := &r.sc.Constants

	switch tokens[0] {
	case "level_scale":
		scale, err := parseFloat32(tokens)
		if err != nil {
			return err
		}
		if scale <= 0 {
			return fmt.Errorf("%w: level scale must be positive", ErrSyntax)
		}
		consts.LevelScale = scale
	case "fixed_scale":
		scale, err := parseFloat32(tokens)
		if err != nil {
			return err
		}
		consts.UseFixedScaleForSimpleLightmaps = scale > 0
		consts.FixedScaleValue = scale
	case "light":
		light, err := parseLight(r.opts.Name, tokens)
		if err != nil {
			return err
		}
		r.sc.Lights = append(r.sc.Lights, light)
	case "lightmap":
		spec, err := r.parseMappingSpec(tokens)
		if err != nil {
			return err
		}
		r.currentObject().mapping = spec
	case "volume":
		f, err := parseFloats(tokens, 7)
		if err != nil {
			return err
		}
		consts.VolumeLightingBounds = parseBox(f)
		consts.VolumeLightingSpacing = f[6]
		if len(tokens) > 8 {
			brick, err := strconv.ParseInt(tokens[8], 10, 32)
			if err != nil || brick <= 0 {
				return fmt.Errorf("%w: invalid brick size %q", ErrSyntax, tokens[8])
			}
			consts.VolumeBrickSize = int32(brick)
		}
	case "distance_field":
		f, err := parseFloats(tokens, 7)
		if err != nil {
			return err
		}
		consts.DistanceFieldBounds = parseBox(f)
		consts.DistanceFieldVoxelSize = f[6]
		if len(tokens) > 8 {
			if consts.DistanceFieldMaxDistance, err = parseFloat(tokens[8]); err != nil {
				return err
			}
		}
	case "dominant_shadow":
		f, err := parseFloats(tokens, 2)
		if err != nil {
			return err
		}
		consts.DominantShadowTexelSize = f[0]
		consts.DominantShadowMaxResolution = int32(f[1])
	case "visibility_cell":
		if len(tokens) != 8 {
			return fmt.Errorf(`%w: expected 7 arguments for "visibility_cell": name minX minY minZ maxX maxY maxZ; got %d`, ErrSyntax, len(tokens)-1)
		}
		f, err := parseFloats(tokens[1:], 6)
		if err != nil {
			return err
		}
		task, exists := r.visibility[tokens[1]]
		if !exists {
			task = &scene.VisibilityTask{Guid: types.GuidFromName(r.opts.Name + "/visibility/" + tokens[1])}
			r.visibility[tokens[1]] = task
			r.visibilityOrder = append(r.visibilityOrder, task)
		}
		task.Cells = append(task.Cells, parseBox(f))
	case "debug_mapping":
		if len(tokens) < 2 || len(tokens) > 3 {
			return fmt.Errorf(`%w: expected object name and optional sample index for "debug_mapping"`, ErrSyntax)
		}
		r.debugObject = tokens[1]
		if len(tokens) == 3 {
			index, err := strconv.ParseInt(tokens[2], 10, 32)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrSyntax, err)
			}
			consts.DebugSampleIndex = int32(index)
		}
	default:
		r.logger.Debugf("ignoring unsupported statement %q", tokens[0])
	}
	return nil
}

func parseBox(f []float32) types.Box {
	a, b := types.XYZ(f[0], f[1], f[2]), types.XYZ(f[3], f[4], f[5])
	return types.BoxFromCorners(types.MinVec3(a, b), types.MaxVec3(a, b))
}

// Parse a lightmap directive for the current object:
//
//	lightmap texture width [height]
//	lightmap vertex [sample_to_area_ratio]
func (r *sceneReader) parseMappingSpec(tokens []string) (*mappingSpec, error) {
	if len(tokens) < 2 {
		return nil, fmt.Errorf(`%w: expected mapping type for "lightmap"`, ErrSyntax)
	}

	switch tokens[1] {
	case "texture":
		if len(tokens) < 3 || len(tokens) > 4 {
			return nil, fmt.Errorf(`%w: expected "lightmap texture width [height]"`, ErrSyntax)
		}
		spec := &mappingSpec{}
		for idx, token := range tokens[2:] {
			size, err := strconv.ParseInt(token, 10, 32)
			if err != nil || size <= 0 {
				return nil, fmt.Errorf("%w: invalid lightmap size %q", ErrSyntax, token)
			}
			if idx == 0 {
				spec.sizeX, spec.sizeY = int32(size), int32(size)
			} else {
				spec.sizeY = int32(size)
			}
		}
		return spec, nil
	case "vertex":
		spec := &mappingSpec{vertex: true, sampleToAreaRatio: r.opts.SampleToAreaRatio}
		if len(tokens) > 2 {
			ratio, err := parseFloat(tokens[2])
			if err != nil {
				return nil, err
			}
			spec.sampleToAreaRatio = ratio
		}
		return spec, nil
	}
	return nil, fmt.Errorf("%w: unknown lightmap type %q", ErrSyntax, tokens[1])
}

// Parse a light definition. The positional arguments depend on the type:
//
//	light directional name dX dY dZ r g b brightness [options]
//	light point name pX pY pZ radius r g b brightness [options]
//	light spot name pX pY pZ dX dY dZ radius inner outer r g b brightness [options]
//	light sky name r g b brightness [options]
//
// Cone angles are in degrees and colors in [0, 1]. Options are the flags
// shadows, dynamic_shadows, dominant and sdf or the key=value pairs falloff
// and source_radius.
func parseLight(sceneName string, tokens []string) (*scene.Light, error) {
	if len(tokens) < 3 {
		return nil, fmt.Errorf(`%w: expected light type and name for "light"`, ErrSyntax)
	}

	light := &scene.Light{
		Guid:            types.GuidFromName(sceneName + "/light/" + tokens[2]),
		FalloffExponent: 2,
	}
	var numArgs int
	switch tokens[1] {
	case "directional":
		light.Type, numArgs = scene.DirectionalLight, 7
	case "point":
		light.Type, numArgs = scene.PointLight, 8
	case "spot":
		light.Type, numArgs = scene.SpotLight, 13
	case "sky":
		light.Type, numArgs = scene.SkyLight, 4
	default:
		return nil, fmt.Errorf("%w: unknown light type %q", ErrSyntax, tokens[1])
	}

	// Shift so that parseFloats sees the positional arguments.
	args, err := parseFloats(tokens[2:], numArgs)
	if err != nil {
		return nil, fmt.Errorf("%s light %q: %w", tokens[1], tokens[2], err)
	}

	switch light.Type {
	case scene.DirectionalLight:
		light.Direction = types.XYZ(args[0], args[1], args[2]).Normalize().Vec4(0)
		args = args[3:]
	case scene.PointLight:
		light.Position = types.XYZW(args[0], args[1], args[2], 1)
		light.Radius = args[3]
		args = args[4:]
	case scene.SpotLight:
		light.Position = types.XYZW(args[0], args[1], args[2], 1)
		light.Direction = types.XYZ(args[3], args[4], args[5]).Normalize().Vec4(0)
		light.Radius = args[6]
		light.InnerConeAngle = args[7] * math32.Pi / 180
		light.OuterConeAngle = args[8] * math32.Pi / 180
		args = args[9:]
	}
	light.Color = types.RGB(args[0], args[1], args[2]).Quantize()
	light.Brightness = args[3]

	for _, opt := range tokens[3+numArgs:] {
		if err = applyLightOption(light, opt); err != nil {
			return nil, fmt.Errorf("%s light %q: %w", tokens[1], tokens[2], err)
		}
	}
	return light, nil
}

func applyLightOption(light *scene.Light, opt string) error {
	switch opt {
	case "shadows":
		light.Flags |= scene.LightCastShadows | scene.LightCastStaticShadows
		return nil
	case "dynamic_shadows":
		light.Flags |= scene.LightCastShadows
		return nil
	case "dominant":
		light.Flags |= scene.LightDominant
		return nil
	case "sdf":
		light.Flags |= scene.LightUseSignedDistanceFieldShadows
		return nil
	}

	key, value, found := strings.Cut(opt, "=")
	if !found {
		return fmt.Errorf("%w: unknown light option %q", ErrSyntax, opt)
	}
	v, err := parseFloat(value)
	if err != nil {
		return err
	}
	switch key {
	case "falloff":
		light.FalloffExponent = v
	case "source_radius":
		light.SourceRadius = v
	default:
		return fmt.Errorf("%w: unknown light option %q", ErrSyntax, key)
	}
	return nil
}
