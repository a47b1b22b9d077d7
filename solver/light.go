package solver

import (
	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/types"
	"github.com/chewxy/math32"
)

// Distance used for rays towards directional and sky lights.
const farDistance float32 = 1e6

// Light arriving at a point from a single light, ignoring occlusion.
type incidentLight struct {
	// Unit direction from the shaded point towards the light.
	dir types.Vec3

	distance float32
	radiance types.LinearColor
}

// Evaluate a non-sky light at point p with normal n. Returns false if the
// light does not reach p or arrives from below the surface.
func evalLight(light *scene.Light, p, n types.Vec3) (incidentLight, bool) {
	in, reaches := evalLightAt(light, p)
	if !reaches || n.Dot(in.dir) <= 0 {
		return in, false
	}
	return in, true
}

// Evaluate a non-sky light at point p regardless of surface orientation.
func evalLightAt(light *scene.Light, p types.Vec3) (incidentLight, bool) {
	in := incidentLight{distance: farDistance}
	attenuation := float32(1)

	switch light.Type {
	case scene.DirectionalLight:
		in.dir = light.Direction.Vec3().Mul(-1).Normalize()
	case scene.PointLight, scene.SpotLight:
		toLight := light.Position.Vec3().Sub(p)
		in.distance = toLight.Len()
		if in.distance < 1e-6 || (light.Radius > 0 && in.distance > light.Radius) {
			return in, false
		}
		in.dir = toLight.Mul(1 / in.distance)
		if light.Radius > 0 {
			attenuation = radialFalloff(in.distance, light.Radius, light.FalloffExponent)
		}
		if light.Type == scene.SpotLight {
			attenuation *= spotFalloff(light, in.dir)
		}
	default:
		return in, false
	}

	if attenuation <= 0 || in.dir.Len() == 0 {
		return in, false
	}

	in.radiance = light.Intensity().Mul(attenuation)
	in.radiance.A = 1
	return in, true
}

func radialFalloff(distance, radius, exponent float32) float32 {
	if exponent <= 0 {
		exponent = 2
	}
	ratio := distance / radius
	return math32.Pow(math32.Max(0, 1-ratio*ratio), exponent)
}

func spotFalloff(light *scene.Light, dirToLight types.Vec3) float32 {
	cosOuter := math32.Cos(light.OuterConeAngle)
	cosInner := math32.Cos(math32.Min(light.InnerConeAngle, light.OuterConeAngle))
	cosAngle := light.Direction.Vec3().Normalize().Dot(dirToLight.Mul(-1))
	if cosAngle <= cosOuter {
		return 0
	}
	if cosAngle >= cosInner || cosInner-cosOuter < 1e-6 {
		return 1
	}
	t := (cosAngle - cosOuter) / (cosInner - cosOuter)
	return t * t * (3 - 2*t)
}

// Build an orthonormal tangent frame around n.
func tangentFrame(n types.Vec3) (t, b types.Vec3) {
	up := types.XYZ(0, 0, 1)
	if math32.Abs(n[2]) > 0.999 {
		up = types.XYZ(1, 0, 0)
	}
	t = up.Cross(n).Normalize()
	b = n.Cross(t)
	return t, b
}

// Express a world space direction in the tangent frame (t, b, n).
func toTangent(dir, t, b, n types.Vec3) types.Vec3 {
	return types.XYZ(dir.Dot(t), dir.Dot(b), dir.Dot(n))
}

// Fixed set of cosine weighted directions on the +Z hemisphere laid out on a
// golden angle spiral.
func hemisphereDirections(count int) []types.Vec3 {
	dirs := make([]types.Vec3, count)
	golden := math32.Pi * (3 - math32.Sqrt(5))
	for i := 0; i < count; i++ {
		r := math32.Sqrt((float32(i) + 0.5) / float32(count))
		phi := float32(i) * golden
		dirs[i] = types.XYZ(r*math32.Cos(phi), r*math32.Sin(phi), math32.Sqrt(math32.Max(0, 1-r*r)))
	}
	return dirs
}
