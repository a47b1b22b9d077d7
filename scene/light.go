package scene

import "github.com/achilleasa/lightbake/types"

type LightType uint32

const (
	DirectionalLight LightType = iota
	PointLight
	SpotLight
	SkyLight
)

func (t LightType) String() string {
	switch t {
	case DirectionalLight:
		return "directional"
	case PointLight:
		return "point"
	case SpotLight:
		return "spot"
	case SkyLight:
		return "sky"
	}
	return "unknown"
}

type LightFlags uint32

const (
	LightCastShadows LightFlags = 1 << iota
	LightCastStaticShadows
	LightDominant
	LightUseSignedDistanceFieldShadows
)

// A light source. The struct is stored on the wire as is.
type Light struct {
	Guid       types.Guid
	Type       LightType
	Flags      LightFlags
	Color      types.Color
	Brightness float32

	// World space position for point and spot lights. Directional lights
	// ignore it.
	Position types.Vec4

	// Direction the light travels along for directional and spot lights.
	Direction types.Vec4

	// Influence radius and attenuation falloff for point and spot lights.
	Radius          float32
	FalloffExponent float32

	// Spot light cone half angles in radians.
	InnerConeAngle float32
	OuterConeAngle float32

	// Size of the emitting surface; controls penumbra width.
	SourceRadius float32
}

// Returns true if the light casts static shadows.
func (l *Light) CastsStaticShadows() bool {
	return l.Flags&LightCastShadows != 0 && l.Flags&LightCastStaticShadows != 0
}

// Returns true if the editor nominated this light as dominant.
func (l *Light) IsDominant() bool {
	return l.Flags&LightDominant != 0
}

// Returns true if shadows from this light are stored as distance fields.
func (l *Light) UsesDistanceFieldShadows() bool {
	return l.Flags&LightUseSignedDistanceFieldShadows != 0
}

// Get the light intensity as a linear color scaled by brightness.
func (l *Light) Intensity() types.LinearColor {
	return l.Color.Linear().Mul(l.Brightness)
}

// An emissive surface that should be approximated by a dynamic light.
type MeshAreaLight struct {
	MeshAreaLightHeader
	Triangles []EmissiveTriangle
}

// Fixed-size part of a mesh area light.
type MeshAreaLightHeader struct {
	Guid            types.Guid
	MeshGuid        types.Guid
	LevelId         int32
	EmissiveColor   types.LinearColor
	FalloffExponent float32

	// Influence radius of the synthesized light.
	InfluenceRadius float32
}

// A world space emissive triangle.
type EmissiveTriangle struct {
	V0, V1, V2 types.Vec4
}

// Get the triangle area and unit normal.
func (t EmissiveTriangle) AreaAndNormal() (float32, types.Vec3) {
	cross := t.V1.Vec3().Sub(t.V0.Vec3()).Cross(t.V2.Vec3().Sub(t.V0.Vec3()))
	return 0.5 * cross.Len(), cross.Normalize()
}

// Get the triangle centroid.
func (t EmissiveTriangle) Centroid() types.Vec3 {
	return t.V0.Vec3().Add(t.V1.Vec3()).Add(t.V2.Vec3()).Mul(1.0 / 3.0)
}
