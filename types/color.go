package types

import "github.com/chewxy/math32"

// An 8-bit per channel color stored in BGRA order.
type Color struct {
	B, G, R, A uint8
}

// A floating point RGBA color.
type LinearColor struct {
	R, G, B, A float32
}

// Create an opaque linear color.
func RGB(r, g, b float32) LinearColor {
	return LinearColor{R: r, G: g, B: b, A: 1}
}

// Add a color.
func (c LinearColor) Add(c2 LinearColor) LinearColor {
	return LinearColor{c.R + c2.R, c.G + c2.G, c.B + c2.B, c.A + c2.A}
}

// Multiply color with a scalar.
func (c LinearColor) Mul(s float32) LinearColor {
	return LinearColor{c.R * s, c.G * s, c.B * s, c.A * s}
}

// Get the max RGB component.
func (c LinearColor) Max() float32 {
	return math32.Max(c.R, math32.Max(c.G, c.B))
}

// Get RGB components as a Vec3.
func (c LinearColor) Vec3() Vec3 {
	return Vec3{c.R, c.G, c.B}
}

// Quantize a linear color into an 8-bit color. Components are clamped to [0, 1].
func (c LinearColor) Quantize() Color {
	return Color{
		R: quantizeUnit(c.R),
		G: quantizeUnit(c.G),
		B: quantizeUnit(c.B),
		A: quantizeUnit(c.A),
	}
}

// Convert an 8-bit color to a linear color.
func (c Color) Linear() LinearColor {
	return LinearColor{
		R: float32(c.R) / 255.0,
		G: float32(c.G) / 255.0,
		B: float32(c.B) / 255.0,
		A: float32(c.A) / 255.0,
	}
}

func quantizeUnit(v float32) uint8 {
	return uint8(math32.Round(math32.Max(0, math32.Min(1, v)) * 255.0))
}
