package encoder

import "github.com/achilleasa/lightbake/scene"

// Options controls quantization and compression.
type Options struct {
	// Compress quantized payloads when that makes them smaller.
	Compress bool

	// Quantize every coefficient against FixedScale instead of the
	// brightest mapped sample.
	UseFixedScale bool
	FixedScale    float32

	// World space distance mapped to the edge of the distance field range.
	MaxSignedDistance float32

	// Capture pre and post quantization values of this sample. Negative
	// values disable the capture.
	DebugSampleIndex int
}

// Derive encoder options from the scene constants. The debug sample index
// applies to every mapping; callers reset it for all but the debug mapping.
func OptionsFromConstants(c scene.Constants) Options {
	return Options{
		Compress:          c.CompressLightmaps,
		UseFixedScale:     c.UseFixedScaleForSimpleLightmaps,
		FixedScale:        c.FixedScaleValue,
		MaxSignedDistance: c.MaxSignedDistance,
		DebugSampleIndex:  int(c.DebugSampleIndex),
	}
}
