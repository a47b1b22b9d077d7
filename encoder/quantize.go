package encoder

import (
	"github.com/achilleasa/lightbake/lighting"
	"github.com/chewxy/math32"
)

const coverageMapped = 255

// Compute the light map scale. Each coefficient channel is scaled by its
// brightest mapped sample unless a fixed scale is requested.
func ComputeScale(samples []lighting.LightSample, opts Options) Scale {
	var scale Scale
	if opts.UseFixedScale {
		for c := range scale {
			for ch := range scale[c] {
				scale[c][ch] = opts.FixedScale
			}
		}
		return scale
	}

	for idx := range samples {
		if !samples[idx].Mapped {
			continue
		}
		for c := range scale {
			for ch := range scale[c] {
				scale[c][ch] = math32.Max(scale[c][ch], samples[idx].Coefficients[c][ch])
			}
		}
	}
	return scale
}

// Quantize light samples against scale. Unmapped samples stay zero.
func QuantizeLightSamples(samples []lighting.LightSample, scale Scale) []QuantizedLightSampleData {
	out := make([]QuantizedLightSampleData, len(samples))
	for idx := range samples {
		if !samples[idx].Mapped {
			continue
		}
		out[idx].Coverage = coverageMapped
		for c := range scale {
			for ch := range scale[c] {
				out[idx].Coefficients[c][ch] = quantizeUnit(ratio(samples[idx].Coefficients[c][ch], scale[c][ch]))
			}
		}
	}
	return out
}

// Expand a quantized light sample back to linear values.
func DequantizeLightSample(q QuantizedLightSampleData, scale Scale) lighting.LightSample {
	s := lighting.LightSample{Mapped: q.Coverage > 0}
	for c := range scale {
		for ch := range scale[c] {
			s.Coefficients[c][ch] = float32(q.Coefficients[c][ch]) / 255 * scale[c][ch]
		}
	}
	return s
}

func QuantizeShadowSamples(samples []lighting.ShadowSample) []QuantizedShadowSampleData {
	out := make([]QuantizedShadowSampleData, len(samples))
	for idx := range samples {
		if !samples[idx].Mapped {
			continue
		}
		out[idx] = QuantizedShadowSampleData{
			Visibility: quantizeUnit(samples[idx].Visibility),
			Coverage:   coverageMapped,
		}
	}
	return out
}

// Quantize distance field shadow samples. Distances in
// [-maxDistance, maxDistance] map to [0, 1] with 0.5 on the shadow edge.
func QuantizeSignedDistanceFieldSamples(samples []lighting.SignedDistanceFieldShadowSample, maxDistance float32) []QuantizedSignedDistanceFieldShadowSampleData {
	out := make([]QuantizedSignedDistanceFieldShadowSampleData, len(samples))
	for idx := range samples {
		if !samples[idx].Mapped {
			continue
		}
		out[idx] = QuantizedSignedDistanceFieldShadowSampleData{
			Distance:     quantizeUnit(0.5 + 0.5*ratio(samples[idx].Distance, maxDistance)),
			PenumbraSize: quantizeUnit(ratio(samples[idx].PenumbraSize, maxDistance)),
			Coverage:     coverageMapped,
		}
	}
	return out
}

// Dequantize a visibility or coverage byte.
func DequantizeUnit(v uint8) float32 {
	return float32(v) / 255
}

func ratio(v, scale float32) float32 {
	if scale <= 0 {
		return 0
	}
	return v / scale
}

func quantizeUnit(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math32.Round(v * 255))
}
