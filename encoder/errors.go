package encoder

import "errors"

var (
	ErrSampleCountMismatch = errors.New("encoder: sample count does not match mapping size")
	ErrShadowMapSize       = errors.New("encoder: shadow map size does not match mapping size")
	ErrCorruptFrame        = errors.New("encoder: corrupt frame")
)
