package solver

import "errors"

var (
	ErrUnresolvedMapping = errors.New("solver: mapping does not reference a static mesh LOD")
	ErrEmptyVolume       = errors.New("solver: volume bounds are empty")
	ErrVolumeTooLarge    = errors.New("solver: volume grid exceeds the maximum number of samples")
	ErrNoGeometry        = errors.New("solver: scene has no shadow casting geometry")
)
