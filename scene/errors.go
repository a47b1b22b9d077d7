package scene

import "errors"

var (
	ErrVersionMismatch        = errors.New("scene importer: scene version mismatch")
	ErrElementNotTriangleList = errors.New("scene importer: element first index is not a multiple of 3")
	ErrElementOutOfRange      = errors.New("scene importer: element references indices outside the index buffer")
	ErrIndexOutOfRange        = errors.New("scene importer: index references a missing vertex")
	ErrUnresolvedMesh         = errors.New("scene importer: mapping references an unknown mesh")
	ErrInvalidLOD             = errors.New("scene importer: mapping references a missing LOD")
	ErrUnknownMeshKind        = errors.New("scene importer: unknown mesh kind")
	ErrUnknownMappingKind     = errors.New("scene importer: unknown mapping kind")
	ErrDuplicateGuid          = errors.New("scene importer: duplicate guid")
	ErrInvalidLevelScale      = errors.New("scene importer: level scale must be positive")
	ErrInvalidMappingSize     = errors.New("scene importer: texture mapping has negative dimensions")
)
