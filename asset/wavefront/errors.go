package wavefront

import "errors"

var (
	ErrSyntax            = errors.New("wavefront reader: syntax error")
	ErrUnknownMaterial   = errors.New("wavefront reader: undefined material")
	ErrUnknownObject     = errors.New("wavefront reader: undefined object")
	ErrIndexOutOfBounds  = errors.New("wavefront reader: index out of bounds")
	ErrTooManyVertices   = errors.New("wavefront reader: mesh exceeds 65535 vertices")
	ErrUnsupportedFormat = errors.New("wavefront reader: unsupported file format")
	ErrEmptyScene        = errors.New("wavefront reader: scene contains no meshes")
)
