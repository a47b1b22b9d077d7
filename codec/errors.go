package codec

import "errors"

var (
	ErrShortRead      = errors.New("codec: short read")
	ErrNegativeLength = errors.New("codec: negative array length")
	ErrArrayTooLarge  = errors.New("codec: array length exceeds limit")
	ErrSizeMismatch   = errors.New("codec: decompressed size mismatch")
	ErrCorruptBlock   = errors.New("codec: corrupt compressed block")
)
