// Package codec reads and writes the packed little-endian structures that
// travel over channels.
//
// Every wire struct is a Go struct made only of fixed-size exported fields.
// encoding/binary serializes such structs field by field with no alignment
// padding, which gives the same layout as a pack(1) C struct. This file is
// the only place where byte order is chosen.
package codec

import (
	"encoding/binary"
	"errors"
	"io"
	"slices"
)

// Upper bound for array lengths accepted by ReadArray.
const MaxArrayLength = 1 << 28

// Arrays are read in chunks of at most this many bytes so a corrupt length
// cannot allocate more memory than the stream actually holds.
const readChunkSize = 1 << 20

var byteOrder = binary.LittleEndian

// Write a primitive value, a packed struct or a slice of either.
func Write(w io.Writer, v interface{}) error {
	return binary.Write(w, byteOrder, v)
}

// Read a primitive value, a packed struct or a fixed-length slice.
func Read(r io.Reader, v interface{}) error {
	return mapReadError(binary.Read(r, byteOrder, v))
}

// Get the wire size of v or -1 if v is not a fixed-size value.
func Size(v interface{}) int {
	return binary.Size(v)
}

// Write a length-prefixed array. Empty arrays emit a zero count and no payload.
func WriteArray[T any](w io.Writer, items []T) error {
	if err := Write(w, int32(len(items))); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return Write(w, items)
}

// Read a length-prefixed array.
func ReadArray[T any](r io.Reader) ([]T, error) {
	count, err := ReadLength(r)
	if err != nil {
		return nil, err
	}
	return ReadItems[T](r, count)
}

// Read count fixed-size items. Storage grows as data arrives.
func ReadItems[T any](r io.Reader, count int) ([]T, error) {
	var zero T
	chunk := readChunkSize
	if size := Size(zero); size > 0 {
		chunk = max(1, readChunkSize/size)
	}

	items := make([]T, 0, min(count, chunk))
	for len(items) < count {
		start := len(items)
		n := min(chunk, count-start)
		items = slices.Grow(items, n)[:start+n]
		if err := Read(r, items[start:]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Read an int32 count and validate it.
func ReadLength(r io.Reader) (int, error) {
	var count int32
	if err := Read(r, &count); err != nil {
		return 0, err
	}
	if count < 0 {
		return 0, ErrNegativeLength
	}
	if count > MaxArrayLength {
		return 0, ErrArrayTooLarge
	}
	return int(count), nil
}

func mapReadError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrShortRead
	}
	return err
}
