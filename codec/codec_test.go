package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/achilleasa/lightbake/types"
	"github.com/google/go-cmp/cmp"
)

type packedRecord struct {
	Guid  types.Guid
	Flag  bool
	Value uint16
	Pos   types.Vec4
}

func TestPackedStructLayout(t *testing.T) {
	// 16 + 1 + 2 + 16 with no alignment padding
	expSize := 35
	if got := Size(packedRecord{}); got != expSize {
		t.Fatalf("expected packed size %d; got %d", expSize, got)
	}

	var buf bytes.Buffer
	rec := packedRecord{Guid: types.Guid{A: 1}, Flag: true, Value: 0x0102}
	if err := Write(&buf, rec); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()
	if data[0] != 1 || data[1] != 0 {
		t.Fatalf("expected little-endian guid words; got % x", data[:4])
	}
	if data[16] != 1 {
		t.Fatalf("expected bool to occupy a single byte; got % x", data[16:19])
	}
	if data[17] != 0x02 || data[18] != 0x01 {
		t.Fatalf("expected little-endian uint16 right after the bool; got % x", data[17:19])
	}
}

func TestArrayRoundTrip(t *testing.T) {
	type spec struct {
		items []packedRecord
	}
	specs := []spec{
		{[]packedRecord{}},
		{[]packedRecord{{Value: 1}}},
		{[]packedRecord{{Value: 1, Flag: true}, {Guid: types.Guid{D: 7}, Pos: types.XYZW(1, 2, 3, 4)}}},
	}

	for index, s := range specs {
		var buf bytes.Buffer
		if err := WriteArray(&buf, s.items); err != nil {
			t.Fatalf("[spec %d] write failed: %v", index, err)
		}

		expLen := 4 + len(s.items)*Size(packedRecord{})
		if buf.Len() != expLen {
			t.Fatalf("[spec %d] expected %d bytes; got %d", index, expLen, buf.Len())
		}

		encoded := append([]byte(nil), buf.Bytes()...)
		got, err := ReadArray[packedRecord](&buf)
		if err != nil {
			t.Fatalf("[spec %d] read failed: %v", index, err)
		}
		if diff := cmp.Diff(s.items, got); diff != "" {
			t.Fatalf("[spec %d] array mismatch (-want +got):\n%s", index, diff)
		}

		// Re-encoding must produce identical bytes
		var again bytes.Buffer
		if err = WriteArray(&again, got); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(encoded, again.Bytes()) {
			t.Fatalf("[spec %d] expected re-encoded bytes to match", index)
		}
	}
}

func TestReadArrayErrors(t *testing.T) {
	var buf bytes.Buffer
	Write(&buf, int32(-1))
	if _, err := ReadArray[uint32](&buf); !errors.Is(err, ErrNegativeLength) {
		t.Fatalf("expected ErrNegativeLength; got %v", err)
	}

	buf.Reset()
	Write(&buf, int32(MaxArrayLength+1))
	if _, err := ReadArray[uint8](&buf); !errors.Is(err, ErrArrayTooLarge) {
		t.Fatalf("expected ErrArrayTooLarge; got %v", err)
	}

	buf.Reset()
	Write(&buf, int32(4))
	Write(&buf, []uint32{1, 2})
	if _, err := ReadArray[uint32](&buf); !errors.Is(err, ErrShortRead) {
		t.Fatalf("expected ErrShortRead; got %v", err)
	}

	// A large count on a short stream fails without reading past the data
	specs := []int32{1 << 22, MaxArrayLength}
	for specIndex, count := range specs {
		buf.Reset()
		Write(&buf, count)
		Write(&buf, []uint32{1, 2, 3})
		if _, err := ReadArray[packedRecord](&buf); !errors.Is(err, ErrShortRead) {
			t.Fatalf("[spec %d] expected ErrShortRead; got %v", specIndex, err)
		}
	}

	var v uint32
	if err := Read(bytes.NewReader(nil), &v); !errors.Is(err, ErrShortRead) {
		t.Fatalf("expected ErrShortRead for empty input; got %v", err)
	}
}

func TestCompressRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}, 1000)
	compressed, err := Compress(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(compressed) == 0 || len(compressed) >= len(data) {
		t.Fatalf("expected compressed size to be in (0, %d); got %d", len(data), len(compressed))
	}

	out, err := Decompress(compressed, len(data))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Fatal("expected decompressed data to match the input")
	}

	if _, err = Decompress(compressed, len(data)+1); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch for a larger size; got %v", err)
	}
	if _, err = Decompress(compressed, len(data)-1); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch for a smaller size; got %v", err)
	}

	// The adler32 trailer is the last 4 bytes of the stream
	corrupt := append([]byte(nil), compressed...)
	corrupt[len(corrupt)-1] ^= 0xFF
	if _, err = Decompress(corrupt, len(data)); !errors.Is(err, ErrCorruptBlock) {
		t.Fatalf("expected ErrCorruptBlock for a bad checksum; got %v", err)
	}
	if _, err = Decompress(compressed[:len(compressed)/2], len(data)); !errors.Is(err, ErrCorruptBlock) {
		t.Fatalf("expected ErrCorruptBlock for a truncated block; got %v", err)
	}
}

func TestReadItemsAcrossChunks(t *testing.T) {
	items := make([]uint32, readChunkSize/4*2+3)
	for idx := range items {
		items[idx] = uint32(idx)
	}
	var buf bytes.Buffer
	if err := WriteArray(&buf, items); err != nil {
		t.Fatal(err)
	}

	out, err := ReadArray[uint32](&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(items, out); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
}

func TestBufferPool(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("stale")
	PutBuffer(buf)

	buf = GetBuffer()
	if buf.Len() != 0 {
		t.Fatalf("expected pooled buffer to be reset; got %d bytes", buf.Len())
	}
	PutBuffer(buf)
}
