package codec

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// Compressors carry a fair amount of internal state so they are recycled
// between calls. Each caller gets exclusive use of one while compressing.
var compressorPool = sync.Pool{
	New: func() interface{} {
		zw, _ := zlib.NewWriterLevel(nil, zlib.DefaultCompression)
		return zw
	},
}

// Compress a block with zlib. The output carries its own stream terminator;
// readers only need the compressed length to frame it.
func Compress(data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(data)/2+64))

	zw := compressorPool.Get().(*zlib.Writer)
	defer compressorPool.Put(zw)
	zw.Reset(buf)

	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress a zlib block that is expected to expand to exactly
// uncompressedSize bytes. The output grows with the decompressed data and the
// stream checksum is verified.
func Decompress(data []byte, uncompressedSize int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBlock, err)
	}
	defer zr.Close()

	// One byte past the expected size is enough to detect trailing data
	out := bytes.NewBuffer(make([]byte, 0, min(uncompressedSize, readChunkSize)))
	n, err := io.Copy(out, io.LimitReader(zr, int64(uncompressedSize)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBlock, err)
	}
	if n != int64(uncompressedSize) {
		return nil, ErrSizeMismatch
	}
	return out.Bytes(), nil
}
