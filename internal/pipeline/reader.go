// Package pipeline assembles the per-entry layered reader and writer: a
// fixed-length window over the raw archive bytes, a pluggable
// compressor/decompressor stage, and a CRC-32 observer that digests
// whatever crosses the boundary between compressed and uncompressed
// representations.
package pipeline

import (
	"io"

	"github.com/rseg/zipflow/internal/codec"
	"github.com/rseg/zipflow/internal/primitive"
)

// EntryReader decompresses one entry's payload while digesting the
// decompressed bytes it yields, so the caller can compare Sum32 against
// the entry's stored CRC-32 once reading is exhausted.
type EntryReader struct {
	limited *io.LimitedReader
	decoder codec.Decoder
	crc     *primitive.CRC32Reader
}

// NewEntryReader builds the read-side pipeline for one entry: raw is
// positioned at the start of the entry's compressed payload;
// compressedSize bounds how many bytes may be consumed from it, even if
// method's decoder would otherwise keep reading (guards against a
// corrupt or adversarial archive that omits an expected end-of-stream
// marker).
func NewEntryReader(raw io.Reader, compressedSize uint64, method codec.Method) (*EntryReader, error) {
	limited := &io.LimitedReader{R: raw, N: clampToInt64(compressedSize)}
	decoder, err := codec.NewDecoder(method, limited)
	if err != nil {
		return nil, err
	}
	return &EntryReader{
		limited: limited,
		decoder: decoder,
		crc:     primitive.NewCRC32Reader(decoder),
	}, nil
}

func (e *EntryReader) Read(p []byte) (int, error) {
	return e.crc.Read(p)
}

// Close releases the decoder's resources without affecting raw.
func (e *EntryReader) Close() error {
	return e.decoder.Close()
}

// Sum32 returns the CRC-32 of every decompressed byte read so far.
func (e *EntryReader) Sum32() uint32 { return e.crc.Sum32() }

// BytesRead returns the number of decompressed bytes read so far.
func (e *EntryReader) BytesRead() uint64 { return e.crc.BytesRead() }

// CompressedBytesRemaining reports how many compressed bytes the
// length-limiter has left to consume, useful for detecting an entry
// whose decoder stopped early without hitting an error.
func (e *EntryReader) CompressedBytesRemaining() int64 { return e.limited.N }

func clampToInt64(n uint64) int64 {
	if n > uint64(1<<63-1) {
		return 1<<63 - 1
	}
	return int64(n)
}
