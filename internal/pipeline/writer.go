package pipeline

import (
	"io"

	"github.com/rseg/zipflow/internal/codec"
	"github.com/rseg/zipflow/internal/primitive"
)

// EntryWriter compresses one entry's payload while digesting the
// uncompressed bytes the caller writes, so the archive writer can fill
// in CRC-32 and both size fields once the entry is closed — either in
// the local header up front (whole-entry strategy) or in a trailing data
// descriptor (streamed strategy).
type EntryWriter struct {
	crc     *primitive.CRC32Writer
	encoder codec.Encoder
	sink    *CountingWriter
}

// NewEntryWriter builds the write-side pipeline for one entry: dst
// receives compressed bytes. The returned writer's Write method accepts
// uncompressed entry content.
func NewEntryWriter(dst io.Writer, method codec.Method, level codec.Level) (*EntryWriter, error) {
	sink := &CountingWriter{W: dst}
	encoder, err := codec.NewEncoder(method, sink, level)
	if err != nil {
		return nil, err
	}
	return &EntryWriter{
		crc:     primitive.NewCRC32Writer(encoder),
		encoder: encoder,
		sink:    sink,
	}, nil
}

func (e *EntryWriter) Write(p []byte) (int, error) {
	return e.crc.Write(p)
}

// Close flushes the compressor into the counting sink. It does not close
// the underlying destination writer.
func (e *EntryWriter) Close() error {
	return e.encoder.Close()
}

// Sum32 returns the CRC-32 of every uncompressed byte written so far.
func (e *EntryWriter) Sum32() uint32 { return e.crc.Sum32() }

// UncompressedSize returns the number of uncompressed bytes written so far.
func (e *EntryWriter) UncompressedSize() uint64 { return e.crc.BytesWritten() }

// CompressedSize returns the number of compressed bytes written to dst so
// far. Only meaningful after Close, since encoders may buffer.
func (e *EntryWriter) CompressedSize() uint64 { return e.sink.N }
