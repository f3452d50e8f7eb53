package record

import (
	"bufio"
	"fmt"
	"io"

	"github.com/rseg/zipflow/internal/primitive"
)

// DataDescriptor is written after an entry's payload when its size and
// CRC-32 could not be known upfront (the streamed write strategy). Its
// size and CRC fields are widened to 64-bit once the enclosing local
// header's extra field carried a ZIP64 record — APPNOTE leaves this
// implicit, so callers must track and pass that fact through Zip64.
type DataDescriptor struct {
	CRC32            uint32
	CompressedSize   uint64
	UncompressedSize uint64
	Zip64            bool
}

// ReadDataDescriptor reads a data descriptor from r, which must be
// buffered so the optional leading signature can be peeked without being
// consumed until confirmed. zip64 selects whether the size fields are
// read as 32-bit or 64-bit.
func ReadDataDescriptor(r *bufio.Reader, zip64 bool) (*DataDescriptor, error) {
	peek, err := r.Peek(SignatureLength)
	if err == nil {
		sig := uint32(peek[0]) | uint32(peek[1])<<8 | uint32(peek[2])<<16 | uint32(peek[3])<<24
		if sig == DataDescriptorSignature {
			if _, err := r.Discard(SignatureLength); err != nil {
				return nil, fmt.Errorf("data descriptor: discard signature: %w", err)
			}
		}
	}

	d := &DataDescriptor{Zip64: zip64}
	if d.CRC32, err = primitive.ReadU32(r); err != nil {
		return nil, fmt.Errorf("data descriptor: crc32: %w", err)
	}

	if zip64 {
		if d.CompressedSize, err = primitive.ReadU64(r); err != nil {
			return nil, fmt.Errorf("data descriptor: compressed size: %w", err)
		}
		if d.UncompressedSize, err = primitive.ReadU64(r); err != nil {
			return nil, fmt.Errorf("data descriptor: uncompressed size: %w", err)
		}
		return d, nil
	}

	compressed32, err := primitive.ReadU32(r)
	if err != nil {
		return nil, fmt.Errorf("data descriptor: compressed size: %w", err)
	}
	uncompressed32, err := primitive.ReadU32(r)
	if err != nil {
		return nil, fmt.Errorf("data descriptor: uncompressed size: %w", err)
	}
	d.CompressedSize = uint64(compressed32)
	d.UncompressedSize = uint64(uncompressed32)
	return d, nil
}

// WriteDataDescriptor writes d to w, including its signature. d.Zip64
// selects the 32-bit or 64-bit size field width.
func WriteDataDescriptor(w io.Writer, d *DataDescriptor) error {
	if err := primitive.WriteU32(w, DataDescriptorSignature); err != nil {
		return err
	}
	if err := primitive.WriteU32(w, d.CRC32); err != nil {
		return err
	}
	if d.Zip64 {
		if err := primitive.WriteU64(w, d.CompressedSize); err != nil {
			return err
		}
		return primitive.WriteU64(w, d.UncompressedSize)
	}
	if err := primitive.WriteU32(w, uint32(d.CompressedSize)); err != nil {
		return err
	}
	return primitive.WriteU32(w, uint32(d.UncompressedSize))
}

// Size returns the total byte length of d as written.
func (d *DataDescriptor) Size() int {
	if d.Zip64 {
		return SignatureLength + 4 + 8 + 8
	}
	return SignatureLength + 4 + 4 + 4
}
