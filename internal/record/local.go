package record

import (
	"fmt"
	"io"

	"github.com/rseg/zipflow/internal/primitive"
)

// LocalFileHeader is the record written immediately before an entry's
// payload.
type LocalFileHeader struct {
	VersionNeededToExtract uint16
	GeneralPurposeFlag     uint16
	CompressionMethod      uint16
	LastModFileTime        uint16
	LastModFileDate        uint16
	CRC32                  uint32
	CompressedSize         uint32
	UncompressedSize       uint32
	FileName               []byte
	ExtraField             []byte
}

// ReadLocalFileHeader reads and validates a local file header, including
// its trailing file name and extra field.
func ReadLocalFileHeader(r io.Reader) (*LocalFileHeader, error) {
	if err := primitive.AssertSignature(r, LocalFileHeaderSignature); err != nil {
		return nil, fmt.Errorf("local file header: %w", err)
	}

	h := &LocalFileHeader{}
	var nameLen, extraLen uint16
	var err error

	if h.VersionNeededToExtract, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("local file header: version needed: %w", err)
	}
	if h.GeneralPurposeFlag, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("local file header: general purpose flag: %w", err)
	}
	if h.CompressionMethod, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("local file header: compression method: %w", err)
	}
	if h.LastModFileTime, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("local file header: mod time: %w", err)
	}
	if h.LastModFileDate, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("local file header: mod date: %w", err)
	}
	if h.CRC32, err = primitive.ReadU32(r); err != nil {
		return nil, fmt.Errorf("local file header: crc32: %w", err)
	}
	if h.CompressedSize, err = primitive.ReadU32(r); err != nil {
		return nil, fmt.Errorf("local file header: compressed size: %w", err)
	}
	if h.UncompressedSize, err = primitive.ReadU32(r); err != nil {
		return nil, fmt.Errorf("local file header: uncompressed size: %w", err)
	}
	if nameLen, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("local file header: file name length: %w", err)
	}
	if extraLen, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("local file header: extra field length: %w", err)
	}

	if h.FileName, err = primitive.ReadBytes(r, int(nameLen)); err != nil {
		return nil, fmt.Errorf("local file header: file name: %w", err)
	}
	if h.ExtraField, err = primitive.ReadBytes(r, int(extraLen)); err != nil {
		return nil, fmt.Errorf("local file header: extra field: %w", err)
	}

	return h, nil
}

// WriteLocalFileHeader writes h, including its signature, to w.
func WriteLocalFileHeader(w io.Writer, h *LocalFileHeader) error {
	if err := primitive.WriteU32(w, LocalFileHeaderSignature); err != nil {
		return err
	}
	if err := primitive.WriteU16(w, h.VersionNeededToExtract); err != nil {
		return err
	}
	if err := primitive.WriteU16(w, h.GeneralPurposeFlag); err != nil {
		return err
	}
	if err := primitive.WriteU16(w, h.CompressionMethod); err != nil {
		return err
	}
	if err := primitive.WriteU16(w, h.LastModFileTime); err != nil {
		return err
	}
	if err := primitive.WriteU16(w, h.LastModFileDate); err != nil {
		return err
	}
	if err := primitive.WriteU32(w, h.CRC32); err != nil {
		return err
	}
	if err := primitive.WriteU32(w, h.CompressedSize); err != nil {
		return err
	}
	if err := primitive.WriteU32(w, h.UncompressedSize); err != nil {
		return err
	}
	if err := primitive.WriteU16(w, uint16(len(h.FileName))); err != nil {
		return err
	}
	if err := primitive.WriteU16(w, uint16(len(h.ExtraField))); err != nil {
		return err
	}
	if _, err := w.Write(h.FileName); err != nil {
		return err
	}
	if _, err := w.Write(h.ExtraField); err != nil {
		return err
	}
	return nil
}

// Size returns the total byte length of h as written.
func (h *LocalFileHeader) Size() int {
	return SignatureLength + 26 + len(h.FileName) + len(h.ExtraField)
}
