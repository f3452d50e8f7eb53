package record

import (
	"fmt"
	"io"

	"github.com/rseg/zipflow/internal/primitive"
)

// CentralDirectoryRecord is one entry of the central directory: the
// authoritative metadata a seek-indexed reader trusts over the matching
// local file header.
type CentralDirectoryRecord struct {
	VersionMadeBy              uint16
	VersionNeededToExtract     uint16
	GeneralPurposeFlag         uint16
	CompressionMethod          uint16
	LastModFileTime            uint16
	LastModFileDate            uint16
	CRC32                      uint32
	CompressedSize             uint32
	UncompressedSize           uint32
	DiskNumberStart            uint16
	InternalFileAttributes     uint16
	ExternalFileAttributes     uint32
	RelativeOffsetOfLocalHeader uint32
	FileName                   []byte
	ExtraField                 []byte
	FileComment                []byte
}

// ReadCentralDirectoryRecord reads and validates one central directory
// record, including its trailing file name, extra field, and comment.
func ReadCentralDirectoryRecord(r io.Reader) (*CentralDirectoryRecord, error) {
	if err := primitive.AssertSignature(r, CentralDirectorySignature); err != nil {
		return nil, fmt.Errorf("central directory record: %w", err)
	}

	c := &CentralDirectoryRecord{}
	var nameLen, extraLen, commentLen uint16
	var err error

	fields := []struct {
		name string
		dst  *uint16
	}{
		{"version made by", &c.VersionMadeBy},
		{"version needed", &c.VersionNeededToExtract},
		{"general purpose flag", &c.GeneralPurposeFlag},
		{"compression method", &c.CompressionMethod},
		{"mod time", &c.LastModFileTime},
		{"mod date", &c.LastModFileDate},
	}
	for _, f := range fields {
		if *f.dst, err = primitive.ReadU16(r); err != nil {
			return nil, fmt.Errorf("central directory record: %s: %w", f.name, err)
		}
	}

	if c.CRC32, err = primitive.ReadU32(r); err != nil {
		return nil, fmt.Errorf("central directory record: crc32: %w", err)
	}
	if c.CompressedSize, err = primitive.ReadU32(r); err != nil {
		return nil, fmt.Errorf("central directory record: compressed size: %w", err)
	}
	if c.UncompressedSize, err = primitive.ReadU32(r); err != nil {
		return nil, fmt.Errorf("central directory record: uncompressed size: %w", err)
	}
	if nameLen, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("central directory record: file name length: %w", err)
	}
	if extraLen, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("central directory record: extra field length: %w", err)
	}
	if commentLen, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("central directory record: comment length: %w", err)
	}
	if c.DiskNumberStart, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("central directory record: disk number start: %w", err)
	}
	if c.InternalFileAttributes, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("central directory record: internal attributes: %w", err)
	}
	if c.ExternalFileAttributes, err = primitive.ReadU32(r); err != nil {
		return nil, fmt.Errorf("central directory record: external attributes: %w", err)
	}
	if c.RelativeOffsetOfLocalHeader, err = primitive.ReadU32(r); err != nil {
		return nil, fmt.Errorf("central directory record: local header offset: %w", err)
	}

	if c.FileName, err = primitive.ReadBytes(r, int(nameLen)); err != nil {
		return nil, fmt.Errorf("central directory record: file name: %w", err)
	}
	if c.ExtraField, err = primitive.ReadBytes(r, int(extraLen)); err != nil {
		return nil, fmt.Errorf("central directory record: extra field: %w", err)
	}
	if c.FileComment, err = primitive.ReadBytes(r, int(commentLen)); err != nil {
		return nil, fmt.Errorf("central directory record: file comment: %w", err)
	}

	return c, nil
}

// WriteCentralDirectoryRecord writes c, including its signature, to w.
func WriteCentralDirectoryRecord(w io.Writer, c *CentralDirectoryRecord) error {
	if err := primitive.WriteU32(w, CentralDirectorySignature); err != nil {
		return err
	}
	u16s := []uint16{
		c.VersionMadeBy, c.VersionNeededToExtract, c.GeneralPurposeFlag,
		c.CompressionMethod, c.LastModFileTime, c.LastModFileDate,
	}
	for _, v := range u16s {
		if err := primitive.WriteU16(w, v); err != nil {
			return err
		}
	}
	if err := primitive.WriteU32(w, c.CRC32); err != nil {
		return err
	}
	if err := primitive.WriteU32(w, c.CompressedSize); err != nil {
		return err
	}
	if err := primitive.WriteU32(w, c.UncompressedSize); err != nil {
		return err
	}
	if err := primitive.WriteU16(w, uint16(len(c.FileName))); err != nil {
		return err
	}
	if err := primitive.WriteU16(w, uint16(len(c.ExtraField))); err != nil {
		return err
	}
	if err := primitive.WriteU16(w, uint16(len(c.FileComment))); err != nil {
		return err
	}
	if err := primitive.WriteU16(w, c.DiskNumberStart); err != nil {
		return err
	}
	if err := primitive.WriteU16(w, c.InternalFileAttributes); err != nil {
		return err
	}
	if err := primitive.WriteU32(w, c.ExternalFileAttributes); err != nil {
		return err
	}
	if err := primitive.WriteU32(w, c.RelativeOffsetOfLocalHeader); err != nil {
		return err
	}
	if _, err := w.Write(c.FileName); err != nil {
		return err
	}
	if _, err := w.Write(c.ExtraField); err != nil {
		return err
	}
	if _, err := w.Write(c.FileComment); err != nil {
		return err
	}
	return nil
}

// Size returns the total byte length of c as written.
func (c *CentralDirectoryRecord) Size() int {
	return SignatureLength + 42 + len(c.FileName) + len(c.ExtraField) + len(c.FileComment)
}
