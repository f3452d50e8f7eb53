package zipflow

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/rseg/zipflow/internal/extrafield"
	"github.com/rseg/zipflow/internal/record"
)

// centralDirectoryLocation is the result of locating and, for ZIP64
// archives, widening the end of central directory record: where the
// central directory starts, how many entries it holds, and the
// archive's trailing comment.
type centralDirectoryLocation struct {
	offset   uint64
	size     uint64
	entries  uint64
	comment  string
	isZip64  bool
}

// locateCentralDirectory finds and parses the end of central directory
// record (and, when present, the ZIP64 locator and EOCD that widen it)
// on a seekable source. It mirrors the combine-then-trust-ZIP64 logic
// every seek-capable reader in the original implementation applies
// before ever looking at an individual central directory record.
func locateCentralDirectory(r io.ReadSeeker) (*centralDirectoryLocation, error) {
	eocdOffset, err := record.LocateEndOfCentralDirectory(r)
	if err != nil {
		return nil, ErrEOCDNotFound
	}

	if _, err := r.Seek(eocdOffset, io.SeekStart); err != nil {
		return nil, err
	}
	eocd, err := record.ReadEndOfCentralDirectoryRecord(r)
	if err != nil {
		return nil, err
	}

	loc := &centralDirectoryLocation{
		offset:  uint64(eocd.OffsetOfStartOfCentralDirectory),
		size:    uint64(eocd.SizeOfCentralDirectory),
		entries: uint64(eocd.TotalEntries),
		comment: string(eocd.ZipFileComment),
	}

	zip64Locator, err := record.LocateZip64EndOfCentralDirectoryLocator(r, eocdOffset)
	switch {
	case err == record.ErrZip64LocatorNotFound:
		return loc, nil
	case err != nil:
		return nil, err
	}

	zip64EOCDOffset, err := seekOffset(zip64Locator.RelativeOffsetOfZip64EOCD)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(zip64EOCDOffset, io.SeekStart); err != nil {
		return nil, err
	}
	zip64EOCD, err := record.ReadZip64EndOfCentralDirectoryRecord(r)
	if err != nil {
		return nil, err
	}

	loc.offset = zip64EOCD.OffsetOfStartOfCentralDirectory
	loc.size = zip64EOCD.SizeOfCentralDirectory
	loc.entries = zip64EOCD.TotalEntries
	loc.isZip64 = true
	return loc, nil
}

// parseCentralDirectoryEntries reads count consecutive central
// directory records from r and converts each into an Entry. strict
// controls what happens when a name or comment is neither flagged
// UTF-8 nor recoverable via an Info-ZIP Unicode extra field and contains
// non-ASCII bytes: see decodeEntryString.
func parseCentralDirectoryEntries(r io.Reader, count uint64, strict bool) ([]*Entry, error) {
	entries := make([]*Entry, 0, count)
	for i := uint64(0); i < count; i++ {
		cdr, err := record.ReadCentralDirectoryRecord(r)
		if err != nil {
			return nil, fmt.Errorf("central directory entry %d: %w", i, err)
		}
		e, err := entryFromCentralDirectoryRecord(cdr, strict)
		if err != nil {
			return nil, fmt.Errorf("central directory entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// entryFromCentralDirectoryRecord converts one parsed central directory
// record into the package's Entry type, resolving ZIP64 sizes/offset
// and the general-purpose-flag bit 11 (UTF-8 name/comment) the same way
// the original implementation's detect_filename/detect_comment do.
func entryFromCentralDirectoryRecord(cdr *record.CentralDirectoryRecord, strict bool) (*Entry, error) {
	fields, err := extrafield.Decode(cdr.ExtraField, cdr.UncompressedSize, cdr.CompressedSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExtraField, err)
	}

	uncompressedSize, compressedSize := resolveZip64Sizes(cdr.UncompressedSize, cdr.CompressedSize, fields)
	offset := resolveZip64Offset(cdr.RelativeOffsetOfLocalHeader, fields)

	utf8Flag := cdr.GeneralPurposeFlag&(1<<11) != 0
	name, err := decodeEntryString(cdr.FileName, utf8Flag, fields, extrafield.TagInfoZipUnicodePath, strict)
	if err != nil {
		return nil, err
	}
	comment, err := decodeEntryString(cdr.FileComment, utf8Flag, fields, extrafield.TagInfoZipUnicodeComment, strict)
	if err != nil {
		return nil, err
	}

	e := &Entry{
		Name:                   name,
		NameRaw:                cdr.FileName,
		Compression:            Method(cdr.CompressionMethod),
		CRC32:                  cdr.CRC32,
		UncompressedSize:       uncompressedSize,
		CompressedSize:         compressedSize,
		AttributeCompatibility: AttributeCompatibility(cdr.VersionMadeBy >> 8),
		ModTime:                (DOSDateTime{Date: cdr.LastModFileDate, Time: cdr.LastModFileTime}).ToTime(),
		InternalAttributes:     cdr.InternalFileAttributes,
		ExternalAttributes:     cdr.ExternalFileAttributes,
		ExtraFields:            fields,
		Comment:                comment,
		CommentRaw:             cdr.FileComment,
		LocalHeaderOffset:      offset,
	}
	return e, nil
}

// decodeEntryString decodes a central directory record's raw name or
// comment bytes. When the general-purpose UTF-8 flag is set the bytes
// are already UTF-8. Otherwise an Info-ZIP Unicode extra field is
// consulted if its CRC-32 over raw still matches (it can go stale if
// the field was edited without updating the extra field).
//
// APPNOTE leaves the encoding of an unflagged, non-Unicode-extra-field
// name or comment unspecified, and this package does not guess one:
// ASCII bytes decode as-is (ASCII is a subset of every encoding ZIP
// tools actually use in practice), but anything outside that range is
// either returned as raw, uninterpreted bytes — Name/Comment then holds
// bytes that are not valid UTF-8, exactly as NameRaw/CommentRaw already
// do — or, when strict is set, rejected with ErrStringNotUTF8 instead of
// silently passed through.
func decodeEntryString(raw []byte, isUTF8 bool, fields []extrafield.Field, unicodeTag uint16, strict bool) (string, error) {
	if isUTF8 {
		return string(raw), nil
	}
	if s, ok := unicodeExtraField(raw, fields, unicodeTag); ok {
		return s, nil
	}
	if isASCII(raw) {
		return string(raw), nil
	}
	if strict {
		return "", fmt.Errorf("%w: %q", ErrStringNotUTF8, raw)
	}
	return string(raw), nil
}

func unicodeExtraField(raw []byte, fields []extrafield.Field, tag uint16) (string, bool) {
	crc := crc32.ChecksumIEEE(raw)
	for _, f := range fields {
		switch v := f.(type) {
		case *extrafield.InfoZipUnicodePath:
			if tag == extrafield.TagInfoZipUnicodePath && v.CRC32 == crc {
				return string(v.Name), true
			}
		case *extrafield.InfoZipUnicodeComment:
			if tag == extrafield.TagInfoZipUnicodeComment && v.CRC32 == crc {
				return string(v.Comment), true
			}
		}
	}
	return "", false
}

func isASCII(b []byte) bool {
	return !bytes.ContainsFunc(b, func(r rune) bool { return r > 0x7F })
}
