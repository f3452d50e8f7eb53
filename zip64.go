package zipflow

import (
	"fmt"
	"math"

	"github.com/rseg/zipflow/internal/extrafield"
)

// nonZip64Max32 is the 0xFFFFFFFF sentinel APPNOTE reserves in a 32-bit
// size or offset field to mean "see the ZIP64 extra field instead."
const nonZip64Max32 = 0xFFFFFFFF

// nonZip64Max16 is the analogous sentinel for the 16-bit entry-count
// fields in the end of central directory record.
const nonZip64Max16 = 0xFFFF

// needsZip64Sizes reports whether uncompressedSize or compressedSize
// overflow the 32-bit header fields and must instead be promoted into a
// ZIP64 extended information extra field.
func needsZip64Sizes(uncompressedSize, compressedSize uint64) bool {
	return uncompressedSize > nonZip64Max32 || compressedSize > nonZip64Max32
}

// needsZip64Offset reports whether a local header offset overflows the
// 32-bit central directory record field.
func needsZip64Offset(offset uint64) bool {
	return offset > nonZip64Max32
}

// needsZip64Archive reports whether the archive-level counters in the
// end of central directory record must be promoted to ZIP64: too many
// entries, too large a central directory, or an offset beyond 32 bits.
func needsZip64Archive(numEntries int, centralDirectorySize, centralDirectoryOffset uint64) bool {
	return numEntries > nonZip64Max16 ||
		centralDirectorySize > nonZip64Max32 ||
		centralDirectoryOffset > nonZip64Max32
}

// buildZip64ExtraField constructs the ZIP64 extended information field
// a local header or central directory record needs for an entry, given
// which of its fields overflowed. forLocalHeader selects the local
// header's fixed field order, which always includes both sizes once
// either overflows; the central directory record additionally includes
// the header offset whenever it has overflowed.
func buildZip64ExtraField(uncompressedSize, compressedSize, headerOffset uint64, offsetOverflowed, forLocalHeader bool) (extrafield.Field, error) {
	b := extrafield.NewZip64Builder()
	sizesOverflowed := needsZip64Sizes(uncompressedSize, compressedSize)
	if sizesOverflowed {
		b.Sizes(compressedSize, uncompressedSize)
	}
	if !forLocalHeader && offsetOverflowed {
		b.RelativeHeaderOffset(headerOffset)
	}
	return b.Build()
}

// resolveZip64Sizes returns the effective uncompressed/compressed sizes
// for an entry, preferring the ZIP64 extra field's 64-bit values over
// the header's 32-bit fields whenever the latter carry the overflow
// sentinel — the same rule every ZIP64-aware reader applies.
func resolveZip64Sizes(uncompressedSize32, compressedSize32 uint32, fields []extrafield.Field) (uncompressedSize, compressedSize uint64) {
	uncompressedSize = uint64(uncompressedSize32)
	compressedSize = uint64(compressedSize32)

	z, ok := extrafield.FindZip64(fields)
	if !ok {
		return uncompressedSize, compressedSize
	}
	if uncompressedSize32 == nonZip64Max32 && z.UncompressedSize != nil {
		uncompressedSize = *z.UncompressedSize
	}
	if compressedSize32 == nonZip64Max32 && z.CompressedSize != nil {
		compressedSize = *z.CompressedSize
	}
	return uncompressedSize, compressedSize
}

// resolveZip64Offset returns the effective local header offset for a
// central directory record, preferring the ZIP64 extra field's value
// when the 32-bit field carries the overflow sentinel.
func resolveZip64Offset(offset32 uint32, fields []extrafield.Field) uint64 {
	if offset32 != nonZip64Max32 {
		return uint64(offset32)
	}
	if z, ok := extrafield.FindZip64(fields); ok && z.RelativeHeaderOffset != nil {
		return *z.RelativeHeaderOffset
	}
	return uint64(offset32)
}

// buildEntryExtraFields returns the extra-field lists a writer should
// emit for an entry's local header and central directory record given
// its final sizes and header offset. The two lists only diverge when
// the header offset alone overflows 32 bits: a local file header has no
// offset field to promote, so it gets no ZIP64 extra field at all in
// that case, while the central directory record gets one carrying just
// the offset. usedZip64 reports whether either list required promotion.
func buildEntryExtraFields(base []extrafield.Field, uncompressedSize, compressedSize, headerOffset uint64) (localFields, cdFields []extrafield.Field, usedZip64 bool, err error) {
	localFields = append(localFields, base...)
	cdFields = append(cdFields, base...)

	sizesOverflow := needsZip64Sizes(uncompressedSize, compressedSize)
	offsetOverflow := needsZip64Offset(headerOffset)
	if !sizesOverflow && !offsetOverflow {
		return localFields, cdFields, false, nil
	}

	if sizesOverflow {
		lf, err := buildZip64ExtraField(uncompressedSize, compressedSize, headerOffset, offsetOverflow, true)
		if err != nil {
			return nil, nil, false, err
		}
		localFields = append(localFields, lf)
	}

	cf, err := buildZip64ExtraField(uncompressedSize, compressedSize, headerOffset, offsetOverflow, false)
	if err != nil {
		return nil, nil, false, err
	}
	cdFields = append(cdFields, cf)

	return localFields, cdFields, true, nil
}

// finalizeStreamZip64Sizes fills in the zip64 extended information field
// pushed into a streamed entry's extra fields when it was opened, now
// that its true sizes are known, and promotes the local header offset
// too if it overflowed. It is an error for the field to be missing,
// which would mean the entry was opened without the always-promote
// policy streamed entries rely on.
func finalizeStreamZip64Sizes(fields []extrafield.Field, uncompressedSize, compressedSize, headerOffset uint64) error {
	z, ok := extrafield.FindZip64(fields)
	if !ok {
		return fmt.Errorf("zipflow: streamed entry is missing its zip64 placeholder field")
	}
	z.UncompressedSize = &uncompressedSize
	z.CompressedSize = &compressedSize
	if needsZip64Offset(headerOffset) {
		z.RelativeHeaderOffset = &headerOffset
	}
	return nil
}

// seekOffset narrows a ZIP64-widened uint64 offset to the int64 an
// io.Seeker takes, reporting ErrEntryTooLarge if it exceeds
// math.MaxInt64 — a value only a corrupt or adversarial archive
// declares, since every offset this package writes itself already fits
// in an int64.
func seekOffset(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, ErrEntryTooLarge
	}
	return int64(v), nil
}

// entryRangeWithinArchive reports whether an entry's declared local
// header offset and compressed size describe a byte range that fits
// inside an archive of the given total size, catching both a
// corrupt/adversarial offset and the uint64 addition overflowing.
func entryRangeWithinArchive(headerOffset, compressedSize uint64, archiveSize int64) bool {
	end := headerOffset + compressedSize
	if end < headerOffset {
		return false
	}
	return end <= uint64(archiveSize)
}

// truncatedU32 narrows a 64-bit size or offset to the header field
// width, returning the ZIP64 sentinel when it overflows so the paired
// extra field is what a reader actually consults.
func truncatedU32(v uint64) uint32 {
	if v > nonZip64Max32 {
		return nonZip64Max32
	}
	return uint32(v)
}
