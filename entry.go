package zipflow

import (
	"time"

	"github.com/rseg/zipflow/internal/extrafield"
)

// AttributeCompatibility identifies which host system's convention the
// external file attribute field follows, per APPNOTE 4.4.2.2's "version
// made by" host byte.
type AttributeCompatibility uint8

const (
	// AttributeCompatibilityUnix stores a mode_t (permission bits and
	// file type) in the upper 16 bits of ExternalAttributes.
	AttributeCompatibilityUnix AttributeCompatibility = 3
	// AttributeCompatibilityDOS stores FAT/DOS attribute bits in the
	// lower byte of ExternalAttributes.
	AttributeCompatibilityDOS AttributeCompatibility = 0
)

// Entry is the immutable metadata describing one archive member: its
// name, how its payload is compressed, and the bookkeeping fields that
// end up in both the local file header and the central directory record.
// It never holds the payload itself.
type Entry struct {
	// Name is the entry's path within the archive, using '/' as the
	// separator regardless of host OS, per APPNOTE 4.4.17.1. When the
	// general-purpose UTF-8 flag was clear on read, this is a best-effort
	// decoding (Info-ZIP Unicode extra field if present and still valid,
	// else a literal byte-for-byte fallback) rather than a verified
	// transcoding — see NameRaw for the bytes actually on disk.
	Name string

	// NameRaw is the name field's on-disk bytes before any UTF-8
	// best-effort interpretation was applied. Populated by readers; a
	// builder constructing a new entry needs only Name.
	NameRaw []byte

	// Compression is the method the payload was (or will be) compressed
	// with.
	Compression Method

	// CompressionLevel is the effort hint passed to the encoder when
	// writing; it has no effect when reading.
	CompressionLevel CompressionLevel

	// CRC32 is the CRC-32 of the uncompressed payload.
	CRC32 uint32

	// UncompressedSize is the payload's size before compression.
	UncompressedSize uint64

	// CompressedSize is the payload's size after compression, as stored
	// in the archive.
	CompressedSize uint64

	// AttributeCompatibility selects how ExternalAttributes is
	// interpreted.
	AttributeCompatibility AttributeCompatibility

	// ModTime is the entry's last-modified time. The writer stores it on
	// disk only as an MS-DOS date/time pair (2-second resolution); no
	// extended-timestamp extra field is derived from it. FromFileInfo
	// adds a Unix extended-timestamp field (0x5455) to ExtraFields itself.
	ModTime time.Time

	// InternalAttributes is the APPNOTE "internal file attributes" field
	// (bit 0: apparent ASCII/text file).
	InternalAttributes uint16

	// ExternalAttributes is host-specific: Unix permission bits shifted
	// into the upper 16 bits when AttributeCompatibility is
	// AttributeCompatibilityUnix, or FAT attribute bits otherwise.
	ExternalAttributes uint32

	// ExtraFields carries any extra-field records beyond the ones this
	// package manages automatically (ZIP64, when required). The automatic
	// ones are appended after the fields here.
	ExtraFields []extrafield.Field

	// Comment is the entry's optional file comment, decoded the same
	// best-effort way as Name.
	Comment string

	// CommentRaw is the comment field's on-disk bytes; see NameRaw.
	CommentRaw []byte

	// UseDataDescriptor reports that size and CRC-32 are recorded in a
	// trailing data descriptor instead of the local header. The write
	// strategy is chosen by the Writer method called, not by this field:
	// WriteEntryStream sets it and WriteEntryWhole clears it.
	UseDataDescriptor bool

	// LocalHeaderOffset is the byte offset of this entry's local file
	// header within the archive. It is populated by SeekReader and
	// ConcurrentReader (StreamReader leaves it zero) and by the writer
	// once an entry is closed; setting it before writing has no effect.
	LocalHeaderOffset uint64
}

// IsDir reports whether the entry represents a directory, by the
// conventional trailing-slash-in-name marker — ZIP has no dedicated
// directory record type.
func (e *Entry) IsDir() bool {
	return len(e.Name) > 0 && e.Name[len(e.Name)-1] == '/'
}

// dosDateTime returns e.ModTime packed into the header's native
// resolution, defaulting to the current time if the caller left
// ModTime zero.
func (e *Entry) dosDateTime() DOSDateTime {
	return NewDOSDateTime(entryModTimeOrNow(e))
}
