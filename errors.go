package zipflow

import (
	"fmt"

	"github.com/rseg/zipflow/internal/codec"
)

// Sentinel errors for conditions with no useful payload beyond their
// identity. Wrap them with fmt.Errorf's %w when adding context so
// errors.Is keeps working.
var (
	// ErrUnexpectedEOF is returned when a record is truncated partway
	// through a fixed-width field or a length-prefixed payload.
	ErrUnexpectedEOF = fmt.Errorf("zipflow: unexpected end of file")

	// ErrInvalidSignature is returned when a record's leading 4 bytes do
	// not match the signature its position implies.
	ErrInvalidSignature = fmt.Errorf("zipflow: invalid record signature")

	// ErrEOCDNotFound is returned when no end of central directory
	// signature is found within the trailing search window.
	ErrEOCDNotFound = fmt.Errorf("zipflow: end of central directory record not found")

	// ErrCorruptIndex is returned when the central directory's own
	// bookkeeping is internally inconsistent (entry count mismatch,
	// offsets outside the archive, and similar).
	ErrCorruptIndex = fmt.Errorf("zipflow: central directory index is corrupt")

	// ErrMalformedExtraField is returned when an extra field's declared
	// length disagrees with its actual content, or a fixed-shape field
	// (ZIP64, Unix timestamp, NTFS) can't be parsed.
	ErrMalformedExtraField = fmt.Errorf("zipflow: malformed extra field")

	// ErrSizeMismatch is returned when the number of bytes actually
	// produced while reading or writing an entry disagrees with its
	// declared size.
	ErrSizeMismatch = fmt.Errorf("zipflow: entry size mismatch")

	// ErrWriterClosed is returned by any Writer operation attempted after
	// Close.
	ErrWriterClosed = fmt.Errorf("zipflow: writer is closed")

	// ErrEntryAlreadyOpen is returned when a new entry is started before
	// the previous one was closed.
	ErrEntryAlreadyOpen = fmt.Errorf("zipflow: an entry is already open")

	// ErrEntryTooLarge is returned when an entry's declared or observed
	// size exceeds what the archive's current (non-ZIP64) header width
	// can represent, and ZIP64 promotion was disabled for that entry.
	ErrEntryTooLarge = fmt.Errorf("zipflow: entry too large for its header width")

	// ErrStringNotUTF8 is returned when strict string decoding is enabled
	// and a name or comment without the general-purpose UTF-8 flag holds
	// non-ASCII bytes that no Info-ZIP Unicode extra field recovers.
	ErrStringNotUTF8 = fmt.Errorf("zipflow: string is not valid UTF-8")
)

// CRCMismatchError reports that an entry's computed CRC-32 didn't match
// the value recorded in its header or data descriptor.
type CRCMismatchError struct {
	Name     string
	Expected uint32
	Actual   uint32
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("zipflow: crc32 mismatch for %q: expected %08x, got %08x", e.Name, e.Expected, e.Actual)
}

// UnsupportedCompressionError reports a compression method this build
// recognizes but cannot encode or decode.
type UnsupportedCompressionError struct {
	Method Method
}

func (e *UnsupportedCompressionError) Error() string {
	return fmt.Sprintf("zipflow: unsupported compression method %s", e.Method)
}

func (e *UnsupportedCompressionError) Unwrap() error {
	return &codec.UnsupportedMethodError{Method: codec.Method(e.Method)}
}

// CompressionError wraps an error returned by a compression codec while
// encoding or decoding an entry's payload.
type CompressionError struct {
	Method Method
	Err    error
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("zipflow: %s codec error: %v", e.Method, e.Err)
}

func (e *CompressionError) Unwrap() error { return e.Err }

// IOError wraps an error returned by the underlying reader, writer, or
// seeker an archive operation was built on.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("zipflow: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
