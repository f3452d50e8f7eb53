package zipflow

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/rseg/zipflow/internal/extrafield"
	"github.com/rseg/zipflow/internal/record"
)

// ErrFeatureNotSupported is returned for an archive feature this
// package recognizes but cannot service from the current access
// strategy.
var ErrFeatureNotSupported = errors.New("zipflow: feature not supported")

// StreamReader reads entries from a purely sequential source, one
// local file header at a time, with no access to the central
// directory. It cannot discover comments, internal/external
// attributes, or promotion details that only the central directory
// carries — those never reach a forward-only source until EOF, if at
// all. An entry written with a data descriptor reports zeroed CRC and
// sizes in its Entry until the descriptor has been read, which happens
// as part of closing that entry's reader.
//
// Per the forward-stream contract, an entry reader returned by Next
// must be read to EOF and closed before the next call to Next. Next
// reports ErrEntryOpen while that reader is still open; it does not
// detect a reader that was closed before reaching EOF.
//
// For an entry written with a data descriptor, the Entry returned by
// EntryReader.Entry reports a zero CRC-32 and zero sizes until Close
// has consumed the trailing descriptor — ReadAllChecked and Verify are
// only meaningful on such an entry after Close has already run once.
type StreamReader struct {
	r    *bufio.Reader
	cfg  readerConfig
	cur  *EntryReader
	done bool
}

// NewStreamReader wraps r for forward-only entry iteration.
func NewStreamReader(r io.Reader, opts ...ReaderOption) *StreamReader {
	cfg := defaultReaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.log().Debug("stream reader opened")
	return &StreamReader{r: bufio.NewReaderSize(r, 32*1024), cfg: cfg}
}

// Next opens the next entry in on-disk order, or returns (nil, nil)
// once the central directory signature is reached (or, for an archive
// with no entries, the end of central directory signature).
func (s *StreamReader) Next() (*EntryReader, error) {
	if s.cur != nil {
		return nil, ErrEntryOpen
	}
	if s.done {
		return nil, nil
	}

	peek, err := s.r.Peek(record.SignatureLength)
	if err != nil {
		return nil, err
	}
	sig := uint32(peek[0]) | uint32(peek[1])<<8 | uint32(peek[2])<<16 | uint32(peek[3])<<24
	if sig == record.CentralDirectorySignature || sig == record.EndOfCentralDirectorySignature {
		s.done = true
		s.cfg.log().Debug("stream reader reached central directory")
		return nil, nil
	}

	lfh, err := record.ReadLocalFileHeader(s.r)
	if err != nil {
		return nil, fmt.Errorf("stream reader: %w", err)
	}

	hasDataDescriptor := lfh.GeneralPurposeFlag&(1<<3) != 0
	if hasDataDescriptor && Method(lfh.CompressionMethod) == Stored {
		return nil, fmt.Errorf("%w: stream reading a stored entry written with a data descriptor requires random access", ErrFeatureNotSupported)
	}

	fields, err := extrafield.Decode(lfh.ExtraField, lfh.UncompressedSize, lfh.CompressedSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExtraField, err)
	}
	uncompressedSize, compressedSize := resolveZip64Sizes(lfh.UncompressedSize, lfh.CompressedSize, fields)
	_, isZip64 := extrafield.FindZip64(fields)
	if isZip64 {
		s.cfg.log().Debug("entry carries zip64 extra field")
	}

	utf8Flag := lfh.GeneralPurposeFlag&(1<<11) != 0
	name, err := decodeEntryString(lfh.FileName, utf8Flag, fields, extrafield.TagInfoZipUnicodePath, s.cfg.strictStringDecoding)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		Name:              name,
		NameRaw:           lfh.FileName,
		Compression:       Method(lfh.CompressionMethod),
		CRC32:             lfh.CRC32,
		UncompressedSize:  uncompressedSize,
		CompressedSize:    compressedSize,
		ModTime:           (DOSDateTime{Date: lfh.LastModFileDate, Time: lfh.LastModFileTime}).ToTime(),
		ExtraFields:       fields,
		UseDataDescriptor: hasDataDescriptor,
	}

	// A data-descriptor entry's true compressed length is unknown until
	// the descriptor trails the payload; bound the pipeline by the
	// widest possible value and rely on the decoder's own end-of-stream
	// marker (absent for Stored, which is rejected above).
	boundedSize := compressedSize
	if hasDataDescriptor {
		boundedSize = math.MaxInt64
	}
	pipelineEntry := *entry
	pipelineEntry.CompressedSize = boundedSize

	er, err := openEntryPipeline(s.r, &pipelineEntry)
	if err != nil {
		return nil, err
	}
	er.entry = entry

	rawReader := s.r
	er.closeHook = func() error {
		if !hasDataDescriptor {
			return nil
		}
		dd, err := record.ReadDataDescriptor(rawReader, isZip64)
		if err != nil {
			return fmt.Errorf("stream reader: data descriptor: %w", err)
		}
		entry.CRC32 = dd.CRC32
		entry.CompressedSize = dd.CompressedSize
		entry.UncompressedSize = dd.UncompressedSize
		return nil
	}
	er.release = func() { s.cur = nil }
	s.cur = er
	return er, nil
}
