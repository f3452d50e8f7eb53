package zipflow

import (
	"errors"

	"github.com/rseg/zipflow/internal/codec"
	"github.com/rseg/zipflow/internal/extrafield"
	"github.com/rseg/zipflow/internal/pipeline"
	"github.com/rseg/zipflow/internal/record"
)

// StreamEntryWriter writes one archive member whose size isn't known
// upfront: its local header carries zeroed CRC and size fields plus
// general-purpose flag bit 3, and the true values trail the payload in
// a data descriptor once Close runs. Close must be called before the
// writer goes out of scope, or the archive is left without that
// entry's central directory record.
type StreamEntryWriter struct {
	w            *Writer
	entry        *Entry
	pipe         *pipeline.EntryWriter
	headerOffset uint64
	usedZip64    bool
	closed       bool
}

// WriteEntryStream begins a streamed entry and returns a writer for its
// payload. At most one streamed entry may be open at a time; Close must
// run before the archive's next write operation.
func (w *Writer) WriteEntryStream(entry *Entry) (*StreamEntryWriter, error) {
	switch w.state {
	case writerClosed:
		return nil, ErrWriterClosed
	case writerStreamOpen:
		return nil, ErrEntryAlreadyOpen
	}

	out := cloneEntry(entry)
	headerOffset := w.w.offset

	// A streamed entry's true size isn't known until Close, so unless
	// the writer is configured to never promote, always reserve a
	// zip64 extended information field sized for both sizes: the
	// alternative is discovering at Close time that the header has no
	// room for a promotion it didn't plan for.
	usedZip64 := !w.forceNoZip64
	localFields := append([]extrafield.Field(nil), out.ExtraFields...)
	if usedZip64 {
		zeroU, zeroC := uint64(0), uint64(0)
		localFields = append(localFields, &extrafield.Zip64ExtendedInfo{UncompressedSize: &zeroU, CompressedSize: &zeroC})
	}
	w.usedZip64 = w.usedZip64 || usedZip64

	cdFields := append([]extrafield.Field(nil), localFields...)
	localFields, cdFields = addUnicodeExtraFields(out, localFields, cdFields)

	nameBytes, utf8Name := encodeEntryNameOrComment(out.Name, out.NameRaw)
	_, utf8Comment := encodeEntryNameOrComment(out.Comment, out.CommentRaw)
	flag := uint16(1 << 3)
	if utf8Name && utf8Comment {
		flag |= 1 << 11
	}

	dt := out.dosDateTime()
	lfh := &record.LocalFileHeader{
		VersionNeededToExtract: versionNeededForStream(out.Compression, usedZip64),
		GeneralPurposeFlag:     flag,
		CompressionMethod:      uint16(out.Compression),
		LastModFileTime:        dt.Time,
		LastModFileDate:        dt.Date,
		FileName:               nameBytes,
		ExtraField:             extrafield.Encode(localFields),
	}
	if err := record.WriteLocalFileHeader(w.w, lfh); err != nil {
		return nil, err
	}

	pipe, err := pipeline.NewEntryWriter(w.w, codec.Method(out.Compression), codec.Level(out.CompressionLevel))
	if err != nil {
		var unsupported *codec.UnsupportedMethodError
		if errors.As(err, &unsupported) {
			return nil, &UnsupportedCompressionError{Method: out.Compression}
		}
		return nil, &CompressionError{Method: out.Compression, Err: err}
	}

	out.ExtraFields = cdFields
	out.UseDataDescriptor = true

	sw := &StreamEntryWriter{w: w, entry: out, pipe: pipe, headerOffset: headerOffset, usedZip64: usedZip64}
	w.state = writerStreamOpen
	w.streamWriter = sw
	return sw, nil
}

// Entry returns the metadata this writer was opened against. Its
// CRC32, sizes, and LocalHeaderOffset are only final after Close.
func (s *StreamEntryWriter) Entry() *Entry { return s.entry }

// Write compresses and digests p as part of the entry's payload.
func (s *StreamEntryWriter) Write(p []byte) (int, error) {
	n, err := s.pipe.Write(p)
	if err != nil {
		return n, &CompressionError{Method: s.entry.Compression, Err: err}
	}
	return n, nil
}

// Close finalizes the entry: it flushes the compressor, writes the
// trailing data descriptor with the now-known CRC-32 and sizes, and
// appends the entry's central directory record to the archive. It
// returns ErrEntryTooLarge if the writer was configured to never
// promote to ZIP64 but the entry's final size or header offset
// required it.
func (s *StreamEntryWriter) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.pipe.Close(); err != nil {
		return &CompressionError{Method: s.entry.Compression, Err: err}
	}

	crc := s.pipe.Sum32()
	uncompressedSize := s.pipe.UncompressedSize()
	compressedSize := s.pipe.CompressedSize()

	if !s.usedZip64 {
		if needsZip64Sizes(uncompressedSize, compressedSize) || needsZip64Offset(s.headerOffset) {
			s.w.state = writerIdle
			s.w.streamWriter = nil
			return ErrEntryTooLarge
		}
	} else if err := finalizeStreamZip64Sizes(s.entry.ExtraFields, uncompressedSize, compressedSize, s.headerOffset); err != nil {
		s.w.state = writerIdle
		s.w.streamWriter = nil
		return err
	} else if needsZip64Sizes(uncompressedSize, compressedSize) || needsZip64Offset(s.headerOffset) {
		s.w.log().Debug("streamed entry promoted to zip64", "name", s.entry.Name, "uncompressed_size", uncompressedSize, "compressed_size", compressedSize)
	}

	dd := &record.DataDescriptor{
		CRC32:            crc,
		CompressedSize:   compressedSize,
		UncompressedSize: uncompressedSize,
		Zip64:            s.usedZip64,
	}
	if err := record.WriteDataDescriptor(s.w.w, dd); err != nil {
		s.w.state = writerIdle
		s.w.streamWriter = nil
		return err
	}

	s.entry.CRC32 = crc
	s.entry.UncompressedSize = uncompressedSize
	s.entry.CompressedSize = compressedSize
	s.entry.LocalHeaderOffset = s.headerOffset

	s.w.entries = append(s.w.entries, s.entry)
	s.w.reportProgress(StageWritingEntry, s.entry.Name, compressedSize, len(s.w.entries)-1)
	s.w.state = writerIdle
	s.w.streamWriter = nil
	return nil
}

// versionNeededForStream returns the version-needed-to-extract value for
// a streamed entry's local header, decided before its true size is
// known: zip64 support is required whenever the always-promote policy
// reserved a zip64 field, regardless of whether the final size turns
// out to need it.
func versionNeededForStream(compression Method, usedZip64 bool) uint16 {
	if usedZip64 {
		return zip64VersionNeeded
	}
	switch compression {
	case Deflate, Deflate64:
		return 20
	default:
		return 10
	}
}
