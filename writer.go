package zipflow

import (
	"hash/crc32"
	"io"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/rseg/zipflow/internal/extrafield"
	"github.com/rseg/zipflow/internal/record"
	"github.com/rseg/zipflow/internal/write"
)

// SkipCompressionFunc decides whether an entry should be stored
// uncompressed regardless of the method its Entry requested. It is
// called once per entry and should be inexpensive.
type SkipCompressionFunc = write.SkipCompressionFunc

// DefaultSkipCompression returns a SkipCompressionFunc that skips
// compression for files smaller than minSize and for extensions that
// are conventionally already compressed.
func DefaultSkipCompression(minSize int64) SkipCompressionFunc {
	return write.DefaultSkipCompression(minSize)
}

// WriterStage identifies which part of archive assembly a ProgressEvent
// describes.
type WriterStage uint8

const (
	// StageWritingEntry indicates an entry's payload is being compressed
	// and written.
	StageWritingEntry WriterStage = iota
	// StageWritingCentralDirectory indicates the trailing central
	// directory is being assembled during Close.
	StageWritingCentralDirectory
)

func (s WriterStage) String() string {
	switch s {
	case StageWritingEntry:
		return "writing entry"
	case StageWritingCentralDirectory:
		return "writing central directory"
	default:
		return "unknown"
	}
}

// ProgressEvent reports incremental progress while an archive is written.
type ProgressEvent struct {
	Stage      WriterStage
	Name       string
	BytesDone  uint64
	EntryIndex int
}

// ProgressFunc receives progress updates during Writer operations.
// Implementations must be safe for concurrent calls only if the Writer
// itself is being driven concurrently, which it is not designed for.
type ProgressFunc func(ProgressEvent)

type writerState uint8

const (
	writerIdle writerState = iota
	writerStreamOpen
	writerClosed
)

// WriterOption configures a Writer at construction time.
type WriterOption func(*Writer)

// WithComment sets the archive-level comment written into the end of
// central directory record.
func WithComment(comment string) WriterOption {
	return func(w *Writer) { w.comment = comment }
}

// WithForceZip64 makes the writer always emit the ZIP64 end of central
// directory structures, even if nothing in the archive required them.
func WithForceZip64() WriterOption {
	return func(w *Writer) { w.forceZip64 = true }
}

// WithForceNoZip64 makes the writer return ErrEntryTooLarge instead of
// promoting to ZIP64 when an entry or the archive would otherwise
// require it.
func WithForceNoZip64() WriterOption {
	return func(w *Writer) { w.forceNoZip64 = true }
}

// WithSkipCompression adds predicates that force an entry to be stored
// instead of compressed. All predicates are consulted; any one
// returning true skips compression for that entry.
func WithSkipCompression(fns ...SkipCompressionFunc) WriterOption {
	return func(w *Writer) { w.skipCompression = append(w.skipCompression, fns...) }
}

// WithWriterProgress registers a callback invoked as the archive is
// assembled.
func WithWriterProgress(fn ProgressFunc) WriterOption {
	return func(w *Writer) { w.progress = fn }
}

// WithLogger sets the logger Writer uses for archive open/close and
// ZIP64-promotion diagnostics. If nil (the default), a discard logger
// is used.
func WithLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) { w.logger = logger }
}

// Writer assembles a ZIP archive one entry at a time. It implements the
// state machine described for the streamed write strategy: at most one
// entry may be open (StreamOpen) at a time, and no further entries may
// be written once Close has run.
type Writer struct {
	w               *offsetWriter
	entries         []*Entry
	state           writerState
	comment         string
	forceZip64      bool
	forceNoZip64    bool
	skipCompression []SkipCompressionFunc
	progress        ProgressFunc
	usedZip64       bool
	streamWriter    *StreamEntryWriter
	logger          *slog.Logger
}

// NewWriter returns a Writer appending archive bytes to w.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	wr := &Writer{w: &offsetWriter{w: w}}
	for _, opt := range opts {
		opt(wr)
	}
	wr.log().Debug("archive writer opened")
	return wr
}

// log returns the configured logger, falling back to a discard logger
// if WithLogger was never called.
func (w *Writer) log() *slog.Logger {
	if w.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.logger
}

// offsetWriter tracks the running byte offset of everything written
// through it, the information every local header offset and the
// central directory's own offset is computed from.
type offsetWriter struct {
	w      io.Writer
	offset uint64
}

func (o *offsetWriter) Write(p []byte) (int, error) {
	n, err := o.w.Write(p)
	o.offset += uint64(n)
	return n, err
}

func (w *Writer) shouldSkipCompression(entry *Entry, size int64) bool {
	return write.ShouldSkip(entry.Name, size, nil, w.skipCompression)
}

func (w *Writer) reportProgress(stage WriterStage, name string, bytesDone uint64, entryIndex int) {
	if w.progress != nil {
		w.progress(ProgressEvent{Stage: stage, Name: name, BytesDone: bytesDone, EntryIndex: entryIndex})
	}
}

// Close writes the central directory, the end of central directory
// record (and, when ZIP64 promotion applies, the ZIP64 EOCD and its
// locator), and transitions the writer to Closed. Any further write
// operation returns ErrWriterClosed.
func (w *Writer) Close() error {
	switch w.state {
	case writerClosed:
		return ErrWriterClosed
	case writerStreamOpen:
		return ErrEntryAlreadyOpen
	}

	cdOffset := w.w.offset
	for i, entry := range w.entries {
		if err := w.writeCentralDirectoryRecord(entry); err != nil {
			return err
		}
		w.reportProgress(StageWritingCentralDirectory, entry.Name, 0, i)
	}
	cdSize := w.w.offset - cdOffset

	numEntries := len(w.entries)
	needsZip64 := w.forceZip64 || needsZip64Archive(numEntries, cdSize, cdOffset)
	if needsZip64 && w.forceNoZip64 {
		return ErrEntryTooLarge
	}

	if needsZip64 {
		w.log().Info("promoting archive to zip64", "entry_count", numEntries, "central_directory_size", cdSize, "central_directory_offset", cdOffset)
		if err := w.writeZip64EndOfCentralDirectory(cdOffset, cdSize, uint64(numEntries)); err != nil {
			return err
		}
	}

	eocd := &record.EndOfCentralDirectoryRecord{
		TotalEntriesOnThisDisk:          uint16(min(numEntries, nonZip64Max16)),
		TotalEntries:                    uint16(min(numEntries, nonZip64Max16)),
		SizeOfCentralDirectory:          truncatedU32(cdSize),
		OffsetOfStartOfCentralDirectory: truncatedU32(cdOffset),
		ZipFileComment:                  []byte(w.comment),
	}
	if numEntries > nonZip64Max16 {
		eocd.TotalEntriesOnThisDisk = nonZip64Max16
		eocd.TotalEntries = nonZip64Max16
	}
	if err := record.WriteEndOfCentralDirectoryRecord(w.w, eocd); err != nil {
		return err
	}

	w.state = writerClosed
	w.log().Debug("archive writer closed", "entry_count", numEntries, "used_zip64", w.usedZip64 || needsZip64)
	return nil
}

func (w *Writer) writeZip64EndOfCentralDirectory(cdOffset, cdSize, numEntries uint64) error {
	eocdrOffset := w.w.offset
	eocdr := &record.Zip64EndOfCentralDirectoryRecord{
		VersionMadeBy:                   versionMadeBy,
		VersionNeededToExtract:          zip64VersionNeeded,
		TotalEntriesOnThisDisk:          numEntries,
		TotalEntries:                    numEntries,
		SizeOfCentralDirectory:          cdSize,
		OffsetOfStartOfCentralDirectory: cdOffset,
	}
	if err := record.WriteZip64EndOfCentralDirectoryRecord(w.w, eocdr); err != nil {
		return err
	}

	locator := &record.Zip64EndOfCentralDirectoryLocator{
		RelativeOffsetOfZip64EOCD: eocdrOffset,
		TotalDisks:                1,
	}
	return record.WriteZip64EndOfCentralDirectoryLocator(w.w, locator)
}

func (w *Writer) writeCentralDirectoryRecord(entry *Entry) error {
	nameBytes, utf8Name := encodeEntryNameOrComment(entry.Name, entry.NameRaw)
	commentBytes, utf8Comment := encodeEntryNameOrComment(entry.Comment, entry.CommentRaw)

	flag := uint16(0)
	if utf8Name && utf8Comment {
		flag |= 1 << 11
	}
	if entry.UseDataDescriptor {
		flag |= 1 << 3
	}

	extra := extrafield.Encode(entry.ExtraFields)
	dt := entry.dosDateTime()

	cdr := &record.CentralDirectoryRecord{
		VersionMadeBy:               versionMadeBy | uint16(entry.AttributeCompatibility)<<8,
		VersionNeededToExtract:      versionNeededToExtract(entry),
		GeneralPurposeFlag:          flag,
		CompressionMethod:           uint16(entry.Compression),
		LastModFileTime:             dt.Time,
		LastModFileDate:             dt.Date,
		CRC32:                       entry.CRC32,
		CompressedSize:              truncatedU32(entry.CompressedSize),
		UncompressedSize:            truncatedU32(entry.UncompressedSize),
		InternalFileAttributes:      entry.InternalAttributes,
		ExternalFileAttributes:      entry.ExternalAttributes,
		RelativeOffsetOfLocalHeader: truncatedU32(entry.LocalHeaderOffset),
		FileName:                    nameBytes,
		ExtraField:                  extra,
		FileComment:                 commentBytes,
	}
	return record.WriteCentralDirectoryRecord(w.w, cdr)
}

// addUnicodeExtraFields appends Info-ZIP Unicode Path/Comment extra
// fields when an entry's name or comment was written with its raw
// on-disk bytes (so the general-purpose UTF-8 flag could not be set)
// but a decoded UTF-8 string is also available — letting a reader that
// understands the Info-ZIP extension recover the human-readable name
// even though the basic field stayed in its original encoding.
func addUnicodeExtraFields(entry *Entry, localFields, cdFields []extrafield.Field) ([]extrafield.Field, []extrafield.Field) {
	if entry.NameRaw != nil && entry.Name != "" && utf8.ValidString(entry.Name) {
		f := &extrafield.InfoZipUnicodePath{Version: 1, CRC32: crc32.ChecksumIEEE(entry.NameRaw), Name: []byte(entry.Name)}
		localFields = append(localFields, f)
		cdFields = append(cdFields, f)
	}
	if entry.CommentRaw != nil && entry.Comment != "" && utf8.ValidString(entry.Comment) {
		f := &extrafield.InfoZipUnicodeComment{Version: 1, CRC32: crc32.ChecksumIEEE(entry.CommentRaw), Comment: []byte(entry.Comment)}
		localFields = append(localFields, f)
		cdFields = append(cdFields, f)
	}
	return localFields, cdFields
}

// encodeEntryNameOrComment returns the bytes to write for a name or
// comment field: raw bytes if the caller populated them (round-tripping
// a value read from another archive), else the UTF-8 bytes of the
// decoded string. It reports whether the result is valid UTF-8, which
// decides whether the general-purpose UTF-8 flag can be set; raw bytes
// are always reported as not UTF-8, since their encoding is unknown.
func encodeEntryNameOrComment(decoded string, raw []byte) ([]byte, bool) {
	if raw != nil {
		return raw, false
	}
	return []byte(decoded), utf8.ValidString(decoded)
}

const (
	versionMadeBy      uint16 = 20
	zip64VersionNeeded uint16 = 45
)

func versionNeededToExtract(entry *Entry) uint16 {
	if needsZip64Sizes(entry.UncompressedSize, entry.CompressedSize) || needsZip64Offset(entry.LocalHeaderOffset) {
		return zip64VersionNeeded
	}
	switch entry.Compression {
	case Deflate, Deflate64:
		return 20
	default:
		return 10
	}
}

// entryModTimeOrNow returns entry.ModTime, defaulting to the current
// time when the caller left it zero.
func entryModTimeOrNow(entry *Entry) time.Time {
	if entry.ModTime.IsZero() {
		return time.Now()
	}
	return entry.ModTime
}
