package zipflow

import (
	"bytes"
	"errors"

	"github.com/rseg/zipflow/internal/codec"
	"github.com/rseg/zipflow/internal/extrafield"
	"github.com/rseg/zipflow/internal/pipeline"
	"github.com/rseg/zipflow/internal/record"
)

// WriteEntryWhole writes one archive member in a single pass: data is
// compressed into a buffer up front so the local file header can carry
// the entry's final CRC-32 and both size fields, with general-purpose
// flag bit 3 left clear. It is the simpler of the two write strategies
// but requires the whole payload to be resident in memory at once. It
// returns the finalized entry — a copy of entry with CRC32, sizes, and
// LocalHeaderOffset filled in — as recorded in the archive's central
// directory; entry itself is never mutated.
func (w *Writer) WriteEntryWhole(entry *Entry, data []byte) (*Entry, error) {
	switch w.state {
	case writerClosed:
		return nil, ErrWriterClosed
	case writerStreamOpen:
		return nil, ErrEntryAlreadyOpen
	}

	out := cloneEntry(entry)
	headerOffset := w.w.offset

	method := out.Compression
	if w.shouldSkipCompression(out, int64(len(data))) {
		method = Stored
	}

	compressed, crc, err := compressWhole(method, out.CompressionLevel, data)
	if err != nil {
		return nil, err
	}

	uncompressedSize := uint64(len(data))
	compressedSize := uint64(len(compressed))

	localFields, cdFields, usedZip64, err := buildEntryExtraFields(out.ExtraFields, uncompressedSize, compressedSize, headerOffset)
	if err != nil {
		return nil, err
	}
	if usedZip64 && w.forceNoZip64 {
		return nil, ErrEntryTooLarge
	}
	if usedZip64 {
		w.log().Debug("entry promoted to zip64", "name", out.Name, "uncompressed_size", uncompressedSize, "compressed_size", compressedSize)
	}
	w.usedZip64 = w.usedZip64 || usedZip64

	out.Compression = method
	out.CRC32 = crc
	out.UncompressedSize = uncompressedSize
	out.CompressedSize = compressedSize
	out.LocalHeaderOffset = headerOffset
	out.UseDataDescriptor = false

	localFields, cdFields = addUnicodeExtraFields(out, localFields, cdFields)

	nameBytes, utf8Name := encodeEntryNameOrComment(out.Name, out.NameRaw)
	_, utf8Comment := encodeEntryNameOrComment(out.Comment, out.CommentRaw)
	flag := uint16(0)
	if utf8Name && utf8Comment {
		flag |= 1 << 11
	}

	dt := out.dosDateTime()
	lfh := &record.LocalFileHeader{
		VersionNeededToExtract: versionNeededToExtract(out),
		GeneralPurposeFlag:     flag,
		CompressionMethod:      uint16(method),
		LastModFileTime:        dt.Time,
		LastModFileDate:        dt.Date,
		CRC32:                  crc,
		CompressedSize:         truncatedU32(compressedSize),
		UncompressedSize:       truncatedU32(uncompressedSize),
		FileName:               nameBytes,
		ExtraField:             extrafield.Encode(localFields),
	}
	if err := record.WriteLocalFileHeader(w.w, lfh); err != nil {
		return nil, err
	}
	if _, err := w.w.Write(compressed); err != nil {
		return nil, err
	}

	w.reportProgress(StageWritingEntry, out.Name, compressedSize, len(w.entries))

	out.ExtraFields = cdFields
	w.entries = append(w.entries, out)
	return out, nil
}

// compressWhole compresses data with method and returns the compressed
// bytes alongside the CRC-32 of the uncompressed input.
func compressWhole(method Method, level CompressionLevel, data []byte) ([]byte, uint32, error) {
	var buf bytes.Buffer
	ew, err := pipeline.NewEntryWriter(&buf, codec.Method(method), codec.Level(level))
	if err != nil {
		var unsupported *codec.UnsupportedMethodError
		if errors.As(err, &unsupported) {
			return nil, 0, &UnsupportedCompressionError{Method: method}
		}
		return nil, 0, &CompressionError{Method: method, Err: err}
	}
	if _, err := ew.Write(data); err != nil {
		return nil, 0, &CompressionError{Method: method, Err: err}
	}
	if err := ew.Close(); err != nil {
		return nil, 0, &CompressionError{Method: method, Err: err}
	}
	return buf.Bytes(), ew.Sum32(), nil
}

func cloneEntry(entry *Entry) *Entry {
	out := *entry
	out.ExtraFields = append([]extrafield.Field(nil), entry.ExtraFields...)
	return &out
}
