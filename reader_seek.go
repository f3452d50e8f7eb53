package zipflow

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/rseg/zipflow/internal/record"
)

// ErrEntryIndexOutOfBounds is returned when an entry index passed to
// SeekReader or ConcurrentReader falls outside the archive's entry
// count.
var ErrEntryIndexOutOfBounds = errors.New("zipflow: entry index out of bounds")

// ErrEntryOpen is returned when a second entry reader is requested
// from a SeekReader while a previous one is still open — the seek
// reader holds an exclusive borrow of its source, so interleaved reads
// would race the shared cursor.
var ErrEntryOpen = errors.New("zipflow: a SeekReader entry reader is already open")

// SeekReader provides random-access reads over a seekable archive
// source: the central directory is parsed once up front, and any
// entry can then be opened by index in any order. Only one entry
// reader may be open at a time; open a ConcurrentReader instead for
// independently cursored concurrent access.
type SeekReader struct {
	source ByteSource
	sr     io.ReadSeeker
	index  *Index
	cfg    readerConfig
	open   bool
}

// NewSeekReader parses source's central directory and returns a
// SeekReader ready to open entries by index.
func NewSeekReader(source ByteSource, opts ...ReaderOption) (*SeekReader, error) {
	cfg := defaultReaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sr := io.NewSectionReader(source, 0, source.Size())
	loc, err := locateCentralDirectory(sr)
	if err != nil {
		return nil, err
	}

	cdOffset, err := seekOffset(loc.offset)
	if err != nil {
		return nil, err
	}
	if _, err := sr.Seek(cdOffset, io.SeekStart); err != nil {
		return nil, err
	}
	cdSize, err := seekOffset(loc.size)
	if err != nil {
		return nil, err
	}
	entries, err := parseCentralDirectoryEntries(io.LimitReader(sr, cdSize), loc.entries, cfg.strictStringDecoding)
	if err != nil {
		return nil, err
	}
	if uint64(len(entries)) != loc.entries {
		return nil, ErrCorruptIndex
	}

	cfg.log().Debug("seek reader opened", "entries", len(entries), "zip64", loc.isZip64)

	return &SeekReader{
		source: source,
		sr:     sr,
		index:  NewIndex(entries, loc.comment),
		cfg:    cfg,
	}, nil
}

// Index returns the archive's parsed central directory.
func (r *SeekReader) Index() *Index { return r.index }

// EntryReader seeks to entry i's local header, reparses it, and
// returns a reader over its decompressed payload. Per the seek
// strategy's exclusivity contract, the previous entry reader (if any)
// must be closed first.
func (r *SeekReader) EntryReader(i int) (*EntryReader, error) {
	if r.open {
		return nil, ErrEntryOpen
	}
	if i < 0 || i >= r.index.Len() {
		return nil, ErrEntryIndexOutOfBounds
	}
	entry := r.index.At(i)

	if !entryRangeWithinArchive(entry.LocalHeaderOffset, entry.CompressedSize, r.source.Size()) {
		return nil, fmt.Errorf("entry %d: %w: declared range runs past the end of the archive", i, ErrCorruptIndex)
	}

	headerOffset, err := seekOffset(entry.LocalHeaderOffset)
	if err != nil {
		return nil, err
	}
	if _, err := r.sr.Seek(headerOffset, io.SeekStart); err != nil {
		return nil, err
	}
	lfh, err := record.ReadLocalFileHeader(r.sr)
	if err != nil {
		return nil, fmt.Errorf("entry %d: %w", i, err)
	}
	if r.cfg.verifyLocalHeaderName && !bytes.Equal(lfh.FileName, entry.NameRaw) {
		return nil, fmt.Errorf("entry %d: %w: local header name %q disagrees with central directory name %q",
			i, ErrCorruptIndex, lfh.FileName, entry.NameRaw)
	}

	er, err := openEntryPipeline(r.sr, entry)
	if err != nil {
		return nil, err
	}
	r.open = true
	er.release = func() { r.open = false }
	return er, nil
}
