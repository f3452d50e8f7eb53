package zipflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/rseg/zipflow/internal/record"
)

// ConcurrentReader gives out entry readers over a random-access source
// with no shared mutable cursor: each call to EntryReader opens its own
// independent section of the source, so callers may read multiple
// entries at once without SeekReader's exclusive-borrow contract.
type ConcurrentReader struct {
	source ByteSource
	index  *Index
	cfg    readerConfig
}

// NewConcurrentReader parses source's central directory and returns a
// ConcurrentReader ready to open entries concurrently.
func NewConcurrentReader(source ByteSource, opts ...ReaderOption) (*ConcurrentReader, error) {
	cfg := defaultReaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sr := io.NewSectionReader(source, 0, source.Size())
	loc, err := locateCentralDirectory(sr)
	if err != nil {
		return nil, err
	}
	if _, err := sr.Seek(int64(loc.offset), io.SeekStart); err != nil {
		return nil, err
	}
	entries, err := parseCentralDirectoryEntries(io.LimitReader(sr, int64(loc.size)), loc.entries, cfg.strictStringDecoding)
	if err != nil {
		return nil, err
	}
	if uint64(len(entries)) != loc.entries {
		return nil, ErrCorruptIndex
	}

	cfg.log().Debug("concurrent reader opened", "entries", len(entries), "zip64", loc.isZip64)

	return &ConcurrentReader{
		source: source,
		index:  NewIndex(entries, loc.comment),
		cfg:    cfg,
	}, nil
}

// Index returns the archive's parsed central directory.
func (r *ConcurrentReader) Index() *Index { return r.index }

// EntryReader opens entry i over a fresh section of the source,
// independent of any other entry reader obtained from r — concurrent
// calls are safe as long as the underlying ByteSource's ReadAt is.
func (r *ConcurrentReader) EntryReader(i int) (*EntryReader, error) {
	if i < 0 || i >= r.index.Len() {
		return nil, ErrEntryIndexOutOfBounds
	}
	entry := r.index.At(i)

	sr := io.NewSectionReader(r.source, 0, r.source.Size())
	if _, err := sr.Seek(int64(entry.LocalHeaderOffset), io.SeekStart); err != nil {
		return nil, err
	}
	lfh, err := record.ReadLocalFileHeader(sr)
	if err != nil {
		return nil, fmt.Errorf("entry %d: %w", i, err)
	}
	if r.cfg.verifyLocalHeaderName && !bytes.Equal(lfh.FileName, entry.NameRaw) {
		return nil, fmt.Errorf("entry %d: %w: local header name %q disagrees with central directory name %q",
			i, ErrCorruptIndex, lfh.FileName, entry.NameRaw)
	}

	return openEntryPipeline(sr, entry)
}

// ReadResult is one entry's outcome from ReadAll: either its checked
// payload or the error that occurred opening or reading it.
type ReadResult struct {
	Index int
	Data  []byte
	Err   error
}

// ReadAll opens and CRC-checks every entry named by indices concurrently,
// bounded by maxConcurrency simultaneous entry readers (a value <= 0
// defaults to GOMAXPROCS). Results are returned in the same order as
// indices, each carrying its own error rather than aborting the whole
// batch — ctx cancellation is the only thing that short-circuits the
// remaining work and is returned as ReadAll's own error.
func (r *ConcurrentReader) ReadAll(ctx context.Context, maxConcurrency int, indices ...int) ([]ReadResult, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = runtime.GOMAXPROCS(0)
	}
	sem := semaphore.NewWeighted(int64(maxConcurrency))
	results := make([]ReadResult, len(indices))

	eg, ctx := errgroup.WithContext(ctx)
	for pos, idx := range indices {
		pos, idx := pos, idx
		eg.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			er, err := r.EntryReader(idx)
			if err != nil {
				results[pos] = ReadResult{Index: idx, Err: err}
				return nil
			}
			data, readErr := er.ReadAllChecked()
			closeErr := er.Close()
			if readErr == nil {
				readErr = closeErr
			}
			results[pos] = ReadResult{Index: idx, Data: data, Err: readErr}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
