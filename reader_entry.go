package zipflow

import (
	"errors"
	"io"

	"github.com/rseg/zipflow/internal/codec"
	"github.com/rseg/zipflow/internal/pipeline"
)

// EntryReader streams one entry's decompressed payload. It wraps the
// internal entry pipeline with the metadata needed to verify the
// result once the caller has read to EOF.
type EntryReader struct {
	pipe      *pipeline.EntryReader
	entry     *Entry
	release   func()
	closeHook func() error
	closed    bool
}

func newEntryReader(pipe *pipeline.EntryReader, entry *Entry) *EntryReader {
	return &EntryReader{pipe: pipe, entry: entry}
}

// Read decompresses and returns entry payload bytes.
func (r *EntryReader) Read(p []byte) (int, error) {
	return r.pipe.Read(p)
}

// Close releases the decoder and, for a SeekReader-opened entry,
// clears the exclusive-borrow flag so the next entry may be opened.
// It does not affect the underlying archive source.
func (r *EntryReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.release != nil {
		r.release()
	}
	err := r.pipe.Close()
	if r.closeHook != nil {
		if hookErr := r.closeHook(); hookErr != nil && err == nil {
			err = hookErr
		}
	}
	return err
}

// Entry returns the metadata this reader was opened against.
func (r *EntryReader) Entry() *Entry {
	return r.entry
}

// ReadAllChecked reads the entry to completion and verifies the
// resulting CRC-32 against the value recorded in the central
// directory, the library's analogue of read_to_end_checked: a
// corrupted payload is reported as *CRCMismatchError rather than
// silently returned to the caller.
func (r *EntryReader) ReadAllChecked() ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if sum := r.pipe.Sum32(); sum != r.entry.CRC32 {
		return data, &CRCMismatchError{Name: r.entry.Name, Expected: r.entry.CRC32, Actual: sum}
	}
	return data, nil
}

// Verify compares the CRC-32 accumulated so far against the entry's
// stored value. Call it only after reading to EOF; a partial read
// will report a mismatch even against an uncorrupted entry.
func (r *EntryReader) Verify() error {
	if sum := r.pipe.Sum32(); sum != r.entry.CRC32 {
		return &CRCMismatchError{Name: r.entry.Name, Expected: r.entry.CRC32, Actual: sum}
	}
	return nil
}

// openEntryPipeline constructs the decompression pipeline for an
// entry whose compressed payload starts at the reader's current
// position.
func openEntryPipeline(raw io.Reader, entry *Entry) (*EntryReader, error) {
	pipe, err := pipeline.NewEntryReader(raw, entry.CompressedSize, codec.Method(entry.Compression))
	if err != nil {
		var unsupported *codec.UnsupportedMethodError
		if errors.As(err, &unsupported) {
			return nil, &UnsupportedCompressionError{Method: Method(unsupported.Method)}
		}
		return nil, &CompressionError{Method: entry.Compression, Err: err}
	}
	return newEntryReader(pipe, entry), nil
}
