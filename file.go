package zipflow

import (
	"fmt"
	"os"
)

// ByteSource is a random-access byte source with a known length, the
// minimal contract SeekReader and ConcurrentReader need: an
// io.ReaderAt plus its total size, so the central directory can be
// located and seeked to without a separate stat call on every use.
type ByteSource interface {
	ReadAt(p []byte, off int64) (int, error)
	Size() int64
}

// fileSource wraps *os.File to implement ByteSource. os.File has
// ReadAt but not Size, so the size is cached at construction.
type fileSource struct {
	file *os.File
	size int64
}

func newFileSource(f *os.File) (*fileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive file: %w", err)
	}
	return &fileSource{file: f, size: info.Size()}, nil
}

func (fs *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return fs.file.ReadAt(p, off)
}

func (fs *fileSource) Size() int64 {
	return fs.size
}

// File wraps a SeekReader with the open *os.File backing it. Close
// must be called to release the file handle.
type File struct {
	*SeekReader
	file *os.File
}

// Close closes the underlying archive file.
func (f *File) Close() error {
	if f.file == nil {
		return nil
	}
	f.cfg.log().Debug("archive file closed")
	err := f.file.Close()
	f.file = nil
	return err
}

// OpenFile opens the ZIP archive at path, parses its central directory,
// and returns a File ready for random-access reads. The returned File
// must be closed to release its file handle.
func OpenFile(path string, opts ...ReaderOption) (*File, error) {
	f, err := os.Open(path) //nolint:gosec // caller-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open archive file: %w", err)
	}

	source, err := newFileSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	r, err := NewSeekReader(source, opts...)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("parse archive: %w", err)
	}

	return &File{SeekReader: r, file: f}, nil
}

var _ ByteSource = (*fileSource)(nil)
