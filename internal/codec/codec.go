// Package codec wires the compression methods a ZIP entry can declare to
// concrete encoder/decoder implementations. There is no separate
// support query: NewDecoder and NewEncoder return *UnsupportedMethodError
// for a method this package has no implementation for.
package codec

import (
	"fmt"
	"io"
)

// Method is a ZIP compression method identifier, per APPNOTE 4.4.5.
type Method uint16

const (
	Stored   Method = 0
	Deflate  Method = 8
	Deflate64 Method = 9
	Bzip2    Method = 12
	Lzma     Method = 14
	Zstd     Method = 93
	Xz       Method = 95
)

func (m Method) String() string {
	switch m {
	case Stored:
		return "stored"
	case Deflate:
		return "deflate"
	case Deflate64:
		return "deflate64"
	case Bzip2:
		return "bzip2"
	case Lzma:
		return "lzma"
	case Zstd:
		return "zstd"
	case Xz:
		return "xz"
	default:
		return fmt.Sprintf("method(%d)", uint16(m))
	}
}

// UnsupportedMethodError reports a compression method this build
// recognizes by number but cannot encode or decode.
type UnsupportedMethodError struct {
	Method Method
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("codec: unsupported compression method %s", e.Method)
}

// Level is a compression-effort hint, where applicable; its range and
// meaning are method-specific (e.g. Deflate: 1-9, Zstd: 1-22).
type Level int

// DefaultLevel asks an encoder to use its library's recommended default.
const DefaultLevel Level = 0

// Decoder decompresses a single entry's payload as it is read.
type Decoder interface {
	io.ReadCloser
}

// Encoder compresses a single entry's payload as it is written. Close
// flushes any buffered state but does not close the underlying writer.
type Encoder interface {
	io.WriteCloser
}

// NewDecoder returns a Decoder for method reading compressed bytes from
// r, or an *UnsupportedMethodError if method is not registered.
func NewDecoder(method Method, r io.Reader) (Decoder, error) {
	switch method {
	case Stored:
		return nopDecoder{r}, nil
	case Deflate:
		return newDeflateDecoder(r), nil
	case Bzip2:
		return newBzip2Decoder(r), nil
	case Lzma:
		return newLzmaDecoder(r)
	case Xz:
		return newXzDecoder(r)
	case Zstd:
		return newZstdDecoder(r), nil
	default:
		return nil, &UnsupportedMethodError{Method: method}
	}
}

// NewEncoder returns an Encoder for method writing compressed bytes to w
// at the given level, or an *UnsupportedMethodError if method cannot be
// encoded (Deflate64 is recognized but never encodable; Bzip2 is
// decode-only, matching the same asymmetry).
func NewEncoder(method Method, w io.Writer, level Level) (Encoder, error) {
	switch method {
	case Stored:
		return nopEncoder{w}, nil
	case Deflate:
		return newDeflateEncoder(w, level)
	case Lzma:
		return newLzmaEncoder(w)
	case Xz:
		return newXzEncoder(w)
	case Zstd:
		return newZstdEncoder(w, level)
	default:
		return nil, &UnsupportedMethodError{Method: method}
	}
}

// nopDecoder passes bytes through unmodified for Stored entries.
type nopDecoder struct{ io.Reader }

func (nopDecoder) Close() error { return nil }

// nopEncoder passes bytes through unmodified for Stored entries.
type nopEncoder struct{ io.Writer }

func (nopEncoder) Close() error { return nil }
