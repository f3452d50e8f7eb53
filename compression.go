package zipflow

import "github.com/rseg/zipflow/internal/codec"

// Method identifies a ZIP entry's compression method, per APPNOTE 4.4.5.
type Method = codec.Method

// Recognized compression methods. Deflate64 is recognized but never
// encodable or decodable in this build (see DESIGN.md); Bzip2 is
// decodable but not encodable, the same asymmetry.
const (
	Stored    = codec.Stored
	Deflate   = codec.Deflate
	Deflate64 = codec.Deflate64
	Bzip2     = codec.Bzip2
	Lzma      = codec.Lzma
	Zstd      = codec.Zstd
	Xz        = codec.Xz
)

// CompressionLevel is an effort hint passed to an encoder; its range and
// meaning are method-specific.
type CompressionLevel = codec.Level

// DefaultCompressionLevel asks an encoder to use its library's
// recommended default.
const DefaultCompressionLevel = codec.DefaultLevel
