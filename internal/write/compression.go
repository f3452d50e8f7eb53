// Package write holds predicates the archive writer consults before
// compressing an entry's payload.
package write

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// SkipCompressionFunc reports whether an entry named path should be
// stored uncompressed instead of run through its declared compression
// method. size is the entry's uncompressed size; info may be nil when
// the caller has no fs.FileInfo for the entry (e.g. it was built from
// an in-memory buffer or a streamed source).
type SkipCompressionFunc func(path string, size int64, info fs.FileInfo) bool

// DefaultSkipCompression returns a SkipCompressionFunc that skips
// entries smaller than minSize (compression overhead usually outweighs
// the saving) and entries whose extension signals an already-compressed
// format.
func DefaultSkipCompression(minSize int64) SkipCompressionFunc {
	return func(path string, size int64, info fs.FileInfo) bool {
		if minSize > 0 && size < minSize {
			return true
		}
		ext := strings.ToLower(filepath.Ext(path))
		_, ok := defaultSkipCompressionExts[ext]
		return ok
	}
}

// ShouldSkip reports whether any predicate in predicates wants path,
// with the given size, stored uncompressed.
func ShouldSkip(path string, size int64, info fs.FileInfo, predicates []SkipCompressionFunc) bool {
	for _, fn := range predicates {
		if fn == nil {
			continue
		}
		if fn(path, size, info) {
			return true
		}
	}
	return false
}

var defaultSkipCompressionExts = map[string]struct{}{
	".7z":    {},
	".aac":   {},
	".avif":  {},
	".br":    {},
	".bz2":   {},
	".flac":  {},
	".gif":   {},
	".gz":    {},
	".heic":  {},
	".ico":   {},
	".jpeg":  {},
	".jpg":   {},
	".m4v":   {},
	".mkv":   {},
	".mov":   {},
	".mp3":   {},
	".mp4":   {},
	".ogg":   {},
	".opus":  {},
	".pdf":   {},
	".png":   {},
	".rar":   {},
	".tgz":   {},
	".wav":   {},
	".webm":  {},
	".webp":  {},
	".woff":  {},
	".woff2": {},
	".xz":    {},
	".zip":   {},
	".zst":   {},
}
