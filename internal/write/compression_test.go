package write

import (
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeFileInfo struct {
	name string
	size int64
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return f.size }
func (f fakeFileInfo) Mode() fs.FileMode  { return 0 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return false }
func (f fakeFileInfo) Sys() any           { return nil }

func TestDefaultSkipCompressionSmallFile(t *testing.T) {
	skip := DefaultSkipCompression(1024)
	assert.True(t, skip("notes.txt", 10, fakeFileInfo{name: "notes.txt", size: 10}))
}

func TestDefaultSkipCompressionLargeFileNotSkipped(t *testing.T) {
	skip := DefaultSkipCompression(1024)
	assert.False(t, skip("notes.txt", 100000, fakeFileInfo{name: "notes.txt", size: 100000}))
}

func TestDefaultSkipCompressionKnownExtension(t *testing.T) {
	skip := DefaultSkipCompression(0)
	assert.True(t, skip("photo.JPG", 50, nil))
	assert.True(t, skip("archive.zip", 50, nil))
}

func TestDefaultSkipCompressionCompressibleFile(t *testing.T) {
	skip := DefaultSkipCompression(0)
	assert.False(t, skip("source.go", 50, nil))
}

func TestShouldSkipNoPredicates(t *testing.T) {
	assert.False(t, ShouldSkip("x.go", 0, nil, nil))
}

func TestShouldSkipNilPredicateIgnored(t *testing.T) {
	predicates := []SkipCompressionFunc{nil, DefaultSkipCompression(0)}
	assert.True(t, ShouldSkip("x.zip", 50, nil, predicates))
	assert.False(t, ShouldSkip("x.go", 50, nil, predicates))
}
