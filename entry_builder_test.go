package zipflow

import (
	"io/fs"
	"testing"
	"time"

	"github.com/rseg/zipflow/internal/extrafield"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntryBuilderDefaults(t *testing.T) {
	e := NewEntryBuilder("hello.txt", Deflate).Build()
	assert.Equal(t, "hello.txt", e.Name)
	assert.Equal(t, Deflate, e.Compression)
	assert.Equal(t, AttributeCompatibilityUnix, e.AttributeCompatibility)
	assert.Equal(t, DefaultCompressionLevel, e.CompressionLevel)
}

func TestEntryBuilderFluentSetters(t *testing.T) {
	mt := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	e := NewEntryBuilder("a/b.bin", Stored).
		CompressionLevel(CompressionLevel(5)).
		AttributeCompatibility(AttributeCompatibilityDOS).
		ModTime(mt).
		InternalAttributes(1).
		ExternalAttributes(0x20).
		Comment("a comment").
		UseDataDescriptor(true).
		ExtraField(&extrafield.Unknown{ID: 0x9999, Data: []byte{1, 2}}).
		Build()

	assert.Equal(t, CompressionLevel(5), e.CompressionLevel)
	assert.Equal(t, AttributeCompatibilityDOS, e.AttributeCompatibility)
	assert.True(t, mt.Equal(e.ModTime))
	assert.Equal(t, uint16(1), e.InternalAttributes)
	assert.Equal(t, uint32(0x20), e.ExternalAttributes)
	assert.Equal(t, "a comment", e.Comment)
	assert.True(t, e.UseDataDescriptor)
	require.Len(t, e.ExtraFields, 1)
	assert.Equal(t, uint16(0x9999), e.ExtraFields[0].Tag())
}

func TestEntryBuilderUnixModeRegularFile(t *testing.T) {
	e := NewEntryBuilder("f", Stored).UnixMode(0o644).Build()
	assert.Equal(t, AttributeCompatibilityUnix, e.AttributeCompatibility)
	mode := (e.ExternalAttributes >> 16) & 0xFFFF
	assert.Equal(t, uint32(0o100644), mode)
}

func TestEntryBuilderUnixModeDirectory(t *testing.T) {
	e := NewEntryBuilder("d/", Stored).UnixMode(fs.ModeDir | 0o755).Build()
	mode := (e.ExternalAttributes >> 16) & 0xFFFF
	assert.Equal(t, uint32(0o040755), mode)
}

func TestEntryBuilderUnixModeSymlink(t *testing.T) {
	e := NewEntryBuilder("l", Stored).UnixMode(fs.ModeSymlink | 0o777).Build()
	mode := (e.ExternalAttributes >> 16) & 0xFFFF
	assert.Equal(t, uint32(0o120777), mode)
}

type fakeInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (f fakeInfo) Name() string       { return f.name }
func (f fakeInfo) Size() int64        { return f.size }
func (f fakeInfo) Mode() fs.FileMode  { return f.mode }
func (f fakeInfo) ModTime() time.Time { return f.modTime }
func (f fakeInfo) IsDir() bool        { return f.isDir }
func (f fakeInfo) Sys() interface{}   { return nil }

func TestFromFileInfoRegularFile(t *testing.T) {
	mt := time.Date(2023, 6, 15, 9, 0, 0, 0, time.UTC)
	info := fakeInfo{name: "report.csv", size: 1024, mode: 0o640, modTime: mt}

	e := FromFileInfo("dir/report.csv", info, Deflate).Build()
	assert.Equal(t, "dir/report.csv", e.Name)
	assert.False(t, e.IsDir())
	assert.True(t, mt.Equal(e.ModTime))

	require.Len(t, e.ExtraFields, 2)
	ts, ok := e.ExtraFields[0].(*extrafield.UnixTimestamps)
	require.True(t, ok)
	assert.True(t, ts.HasModTime)
	assert.Equal(t, int32(mt.Unix()), ts.ModTime)

	owner, ok := e.ExtraFields[1].(*extrafield.UnixOwner)
	require.True(t, ok)
	assert.Equal(t, uint32(0), owner.UID)
	assert.Equal(t, uint32(0), owner.GID)
}

func TestFromFileInfoDirectoryGetsTrailingSlash(t *testing.T) {
	info := fakeInfo{name: "sub", mode: fs.ModeDir | 0o755, isDir: true, modTime: time.Now()}
	e := FromFileInfo("sub", info, Stored).Build()
	assert.Equal(t, "sub/", e.Name)
	assert.True(t, e.IsDir())
}

func TestNormalizeEntryNameConvertsBackslashesAndStripsLeadingSlash(t *testing.T) {
	assert.Equal(t, "a/b/c", normalizeEntryName("/a\\b\\c", false))
	assert.Equal(t, "a/b/", normalizeEntryName("a/b", true))
	assert.Equal(t, "a/b/", normalizeEntryName("a/b/", true))
}
