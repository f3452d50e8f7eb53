package pipeline

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rseg/zipflow/internal/codec"
	"github.com/rseg/zipflow/internal/primitive"
)

func TestEntryWriterThenReaderRoundTrip(t *testing.T) {
	content := bytes.Repeat([]byte("payload bytes go here. "), 500)

	var archive bytes.Buffer
	ew, err := NewEntryWriter(&archive, codec.Deflate, codec.DefaultLevel)
	require.NoError(t, err)

	n, err := ew.Write(content)
	require.NoError(t, err)
	assert.Equal(t, len(content), n)
	require.NoError(t, ew.Close())

	assert.Equal(t, uint64(len(content)), ew.UncompressedSize())
	assert.Less(t, ew.CompressedSize(), uint64(len(content)))

	want := primitive.NewCRC32()
	want.Update(content)
	assert.Equal(t, want.Sum32(), ew.Sum32())

	er, err := NewEntryReader(bytes.NewReader(archive.Bytes()), ew.CompressedSize(), codec.Deflate)
	require.NoError(t, err)
	defer er.Close()

	got, err := io.ReadAll(er)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, want.Sum32(), er.Sum32())
	assert.Equal(t, uint64(len(content)), er.BytesRead())
}

func TestEntryWriterStoredMethod(t *testing.T) {
	content := []byte("stored content, no compression")

	var archive bytes.Buffer
	ew, err := NewEntryWriter(&archive, codec.Stored, codec.DefaultLevel)
	require.NoError(t, err)
	_, err = ew.Write(content)
	require.NoError(t, err)
	require.NoError(t, ew.Close())

	assert.Equal(t, uint64(len(content)), ew.CompressedSize())
	assert.Equal(t, content, archive.Bytes())
}

func TestEntryReaderStopsAtCompressedSizeLimit(t *testing.T) {
	content := []byte("twelve bytes")
	var archive bytes.Buffer
	archive.Write(content)
	archive.Write([]byte("trailing bytes that belong to the next entry"))

	er, err := NewEntryReader(bytes.NewReader(archive.Bytes()), uint64(len(content)), codec.Stored)
	require.NoError(t, err)
	defer er.Close()

	got, err := io.ReadAll(er)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestEntryWriterRejectsUnsupportedMethod(t *testing.T) {
	_, err := NewEntryWriter(&bytes.Buffer{}, codec.Deflate64, codec.DefaultLevel)
	require.Error(t, err)
}

func TestCountingReaderAndWriter(t *testing.T) {
	cr := &CountingReader{R: bytes.NewReader([]byte("abcdef"))}
	buf := make([]byte, 3)
	n, err := cr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, uint64(3), cr.N)

	var dst bytes.Buffer
	cw := &CountingWriter{W: &dst}
	_, err = cw.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), cw.N)
}
