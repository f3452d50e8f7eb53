package zipflow

import (
	"hash/crc32"
	"testing"
	"unicode/utf8"

	"github.com/rseg/zipflow/internal/extrafield"
	"github.com/rseg/zipflow/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryFromCentralDirectoryRecordBasic(t *testing.T) {
	cdr := &record.CentralDirectoryRecord{
		VersionMadeBy:               3 << 8,
		CompressionMethod:           8,
		CRC32:                       0xdeadbeef,
		CompressedSize:              10,
		UncompressedSize:            20,
		GeneralPurposeFlag:          1 << 11,
		RelativeOffsetOfLocalHeader: 100,
		FileName:                    []byte("hello.txt"),
		FileComment:                 []byte("a comment"),
	}
	e, err := entryFromCentralDirectoryRecord(cdr, false)
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", e.Name)
	assert.Equal(t, "a comment", e.Comment)
	assert.Equal(t, Deflate, e.Compression)
	assert.Equal(t, uint32(0xdeadbeef), e.CRC32)
	assert.Equal(t, uint64(20), e.UncompressedSize)
	assert.Equal(t, uint64(10), e.CompressedSize)
	assert.Equal(t, uint64(100), e.LocalHeaderOffset)
	assert.Equal(t, AttributeCompatibilityUnix, e.AttributeCompatibility)
}

func TestEntryFromCentralDirectoryRecordZip64Sizes(t *testing.T) {
	big := uint64(6_000_000_000)
	z := &extrafield.Zip64ExtendedInfo{UncompressedSize: &big, CompressedSize: &big}
	var extra []byte
	extra = z.AppendTo(extra)

	cdr := &record.CentralDirectoryRecord{
		CompressionMethod:  0,
		UncompressedSize:   nonZip64Max32,
		CompressedSize:     nonZip64Max32,
		GeneralPurposeFlag: 1 << 11,
		FileName:           []byte("big.bin"),
		ExtraField:         extra,
	}
	e, err := entryFromCentralDirectoryRecord(cdr, false)
	require.NoError(t, err)
	assert.Equal(t, big, e.UncompressedSize)
	assert.Equal(t, big, e.CompressedSize)
}

func TestDecodeEntryStringUTF8Flag(t *testing.T) {
	s, err := decodeEntryString([]byte("héllo"), true, nil, extrafield.TagInfoZipUnicodePath, false)
	require.NoError(t, err)
	assert.Equal(t, "héllo", s)
}

func TestDecodeEntryStringASCIIFallback(t *testing.T) {
	s, err := decodeEntryString([]byte("plain"), false, nil, extrafield.TagInfoZipUnicodePath, false)
	require.NoError(t, err)
	assert.Equal(t, "plain", s)
}

func TestDecodeEntryStringUnicodeExtraFieldMatch(t *testing.T) {
	raw := []byte{0x93, 0x65} // arbitrary non-ASCII bytes (cp437-ish)
	unicode := &extrafield.InfoZipUnicodePath{CRC32: crc32.ChecksumIEEE(raw), Name: []byte("日本語")}
	s, err := decodeEntryString(raw, false, []extrafield.Field{unicode}, extrafield.TagInfoZipUnicodePath, false)
	require.NoError(t, err)
	assert.Equal(t, "日本語", s)
}

func TestDecodeEntryStringUnflaggedNonASCIIReturnsRawBytesUninterpreted(t *testing.T) {
	raw := []byte{0xE9} // not valid UTF-8 on its own, no Unicode extra field present
	s, err := decodeEntryString(raw, false, nil, extrafield.TagInfoZipUnicodePath, false)
	require.NoError(t, err)
	assert.Equal(t, string(raw), s)
	assert.False(t, utf8.ValidString(s))
}

func TestDecodeEntryStringStrictRejectsNonUTF8(t *testing.T) {
	raw := []byte{0xE9}
	_, err := decodeEntryString(raw, false, nil, extrafield.TagInfoZipUnicodePath, true)
	require.ErrorIs(t, err, ErrStringNotUTF8)
}

func TestIsASCII(t *testing.T) {
	assert.True(t, isASCII([]byte("plain text 123")))
	assert.False(t, isASCII([]byte{0xE9}))
}
