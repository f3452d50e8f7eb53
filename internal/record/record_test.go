package record

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileHeaderRoundTrip(t *testing.T) {
	h := &LocalFileHeader{
		VersionNeededToExtract: 20,
		GeneralPurposeFlag:     0,
		CompressionMethod:      8,
		LastModFileTime:        0x1234,
		LastModFileDate:        0x5678,
		CRC32:                  0xDEADBEEF,
		CompressedSize:         100,
		UncompressedSize:       200,
		FileName:               []byte("hello.txt"),
		ExtraField:             []byte{0x01, 0x00, 0x00, 0x00},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteLocalFileHeader(&buf, h))
	assert.Equal(t, h.Size(), buf.Len())

	got, err := ReadLocalFileHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestLocalFileHeaderBadSignature(t *testing.T) {
	_, err := ReadLocalFileHeader(bytes.NewReader([]byte{0, 0, 0, 0, 0, 0}))
	require.Error(t, err)
}

func TestCentralDirectoryRecordRoundTrip(t *testing.T) {
	c := &CentralDirectoryRecord{
		VersionMadeBy:               63,
		VersionNeededToExtract:      20,
		CompressionMethod:           93,
		CRC32:                       1234,
		CompressedSize:              10,
		UncompressedSize:            20,
		ExternalFileAttributes:      0o100644 << 16,
		RelativeOffsetOfLocalHeader: 4096,
		FileName:                    []byte("dir/file.bin"),
		ExtraField:                  nil,
		FileComment:                 []byte("a comment"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCentralDirectoryRecord(&buf, c))
	assert.Equal(t, c.Size(), buf.Len())

	got, err := ReadCentralDirectoryRecord(&buf)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestEndOfCentralDirectoryRecordRoundTrip(t *testing.T) {
	e := &EndOfCentralDirectoryRecord{
		TotalEntriesOnThisDisk:          3,
		TotalEntries:                    3,
		SizeOfCentralDirectory:          512,
		OffsetOfStartOfCentralDirectory: 1024,
		ZipFileComment:                  []byte("archive comment"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEndOfCentralDirectoryRecord(&buf, e))
	assert.Equal(t, e.Size(), buf.Len())

	got, err := ReadEndOfCentralDirectoryRecord(&buf)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestLocateEndOfCentralDirectoryNoComment(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte("some fake central directory bytes"))
	eocdOffset := int64(buf.Len())
	e := &EndOfCentralDirectoryRecord{TotalEntries: 1}
	require.NoError(t, WriteEndOfCentralDirectoryRecord(&buf, e))

	r := bytes.NewReader(buf.Bytes())
	got, err := LocateEndOfCentralDirectory(r)
	require.NoError(t, err)
	assert.Equal(t, eocdOffset, got)
}

func TestLocateEndOfCentralDirectoryWithComment(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte("central directory data"))
	eocdOffset := int64(buf.Len())
	e := &EndOfCentralDirectoryRecord{TotalEntries: 2, ZipFileComment: []byte("trailing comment text")}
	require.NoError(t, WriteEndOfCentralDirectoryRecord(&buf, e))

	got, err := LocateEndOfCentralDirectory(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, eocdOffset, got)
}

func TestLocateEndOfCentralDirectoryNotFound(t *testing.T) {
	r := bytes.NewReader([]byte("no eocd record anywhere in here"))
	_, err := LocateEndOfCentralDirectory(r)
	require.ErrorIs(t, err, ErrEOCDNotFound)
}

func TestLocateEndOfCentralDirectorySignatureBeforeRecord(t *testing.T) {
	// EOCD signature bytes earlier in the stream must not be mistaken for
	// the real trailer; the real (later) one wins.
	var fakeSig bytes.Buffer
	require.NoError(t, writeU32LE(&fakeSig, EndOfCentralDirectorySignature))

	var buf bytes.Buffer
	realE := &EndOfCentralDirectoryRecord{TotalEntries: 7}

	// Write a decoy EOCD-like signature earlier in the stream.
	buf.Write(fakeSig.Bytes())
	buf.Write([]byte("----"))

	eocdOffset := int64(buf.Len())
	require.NoError(t, WriteEndOfCentralDirectoryRecord(&buf, realE))

	got, err := LocateEndOfCentralDirectory(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, eocdOffset, got)
}

func writeU32LE(w *bytes.Buffer, v uint32) error {
	w.WriteByte(byte(v))
	w.WriteByte(byte(v >> 8))
	w.WriteByte(byte(v >> 16))
	w.WriteByte(byte(v >> 24))
	return nil
}

func TestZip64EndOfCentralDirectoryRecordRoundTrip(t *testing.T) {
	z := &Zip64EndOfCentralDirectoryRecord{
		VersionMadeBy:                   63,
		VersionNeededToExtract:          45,
		TotalEntriesOnThisDisk:          100000,
		TotalEntries:                    100000,
		SizeOfCentralDirectory:          5_000_000,
		OffsetOfStartOfCentralDirectory: 10_000_000,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteZip64EndOfCentralDirectoryRecord(&buf, z))
	assert.Equal(t, z.Size(), buf.Len())

	got, err := ReadZip64EndOfCentralDirectoryRecord(&buf)
	require.NoError(t, err)
	assert.Equal(t, z, got)
}

func TestZip64LocatorRoundTrip(t *testing.T) {
	l := &Zip64EndOfCentralDirectoryLocator{
		RelativeOffsetOfZip64EOCD: 123456789,
		TotalDisks:                1,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteZip64EndOfCentralDirectoryLocator(&buf, l))
	assert.Equal(t, Zip64LocatorSize, buf.Len())

	got, err := ReadZip64EndOfCentralDirectoryLocator(&buf)
	require.NoError(t, err)
	assert.Equal(t, l, got)
}

func TestLocateZip64LocatorFound(t *testing.T) {
	var buf bytes.Buffer
	l := &Zip64EndOfCentralDirectoryLocator{RelativeOffsetOfZip64EOCD: 999}
	require.NoError(t, WriteZip64EndOfCentralDirectoryLocator(&buf, l))
	eocdOffset := int64(buf.Len())
	buf.Write([]byte("eocd bytes here..."))

	r := bytes.NewReader(buf.Bytes())
	got, err := LocateZip64EndOfCentralDirectoryLocator(r, eocdOffset)
	require.NoError(t, err)
	assert.Equal(t, l, got)
}

func TestLocateZip64LocatorNotPresent(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(bytes.Repeat([]byte{0x00}, 40))
	r := bytes.NewReader(buf.Bytes())
	_, err := LocateZip64EndOfCentralDirectoryLocator(r, 40)
	require.ErrorIs(t, err, ErrZip64LocatorNotFound)
}

func TestDataDescriptorRoundTrip32Bit(t *testing.T) {
	d := &DataDescriptor{CRC32: 42, CompressedSize: 10, UncompressedSize: 20}

	var buf bytes.Buffer
	require.NoError(t, WriteDataDescriptor(&buf, d))
	assert.Equal(t, d.Size(), buf.Len())

	got, err := ReadDataDescriptor(bufio.NewReader(&buf), false)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestDataDescriptorRoundTrip64Bit(t *testing.T) {
	d := &DataDescriptor{CRC32: 42, CompressedSize: 1 << 40, UncompressedSize: 1 << 41, Zip64: true}

	var buf bytes.Buffer
	require.NoError(t, WriteDataDescriptor(&buf, d))
	assert.Equal(t, d.Size(), buf.Len())

	got, err := ReadDataDescriptor(bufio.NewReader(&buf), true)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestDataDescriptorWithoutOptionalSignature(t *testing.T) {
	var buf bytes.Buffer
	// Write only the fixed fields, no signature, as some producers omit it.
	require.NoError(t, writeU32LE(&buf, 99))  // crc32
	require.NoError(t, writeU32LE(&buf, 5))   // compressed
	require.NoError(t, writeU32LE(&buf, 10))  // uncompressed

	got, err := ReadDataDescriptor(bufio.NewReader(&buf), false)
	require.NoError(t, err)
	assert.Equal(t, uint32(99), got.CRC32)
	assert.Equal(t, uint64(5), got.CompressedSize)
	assert.Equal(t, uint64(10), got.UncompressedSize)
}
