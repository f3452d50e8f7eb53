package primitive

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteU16(&buf, 0xBEEF))
	require.NoError(t, WriteU32(&buf, 0xDEADBEEF))
	require.NoError(t, WriteU64(&buf, 0x0123456789ABCDEF))

	u16, err := ReadU16(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), u16)

	u32, err := ReadU32(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	u64, err := ReadU64(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0123456789ABCDEF), u64)
}

func TestReadShortInput(t *testing.T) {
	_, err := ReadU32(bytes.NewReader([]byte{1, 2}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestReadBytesZeroLength(t *testing.T) {
	b, err := ReadBytes(bytes.NewReader(nil), 0)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestReadBytesExact(t *testing.T) {
	b, err := ReadBytes(bytes.NewReader([]byte("hello world")), 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), b)
}

func TestReadBytesShort(t *testing.T) {
	_, err := ReadBytes(bytes.NewReader([]byte("ab")), 5)
	require.Error(t, err)
}

func TestAssertSignatureMatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteU32(&buf, 0x04034b50))
	require.NoError(t, AssertSignature(&buf, 0x04034b50))
}

func TestAssertSignatureMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteU32(&buf, 0x02014b50))
	err := AssertSignature(&buf, 0x04034b50)
	require.Error(t, err)
	var sigErr *SignatureError
	require.True(t, errors.As(err, &sigErr))
	assert.Equal(t, uint32(0x04034b50), sigErr.Want)
	assert.Equal(t, uint32(0x02014b50), sigErr.Got)
}

func TestCRC32KnownVector(t *testing.T) {
	c := NewCRC32()
	c.Update([]byte("123456789"))
	assert.Equal(t, uint32(0xCBF43926), c.Sum32())
}

func TestCRC32Reset(t *testing.T) {
	c := NewCRC32()
	c.Update([]byte("abc"))
	require.NotZero(t, c.Sum32())
	c.Reset()
	assert.Equal(t, uint32(0), c.Sum32())
}

func TestCRC32IncrementalMatchesSinglePass(t *testing.T) {
	whole := NewCRC32()
	whole.Update([]byte("the quick brown fox"))

	chunked := NewCRC32()
	chunked.Update([]byte("the quick "))
	chunked.Update([]byte("brown fox"))

	assert.Equal(t, whole.Sum32(), chunked.Sum32())
}
