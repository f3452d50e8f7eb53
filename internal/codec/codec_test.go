package codec

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var payload = bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 200)

func roundTrip(t *testing.T, method Method, level Level) {
	t.Helper()
	var compressed bytes.Buffer

	enc, err := NewEncoder(method, &compressed, level)
	require.NoError(t, err)
	_, err = enc.Write(payload)
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	dec, err := NewDecoder(method, bytes.NewReader(compressed.Bytes()))
	require.NoError(t, err)
	defer dec.Close()

	got, err := io.ReadAll(dec)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestStoredRoundTrip(t *testing.T) {
	roundTrip(t, Stored, DefaultLevel)
}

func TestDeflateRoundTrip(t *testing.T) {
	roundTrip(t, Deflate, DefaultLevel)
}

func TestDeflateRoundTripExplicitLevel(t *testing.T) {
	roundTrip(t, Deflate, Level(9))
}

func TestZstdRoundTrip(t *testing.T) {
	roundTrip(t, Zstd, DefaultLevel)
}

func TestZstdRoundTripHighLevel(t *testing.T) {
	roundTrip(t, Zstd, Level(19))
}

func TestLzmaRoundTrip(t *testing.T) {
	roundTrip(t, Lzma, DefaultLevel)
}

func TestXzRoundTrip(t *testing.T) {
	roundTrip(t, Xz, DefaultLevel)
}

func TestBzip2DecodeOnly(t *testing.T) {
	_, err := NewEncoder(Bzip2, &bytes.Buffer{}, DefaultLevel)
	var unsupported *UnsupportedMethodError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, Bzip2, unsupported.Method)
}

func TestDeflate64Unsupported(t *testing.T) {
	_, err := NewDecoder(Deflate64, bytes.NewReader(nil))
	var unsupported *UnsupportedMethodError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, Deflate64, unsupported.Method)

	_, err = NewEncoder(Deflate64, &bytes.Buffer{}, DefaultLevel)
	require.ErrorAs(t, err, &unsupported)
}

func TestUnknownMethodUnsupported(t *testing.T) {
	_, err := NewDecoder(Method(1234), bytes.NewReader(nil))
	require.Error(t, err)
}

func TestMethodString(t *testing.T) {
	assert.Equal(t, "deflate", Deflate.String())
	assert.Equal(t, "zstd", Zstd.String())
	assert.Contains(t, Method(4321).String(), "4321")
}

func TestZstdDecoderPoolReuse(t *testing.T) {
	// Round-trip twice to exercise the pooled-decoder Reset path, not
	// just a fresh decoder.
	roundTrip(t, Zstd, DefaultLevel)
	roundTrip(t, Zstd, DefaultLevel)
}
