package zipflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildMultiStoredArchive(t *testing.T, names []string, payloads [][]byte) []byte {
	t.Helper()
	entries := make([]streamTestEntry, len(names))
	for i, name := range names {
		entries[i] = streamTestEntry{name: name, method: Stored, payload: payloads[i], compressed: payloads[i]}
	}
	return buildStreamArchive(t, entries)
}

func TestConcurrentReaderIndexAndEntryReader(t *testing.T) {
	data := buildMultiStoredArchive(t,
		[]string{"a.txt", "b.txt", "c.txt"},
		[][]byte{[]byte("AAA"), []byte("BB"), []byte("C")})

	r, err := NewConcurrentReader(&testByteSource{data: data})
	require.NoError(t, err)
	require.Equal(t, 3, r.Index().Len())

	er, err := r.EntryReader(1)
	require.NoError(t, err)
	payload, err := er.ReadAllChecked()
	require.NoError(t, err)
	assert.Equal(t, []byte("BB"), payload)
	require.NoError(t, er.Close())
}

func TestConcurrentReaderAllowsOverlappingEntryReaders(t *testing.T) {
	data := buildMultiStoredArchive(t,
		[]string{"a.txt", "b.txt"},
		[][]byte{[]byte("AAA"), []byte("BBB")})

	r, err := NewConcurrentReader(&testByteSource{data: data})
	require.NoError(t, err)

	er1, err := r.EntryReader(0)
	require.NoError(t, err)
	er2, err := r.EntryReader(1)
	require.NoError(t, err)

	p1, err := er1.ReadAllChecked()
	require.NoError(t, err)
	p2, err := er2.ReadAllChecked()
	require.NoError(t, err)

	assert.Equal(t, []byte("AAA"), p1)
	assert.Equal(t, []byte("BBB"), p2)
	require.NoError(t, er1.Close())
	require.NoError(t, er2.Close())
}

func TestConcurrentReaderReadAllOrdersResultsByInputIndex(t *testing.T) {
	data := buildMultiStoredArchive(t,
		[]string{"a.txt", "b.txt", "c.txt"},
		[][]byte{[]byte("AAA"), []byte("BB"), []byte("C")})

	r, err := NewConcurrentReader(&testByteSource{data: data})
	require.NoError(t, err)

	results, err := r.ReadAll(context.Background(), 2, 2, 0, 1)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 2, results[0].Index)
	assert.Equal(t, []byte("C"), results[0].Data)
	assert.Equal(t, 0, results[1].Index)
	assert.Equal(t, []byte("AAA"), results[1].Data)
	assert.Equal(t, 1, results[2].Index)
	assert.Equal(t, []byte("BB"), results[2].Data)

	for _, res := range results {
		assert.NoError(t, res.Err)
	}
}

func TestConcurrentReaderReadAllReportsPerEntryError(t *testing.T) {
	data := buildMultiStoredArchive(t, []string{"a.txt"}, [][]byte{[]byte("AAA")})

	r, err := NewConcurrentReader(&testByteSource{data: data})
	require.NoError(t, err)

	results, err := r.ReadAll(context.Background(), 1, 0, 99)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, ErrEntryIndexOutOfBounds)
}

func TestConcurrentReaderDefaultConcurrency(t *testing.T) {
	data := buildMultiStoredArchive(t, []string{"a.txt"}, [][]byte{[]byte("AAA")})

	r, err := NewConcurrentReader(&testByteSource{data: data})
	require.NoError(t, err)

	results, err := r.ReadAll(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []byte("AAA"), results[0].Data)
}
