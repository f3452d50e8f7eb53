package codec

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdDecoderPool reuses zstd decoders across entries, matching the
// teacher's DecompressPool: construction is the expensive part, not
// Reset.
var zstdDecoderPool = &sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil
		}
		return dec
	},
}

type zstdDecoder struct {
	dec *zstd.Decoder
}

func newZstdDecoder(r io.Reader) Decoder {
	v := zstdDecoderPool.Get()
	dec, ok := v.(*zstd.Decoder)
	if !ok || dec == nil {
		d, err := zstd.NewReader(r)
		if err != nil {
			// zstd.NewReader with nil options only fails on bad option
			// construction, never on r itself, so this path is
			// unreachable in practice; surface a decoder that reports
			// the error on first Read rather than panicking here.
			return errDecoder{err}
		}
		return &zstdDecoder{dec: d}
	}
	if err := dec.Reset(r); err != nil {
		dec.Close()
		return errDecoder{err}
	}
	return &zstdDecoder{dec: dec}
}

func (d *zstdDecoder) Read(p []byte) (int, error) { return d.dec.Read(p) }

func (d *zstdDecoder) Close() error {
	_ = d.dec.Reset(nil)
	zstdDecoderPool.Put(d.dec)
	return nil
}

type zstdEncoder struct {
	enc *zstd.Encoder
}

// zstdLevel maps a generic Level onto zstd's named encoder levels.
func zstdLevel(l Level) zstd.EncoderLevel {
	if l == DefaultLevel {
		return zstd.SpeedDefault
	}
	switch {
	case l <= 3:
		return zstd.SpeedFastest
	case l <= 9:
		return zstd.SpeedDefault
	case l <= 15:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

func newZstdEncoder(w io.Writer, level Level) (Encoder, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstdLevel(level)))
	if err != nil {
		return nil, err
	}
	return &zstdEncoder{enc: enc}, nil
}

func (e *zstdEncoder) Write(p []byte) (int, error) { return e.enc.Write(p) }

func (e *zstdEncoder) Close() error { return e.enc.Close() }

// errDecoder always returns err, used when a pooled decoder fails to
// reset and a fresh one can't be built either.
type errDecoder struct{ err error }

func (e errDecoder) Read([]byte) (int, error) { return 0, e.err }
func (e errDecoder) Close() error             { return nil }
