package codec

import (
	"io"

	"github.com/klauspost/compress/flate"
)

func newDeflateDecoder(r io.Reader) Decoder {
	return flate.NewReader(r)
}

// deflateLevel maps a generic Level onto flate's -2..9 range, defaulting
// to flate.DefaultCompression when the caller asked for DefaultLevel.
func deflateLevel(l Level) int {
	if l == DefaultLevel {
		return flate.DefaultCompression
	}
	return int(l)
}

type deflateEncoder struct {
	*flate.Writer
}

func newDeflateEncoder(w io.Writer, level Level) (Encoder, error) {
	fw, err := flate.NewWriter(w, deflateLevel(level))
	if err != nil {
		return nil, err
	}
	return &deflateEncoder{fw}, nil
}

func (e *deflateEncoder) Close() error {
	return e.Writer.Close()
}
