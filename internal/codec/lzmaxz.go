package codec

import (
	"io"

	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

func newLzmaDecoder(r io.Reader) (Decoder, error) {
	lr, err := lzma.NewReader(r)
	if err != nil {
		return nil, err
	}
	return nopDecoder{lr}, nil
}

func newLzmaEncoder(w io.Writer) (Encoder, error) {
	lw, err := lzma.NewWriter(w)
	if err != nil {
		return nil, err
	}
	return lzmaEncoder{lw}, nil
}

type lzmaEncoder struct{ *lzma.Writer }

func (e lzmaEncoder) Close() error { return e.Writer.Close() }

func newXzDecoder(r io.Reader) (Decoder, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return nopDecoder{xr}, nil
}

func newXzEncoder(w io.Writer) (Encoder, error) {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return nil, err
	}
	return xzEncoder{xw}, nil
}

type xzEncoder struct{ *xz.Writer }

func (e xzEncoder) Close() error { return e.Writer.Close() }
