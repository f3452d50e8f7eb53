package codec

import (
	"context"
	"io"
	"runtime"

	"github.com/cosnicolaou/pbzip2"
)

// bzip2ConcurrencyPool caps the total number of goroutines every
// concurrent bzip2 decode started by this package may use at once,
// mirroring the shared pool a process-wide bzip2 decoder keeps so that
// decoding many entries at once doesn't multiply out to one pool per
// entry.
var bzip2ConcurrencyPool = pbzip2.CreateConcurrencyPool((runtime.GOMAXPROCS(0) + 1) / 2)

// newBzip2Decoder wraps pbzip2's concurrent bzip2 reader, which splits
// the stream into independently decodable blocks the way the bzip2
// format's block structure allows. There is no corresponding encoder:
// NewEncoder rejects Bzip2 with *UnsupportedMethodError, the same
// asymmetry this codebase already carries for Deflate64.
func newBzip2Decoder(r io.Reader) Decoder {
	ctx, cancel := context.WithCancel(context.Background())
	pr := pbzip2.NewReader(ctx, r, pbzip2.DecompressionOptions(
		pbzip2.BZConcurrency((runtime.GOMAXPROCS(0)+1)/2),
		pbzip2.BZConcurrencyPool(bzip2ConcurrencyPool),
	))
	return &bzip2Decoder{r: pr, cancel: cancel}
}

// bzip2Decoder adapts pbzip2's context-scoped reader to the Decoder
// interface: Close cancels the decode instead of closing anything, the
// only way to release pbzip2's background workers early.
type bzip2Decoder struct {
	r      io.Reader
	cancel context.CancelFunc
}

func (d *bzip2Decoder) Read(p []byte) (int, error) { return d.r.Read(p) }

func (d *bzip2Decoder) Close() error {
	d.cancel()
	return nil
}
