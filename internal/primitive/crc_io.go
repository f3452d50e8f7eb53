package primitive

import "io"

// CRC32Reader wraps an io.Reader and feeds every byte it yields into a
// running CRC-32 digest. It is the read-side half of the entry pipeline's
// CRC observer stage (spec: "the CRC observer updates its digest on every
// byte passed through").
type CRC32Reader struct {
	R    io.Reader
	crc  CRC32
	read uint64
}

// NewCRC32Reader wraps r.
func NewCRC32Reader(r io.Reader) *CRC32Reader {
	return &CRC32Reader{R: r}
}

func (cr *CRC32Reader) Read(p []byte) (int, error) {
	n, err := cr.R.Read(p)
	if n > 0 {
		cr.crc.Update(p[:n])
		cr.read += uint64(n)
	}
	return n, err
}

// Sum32 returns the digest of every byte read so far.
func (cr *CRC32Reader) Sum32() uint32 { return cr.crc.Sum32() }

// BytesRead returns the number of bytes that have passed through Read.
func (cr *CRC32Reader) BytesRead() uint64 { return cr.read }

// CRC32Writer is the write-side half of the CRC observer: every byte
// written is folded into the digest before being forwarded to W.
type CRC32Writer struct {
	W       io.Writer
	crc     CRC32
	written uint64
}

// NewCRC32Writer wraps w.
func NewCRC32Writer(w io.Writer) *CRC32Writer {
	return &CRC32Writer{W: w}
}

func (cw *CRC32Writer) Write(p []byte) (int, error) {
	n, err := cw.W.Write(p)
	if n > 0 {
		cw.crc.Update(p[:n])
		cw.written += uint64(n)
	}
	return n, err
}

// Sum32 returns the digest of every byte written so far.
func (cw *CRC32Writer) Sum32() uint32 { return cw.crc.Sum32() }

// BytesWritten returns the number of bytes that have passed through Write.
func (cw *CRC32Writer) BytesWritten() uint64 { return cw.written }
