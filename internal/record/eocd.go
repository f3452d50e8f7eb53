package record

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/rseg/zipflow/internal/primitive"
)

// ErrEOCDNotFound is returned when a backward scan for the end of central
// directory signature exhausts the search window without a match.
var ErrEOCDNotFound = errors.New("record: end of central directory record not found")

// EndOfCentralDirectoryRecord is the trailer that anchors every ZIP
// archive: it names where the central directory starts and how many
// entries it holds.
type EndOfCentralDirectoryRecord struct {
	NumberOfThisDisk                   uint16
	DiskWithStartOfCentralDirectory    uint16
	TotalEntriesOnThisDisk             uint16
	TotalEntries                       uint16
	SizeOfCentralDirectory             uint32
	OffsetOfStartOfCentralDirectory    uint32
	ZipFileComment                     []byte
}

// ReadEndOfCentralDirectoryRecord reads one EOCD record, assuming r is
// already positioned at its signature.
func ReadEndOfCentralDirectoryRecord(r io.Reader) (*EndOfCentralDirectoryRecord, error) {
	if err := primitive.AssertSignature(r, EndOfCentralDirectorySignature); err != nil {
		return nil, fmt.Errorf("end of central directory record: %w", err)
	}

	e := &EndOfCentralDirectoryRecord{}
	var commentLen uint16
	var err error

	if e.NumberOfThisDisk, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("end of central directory record: disk number: %w", err)
	}
	if e.DiskWithStartOfCentralDirectory, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("end of central directory record: cd disk: %w", err)
	}
	if e.TotalEntriesOnThisDisk, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("end of central directory record: entries on disk: %w", err)
	}
	if e.TotalEntries, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("end of central directory record: total entries: %w", err)
	}
	if e.SizeOfCentralDirectory, err = primitive.ReadU32(r); err != nil {
		return nil, fmt.Errorf("end of central directory record: cd size: %w", err)
	}
	if e.OffsetOfStartOfCentralDirectory, err = primitive.ReadU32(r); err != nil {
		return nil, fmt.Errorf("end of central directory record: cd offset: %w", err)
	}
	if commentLen, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("end of central directory record: comment length: %w", err)
	}
	if e.ZipFileComment, err = primitive.ReadBytes(r, int(commentLen)); err != nil {
		return nil, fmt.Errorf("end of central directory record: comment: %w", err)
	}

	return e, nil
}

// WriteEndOfCentralDirectoryRecord writes e, including its signature, to w.
func WriteEndOfCentralDirectoryRecord(w io.Writer, e *EndOfCentralDirectoryRecord) error {
	if err := primitive.WriteU32(w, EndOfCentralDirectorySignature); err != nil {
		return err
	}
	u16s := []uint16{
		e.NumberOfThisDisk, e.DiskWithStartOfCentralDirectory,
		e.TotalEntriesOnThisDisk, e.TotalEntries,
	}
	for _, v := range u16s {
		if err := primitive.WriteU16(w, v); err != nil {
			return err
		}
	}
	if err := primitive.WriteU32(w, e.SizeOfCentralDirectory); err != nil {
		return err
	}
	if err := primitive.WriteU32(w, e.OffsetOfStartOfCentralDirectory); err != nil {
		return err
	}
	if err := primitive.WriteU16(w, uint16(len(e.ZipFileComment))); err != nil {
		return err
	}
	_, err := w.Write(e.ZipFileComment)
	return err
}

// Size returns the total byte length of e as written.
func (e *EndOfCentralDirectoryRecord) Size() int {
	return SignatureLength + 18 + len(e.ZipFileComment)
}

// signatureMatcher finds a little-endian signature in a byte stream one
// byte at a time, without needing the whole buffer in memory at once.
type signatureMatcher struct {
	signature []byte
	matched   int
}

func newSignatureMatcher(sig uint32) *signatureMatcher {
	b := make([]byte, 4)
	b[0] = byte(sig)
	b[1] = byte(sig >> 8)
	b[2] = byte(sig >> 16)
	b[3] = byte(sig >> 24)
	return &signatureMatcher{signature: b}
}

// feed reports whether byte b completes a match of the signature.
func (m *signatureMatcher) feed(b byte) bool {
	if b == m.signature[m.matched] {
		m.matched++
	} else {
		m.matched = 0
		if b == m.signature[m.matched] {
			m.matched++
		}
	}
	if m.matched == len(m.signature) {
		m.matched = 0
		return true
	}
	return false
}

// maxCommentSearchWindow bounds the backward scan for the EOCD signature
// to the largest window a trailing zip file comment can occupy (64KiB
// comment max, plus the fixed EOCD record).
const maxCommentSearchWindow = 0xFFFF + 22

// LocateEndOfCentralDirectory searches the tail of r for the EOCD
// signature and returns the absolute offset of the match nearest the end. r must support Seek;
// the scan is bounded to maxCommentSearchWindow bytes from the end, since
// a conformant archive never has a longer gap between the central
// directory and its trailer.
func LocateEndOfCentralDirectory(r io.ReadSeeker) (int64, error) {
	return locateSignatureBackward(r, EndOfCentralDirectorySignature, maxCommentSearchWindow)
}

// locateSignatureBackward scans the last windowSize bytes of r (or the
// whole stream if shorter) for sig and returns the offset of the last
// match. The window is read forward one chunk at a time through an
// incremental matcher, so it never needs to be buffered at once.
func locateSignatureBackward(r io.ReadSeeker, sig uint32, windowSize int64) (int64, error) {
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}

	start := int64(0)
	if end > windowSize {
		start = end - windowSize
	}

	const chunkSize = 4096
	buf := make([]byte, chunkSize)
	matcher := newSignatureMatcher(sig)

	// Scan forward within [start, end) so the matcher sees bytes in wire
	// order, but only report the *last* match found — the signature bytes
	// can also occur earlier in the window (inside entry data or the
	// central directory), and the trailer is the match nearest the end.
	found := int64(-1)
	pos := start
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return 0, err
	}
	br := bufio.NewReaderSize(r, chunkSize)

	for pos < end {
		n, rerr := br.Read(buf)
		if n == 0 {
			if rerr != nil {
				break
			}
			continue
		}
		for i := 0; i < n; i++ {
			if matcher.feed(buf[i]) {
				found = pos + int64(i) - int64(SignatureLength) + 1
			}
		}
		pos += int64(n)
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return 0, rerr
		}
	}

	if found < 0 {
		return 0, ErrEOCDNotFound
	}
	return found, nil
}
