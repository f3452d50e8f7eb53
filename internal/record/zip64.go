package record

import (
	"errors"
	"fmt"
	"io"

	"github.com/rseg/zipflow/internal/primitive"
)

// ErrZip64LocatorNotFound is returned when the fixed-offset read
// immediately preceding the EOCD record does not contain a ZIP64
// end-of-central-directory locator signature.
var ErrZip64LocatorNotFound = errors.New("record: zip64 end of central directory locator not found")

// Zip64EndOfCentralDirectoryRecord extends EndOfCentralDirectoryRecord
// with 64-bit counterparts of every field that can overflow 32 bits.
type Zip64EndOfCentralDirectoryRecord struct {
	VersionMadeBy                uint16
	VersionNeededToExtract       uint16
	NumberOfThisDisk             uint32
	DiskWithStartOfCentralDirectory uint32
	TotalEntriesOnThisDisk       uint64
	TotalEntries                 uint64
	SizeOfCentralDirectory       uint64
	OffsetOfStartOfCentralDirectory uint64
}

// ReadZip64EndOfCentralDirectoryRecord reads one ZIP64 EOCD record,
// assuming r is positioned at its signature. The record's own
// size-of-record field is consumed but not otherwise interpreted: this
// package never parses the variable-length "zip64 extensible data
// sector" APPNOTE allows to trail the fixed fields, since no archive
// produced by this codebase ever writes one.
func ReadZip64EndOfCentralDirectoryRecord(r io.Reader) (*Zip64EndOfCentralDirectoryRecord, error) {
	if err := primitive.AssertSignature(r, Zip64EndOfCentralDirectorySignature); err != nil {
		return nil, fmt.Errorf("zip64 end of central directory record: %w", err)
	}

	if _, err := primitive.ReadU64(r); err != nil { // size of record
		return nil, fmt.Errorf("zip64 end of central directory record: size of record: %w", err)
	}

	z := &Zip64EndOfCentralDirectoryRecord{}
	var err error

	if z.VersionMadeBy, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("zip64 end of central directory record: version made by: %w", err)
	}
	if z.VersionNeededToExtract, err = primitive.ReadU16(r); err != nil {
		return nil, fmt.Errorf("zip64 end of central directory record: version needed: %w", err)
	}
	if z.NumberOfThisDisk, err = primitive.ReadU32(r); err != nil {
		return nil, fmt.Errorf("zip64 end of central directory record: disk number: %w", err)
	}
	if z.DiskWithStartOfCentralDirectory, err = primitive.ReadU32(r); err != nil {
		return nil, fmt.Errorf("zip64 end of central directory record: cd disk: %w", err)
	}
	if z.TotalEntriesOnThisDisk, err = primitive.ReadU64(r); err != nil {
		return nil, fmt.Errorf("zip64 end of central directory record: entries on disk: %w", err)
	}
	if z.TotalEntries, err = primitive.ReadU64(r); err != nil {
		return nil, fmt.Errorf("zip64 end of central directory record: total entries: %w", err)
	}
	if z.SizeOfCentralDirectory, err = primitive.ReadU64(r); err != nil {
		return nil, fmt.Errorf("zip64 end of central directory record: cd size: %w", err)
	}
	if z.OffsetOfStartOfCentralDirectory, err = primitive.ReadU64(r); err != nil {
		return nil, fmt.Errorf("zip64 end of central directory record: cd offset: %w", err)
	}

	return z, nil
}

// zip64EOCDFixedFieldsSize is the byte length of the fixed fields that follow the
// "size of record" field itself, per APPNOTE 4.3.14 — the value written
// into that field.
const zip64EOCDFixedFieldsSize = 2 + 2 + 4 + 4 + 8 + 8 + 8 + 8

// WriteZip64EndOfCentralDirectoryRecord writes z, including its
// signature and size-of-record field, to w.
func WriteZip64EndOfCentralDirectoryRecord(w io.Writer, z *Zip64EndOfCentralDirectoryRecord) error {
	if err := primitive.WriteU32(w, Zip64EndOfCentralDirectorySignature); err != nil {
		return err
	}
	if err := primitive.WriteU64(w, zip64EOCDFixedFieldsSize); err != nil {
		return err
	}
	if err := primitive.WriteU16(w, z.VersionMadeBy); err != nil {
		return err
	}
	if err := primitive.WriteU16(w, z.VersionNeededToExtract); err != nil {
		return err
	}
	if err := primitive.WriteU32(w, z.NumberOfThisDisk); err != nil {
		return err
	}
	if err := primitive.WriteU32(w, z.DiskWithStartOfCentralDirectory); err != nil {
		return err
	}
	if err := primitive.WriteU64(w, z.TotalEntriesOnThisDisk); err != nil {
		return err
	}
	if err := primitive.WriteU64(w, z.TotalEntries); err != nil {
		return err
	}
	if err := primitive.WriteU64(w, z.SizeOfCentralDirectory); err != nil {
		return err
	}
	return primitive.WriteU64(w, z.OffsetOfStartOfCentralDirectory)
}

// Size returns the total byte length of z as written.
func (z *Zip64EndOfCentralDirectoryRecord) Size() int {
	return SignatureLength + 8 + zip64EOCDFixedFieldsSize
}

// Zip64EndOfCentralDirectoryLocator points a reader at the ZIP64 EOCD
// record; it is the fixed-size record immediately preceding the ordinary
// EOCD record whenever ZIP64 is in play.
type Zip64EndOfCentralDirectoryLocator struct {
	DiskWithStartOfZip64EOCD uint32
	RelativeOffsetOfZip64EOCD uint64
	TotalDisks               uint32
}

// Zip64LocatorSize is the fixed on-wire length of a locator record,
// signature included.
const Zip64LocatorSize = SignatureLength + 4 + 8 + 4

// ReadZip64EndOfCentralDirectoryLocator reads one locator record,
// assuming r is positioned at its signature.
func ReadZip64EndOfCentralDirectoryLocator(r io.Reader) (*Zip64EndOfCentralDirectoryLocator, error) {
	if err := primitive.AssertSignature(r, Zip64EndOfCentralDirectoryLocatorSignature); err != nil {
		return nil, fmt.Errorf("zip64 end of central directory locator: %w", err)
	}

	l := &Zip64EndOfCentralDirectoryLocator{}
	var err error

	if l.DiskWithStartOfZip64EOCD, err = primitive.ReadU32(r); err != nil {
		return nil, fmt.Errorf("zip64 end of central directory locator: disk: %w", err)
	}
	if l.RelativeOffsetOfZip64EOCD, err = primitive.ReadU64(r); err != nil {
		return nil, fmt.Errorf("zip64 end of central directory locator: offset: %w", err)
	}
	if l.TotalDisks, err = primitive.ReadU32(r); err != nil {
		return nil, fmt.Errorf("zip64 end of central directory locator: total disks: %w", err)
	}

	return l, nil
}

// WriteZip64EndOfCentralDirectoryLocator writes l, including its
// signature, to w.
func WriteZip64EndOfCentralDirectoryLocator(w io.Writer, l *Zip64EndOfCentralDirectoryLocator) error {
	if err := primitive.WriteU32(w, Zip64EndOfCentralDirectoryLocatorSignature); err != nil {
		return err
	}
	if err := primitive.WriteU32(w, l.DiskWithStartOfZip64EOCD); err != nil {
		return err
	}
	if err := primitive.WriteU64(w, l.RelativeOffsetOfZip64EOCD); err != nil {
		return err
	}
	return primitive.WriteU32(w, l.TotalDisks)
}

// LocateZip64EndOfCentralDirectoryLocator seeks to eocdOffset-Zip64LocatorSize
// and attempts to read a locator record there, returning
// ErrZip64LocatorNotFound if the signature does not match — the
// conventional way to detect whether an archive is ZIP64 at all, since
// the locator always sits immediately before the ordinary EOCD record
// when present.
func LocateZip64EndOfCentralDirectoryLocator(r io.ReadSeeker, eocdOffset int64) (*Zip64EndOfCentralDirectoryLocator, error) {
	locatorOffset := eocdOffset - int64(Zip64LocatorSize)
	if locatorOffset < 0 {
		return nil, ErrZip64LocatorNotFound
	}
	if _, err := r.Seek(locatorOffset, io.SeekStart); err != nil {
		return nil, err
	}
	l, err := ReadZip64EndOfCentralDirectoryLocator(r)
	if err != nil {
		var sigErr *primitive.SignatureError
		if errors.As(err, &sigErr) {
			return nil, ErrZip64LocatorNotFound
		}
		return nil, err
	}
	return l, nil
}
