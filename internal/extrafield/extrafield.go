// Package extrafield decodes and encodes the tag-length-value stream that
// follows the filename in every local file header and central directory
// record. Unrecognized tags round-trip as opaque blobs rather than being
// dropped, so a rewritten archive never silently loses vendor extensions.
package extrafield

import (
	"encoding/binary"
	"fmt"
)

// Tag identifiers, per APPNOTE.TXT section 4.5.2 and the Info-ZIP
// extensions it references.
const (
	TagZip64ExtendedInfo     uint16 = 0x0001
	TagNTFS                  uint16 = 0x000a
	TagUnixExtendedTimestamp uint16 = 0x5455
	TagInfoZipUnicodePath    uint16 = 0x7075
	TagInfoZipUnicodeComment uint16 = 0x6375
	TagInfoZipNewUnix        uint16 = 0x7875
)

// nonZip64Max is the 0xFFFFFFFF sentinel that marks a 32-bit size/offset
// field as "see the ZIP64 extra field instead."
const nonZip64Max = 0xFFFFFFFF

// Field is one decoded tag-length-value record.
type Field interface {
	// Tag returns the header ID this field was read from (or will be
	// written under).
	Tag() uint16
	// AppendTo appends this field's encoded bytes (tag + length + data)
	// to dst and returns the result.
	AppendTo(dst []byte) []byte
	// Size returns the length, in bytes, AppendTo would add to dst.
	Size() int
}

// Unknown is a tag this package does not interpret; its payload is kept
// verbatim so it round-trips unchanged.
type Unknown struct {
	ID   uint16
	Data []byte
}

func (u *Unknown) Tag() uint16 { return u.ID }

func (u *Unknown) Size() int { return 4 + len(u.Data) }

func (u *Unknown) AppendTo(dst []byte) []byte {
	dst = appendU16(dst, u.ID)
	dst = appendU16(dst, uint16(len(u.Data)))
	return append(dst, u.Data...)
}

// Zip64ExtendedInfo carries the 64-bit size/offset fields promoted out of
// a local header, central directory record, or EOCD when their 32-bit
// counterparts overflowed to the 0xFFFFFFFF sentinel. Present fields are
// packed in the fixed order APPNOTE mandates: uncompressed size,
// compressed size, relative header offset, disk start number — each one
// included only if the caller asked for it via the builder.
type Zip64ExtendedInfo struct {
	UncompressedSize    *uint64
	CompressedSize      *uint64
	RelativeHeaderOffset *uint64
	DiskStartNumber     *uint32
}

func (z *Zip64ExtendedInfo) Tag() uint16 { return TagZip64ExtendedInfo }

func (z *Zip64ExtendedInfo) Size() int { return 4 + z.contentSize() }

func (z *Zip64ExtendedInfo) contentSize() int {
	n := 0
	if z.UncompressedSize != nil {
		n += 8
	}
	if z.CompressedSize != nil {
		n += 8
	}
	if z.RelativeHeaderOffset != nil {
		n += 8
	}
	if z.DiskStartNumber != nil {
		n += 4
	}
	return n
}

func (z *Zip64ExtendedInfo) AppendTo(dst []byte) []byte {
	dst = appendU16(dst, TagZip64ExtendedInfo)
	dst = appendU16(dst, uint16(z.contentSize()))
	if z.UncompressedSize != nil {
		dst = appendU64(dst, *z.UncompressedSize)
	}
	if z.CompressedSize != nil {
		dst = appendU64(dst, *z.CompressedSize)
	}
	if z.RelativeHeaderOffset != nil {
		dst = appendU64(dst, *z.RelativeHeaderOffset)
	}
	if z.DiskStartNumber != nil {
		dst = appendU32(dst, *z.DiskStartNumber)
	}
	return dst
}

// Zip64Builder constructs a Zip64ExtendedInfo field, matching the fluent
// style of the rest of the entry configuration surface.
type Zip64Builder struct {
	field Zip64ExtendedInfo
}

// NewZip64Builder returns an empty builder.
func NewZip64Builder() *Zip64Builder {
	return &Zip64Builder{}
}

// Sizes sets both the compressed and uncompressed size fields.
func (b *Zip64Builder) Sizes(compressed, uncompressed uint64) *Zip64Builder {
	b.field.CompressedSize = &compressed
	b.field.UncompressedSize = &uncompressed
	return b
}

// RelativeHeaderOffset sets the local-header offset field, used when a
// central directory record's own offset overflowed 32 bits.
func (b *Zip64Builder) RelativeHeaderOffset(offset uint64) *Zip64Builder {
	b.field.RelativeHeaderOffset = &offset
	return b
}

// DiskStartNumber sets the disk-start field. Multi-disk spanning is out
// of scope; nothing in this module calls it.
func (b *Zip64Builder) DiskStartNumber(disk uint32) *Zip64Builder {
	b.field.DiskStartNumber = &disk
	return b
}

// EOFOnly reports whether only offset/disk fields are set, meaning this
// builder describes a central-directory-only promotion where the sizes
// themselves still fit in 32 bits.
func (b *Zip64Builder) EOFOnly() bool {
	return b.field.UncompressedSize == nil && b.field.CompressedSize == nil &&
		(b.field.RelativeHeaderOffset != nil || b.field.DiskStartNumber != nil)
}

// Build validates and returns the field. An empty field (nothing was set)
// is always a caller error: a ZIP64 extra field with no content means a
// promotion was triggered without anything to promote.
func (b *Zip64Builder) Build() (*Zip64ExtendedInfo, error) {
	f := b.field
	if f.contentSize() == 0 {
		return nil, fmt.Errorf("extrafield: zip64 extended info has no content")
	}
	return &f, nil
}

// unpackZip64 parses a ZIP64 extended information field's content. The
// 32-bit uncompressedSize/compressedSize values from the enclosing header
// are consulted to decide whether the corresponding 64-bit values are
// present, per APPNOTE's "only written when the corresponding 32-bit
// field is 0xFFFFFFFF" rule — the 0x0001 payload carries no length tags
// of its own.
func unpackZip64(data []byte, uncompressedSize32, compressedSize32 uint32) (*Zip64ExtendedInfo, error) {
	var out Zip64ExtendedInfo
	pos := 0

	if uncompressedSize32 == nonZip64Max && len(data) >= pos+8 {
		v := binary.LittleEndian.Uint64(data[pos : pos+8])
		out.UncompressedSize = &v
		pos += 8
	}
	if compressedSize32 == nonZip64Max && len(data) >= pos+8 {
		v := binary.LittleEndian.Uint64(data[pos : pos+8])
		out.CompressedSize = &v
		pos += 8
	}
	if len(data) >= pos+8 {
		v := binary.LittleEndian.Uint64(data[pos : pos+8])
		out.RelativeHeaderOffset = &v
		pos += 8
	}
	if len(data) >= pos+4 {
		v := binary.LittleEndian.Uint32(data[pos : pos+4])
		out.DiskStartNumber = &v
	}

	return &out, nil
}

// InfoZipUnicodePath is the 0x7075 field: a UTF-8 rendering of the entry
// name plus a CRC-32 of the original (non-Unicode) name field, so a
// reader can detect staleness if the name was edited without updating
// this field.
type InfoZipUnicodePath struct {
	Version uint8
	CRC32   uint32
	Name    []byte
}

func (f *InfoZipUnicodePath) Tag() uint16 { return TagInfoZipUnicodePath }

func (f *InfoZipUnicodePath) Size() int { return 4 + 5 + len(f.Name) }

func (f *InfoZipUnicodePath) AppendTo(dst []byte) []byte {
	dst = appendU16(dst, TagInfoZipUnicodePath)
	dst = appendU16(dst, uint16(5+len(f.Name)))
	dst = append(dst, 1)
	dst = appendU32(dst, f.CRC32)
	return append(dst, f.Name...)
}

// InfoZipUnicodeComment is the 0x6375 field, the comment-field analogue
// of InfoZipUnicodePath. Dropped from the distilled tag list but present
// in the original implementation (InfoZipUnicodeCommentExtraField) and
// worth carrying since the two fields share identical wire shape.
type InfoZipUnicodeComment struct {
	Version uint8
	CRC32   uint32
	Comment []byte
}

func (f *InfoZipUnicodeComment) Tag() uint16 { return TagInfoZipUnicodeComment }

func (f *InfoZipUnicodeComment) Size() int { return 4 + 5 + len(f.Comment) }

func (f *InfoZipUnicodeComment) AppendTo(dst []byte) []byte {
	dst = appendU16(dst, TagInfoZipUnicodeComment)
	dst = appendU16(dst, uint16(5+len(f.Comment)))
	dst = append(dst, 1)
	dst = appendU32(dst, f.CRC32)
	return append(dst, f.Comment...)
}

// UnixTimestamps is the 0x5455 extended-timestamp field: modification,
// access, and creation times as signed Unix epoch seconds. Each of the
// three is optional and is only present if its corresponding flag bit
// was set when the field was written.
type UnixTimestamps struct {
	HasModTime, HasAccessTime, HasCreateTime bool
	ModTime, AccessTime, CreateTime          int32
}

const (
	flagModTime    = 1 << 0
	flagAccessTime = 1 << 1
	flagCreateTime = 1 << 2
)

func (f *UnixTimestamps) Tag() uint16 { return TagUnixExtendedTimestamp }

func (f *UnixTimestamps) Size() int {
	n := 5 // header(4) + flags(1)
	if f.HasModTime {
		n += 4
	}
	if f.HasAccessTime {
		n += 4
	}
	if f.HasCreateTime {
		n += 4
	}
	return n
}

func (f *UnixTimestamps) AppendTo(dst []byte) []byte {
	dst = appendU16(dst, TagUnixExtendedTimestamp)
	dst = appendU16(dst, uint16(f.Size()-4))
	flags := byte(0)
	if f.HasModTime {
		flags |= flagModTime
	}
	if f.HasAccessTime {
		flags |= flagAccessTime
	}
	if f.HasCreateTime {
		flags |= flagCreateTime
	}
	dst = append(dst, flags)
	if f.HasModTime {
		dst = appendU32(dst, uint32(f.ModTime))
	}
	if f.HasAccessTime {
		dst = appendU32(dst, uint32(f.AccessTime))
	}
	if f.HasCreateTime {
		dst = appendU32(dst, uint32(f.CreateTime))
	}
	return dst
}

func unpackUnixTimestamps(data []byte) (*UnixTimestamps, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("extrafield: unix timestamp field is empty")
	}
	flags := data[0]
	out := &UnixTimestamps{
		HasModTime:    flags&flagModTime != 0,
		HasAccessTime: flags&flagAccessTime != 0,
		HasCreateTime: flags&flagCreateTime != 0,
	}
	pos := 1
	if out.HasModTime {
		if len(data) < pos+4 {
			return out, nil
		}
		out.ModTime = int32(binary.LittleEndian.Uint32(data[pos : pos+4]))
		pos += 4
	}
	if out.HasAccessTime {
		if len(data) < pos+4 {
			return out, nil
		}
		out.AccessTime = int32(binary.LittleEndian.Uint32(data[pos : pos+4]))
		pos += 4
	}
	if out.HasCreateTime {
		if len(data) < pos+4 {
			return out, nil
		}
		out.CreateTime = int32(binary.LittleEndian.Uint32(data[pos : pos+4]))
	}
	return out, nil
}

// NTFSTimestamps is the 0x000a field: 100ns-resolution FILETIME values
// for modification, access, and creation, stored in a single NTFS
// attribute tag (0x0001) nested inside the 0x000a container.
type NTFSTimestamps struct {
	ModTime, AccessTime, CreateTime uint64 // Windows FILETIME, 100ns ticks since 1601-01-01
}

const ntfsAttrTag1 uint16 = 0x0001

func (f *NTFSTimestamps) Tag() uint16 { return TagNTFS }

func (f *NTFSTimestamps) Size() int { return 4 + 4 + 4 + 24 }

func (f *NTFSTimestamps) AppendTo(dst []byte) []byte {
	dst = appendU16(dst, TagNTFS)
	dst = appendU16(dst, 4+4+24) // 4 reserved + attr tag(2) + attr size(2) + 3*8
	dst = appendU32(dst, 0)    // reserved
	dst = appendU16(dst, ntfsAttrTag1)
	dst = appendU16(dst, 24)
	dst = appendU64(dst, f.ModTime)
	dst = appendU64(dst, f.AccessTime)
	dst = appendU64(dst, f.CreateTime)
	return dst
}

func unpackNTFS(data []byte) (*NTFSTimestamps, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("extrafield: ntfs field missing reserved bytes")
	}
	pos := 4
	for pos+4 <= len(data) {
		attrTag := binary.LittleEndian.Uint16(data[pos : pos+2])
		attrSize := int(binary.LittleEndian.Uint16(data[pos+2 : pos+4]))
		pos += 4
		if pos+attrSize > len(data) {
			break
		}
		if attrTag == ntfsAttrTag1 && attrSize >= 24 {
			return &NTFSTimestamps{
				ModTime:    binary.LittleEndian.Uint64(data[pos : pos+8]),
				AccessTime: binary.LittleEndian.Uint64(data[pos+8 : pos+16]),
				CreateTime: binary.LittleEndian.Uint64(data[pos+16 : pos+24]),
			}, nil
		}
		pos += attrSize
	}
	return nil, fmt.Errorf("extrafield: ntfs field has no tag-1 attribute")
}

// UnixOwner is the 0x7875 "UNIX3" extra field: the POSIX UID/GID of the
// entry's owner, each stored as a variable-length little-endian integer
// prefixed by its own byte count. This package always writes both as 4
// bytes, the width every common archiver uses.
type UnixOwner struct {
	UID, GID uint32
}

func (f *UnixOwner) Tag() uint16 { return TagInfoZipNewUnix }

func (f *UnixOwner) Size() int { return 4 + 1 + 1 + 4 + 1 + 4 }

func (f *UnixOwner) AppendTo(dst []byte) []byte {
	dst = appendU16(dst, TagInfoZipNewUnix)
	dst = appendU16(dst, uint16(f.Size()-4))
	dst = append(dst, 1) // version
	dst = append(dst, 4) // UID size
	dst = appendU32(dst, f.UID)
	dst = append(dst, 4) // GID size
	dst = appendU32(dst, f.GID)
	return dst
}

func unpackUnixOwner(data []byte) (Field, error) {
	if len(data) < 2 || data[0] != 1 {
		return &Unknown{ID: TagInfoZipNewUnix, Data: append([]byte(nil), data...)}, nil
	}
	pos := 1
	uidSize := int(data[pos])
	pos++
	if pos+uidSize > len(data) {
		return nil, fmt.Errorf("extrafield: unix owner field truncated uid")
	}
	uid := readVarUint(data[pos : pos+uidSize])
	pos += uidSize
	if pos >= len(data) {
		return nil, fmt.Errorf("extrafield: unix owner field missing gid size")
	}
	gidSize := int(data[pos])
	pos++
	if pos+gidSize > len(data) {
		return nil, fmt.Errorf("extrafield: unix owner field truncated gid")
	}
	gid := readVarUint(data[pos : pos+gidSize])
	return &UnixOwner{UID: uint32(uid), GID: uint32(gid)}, nil
}

func readVarUint(b []byte) uint64 {
	var v uint64
	for i, c := range b {
		v |= uint64(c) << (8 * i)
	}
	return v
}

// Decode parses the raw extra-field stream that trails a filename, using
// uncompressedSize32/compressedSize32 (the enclosing header's 32-bit size
// fields) to resolve the ZIP64 field's variable shape.
func Decode(raw []byte, uncompressedSize32, compressedSize32 uint32) ([]Field, error) {
	var fields []Field
	pos := 0
	for pos < len(raw) {
		if pos+4 > len(raw) {
			return nil, fmt.Errorf("extrafield: truncated tag header at offset %d", pos)
		}
		id := binary.LittleEndian.Uint16(raw[pos : pos+2])
		size := int(binary.LittleEndian.Uint16(raw[pos+2 : pos+4]))
		pos += 4
		if pos+size > len(raw) {
			return nil, fmt.Errorf("extrafield: tag 0x%04x declares %d bytes but only %d remain", id, size, len(raw)-pos)
		}
		data := raw[pos : pos+size]
		pos += size

		field, err := decodeOne(id, size, data, uncompressedSize32, compressedSize32)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func decodeOne(id uint16, size int, data []byte, uncompressedSize32, compressedSize32 uint32) (Field, error) {
	switch id {
	case TagZip64ExtendedInfo:
		return unpackZip64(data, uncompressedSize32, compressedSize32)
	case TagUnixExtendedTimestamp:
		return unpackUnixTimestamps(data)
	case TagNTFS:
		return unpackNTFS(data)
	case TagInfoZipUnicodePath:
		return unpackUnicode(id, data, size, newUnicodePath)
	case TagInfoZipUnicodeComment:
		return unpackUnicode(id, data, size, newUnicodeComment)
	case TagInfoZipNewUnix:
		return unpackUnixOwner(data)
	default:
		return &Unknown{ID: id, Data: append([]byte(nil), data...)}, nil
	}
}

func newUnicodePath(version uint8, crc uint32, payload []byte) Field {
	return &InfoZipUnicodePath{Version: version, CRC32: crc, Name: payload}
}

func newUnicodeComment(version uint8, crc uint32, payload []byte) Field {
	return &InfoZipUnicodeComment{Version: version, CRC32: crc, Comment: payload}
}

func unpackUnicode(id uint16, data []byte, size int, build func(uint8, uint32, []byte) Field) (Field, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("extrafield: unicode field 0x%04x is empty", id)
	}
	version := data[0]
	if version != 1 {
		return &Unknown{ID: id, Data: append([]byte(nil), data...)}, nil
	}
	if len(data) < 5 {
		return nil, fmt.Errorf("extrafield: unicode field 0x%04x missing crc32", id)
	}
	crc := binary.LittleEndian.Uint32(data[1:5])
	payload := append([]byte(nil), data[5:size]...)
	return build(version, crc, payload), nil
}

// Encode concatenates fields into the on-wire extra-field stream.
func Encode(fields []Field) []byte {
	n := 0
	for _, f := range fields {
		n += f.Size()
	}
	out := make([]byte, 0, n)
	for _, f := range fields {
		out = f.AppendTo(out)
	}
	return out
}

// FindZip64 returns the ZIP64 extended information field among fields, if
// present.
func FindZip64(fields []Field) (*Zip64ExtendedInfo, bool) {
	for _, f := range fields {
		if z, ok := f.(*Zip64ExtendedInfo); ok {
			return z, true
		}
	}
	return nil, false
}

func appendU16(dst []byte, v uint16) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return append(dst, buf[:]...)
}

func appendU32(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

func appendU64(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}
