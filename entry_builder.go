package zipflow

import (
	"io/fs"
	"strings"
	"time"

	"github.com/rseg/zipflow/internal/extrafield"
	"github.com/rseg/zipflow/internal/platform"
)

// EntryBuilder constructs an Entry through fluent setters, mirroring the
// two-step "minimal constructor, then optional setters" shape used
// throughout this package's write path.
type EntryBuilder struct {
	entry Entry
}

// NewEntryBuilder starts a builder for an entry named name compressed
// with method. name and method are the only fields required to write an
// entry; everything else defaults sensibly.
func NewEntryBuilder(name string, method Method) *EntryBuilder {
	return &EntryBuilder{
		entry: Entry{
			Name:                   name,
			Compression:            method,
			CompressionLevel:       DefaultCompressionLevel,
			AttributeCompatibility: AttributeCompatibilityUnix,
			ModTime:                time.Now(),
		},
	}
}

// CompressionLevel sets the effort hint passed to the encoder.
func (b *EntryBuilder) CompressionLevel(level CompressionLevel) *EntryBuilder {
	b.entry.CompressionLevel = level
	return b
}

// AttributeCompatibility sets which convention ExternalAttributes follows.
func (b *EntryBuilder) AttributeCompatibility(c AttributeCompatibility) *EntryBuilder {
	b.entry.AttributeCompatibility = c
	return b
}

// ModTime sets the entry's last-modified time.
func (b *EntryBuilder) ModTime(t time.Time) *EntryBuilder {
	b.entry.ModTime = t
	return b
}

// InternalAttributes sets the APPNOTE internal file attributes field.
func (b *EntryBuilder) InternalAttributes(attr uint16) *EntryBuilder {
	b.entry.InternalAttributes = attr
	return b
}

// ExternalAttributes sets the host-specific external file attributes field.
func (b *EntryBuilder) ExternalAttributes(attr uint32) *EntryBuilder {
	b.entry.ExternalAttributes = attr
	return b
}

// UnixMode packs mode into ExternalAttributes the way Info-ZIP and every
// other Unix-aware ZIP tool does: permission and file-type bits shifted
// into the upper 16 bits.
func (b *EntryBuilder) UnixMode(mode fs.FileMode) *EntryBuilder {
	b.entry.AttributeCompatibility = AttributeCompatibilityUnix
	b.entry.ExternalAttributes = uint32(unixModeToStat(mode)) << 16
	return b
}

// ExtraField appends a single extra-field record.
func (b *EntryBuilder) ExtraField(f extrafield.Field) *EntryBuilder {
	b.entry.ExtraFields = append(b.entry.ExtraFields, f)
	return b
}

// Comment sets the entry's file comment.
func (b *EntryBuilder) Comment(comment string) *EntryBuilder {
	b.entry.Comment = comment
	return b
}

// UseDataDescriptor sets Entry.UseDataDescriptor. The Writer overwrites
// it according to the write method used for the entry.
func (b *EntryBuilder) UseDataDescriptor(use bool) *EntryBuilder {
	b.entry.UseDataDescriptor = use
	return b
}

// Build returns the constructed Entry.
func (b *EntryBuilder) Build() *Entry {
	e := b.entry
	return &e
}

// FromFileInfo populates a builder from a single fs.FileInfo, the way a
// caller archiving one already-open file would: name is used as-is (the
// caller decides the in-archive path; this method does not walk a
// directory tree, out of scope for this package), and mode, mtime, and a
// Unix extended-timestamp extra field are derived from info. On
// platforms where fs.FileInfo.Sys carries a *syscall.Stat_t, the owning
// UID/GID is also recorded as a 0x7875 extra field; elsewhere both are
// written as 0.
func FromFileInfo(name string, info fs.FileInfo, method Method) *EntryBuilder {
	b := NewEntryBuilder(normalizeEntryName(name, info.IsDir()), method)
	b.ModTime(info.ModTime())
	b.UnixMode(info.Mode())
	b.ExtraField(&extrafield.UnixTimestamps{
		HasModTime: true,
		ModTime:    int32(info.ModTime().Unix()),
	})
	uid, gid := platform.FileOwner(info)
	b.ExtraField(&extrafield.UnixOwner{UID: uid, GID: gid})
	return b
}

// normalizeEntryName converts a filesystem path into the '/'-separated
// form APPNOTE requires, appending a trailing slash for directories.
func normalizeEntryName(name string, isDir bool) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "/")
	if isDir && !strings.HasSuffix(name, "/") {
		name += "/"
	}
	return name
}

// unixModeToStat packs a Go fs.FileMode into the mode_t bits ZIP's Unix
// external-attribute convention expects: permission bits plus a coarse
// file-type nibble (S_IFREG/S_IFDIR/S_IFLNK).
func unixModeToStat(mode fs.FileMode) uint16 {
	perm := uint16(mode.Perm())
	switch {
	case mode.IsDir():
		return perm | 0o040000
	case mode&fs.ModeSymlink != 0:
		return perm | 0o120000
	default:
		return perm | 0o100000
	}
}
