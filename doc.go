// Package zipflow reads and writes ZIP archives over plain io.Reader,
// io.Writer, io.ReaderAt, and io.Seeker, with ZIP64 support for archives
// or entries that exceed the format's original 32-bit limits.
//
// Three read strategies are available depending on what the underlying
// source supports: SeekReader parses the central directory once and
// opens any entry by index, with names looked up through its Index;
// StreamReader walks
// local file headers forward without ever seeking, for sources that only
// support sequential reads; ConcurrentReader layers independent cursors
// over a cloneable random-access source so multiple entries can be read
// in parallel.
//
// Writing offers two strategies selected per entry: Writer.WriteEntryWhole
// for payloads whose size and CRC-32 are known upfront, and
// Writer.WriteEntryStream for
// payloads written incrementally, whose size and CRC-32 are recorded in
// a trailing data descriptor instead of the local header.
package zipflow
