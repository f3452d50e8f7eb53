// Package record implements the fixed-layout wire records defined by the
// ZIP APPNOTE: local file headers, central directory records, the various
// end-of-central-directory forms, and the optional streamed data
// descriptor. Each record type owns its own signature, field layout, and
// read/write pair; higher-level archive assembly lives outside this
// package.
package record

// Signature constants, each a little-endian uint32 read/written via
// internal/primitive.
const (
	LocalFileHeaderSignature                   uint32 = 0x04034b50
	CentralDirectorySignature                  uint32 = 0x02014b50
	EndOfCentralDirectorySignature             uint32 = 0x06054b50
	Zip64EndOfCentralDirectorySignature        uint32 = 0x06064b50
	Zip64EndOfCentralDirectoryLocatorSignature uint32 = 0x07064b50
	DataDescriptorSignature                    uint32 = 0x08074b50
)

// SignatureLength is the byte width of every record signature.
const SignatureLength = 4
