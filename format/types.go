// Package format defines the wire-level vocabulary shared by every
// doc-values encoder: field type tags, compression types, and the codec
// version constants stamped into the metadata stream's header.
package format

// DocValuesType identifies the shape of a field's stored values, written
// as a single byte immediately after the field number in the metadata
// stream (spec.md §6).
type DocValuesType uint8

const (
	// NumericType stores one signed 64-bit integer per document.
	NumericType DocValuesType = 0x1
	// BinaryType stores one opaque byte string per document.
	BinaryType DocValuesType = 0x2
	// SortedType stores one term per document via an ordinal into a
	// shared term dictionary.
	SortedType DocValuesType = 0x3
	// SortedNumericType stores zero-or-more 64-bit integers per document.
	SortedNumericType DocValuesType = 0x4
	// SortedSetType stores zero-or-more terms per document via ordinals.
	SortedSetType DocValuesType = 0x5
)

func (t DocValuesType) String() string {
	switch t {
	case NumericType:
		return "Numeric"
	case BinaryType:
		return "Binary"
	case SortedType:
		return "Sorted"
	case SortedNumericType:
		return "SortedNumeric"
	case SortedSetType:
		return "SortedSet"
	default:
		return "Unknown"
	}
}

// CompressionType identifies how a payload region was compressed.
type CompressionType uint8

const (
	// CompressionNone stores bytes as-is.
	CompressionNone CompressionType = 0x1
	// CompressionLZ4 compresses with plain LZ4 block compression.
	CompressionLZ4 CompressionType = 0x2
	// CompressionLZ4Dict compresses with LZ4 block compression seeded
	// with a preset dictionary (used by the term-dictionary encoder,
	// spec.md §4.6).
	CompressionLZ4Dict CompressionType = 0x3
	// CompressionZstd compresses with Zstandard.
	CompressionZstd CompressionType = 0x4
	// CompressionS2 compresses with S2 (a Snappy derivative).
	CompressionS2 CompressionType = 0x5
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionLZ4:
		return "LZ4"
	case CompressionLZ4Dict:
		return "LZ4Dict"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	default:
		return "Unknown"
	}
}

// Version identifies the on-disk format version stamped into the
// segment header by the external framing utility (spec.md §6). Bumped
// whenever the metadata or data stream layout changes in an
// incompatible way.
const Version = 1

// FieldSentinel terminates the metadata stream (spec.md §3).
const FieldSentinel int32 = -1

const (
	// NumericBlockShift is the default log2 block size used by the
	// numeric block encoding mode (spec.md §4.1, §4.2).
	NumericBlockShift = 14 // 1 << 14 = 16384
	// TermsDictBlockLZ4Shift is the default log2 number of terms per
	// LZ4-compressed term-dictionary block (spec.md §4.6).
	TermsDictBlockLZ4Shift = 5 // 1 << 5 = 32
	// TermsDictReverseIndexShift is the default log2 number of terms
	// per reverse-index group (spec.md §4.8).
	TermsDictReverseIndexShift = 10 // 1 << 10 = 1024
	// DefaultDenseRankPower is the default tuning constant passed
	// through unchanged to the presence bitmap writer (spec.md §4.3,
	// GLOSSARY "Dense rank power").
	DefaultDenseRankPower = 9
)
