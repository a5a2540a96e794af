package compress

import (
	"sync"

	"github.com/pierrec/lz4/v4"
)

// DictCompressor compresses a block against a preset dictionary, the
// shape the term-dictionary encoder needs (spec.md §4.6): each block's
// first term is written raw and the remaining terms are front-coded
// within the block, so seeding the compressor with that first term lets
// LZ4 find matches against it that plain block compression would miss.
//
// pierrec/lz4/v4's block-level API has no separate preset-dictionary
// parameter, so the dictionary is supplied the same way the upstream
// streaming API does it internally: prepended to the plaintext before
// compression. The compressed output therefore covers the dictionary
// prefix as well as the block's own bytes; uncompressedRemainderLength
// records how many trailing bytes of the decompressed output belong to
// the block itself, excluding the dictionary prefix (spec.md §4.6,
// "uncompressedRemainderLength").
type DictCompressor struct{}

var dictCompressorPool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

// NewDictCompressor creates a new preset-dictionary LZ4 compressor.
func NewDictCompressor() DictCompressor {
	return DictCompressor{}
}

// CompressBlock compresses block using dict as a preset dictionary.
// Returns the compressed (or, on incompressible input, raw stored)
// bytes, the length of block itself (the "uncompressed remainder
// length" a reader needs to know where the dictionary prefix ends
// within the decompressed output), and stored, which tells the caller
// whether the returned bytes are an LZ4 stream or the raw dict+block
// bytes copied through unchanged. The caller must persist stored
// alongside the bytes; there is no way to tell the two cases apart
// from the bytes or their length alone.
func (c DictCompressor) CompressBlock(dict, block []byte) (compressed []byte, uncompressedRemainderLength int, stored bool, err error) {
	combined := make([]byte, len(dict)+len(block))
	copy(combined, dict)
	copy(combined[len(dict):], block)

	dstSize := lz4.CompressBlockBound(len(combined))
	dst := make([]byte, dstSize)

	lc, _ := dictCompressorPool.Get().(*lz4.Compressor)
	defer dictCompressorPool.Put(lc)

	n, err := lc.CompressBlock(combined, dst)
	if err != nil {
		return nil, 0, false, err
	}
	if n == 0 {
		// Incompressible input: lz4.Compressor signals this by
		// returning n == 0 rather than an error. Fall back to storing
		// the combined bytes uncompressed.
		return combined, len(block), true, nil
	}

	return dst[:n], len(block), false, nil
}
