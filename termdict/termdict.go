// Package termdict implements the term-dictionary encoder (spec.md
// §4.6) and its sparse reverse sort-key index (§4.8): the shared term
// store behind Sorted and SortedSet fields. Grounded on
// encoding/tag.go's write-to-ByteBuffer shape for the front-coded block
// buffer, and on compress.DictCompressor (itself grounded on
// compress/lz4.go's pooled pierrec/lz4/v4 compressor) for the
// preset-dictionary LZ4 compression each block uses.
package termdict

import (
	"bytes"

	"github.com/dvwriter/dvcodec/compress"
	"github.com/dvwriter/dvcodec/cursor"
	"github.com/dvwriter/dvcodec/errs"
	"github.com/dvwriter/dvcodec/format"
	"github.com/dvwriter/dvcodec/internal/pool"
	"github.com/dvwriter/dvcodec/internal/wire"
	"github.com/dvwriter/dvcodec/monotonic"
)

// Options controls block and reverse-index granularity. Zero values
// select this package's own defaults.
type Options struct {
	// BlockShift is log2 of the number of terms per LZ4-compressed
	// block. 0 selects format.TermsDictBlockLZ4Shift.
	BlockShift int
	// ReverseIndexShift is log2 of the number of terms per reverse-index
	// group. 0 selects format.TermsDictReverseIndexShift.
	ReverseIndexShift int
}

// Encode writes the distinct, sorted term set terms yields to data and
// its descriptor to meta (spec.md §4.6, §4.8, §6 "Term-dictionary
// payload"). Terms must be strictly increasing in byte order
// (cursor.Terms' contract); violating this returns
// errs.ErrNonIncreasingTerm rather than corrupting output silently.
func Encode(data, meta *wire.Writer, terms cursor.Terms, opts Options) error {
	blockShift := opts.BlockShift
	if blockShift == 0 {
		blockShift = format.TermsDictBlockLZ4Shift
	}
	reverseIndexShift := opts.ReverseIndexShift
	if reverseIndexShift == 0 {
		reverseIndexShift = format.TermsDictReverseIndexShift
	}
	blockSize := 1 << blockShift
	groupSize := 1 << reverseIndexShift

	n := terms.Count()

	blockAddr := monotonic.NewWriter(n/blockSize + 1)
	dictStart := data.Position()

	dictCompressor := compress.NewDictCompressor()

	var blockBuf *pool.ByteBuffer
	var blockWriter *wire.Writer
	var blockFirstTerm []byte
	var prevInBlock []byte
	var prevTerm []byte

	var maxTermLength int
	var maxBlockUncompressedLength int

	groupLengths := make([]int64, 0, n/groupSize+1)
	sortKeys := pool.GetScratchBuffer()
	defer pool.PutScratchBuffer(sortKeys)

	flushBlock := func() {
		remainder := blockWriter.Bytes()
		// Each block's LZ4 stream decompresses to the dictionary prefix
		// plus the block's own bytes, since the dictionary is prepended
		// before compression (compress.DictCompressor.CompressBlock); a
		// reader's decode buffer must fit that whole span, not just the
		// remainder.
		uncompressedLength := len(blockFirstTerm) + len(remainder)
		if uncompressedLength > maxBlockUncompressedLength {
			maxBlockUncompressedLength = uncompressedLength
		}

		compressed, _, stored, err := dictCompressor.CompressBlock(blockFirstTerm, remainder)
		if err != nil {
			// CompressBlock only fails on a malformed destination buffer
			// size, which cannot happen here; treat as a programmer
			// invariant violation rather than threading another error
			// return through every block flush.
			errs.AssertInvariant(false, "termdict: block compression failed: %v", err)
		}

		// A stored flag byte precedes the remainder length so a reader
		// knows whether what follows is an LZ4 stream or raw dict+block
		// bytes copied through unchanged (incompressible input).
		if stored {
			data.Uint8(1)
		} else {
			data.Uint8(0)
		}
		data.Vint(uint64(len(remainder)))
		data.Raw(compressed)

		pool.PutScratchBuffer(blockBuf)
	}

	for k := 0; k < n; k++ {
		term, ok := terms.Next()
		if !ok {
			errs.AssertInvariant(false, "termdict: cursor yielded %d terms, Count() reported %d", k, n)
		}

		if len(term) > maxTermLength {
			maxTermLength = len(term)
		}

		if k > 0 && bytes.Compare(term, prevTerm) <= 0 {
			return errs.Wrapf(errs.ErrNonIncreasingTerm, "ordinal %d: %q does not follow %q", k, term, prevTerm)
		}

		posInBlock := k % blockSize
		if posInBlock == 0 {
			blockAddr.Add(data.Position() - dictStart)

			blockBuf = pool.GetScratchBuffer()
			blockWriter = wire.NewWriter(blockBuf)

			blockFirstTerm = append([]byte(nil), term...)
			data.Vint(uint64(len(term)))
			data.Raw(term)

			prevInBlock = blockFirstTerm
		} else {
			prefixLen := commonPrefixLen(prevInBlock, term)
			suffixLen := len(term) - prefixLen

			header := byte(min(prefixLen, 15)) | byte(min(suffixLen-1, 15)<<4)
			blockWriter.Uint8(header)

			if prefixLen >= 15 {
				blockWriter.Vint(uint64(prefixLen - 15))
			}
			if suffixLen >= 16 {
				blockWriter.Vint(uint64(suffixLen - 16))
			}
			blockWriter.Raw(term[prefixLen:])

			prevInBlock = term
		}

		posInGroup := k % groupSize
		if posInGroup == 0 {
			var sortKey []byte
			if k > 0 {
				sortKey = shortestGreaterPrefix(term, prevTerm)
			}
			groupLengths = append(groupLengths, int64(len(sortKey)))
			sortKeys.MustWrite(sortKey)
		}

		if posInBlock == blockSize-1 || k == n-1 {
			flushBlock()
		}

		prevTerm = append([]byte(nil), term...)
	}

	dictLength := data.Position() - dictStart

	addrData, addrMeta := blockAddr.Finish()
	addrStart := data.Position()
	data.Raw(addrData)
	addrLength := int64(len(addrData))

	reverseAddrData, reverseAddrMeta := monotonic.FromCumulative(groupLengths)

	sortKeysStart := data.Position()
	data.Raw(sortKeys.Bytes())
	sortKeysLength := int64(sortKeys.Len())

	reverseAddrStart := data.Position()
	data.Raw(reverseAddrData)
	reverseAddrLength := int64(len(reverseAddrData))

	meta.Vlong(uint64(n))
	meta.Int32(int32(blockShift))
	addrMeta.WriteTo(meta)
	meta.Int32(int32(maxTermLength))
	meta.Int32(int32(maxBlockUncompressedLength))
	meta.Int64(dictStart)
	meta.Int64(dictLength)
	meta.Int64(addrStart)
	meta.Int64(addrLength)
	meta.Int32(int32(reverseIndexShift))
	reverseAddrMeta.WriteTo(meta)
	meta.Int64(sortKeysStart)
	meta.Int64(sortKeysLength)
	meta.Int64(reverseAddrStart)
	meta.Int64(reverseAddrLength)

	return nil
}

// commonPrefixLen returns the length of the longest common prefix of a
// and b.
func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	i := 0
	for i < n && a[i] == b[i] {
		i++
	}

	return i
}

// shortestGreaterPrefix returns the shortest prefix of term that
// compares strictly greater than prev (spec.md GLOSSARY "Sort key").
// term is guaranteed (by the strictly-increasing cursor contract) to be
// strictly greater than prev in full, so the search always terminates.
func shortestGreaterPrefix(term, prev []byte) []byte {
	for p := 1; p <= len(term); p++ {
		if bytes.Compare(term[:p], prev) > 0 {
			return term[:p]
		}
	}

	return term
}
