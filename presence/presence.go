// Package presence is the stand-in for spec.md §4.3's external
// "bitmap writer" collaborator: a dense per-document
// bitmap recording which documents carry at least one value, with a
// block-level rank jump table so a reader can skip ahead instead of
// popcounting from the start. The bitmap itself is backed by
// github.com/bits-and-blooms/bitset, a compact fixed-size bitmap type;
// the rank jump table on top is new, since a plain bitset has no
// random-access rank query.
package presence

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bitset"

	"github.com/dvwriter/dvcodec/errs"
)

// SentinelNone and SentinelAll are the docsWithFieldOffset values
// spec.md §4.3 reserves for the two all-or-nothing cases, written in
// place of a real data offset when no bitmap bytes exist.
const (
	SentinelNone int64 = -2
	SentinelAll  int64 = -1
)

// Descriptor is the four fixed-width fields spec.md §4.3 records in the
// metadata stream for every presence-bearing field.
type Descriptor struct {
	DocsWithFieldOffset int64
	DocsWithFieldLength int64
	JumpTableEntryCount int16
	DenseRankPower      int8
}

// DefaultDenseRankPower is the block size (as a power of two, in docs)
// used when the caller has no reason to pick a different one
// (format.DefaultDenseRankPower).
const DefaultDenseRankPower = 9

// Builder accumulates the set of documents carrying at least one value
// for a field, then emits the dense bitmap and its descriptor.
type Builder struct {
	bs            *bitset.BitSet
	maxDoc        int
	docsWithValue int
}

// NewBuilder creates a builder sized for a segment of maxDoc documents.
func NewBuilder(maxDoc int) *Builder {
	return &Builder{bs: bitset.New(uint(maxDoc)), maxDoc: maxDoc}
}

// Set marks docID as carrying at least one value. docIDs may be set in
// any order; setting the same docID again has no further effect. Returns
// errs.ErrDocCountMismatch if docID falls outside [0, maxDoc), which
// means the cursor yielded a document id the segment never declared.
func (b *Builder) Set(docID int) error {
	if docID < 0 || docID >= b.maxDoc {
		return errs.Wrapf(errs.ErrDocCountMismatch, "doc %d, maxDoc %d", docID, b.maxDoc)
	}

	if !b.bs.Test(uint(docID)) {
		b.docsWithValue++
	}
	b.bs.Set(uint(docID))

	return nil
}

// DocsWithValue returns the number of documents marked via Set so far.
func (b *Builder) DocsWithValue() int {
	return b.docsWithValue
}

// Finish produces the descriptor and, unless one of the sentinel cases
// applies, the dense bitmap bytes to append to the data stream at
// dataOffset. rankPower is the log2 block size for the jump table;
// callers pass DefaultDenseRankPower unless they have a specific reason
// not to.
func (b *Builder) Finish(dataOffset int64, rankPower uint8) ([]byte, Descriptor) {
	if b.docsWithValue == 0 {
		return nil, Descriptor{DocsWithFieldOffset: SentinelNone, DocsWithFieldLength: 0, JumpTableEntryCount: -1, DenseRankPower: -1}
	}
	if b.docsWithValue == b.maxDoc {
		return nil, Descriptor{DocsWithFieldOffset: SentinelAll, DocsWithFieldLength: 0, JumpTableEntryCount: -1, DenseRankPower: -1}
	}

	words := b.bs.Bytes()
	bitmapBytes := make([]byte, len(words)*8)
	for i, w := range words {
		binary.LittleEndian.PutUint64(bitmapBytes[i*8:], w)
	}

	blockSize := 1 << rankPower
	entryCount := (b.maxDoc + blockSize - 1) / blockSize
	jumpBytes := make([]byte, entryCount*8)

	var running uint64
	blockStart := 0
	for i := 0; i < entryCount; i++ {
		binary.LittleEndian.PutUint64(jumpBytes[i*8:], running)

		blockEnd := blockStart + blockSize
		if blockEnd > b.maxDoc {
			blockEnd = b.maxDoc
		}
		for d := blockStart; d < blockEnd; d++ {
			if b.bs.Test(uint(d)) {
				running++
			}
		}
		blockStart = blockEnd
	}

	out := make([]byte, 0, len(bitmapBytes)+len(jumpBytes))
	out = append(out, bitmapBytes...)
	out = append(out, jumpBytes...)

	return out, Descriptor{
		DocsWithFieldOffset: dataOffset,
		DocsWithFieldLength: int64(len(out)),
		JumpTableEntryCount: int16(entryCount),
		DenseRankPower:      int8(rankPower),
	}
}
