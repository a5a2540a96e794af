// Package numeric implements the statistics-driven numeric value
// encoder (spec.md §4.2), the largest single component of the write
// path. Grounded on a NumericEncoder shape: an encoder-state struct
// whose Finish() writes a fixed-order metadata record, generalized from
// a fixed Raw/Delta/Gorilla choice to the four statistics-driven modes
// this format requires.
package numeric

import (
	"log/slog"

	"github.com/dvwriter/dvcodec/cursor"
	"github.com/dvwriter/dvcodec/errs"
	"github.com/dvwriter/dvcodec/format"
	"github.com/dvwriter/dvcodec/internal/bitpack"
	"github.com/dvwriter/dvcodec/internal/stats"
	"github.com/dvwriter/dvcodec/internal/wire"
	"github.com/dvwriter/dvcodec/presence"
)

// blockTableSentinel is the tableSize value signaling block mode:
// -2 - NUMERIC_BLOCK_SHIFT (spec.md §4.2).
const blockTableSentinel = int32(-2 - format.NumericBlockShift)

// blockBitsSentinel is the bitsPerValue byte signaling block mode
// (spec.md §4.2, "special sentinel 0xFF").
const blockBitsSentinel = int8(-1) // bit pattern 0xFF as a signed byte

const blockSize = 1 << format.NumericBlockShift

// Options controls how Encode treats the value stream.
type Options struct {
	// MaxDoc is the segment's total document count, used to size the
	// presence bitmap and detect the "dense" (docsWithValue == maxDoc)
	// sentinel.
	MaxDoc int

	// Ordinal marks the stream as an ordinal stream (Sorted/SortedSet),
	// enabling the invariant check of spec.md §4.2 "Ordinal fields".
	Ordinal bool

	// DenseRankPower is passed through to the presence encoder
	// unchanged (spec.md §4.3). Zero selects presence.DefaultDenseRankPower.
	DenseRankPower uint8

	// Logger, when non-nil, receives debug-level tracing of which of the
	// four mode-selection branches (constant/dictionary/block/delta-GCD)
	// was chosen and why. Nil disables all logging.
	Logger *slog.Logger
}

func (o Options) logDebug(msg string, args ...any) {
	if o.Logger != nil {
		o.Logger.Debug(msg, args...)
	}
}

// Encode runs the two-pass numeric encoding pipeline over values and
// writes the field's presence descriptor plus numeric payload to meta,
// appending any value bytes to data (spec.md §4.2, §6 "Numeric
// payload"). Returns the accumulated statistics for callers (such as
// the Sorted dispatcher) that need to confirm ordinal invariants or
// detect multi-valued streams.
func Encode(data, meta *wire.Writer, values cursor.Factory, opts Options) (*stats.Stats, error) {
	s := stats.Scan(values.New())

	if opts.Ordinal {
		errs.AssertInvariant(s.Min == 0 && (s.Max == 0 || s.GCD == 1),
			"ordinal stream invariant violated: min=%d max=%d gcd=%d", s.Min, s.Max, s.GCD)
	}

	rankPower := opts.DenseRankPower
	if rankPower == 0 {
		rankPower = presence.DefaultDenseRankPower
	}

	presenceBuilder := presence.NewBuilder(opts.MaxDoc)

	tableSize := int32(-1)
	var table []int64
	bitsPerValue := int8(0)
	min := s.Min
	gcd := s.GCD

	var dictOrdinal map[int64]int
	useDictionary := false
	useBlock := false

	switch {
	case s.Min == s.Max:
		// Constant: nothing further to decide.
	case s.Distinct != nil && len(s.Distinct) > 1:
		bitsOrd := bitpack.BitsRequired(uint64(len(s.Distinct) - 1))
		bitsDelta := bitpack.BitsRequired(uint64((s.Max - s.Min) / s.GCD))
		useDictionary = bitsOrd < bitsDelta
	}

	if !useDictionary && s.Min != s.Max && s.SpaceInBitsSingle > 0 {
		useBlock = float64(s.SpaceInBitsBlocks)/float64(s.SpaceInBitsSingle) <= 0.9
	}

	valueBits := 0

	switch {
	case s.Min == s.Max:
		opts.logDebug("numeric: constant mode", "value", s.Min)
	case useDictionary:
		table = s.Distinct
		tableSize = int32(len(table))
		bitsPerValue = int8(bitpack.BitsRequired(uint64(len(table) - 1)))
		min, gcd = 0, 1
		dictOrdinal = make(map[int64]int, len(table))
		for i, v := range table {
			dictOrdinal[v] = i
		}
		valueBits = int(bitsPerValue)
		opts.logDebug("numeric: dictionary mode", "distinct", len(table), "bitsPerValue", bitsPerValue)
	case useBlock:
		tableSize = blockTableSentinel
		bitsPerValue = blockBitsSentinel
		opts.logDebug("numeric: block mode", "blocks", len(s.Blocks),
			"spaceInBitsBlocks", s.SpaceInBitsBlocks, "spaceInBitsSingle", s.SpaceInBitsSingle)
	default:
		bitsDelta := bitpack.BitsRequired(uint64((s.Max - s.Min) / s.GCD))
		// Min-rebasing optimization (spec.md §9): only when it does not
		// change the bit width the stored values need.
		if s.GCD == 1 && s.Min > 0 && bitpack.BitsRequired(uint64(s.Max)) == bitpack.BitsRequired(uint64(s.Max-s.Min)) {
			min = 0
		}
		bitsPerValue = int8(bitsDelta)
		valueBits = bitsDelta
		opts.logDebug("numeric: delta/GCD mode", "bitsPerValue", bitsDelta, "min", min, "gcd", s.GCD)
	}

	var valueOffset, valueLength int64
	jumpTableOffset := int64(-1)
	var err error

	switch {
	case s.Min == s.Max:
		err = walk(values.New(), presenceBuilder, nil)
	case useBlock:
		valueOffset, valueLength, jumpTableOffset, err = encodeBlocks(data, values, presenceBuilder, s, gcd)
	default:
		valueOffset = data.Position()
		bw := bitpack.NewWriter(valueBits)
		err = walk(values.New(), presenceBuilder, func(v int64) {
			if useDictionary {
				bw.Write(uint64(dictOrdinal[v]))
			} else {
				bw.Write(uint64((v - min) / gcd))
			}
		})
		packed := bw.Flush()
		data.Raw(packed)
		valueLength = int64(len(packed))
		bw.Release()
	}
	if err != nil {
		return s, err
	}

	presenceData, desc := presenceBuilder.Finish(data.Position(), rankPower)
	if presenceData != nil {
		data.Raw(presenceData)
	}

	writeMeta(meta, desc, s.NumValues, tableSize, table, bitsPerValue, min, gcd, valueOffset, valueLength, jumpTableOffset)

	return s, nil
}

// walk iterates a DocValues cursor once, marking presence for every
// document carrying at least one value and, if fn is non-nil, invoking
// it for every value in iteration order.
func walk(c cursor.DocValues, presenceBuilder *presence.Builder, fn func(int64)) error {
	for {
		docID, ok := c.NextDoc()
		if !ok {
			break
		}

		n := c.ValueCount()
		if n > 0 {
			if err := presenceBuilder.Set(docID); err != nil {
				return err
			}
		}

		for i := 0; i < n; i++ {
			v := c.NextValue()
			if fn != nil {
				fn(v)
			}
		}
	}

	return nil
}

// encodeBlocks writes the block-mode data layout (spec.md §4.2
// "Block"): per block, a bitsPerValue byte, a 64-bit blockMin, then the
// packed payload (omitted for constant blocks), followed by a
// self-referential jump table listing every block's absolute offset and
// terminated by its own absolute offset.
func encodeBlocks(data *wire.Writer, values cursor.Factory, presenceBuilder *presence.Builder, s *stats.Stats, gcd int64) (valueOffset, valueLength, jumpTableOffset int64, err error) {
	valueOffset = data.Position()
	blockOffsets := make([]int64, 0, len(s.Blocks))

	blockIdx := 0
	count := 0
	var blk stats.Block
	var bits int
	var bw *bitpack.Writer

	startBlock := func() {
		blk = s.Blocks[blockIdx]
		bits = 0
		if blk.Max > blk.Min {
			bits = bitpack.BitsRequired(uint64((blk.Max - blk.Min) / gcd))
		}
		bw = bitpack.NewWriter(bits)
	}

	flushBlock := func() {
		blockOffsets = append(blockOffsets, data.Position())
		data.Uint8(uint8(bits))
		data.Int64(blk.Min)

		if bits > 0 {
			packed := bw.Flush()
			data.Int32(int32(len(packed)))
			data.Raw(packed)
		}
		bw.Release()
	}

	if len(s.Blocks) > 0 {
		startBlock()
	}

	c := values.New()
	for {
		docID, ok := c.NextDoc()
		if !ok {
			break
		}

		n := c.ValueCount()
		if n > 0 {
			if err := presenceBuilder.Set(docID); err != nil {
				return 0, 0, 0, err
			}
		}

		for i := 0; i < n; i++ {
			v := c.NextValue()

			if count == blockSize {
				flushBlock()
				blockIdx++
				count = 0
				startBlock()
			}

			if bits > 0 {
				bw.Write(uint64((v - blk.Min) / gcd))
			}
			count++
		}
	}

	if blockIdx < len(s.Blocks) {
		flushBlock()
	}

	jumpTableOffset = data.Position()
	for _, off := range blockOffsets {
		data.Int64(off)
	}
	data.Int64(jumpTableOffset) // self-referential terminator

	valueLength = jumpTableOffset - valueOffset

	return valueOffset, valueLength, jumpTableOffset, nil
}

func writeMeta(meta *wire.Writer, desc presence.Descriptor, numValues int64, tableSize int32, table []int64, bitsPerValue int8, min, gcd, valueOffset, valueLength, jumpTableOffset int64) {
	meta.Int64(desc.DocsWithFieldOffset)
	meta.Int64(desc.DocsWithFieldLength)
	meta.Int16(desc.JumpTableEntryCount)
	meta.Int8(desc.DenseRankPower)

	meta.Int64(numValues)
	meta.Int32(tableSize)
	for _, v := range table {
		meta.Int64(v)
	}
	meta.Int8(bitsPerValue)
	meta.Int64(min)
	meta.Int64(gcd)
	meta.Int64(valueOffset)
	meta.Int64(valueLength)
	meta.Int64(jumpTableOffset)
}
