package numeric

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvwriter/dvcodec/cursor"
	"github.com/dvwriter/dvcodec/internal/pool"
	"github.com/dvwriter/dvcodec/internal/wire"
)

// sliceFactory is a restartable cursor.Factory over a fixed doc/value
// table, used only by tests in this package.
type sliceFactory struct {
	docs [][]int64
}

func (f sliceFactory) New() cursor.DocValues { return &sliceCursor{docs: f.docs, pos: -1} }

type sliceCursor struct {
	docs [][]int64
	pos  int
	idx  int
}

func (c *sliceCursor) NextDoc() (int, bool) {
	c.pos++
	c.idx = 0
	if c.pos >= len(c.docs) {
		return 0, false
	}

	return c.pos, true
}

func (c *sliceCursor) ValueCount() int { return len(c.docs[c.pos]) }

func (c *sliceCursor) NextValue() int64 {
	v := c.docs[c.pos][c.idx]
	c.idx++

	return v
}

func (c *sliceCursor) Cost() int64 {
	var n int64
	for _, d := range c.docs {
		n += int64(len(d))
	}

	return n
}

func newWriters() (*wire.Writer, *wire.Writer) {
	return wire.NewWriter(pool.NewByteBuffer(256)), wire.NewWriter(pool.NewByteBuffer(256))
}

func unpack(data []byte, width, count int) []uint64 {
	out := make([]uint64, count)
	var bitBuf uint64
	var bitCount int
	pos := 0

	for i := 0; i < count; i++ {
		for bitCount < width {
			if pos < len(data) {
				bitBuf |= uint64(data[pos]) << uint(bitCount)
				pos++
			}
			bitCount += 8
		}

		mask := uint64(1)<<uint(width) - 1
		out[i] = bitBuf & mask
		bitBuf >>= uint(width)
		bitCount -= width
	}

	return out
}

func TestEncode_DenseGCDSequence(t *testing.T) {
	f := sliceFactory{docs: [][]int64{{10}, {20}, {30}, {40}}}
	data, meta := newWriters()

	s, err := Encode(data, meta, f, Options{MaxDoc: 4})
	require.NoError(t, err)

	assert.Equal(t, int64(10), s.Min)
	assert.Equal(t, int64(10), s.GCD)
	assert.Equal(t, int64(4), s.NumValues)

	mb := meta.Bytes()
	// presence descriptor: offset(-1) int64, length(0) int64, jumpTableEntryCount(-1) int16, denseRankPower(-1) int8
	assert.Equal(t, int64(-1), be64(mb[0:8]))
	assert.Equal(t, int64(0), be64(mb[8:16]))
	assert.Equal(t, int16(-1), be16(mb[16:18]))
	assert.Equal(t, int8(-1), int8(mb[18]))

	numValues := be64(mb[19:27])
	tableSize := be32(mb[27:31])
	bitsPerValue := int8(mb[31])
	min := be64(mb[32:40])
	gcd := be64(mb[40:48])

	assert.Equal(t, int64(4), numValues)
	assert.Equal(t, int32(-1), tableSize)
	assert.Equal(t, int8(2), bitsPerValue)
	assert.Equal(t, int64(10), min)
	assert.Equal(t, int64(10), gcd)

	got := unpack(data.Bytes(), 2, 4)
	assert.Equal(t, []uint64{0, 1, 2, 3}, got)
}

func TestEncode_Constant(t *testing.T) {
	f := sliceFactory{docs: [][]int64{{42}, {42}, {42}}}
	data, meta := newWriters()

	s, err := Encode(data, meta, f, Options{MaxDoc: 3})
	require.NoError(t, err)

	assert.Equal(t, int64(42), s.Min)
	assert.Equal(t, int64(42), s.Max)
	assert.Empty(t, data.Bytes(), "constant mode writes no value bytes")

	mb := meta.Bytes()
	bitsPerValue := int8(mb[31])
	tableSize := be32(mb[27:31])
	assert.Equal(t, int8(0), bitsPerValue)
	assert.Equal(t, int32(-1), tableSize)
}

func TestEncode_DictionarySelected(t *testing.T) {
	f := sliceFactory{docs: [][]int64{{7}, {100}, {7}, {7}, {100}}}
	data, meta := newWriters()

	s, err := Encode(data, meta, f, Options{MaxDoc: 5})
	require.NoError(t, err)
	require.NotNil(t, s.Distinct)

	mb := meta.Bytes()
	tableSize := be32(mb[27:31])
	require.Equal(t, int32(2), tableSize)

	table := []int64{be64(mb[31:39]), be64(mb[39:47])}
	assert.Equal(t, []int64{7, 100}, table)

	bitsPerValue := int8(mb[47])
	min := be64(mb[48:56])
	gcd := be64(mb[56:64])
	assert.Equal(t, int8(1), bitsPerValue)
	assert.Equal(t, int64(0), min)
	assert.Equal(t, int64(1), gcd)

	got := unpack(data.Bytes(), 1, 5)
	assert.Equal(t, []uint64{0, 1, 0, 0, 1}, got)
}

func TestEncode_BlockModeForHighVarianceData(t *testing.T) {
	docs := make([][]int64, 0, format_numericBlockSize*2+500)
	for i := 0; i < format_numericBlockSize; i++ {
		docs = append(docs, []int64{int64(i % 4)})
	}
	for i := 0; i < format_numericBlockSize+500; i++ {
		docs = append(docs, []int64{int64(i) * 1_000_000})
	}
	f := sliceFactory{docs: docs}
	data, meta := newWriters()

	s, err := Encode(data, meta, f, Options{MaxDoc: len(docs)})
	require.NoError(t, err)
	require.Len(t, s.Blocks, 3)

	mb := meta.Bytes()
	tableSize := be32(mb[27:31])
	bitsPerValue := int8(mb[31])
	assert.Equal(t, blockTableSentinel, tableSize)
	assert.Equal(t, blockBitsSentinel, bitsPerValue)

	jumpTableOffset := be64(mb[len(mb)-8:])
	require.Greater(t, jumpTableOffset, int64(0))
	require.LessOrEqual(t, int(jumpTableOffset)+8*4, len(data.Bytes()))

	selfRef := be64(data.Bytes()[int(jumpTableOffset)+8*3 : int(jumpTableOffset)+8*4])
	assert.Equal(t, jumpTableOffset, selfRef)
}

func TestEncode_OrdinalInvariantPanicsOnBadInput(t *testing.T) {
	f := sliceFactory{docs: [][]int64{{5}}}
	data, meta := newWriters()

	assert.Panics(t, func() {
		_, _ = Encode(data, meta, f, Options{MaxDoc: 1, Ordinal: true})
	})
}

func TestEncode_PartialPresenceUsesRealOffset(t *testing.T) {
	f := sliceFactory{docs: [][]int64{{1}, {}, {2}}}
	data, meta := newWriters()

	_ = data

	_, err := Encode(data, meta, f, Options{MaxDoc: 3})
	require.NoError(t, err)
	mb := meta.Bytes()
	offset := be64(mb[0:8])
	// partial presence: not all, not none, so real offset must be >= 0
	assert.GreaterOrEqual(t, offset, int64(0))
}

func TestEncode_LoggerReceivesModeDecision(t *testing.T) {
	f := sliceFactory{docs: [][]int64{{7}, {100}, {7}, {7}, {100}}}
	data, meta := newWriters()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	assert.NotPanics(t, func() {
		_, _ = Encode(data, meta, f, Options{MaxDoc: 5, Logger: logger})
	})
	assert.Contains(t, logs.String(), "numeric:")
}

const format_numericBlockSize = blockSize

func be64(b []byte) int64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}

	return int64(v)
}

func be32(b []byte) int32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}

	return int32(v)
}

func be16(b []byte) int16 {
	var v uint16
	for _, c := range b {
		v = v<<8 | uint16(c)
	}

	return int16(v)
}
