package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceCursor is a minimal cursor.DocValues over a fixed set of docs,
// used only by tests in this package.
type sliceCursor struct {
	docs [][]int64
	pos  int
	idx  int
}

func newSliceCursor(docs [][]int64) *sliceCursor { return &sliceCursor{docs: docs, pos: -1} }

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

func TestScan_Basic(t *testing.T) {
	c := newSliceCursor([][]int64{{10}, {20}, {30}, {40}})
	s := Scan(c)

	assert.Equal(t, 4, s.DocsWithValue)
	assert.Equal(t, int64(4), s.NumValues)
	assert.Equal(t, int64(10), s.Min)
	assert.Equal(t, int64(40), s.Max)
	assert.Equal(t, int64(10), s.GCD)
}

func TestScan_AllEqual(t *testing.T) {
	c := newSliceCursor([][]int64{{42}, {42}, {42}})
	s := Scan(c)

	assert.Equal(t, int64(42), s.Min)
	assert.Equal(t, int64(42), s.Max)
}

func TestScan_DictionaryCandidate(t *testing.T) {
	c := newSliceCursor([][]int64{{7}, {100}, {7}, {7}, {100}})
	s := Scan(c)

	require.NotNil(t, s.Distinct)
	assert.Equal(t, []int64{7, 100}, s.Distinct)
}

func TestScan_DistinctOverflow(t *testing.T) {
	docs := make([][]int64, 0, distinctCap+1)
	for i := 0; i < distinctCap+1; i++ {
		docs = append(docs, []int64{int64(i)})
	}
	c := newSliceCursor(docs)
	s := Scan(c)

	assert.Nil(t, s.Distinct, "257th distinct value must disable the dictionary path")
}

func TestScan_GCDOverflowDegrades(t *testing.T) {
	big := int64(1)<<62 + 10 // strictly greater than 2^62 in magnitude
	c := newSliceCursor([][]int64{{big}, {-big}})
	s := Scan(c)

	assert.Equal(t, int64(1), s.GCD, "oversized values must force GCD degradation, not panic")
}

func TestScan_Empty(t *testing.T) {
	c := newSliceCursor(nil)
	s := Scan(c)

	assert.Equal(t, 0, s.DocsWithValue)
	assert.Equal(t, int64(0), s.NumValues)
}

func TestScan_SomeDocsWithoutValues(t *testing.T) {
	c := newSliceCursor([][]int64{{1}, {}, {2, 3}})
	s := Scan(c)

	assert.Equal(t, 2, s.DocsWithValue)
	assert.Equal(t, int64(3), s.NumValues)
}
