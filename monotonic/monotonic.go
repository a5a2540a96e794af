// Package monotonic is the stand-in for spec.md §1's external
// "DirectMonotonicWriter" collaborator (GLOSSARY): it
// encodes a non-decreasing integer sequence as
//
//	value[k] = min + round(k*avgInc) + delta[k]
//
// with delta bit-packed. avgInc is the sequence's average increment
// (value[n-1]-value[0])/(n-1), the same two-point slope estimate a
// least-squares model falls back to in its simplest variant, here
// applied to a sequence rather than a size curve. Used for
// every address/offset table in the write path: binary-value offsets
// (spec.md §4.4), term-dictionary block offsets and the reverse-index
// offsets (§4.6, §4.8), and SortedNumeric's per-doc value-count prefix
// sums (§4.7).
package monotonic

import (
	"math"

	"github.com/dvwriter/dvcodec/internal/bitpack"
	"github.com/dvwriter/dvcodec/internal/pool"
	"github.com/dvwriter/dvcodec/internal/wire"
)

// Meta describes a packed sequence well enough for a reader to
// reconstruct it (spec.md §4 "<monotonic meta>"); this module never
// reads it back, since the read path is explicitly out of scope, but
// the fields mirror exactly what a reader would need.
type Meta struct {
	NumValues    int
	Min          int64
	AvgInc       float64
	DeltaBase    int64
	BitsPerValue uint8
	DataLength   int
}

// Writer buffers a sequence of int64 values and produces a compact
// packed representation on Finish. Single-consumer, matching spec.md
// §5's per-field writer model.
type Writer struct {
	values  []int64
	release func()
}

// NewWriter creates a writer with room for an expected number of
// values. It takes an empty slice from the shared int64 slice pool
// (internal/pool) and uses it when its capacity covers expected;
// otherwise it allocates a fresh slice, which is not returned to the
// pool.
func NewWriter(expected int) *Writer {
	vals, release := pool.GetInt64Slice(0)
	if cap(vals) < expected {
		vals = make([]int64, 0, expected)
	}

	return &Writer{values: vals, release: release}
}

// Add appends the next value of the sequence. Values must be
// non-decreasing; this is the caller's responsibility (every call site
// in this module derives the sequence from cumulative sums or sorted
// offsets, which are monotonic by construction).
func (w *Writer) Add(v int64) {
	w.values = append(w.values, v)
}

// Len returns the number of values buffered so far.
func (w *Writer) Len() int {
	return len(w.values)
}

// Finish computes the min/avgInc fit, bit-packs the residual deltas,
// and returns the packed data bytes and descriptive metadata. The
// Writer must not be reused after Finish.
func (w *Writer) Finish() ([]byte, Meta) {
	n := len(w.values)
	if n == 0 {
		if w.release != nil {
			w.release()
		}

		return nil, Meta{}
	}

	minV := w.values[0]

	var avgInc float64
	if n > 1 {
		avgInc = float64(w.values[n-1]-minV) / float64(n-1)
	}

	deltas := make([]int64, n)
	deltaMin, deltaMax := int64(0), int64(0)
	for k, v := range w.values {
		predicted := minV + int64(math.Round(float64(k)*avgInc))
		d := v - predicted
		deltas[k] = d

		if k == 0 || d < deltaMin {
			deltaMin = d
		}
		if k == 0 || d > deltaMax {
			deltaMax = d
		}
	}

	bitsPerValue := bitpack.BitsRequired(uint64(deltaMax - deltaMin))

	bw := bitpack.NewWriter(bitsPerValue)
	for _, d := range deltas {
		bw.Write(uint64(d - deltaMin))
	}
	data := bw.Flush()
	// copy out of the pooled buffer before releasing it, since Flush
	// returns a view into scratch storage the pool may hand to another
	// caller.
	owned := make([]byte, len(data))
	copy(owned, data)
	bw.Release()

	if w.release != nil {
		w.release()
	}

	return owned, Meta{
		NumValues:    n,
		Min:          minV,
		AvgInc:       avgInc,
		DeltaBase:    deltaMin,
		BitsPerValue: uint8(bitsPerValue),
		DataLength:   len(owned),
	}
}

// WriteTo writes the "<monotonic meta>" fields spec.md §6 embeds inline
// within larger metadata records: numValues, min, avgInc (as raw
// float64 bits), deltaBase, bitsPerValue, dataLength. The caller writes
// the packed data bytes to the data stream separately and is
// responsible for recording that region's own (start, length) fields,
// which are not part of this inline block.
func (m Meta) WriteTo(w *wire.Writer) {
	w.Vint(uint64(m.NumValues))
	w.Int64(m.Min)
	w.Int64(int64(math.Float64bits(m.AvgInc)))
	w.Int64(m.DeltaBase)
	w.Uint8(uint8(m.BitsPerValue))
	w.Vint(uint64(m.DataLength))
}

// FromCumulative is a convenience constructor for the very common shape
// of a monotonic table: a running total over a slice of non-negative
// increments (byte lengths, per-doc value counts), producing n+1 values
// starting at 0, as spec.md §4.4 and §4.7 require.
func FromCumulative(increments []int64) ([]byte, Meta) {
	w := NewWriter(len(increments) + 1)
	var total int64
	w.Add(0)
	for _, inc := range increments {
		total += inc
		w.Add(total)
	}

	return w.Finish()
}
