// Package sortedfield implements the Sorted/SortedSet dispatcher and
// SortedNumeric tail (spec.md §4.5, §4.7): the ordinal-valued field
// kinds that share a term dictionary, plus the multi-valued integer
// pipeline SortedSet reuses for its ordinals. Grounded on blob/blob_set.go's
// multi-stream dispatch style, routing a field to the right combination
// of sub-encoders by kind, generalized from a fixed metric-set dispatch
// to this format's Sorted/SortedNumeric/SortedSet three-way split.
package sortedfield

import (
	"log/slog"

	"github.com/dvwriter/dvcodec/cursor"
	"github.com/dvwriter/dvcodec/internal/stats"
	"github.com/dvwriter/dvcodec/internal/wire"
	"github.com/dvwriter/dvcodec/monotonic"
	"github.com/dvwriter/dvcodec/numeric"
	"github.com/dvwriter/dvcodec/termdict"
)

// Options controls field-level behavior shared by every sub-encoder
// this package dispatches to.
type Options struct {
	MaxDoc         int
	DenseRankPower uint8
	Logger         *slog.Logger

	// TermsDictBlockShift and TermsDictReverseIndexShift are passed
	// through unchanged to termdict.Options for the term dictionary
	// every pipeline here ends with. Zero selects termdict's own
	// defaults.
	TermsDictBlockShift        int
	TermsDictReverseIndexShift int
}

func (o Options) numericOptions() numeric.Options {
	return numeric.Options{
		MaxDoc:         o.MaxDoc,
		Ordinal:        true,
		DenseRankPower: o.DenseRankPower,
		Logger:         o.Logger,
	}
}

func (o Options) termdictOptions() termdict.Options {
	return termdict.Options{
		BlockShift:        o.TermsDictBlockShift,
		ReverseIndexShift: o.TermsDictReverseIndexShift,
	}
}

// EncodeSorted implements the Sorted pipeline (spec.md §4.5): one
// ordinal per document, numeric-encoded, followed by the term
// dictionary over the distinct sorted term list those ordinals index
// into.
func EncodeSorted(data, meta *wire.Writer, ordinals cursor.Factory, terms cursor.Terms, opts Options) (*stats.Stats, error) {
	s, err := numeric.Encode(data, meta, ordinals, opts.numericOptions())
	if err != nil {
		return s, err
	}

	if err := termdict.Encode(data, meta, terms, opts.termdictOptions()); err != nil {
		return s, err
	}

	return s, nil
}

// EncodeSortedNumeric implements the SortedNumeric pipeline (spec.md
// §4.7): the numeric payload, then docsWithField, then — only when the
// stream is multi-valued — a second monotonic address table of
// cumulative per-doc value counts, so that doc i's values are the slice
// [addr[i], addr[i+1]) of the numeric payload's value sequence. The
// values are arbitrary 64-bit integers, so the ordinal invariant is not
// checked.
func EncodeSortedNumeric(data, meta *wire.Writer, ordinals cursor.Factory, opts Options) (*stats.Stats, error) {
	numOpts := opts.numericOptions()
	numOpts.Ordinal = false

	return encodeSortedNumeric(data, meta, ordinals, numOpts)
}

// encodeSortedNumeric is the SortedNumeric pipeline with explicit numeric
// options, shared with the multi-valued SortedSet path, which encodes
// ordinals.
func encodeSortedNumeric(data, meta *wire.Writer, ordinals cursor.Factory, numOpts numeric.Options) (*stats.Stats, error) {
	s, err := numeric.Encode(data, meta, ordinals, numOpts)
	if err != nil {
		return s, err
	}

	meta.Int32(int32(s.DocsWithValue))

	if s.NumValues > int64(s.DocsWithValue) {
		counts := perDocValueCounts(ordinals, s.DocsWithValue)
		addrData, addrMeta := monotonic.FromCumulative(counts)

		addrStart := data.Position()
		data.Raw(addrData)

		meta.Int64(addrStart)
		meta.Vint(0) // per-doc-count table is a single unblocked monotonic region
		addrMeta.WriteTo(meta)
		meta.Int64(int64(len(addrData)))
	}

	return s, nil
}

// EncodeSortedSet implements the SortedSet dispatcher (spec.md §4.5): a
// multiValued marker byte, then either the Sorted pipeline (values
// reduced to one per doc, the single-valued case where no reduction is
// actually needed since a restartable DocValues cursor never yields a
// doc with zero values) or the SortedNumeric pipeline, followed in
// either case by the term dictionary.
func EncodeSortedSet(data, meta *wire.Writer, ordinals cursor.Factory, terms cursor.Terms, opts Options) (*stats.Stats, error) {
	multiValued := isMultiValued(ordinals)

	if multiValued {
		meta.Int8(1)
		s, err := encodeSortedNumeric(data, meta, ordinals, opts.numericOptions())
		if err != nil {
			return s, err
		}

		if err := termdict.Encode(data, meta, terms, opts.termdictOptions()); err != nil {
			return s, err
		}

		return s, nil
	}

	meta.Int8(0)

	return EncodeSorted(data, meta, ordinals, terms, opts)
}

// isMultiValued scans ordinals once to check whether any document
// carries more than one value.
func isMultiValued(ordinals cursor.Factory) bool {
	c := ordinals.New()
	for {
		_, ok := c.NextDoc()
		if !ok {
			return false
		}
		if c.ValueCount() > 1 {
			return true
		}
		for i := 0; i < c.ValueCount(); i++ {
			c.NextValue()
		}
	}
}

// perDocValueCounts scans ordinals once more to record each
// value-bearing document's value count, in iteration order.
func perDocValueCounts(ordinals cursor.Factory, docsWithField int) []int64 {
	counts := make([]int64, 0, docsWithField)

	c := ordinals.New()
	for {
		_, ok := c.NextDoc()
		if !ok {
			break
		}

		n := c.ValueCount()
		counts = append(counts, int64(n))
		for i := 0; i < n; i++ {
			c.NextValue()
		}
	}

	return counts
}
