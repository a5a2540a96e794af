// Package dvcodec is the segment-level write path for the columnar
// doc-values codec (spec.md §1–§3): given per-field cursors from the
// indexing pipeline, Writer emits the data and metadata byte streams
// the companion reader later decodes.
//
// Grounded on a top-level convenience wrapper shape and, for the
// per-field open/close bookkeeping, a NumericEncoder-style lifecycle
// (StartMetricID/EndMetric guarding a single in-progress metric at a
// time). Generalized here from a single metric-encoding shape to the
// specification's five field types, dispatched to the numeric,
// binaryval, and sortedfield packages.
package dvcodec

import (
	"github.com/dvwriter/dvcodec/binaryval"
	"github.com/dvwriter/dvcodec/compress"
	"github.com/dvwriter/dvcodec/cursor"
	"github.com/dvwriter/dvcodec/errs"
	"github.com/dvwriter/dvcodec/format"
	"github.com/dvwriter/dvcodec/internal/options"
	"github.com/dvwriter/dvcodec/internal/pool"
	"github.com/dvwriter/dvcodec/internal/wire"
	"github.com/dvwriter/dvcodec/numeric"
	"github.com/dvwriter/dvcodec/sortedfield"
)

// Option configures a Writer at construction time, built on
// internal/options' generic functional-options pattern.
type Option = options.Option[*Writer]

type writerConfig struct {
	blockShift        int
	reverseIndexShift int
	denseRankPower    uint8
	binaryCodec       compress.Codec
}

// WithDenseRankPower overrides the presence bitmap's rank jump-table
// granularity (spec.md §4.3). Zero (the default) selects
// format.DefaultDenseRankPower.
func WithDenseRankPower(power uint8) Option {
	return options.NoError[*Writer](func(w *Writer) { w.cfg.denseRankPower = power })
}

// WithTermsDictBlockShift overrides log2 of the number of terms per
// LZ4-compressed term-dictionary block (spec.md §4.6). Zero selects
// format.TermsDictBlockLZ4Shift.
func WithTermsDictBlockShift(shift int) Option {
	return options.NoError[*Writer](func(w *Writer) { w.cfg.blockShift = shift })
}

// WithTermsDictReverseIndexShift overrides log2 of the number of terms
// per reverse sort-key index group (spec.md §4.8). Zero selects
// format.TermsDictReverseIndexShift.
func WithTermsDictReverseIndexShift(shift int) Option {
	return options.NoError[*Writer](func(w *Writer) { w.cfg.reverseIndexShift = shift })
}

// WithBinaryCodec configures the compressor applied to each document's
// value before it is appended to the Binary field's data region
// (SPEC_FULL.md "Supplemental feature: compressed large binary
// values"). Nil (the default) selects compress.NewNoOpCompressor,
// reproducing spec.md §4.4's exact uncompressed byte layout.
func WithBinaryCodec(codec compress.Codec) Option {
	return options.NoError[*Writer](func(w *Writer) { w.cfg.binaryCodec = codec })
}

// Writer is the segment-level entry point (spec.md §3 "Lifecycle"): it
// is created once per segment, accepts one call per field in the
// caller's chosen order, then is closed. It is not safe for concurrent
// use (spec.md §5: writers are single-consumer per field).
type Writer struct {
	maxDoc int
	cfg    writerConfig

	dataBuf *pool.ByteBuffer
	metaBuf *pool.ByteBuffer
	data    *wire.Writer
	meta    *wire.Writer

	fieldOpen bool
	closed    bool
	failed    error
}

// NewWriter creates a Writer for a segment of maxDoc documents.
func NewWriter(maxDoc int, opts ...Option) (*Writer, error) {
	w := &Writer{maxDoc: maxDoc}

	if err := options.Apply[*Writer](w, opts...); err != nil {
		return nil, errs.Wrap(err, "dvcodec: applying options")
	}

	w.dataBuf = pool.GetDataBuffer()
	w.metaBuf = pool.GetScratchBuffer()
	w.data = wire.NewWriter(w.dataBuf)
	w.meta = wire.NewWriter(w.metaBuf)

	return w, nil
}

func (w *Writer) rankPower() uint8 {
	if w.cfg.denseRankPower != 0 {
		return w.cfg.denseRankPower
	}

	return format.DefaultDenseRankPower
}

func (w *Writer) numericOptions(ordinal bool) numeric.Options {
	return numeric.Options{
		MaxDoc:         w.maxDoc,
		Ordinal:        ordinal,
		DenseRankPower: w.rankPower(),
	}
}

func (w *Writer) sortedfieldOptions() sortedfield.Options {
	return sortedfield.Options{
		MaxDoc:                     w.maxDoc,
		DenseRankPower:             w.rankPower(),
		TermsDictBlockShift:        w.cfg.blockShift,
		TermsDictReverseIndexShift: w.cfg.reverseIndexShift,
	}
}

func (w *Writer) binaryOptions() binaryval.Options {
	return binaryval.Options{
		MaxDoc:         w.maxDoc,
		DenseRankPower: w.rankPower(),
		Codec:          w.cfg.binaryCodec,
	}
}

// start validates and opens a field, writing the shared field header
// (field number, type tag) to meta (spec.md §6 "Metadata stream
// layout"). Mirrors blob/numeric_encoder.go's StartMetricID guard
// against starting a field while another is open, generalized here
// across all five field kinds instead of one metric shape.
func (w *Writer) start(fieldNumber int32, dvType format.DocValuesType) error {
	if w.failed != nil {
		return errs.Wrap(w.failed, "dvcodec: writer invalidated by a prior field failure")
	}
	if w.closed {
		return errs.ErrWriterClosed
	}
	if fieldNumber < 0 {
		return errs.ErrInvalidFieldNumber
	}
	if w.fieldOpen {
		return errs.ErrFieldAlreadyStarted
	}

	w.fieldOpen = true
	w.meta.Int32(fieldNumber)
	w.meta.Int8(int8(dvType))

	return nil
}

// end closes the currently open field. err, if non-nil, poisons the
// writer: spec.md §7 "There is no partial-field recovery: a failure
// while writing a field invalidates the entire segment."
func (w *Writer) end(err error) error {
	if !w.fieldOpen {
		return errs.ErrNoFieldStarted
	}

	w.fieldOpen = false
	if err != nil {
		w.failed = err
		w.releaseBuffers()

		return err
	}

	return nil
}

// WriteNumericField encodes a Numeric field (spec.md §4.2) from values.
func (w *Writer) WriteNumericField(fieldNumber int32, values cursor.Factory) error {
	if err := w.start(fieldNumber, format.NumericType); err != nil {
		return err
	}

	_, err := numeric.Encode(w.data, w.meta, values, w.numericOptions(false))

	return w.end(err)
}

// WriteBinaryField encodes a Binary field (spec.md §4.4) from values.
func (w *Writer) WriteBinaryField(fieldNumber int32, values cursor.BinaryFactory) error {
	if err := w.start(fieldNumber, format.BinaryType); err != nil {
		return err
	}

	err := binaryval.Encode(w.data, w.meta, values, w.binaryOptions())

	return w.end(err)
}

// WriteSortedField encodes a Sorted field (spec.md §4.5) from ordinals
// and the distinct sorted term set terms yields.
func (w *Writer) WriteSortedField(fieldNumber int32, ordinals cursor.Factory, terms cursor.Terms) error {
	if err := w.start(fieldNumber, format.SortedType); err != nil {
		return err
	}

	_, err := sortedfield.EncodeSorted(w.data, w.meta, ordinals, terms, w.sortedfieldOptions())

	return w.end(err)
}

// WriteSortedNumericField encodes a SortedNumeric field (spec.md §4.7)
// from ordinals, a cursor of arbitrary 64-bit integers that may carry
// zero or more values per document.
func (w *Writer) WriteSortedNumericField(fieldNumber int32, ordinals cursor.Factory) error {
	if err := w.start(fieldNumber, format.SortedNumericType); err != nil {
		return err
	}

	_, err := sortedfield.EncodeSortedNumeric(w.data, w.meta, ordinals, w.sortedfieldOptions())

	return w.end(err)
}

// WriteSortedSetField encodes a SortedSet field (spec.md §4.5, §4.7)
// from ordinals and the distinct sorted term set terms yields.
func (w *Writer) WriteSortedSetField(fieldNumber int32, ordinals cursor.Factory, terms cursor.Terms) error {
	if err := w.start(fieldNumber, format.SortedSetType); err != nil {
		return err
	}

	_, err := sortedfield.EncodeSortedSet(w.data, w.meta, ordinals, terms, w.sortedfieldOptions())

	return w.end(err)
}

// Close finalizes the segment: it writes the metadata sentinel
// (spec.md §3, field_number == -1) and marks the writer closed.
// Close is idempotent-unsafe by design (spec.md has no reopen path);
// calling it twice returns errs.ErrWriterClosed. A failure on any
// previously written field leaves Close returning that failure without
// writing the sentinel, since such a segment is never valid (spec.md
// §7 "a failure while writing a field invalidates the entire segment").
func (w *Writer) Close() error {
	if w.failed != nil {
		return errs.Wrap(w.failed, "dvcodec: closing a writer invalidated by a prior field failure")
	}
	if w.closed {
		return errs.ErrWriterClosed
	}
	if w.fieldOpen {
		err := errs.Wrap(errs.ErrFieldAlreadyStarted, "dvcodec: Close called with a field still open")
		w.failed = err
		w.releaseBuffers()

		return err
	}

	w.meta.Int32(format.FieldSentinel)
	w.closed = true

	return nil
}

// Data returns the accumulated data-stream bytes. Valid after Close;
// the external framing utility (spec.md §1, §6) is responsible for the
// surrounding header/trailer and checksum.
func (w *Writer) Data() []byte { return w.data.Bytes() }

// Meta returns the accumulated metadata-stream bytes, terminated by the
// field sentinel once Close has succeeded.
func (w *Writer) Meta() []byte { return w.meta.Bytes() }

// Release returns the writer's internal buffers to their pools
// (spec.md §5 "Shared resources"). Callers should call Release once
// Data()/Meta()'s bytes have been copied out or written downstream;
// Release is automatic on any field failure or a failed Close.
func (w *Writer) Release() {
	w.releaseBuffers()
}

func (w *Writer) releaseBuffers() {
	if w.dataBuf != nil {
		pool.PutDataBuffer(w.dataBuf)
		w.dataBuf = nil
	}
	if w.metaBuf != nil {
		pool.PutScratchBuffer(w.metaBuf)
		w.metaBuf = nil
	}
}
