// Package wire is the thin append-only framing layer both the data and
// metadata streams are built on (spec.md §3 "Output streams", §6
// "Endianness"). Fixed-width integers use the framing engine's
// canonical big-endian encoding (endian.GetBigEndianEngine); vint/vlong
// use the standard 7-bit continuation varint encoding, grounded on
// encoding/ts_delta.go's binary.PutUvarint usage.
package wire

import (
	"encoding/binary"

	"github.com/dvwriter/dvcodec/endian"
	"github.com/dvwriter/dvcodec/internal/pool"
)

// Writer appends framed bytes to a pooled, growable buffer, tracking
// its own logical position so callers can record offsets into meta
// before the corresponding data bytes are written (spec.md §9,
// "Ordering of meta vs data offsets").
type Writer struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
	scratch [binary.MaxVarintLen64]byte
}

// NewWriter wraps buf. buf is not owned by the Writer: callers are
// responsible for returning it to its pool.
func NewWriter(buf *pool.ByteBuffer) *Writer {
	return &Writer{buf: buf, engine: endian.GetBigEndianEngine()}
}

// Position returns the number of bytes written so far, i.e. the offset
// the next write will land at.
func (w *Writer) Position() int64 {
	return int64(w.buf.Len())
}

// Bytes returns the accumulated buffer contents.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Raw appends b unchanged.
func (w *Writer) Raw(b []byte) {
	w.buf.MustWrite(b)
}

// Int8 appends a single signed byte.
func (w *Writer) Int8(v int8) {
	w.buf.MustWrite([]byte{byte(v)})
}

// Uint8 appends a single unsigned byte.
func (w *Writer) Uint8(v uint8) {
	w.buf.MustWrite([]byte{v})
}

// Int16 appends a big-endian 16-bit signed integer.
func (w *Writer) Int16(v int16) {
	w.buf.B = w.engine.AppendUint16(w.buf.B, uint16(v))
}

// Int32 appends a big-endian 32-bit signed integer.
func (w *Writer) Int32(v int32) {
	w.buf.B = w.engine.AppendUint32(w.buf.B, uint32(v))
}

// Int64 appends a big-endian 64-bit signed integer.
func (w *Writer) Int64(v int64) {
	w.buf.B = w.engine.AppendUint64(w.buf.B, uint64(v))
}

// Vint appends v using unsigned 7-bit-continuation varint encoding.
// Used for values that are always non-negative (term counts, prefix and
// suffix length overflow fields).
func (w *Writer) Vint(v uint64) {
	n := binary.PutUvarint(w.scratch[:], v)
	w.buf.MustWrite(w.scratch[:n])
}

// Vlong is an alias for Vint kept for call sites that write
// spec.md-named "vlong" fields (termCount); the wire encoding is
// identical, only the field's semantic width differs.
func (w *Writer) Vlong(v uint64) {
	w.Vint(v)
}
