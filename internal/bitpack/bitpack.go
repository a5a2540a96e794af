// Package bitpack implements the fixed-bit-width packed writer spec.md
// §1, §9 treats as an external primitive ("DirectWriter"). It
// accumulates unsigned integers of a declared bit width (0-64) into a
// tightly packed byte stream, least-significant-bit first (each value
// starts at the lowest free bit and bytes are emitted low byte first),
// mirroring the bit-buffer accumulator style of a
// Gorilla float encoder's bitBuf/bitCount fields.
package bitpack

import (
	"math/bits"

	"github.com/dvwriter/dvcodec/internal/pool"
)

// BitsRequired returns the number of bits needed to represent the
// unsigned range [0, max] (ceil(log2(max+1))), with BitsRequired(0) == 0
// since the constant-zero case needs no bits at all.
func BitsRequired(max uint64) int {
	if max == 0 {
		return 0
	}

	return bits.Len64(max)
}

// Writer packs successive fixed-width unsigned values into a byte
// buffer. Not safe for concurrent use; one Writer is used per numeric
// block or per address table, consistent with the single-consumer
// writer model of spec.md §5.
type Writer struct {
	buf      *pool.ByteBuffer
	bitBuf   uint64
	bitCount int
	width    int
	owned    bool
}

// NewWriter creates a packed writer for values of the given bit width.
// width must be in [0, 64]; width == 0 means every value is the
// constant 0 and Write becomes a no-op counting call.
func NewWriter(width int) *Writer {
	return &Writer{
		buf:   pool.GetScratchBuffer(),
		width: width,
		owned: true,
	}
}

// NewWriterInto packs into a caller-owned buffer instead of a pooled
// one, for callers (such as the numeric block encoder) that already
// manage their own scratch buffer lifecycle.
func NewWriterInto(buf *pool.ByteBuffer, width int) *Writer {
	return &Writer{buf: buf, width: width}
}

// Write appends a single width-bit value. The caller must ensure val
// fits in width bits; values are masked defensively but a mismatch
// indicates a caller bug upstream (statistics computed the wrong width).
func (w *Writer) Write(val uint64) {
	if w.width == 0 {
		return
	}

	width := w.width
	if width < 64 {
		val &= (uint64(1) << uint(width)) - 1
	}

	// bitCount is always in [0,7] on entry (the flush loop below keeps
	// it there), so free is in [57,64]. A width up to 64 can still
	// exceed free: OR-ing the whole value in at once would shift bits
	// of val past bit 63 of the uint64 accumulator and lose them. Drain
	// the bits that fit, flush the now-complete bytes, then place what
	// remains into the freshly emptied accumulator.
	if free := 64 - w.bitCount; width > free {
		w.bitBuf |= (val & ((uint64(1) << uint(free)) - 1)) << uint(w.bitCount)
		w.bitCount = 64
		val >>= uint(free)
		width -= free

		for w.bitCount >= 8 {
			w.buf.MustWrite([]byte{byte(w.bitBuf)})
			w.bitBuf >>= 8
			w.bitCount -= 8
		}
	}

	w.bitBuf |= val << uint(w.bitCount)
	w.bitCount += width

	for w.bitCount >= 8 {
		w.buf.MustWrite([]byte{byte(w.bitBuf)})
		w.bitBuf >>= 8
		w.bitCount -= 8
	}
}

// WriteSlice packs a slice of values in order.
func (w *Writer) WriteSlice(vals []uint64) {
	for _, v := range vals {
		w.Write(v)
	}
}

// Flush pads the final partial byte with zero bits and returns the
// packed byte slice. The Writer must not be reused after Flush unless
// Reset is called.
func (w *Writer) Flush() []byte {
	if w.bitCount > 0 {
		w.buf.MustWrite([]byte{byte(w.bitBuf)})
		w.bitBuf = 0
		w.bitCount = 0
	}

	return w.buf.Bytes()
}

// Len returns the number of bytes written so far, including any
// buffered partial byte were Flush called now.
func (w *Writer) Len() int {
	extra := 0
	if w.bitCount > 0 {
		extra = 1
	}

	return w.buf.Len() + extra
}

// Reset clears the writer for reuse with a (possibly different) width,
// consistent with spec.md §5's buffer-reuse-across-fields requirement.
func (w *Writer) Reset(width int) {
	w.buf.Reset()
	w.bitBuf = 0
	w.bitCount = 0
	w.width = width
}

// Release returns the pooled backing buffer. No-op for writers created
// with NewWriterInto, since those buffers are caller-owned.
func (w *Writer) Release() {
	if w.owned {
		pool.PutScratchBuffer(w.buf)
		w.buf = nil
	}
}
