// Package binaryval implements the binary value encoder (spec.md
// §4.4): raw byte strings concatenated back-to-back in the data stream,
// addressed either by a fixed stride (when every value has the same
// length) or by a monotonic cumulative-offset table. Grounded on
// encoding/tag.go's length-prefixed byte writer
// (ByteBuffer/ExtendOrGrow/MustWrite), generalized from per-value
// varint framing to offset-table framing via the monotonic package.
//
// Supplemental feature: callers may plug in any compress.Codec to
// shrink large values before they are written. The default is
// compress.NewNoOpCompressor, under which every byte written is exactly
// the caller's input and the wire layout matches spec.md §4.4 precisely.
package binaryval

import (
	"github.com/dvwriter/dvcodec/compress"
	"github.com/dvwriter/dvcodec/cursor"
	"github.com/dvwriter/dvcodec/errs"
	"github.com/dvwriter/dvcodec/internal/wire"
	"github.com/dvwriter/dvcodec/monotonic"
	"github.com/dvwriter/dvcodec/presence"
)

// Options controls field-level behavior.
type Options struct {
	MaxDoc         int
	DenseRankPower uint8

	// Codec compresses each value before it is appended to data.
	// Defaults to compress.NewNoOpCompressor, which preserves the
	// specification's uncompressed byte layout exactly.
	Codec compress.Codec
}

// Encode writes one field's binary values to data and its descriptor to
// meta (spec.md §4.4, §6 "Binary payload").
func Encode(data, meta *wire.Writer, values cursor.BinaryFactory, opts Options) error {
	rankPower := opts.DenseRankPower
	if rankPower == 0 {
		rankPower = presence.DefaultDenseRankPower
	}

	codec := opts.Codec
	if codec == nil {
		codec = compress.NewNoOpCompressor()
	}

	presenceBuilder := presence.NewBuilder(opts.MaxDoc)

	dataOffset := data.Position()

	var lengths []int64
	docsWithField := 0
	var minLength, maxLength int64
	first := true

	c := values.New()
	for {
		docID, ok := c.NextDoc()
		if !ok {
			break
		}

		encoded, err := codec.Compress(c.Value())
		if err != nil {
			return errs.Wrapf(err, "binaryval: compress doc %d", docID)
		}

		data.Raw(encoded)
		if err := presenceBuilder.Set(docID); err != nil {
			return err
		}
		docsWithField++

		length := int64(len(encoded))
		lengths = append(lengths, length)
		if first {
			minLength, maxLength = length, length
			first = false
		} else {
			if length < minLength {
				minLength = length
			}
			if length > maxLength {
				maxLength = length
			}
		}
	}

	dataLength := data.Position() - dataOffset

	presenceData, desc := presenceBuilder.Finish(data.Position(), rankPower)
	if presenceData != nil {
		data.Raw(presenceData)
	}

	meta.Int64(dataOffset)
	meta.Int64(dataLength)
	meta.Int64(desc.DocsWithFieldOffset)
	meta.Int64(desc.DocsWithFieldLength)
	meta.Int16(desc.JumpTableEntryCount)
	meta.Int8(desc.DenseRankPower)
	meta.Int32(int32(docsWithField))
	meta.Int32(int32(minLength))
	meta.Int32(int32(maxLength))

	if maxLength > minLength {
		addrData, addrMeta := monotonic.FromCumulative(lengths)
		addrStart := data.Position()
		data.Raw(addrData)

		meta.Int64(addrStart)
		meta.Vint(0) // address table is a single unblocked monotonic region
		addrMeta.WriteTo(meta)
		meta.Int64(int64(len(addrData)))
	}

	return nil
}
