// Package compress provides the compression codecs used for doc-values
// payloads: NoOp, LZ4 (plain and preset-dictionary), S2, and Zstd.
//
// Compression is applied after encoding, as an optional second stage on
// top of bit-packing and front-coding. Every binary field value is
// passed through binaryval's configured Codec; the term
// dictionary's blocks use lz4dict's DictCompressor, since a shared
// preset dictionary amortizes LZ4's window warm-up across small blocks.
package compress
