// Package zlib implements the codec.Encoder/codec.Decoder contract for
// RFC1950 zlib framing (a 2-byte header, a raw DEFLATE body, a 4-byte
// Adler-32 footer), all three handled by the standard library's
// compress/zlib rather than by package deflate's body.
//
// None of the pack's third-party compression libraries ship a zlib
// implementation of their own (klauspost/compress stops at flate, gzip and
// zstd); the standard library's compress/zlib is the idiomatic choice here,
// and its Writer/Reader already implement the same trio deflate.Encoder and
// deflate.Decoder are built on.
package zlib

import (
	"io"
	stdzlib "compress/zlib"

	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/codec/internal/blocking"
)

// Level is re-exported so callers don't need to import codec directly.
type Level = codec.Level

const (
	minLevel = stdzlib.HuffmanOnly
	maxLevel = stdzlib.BestCompression
)

func resolveLevel(l Level) int {
	return l.Resolve(minLevel, stdzlib.DefaultCompression, maxLevel)
}

// Encoder compresses into zlib-framed DEFLATE. zlib has no multi-member
// concept; Encoder never needs Reinit.
type Encoder struct {
	*blocking.EncodeAdapter
}

// NewEncoder creates an Encoder at the codec's default level.
func NewEncoder() *Encoder { return NewEncoderLevel(codec.DefaultLevel()) }

// NewEncoderLevel creates an Encoder at the given level.
func NewEncoderLevel(level Level) *Encoder {
	a := blocking.NewEncodeAdapter()
	zw, err := stdzlib.NewWriterLevel(a.Sink(), resolveLevel(level))
	if err != nil {
		zw, _ = stdzlib.NewWriterLevel(a.Sink(), stdzlib.DefaultCompression)
	}
	a.SetWriter(zw)
	return &Encoder{EncodeAdapter: a}
}

// Decoder decompresses zlib-framed DEFLATE, validating the Adler-32 trailer.
type Decoder struct {
	*blocking.DecodeAdapter
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{DecodeAdapter: blocking.NewDecodeAdapter(func(r io.Reader) (io.Reader, error) {
		zr, err := stdzlib.NewReader(r)
		if err != nil {
			return nil, codec.Invalid("zlib: %v", err)
		}
		return zr, nil
	})}
}

var _ codec.Encoder = (*Encoder)(nil)
var _ codec.Decoder = (*Decoder)(nil)
