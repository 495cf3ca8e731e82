// Package lz4 implements the codec.Encoder/codec.Decoder contract for the
// LZ4 frame format, backed by github.com/pierrec/lz4/v4.
//
// The teacher (a cgo binding straight onto liblz4's block API) has no
// streaming frame writer of its own — NewWriter there wraps an io.Writer
// and manages its own ring of two compression buffers by hand. pierrec's
// pure-Go Writer already does that bookkeeping, so this package exposes an
// Encoder/Decoder pair rather than a Writer of its own and leaves the
// actual block framing to pierrec/lz4/v4, bridged through the same
// blocking adapter every other codec here uses. The sink-buffer half of
// that bridge is grounded directly on aistore's
// lz4Stream, which points a v3 lz4.Writer at a scatter-gather buffer it
// then drains on its own schedule — the same shape as EncodeAdapter.Sink.
package lz4

import (
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/codec/internal/blocking"
)

// Level is re-exported so callers don't need to import codec directly.
type Level = codec.Level

func resolveCompressionLevel(l Level) lz4.CompressionLevel {
	switch l.Resolve(int(lz4.Fast), int(lz4.Level5), int(lz4.Level9)) {
	case int(lz4.Level9):
		return lz4.Level9
	case int(lz4.Fast):
		return lz4.Fast
	default:
		return lz4.Level5
	}
}

// Encoder compresses into an LZ4 frame.
type Encoder struct {
	*blocking.EncodeAdapter
}

// NewEncoder creates an Encoder at the codec's default level.
func NewEncoder() *Encoder { return NewEncoderLevel(codec.DefaultLevel()) }

// NewEncoderLevel creates an Encoder at the given level.
func NewEncoderLevel(level Level) *Encoder {
	a := blocking.NewEncodeAdapter()
	zw := lz4.NewWriter(a.Sink())
	_ = zw.Apply(
		lz4.CompressionLevelOption(resolveCompressionLevel(level)),
		lz4.BlockSizeOption(lz4.Block64Kb),
	)
	a.SetWriter(zw)
	return &Encoder{EncodeAdapter: a}
}

// Decoder decompresses an LZ4 frame.
type Decoder struct {
	*blocking.DecodeAdapter
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{DecodeAdapter: blocking.NewDecodeAdapter(func(r io.Reader) (io.Reader, error) {
		return lz4.NewReader(r), nil
	})}
}

var _ codec.Encoder = (*Encoder)(nil)
var _ codec.Decoder = (*Decoder)(nil)
