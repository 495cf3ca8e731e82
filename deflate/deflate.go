// Package deflate implements the codec.Encoder/codec.Decoder contract for
// raw DEFLATE (no zlib or gzip framing), backed by klauspost/compress/flate.
package deflate

import (
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/codec/internal/blocking"
)

// Level is re-exported so callers don't need to import codec directly.
type Level = codec.Level

const (
	minLevel = flate.HuffmanOnly
	maxLevel = flate.BestCompression
)

func resolveLevel(l Level) int {
	return l.Resolve(minLevel, flate.DefaultCompression, maxLevel)
}

// Encoder compresses into raw DEFLATE.
type Encoder struct {
	*blocking.EncodeAdapter
}

// NewEncoder creates an Encoder at the codec's default level.
func NewEncoder() *Encoder { return NewEncoderLevel(codec.DefaultLevel()) }

// NewEncoderLevel creates an Encoder at the given level.
func NewEncoderLevel(level Level) *Encoder {
	a := blocking.NewEncodeAdapter()
	fw, err := flate.NewWriter(a.Sink(), resolveLevel(level))
	if err != nil {
		// resolveLevel already clamps to flate's valid range; this path
		// should be unreachable, but fall back rather than panic.
		fw, _ = flate.NewWriter(a.Sink(), flate.DefaultCompression)
	}
	a.SetWriter(fw)
	return &Encoder{EncodeAdapter: a}
}

// Decoder decompresses raw DEFLATE.
type Decoder struct {
	*blocking.DecodeAdapter
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{DecodeAdapter: blocking.NewDecodeAdapter(func(r io.Reader) (io.Reader, error) {
		return flate.NewReader(r), nil
	})}
}

var _ codec.Encoder = (*Encoder)(nil)
var _ codec.Decoder = (*Decoder)(nil)
