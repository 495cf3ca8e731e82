// Package zstd implements the codec.Encoder/codec.Decoder contract for
// zstd, backed by github.com/klauspost/compress/zstd. The encoder/decoder
// option idiom (WithEncoderLevel, WithDecoderConcurrency) is copied
// directly from SnellerInc-sneller's compr package.
package zstd

import (
	"io"
	"runtime"

	"github.com/klauspost/compress/zstd"

	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/codec/internal/blocking"
)

// Level is re-exported so callers don't need to import codec directly.
type Level = codec.Level

func resolveEncoderLevel(l Level) zstd.EncoderLevel {
	switch l.Resolve(int(zstd.SpeedFastest), int(zstd.SpeedDefault), int(zstd.SpeedBestCompression)) {
	case int(zstd.SpeedFastest):
		return zstd.SpeedFastest
	case int(zstd.SpeedBestCompression):
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

// Encoder compresses into a zstd frame.
type Encoder struct {
	*blocking.EncodeAdapter
}

// NewEncoder creates an Encoder at the codec's default level.
func NewEncoder() *Encoder { return NewEncoderLevel(codec.DefaultLevel()) }

// NewEncoderLevel creates an Encoder at the given level.
func NewEncoderLevel(level Level) *Encoder {
	a := blocking.NewEncodeAdapter()
	zw, err := zstd.NewWriter(a.Sink(), zstd.WithEncoderLevel(resolveEncoderLevel(level)))
	if err != nil {
		zw, _ = zstd.NewWriter(a.Sink())
	}
	a.SetWriter(zw)
	return &Encoder{EncodeAdapter: a}
}

// Decoder decompresses a zstd frame.
type Decoder struct {
	*blocking.DecodeAdapter
}

// NewDecoder creates a Decoder using GOMAXPROCS decoder concurrency, as
// sneller's global decoder does.
func NewDecoder() *Decoder {
	concurrency := runtime.GOMAXPROCS(0)
	return &Decoder{DecodeAdapter: blocking.NewDecodeAdapter(func(r io.Reader) (io.Reader, error) {
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(concurrency))
		if err != nil {
			return nil, codec.Invalid("zstd: %v", err)
		}
		return zr, nil
	})}
}

var _ codec.Encoder = (*Encoder)(nil)
var _ codec.Decoder = (*Decoder)(nil)
