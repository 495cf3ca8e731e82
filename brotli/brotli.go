// Package brotli implements the codec.Encoder/codec.Decoder contract for
// brotli, backed by github.com/andybalholm/brotli (referenced transitively
// by the aistore and datadog-agent manifests in the retrieval pack).
package brotli

import (
	"io"

	"github.com/andybalholm/brotli"

	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/codec/internal/blocking"
)

// Level is re-exported so callers don't need to import codec directly.
type Level = codec.Level

const (
	minLevel = brotli.BestSpeed
	maxLevel = brotli.BestCompression
)

func resolveLevel(l Level) int {
	return l.Resolve(minLevel, brotli.DefaultCompression, maxLevel)
}

// Encoder compresses into a brotli stream.
type Encoder struct {
	*blocking.EncodeAdapter
}

// NewEncoder creates an Encoder at the codec's default level.
func NewEncoder() *Encoder { return NewEncoderLevel(codec.DefaultLevel()) }

// NewEncoderLevel creates an Encoder at the given level.
func NewEncoderLevel(level Level) *Encoder {
	a := blocking.NewEncodeAdapter()
	bw := brotli.NewWriterLevel(a.Sink(), resolveLevel(level))
	a.SetWriter(bw)
	return &Encoder{EncodeAdapter: a}
}

// Decoder decompresses a brotli stream. andybalholm/brotli's Reader has no
// Reset method, which is fine: Reinit always builds a fresh reader rather
// than resetting an existing one (see codec/internal/blocking).
type Decoder struct {
	*blocking.DecodeAdapter
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{DecodeAdapter: blocking.NewDecodeAdapter(func(r io.Reader) (io.Reader, error) {
		return brotli.NewReader(r), nil
	})}
}

var _ codec.Encoder = (*Encoder)(nil)
var _ codec.Decoder = (*Decoder)(nil)
