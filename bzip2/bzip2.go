// Package bzip2 implements the codec.Encoder/codec.Decoder contract for
// bzip2, backed by github.com/dsnet/compress/bzip2 — the only library in
// the retrieval pack that can write bzip2 as well as read it; the standard
// library's compress/bzip2 is decode-only, which would leave half this
// package unimplementable.
package bzip2

import (
	"io"

	"github.com/dsnet/compress/bzip2"

	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/codec/internal/blocking"
)

// Level is re-exported so callers don't need to import codec directly.
type Level = codec.Level

const (
	minLevel = bzip2.BestSpeed
	maxLevel = bzip2.BestCompression
)

func resolveLevel(l Level) int {
	return l.Resolve(minLevel, bzip2.DefaultCompression, maxLevel)
}

// flushNopWriteCloser adapts dsnet/compress/bzip2.Writer, which has no
// Flush of its own, onto blocking.FlushWriteCloser. bzip2 is block-at-a-time
// and has no concept of flushing a partial block early, so Flush here is a
// deliberate no-op: the codec.Encoder.Flush contract only promises to drain
// whatever output already exists, and a no-op Flush is correct when nothing
// new is produced by it.
type flushNopWriteCloser struct {
	*bzip2.Writer
}

func (flushNopWriteCloser) Flush() error { return nil }

// Encoder compresses into a bzip2 stream.
type Encoder struct {
	*blocking.EncodeAdapter
}

// NewEncoder creates an Encoder at the codec's default level.
func NewEncoder() *Encoder { return NewEncoderLevel(codec.DefaultLevel()) }

// NewEncoderLevel creates an Encoder at the given level.
func NewEncoderLevel(level Level) *Encoder {
	a := blocking.NewEncodeAdapter()
	bw, err := bzip2.NewWriter(a.Sink(), &bzip2.WriterConfig{Level: resolveLevel(level)})
	if err != nil {
		bw, _ = bzip2.NewWriter(a.Sink(), nil)
	}
	a.SetWriter(flushNopWriteCloser{bw})
	return &Encoder{EncodeAdapter: a}
}

// Decoder decompresses a bzip2 stream.
type Decoder struct {
	*blocking.DecodeAdapter
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{DecodeAdapter: blocking.NewDecodeAdapter(func(r io.Reader) (io.Reader, error) {
		br, err := bzip2.NewReader(r, nil)
		if err != nil {
			return nil, codec.Invalid("bzip2: %v", err)
		}
		return br, nil
	})}
}

var _ codec.Encoder = (*Encoder)(nil)
var _ codec.Decoder = (*Decoder)(nil)
