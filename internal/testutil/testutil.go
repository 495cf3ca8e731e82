// Package testutil holds helpers shared by the property-based tests in
// every adapter and codec package: chunk partitioning (feeding a buffer
// through an adapter N bytes at a time, per spec §8's "chunk invariance"
// property) and a scripted reader/writer pair for probing the zero-progress
// and partial-I/O edge cases spec §9 calls out.
package testutil

import (
	"bytes"
	"errors"
	"io"

	"github.com/compression-driver/streamcodec/codec"
)

// Chunks splits p into pieces of at most size bytes, in order. size <= 0
// returns a single chunk. Used to drive a write.Encoder or bufread.Decoder
// through the same input at varying granularity.
func Chunks(p []byte, size int) [][]byte {
	if size <= 0 || len(p) == 0 {
		return [][]byte{p}
	}
	var out [][]byte
	for len(p) > 0 {
		n := size
		if n > len(p) {
			n = len(p)
		}
		out = append(out, p[:n])
		p = p[n:]
	}
	return out
}

// FlakyReader yields its underlying bytes at most step bytes at a time (a
// step of zero or less counts as one), to exercise codecs and adapters
// against a source that never hands over more than a tiny amount per call.
type FlakyReader struct {
	r    *bytes.Reader
	step int
}

// NewFlakyReader wraps p, serving at most step bytes per Read.
func NewFlakyReader(p []byte, step int) *FlakyReader {
	if step <= 0 {
		step = 1
	}
	return &FlakyReader{r: bytes.NewReader(p), step: step}
}

func (f *FlakyReader) Read(p []byte) (int, error) {
	if len(p) > f.step {
		p = p[:f.step]
	}
	return f.r.Read(p)
}

// ZeroProgressWriter always reports zero bytes written without error, to
// exercise the write-zero-is-fatal policy (spec §4.7, §9, codec.ErrWriteZero).
type ZeroProgressWriter struct{}

func (ZeroProgressWriter) Write(p []byte) (int, error) { return 0, nil }

// CountingWriter wraps a bytes.Buffer and records how many Write calls it
// received, for asserting an adapter coalesced small codec outputs instead
// of making one sink call per byte.
type CountingWriter struct {
	bytes.Buffer
	Calls int
}

func (w *CountingWriter) Write(p []byte) (int, error) {
	w.Calls++
	return w.Buffer.Write(p)
}

// RoundtripReader feeds a fixed byte slice through a codec.Decoder-style
// consumer chunkSize bytes at a time; used by chunk-stream tests that need
// a NextFunc.
func RoundtripReader(p []byte, chunkSize int) func() ([]byte, error) {
	chunks := Chunks(p, chunkSize)
	i := 0
	return func() ([]byte, error) {
		if i >= len(chunks) {
			return nil, io.EOF
		}
		c := chunks[i]
		i++
		return c, nil
	}
}

// IsInvalidData reports whether err wraps codec.ErrInvalidData.
func IsInvalidData(err error) bool { return errors.Is(err, codec.ErrInvalidData) }

// IsUnexpectedEOF reports whether err wraps codec.ErrUnexpectedEOF.
func IsUnexpectedEOF(err error) bool { return errors.Is(err, codec.ErrUnexpectedEOF) }
