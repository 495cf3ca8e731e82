// Package codec fixes the behavioral contract that the streaming driver
// needs from a compression algorithm: a stateful byte-to-byte transformer
// that consumes input into output in bounded increments and exposes
// flush/finish/reinit operations over partialbuf.Buffer cursors.
//
// Concrete codec implementations (gzip, zstd, lz4, ...) live in their own
// packages and are external collaborators from the driver's point of view;
// this package only fixes the shape they must have.
package codec

import (
	"errors"
	"fmt"

	"github.com/compression-driver/streamcodec/partialbuf"
)

// Encoder consumes uncompressed bytes and produces compressed bytes.
type Encoder interface {
	// Encode consumes as much of in.Unwritten as possible into
	// out.UnwrittenMut, advancing both. It must make progress whenever both
	// are non-empty, unless the codec has reached an internal stall that
	// requires Flush or Finish. Encode never signals end-of-stream.
	Encode(in, out *partialbuf.Buffer) error

	// Flush drains any deferred output into out. The returned bool is true
	// iff all internal output has been produced and the codec would not
	// emit more without new input.
	Flush(out *partialbuf.Buffer) (bool, error)

	// Finish is like Flush but additionally writes the stream terminator.
	// The returned bool is true iff the terminator has been fully emitted;
	// Finish may need several calls when out is small.
	Finish(out *partialbuf.Buffer) (bool, error)
}

// Decoder consumes compressed bytes and produces uncompressed bytes.
type Decoder interface {
	// Decode consumes in into out. The returned bool is true iff the
	// current member has ended (the codec saw the footer or the logical
	// end-of-stream token).
	Decode(in, out *partialbuf.Buffer) (bool, error)

	// Flush emits buffered decoded data. True iff internal output is
	// drained.
	Flush(out *partialbuf.Buffer) (bool, error)

	// Finish asserts end-of-input; it fails if the codec is mid-token.
	Finish(out *partialbuf.Buffer) (bool, error)

	// Reinit returns the codec to its fresh state so the same instance can
	// drive the next member of a multi-member stream. Permitted only after
	// Decode has returned true.
	Reinit() error
}

// Level selects a compression level in a codec-independent way; each codec
// package maps it onto its own native scale.
type Level struct {
	kind    levelKind
	precise uint32
}

type levelKind int

const (
	levelDefault levelKind = iota
	levelFastest
	levelBest
	levelPrecise
)

// Fastest maps to the codec's minimum compression / maximum speed.
func Fastest() Level { return Level{kind: levelFastest} }

// Best maps to the codec's maximum compression.
func Best() Level { return Level{kind: levelBest} }

// DefaultLevel maps to the codec's own default.
func DefaultLevel() Level { return Level{kind: levelDefault} }

// Precise requests a specific numeric level; codecs clamp it to their own
// [min, max] range.
func Precise(n uint32) Level { return Level{kind: levelPrecise, precise: n} }

// Resolve maps the abstract level onto a concrete [min, max, default] scale,
// clamping Precise values.
func (l Level) Resolve(min, def, max int) int {
	switch l.kind {
	case levelFastest:
		return min
	case levelBest:
		return max
	case levelPrecise:
		n := int(l.precise)
		if n < min {
			return min
		}
		if n > max {
			return max
		}
		return n
	default:
		return def
	}
}

// Error kinds from spec §7. Concrete codecs should wrap one of these with
// fmt.Errorf("%w: ...", ...) so callers can use errors.Is against them.
var (
	// ErrInvalidData indicates a format violation: a bad header, an
	// impossible code length, a checksum mismatch.
	ErrInvalidData = errors.New("codec: invalid data")

	// ErrUnexpectedEOF indicates input ended mid-token.
	ErrUnexpectedEOF = errors.New("codec: unexpected end of input")

	// ErrOutOfMemory indicates a memory-bounded codec (e.g. xz) hit its
	// resource limit.
	ErrOutOfMemory = errors.New("codec: out of memory")

	// ErrWriteZero is the write-zero format error a zero-progress sink is
	// converted into, per spec §4.7 and the zero-progress-sink testable
	// property.
	ErrWriteZero = errors.New("codec: sink accepted zero bytes")

	// ErrMisuse indicates a driver operation invoked after Done in a way
	// the contract forbids. It never originates from I/O or codec state;
	// broken buffer invariants panic instead (see package partialbuf).
	ErrMisuse = errors.New("codec: invalid operation for current state")
)

// Invalid wraps err (or a new message) as ErrInvalidData.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidData}, args...)...)
}
