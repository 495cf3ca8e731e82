// Package xz implements the codec.Encoder/codec.Decoder contract for the xz
// container format, backed by github.com/ulikunitz/xz.
//
// Multi-member detection is only partially owned by this package: once a
// member's body has been fully read, the xz file format allows the next
// member to be preceded by zero-or-more groups of 4 zero-valued padding
// bytes, and this package validates that alignment byte-by-byte before
// handing off to a fresh ulikunitz/xz.Reader for the next member. What it
// does NOT replicate is ulikunitz/xz's own internal block/index parsing: if
// that library's buffered Reader reads ahead past the true end of a member
// (which a greedy bufio-style reader legitimately can), bytes belonging to
// the padding or the next member can already have been consumed by the
// time Decode observes "member done". This is the same limitation
// documented for xz in the design notes: true member-boundary precision
// would require reimplementing the format's index/footer parsing, which
// ulikunitz/xz does not expose incrementally.
package xz

import (
	"io"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/codec/internal/blocking"
	"github.com/compression-driver/streamcodec/partialbuf"
)

// decoderDictCap bounds the LZMA2 dictionary ulikunitz/xz will allocate to
// decode a member. It is set above the largest dictionary this package's own
// Encoder ever requests (1 << 26, at Best), so every stream this package
// produces decodes cleanly, while a crafted or corrupt member declaring a
// far larger dictionary is rejected instead of driving an unbounded
// allocation.
const decoderDictCap = 1 << 27

// Level is re-exported so callers don't need to import codec directly.
type Level = codec.Level

// flushNopWriteCloser adapts xz.Writer onto blocking.FlushWriteCloser. The
// xz/LZMA2 chunk format has no notion of flushing output early the way
// DEFLATE does, so Flush is a deliberate no-op here, the same choice made
// for bzip2.
type flushNopWriteCloser struct {
	*xz.Writer
}

func (flushNopWriteCloser) Flush() error { return nil }

// Encoder compresses into an xz stream.
type Encoder struct {
	*blocking.EncodeAdapter
}

// NewEncoder creates an Encoder. ulikunitz/xz does not expose a numeric
// compression-level knob on its writer config beyond preset dictionary
// sizing, so Level only selects between its default and a larger
// dictionary at Best.
func NewEncoder() *Encoder { return NewEncoderLevel(codec.DefaultLevel()) }

// NewEncoderLevel creates an Encoder at the given level.
func NewEncoderLevel(level Level) *Encoder {
	a := blocking.NewEncodeAdapter()
	cfg := xz.WriterConfig{}
	if level.Resolve(0, 1, 2) == 2 {
		cfg.DictCap = 1 << 26
	}
	zw, err := cfg.NewWriter(a.Sink())
	if err != nil {
		zw, _ = xz.NewWriter(a.Sink())
	}
	a.SetWriter(flushNopWriteCloser{zw})
	return &Encoder{EncodeAdapter: a}
}

// Decoder decompresses one or more concatenated xz members, validating the
// 4-byte-multiple zero padding rule between members.
type Decoder struct {
	stage       decStage
	body        *blocking.DecodeAdapter
	padInRun    int  // zero bytes consumed since the last 4-byte boundary, 0..3
	bodyTouched bool // a member has been attempted since the last Reinit
}

type decStage int

const (
	stageBody decStage = iota
	stagePad
	stageMemberEnd
)

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{body: newBodyAdapter()}
}

func newBodyAdapter() *blocking.DecodeAdapter {
	return blocking.NewDecodeAdapter(func(r io.Reader) (io.Reader, error) {
		cfg := xz.ReaderConfig{DictCap: decoderDictCap}
		zr, err := cfg.NewReader(r)
		if err != nil {
			if isDictCapExceeded(err) {
				return nil, codec.ErrOutOfMemory
			}
			return nil, codec.Invalid("xz: %v", err)
		}
		return zr, nil
	})
}

// isDictCapExceeded recognizes ulikunitz/xz's dictionary-capacity rejection.
// The library does not export a sentinel for this condition (unlike, say,
// xi2/xz's ErrMemlimit), so this matches on the wording its LZMA2 filter
// decoder uses when a member's declared dictionary size exceeds
// ReaderConfig.DictCap. A library upgrade that rewords the message would
// fall back to the generic codec.Invalid path rather than codec.ErrOutOfMemory.
func isDictCapExceeded(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "dict") && strings.Contains(msg, "cap")
}

// Decode drives the body reader to member end, then consumes and validates
// inter-member padding.
func (d *Decoder) Decode(in, out *partialbuf.Buffer) (bool, error) {
	for {
		switch d.stage {
		case stageBody:
			if !in.IsEmpty() {
				d.bodyTouched = true
			}
			done, err := d.body.Decode(in, out)
			if err != nil {
				if err == codec.ErrOutOfMemory || isDictCapExceeded(err) {
					return false, codec.ErrOutOfMemory
				}
				return false, codec.Invalid("xz: %v", err)
			}
			if !done {
				return false, nil
			}
			d.stage = stagePad

		case stagePad:
			for !in.IsEmpty() {
				b := in.Unwritten()[0]
				if b != 0 {
					if d.padInRun != 0 {
						return false, codec.Invalid("xz: inter-member padding not a multiple of 4 zero bytes")
					}
					d.stage = stageMemberEnd
					return true, nil
				}
				in.Advance(1)
				d.padInRun = (d.padInRun + 1) % 4
			}
			return false, nil

		case stageMemberEnd:
			return true, nil
		}
	}
}

// Flush must not unconditionally report done: the driver also reaches here
// when the real input has run out permanently without Decode ever being
// called again, and that case needs the same clean-boundary check Finish
// applies, or a stream truncated mid-body or mid-padding would silently
// report success.
func (d *Decoder) Flush(out *partialbuf.Buffer) (bool, error) {
	return d.Finish(out)
}

// Finish reports whether the stream ended on a clean boundary: either no
// member was ever attempted since the last Reinit, or the previous member's
// body finished and any padding consumed so far lands on a 4-byte boundary.
func (d *Decoder) Finish(out *partialbuf.Buffer) (bool, error) {
	if d.stage == stageBody {
		return !d.bodyTouched, nil
	}
	return d.stage == stagePad && d.padInRun == 0, nil
}

// Reinit resets per-member state so the same Decoder can parse the next
// concatenated member.
func (d *Decoder) Reinit() error {
	if err := d.body.Reinit(); err != nil {
		return err
	}
	d.stage = stageBody
	d.padInRun = 0
	d.bodyTouched = false
	return nil
}

var _ codec.Encoder = (*Encoder)(nil)
var _ codec.Decoder = (*Decoder)(nil)
