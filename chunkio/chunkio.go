// Package chunkio implements the chunk-stream I/O adapter (spec §4.8):
// Encoder and Decoder each wrap a lazy sequence of byte chunks (a pull
// function returning the next chunk or io.EOF) and present themselves the
// same way, one produced chunk per Next call.
package chunkio

import (
	"io"

	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/driver"
	"github.com/compression-driver/streamcodec/partialbuf"
)

// defaultScratch is the size of the adapter's internal output chunk.
const defaultScratch = 32 * 1024

// NextFunc pulls the next input chunk, returning io.EOF once the source is
// exhausted. Implementations own the returned slice only until the next
// call to NextFunc.
type NextFunc func() ([]byte, error)

// Encoder pulls plaintext chunks from next and yields compressed chunks
// from Next.
type Encoder struct {
	next    NextFunc
	drv     *driver.Encoder
	scratch []byte
	done    bool
	pending *partialbuf.Buffer // current unconsumed input chunk
	srcEOF  bool
}

// NewEncoder wraps next with c driving compression, yielding chunks of
// defaultScratch bytes.
func NewEncoder(next NextFunc, c codec.Encoder) *Encoder {
	return NewEncoderSize(next, c, defaultScratch)
}

// NewEncoderSize is NewEncoder with an explicit output chunk size.
func NewEncoderSize(next NextFunc, c codec.Encoder, chunkSize int) *Encoder {
	if chunkSize <= 0 {
		chunkSize = defaultScratch
	}
	return &Encoder{next: next, drv: driver.NewEncoder(c), scratch: make([]byte, chunkSize)}
}

// Next produces the next compressed chunk, or io.EOF once the stream is
// fully drained. The returned slice is valid only until the next call.
//
// A fresh Encoder.Step call only ever performs one encode invocation (spec
// §4.3 breaks to solicit more input after each one), so Next loops,
// re-feeding the same pending chunk, until either it is fully consumed or
// out fills up. Once the source is exhausted, pending becomes a real
// (non-nil) empty buffer, which drives the encoder straight to Finishing.
func (e *Encoder) Next() ([]byte, error) {
	if e.done {
		return nil, io.EOF
	}
	out := partialbuf.NewMut(e.scratch)
	for {
		if e.pending == nil || e.pending.IsEmpty() {
			if e.srcEOF {
				e.pending = partialbuf.New(nil)
			} else {
				chunk, err := e.next()
				switch {
				case err == io.EOF:
					e.srcEOF = true
					e.pending = partialbuf.New(nil)
				case err != nil:
					return nil, err
				default:
					e.pending = partialbuf.New(chunk)
				}
			}
		}

		if err := e.drv.Step(e.pending, out); err != nil {
			return nil, err
		}

		if e.drv.State() == driver.Done {
			e.done = true
			if len(out.Written()) == 0 {
				return nil, io.EOF
			}
			return out.Written(), nil
		}
		if out.IsEmpty() {
			return out.Written(), nil
		}
	}
}

// Decoder pulls compressed chunks from next and yields decompressed chunks
// from Next.
type Decoder struct {
	next    NextFunc
	drv     *driver.Decoder
	scratch []byte
	pending *partialbuf.Buffer
	srcEOF  bool
	done    bool
}

// NewDecoder wraps next with c driving decompression.
func NewDecoder(next NextFunc, c codec.Decoder) *Decoder {
	return NewDecoderSize(next, c, defaultScratch)
}

// NewDecoderSize is NewDecoder with an explicit output chunk size.
func NewDecoderSize(next NextFunc, c codec.Decoder, chunkSize int) *Decoder {
	if chunkSize <= 0 {
		chunkSize = defaultScratch
	}
	return &Decoder{next: next, drv: driver.NewDecoder(c), scratch: make([]byte, chunkSize)}
}

// SetMultipleMembers toggles multi-member decoding; must be called before
// the first Next.
func (d *Decoder) SetMultipleMembers(v bool) { d.drv.SetMultipleMembers(v) }

// Next produces the next decompressed chunk, or io.EOF once fully drained.
func (d *Decoder) Next() ([]byte, error) {
	if d.done {
		return nil, io.EOF
	}
	out := partialbuf.NewMut(d.scratch)
	for {
		if d.drv.State() == driver.DecDone {
			d.done = true
			if len(out.Written()) == 0 {
				return nil, io.EOF
			}
			return out.Written(), nil
		}

		if d.pending == nil || d.pending.IsEmpty() {
			if d.srcEOF {
				d.pending = partialbuf.New(nil)
			} else {
				chunk, err := d.next()
				if err == io.EOF {
					d.srcEOF = true
					d.pending = partialbuf.New(nil)
				} else if err != nil {
					return nil, err
				} else {
					d.pending = partialbuf.New(chunk)
				}
			}
		}

		before := len(out.Written())
		if err := d.drv.Step(d.pending, out); err != nil {
			return nil, err
		}

		if d.drv.State() == driver.DecDone {
			continue // loop once more to hit the terminal branch above
		}

		progressed := len(out.Written()) > before
		consumedAll := d.pending.IsEmpty()
		if out.IsEmpty() {
			return out.Written(), nil
		}
		if d.srcEOF && consumedAll && !progressed {
			// source exhausted and a real empty probe made no headway:
			// either genuinely stuck pending more output room (already
			// excluded above) or the stream is truncated; surface that
			// via Finish.
			if err := d.drv.Finish(out); err != nil {
				return out.Written(), err
			}
			d.done = true
			if len(out.Written()) == 0 {
				return nil, io.EOF
			}
			return out.Written(), nil
		}
	}
}
