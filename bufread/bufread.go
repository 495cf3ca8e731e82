// Package bufread implements the pull-from-reader I/O adapter (spec §4.5):
// Encoder and Decoder both wrap a buffered source and present the
// transformed bytes through io.Reader, pulling from the source exactly as
// far as the driver needs to make progress.
package bufread

import (
	"bufio"
	"io"

	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/driver"
	"github.com/compression-driver/streamcodec/partialbuf"
)

// fillBuf returns every byte currently buffered in src, blocking for at
// least one byte (or an error) if the buffer is empty. This is the
// io.Reader-idiomatic stand-in for fill_buf: bufio.Reader.Peek(1) forces
// exactly one underlying Read when nothing is buffered, and Peek(Buffered())
// afterward is guaranteed not to block further since those bytes are
// already resident.
func fillBuf(src *bufio.Reader) ([]byte, error) {
	if src.Buffered() == 0 {
		if _, err := src.Peek(1); err != nil {
			return nil, err
		}
	}
	b, _ := src.Peek(src.Buffered())
	return b, nil
}

// Decoder reads compressed bytes from src and presents the decompressed
// stream through Read.
type Decoder struct {
	src *bufio.Reader
	drv *driver.Decoder
	err error
}

// NewDecoder wraps src (a plain io.Reader is buffered automatically) with c
// driving decompression.
func NewDecoder(src io.Reader, c codec.Decoder) *Decoder {
	return &Decoder{src: bufio.NewReader(src), drv: driver.NewDecoder(c)}
}

// SetMultipleMembers toggles multi-member decoding; must be called before
// the first Read.
func (d *Decoder) SetMultipleMembers(v bool) { d.drv.SetMultipleMembers(v) }

// GetRef returns the wrapped source's current *bufio.Reader view.
func (d *Decoder) GetRef() io.Reader { return d.src }

func (d *Decoder) Read(dest []byte) (int, error) {
	if d.err != nil {
		return 0, d.err
	}
	out := partialbuf.NewMut(dest)
	for {
		if d.drv.State() == driver.DecDone {
			if out.Len() > 0 && len(out.Written()) == 0 {
				d.err = io.EOF
				return 0, io.EOF
			}
			return len(out.Written()), nil
		}

		avail, err := fillBuf(d.src)
		if err != nil && err != io.EOF {
			d.err = err
			if len(out.Written()) > 0 {
				return len(out.Written()), nil
			}
			return 0, err
		}

		if err == io.EOF && len(avail) == 0 {
			// source is exhausted; a real (non-nil) empty input tells the
			// FSM this is genuine end-of-stream, not just "none buffered
			// yet" — see driver.Decoder's priming doc.
			before := len(out.Written())
			if stepErr := d.drv.Step(partialbuf.New(nil), out); stepErr != nil {
				d.err = stepErr
				if len(out.Written()) > 0 {
					return len(out.Written()), nil
				}
				return 0, stepErr
			}
			if d.drv.State() == driver.DecDone {
				if len(out.Written()) > 0 {
					return len(out.Written()), nil
				}
				d.err = io.EOF
				return 0, io.EOF
			}
			if len(out.Written()) > before {
				// made progress; caller may have more output capacity to
				// offer on the next Read, try again later.
				return len(out.Written()), nil
			}
			if ferr := d.drv.Finish(out); ferr != nil {
				d.err = ferr
				return len(out.Written()), ferr
			}
			d.err = io.EOF
			return len(out.Written()), io.EOF
		}

		in := partialbuf.New(avail)
		stepErr := d.drv.Step(in, out)
		consumed := len(in.Written())
		if consumed > 0 {
			d.src.Discard(consumed)
		}
		if stepErr != nil {
			d.err = stepErr
			if len(out.Written()) > 0 {
				return len(out.Written()), nil
			}
			return 0, stepErr
		}

		if out.IsEmpty() || (consumed == 0 && len(avail) > 0) {
			return len(out.Written()), nil
		}
	}
}

// Encoder reads plaintext bytes from src and presents the compressed stream
// through Read.
type Encoder struct {
	src *bufio.Reader
	drv *driver.Encoder
	eof bool
	err error
}

// NewEncoder wraps src with c driving compression.
func NewEncoder(src io.Reader, c codec.Encoder) *Encoder {
	return &Encoder{src: bufio.NewReader(src), drv: driver.NewEncoder(c)}
}

// GetRef returns the wrapped source's current *bufio.Reader view.
func (e *Encoder) GetRef() io.Reader { return e.src }

func (e *Encoder) Read(dest []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	out := partialbuf.NewMut(dest)
	for {
		if e.drv.State() == driver.Done {
			if len(out.Written()) > 0 {
				return len(out.Written()), nil
			}
			e.err = io.EOF
			return 0, io.EOF
		}

		if e.eof {
			if err := e.drv.Step(partialbuf.New(nil), out); err != nil {
				e.err = err
				if len(out.Written()) > 0 {
					return len(out.Written()), nil
				}
				return 0, err
			}
			if out.IsEmpty() {
				return len(out.Written()), nil
			}
			continue
		}

		avail, err := fillBuf(e.src)
		if err != nil && err != io.EOF {
			e.err = err
			if len(out.Written()) > 0 {
				return len(out.Written()), nil
			}
			return 0, err
		}
		if err == io.EOF {
			e.eof = true
			continue
		}

		in := partialbuf.New(avail)
		if stepErr := e.drv.Step(in, out); stepErr != nil {
			e.err = stepErr
			if len(out.Written()) > 0 {
				return len(out.Written()), nil
			}
			return 0, stepErr
		}
		consumed := len(in.Written())
		if consumed > 0 {
			e.src.Discard(consumed)
		}

		if out.IsEmpty() || consumed == 0 {
			return len(out.Written()), nil
		}
	}
}
