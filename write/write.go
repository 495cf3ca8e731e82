// Package write implements the push-to-writer I/O adapter (spec §4.6):
// Encoder sits in front of an io.Writer sink behind an internal
// bufwriter.Writer, coalescing small codec outputs into larger sink
// writes, and presents itself as io.WriteCloser.
package write

import (
	"io"

	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/driver"
	"github.com/compression-driver/streamcodec/driver/bufwriter"
	"github.com/compression-driver/streamcodec/partialbuf"
)

// Encoder compresses bytes written to it and forwards the result to sink.
type Encoder struct {
	buf    *bufwriter.Writer
	drv    *driver.Encoder
	closed bool
}

// NewEncoder wraps sink with c driving compression, using the default
// internal buffer capacity.
func NewEncoder(sink io.Writer, c codec.Encoder) *Encoder {
	return NewEncoderSize(sink, c, bufwriter.DefaultCapacity)
}

// NewEncoderSize is NewEncoder with an explicit internal buffer capacity
// (spec §8's "write adapter with small output chunks" scenario exercises
// this directly).
func NewEncoderSize(sink io.Writer, c codec.Encoder, capacity int) *Encoder {
	return &Encoder{buf: bufwriter.New(sink, capacity), drv: driver.NewEncoder(c)}
}

// GetRef exposes the wrapped sink.
func (e *Encoder) GetRef() io.Writer { return e.buf.Sink() }

// spare returns a fresh output cursor over the BufWriter's free capacity,
// flushing first if the buffer is currently full.
func (e *Encoder) spare() (*partialbuf.Buffer, error) {
	for e.buf.IsFull() {
		if err := e.buf.Flush(); err != nil {
			return nil, err
		}
	}
	return partialbuf.NewMut(e.buf.Spare()), nil
}

// Write drives the encoder over p, returning once all of p has been
// consumed. The codec's progress guarantee (spec §4.2) means this never
// spins: Encode always advances in or out whenever both have room.
func (e *Encoder) Write(p []byte) (int, error) {
	if e.closed {
		return 0, codec.ErrMisuse
	}
	in := partialbuf.New(p)
	for !in.IsEmpty() {
		out, err := e.spare()
		if err != nil {
			return len(in.Written()), err
		}
		if err := e.drv.Step(in, out); err != nil {
			return len(in.Written()), err
		}
		e.buf.Produce(len(out.Written()))
	}
	return len(in.Written()), nil
}

// Flush drains any codec-buffered output to the sink without writing the
// stream terminator, so further Writes remain valid afterward.
func (e *Encoder) Flush() error {
	for {
		state := e.drv.State()
		if state != driver.Encoding && state != driver.Flushing {
			break
		}
		out, err := e.spare()
		if err != nil {
			return err
		}
		if err := e.drv.Step(nil, out); err != nil {
			return err
		}
		e.buf.Produce(len(out.Written()))
		if state == driver.Encoding && e.drv.State() == driver.Encoding && len(out.Written()) == 0 {
			break // nothing was pending
		}
	}
	return e.buf.Flush()
}

// Close writes the stream terminator, flushes, and closes the sink if it
// implements io.Closer. Close is idempotent.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	for e.drv.State() != driver.Done {
		out, err := e.spare()
		if err != nil {
			return err
		}
		if err := e.drv.Step(partialbuf.New(nil), out); err != nil {
			return err
		}
		e.buf.Produce(len(out.Written()))
	}
	if err := e.buf.Flush(); err != nil {
		return err
	}
	e.closed = true
	if c, ok := e.buf.Sink().(io.Closer); ok {
		return c.Close()
	}
	return nil
}
