// Package bufwriter implements the fixed-capacity buffer that sits between
// an encoder and its sink (spec §4.7). It coalesces small codec outputs
// into larger sink writes and implements the bypass-for-large-writes and
// write-zero-is-fatal policies from spec §4.7 and §9.
package bufwriter

import (
	"io"

	"github.com/compression-driver/streamcodec/codec"
)

// DefaultCapacity is the default BufWriter size (spec §5 "8 KiB,
// configurable").
const DefaultCapacity = 8 * 1024

// Writer is an owned fixed-capacity byte buffer between the encoder and the
// sink, tracking buffered (produced, not yet written) and written (handed
// to the sink) offsets.
type Writer struct {
	sink     io.Writer
	buf      []byte
	written  int
	buffered int
}

// New wraps sink with a buffer of the given capacity. capacity <= 0 uses
// DefaultCapacity.
func New(sink io.Writer, capacity int) *Writer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Writer{sink: sink, buf: make([]byte, capacity)}
}

// Capacity returns the buffer's fixed capacity.
func (w *Writer) Capacity() int { return cap(w.buf) }

// Sink returns the wrapped sink (spec §6 get_ref/get_mut accessor).
func (w *Writer) Sink() io.Writer { return w.sink }

// Spare returns the unused tail of the internal buffer — callers of the
// encoder drive one step with this as the output PartialBuffer region, then
// call Produce with however many bytes the codec wrote into it.
func (w *Writer) Spare() []byte {
	return w.buf[w.buffered:]
}

// Produce records that n bytes of Spare were filled by the codec.
func (w *Writer) Produce(n int) {
	w.buffered += n
}

// IsFull reports whether Spare() is empty.
func (w *Writer) IsFull() bool { return w.buffered >= len(w.buf) }

// Write buffers p, partial-flushing to the sink as needed. Per spec §4.7 and
// §9: if p is at least as large as capacity and the buffer is currently
// empty, Write bypasses the buffer and writes directly to the sink —
// skipping this merely costs performance, but doing it while the buffer is
// non-empty would corrupt ordering, hence the emptiness check.
func (w *Writer) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		if w.buffered == 0 && len(p) >= len(w.buf) {
			n, err := w.sink.Write(p)
			total += n
			if err != nil {
				return total, err
			}
			if n == 0 {
				return total, codec.ErrWriteZero
			}
			p = p[n:]
			continue
		}
		if w.buffered+len(p) <= len(w.buf) {
			n := copy(w.buf[w.buffered:], p)
			w.buffered += n
			total += n
			return total, nil
		}
		if _, err := w.partialFlush(); err != nil {
			return total, err
		}
	}
	return total, nil
}

// partialFlush drains buf[written:buffered] to the sink, reshuffling down to
// offset 0 on any progress. It returns the number of bytes drained.
func (w *Writer) partialFlush() (int, error) {
	if w.written >= w.buffered {
		return 0, nil
	}
	n, err := w.sink.Write(w.buf[w.written:w.buffered])
	if n > 0 {
		w.written += n
		if w.written >= w.buffered {
			w.written, w.buffered = 0, 0
		} else {
			copy(w.buf, w.buf[w.written:w.buffered])
			w.buffered -= w.written
			w.written = 0
		}
	}
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, codec.ErrWriteZero
	}
	return n, nil
}

// Flush drains the entire buffer to the sink.
func (w *Writer) Flush() error {
	for w.written < w.buffered {
		if _, err := w.partialFlush(); err != nil {
			return err
		}
	}
	w.written, w.buffered = 0, 0
	return nil
}
