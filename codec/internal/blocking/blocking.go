// Package blocking adapts third-party compression libraries — which expose
// blocking io.Writer/io.Reader APIs, not a bounded encode(in,out)->(nIn,nOut)
// primitive — onto the codec.Encoder/codec.Decoder contract.
//
// EncodeAdapter needs no goroutine: the wrapped library writer is pointed at
// an in-memory sink buffer instead of a real io.Writer, so every Write call
// returns immediately and the driver just drains whatever landed in the
// sink. This mirrors the aistore transport package's lz4Stream, which points
// an lz4.Writer at a scatter-gather list and reads back out of it.
//
// DecodeAdapter does need a goroutine, because the wrapped library reader
// pulls from its source on its own schedule: a background goroutine runs the
// library reader against one end of an io.Pipe while Decode feeds the other
// end from the caller's input.
package blocking

import (
	"bytes"
	"io"
	"sync"

	"github.com/compression-driver/streamcodec/partialbuf"
)

// FlushWriteCloser is the shape every wrapped library encoder exposes:
// pierrec/lz4.Writer, klauspost/compress/{flate,zstd,s2}.Writer and
// andybalholm/brotli.Writer all implement this trio, just with different
// concrete option types behind New. dsnet/compress/bzip2.Writer has no
// Flush, so package bzip2 wraps it to supply one.
type FlushWriteCloser interface {
	io.Writer
	Flush() error
	Close() error
}

// EncodeAdapter drains a FlushWriteCloser through a codec.Encoder-shaped
// sequence of calls.
type EncodeAdapter struct {
	w       FlushWriteCloser
	sink    bytes.Buffer
	flushed bool
	closed  bool
}

// NewEncodeAdapter returns an adapter whose Sink must be passed as the
// target when constructing the library writer, which is then attached via
// SetWriter — the library writer can only be built once it has a target to
// write into, and that target is this adapter's own sink buffer.
func NewEncodeAdapter() *EncodeAdapter {
	return &EncodeAdapter{}
}

// Sink returns the buffer the wrapped writer must target.
func (a *EncodeAdapter) Sink() io.Writer { return &a.sink }

// SetWriter attaches the library writer built against Sink(). Must be
// called once, before any other method.
func (a *EncodeAdapter) SetWriter(w FlushWriteCloser) { a.w = w }

func (a *EncodeAdapter) drain(out *partialbuf.Buffer) {
	if a.sink.Len() == 0 {
		return
	}
	n, _ := a.sink.Read(out.UnwrittenMut())
	out.Advance(n)
}

// Encode feeds in.Unwritten to the wrapped writer and drains whatever comes
// out the other side into out.
func (a *EncodeAdapter) Encode(in, out *partialbuf.Buffer) error {
	a.drain(out)
	if in.IsEmpty() || out.IsEmpty() {
		return nil
	}
	p := in.Unwritten()
	n, err := a.w.Write(p)
	in.Advance(n)
	if err != nil {
		return err
	}
	a.drain(out)
	return nil
}

// Flush calls the wrapped writer's Flush once, then drains until the sink is
// empty, which may take several calls when out is small.
func (a *EncodeAdapter) Flush(out *partialbuf.Buffer) (bool, error) {
	if !a.flushed {
		if err := a.w.Flush(); err != nil {
			return false, err
		}
		a.flushed = true
	}
	a.drain(out)
	if a.sink.Len() != 0 {
		return false, nil
	}
	a.flushed = false
	return true, nil
}

// Finish calls Close (which, for every wrapped library, writes the stream
// terminator) and drains the result.
func (a *EncodeAdapter) Finish(out *partialbuf.Buffer) (bool, error) {
	if !a.closed {
		if err := a.w.Close(); err != nil {
			return false, err
		}
		a.closed = true
	}
	a.drain(out)
	return a.sink.Len() == 0, nil
}

// feedChunk bounds a single synchronous pw.Write call so Decode keeps doing
// bounded work per call even though the underlying transport is a blocking
// pipe, matching the driver's incremental-step philosophy.
const feedChunk = 32 * 1024

// DecodeAdapter runs a blocking library reader against a pipe fed from the
// caller's input. A background goroutine does nothing but call the library
// reader's Read in a loop and append whatever comes out to a mutex-guarded
// buffer; Decode's own goroutine does the (synchronous, but bounded) pipe
// writes. Splitting reads and writes across two independently-progressing
// goroutines, rather than a one-write-per-read handshake, avoids a
// deadlock: a single pw.Write can require the library reader to call
// Read more than once before it unblocks, and a handshake keyed to exactly
// one Read per Write stalls as soon as that happens.
type DecodeAdapter struct {
	newReader func(io.Reader) (io.Reader, error)

	pw *io.PipeWriter
	pr *io.PipeReader
	wg sync.WaitGroup

	mu      sync.Mutex
	pending bytes.Buffer
	eof     bool
	pumpErr error

	started bool
}

// NewDecodeAdapter defers construction of the library reader to newReader,
// which pump calls against the adapter's pipe once Decode is first invoked.
func NewDecodeAdapter(newReader func(io.Reader) (io.Reader, error)) *DecodeAdapter {
	return &DecodeAdapter{newReader: newReader}
}

func (a *DecodeAdapter) start() {
	a.pr, a.pw = io.Pipe()
	a.wg.Add(1)
	go a.pump(a.pr)
	a.started = true
}

// pump builds the library reader against pr and repeatedly calls its Read,
// appending output to a.pending until the reader errors (io.EOF on a clean
// member end, anything else is a genuine codec error).
//
// newReader runs here, not in start, because library NewReader calls
// usually consume the format header eagerly — doing that on the caller's
// goroutine before any bytes have been fed into the pipe would block
// Decode's very first call forever.
func (a *DecodeAdapter) pump(pr *io.PipeReader) {
	defer a.wg.Done()
	r, err := a.newReader(pr)
	if err != nil {
		a.mu.Lock()
		a.pumpErr = err
		a.eof = true
		a.mu.Unlock()
		pr.CloseWithError(err)
		return
	}
	buf := make([]byte, feedChunk)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			a.mu.Lock()
			a.pending.Write(buf[:n])
			a.mu.Unlock()
		}
		if err != nil {
			a.mu.Lock()
			if err != io.EOF {
				a.pumpErr = err
			}
			a.eof = true
			a.mu.Unlock()
			pr.CloseWithError(err)
			return
		}
	}
}

// Decode feeds in to the library reader via the pipe and copies decoded
// bytes into out. It reports member-end once the library reader has hit
// io.EOF and every byte it produced has been drained into out.
func (a *DecodeAdapter) Decode(in, out *partialbuf.Buffer) (bool, error) {
	if !a.started {
		a.start()
	}

	a.mu.Lock()
	if a.pending.Len() > 0 {
		n, _ := a.pending.Read(out.UnwrittenMut())
		out.Advance(n)
	}
	pumpErr := a.pumpErr
	pumpDone := a.eof
	drained := a.pending.Len() == 0
	a.mu.Unlock()

	if pumpErr != nil {
		return false, pumpErr
	}
	if pumpDone && drained {
		return true, nil
	}
	if pumpDone || out.IsEmpty() || in.IsEmpty() {
		return false, nil
	}

	p := in.Unwritten()
	if len(p) > feedChunk {
		p = p[:feedChunk]
	}
	n, err := a.pw.Write(p)
	in.Advance(n)
	if err != nil && err != io.ErrClosedPipe && err != io.EOF {
		return false, err
	}
	return false, nil
}

// Flush emits whatever decoded output the pump has buffered and reports
// whether the pump has reached a clean end of stream with everything
// drained. The driver calls Flush either once Decode has already seen the
// member end, or when the real input source has run out (without calling
// Decode again to say so); in the second case the pump has not settled yet,
// so Flush closes the write side of the pipe with io.EOF and waits for the
// pump before draining. A truncated stream therefore never reports success
// here: the library reader's own error is returned instead.
func (a *DecodeAdapter) Flush(out *partialbuf.Buffer) (bool, error) {
	if !a.started {
		return true, nil
	}
	a.mu.Lock()
	settled := a.eof
	a.mu.Unlock()
	if !settled {
		a.pw.CloseWithError(io.EOF)
		a.wg.Wait()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending.Len() > 0 {
		n, _ := a.pending.Read(out.UnwrittenMut())
		out.Advance(n)
	}
	if a.pumpErr != nil {
		return false, a.pumpErr
	}
	return a.pending.Len() == 0, nil
}

// Finish reports whether the library reader reached a clean end of stream.
// If the pump hasn't already settled, this closes the write side of the
// pipe with io.EOF, the same "no more bytes, ever" signal Decode would have
// delivered had it been invoked, and waits for the pump. Flush does the
// same once the input has run out, so by the time the driver reaches
// Finish the pump has normally settled already.
func (a *DecodeAdapter) Finish(out *partialbuf.Buffer) (bool, error) {
	if !a.started {
		return true, nil
	}
	a.mu.Lock()
	done := a.eof && a.pending.Len() == 0
	a.mu.Unlock()
	if !done {
		a.pw.CloseWithError(io.EOF)
		a.wg.Wait()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pumpErr != nil {
		return false, nil
	}
	return a.eof && a.pending.Len() == 0, nil
}

// Reinit tears down the pipe and goroutine and lets the next Decode call
// start a fresh library reader for the next member of a concatenated
// stream.
func (a *DecodeAdapter) Reinit() error {
	if a.started {
		a.pw.CloseWithError(io.EOF)
		a.wg.Wait()
		a.pr.Close()
	}
	a.started = false
	a.mu.Lock()
	a.eof = false
	a.pumpErr = nil
	a.pending.Reset()
	a.mu.Unlock()
	return nil
}
