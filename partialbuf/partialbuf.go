// Package partialbuf provides a no-copy cursor over a byte slice that
// separates the portion already written (or consumed) from the portion
// still unwritten, on one side of a single driver invocation.
package partialbuf

// Buffer wraps a byte region and an index i in [0, len(region)]. Written is
// region[:i]; Unwritten is region[i:]. A Buffer is cheap to construct and is
// meant to be created fresh for each driver call, never retained across a
// suspension point.
type Buffer struct {
	region  []byte
	i       int
	mutable bool
}

// New wraps region for reading: Unwritten is available, but UnwrittenMut
// panics, since region came from a source the caller does not own for
// writing (spec §4.1: read-only regions expose only written/unwritten).
func New(region []byte) *Buffer {
	return &Buffer{region: region}
}

// NewMut wraps region for writing: both Unwritten and UnwrittenMut are
// available. The caller still owns region; New and NewMut differ only in
// whether the buffer was obtained from a writable source.
func NewMut(region []byte) *Buffer {
	return &Buffer{region: region, mutable: true}
}

// Written returns the bytes already consumed/produced in this call.
func (b *Buffer) Written() []byte {
	return b.region[:b.i]
}

// Unwritten returns the bytes not yet consumed/produced.
func (b *Buffer) Unwritten() []byte {
	return b.region[b.i:]
}

// UnwrittenMut returns the remaining region for writing into. Callers must
// call Advance with however many bytes they actually filled. Panics if b was
// constructed with New rather than NewMut: writing into a read-only source
// buffer would silently corrupt it without the driver ever noticing.
func (b *Buffer) UnwrittenMut() []byte {
	if !b.mutable {
		panic("partialbuf: UnwrittenMut called on a read-only buffer")
	}
	return b.region[b.i:]
}

// Len reports the full region length.
func (b *Buffer) Len() int { return len(b.region) }

// IsEmpty reports whether the unwritten region has length zero.
func (b *Buffer) IsEmpty() bool { return b.i >= len(b.region) }

// Advance marks n leading bytes of Unwritten as written. It panics if
// n exceeds len(Unwritten) — that is an invariant violation in the driver,
// never a recoverable I/O condition.
func (b *Buffer) Advance(n int) {
	if n < 0 || b.i+n > len(b.region) {
		panic("partialbuf: advance past end of buffer")
	}
	b.i += n
}

// CopyUnwrittenFrom transfers min(len(b.Unwritten), len(src.Unwritten))
// bytes from src into b, advancing both cursors by that amount. It returns
// the number of bytes transferred.
func (b *Buffer) CopyUnwrittenFrom(src *Buffer) int {
	n := copy(b.UnwrittenMut(), src.Unwritten())
	b.Advance(n)
	src.Advance(n)
	return n
}
