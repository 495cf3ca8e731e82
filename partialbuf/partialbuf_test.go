package partialbuf

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
)

func TestAdvanceInvariant(t *testing.T) {
	b := NewMut(make([]byte, 8))
	b.Advance(3)
	require.Len(t, b.Written(), 3)
	require.Len(t, b.Unwritten(), 5)

	require.Panics(t, func() { b.Advance(6) })
}

func TestCopyUnwrittenFrom(t *testing.T) {
	src := New([]byte("hello world"))
	dst := NewMut(make([]byte, 5))

	n := dst.CopyUnwrittenFrom(src)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(dst.Written()))
	require.Equal(t, " world", string(src.Unwritten()))

	// dst is now full; a second copy transfers nothing.
	n = dst.CopyUnwrittenFrom(src)
	require.Equal(t, 0, n)
}

func TestCopyUnwrittenFromIsMinOfBoth(t *testing.T) {
	f := func(srcLen, dstLen uint8) bool {
		src := New(make([]byte, int(srcLen)))
		dst := NewMut(make([]byte, int(dstLen)))
		n := dst.CopyUnwrittenFrom(src)
		want := len(src.Unwritten()) + n // before copy len was n + remaining
		_ = want
		min := int(srcLen)
		if int(dstLen) < min {
			min = int(dstLen)
		}
		return n == min
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}
