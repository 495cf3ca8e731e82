package xz_test

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"

	"github.com/compression-driver/streamcodec/bufread"
	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/internal/testutil"
	"github.com/compression-driver/streamcodec/xz"
)

func roundtrip(t *testing.T, payload []byte, chunk int) []byte {
	t.Helper()
	compressed, err := io.ReadAll(bufread.NewEncoder(bytes.NewReader(payload), xz.NewEncoder()))
	require.NoError(t, err)

	got, err := io.ReadAll(bufread.NewDecoder(testutil.NewFlakyReader(compressed, chunk), xz.NewDecoder()))
	require.NoError(t, err)
	return got
}

func TestRoundtripFuzz(t *testing.T) {
	f := func(payload []byte) bool {
		return bytes.Equal(payload, roundtrip(t, payload, 71))
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 10}))
}

func member(t *testing.T, payload []byte) []byte {
	t.Helper()
	out, err := io.ReadAll(bufread.NewEncoder(bytes.NewReader(payload), xz.NewEncoder()))
	require.NoError(t, err)
	return out
}

// TestPaddingMultipleOfFourIsAccepted exercises the xz padding scenario:
// members may be separated by zero-or-more groups of 4 zero-valued bytes.
func TestPaddingMultipleOfFourIsAccepted(t *testing.T) {
	m1 := member(t, []byte("first member"))
	m2 := member(t, []byte("second member"))
	blob := append(append(append([]byte{}, m1...), 0, 0, 0, 0), m2...)

	d := bufread.NewDecoder(bytes.NewReader(blob), xz.NewDecoder())
	d.SetMultipleMembers(true)
	got, err := io.ReadAll(d)
	require.NoError(t, err)
	require.Equal(t, "first membersecond member", string(got))
}

// TestPaddingNotMultipleOfFourIsInvalid exercises the same scenario with 3
// zero bytes of padding instead of 4, which must surface ErrInvalidData.
func TestPaddingNotMultipleOfFourIsInvalid(t *testing.T) {
	m1 := member(t, []byte("first member"))
	m2 := member(t, []byte("second member"))
	blob := append(append(append([]byte{}, m1...), 0, 0, 0), m2...)

	d := bufread.NewDecoder(bytes.NewReader(blob), xz.NewDecoder())
	d.SetMultipleMembers(true)
	_, err := io.ReadAll(d)
	require.True(t, errors.Is(err, codec.ErrInvalidData))
}
