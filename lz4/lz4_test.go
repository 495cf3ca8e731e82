package lz4_test

import (
	"bytes"
	"io"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"

	"github.com/compression-driver/streamcodec/bufread"
	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/internal/testutil"
	"github.com/compression-driver/streamcodec/lz4"
)

func roundtrip(t *testing.T, level lz4.Level, payload []byte, chunk int) []byte {
	t.Helper()
	compressed, err := io.ReadAll(bufread.NewEncoder(bytes.NewReader(payload), lz4.NewEncoderLevel(level)))
	require.NoError(t, err)

	got, err := io.ReadAll(bufread.NewDecoder(testutil.NewFlakyReader(compressed, chunk), lz4.NewDecoder()))
	require.NoError(t, err)
	return got
}

func TestRoundtripFuzz(t *testing.T) {
	f := func(payload []byte) bool {
		return bytes.Equal(payload, roundtrip(t, codec.DefaultLevel(), payload, 41))
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 50}))
}

func TestAcrossBlockBoundary(t *testing.T) {
	payload := bytes.Repeat([]byte("lz4 block boundary stress "), 5000) // larger than the 64KiB block size
	got := roundtrip(t, codec.DefaultLevel(), payload, 8192)
	require.Equal(t, payload, got)
}

func TestConcatenatedFramesWithMultiMember(t *testing.T) {
	f1, err := io.ReadAll(bufread.NewEncoder(bytes.NewReader([]byte("first")), lz4.NewEncoder()))
	require.NoError(t, err)
	f2, err := io.ReadAll(bufread.NewEncoder(bytes.NewReader([]byte("second")), lz4.NewEncoder()))
	require.NoError(t, err)
	blob := append(append([]byte{}, f1...), f2...)

	d := bufread.NewDecoder(bytes.NewReader(blob), lz4.NewDecoder())
	d.SetMultipleMembers(true)
	got, err := io.ReadAll(d)
	require.NoError(t, err)
	require.Equal(t, "firstsecond", string(got))
}
