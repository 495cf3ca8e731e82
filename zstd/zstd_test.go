package zstd_test

import (
	"bytes"
	"io"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"

	"github.com/compression-driver/streamcodec/bufread"
	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/internal/testutil"
	"github.com/compression-driver/streamcodec/zstd"
)

func roundtrip(t *testing.T, level zstd.Level, payload []byte, chunk int) []byte {
	t.Helper()
	compressed, err := io.ReadAll(bufread.NewEncoder(bytes.NewReader(payload), zstd.NewEncoderLevel(level)))
	require.NoError(t, err)

	got, err := io.ReadAll(bufread.NewDecoder(testutil.NewFlakyReader(compressed, chunk), zstd.NewDecoder()))
	require.NoError(t, err)
	return got
}

func TestRoundtripFuzz(t *testing.T) {
	f := func(payload []byte) bool {
		return bytes.Equal(payload, roundtrip(t, codec.DefaultLevel(), payload, 61))
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 30}))
}

// TestEmptyInputProducesEmptyOutput exercises the zstd empty scenario: when
// the real source starts out empty, Decode only ever sees the driver's
// synthesized empty probe, and the stream must end cleanly through this
// codec's Flush/Finish with no output.
func TestEmptyInputProducesEmptyOutput(t *testing.T) {
	d := bufread.NewDecoder(bytes.NewReader(nil), zstd.NewDecoder())
	got, err := io.ReadAll(d)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestEncodingEmptyThenDecodingRoundtrips(t *testing.T) {
	got := roundtrip(t, codec.DefaultLevel(), nil, 4096)
	require.Empty(t, got)
}
