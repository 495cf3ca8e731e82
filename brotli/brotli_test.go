package brotli_test

import (
	"bytes"
	"io"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"

	"github.com/compression-driver/streamcodec/brotli"
	"github.com/compression-driver/streamcodec/bufread"
	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/internal/testutil"
)

func roundtrip(t *testing.T, level brotli.Level, payload []byte, chunk int) []byte {
	t.Helper()
	compressed, err := io.ReadAll(bufread.NewEncoder(bytes.NewReader(payload), brotli.NewEncoderLevel(level)))
	require.NoError(t, err)

	got, err := io.ReadAll(bufread.NewDecoder(testutil.NewFlakyReader(compressed, chunk), brotli.NewDecoder()))
	require.NoError(t, err)
	return got
}

func TestRoundtripFuzz(t *testing.T) {
	f := func(payload []byte) bool {
		return bytes.Equal(payload, roundtrip(t, codec.DefaultLevel(), payload, 29))
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 30}))
}

func TestBestSpeedAndBestCompressionBothRoundtrip(t *testing.T) {
	payload := []byte("brotli at both ends of the level range")
	require.Equal(t, payload, roundtrip(t, codec.Fastest(), payload, 4096))
	require.Equal(t, payload, roundtrip(t, codec.Best(), payload, 4096))
}
