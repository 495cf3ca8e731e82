package bzip2_test

import (
	"bytes"
	"io"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"

	"github.com/compression-driver/streamcodec/bufread"
	"github.com/compression-driver/streamcodec/bzip2"
	"github.com/compression-driver/streamcodec/internal/testutil"
)

func roundtrip(t *testing.T, payload []byte, chunk int) []byte {
	t.Helper()
	compressed, err := io.ReadAll(bufread.NewEncoder(bytes.NewReader(payload), bzip2.NewEncoder()))
	require.NoError(t, err)

	got, err := io.ReadAll(bufread.NewDecoder(testutil.NewFlakyReader(compressed, chunk), bzip2.NewDecoder()))
	require.NoError(t, err)
	return got
}

func TestRoundtripFuzz(t *testing.T) {
	f := func(payload []byte) bool {
		return bytes.Equal(payload, roundtrip(t, payload, 53))
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 20}))
}

func TestLargeHighlyCompressiblePayload(t *testing.T) {
	payload := bytes.Repeat([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), 10000)
	got := roundtrip(t, payload, 4096)
	require.Equal(t, payload, got)
}
