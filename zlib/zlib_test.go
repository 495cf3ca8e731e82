package zlib_test

import (
	"bytes"
	"io"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"

	"github.com/compression-driver/streamcodec/bufread"
	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/internal/testutil"
	"github.com/compression-driver/streamcodec/zlib"
)

func roundtrip(t *testing.T, payload []byte, chunk int) []byte {
	t.Helper()
	compressed, err := io.ReadAll(bufread.NewEncoder(bytes.NewReader(payload), zlib.NewEncoder()))
	require.NoError(t, err)

	got, err := io.ReadAll(bufread.NewDecoder(testutil.NewFlakyReader(compressed, chunk), zlib.NewDecoder()))
	require.NoError(t, err)
	return got
}

func TestRoundtripFuzz(t *testing.T) {
	f := func(payload []byte) bool {
		return bytes.Equal(payload, roundtrip(t, payload, 19))
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 50}))
}

func TestAdlerMismatchIsInvalidData(t *testing.T) {
	compressed, err := io.ReadAll(bufread.NewEncoder(bytes.NewReader([]byte("zlib framed data")), zlib.NewEncoder()))
	require.NoError(t, err)
	corrupted := append([]byte{}, compressed...)
	corrupted[len(corrupted)-1] ^= 0xff

	_, err = io.ReadAll(bufread.NewDecoder(bytes.NewReader(corrupted), zlib.NewDecoder()))
	require.Error(t, err)
}
