package chunkio_test

import (
	"bytes"
	"io"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"

	"github.com/compression-driver/streamcodec/chunkio"
	"github.com/compression-driver/streamcodec/deflate"
	"github.com/compression-driver/streamcodec/gzip"
	"github.com/compression-driver/streamcodec/internal/testutil"
)

// drainEncoder pulls every chunk an Encoder produces into one buffer.
func drainEncoder(t *testing.T, e *chunkio.Encoder) []byte {
	t.Helper()
	var out bytes.Buffer
	for {
		chunk, err := e.Next()
		out.Write(chunk)
		if err == io.EOF {
			return out.Bytes()
		}
		require.NoError(t, err)
	}
}

// drainDecoder pulls every chunk a Decoder produces into one buffer.
func drainDecoder(t *testing.T, d *chunkio.Decoder) []byte {
	t.Helper()
	var out bytes.Buffer
	for {
		chunk, err := d.Next()
		out.Write(chunk)
		if err == io.EOF {
			return out.Bytes()
		}
		require.NoError(t, err)
	}
}

func compress(t *testing.T, payload []byte, srcChunk int) []byte {
	t.Helper()
	e := chunkio.NewEncoder(testutil.RoundtripReader(payload, srcChunk), deflate.NewEncoder())
	return drainEncoder(t, e)
}

// TestRoundtripFuzz exercises spec §8 property 2 (chunk partitioning): the
// same payload fed through at varying source-chunk and output-chunk
// granularities must always round-trip to the original bytes.
func TestRoundtripFuzz(t *testing.T) {
	f := func(payload []byte) bool {
		compressed := compress(t, payload, 7)
		d := chunkio.NewDecoderSize(testutil.RoundtripReader(compressed, 3), deflate.NewDecoder(), 5)
		return bytes.Equal(payload, drainDecoder(t, d))
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 50}))
}

func TestChunkPartitioningIsInvariant(t *testing.T) {
	payload := bytes.Repeat([]byte("chunked stream invariance "), 500)
	compressed := compress(t, payload, 4096)

	for _, srcChunk := range []int{1, 2, 17, 4096} {
		for _, outChunk := range []int{1, 3, 64} {
			d := chunkio.NewDecoderSize(testutil.RoundtripReader(compressed, srcChunk), deflate.NewDecoder(), outChunk)
			require.Equal(t, payload, drainDecoder(t, d))
		}
	}
}

func TestEmptySourceRoundtrips(t *testing.T) {
	compressed := compress(t, nil, 4096)
	d := chunkio.NewDecoder(testutil.RoundtripReader(compressed, 4096), deflate.NewDecoder())
	require.Empty(t, drainDecoder(t, d))
}

// TestGzipHeaderAndFooterAcrossChunkBoundaries drives a full gzip member
// (header, body, footer) through the chunk-stream adapter with a source
// chunk size of 1, so every RFC1952 header field and the CRC32/ISIZE footer
// are each observed split across many source chunks and codec steps.
func TestGzipHeaderAndFooterAcrossChunkBoundaries(t *testing.T) {
	payload := []byte("a gzip member driven through the chunk-stream adapter")
	e := chunkio.NewEncoder(testutil.RoundtripReader(payload, 4096), gzip.NewEncoder())
	member := drainEncoder(t, e)

	d := chunkio.NewDecoder(testutil.RoundtripReader(member, 1), gzip.NewDecoder())
	require.Equal(t, payload, drainDecoder(t, d))
}

func TestMultiMemberGzipAcrossChunks(t *testing.T) {
	e1 := chunkio.NewEncoder(testutil.RoundtripReader([]byte("first"), 4096), gzip.NewEncoder())
	m1 := drainEncoder(t, e1)
	e2 := chunkio.NewEncoder(testutil.RoundtripReader([]byte("second"), 4096), gzip.NewEncoder())
	m2 := drainEncoder(t, e2)
	blob := append(append([]byte{}, m1...), m2...)

	d := chunkio.NewDecoder(testutil.RoundtripReader(blob, 3), gzip.NewDecoder())
	d.SetMultipleMembers(true)
	require.Equal(t, "firstsecond", string(drainDecoder(t, d)))
}
