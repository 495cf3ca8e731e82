package ppmd_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/compression-driver/streamcodec/ppmd"
)

func TestConstructorsAlwaysFail(t *testing.T) {
	_, err := ppmd.NewEncoder()
	require.True(t, errors.Is(err, ppmd.ErrNotImplemented))

	_, err = ppmd.NewDecoder()
	require.True(t, errors.Is(err, ppmd.ErrNotImplemented))
}
