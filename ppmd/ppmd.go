// Package ppmd is a placeholder. None of the retrieval pack's libraries
// implement PPMd, and the original project itself carries it as an
// optional, rarely-built format rather than a committed one — this package
// mirrors that by existing but refusing to run, rather than being silently
// absent from the package layout.
package ppmd

import (
	"errors"

	"github.com/compression-driver/streamcodec/codec"
)

// ErrNotImplemented is returned by every constructor in this package.
var ErrNotImplemented = errors.New("ppmd: not implemented")

// NewEncoder always fails: see ErrNotImplemented.
func NewEncoder() (codec.Encoder, error) { return nil, ErrNotImplemented }

// NewDecoder always fails: see ErrNotImplemented.
func NewDecoder() (codec.Decoder, error) { return nil, ErrNotImplemented }
