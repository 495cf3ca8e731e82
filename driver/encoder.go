// Package driver implements the two incremental state machines that
// sequence codec.Encoder/codec.Decoder calls against partialbuf.Buffer
// cursors (spec §4.3, §4.4). The three I/O adapters (bufread, write,
// chunkio) are thin shells around these two types; neither state machine
// knows about the I/O style it's being driven from.
package driver

import (
	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/partialbuf"
)

// EncState is the encoder FSM state (spec §3 "Driver state (Encoder FSM)").
type EncState int

const (
	Encoding EncState = iota
	Flushing
	Finishing
	Done
)

func (s EncState) String() string {
	switch s {
	case Encoding:
		return "Encoding"
	case Flushing:
		return "Flushing"
	case Finishing:
		return "Finishing"
	case Done:
		return "Done"
	default:
		return "EncState(?)"
	}
}

// Encoder drives a codec.Encoder through Encoding -> Flushing -> Finishing
// -> Done. It holds no I/O of its own; callers feed it PartialBuffer pairs
// and call Step repeatedly, exactly as spec §4.3 describes.
type Encoder struct {
	codec codec.Encoder
	state EncState
	read  bool // bytes read from `in` this run, reset when re-entering Encoding
}

// NewEncoder wraps c in a fresh Encoding-state driver.
func NewEncoder(c codec.Encoder) *Encoder {
	return &Encoder{codec: c, state: Encoding}
}

// State reports the current FSM state.
func (e *Encoder) State() EncState { return e.state }

// Step advances the FSM once against the given input/output pair. in may be
// nil to signal the producer is exhausted for this call (not necessarily
// forever — see the bufread/write adapters). Step returns after one of:
//   - out's unwritten region becomes empty (caller must drain output)
//   - the FSM needs more input and in was nil or already consumed
//   - the FSM reaches Done
//   - an error occurs
//
// Step on an already-Done encoder is a no-op.
func (e *Encoder) Step(in, out *partialbuf.Buffer) error {
	for {
		switch e.state {
		case Encoding:
			if in == nil {
				if e.read {
					e.state = Flushing
					continue
				}
				return nil // solicit more input
			}
			if in.IsEmpty() {
				e.state = Finishing
				continue
			}
			before := len(in.Written())
			if err := e.codec.Encode(in, out); err != nil {
				return err
			}
			if len(in.Written()) != before {
				e.read = true
			}
			return nil // solicit more input, per spec §4.3

		case Flushing:
			ok, err := e.codec.Flush(out)
			if err != nil {
				return err
			}
			if ok {
				e.state = Encoding
				e.read = false
			} else {
				return nil // out is full; caller must drain
			}

		case Finishing:
			ok, err := e.codec.Finish(out)
			if err != nil {
				return err
			}
			if ok {
				e.state = Done
				return nil
			}
			// remain in Finishing; loop again only if out still has room

		case Done:
			return nil
		}

		if out.IsEmpty() {
			return nil
		}
	}
}
