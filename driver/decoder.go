package driver

import (
	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/partialbuf"
)

// DecState is the decoder FSM state (spec §3 "Driver state (Decoder FSM)").
type DecState int

const (
	Decoding DecState = iota
	DecFlushing
	Next
	DecDone
)

func (s DecState) String() string {
	switch s {
	case Decoding:
		return "Decoding"
	case DecFlushing:
		return "Flushing"
	case Next:
		return "Next"
	case DecDone:
		return "Done"
	default:
		return "DecState(?)"
	}
}

// Decoder drives a codec.Decoder through Decoding -> Flushing -> Next ->
// Decoding (repeat, for multi-member streams) -> ... -> Done, per spec §4.4.
//
// The very first Step against a fresh Decoder begins with a probe against a
// synthesized empty input, whatever the caller passes: this lets a decoder
// that can recognize an empty stream (spec §8 property 3, the zstd-empty
// scenario) finish without ever touching the real source, and it is the
// only place a codec error is suppressed (spec §7, §9). Unless the probe
// reaches Done, that same Step then goes on with the caller's real input,
// as every following Step does.
type Decoder struct {
	codec codec.Decoder

	state     DecState
	primed    bool // true once the synthetic-empty probe call has run
	multiple  bool // multiple_members toggle, settable before the first Step
	multiLock bool // spec §9 "multi-member latch", see run()
}

// NewDecoder wraps c in a fresh Decoding-state driver.
func NewDecoder(c codec.Decoder) *Decoder {
	return &Decoder{codec: c, state: Decoding}
}

// State reports the current FSM state.
func (d *Decoder) State() DecState { return d.state }

// SetMultipleMembers enables or disables multi-member decoding (spec §4.4,
// §6). It must be called before the first Step.
func (d *Decoder) SetMultipleMembers(v bool) { d.multiple = v }

// Step advances the FSM once against in/out. in may be a zero-length buffer
// to mean "no more input will ever arrive" (the caller's source is at EOF);
// it must never be nil once priming has happened.
func (d *Decoder) Step(in, out *partialbuf.Buffer) error {
	if !d.primed {
		probe := partialbuf.New(nil)
		if err := d.run(probe, out, true); err != nil {
			return err
		}
		d.primed = true
		if d.state == DecDone {
			return nil
		}
	}
	return d.run(in, out, false)
}

// run executes the FSM loop described in spec §4.4 starting from d.state,
// with first as the initial "is this the synthesized probe" flag. first is
// local to one run: it is forced true again for exactly one Next check
// right after a Flushing->Next transition (spec §9's latch reasoning
// mirrors this — the decoder must not assume EOF just because the bytes it
// happened to have on hand this round were fully consumed).
func (d *Decoder) run(in, out *partialbuf.Buffer, first bool) error {
	for {
		switch d.state {
		case Decoding:
			empty := in.IsEmpty()
			if empty && !first {
				d.state = DecFlushing
				d.multiLock = true
				continue
			}
			ended, err := d.codec.Decode(in, out)
			if err != nil {
				if first {
					return nil // suppress: see type doc
				}
				return err
			}
			if ended {
				d.state = DecFlushing
				continue
			}
			return nil // did not end the member; solicit more input/output

		case DecFlushing:
			ok, err := d.codec.Flush(out)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if d.multiple && !d.multiLock {
				if err := d.codec.Reinit(); err != nil {
					return err
				}
				d.state = Next
				first = true
			} else {
				d.state = DecDone
				return nil
			}

		case Next:
			empty := in.IsEmpty()
			if empty {
				if first {
					return nil // need more bytes to decide if another member follows
				}
				d.state = DecDone
				return nil
			}
			d.multiLock = false
			d.state = Decoding
			first = false

		case DecDone:
			return nil
		}

		if out.IsEmpty() {
			return nil
		}
	}
}

// Finish asserts end-of-input. If the decoder is not in DecDone, this
// surfaces ErrUnexpectedEOF per spec §4.4's truncation policy.
func (d *Decoder) Finish(out *partialbuf.Buffer) error {
	if d.state == DecDone {
		return nil
	}
	ok, err := d.codec.Finish(out)
	if err != nil {
		return err
	}
	if !ok {
		return codec.ErrUnexpectedEOF
	}
	d.state = DecDone
	return nil
}
