// Package gzip implements the codec.Encoder/codec.Decoder contract for
// RFC1952 gzip framing: a header overlay, a raw DEFLATE body, and a
// CRC32+ISIZE footer overlay (spec §4.9, the worked framed-codec example).
//
// The body is driven through the same blocking bridge as package deflate,
// but the header and footer are parsed and emitted by hand here, byte at a
// time where the format requires it, so an adapter fed one or two bytes per
// call (as the chunkio one-byte-chunk and the bufread two-byte-chunk
// "extra header fields" tests do) still makes progress.
// The header-field skip logic (FEXTRA/FNAME/FCOMMENT/FHCRC) follows the
// layout klauspost/pgzip's and rclone's vendored gunzip readers parse.
package gzip

import (
	"compress/flate"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/compression-driver/streamcodec/codec"
	"github.com/compression-driver/streamcodec/codec/internal/blocking"
	"github.com/compression-driver/streamcodec/partialbuf"
)

const (
	magic1    = 0x1f
	magic2    = 0x8b
	cmDeflate = 8
	osUnknown = 255
)

const (
	flgFTEXT = 1 << iota
	flgFHCRC
	flgFEXTRA
	flgFNAME
	flgFCOMMENT
)

// Level is re-exported so callers don't need to import codec directly.
type Level = codec.Level

func resolveLevel(l Level) int {
	return l.Resolve(flate.HuffmanOnly, flate.DefaultCompression, flate.BestCompression)
}

// --- Encoder ---------------------------------------------------------------

type encStage int

const (
	encHeader encStage = iota
	encBody
	encFooter
	encDone
)

// Encoder compresses into a gzip member. Re-used across members of a
// concatenated stream is not supported by a single Encoder; callers writing
// multiple members construct one Encoder per member, as spec §6 describes.
type Encoder struct {
	stage  encStage
	header [10]byte
	hdrPos int

	body *blocking.EncodeAdapter
	crc  uint32
	size uint32

	footer [8]byte
	ftrPos int
}

// NewEncoder creates an Encoder at the codec's default level.
func NewEncoder() *Encoder { return NewEncoderLevel(codec.DefaultLevel()) }

// NewEncoderLevel creates an Encoder at the given level.
func NewEncoderLevel(level Level) *Encoder {
	a := blocking.NewEncodeAdapter()
	fw, err := flate.NewWriter(a.Sink(), resolveLevel(level))
	if err != nil {
		fw, _ = flate.NewWriter(a.Sink(), flate.DefaultCompression)
	}
	a.SetWriter(fw)
	e := &Encoder{body: a}
	e.header[0], e.header[1], e.header[2] = magic1, magic2, cmDeflate
	e.header[9] = osUnknown
	return e
}

func (e *Encoder) drainHeader(out *partialbuf.Buffer) {
	if e.stage != encHeader {
		return
	}
	n := copy(out.UnwrittenMut(), e.header[e.hdrPos:])
	out.Advance(n)
	e.hdrPos += n
	if e.hdrPos == len(e.header) {
		e.stage = encBody
	}
}

// Encode writes any remaining header bytes, then feeds in through the
// deflate body, updating the running CRC32 and size over exactly the bytes
// the body actually consumed this call.
func (e *Encoder) Encode(in, out *partialbuf.Buffer) error {
	e.drainHeader(out)
	if e.stage != encBody || out.IsEmpty() {
		return nil
	}
	before := len(in.Written())
	if err := e.body.Encode(in, out); err != nil {
		return err
	}
	if consumed := in.Written()[before:]; len(consumed) > 0 {
		e.crc = crc32.Update(e.crc, crc32.IEEETable, consumed)
		e.size += uint32(len(consumed))
	}
	return nil
}

// Flush drains the deflate body's buffered output. Before any body bytes
// have been written there is nothing to flush.
func (e *Encoder) Flush(out *partialbuf.Buffer) (bool, error) {
	e.drainHeader(out)
	if e.stage == encHeader {
		return false, nil
	}
	if e.stage != encBody {
		return true, nil
	}
	return e.body.Flush(out)
}

// Finish closes the deflate body and appends the CRC32+ISIZE trailer.
func (e *Encoder) Finish(out *partialbuf.Buffer) (bool, error) {
	e.drainHeader(out)
	if e.stage == encHeader {
		return false, nil
	}
	if e.stage == encBody {
		ok, err := e.body.Finish(out)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		binary.LittleEndian.PutUint32(e.footer[0:4], e.crc)
		binary.LittleEndian.PutUint32(e.footer[4:8], e.size)
		e.stage = encFooter
	}
	if e.stage == encFooter {
		n := copy(out.UnwrittenMut(), e.footer[e.ftrPos:])
		out.Advance(n)
		e.ftrPos += n
		if e.ftrPos == len(e.footer) {
			e.stage = encDone
			return true, nil
		}
		return false, nil
	}
	return true, nil
}

// --- Decoder -----------------------------------------------------------

// decStage orders every header sub-field plus the body and footer so a
// fixed-size fields can advance with a plain increment, and variable-length
// or optional fields dispatch to the right successor via the afterX
// helpers below.
type decStage int

const (
	hMagic1 decStage = iota
	hMagic2
	hCM
	hFLG
	hMTIME0
	hMTIME1
	hMTIME2
	hMTIME3
	hXFL
	hOS
	hExtraLen0
	hExtraLen1
	hExtraData
	hName
	hComment
	hHCRC0
	hHCRC1
	stageBody
	stageFooter
	stageMemberEnd
)

// Decoder decompresses one or more concatenated gzip members, validating
// each member's CRC32+ISIZE trailer. Multi-member sequencing (Reinit
// between members) is owned by driver.Decoder; this type only needs to
// reset its own byte-level state when Reinit is called.
type Decoder struct {
	stage     decStage
	flg       byte
	xlen      int
	extraRead int

	body *blocking.DecodeAdapter
	crc  uint32
	size uint32

	footer    [8]byte
	footerPos int
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{body: blocking.NewDecodeAdapter(func(r io.Reader) (io.Reader, error) {
		return flate.NewReader(byteReader{r}), nil
	})}
}

// byteReader adds io.ByteReader to the body's pipe, which makes
// compress/flate read exactly the DEFLATE body and nothing past it, so the
// trailer bytes stay in the caller's input for the footer stage.
type byteReader struct{ io.Reader }

func (b byteReader) ReadByte() (byte, error) {
	var one [1]byte
	if _, err := io.ReadFull(b.Reader, one[:]); err != nil {
		return 0, err
	}
	return one[0], nil
}

func (d *Decoder) afterFixedHeader() decStage {
	if d.flg&flgFEXTRA != 0 {
		return hExtraLen0
	}
	return d.afterExtra()
}

func (d *Decoder) afterExtra() decStage {
	if d.flg&flgFNAME != 0 {
		return hName
	}
	return d.afterName()
}

func (d *Decoder) afterName() decStage {
	if d.flg&flgFCOMMENT != 0 {
		return hComment
	}
	return d.afterComment()
}

func (d *Decoder) afterComment() decStage {
	if d.flg&flgFHCRC != 0 {
		return hHCRC0
	}
	return stageBody
}

func (d *Decoder) consumeHeaderByte(b byte) error {
	switch d.stage {
	case hMagic1:
		if b != magic1 {
			return codec.Invalid("gzip: bad magic byte")
		}
		d.stage = hMagic2
	case hMagic2:
		if b != magic2 {
			return codec.Invalid("gzip: bad magic byte")
		}
		d.stage = hCM
	case hCM:
		if b != cmDeflate {
			return codec.Invalid("gzip: unsupported compression method %d", b)
		}
		d.stage = hFLG
	case hFLG:
		d.flg = b
		d.stage = hMTIME0
	case hMTIME0, hMTIME1, hMTIME2:
		d.stage++
	case hMTIME3:
		d.stage = hXFL
	case hXFL:
		d.stage = hOS
	case hOS:
		d.stage = d.afterFixedHeader()
	case hExtraLen0:
		d.xlen = int(b)
		d.stage = hExtraLen1
	case hExtraLen1:
		d.xlen |= int(b) << 8
		d.extraRead = 0
		if d.xlen == 0 {
			d.stage = d.afterExtra()
		} else {
			d.stage = hExtraData
		}
	case hExtraData:
		d.extraRead++
		if d.extraRead >= d.xlen {
			d.stage = d.afterExtra()
		}
	case hName:
		if b == 0 {
			d.stage = d.afterName()
		}
	case hComment:
		if b == 0 {
			d.stage = d.afterComment()
		}
	case hHCRC0:
		d.stage = hHCRC1
	case hHCRC1:
		d.stage = stageBody
	}
	return nil
}

// Decode advances through whatever stage it's currently in: header bytes
// one at a time, then the deflate body in bulk, then the 8-byte trailer.
// It returns true exactly once, when the trailer has been fully validated.
func (d *Decoder) Decode(in, out *partialbuf.Buffer) (bool, error) {
	for {
		switch {
		case d.stage < stageBody:
			if in.IsEmpty() {
				return false, nil
			}
			b := in.Unwritten()[0]
			in.Advance(1)
			if err := d.consumeHeaderByte(b); err != nil {
				return false, err
			}

		case d.stage == stageBody:
			before := len(out.Written())
			done, err := d.body.Decode(in, out)
			if err != nil {
				return false, codec.Invalid("gzip: deflate body: %v", err)
			}
			if produced := out.Written()[before:]; len(produced) > 0 {
				d.crc = crc32.Update(d.crc, crc32.IEEETable, produced)
				d.size += uint32(len(produced))
			}
			if !done {
				return false, nil
			}
			d.stage = stageFooter

		case d.stage == stageFooter:
			for d.footerPos < len(d.footer) && !in.IsEmpty() {
				d.footer[d.footerPos] = in.Unwritten()[0]
				in.Advance(1)
				d.footerPos++
			}
			if d.footerPos < len(d.footer) {
				return false, nil
			}
			wantCRC := binary.LittleEndian.Uint32(d.footer[0:4])
			wantSize := binary.LittleEndian.Uint32(d.footer[4:8])
			if wantCRC != d.crc || wantSize != d.size {
				return false, codec.Invalid("gzip: trailer checksum or size mismatch")
			}
			d.stage = stageMemberEnd
			return true, nil

		default:
			return true, nil
		}
	}
}

// Flush reports whether the member has actually reached a validated
// boundary. The driver calls Flush both when Decode just confirmed a clean
// member end (stage is stageMemberEnd) and, separately, when the real
// input source has run out mid-member — those two cases must not be
// conflated, or a truncated stream would silently report success instead
// of reaching the Finish-time truncation check. In the body stage Flush
// first emits the body's remaining decoded output, moving on to the footer
// stage once the body has ended.
func (d *Decoder) Flush(out *partialbuf.Buffer) (bool, error) {
	if d.stage == stageBody {
		before := len(out.Written())
		done, err := d.body.Flush(out)
		if produced := out.Written()[before:]; len(produced) > 0 {
			d.crc = crc32.Update(d.crc, crc32.IEEETable, produced)
			d.size += uint32(len(produced))
		}
		if err != nil {
			return false, codec.Invalid("gzip: deflate body: %v", err)
		}
		if done {
			d.stage = stageFooter
		}
	}
	return d.stage == stageMemberEnd, nil
}

// Finish reports whether the stream ended on a clean member boundary.
func (d *Decoder) Finish(out *partialbuf.Buffer) (bool, error) {
	return d.stage == hMagic1, nil
}

// Reinit resets all per-member state so the same Decoder can parse the next
// concatenated member.
func (d *Decoder) Reinit() error {
	if err := d.body.Reinit(); err != nil {
		return err
	}
	d.stage = hMagic1
	d.flg = 0
	d.xlen = 0
	d.extraRead = 0
	d.crc = 0
	d.size = 0
	d.footerPos = 0
	return nil
}

var _ codec.Encoder = (*Encoder)(nil)
var _ codec.Decoder = (*Decoder)(nil)
