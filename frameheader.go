package h2wire

import (
	"bufio"
	"io"
	"sync"

	"github.com/valyala/bytebufferpool"

	"github.com/kasimir-io/h2wire/internal/wireutil"
)

const (
	// FrameHeaderLen is the fixed 9-octet frame header size (RFC 7540 §4.1).
	FrameHeaderLen = 9
	// DefaultMaxFrameSize is the floor SETTINGS_MAX_FRAME_SIZE may not go
	// below (RFC 7540 §6.5.2), and this module's default before any
	// SETTINGS exchange completes.
	DefaultMaxFrameSize = 1 << 14
)

var frameHeaderPool = sync.Pool{
	New: func() interface{} { return &FrameHeader{} },
}

// FrameHeader is one on-the-wire frame: the 9-octet fixed header plus its
// payload, decoded (via Body) into one of the supported Frame variants.
//
// A FrameHeader must not be used from more than one goroutine at a time;
// callers that hand one off between the recv task and a dispatch queue
// must not touch it again until it is released.
type FrameHeader struct {
	length int
	kind   FrameType
	flags  FrameFlags
	stream uint32

	maxLen uint32

	rawHeader [FrameHeaderLen]byte
	payload   *bytebufferpool.ByteBuffer

	fr Frame
}

// AcquireFrameHeader gets a FrameHeader from the pool.
func AcquireFrameHeader() *FrameHeader {
	frh := frameHeaderPool.Get().(*FrameHeader)
	frh.Reset()
	return frh
}

// ReleaseFrameHeader releases frh's body and buffer and returns frh to the
// pool.
func ReleaseFrameHeader(frh *FrameHeader) {
	ReleaseFrame(frh.fr)
	if frh.payload != nil {
		bytebufferpool.Put(frh.payload)
		frh.payload = nil
	}
	frameHeaderPool.Put(frh)
}

// Reset clears frh for reuse, without touching an acquired payload buffer
// (callers release that separately via ReleaseFrameHeader).
func (frh *FrameHeader) Reset() {
	frh.kind = 0
	frh.flags = 0
	frh.stream = 0
	frh.length = 0
	frh.maxLen = DefaultMaxFrameSize
	frh.fr = nil
}

func (frh *FrameHeader) Type() FrameType     { return frh.kind }
func (frh *FrameHeader) Flags() FrameFlags   { return frh.flags }
func (frh *FrameHeader) SetFlags(f FrameFlags) { frh.flags = f }
func (frh *FrameHeader) Stream() uint32      { return frh.stream }

// SetStream sets the stream id. The reserved top bit is left untouched so
// a caller that wants to preserve it on a re-serialize can.
func (frh *FrameHeader) SetStream(stream uint32) { frh.stream = stream }

func (frh *FrameHeader) Len() int        { return frh.length }
func (frh *FrameHeader) MaxLen() uint32  { return frh.maxLen }
func (frh *FrameHeader) Body() Frame     { return frh.fr }

func (frh *FrameHeader) SetBody(fr Frame) {
	if fr == nil {
		panic("h2wire: FrameHeader body cannot be nil")
	}
	frh.kind = fr.Type()
	frh.fr = fr
}

func (frh *FrameHeader) parseValues(header []byte) {
	frh.length = int(wireutil.BytesToUint24(header[:3]))
	frh.kind = FrameType(header[3])
	frh.flags = FrameFlags(header[4])
	frh.stream = wireutil.BytesToUint32(header[5:]) & (1<<31 - 1)
}

func (frh *FrameHeader) buildHeader(header []byte) {
	wireutil.Uint24ToBytes(header[:3], uint32(frh.length))
	header[3] = byte(frh.kind)
	header[4] = byte(frh.flags)
	wireutil.Uint32ToBytes(header[5:], frh.stream)
}

func (frh *FrameHeader) checkLen() error {
	if frh.maxLen != 0 && frh.length > int(frh.maxLen) {
		return ErrPayloadExceeds
	}
	return nil
}

// payloadBytes returns the decoded payload, or nil if the frame carried no
// payload.
func (frh *FrameHeader) payloadBytes() []byte {
	if frh.payload == nil {
		return nil
	}
	return frh.payload.B
}

// ReadFrameFrom reads one frame using the default max frame size.
func ReadFrameFrom(br *bufio.Reader) (*FrameHeader, error) {
	return ReadFrameFromWithSize(br, DefaultMaxFrameSize)
}

// ReadFrameFromWithSize reads one frame, rejecting payloads larger than
// max (the locally negotiated SETTINGS_MAX_FRAME_SIZE).
func ReadFrameFromWithSize(br *bufio.Reader, max uint32) (*FrameHeader, error) {
	frh := AcquireFrameHeader()
	frh.maxLen = max
	if err := frh.readFrom(br); err != nil {
		ReleaseFrameHeader(frh)
		return nil, err
	}
	return frh, nil
}

func (frh *FrameHeader) readFrom(br *bufio.Reader) error {
	header, err := br.Peek(FrameHeaderLen)
	if err != nil {
		return err
	}
	if _, err := br.Discard(FrameHeaderLen); err != nil {
		return err
	}

	frh.parseValues(header)
	if err := frh.checkLen(); err != nil {
		return err
	}

	frh.fr = AcquireFrame(frh.kind)
	if frh.fr == nil {
		if frh.length > 0 {
			if _, err := br.Discard(frh.length); err != nil {
				return err
			}
		}
		return ErrUnknownFrameType
	}

	if frh.length > 0 {
		frh.payload = bytebufferpool.Get()
		frh.payload.B = wireutil.Resize(frh.payload.B, frh.length)
		if _, err := io.ReadFull(br, frh.payload.B); err != nil {
			return err
		}
	}

	return frh.fr.Deserialize(frh)
}

// WriteTo serializes frh's body and writes the full frame (header +
// payload) to w.
func (frh *FrameHeader) WriteTo(w *bufio.Writer) (int64, error) {
	if frh.payload == nil {
		frh.payload = bytebufferpool.Get()
	}
	frh.payload.Reset()

	if err := frh.fr.Serialize(frh); err != nil {
		return 0, err
	}
	frh.length = len(frh.payload.B)
	frh.buildHeader(frh.rawHeader[:])

	n, err := w.Write(frh.rawHeader[:])
	wb := int64(n)
	if err != nil {
		return wb, err
	}
	n, err = w.Write(frh.payload.B)
	wb += int64(n)
	return wb, err
}

// setPayload replaces frh's payload buffer contents with src, used by a
// Frame's Serialize implementation to build its wire body.
func (frh *FrameHeader) setPayload(src []byte) {
	if frh.payload == nil {
		frh.payload = bytebufferpool.Get()
	}
	frh.payload.B = append(frh.payload.B[:0], src...)
}
