package h2wire

import (
	"github.com/kasimir-io/h2wire/hpack"
	"github.com/kasimir-io/h2wire/internal/wireutil"
)

// HeadersPriority is the optional stream-dependency prefix a HEADERS frame
// may carry when FlagPriority is set (RFC 7540 §6.2). Unlike a direct port
// of the stream-dependency parsing in this module's ancestor, Exclusive is
// kept as its own field rather than folded into StreamDependency, since
// the top bit is a distinct piece of information (RFC 7540 §5.3.1), not
// part of the 31-bit dependency id.
type HeadersPriority struct {
	StreamDependency uint32
	Exclusive        bool
	Weight           uint8
}

// Headers represents a HEADERS frame (RFC 7540 §6.2). Its HeaderBlock
// holds the (possibly incomplete) HPACK-encoded header block fragment;
// this module does not reassemble CONTINUATION frames into it, since
// CONTINUATION is out of scope (see the module's design notes) and any
// HEADERS frame missing END_HEADERS is a connection error the caller must
// raise before handing the fragment to the HPACK decoder.
type Headers struct {
	padded      bool
	priority    *HeadersPriority
	endStream   bool
	endHeaders  bool
	headerBlock []byte

	// fields holds the HPACK-decoded header fields once a Connection's
	// receive task has run this Headers' HeaderBlock through the decoder
	// (or the fields an outgoing Headers was built from, before the send
	// task encodes them into HeaderBlock). Callers on the decode side must
	// not retain these past the onFrame callback that received them: the
	// underlying hpack.Field values are released back to their pool when
	// this Headers is released.
	fields []*hpack.Field
}

func (h *Headers) Type() FrameType { return FrameHeaders }

func (h *Headers) Reset() {
	h.padded = false
	h.priority = nil
	h.endStream = false
	h.endHeaders = false
	h.headerBlock = h.headerBlock[:0]
	for _, f := range h.fields {
		hpack.ReleaseField(f)
	}
	h.fields = h.fields[:0]
}

// Fields returns the header fields decoded from (or pending encoding into)
// HeaderBlock, in wire order.
func (h *Headers) Fields() []*hpack.Field { return h.fields }

// SetFields replaces the pending fields an outgoing Headers will be
// encoded from. The send task calls AppendField for each of these and
// writes the result into HeaderBlock; it never touches raw HeaderBlock
// bytes set directly by a caller that already has an encoded block.
func (h *Headers) SetFields(fields []*hpack.Field) { h.fields = fields }

func (h *Headers) CopyTo(h2 *Headers) {
	h2.padded = h.padded
	h2.endStream = h.endStream
	h2.endHeaders = h.endHeaders
	h2.headerBlock = append(h2.headerBlock[:0], h.headerBlock...)
	if h.priority != nil {
		p := *h.priority
		h2.priority = &p
	} else {
		h2.priority = nil
	}
}

func (h *Headers) HeaderBlock() []byte { return h.headerBlock }

func (h *Headers) SetHeaderBlock(b []byte) {
	h.headerBlock = append(h.headerBlock[:0], b...)
}

func (h *Headers) EndStream() bool         { return h.endStream }
func (h *Headers) SetEndStream(v bool)     { h.endStream = v }
func (h *Headers) EndHeaders() bool        { return h.endHeaders }
func (h *Headers) SetEndHeaders(v bool)    { h.endHeaders = v }
func (h *Headers) Padded() bool            { return h.padded }
func (h *Headers) SetPadded(v bool)        { h.padded = v }
func (h *Headers) Priority() *HeadersPriority { return h.priority }
func (h *Headers) SetPriority(p *HeadersPriority) { h.priority = p }

func (h *Headers) Deserialize(frh *FrameHeader) error {
	if frh.Stream() == 0 {
		return wrapConnError(ProtocolError, errStreamIDZero)
	}

	flags := frh.Flags()
	payload := frh.payloadBytes()
	length := frh.Len()

	if flags.Has(FlagPadded) {
		var err error
		payload, err = wireutil.CutPadding(payload, length)
		if err != nil {
			return wrapConnError(ProtocolError, err)
		}
	}

	if flags.Has(FlagPriority) {
		if len(payload) < 5 {
			return wrapConnError(FrameSizeError, ErrMissingBytes)
		}
		raw := wireutil.BytesToUint32(payload)
		h.priority = &HeadersPriority{
			StreamDependency: raw & (1<<31 - 1),
			Exclusive:        raw&(1<<31) != 0,
			Weight:           payload[4],
		}
		payload = payload[5:]
	}

	h.padded = flags.Has(FlagPadded)
	h.endStream = flags.Has(FlagEndStream)
	h.endHeaders = flags.Has(FlagEndHeaders)
	h.headerBlock = append(h.headerBlock[:0], payload...)
	return nil
}

func (h *Headers) Serialize(frh *FrameHeader) error {
	flags := FrameFlags(0)
	if h.endStream {
		flags |= FlagEndStream
	}
	if h.endHeaders {
		flags |= FlagEndHeaders
	}

	var content []byte
	if h.priority != nil {
		flags |= FlagPriority
		raw := h.priority.StreamDependency & (1<<31 - 1)
		if h.priority.Exclusive {
			raw |= 1 << 31
		}
		content = wireutil.AppendUint32Bytes(content, raw)
		content = append(content, h.priority.Weight)
	}
	content = append(content, h.headerBlock...)

	if h.padded {
		flags |= FlagPadded
		content = wireutil.AddPadding(content)
	}

	frh.SetFlags(flags)
	frh.setPayload(content)
	return nil
}
