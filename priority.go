package h2wire

import "github.com/kasimir-io/h2wire/internal/wireutil"

// Priority represents a PRIORITY frame (RFC 7540 §6.3). Exclusive is kept
// as its own field rather than masked away, since this module's ancestor
// discarded the exclusive-dependency bit on SetStreamDependency and that
// bit carries real information a correct implementation must preserve.
type Priority struct {
	streamDependency uint32
	exclusive        bool
	weight           byte
}

func (p *Priority) Type() FrameType { return FramePriority }

func (p *Priority) Reset() {
	p.streamDependency = 0
	p.exclusive = false
	p.weight = 0
}

func (p *Priority) CopyTo(p2 *Priority) {
	p2.streamDependency = p.streamDependency
	p2.exclusive = p.exclusive
	p2.weight = p.weight
}

func (p *Priority) StreamDependency() uint32 { return p.streamDependency }

func (p *Priority) SetStreamDependency(stream uint32) {
	p.streamDependency = stream & (1<<31 - 1)
}

func (p *Priority) Exclusive() bool        { return p.exclusive }
func (p *Priority) SetExclusive(v bool)    { p.exclusive = v }
func (p *Priority) Weight() byte           { return p.weight }
func (p *Priority) SetWeight(w byte)       { p.weight = w }

func (p *Priority) Deserialize(frh *FrameHeader) error {
	if frh.Stream() == 0 {
		return wrapConnError(ProtocolError, errStreamIDZero)
	}

	payload := frh.payloadBytes()
	if len(payload) != 5 {
		return wrapConnError(FrameSizeError, ErrMissingBytes)
	}
	raw := wireutil.BytesToUint32(payload)
	p.streamDependency = raw & (1<<31 - 1)
	p.exclusive = raw&(1<<31) != 0
	p.weight = payload[4]
	return nil
}

func (p *Priority) Serialize(frh *FrameHeader) error {
	raw := p.streamDependency & (1<<31 - 1)
	if p.exclusive {
		raw |= 1 << 31
	}
	content := wireutil.AppendUint32Bytes(nil, raw)
	content = append(content, p.weight)
	frh.setPayload(content)
	return nil
}
