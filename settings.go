package h2wire

import "github.com/kasimir-io/h2wire/internal/wireutil"

// Setting wire ids (RFC 7540 §6.5.2).
const (
	SettingHeaderTableSize      uint16 = 0x1
	SettingEnablePush           uint16 = 0x2
	SettingMaxConcurrentStreams uint16 = 0x3
	SettingInitialWindowSize    uint16 = 0x4
	SettingMaxFrameSize         uint16 = 0x5
	SettingMaxHeaderListSize    uint16 = 0x6
)

const (
	DefaultHeaderTableSize      uint32 = 4096
	DefaultEnablePush           uint32 = 1
	DefaultMaxConcurrentStreams uint32 = 100
	DefaultInitialWindowSize    uint32 = 65535
	DefaultMaxHeaderListSize    uint32 = 1<<32 - 1

	MaxWindowSize = 1<<31 - 1
	maxFrameSize  = 1<<24 - 1

	settingEntryLen = 6
)

// Settings holds one endpoint's view of the six parameters RFC 7540 §6.5.2
// defines. A zero Settings is NOT the connection's default state: call
// DefaultSettings for that. Deserialize applies the deltas a SETTINGS frame
// carries onto whatever Settings already held — a SETTINGS frame changes
// only the parameters it lists (RFC 7540 §6.5: "the sender... updates the
// corresponding connection state"), it is never a full reset to defaults.
type Settings struct {
	HeaderTableSize      uint32
	EnablePush           bool
	MaxConcurrentStreams uint32
	InitialWindowSize    uint32
	MaxFrameSize         uint32
	MaxHeaderListSize    uint32

	ack     bool
	entries []byte
}

// DefaultSettings returns the values a connection assumes before any
// SETTINGS frame has been exchanged.
func DefaultSettings() *Settings {
	return &Settings{
		HeaderTableSize:      DefaultHeaderTableSize,
		EnablePush:           true,
		MaxConcurrentStreams: DefaultMaxConcurrentStreams,
		InitialWindowSize:    DefaultInitialWindowSize,
		MaxFrameSize:         DefaultMaxFrameSize,
		MaxHeaderListSize:    DefaultMaxHeaderListSize,
	}
}

func (s *Settings) Type() FrameType { return FrameSettings }

func (s *Settings) Reset() {
	*s = Settings{entries: s.entries[:0]}
}

func (s *Settings) CopyTo(s2 *Settings) {
	s2.HeaderTableSize = s.HeaderTableSize
	s2.EnablePush = s.EnablePush
	s2.MaxConcurrentStreams = s.MaxConcurrentStreams
	s2.InitialWindowSize = s.InitialWindowSize
	s2.MaxFrameSize = s.MaxFrameSize
	s2.MaxHeaderListSize = s.MaxHeaderListSize
	s2.ack = s.ack
}

func (s *Settings) Ack() bool     { return s.ack }
func (s *Settings) SetAck(v bool) { s.ack = v }

// ApplyTo applies the deltas s carries onto target, leaving any parameter s
// did not touch untouched on target. Use this instead of CopyTo when s came
// off the wire and target is live connection state.
func (s *Settings) ApplyTo(target *Settings) {
	for _, e := range s.touched() {
		switch e.id {
		case SettingHeaderTableSize:
			target.HeaderTableSize = e.value
		case SettingEnablePush:
			target.EnablePush = e.value != 0
		case SettingMaxConcurrentStreams:
			target.MaxConcurrentStreams = e.value
		case SettingInitialWindowSize:
			target.InitialWindowSize = e.value
		case SettingMaxFrameSize:
			target.MaxFrameSize = e.value
		case SettingMaxHeaderListSize:
			target.MaxHeaderListSize = e.value
		}
	}
}

// SetValue applies a single (id, value) override directly to s's fields,
// the same mapping Deserialize/ApplyTo use. It performs no range validation,
// since a caller building local settings is trusted in a way wire input
// is not.
func (s *Settings) SetValue(id uint16, value uint32) {
	switch id {
	case SettingHeaderTableSize:
		s.HeaderTableSize = value
	case SettingEnablePush:
		s.EnablePush = value != 0
	case SettingMaxConcurrentStreams:
		s.MaxConcurrentStreams = value
	case SettingInitialWindowSize:
		s.InitialWindowSize = value
	case SettingMaxFrameSize:
		s.MaxFrameSize = value
	case SettingMaxHeaderListSize:
		s.MaxHeaderListSize = value
	}
}

type settingEntry struct {
	id    uint16
	value uint32
}

// touched decodes the entries held from the last Deserialize, in wire
// order, without touching any field this Settings itself holds. Deserialize
// populates both s's own fields (for a caller that wants "what did the peer
// just send") and this entry list (for ApplyTo's delta semantics), since a
// later entry for the same id on the wire must win, and s's own struct
// fields can only hold one value per id.
func (s *Settings) touched() []settingEntry {
	var out []settingEntry
	for i := 0; i+settingEntryLen <= len(s.entries); i += settingEntryLen {
		b := s.entries[i : i+settingEntryLen]
		id := uint16(b[0])<<8 | uint16(b[1])
		value := wireutil.BytesToUint32(b[2:])
		out = append(out, settingEntry{id: id, value: value})
	}
	return out
}

func (s *Settings) Deserialize(frh *FrameHeader) error {
	if frh.Stream() != 0 {
		return wrapConnError(ProtocolError, errStreamIDNonzero)
	}

	payload := frh.payloadBytes()
	if frh.Flags().Has(FlagAck) {
		s.ack = true
		if len(payload) != 0 {
			return wrapConnError(FrameSizeError, ErrMissingBytes)
		}
		return nil
	}

	if len(payload)%settingEntryLen != 0 {
		return wrapConnError(FrameSizeError, ErrMissingBytes)
	}
	s.entries = append(s.entries[:0], payload...)

	for _, e := range s.touched() {
		switch e.id {
		case SettingHeaderTableSize:
			s.HeaderTableSize = e.value
		case SettingEnablePush:
			if e.value > 1 {
				return wrapConnError(ProtocolError, ErrBadSettingValue)
			}
			s.EnablePush = e.value != 0
		case SettingMaxConcurrentStreams:
			s.MaxConcurrentStreams = e.value
		case SettingInitialWindowSize:
			if e.value > MaxWindowSize {
				return wrapConnError(FlowControlError, ErrBadSettingValue)
			}
			s.InitialWindowSize = e.value
		case SettingMaxFrameSize:
			if e.value < DefaultMaxFrameSize || e.value > maxFrameSize {
				return wrapConnError(ProtocolError, ErrBadSettingValue)
			}
			s.MaxFrameSize = e.value
		case SettingMaxHeaderListSize:
			s.MaxHeaderListSize = e.value
		}
	}
	return nil
}

func (s *Settings) Serialize(frh *FrameHeader) error {
	if s.ack {
		frh.SetFlags(FlagAck)
		frh.setPayload(nil)
		return nil
	}

	var content []byte
	content = appendSetting(content, SettingHeaderTableSize, s.HeaderTableSize)
	if s.EnablePush {
		content = appendSetting(content, SettingEnablePush, 1)
	} else {
		content = appendSetting(content, SettingEnablePush, 0)
	}
	content = appendSetting(content, SettingMaxConcurrentStreams, s.MaxConcurrentStreams)
	content = appendSetting(content, SettingInitialWindowSize, s.InitialWindowSize)
	content = appendSetting(content, SettingMaxFrameSize, s.MaxFrameSize)
	content = appendSetting(content, SettingMaxHeaderListSize, s.MaxHeaderListSize)

	frh.SetFlags(0)
	frh.setPayload(content)
	return nil
}

func appendSetting(dst []byte, id uint16, value uint32) []byte {
	dst = append(dst, byte(id>>8), byte(id))
	return wireutil.AppendUint32Bytes(dst, value)
}
