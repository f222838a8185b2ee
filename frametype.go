package h2wire

import "sync"

// FrameType identifies an HTTP/2 frame's type octet (RFC 7540 §4.1). Only
// the four types this module speaks are given names; any other value
// parses as far as the generic FrameHeader and is then rejected with
// ErrUnknownFrameType.
type FrameType byte

const (
	FrameHeaders  FrameType = 0x1
	FramePriority FrameType = 0x2
	FrameSettings FrameType = 0x4
	FrameGoAway   FrameType = 0x7
)

func (t FrameType) String() string {
	switch t {
	case FrameHeaders:
		return "HEADERS"
	case FramePriority:
		return "PRIORITY"
	case FrameSettings:
		return "SETTINGS"
	case FrameGoAway:
		return "GOAWAY"
	default:
		return "UNKNOWN"
	}
}

// FrameFlags is the frame header's flags octet. Only the bits the four
// supported frame types actually define are named.
type FrameFlags byte

const (
	FlagAck        FrameFlags = 0x1 // SETTINGS
	FlagEndStream  FrameFlags = 0x1 // HEADERS
	FlagEndHeaders FrameFlags = 0x4 // HEADERS
	FlagPadded     FrameFlags = 0x8 // HEADERS
	FlagPriority   FrameFlags = 0x20 // HEADERS
)

func (f FrameFlags) Has(flag FrameFlags) bool { return f&flag != 0 }

// Frame is the tagged-variant payload a FrameHeader carries: one of
// *Headers, *Priority, *Settings, *GoAway.
type Frame interface {
	Type() FrameType
	Reset()
	// Deserialize populates the frame from frh's already-read payload.
	Deserialize(frh *FrameHeader) error
	// Serialize writes the frame's wire payload into frh and sets frh's
	// flags to match the frame's own state.
	Serialize(frh *FrameHeader) error
}

var framePools = map[FrameType]*sync.Pool{
	FrameHeaders:  {New: func() interface{} { return &Headers{} }},
	FramePriority: {New: func() interface{} { return &Priority{} }},
	FrameSettings: {New: func() interface{} { return &Settings{} }},
	FrameGoAway:   {New: func() interface{} { return &GoAway{} }},
}

// AcquireFrame returns a pooled, reset Frame body for the given type, or
// nil if t is not one of the four supported frame types.
func AcquireFrame(t FrameType) Frame {
	pool, ok := framePools[t]
	if !ok {
		return nil
	}
	fr := pool.Get().(Frame)
	fr.Reset()
	return fr
}

// ReleaseFrame returns fr to its type's pool. A nil fr is a no-op.
func ReleaseFrame(fr Frame) {
	if fr == nil {
		return
	}
	pool, ok := framePools[fr.Type()]
	if !ok {
		return
	}
	fr.Reset()
	pool.Put(fr)
}
