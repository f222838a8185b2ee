package h2wire

import (
	"fmt"

	"github.com/kasimir-io/h2wire/internal/wireutil"
)

// GoAway represents a GOAWAY frame (RFC 7540 §6.8): the sender's
// announcement that it will process no new streams above LastStreamID and
// is shutting the connection down, with Code explaining why.
type GoAway struct {
	lastStreamID uint32
	code         ErrorCode
	debugData    []byte
}

func (ga *GoAway) Error() string {
	return fmt.Sprintf("last_stream_id=%d, code=%s, debug=%q", ga.lastStreamID, ga.code, ga.debugData)
}

func (ga *GoAway) Type() FrameType { return FrameGoAway }

func (ga *GoAway) Reset() {
	ga.lastStreamID = 0
	ga.code = 0
	ga.debugData = ga.debugData[:0]
}

func (ga *GoAway) CopyTo(other *GoAway) {
	other.lastStreamID = ga.lastStreamID
	other.code = ga.code
	other.debugData = append(other.debugData[:0], ga.debugData...)
}

func (ga *GoAway) Code() ErrorCode { return ga.code }
func (ga *GoAway) SetCode(code ErrorCode) { ga.code = code }

func (ga *GoAway) LastStreamID() uint32 { return ga.lastStreamID }
func (ga *GoAway) SetLastStreamID(id uint32) { ga.lastStreamID = id & (1<<31 - 1) }

func (ga *GoAway) DebugData() []byte    { return ga.debugData }
func (ga *GoAway) SetDebugData(b []byte) { ga.debugData = append(ga.debugData[:0], b...) }

func (ga *GoAway) Deserialize(frh *FrameHeader) error {
	if frh.Stream() != 0 {
		return wrapConnError(ProtocolError, errStreamIDNonzero)
	}

	payload := frh.payloadBytes()
	if len(payload) < 8 {
		return wrapConnError(FrameSizeError, ErrMissingBytes)
	}
	ga.lastStreamID = wireutil.BytesToUint32(payload) & (1<<31 - 1)
	ga.code = ErrorCode(wireutil.BytesToUint32(payload[4:]))
	if len(payload) > 8 {
		ga.debugData = append(ga.debugData[:0], payload[8:]...)
	}
	return nil
}

func (ga *GoAway) Serialize(frh *FrameHeader) error {
	content := wireutil.AppendUint32Bytes(nil, ga.lastStreamID&(1<<31-1))
	content = wireutil.AppendUint32Bytes(content, uint32(ga.code))
	content = append(content, ga.debugData...)
	frh.setPayload(content)
	return nil
}
