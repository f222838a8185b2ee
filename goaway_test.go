package h2wire

import "testing"

func TestGoAwaySerializeDeserializeRoundTrip(t *testing.T) {
	ga := &GoAway{}
	ga.SetLastStreamID(99)
	ga.SetCode(FlowControlError)
	ga.SetDebugData([]byte("stream reset due to excessive load"))

	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.SetBody(ga)
	if err := ga.Serialize(frh); err != nil {
		t.Fatalf("Serialize error: %v", err)
	}

	got := &GoAway{}
	if err := got.Deserialize(frh); err != nil {
		t.Fatalf("Deserialize error: %v", err)
	}
	if got.LastStreamID() != 99 {
		t.Fatalf("LastStreamID() = %d, want 99", got.LastStreamID())
	}
	if got.Code() != FlowControlError {
		t.Fatalf("Code() = %s, want FLOW_CONTROL_ERROR", got.Code())
	}
	if string(got.DebugData()) != "stream reset due to excessive load" {
		t.Fatalf("DebugData() = %q", got.DebugData())
	}
}

func TestGoAwayWithoutDebugData(t *testing.T) {
	ga := &GoAway{}
	ga.SetLastStreamID(1)
	ga.SetCode(NoError)

	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.SetBody(ga)
	if err := ga.Serialize(frh); err != nil {
		t.Fatalf("Serialize error: %v", err)
	}

	got := &GoAway{}
	if err := got.Deserialize(frh); err != nil {
		t.Fatalf("Deserialize error: %v", err)
	}
	if len(got.DebugData()) != 0 {
		t.Fatalf("DebugData() = %q, want empty", got.DebugData())
	}
}

func TestGoAwayUnknownErrorCodePreservedNumerically(t *testing.T) {
	ga := &GoAway{}
	ga.SetLastStreamID(1)
	ga.SetCode(ErrorCode(0xff))

	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.SetBody(ga)
	if err := ga.Serialize(frh); err != nil {
		t.Fatalf("Serialize error: %v", err)
	}

	got := &GoAway{}
	if err := got.Deserialize(frh); err != nil {
		t.Fatalf("Deserialize error: %v", err)
	}
	if got.Code() != ErrorCode(0xff) {
		t.Fatalf("Code() = %#x, want 0xff", uint32(got.Code()))
	}
	if got.Code().String() != "error(255)" {
		t.Fatalf("String() = %q, want error(255)", got.Code().String())
	}
}

func TestGoAwayLastStreamIDMasksReservedBit(t *testing.T) {
	ga := &GoAway{}
	ga.SetLastStreamID(0x80000001)
	if ga.LastStreamID() != 1 {
		t.Fatalf("LastStreamID() = %d, want 1 (top bit masked)", ga.LastStreamID())
	}
}

func TestGoAwayDeserializeRejectsNonzeroStream(t *testing.T) {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.SetStream(1)
	frh.setPayload(make([]byte, 8))

	ga := &GoAway{}
	if err := ga.Deserialize(frh); err == nil {
		t.Fatalf("expected error: GOAWAY on a nonzero stream")
	}
}

func TestGoAwayDeserializeMissingBytes(t *testing.T) {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.setPayload([]byte{0, 0, 0, 1})

	ga := &GoAway{}
	if err := ga.Deserialize(frh); err == nil {
		t.Fatalf("expected error on short GOAWAY payload")
	}
}
