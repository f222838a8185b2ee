package h2wire

import "testing"

func TestFrameTypeString(t *testing.T) {
	cases := map[FrameType]string{
		FrameHeaders:  "HEADERS",
		FramePriority: "PRIORITY",
		FrameSettings: "SETTINGS",
		FrameGoAway:   "GOAWAY",
		FrameType(0x9): "UNKNOWN",
	}
	for ft, want := range cases {
		if got := ft.String(); got != want {
			t.Fatalf("%#x.String() = %q, want %q", byte(ft), got, want)
		}
	}
}

func TestFrameFlagsHas(t *testing.T) {
	f := FlagEndHeaders | FlagPadded
	if !f.Has(FlagEndHeaders) || !f.Has(FlagPadded) {
		t.Fatalf("Has() missed a set flag")
	}
	if f.Has(FlagPriority) {
		t.Fatalf("Has() reported an unset flag as set")
	}
}

func TestAcquireFrameKnownTypes(t *testing.T) {
	for _, ft := range []FrameType{FrameHeaders, FramePriority, FrameSettings, FrameGoAway} {
		fr := AcquireFrame(ft)
		if fr == nil {
			t.Fatalf("AcquireFrame(%s) returned nil", ft)
		}
		if fr.Type() != ft {
			t.Fatalf("AcquireFrame(%s).Type() = %s", ft, fr.Type())
		}
		ReleaseFrame(fr)
	}
}

func TestAcquireFrameUnknownType(t *testing.T) {
	if fr := AcquireFrame(FrameType(0x99)); fr != nil {
		t.Fatalf("AcquireFrame(unknown) = %v, want nil", fr)
	}
}

func TestReleaseFrameNilIsNoop(t *testing.T) {
	ReleaseFrame(nil)
}
