// Package wireutil holds the small byte-twiddling helpers the frame codec
// needs: 24/32-bit big-endian integers, ASCII case folding, buffer
// resizing, and HEADERS padding. Adapted from dgrr/http2's http2utils
// package, generalized to the frame set this module supports.
package wireutil

import (
	"unsafe"

	"github.com/valyala/fastrand"
)

func Uint24ToBytes(b []byte, n uint32) {
	_ = b[2]
	b[0] = byte(n >> 16)
	b[1] = byte(n >> 8)
	b[2] = byte(n)
}

func BytesToUint24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

func AppendUint32Bytes(dst []byte, n uint32) []byte {
	return append(dst, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

func Uint32ToBytes(b []byte, n uint32) {
	_ = b[3]
	b[0] = byte(n >> 24)
	b[1] = byte(n >> 16)
	b[2] = byte(n >> 8)
	b[3] = byte(n)
}

func BytesToUint32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func EqualsFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i]|0x20 != b[i]|0x20 {
			return false
		}
	}
	return true
}

func Resize(b []byte, neededLen int) []byte {
	b = b[:cap(b)]
	if n := neededLen - len(b); n > 0 {
		b = append(b, make([]byte, n)...)
	}
	return b[:neededLen]
}

// CutPadding strips HEADERS/DATA padding (RFC 7540 §6.2/§6.1): payload[0]
// is the pad length, the pad itself trails the frame. length is the
// frame's declared payload length (before this call has trimmed
// anything). Unlike a direct port of the teacher's helper, an
// out-of-range pad length is reported as an error rather than a panic,
// since it is peer-controlled input.
func CutPadding(payload []byte, length int) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrPadding
	}
	pad := int(payload[0])
	if pad+1 > length {
		return nil, ErrPadding
	}
	return payload[1 : length-pad], nil
}

// AddPadding prepends a random pad-length octet and appends that many
// random pad bytes to b, both sourced from fastrand (following the
// teacher's use of fastrand for the length; the pad body carries no
// information, so it doesn't need crypto/rand's unpredictability either).
func AddPadding(b []byte) []byte {
	n := int(fastrand.Uint32n(256-9)) + 9
	nn := len(b)

	b = Resize(b, nn+n)
	b = append(b[:1], b...)
	b[0] = uint8(n)

	for i := nn + 1; i < nn+1+n; i++ {
		b[i] = byte(fastrand.Uint32n(256))
	}
	return b
}

// B2S converts a byte slice to a string without copying, following the
// teacher's own fasthttp-derived b2s. The caller must not mutate b, or
// retain it for mutation, once the returned string is in use.
func B2S(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

// S2B converts a string to a byte slice without copying. The returned
// slice must never be written to.
func S2B(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
