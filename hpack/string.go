package hpack

import "github.com/kasimir-io/h2wire/internal/wireutil"

// huffmanThreshold is the minimum raw length, in octets, at which the
// encoder prefers a Huffman-coded string literal over a raw one. Below
// this the 5-bit-per-character savings Huffman gives on typical header
// text don't reliably beat the fixed per-call overhead.
const huffmanThreshold = 16

// AppendString encodes a header-field string literal (RFC 7541 §5.2): a
// 1-bit Huffman flag, a 7-bit-prefix length, then either the raw bytes or
// their Huffman encoding.
func AppendString(dst []byte, s string) []byte {
	if len(s) >= huffmanThreshold {
		sb := wireutil.S2B(s)
		encLen := HuffmanEncodedLen(sb)
		if encLen < len(s) {
			dst = AppendInt(dst, uint64(encLen), 7, 0x80)
			return HuffmanEncode(dst, sb)
		}
	}
	dst = AppendInt(dst, uint64(len(s)), 7, 0)
	return append(dst, s...)
}

// ReadString decodes a header-field string literal from the front of b,
// returning the decoded string and the remaining bytes.
func ReadString(b []byte) (s string, rest []byte, err error) {
	if len(b) == 0 {
		return "", nil, wrap(ErrNeedMore)
	}
	huff := b[0]&0x80 != 0
	length, rest, err := ReadInt(b, 7)
	if err != nil {
		return "", nil, err
	}
	if uint64(len(rest)) < length {
		return "", nil, wrap(ErrNeedMore)
	}
	raw := rest[:length]
	rest = rest[length:]

	// Both conversions below skip the copy string([]byte) normally makes:
	// raw is a window into the caller's header-block buffer and decoded
	// is a buffer this call just allocated, and in both cases the string
	// is consumed immediately (Field.SetKey/SetValue copy it) and never
	// retained past that, matching the teacher's own zero-copy B2S idiom.
	if !huff {
		return wireutil.B2S(raw), rest, nil
	}
	decoded, err := HuffmanDecode(nil, raw)
	if err != nil {
		return "", nil, err
	}
	return wireutil.B2S(decoded), rest, nil
}
