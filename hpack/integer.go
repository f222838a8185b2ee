package hpack

// AppendInt serializes v as an HPACK prefix-coded integer (RFC 7541 §5.1)
// using an N-bit prefix and appends it to dst. firstByteFlags carries any
// high bits (the representation-selector bits) that share the first byte
// with the prefix; only the bits outside the prefix mask are kept from it.
func AppendInt(dst []byte, v uint64, prefixBits int, firstByteFlags byte) []byte {
	prefixMask := byte((1 << uint(prefixBits)) - 1)
	flagMask := ^prefixMask

	if v < uint64(prefixMask) {
		return append(dst, (byte(v)&prefixMask)|(firstByteFlags&flagMask))
	}

	dst = append(dst, (firstByteFlags&flagMask)|prefixMask)
	v -= uint64(prefixMask)
	for v > 0x7f {
		dst = append(dst, 0x80|byte(v&0x7f))
		v >>= 7
	}
	return append(dst, byte(v&0x7f))
}

// maxIntContinuationBytes bounds the number of continuation bytes a
// prefix-coded integer may use. 10 bytes of 7 bits each (70 bits of
// payload) is the fewest that cover every uint64, since 9 bytes give only
// 63 bits; the cap also stops pathological all-0x80 continuations that
// would otherwise never terminate within a representable value.
const maxIntContinuationBytes = 10

// ReadInt parses an HPACK prefix-coded integer with an N-bit prefix from
// the front of b. It returns the decoded value and the remaining,
// unconsumed bytes.
func ReadInt(b []byte, prefixBits int) (value uint64, rest []byte, err error) {
	if len(b) == 0 {
		return 0, nil, ErrNeedMore
	}

	mask := uint64((1 << uint(prefixBits)) - 1)
	first := uint64(b[0]) & mask
	b = b[1:]
	if first < mask {
		return first, b, nil
	}

	var cont [maxIntContinuationBytes]byte
	n := 0
	for {
		if len(b) == 0 {
			return 0, nil, ErrNeedMore
		}
		octet := b[0]
		b = b[1:]
		if n >= len(cont) {
			return 0, nil, ErrCorruptedInteger
		}
		cont[n] = octet & 0x7f
		n++
		if octet&0x80 == 0 {
			break
		}
	}

	var value64 uint64
	for i := n - 1; i >= 0; i-- {
		value64 <<= 7
		value64 |= uint64(cont[i])
	}
	return value64 + mask, b, nil
}
