package conditions

import (
	"bytes"
	"cmp"
	"math/bits"
)

const (
	derTagSequence    byte = 0x30
	derTagTagged      byte = 0x80
	derTagConstructed byte = 0x20
)

// AppendLength appends the DER length indicator for n to dst.
// Lengths up to 127 use the short form; longer ones use 0x80|k followed by
// the k minimal big-endian bytes of n.
func AppendLength(dst []byte, n int) []byte {
	if n < 0 {
		panic("conditions: negative DER length")
	}
	if n <= 127 {
		return append(dst, byte(n))
	}
	size := (bits.Len64(uint64(n)) + 7) / 8
	dst = append(dst, 0x80|byte(size))
	for i := (size - 1) * 8; i >= 0; i -= 8 {
		dst = append(dst, byte(n>>uint(i)))
	}
	return dst
}

// AppendEncoded appends tag, the length of b and b itself.
func AppendEncoded(dst []byte, tag byte, b []byte) []byte {
	dst = append(dst, tag)
	dst = AppendLength(dst, len(b))
	return append(dst, b...)
}

// AppendTaggedObject wraps b in a context-specific primitive tag.
func AppendTaggedObject(dst []byte, tagNumber int, b []byte) []byte {
	return AppendEncoded(dst, derTagTagged+byte(tagNumber), b)
}

// AppendTaggedConstructedObject wraps b in a context-specific constructed tag.
func AppendTaggedConstructedObject(dst []byte, tagNumber int, b []byte) []byte {
	return AppendEncoded(dst, derTagTagged+derTagConstructed+byte(tagNumber), b)
}

func appendSequence(dst []byte, b []byte) []byte {
	return AppendEncoded(dst, derTagSequence, b)
}

// appendUintBody appends the contents octets of a non-negative DER INTEGER.
func appendUintBody(dst []byte, v uint64) []byte {
	if v == 0 {
		return append(dst, 0x00)
	}
	size := (bits.Len64(v) + 7) / 8
	if v>>(uint(size)*8-1)&1 == 1 {
		dst = append(dst, 0x00)
	}
	for i := (size - 1) * 8; i >= 0; i -= 8 {
		dst = append(dst, byte(v>>uint(i)))
	}
	return dst
}

// appendTypeSetBody appends the contents octets of a named BIT STRING with
// trailing zero bits removed.
func appendTypeSetBody(dst []byte, s TypeSet) []byte {
	if s == 0 {
		return append(dst, 0x00)
	}
	highest := bits.Len32(uint32(s)) - 1
	n := highest/8 + 1
	dst = append(dst, byte(7-highest%8))
	out := make([]byte, n)
	for id := 0; id <= highest; id++ {
		if s.Has(TypeID(id)) {
			out[id/8] |= 0x80 >> uint(id%8)
		}
	}
	return append(dst, out...)
}

// compareEncodings orders DER encodings the way SET OF members are sorted:
// shorter first, then lexicographically.
func compareEncodings(a, b []byte) int {
	if len(a) != len(b) {
		return cmp.Compare(len(a), len(b))
	}
	return bytes.Compare(a, b)
}
