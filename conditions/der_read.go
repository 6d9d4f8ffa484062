package conditions

import (
	"math"

	"golang.org/x/crypto/cryptobyte"
)

// derReader walks DER elements and remembers where it is in the outermost
// input so decode errors can name an absolute offset.
type derReader struct {
	s    cryptobyte.String
	base int
	n    int
}

func newDERReader(b []byte, base int) *derReader {
	return &derReader{s: cryptobyte.String(b), base: base, n: len(b)}
}

func (r *derReader) offset() int {
	return r.base + r.n - len(r.s)
}

func (r *derReader) empty() bool {
	return r.s.Empty()
}

func (r *derReader) finish() error {
	if !r.empty() {
		return decodeErr(r.offset(), "trailing bytes")
	}
	return nil
}

func (r *derReader) peekTag() (byte, bool) {
	if r.s.Empty() {
		return 0, false
	}
	return r.s[0], true
}

// readLength reads a DER length indicator. Indefinite lengths, long forms
// that could have been shorter and lengths with leading zero bytes are all
// rejected.
func (r *derReader) readLength() (int, error) {
	start := r.offset()
	var first uint8
	if !r.s.ReadUint8(&first) {
		return 0, decodeErr(start, "truncated length")
	}
	if first&0x80 == 0 {
		return int(first), nil
	}
	k := int(first & 0x7f)
	if k == 0 {
		return 0, decodeErr(start, "indefinite length")
	}
	if k > 4 {
		return 0, decodeErr(start, "length too large")
	}
	var lb []byte
	if !r.s.ReadBytes(&lb, k) {
		return 0, decodeErr(start, "truncated length")
	}
	if lb[0] == 0 {
		return 0, decodeErr(start, "non-minimal length")
	}
	var n uint64
	for _, b := range lb {
		n = n<<8 | uint64(b)
	}
	if n <= 127 {
		return 0, decodeErr(start, "non-minimal length")
	}
	if n > math.MaxInt32 {
		return 0, decodeErr(start, "length too large")
	}
	return int(n), nil
}

// readAnyElement reads one tag-length-value triple and returns the tag, the
// contents and the absolute offset of the contents.
func (r *derReader) readAnyElement() (byte, []byte, int, error) {
	start := r.offset()
	var tag uint8
	if !r.s.ReadUint8(&tag) {
		return 0, nil, 0, decodeErr(start, "truncated tag")
	}
	if tag&0x1f == 0x1f {
		return 0, nil, 0, decodeErr(start, "high tag numbers are not supported")
	}
	n, err := r.readLength()
	if err != nil {
		return 0, nil, 0, err
	}
	bodyOff := r.offset()
	var body []byte
	if !r.s.ReadBytes(&body, n) {
		return 0, nil, 0, decodeErr(bodyOff, "truncated value")
	}
	return tag, body, bodyOff, nil
}

func (r *derReader) readElement(tag byte) ([]byte, int, error) {
	start := r.offset()
	got, body, off, err := r.readAnyElement()
	if err != nil {
		return nil, 0, err
	}
	if got != tag {
		return nil, 0, decodeErr(start, "unexpected tag")
	}
	return body, off, nil
}

// readRawElement returns the complete encoding of the next element.
func (r *derReader) readRawElement() ([]byte, int, error) {
	start := r.offset()
	before := r.s
	if _, _, _, err := r.readAnyElement(); err != nil {
		return nil, 0, err
	}
	return before[:len(before)-len(r.s)], start, nil
}

// parseUintBody decodes the contents of a non-negative DER INTEGER that fits
// in 32 bits.
func parseUintBody(b []byte, off int) (uint64, error) {
	if len(b) == 0 {
		return 0, decodeErr(off, "empty integer")
	}
	if b[0]&0x80 != 0 {
		return 0, decodeErr(off, "negative integer")
	}
	if len(b) > 1 && b[0] == 0 && b[1]&0x80 == 0 {
		return 0, decodeErr(off, "non-minimal integer")
	}
	if len(b) > 5 {
		return 0, decodeErr(off, "integer out of range")
	}
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	if v > math.MaxUint32 {
		return 0, decodeErr(off, "integer out of range")
	}
	return v, nil
}

// parseTypeSetBody decodes a named BIT STRING in its minimal DER form.
func parseTypeSetBody(b []byte, off int) (TypeSet, error) {
	if len(b) == 0 {
		return 0, decodeErr(off, "empty bit string")
	}
	unused := int(b[0])
	if unused > 7 {
		return 0, decodeErr(off, "invalid unused bit count")
	}
	data := b[1:]
	if len(data) == 0 {
		if unused != 0 {
			return 0, decodeErr(off, "invalid unused bit count")
		}
		return 0, nil
	}
	if len(data) > 4 {
		return 0, decodeErr(off, "bit string too long")
	}
	last := data[len(data)-1]
	if last&(1<<uint(unused)-1) != 0 {
		return 0, decodeErr(off, "non-zero padding bits")
	}
	if last>>uint(unused)&1 == 0 {
		return 0, decodeErr(off, "non-minimal bit string")
	}
	var s TypeSet
	for i, x := range data {
		for j := 0; j < 8; j++ {
			if x&(0x80>>uint(j)) != 0 {
				s = s.Add(TypeID(i*8 + j))
			}
		}
	}
	return s, nil
}
