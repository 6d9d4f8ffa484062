package conditions

import (
	"bytes"
	"fmt"

	"github.com/cryptoconditions/cc-go/crypto"
)

// Payload is the variant-specific content of a fulfillment.
type Payload interface {
	Type() TypeID
	// Cost may exceed MaxCost; the caller rejects it.
	Cost() uint64
	// FingerprintContents is the input to the fingerprint hash.
	FingerprintContents() []byte
	Subtypes() TypeSet
	// AppendBody appends the DER contents of the fulfillment's outer tag.
	AppendBody(dst []byte) []byte
	// Depth is the nesting level, 1 for leaves.
	Depth() int
	// Verify runs the variant check once the derived condition matched.
	Verify(v *Verifier, message []byte) (bool, error)
}

// Fulfillment is an immutable proof together with the condition it derives.
type Fulfillment struct {
	typ     TypeID
	cond    Condition
	payload Payload
	enc     []byte
}

var defaultProvider crypto.CryptoProvider = crypto.StdCryptoProvider{}

func deriveCondition(p Payload, provider crypto.CryptoProvider) (Condition, error) {
	v, ok := lookupVariant(p.Type())
	if !ok {
		return Condition{}, conderr(CC_ERR_UNSUPPORTED_TYPE, fmt.Sprintf("type %d is not registered", p.Type()))
	}
	cost := p.Cost()
	if cost > MaxCost {
		return Condition{}, conderr(CC_ERR_STRUCTURAL, v.Name+" cost exceeds the encodable range")
	}
	fp := provider.SHA256(p.FingerprintContents())
	subtypes := p.Subtypes().Remove(p.Type())
	return newCondition(p.Type(), fp[:], cost, subtypes, v.Compound), nil
}

// NewFulfillment wraps a payload of a registered type, deriving its
// condition and encoding. Variants registered outside this package build
// their fulfillments through it.
func NewFulfillment(p Payload) (*Fulfillment, error) {
	if p == nil {
		return nil, conderr(CC_ERR_NULL_INPUT, "payload is required")
	}
	return newFulfillment(p)
}

func newFulfillment(p Payload) (*Fulfillment, error) {
	if p.Depth() > MaxNestingDepth {
		return nil, conderr(CC_ERR_DEPTH, fmt.Sprintf("nesting depth %d exceeds %d", p.Depth(), MaxNestingDepth))
	}
	cond, err := deriveCondition(p, defaultProvider)
	if err != nil {
		return nil, err
	}
	return &Fulfillment{
		typ:     p.Type(),
		cond:    cond,
		payload: p,
		enc:     AppendTaggedConstructedObject(nil, int(p.Type()), p.AppendBody(nil)),
	}, nil
}

func (f *Fulfillment) Type() TypeID { return f.typ }

// Condition returns the condition derived from the payload.
func (f *Fulfillment) Condition() Condition { return f.cond }

func (f *Fulfillment) Payload() Payload { return f.payload }

func (f *Fulfillment) Cost() uint64 { return f.cond.cost }

func (f *Fulfillment) Depth() int { return f.payload.Depth() }

// Encode returns the canonical DER encoding.
func (f *Fulfillment) Encode() []byte { return bytes.Clone(f.enc) }

func (f *Fulfillment) Equal(o *Fulfillment) bool {
	if f == nil || o == nil {
		return f == o
	}
	return bytes.Equal(f.enc, o.enc)
}

// Verify checks f against c with the default verifier.
func (f *Fulfillment) Verify(c Condition, message []byte) (bool, error) {
	return defaultVerifier.Verify(f, c, message)
}

// DecodeFulfillment parses a canonical fulfillment encoding.
func DecodeFulfillment(b []byte) (*Fulfillment, error) {
	if b == nil {
		return nil, conderr(CC_ERR_NULL_INPUT, "fulfillment bytes are required")
	}
	r := newDERReader(b, 0)
	f, err := decodeFulfillment(r, 1)
	if err != nil {
		return nil, err
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	if !bytes.Equal(f.enc, b) {
		return nil, decodeErr(0, "non-canonical fulfillment encoding")
	}
	return f, nil
}

func decodeFulfillment(r *derReader, depth int) (*Fulfillment, error) {
	start := r.offset()
	if depth > MaxNestingDepth {
		return nil, &CondError{Code: CC_ERR_DEPTH, Msg: fmt.Sprintf("nesting depth exceeds %d", MaxNestingDepth), Offset: start}
	}
	tag, body, off, err := r.readAnyElement()
	if err != nil {
		return nil, err
	}
	if tag&0xe0 != derTagTagged|derTagConstructed {
		return nil, decodeErr(start, "fulfillment must use a context-specific constructed tag")
	}
	id := TypeID(tag & 0x1f)
	v, ok := lookupVariant(id)
	if !ok {
		return nil, &CondError{Code: CC_ERR_UNSUPPORTED_TYPE, Msg: fmt.Sprintf("unsupported fulfillment type %d", id), Offset: start}
	}
	p, err := v.Decode(body, off, depth)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &CondError{Code: CC_ERR_STRUCTURAL, Msg: v.Name + " decoder returned no payload", Offset: start}
	}
	if p.Type() != id {
		return nil, &CondError{Code: CC_ERR_TYPE_MISMATCH, Msg: fmt.Sprintf("%s decoder produced a %s payload", v.Name, p.Type().Name()), Offset: start}
	}
	return newFulfillment(p)
}

// DecodeSubfulfillment parses the single fulfillment that fills body. off is
// the absolute offset of body in the outer input and depth the nesting level
// of the parent, as passed to Variant.Decode.
func DecodeSubfulfillment(body []byte, off int, depth int) (*Fulfillment, error) {
	r := newDERReader(body, off)
	f, err := decodeFulfillment(r, depth+1)
	if err != nil {
		return nil, err
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return f, nil
}

// DecodeCondition parses a canonical condition encoding. Unregistered types
// decode to an opaque condition whose Unsupported method reports true.
func DecodeCondition(b []byte) (Condition, error) {
	if b == nil {
		return Condition{}, conderr(CC_ERR_NULL_INPUT, "condition bytes are required")
	}
	r := newDERReader(b, 0)
	c, err := decodeCondition(r)
	if err != nil {
		return Condition{}, err
	}
	if err := r.finish(); err != nil {
		return Condition{}, err
	}
	return c, nil
}

func decodeCondition(r *derReader) (Condition, error) {
	start := r.offset()
	raw, _, err := r.readRawElement()
	if err != nil {
		return Condition{}, err
	}
	er := newDERReader(raw, start)
	tag, body, off, err := er.readAnyElement()
	if err != nil {
		return Condition{}, err
	}
	if tag&0xe0 != derTagTagged|derTagConstructed {
		return Condition{}, decodeErr(start, "condition must use a context-specific constructed tag")
	}
	id := TypeID(tag & 0x1f)

	br := newDERReader(body, off)
	fp, fpOff, err := br.readElement(derTagTagged + 0)
	if err != nil {
		return Condition{}, err
	}
	costBody, costOff, err := br.readElement(derTagTagged + 1)
	if err != nil {
		return Condition{}, err
	}
	cost, err := parseUintBody(costBody, costOff)
	if err != nil {
		return Condition{}, err
	}
	var subtypes TypeSet
	hasSubtypes := false
	if !br.empty() {
		sb, sOff, err := br.readElement(derTagTagged + 2)
		if err != nil {
			return Condition{}, err
		}
		if subtypes, err = parseTypeSetBody(sb, sOff); err != nil {
			return Condition{}, err
		}
		hasSubtypes = true
	}
	if err := br.finish(); err != nil {
		return Condition{}, err
	}
	if subtypes.Has(id) {
		return Condition{}, decodeErr(start, "subtypes include the condition's own type")
	}

	v, known := lookupVariant(id)
	if !known {
		return Condition{
			typ:         id,
			fingerprint: bytes.Clone(fp),
			cost:        cost,
			subtypes:    subtypes,
			compound:    hasSubtypes,
			unsupported: true,
			enc:         bytes.Clone(raw),
		}, nil
	}
	if len(fp) != FingerprintSize {
		return Condition{}, decodeErr(fpOff, "fingerprint must be 32 bytes")
	}
	if v.Compound != hasSubtypes {
		return Condition{}, decodeErr(start, v.Name+" subtypes presence mismatch")
	}
	return newCondition(id, bytes.Clone(fp), cost, subtypes, v.Compound), nil
}
