// Package conditions implements crypto-conditions: DER-encoded conditions
// (type, fingerprint, cost) and the fulfillments that prove them.
package conditions

import (
	"bytes"
	"fmt"
	"math/bits"
	"strings"
)

type TypeID uint16

const (
	PREIMAGE_SHA256  TypeID = 0
	PREFIX_SHA256    TypeID = 1
	THRESHOLD_SHA256 TypeID = 2
	RSA_SHA256       TypeID = 3
	ED25519_SHA256   TypeID = 4
)

// maxWireTypeID is the largest id that fits a low-form context tag.
const maxWireTypeID TypeID = 30

// Name returns the registered name of the type, or "unknown-N".
func (t TypeID) Name() string {
	if v, ok := lookupVariant(t); ok {
		return v.Name
	}
	return fmt.Sprintf("unknown-%d", uint16(t))
}

func (t TypeID) String() string { return t.Name() }

// TypeSet is the subtypes bit set carried by compound conditions.
type TypeSet uint32

func TypeSetOf(ids ...TypeID) TypeSet {
	var s TypeSet
	for _, id := range ids {
		s = s.Add(id)
	}
	return s
}

func (s TypeSet) Has(id TypeID) bool {
	return id < 32 && s&(1<<id) != 0
}

func (s TypeSet) Add(id TypeID) TypeSet {
	if id >= 32 {
		return s
	}
	return s | 1<<id
}

func (s TypeSet) Remove(id TypeID) TypeSet {
	if id >= 32 {
		return s
	}
	return s &^ (1 << id)
}

func (s TypeSet) Len() int { return bits.OnesCount32(uint32(s)) }

// IDs lists the members in ascending order.
func (s TypeSet) IDs() []TypeID {
	out := make([]TypeID, 0, s.Len())
	for id := TypeID(0); id < 32; id++ {
		if s.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

func (s TypeSet) String() string {
	names := make([]string, 0, s.Len())
	for _, id := range s.IDs() {
		names = append(names, id.Name())
	}
	return "{" + strings.Join(names, ",") + "}"
}

// Condition is an immutable commitment to a fulfillment. The zero value is
// "no condition" and is rejected wherever a condition is required.
type Condition struct {
	typ         TypeID
	fingerprint []byte
	cost        uint64
	subtypes    TypeSet
	compound    bool
	unsupported bool
	enc         []byte
}

// NewCondition builds a condition of a registered type from its parts.
func NewCondition(t TypeID, fingerprint []byte, cost uint64, subtypes TypeSet) (Condition, error) {
	if fingerprint == nil {
		return Condition{}, conderr(CC_ERR_NULL_INPUT, "fingerprint is required")
	}
	v, ok := lookupVariant(t)
	if !ok {
		return Condition{}, conderr(CC_ERR_UNSUPPORTED_TYPE, fmt.Sprintf("type %d is not registered", t))
	}
	if len(fingerprint) != FingerprintSize {
		return Condition{}, conderr(CC_ERR_PARAM, "fingerprint must be 32 bytes")
	}
	if cost > MaxCost {
		return Condition{}, conderr(CC_ERR_PARAM, "cost out of range")
	}
	if !v.Compound && subtypes != 0 {
		return Condition{}, conderr(CC_ERR_PARAM, v.Name+" conditions carry no subtypes")
	}
	if subtypes.Has(t) {
		return Condition{}, conderr(CC_ERR_PARAM, "subtypes must not include the condition's own type")
	}
	return newCondition(t, bytes.Clone(fingerprint), cost, subtypes, v.Compound), nil
}

func newCondition(t TypeID, fingerprint []byte, cost uint64, subtypes TypeSet, compound bool) Condition {
	c := Condition{
		typ:         t,
		fingerprint: fingerprint,
		cost:        cost,
		subtypes:    subtypes,
		compound:    compound,
	}
	body := AppendTaggedObject(nil, 0, fingerprint)
	body = AppendTaggedObject(body, 1, appendUintBody(nil, cost))
	if compound {
		body = AppendTaggedObject(body, 2, appendTypeSetBody(nil, subtypes))
	}
	c.enc = AppendTaggedConstructedObject(nil, int(t), body)
	return c
}

func (c Condition) Type() TypeID { return c.typ }

func (c Condition) Fingerprint() []byte { return bytes.Clone(c.fingerprint) }

func (c Condition) Cost() uint64 { return c.cost }

func (c Condition) Subtypes() TypeSet { return c.subtypes }

// Unsupported reports whether the condition's type is not registered; such
// conditions only occur as decoded sub-conditions of a threshold.
func (c Condition) Unsupported() bool { return c.unsupported }

func (c Condition) IsZero() bool { return c.enc == nil }

// Encode returns the canonical DER encoding.
func (c Condition) Encode() []byte { return bytes.Clone(c.enc) }

func (c Condition) Equal(o Condition) bool { return bytes.Equal(c.enc, o.enc) }

func (c Condition) String() string {
	if c.IsZero() {
		return "<no condition>"
	}
	return c.URI()
}
