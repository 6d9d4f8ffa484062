package conditions

import "bytes"

// PrefixPayload prepends a fixed prefix to the message before handing it to
// the sub-fulfillment.
type PrefixPayload struct {
	prefix           []byte
	maxMessageLength uint32
	sub              *Fulfillment
}

func NewPrefixFulfillment(prefix []byte, maxMessageLength uint32, sub *Fulfillment) (*Fulfillment, error) {
	if prefix == nil {
		return nil, conderr(CC_ERR_NULL_INPUT, "prefix is required")
	}
	if sub == nil {
		return nil, conderr(CC_ERR_NULL_INPUT, "subfulfillment is required")
	}
	return newFulfillment(&PrefixPayload{
		prefix:           append([]byte{}, prefix...),
		maxMessageLength: maxMessageLength,
		sub:              sub,
	})
}

func (p *PrefixPayload) Prefix() []byte { return bytes.Clone(p.prefix) }

func (p *PrefixPayload) MaxMessageLength() uint32 { return p.maxMessageLength }

func (p *PrefixPayload) Subfulfillment() *Fulfillment { return p.sub }

func (p *PrefixPayload) Type() TypeID { return PREFIX_SHA256 }

func (p *PrefixPayload) Cost() uint64 {
	return uint64(len(p.prefix)) + uint64(p.maxMessageLength) + p.sub.Cost() + prefixCostOverhead
}

func (p *PrefixPayload) FingerprintContents() []byte {
	body := AppendTaggedObject(nil, 0, p.prefix)
	body = AppendTaggedObject(body, 1, appendUintBody(nil, uint64(p.maxMessageLength)))
	body = AppendTaggedConstructedObject(body, 2, p.sub.cond.enc)
	return appendSequence(nil, body)
}

func (p *PrefixPayload) Subtypes() TypeSet {
	return (p.sub.cond.subtypes | TypeSetOf(p.sub.typ)).Remove(PREFIX_SHA256)
}

func (p *PrefixPayload) Depth() int { return p.sub.Depth() + 1 }

func (p *PrefixPayload) AppendBody(dst []byte) []byte {
	dst = AppendTaggedObject(dst, 0, p.prefix)
	dst = AppendTaggedObject(dst, 1, appendUintBody(nil, uint64(p.maxMessageLength)))
	return AppendTaggedConstructedObject(dst, 2, p.sub.enc)
}

// Verify rejects messages longer than maxMessageLength, then checks the
// sub-fulfillment over prefix || message.
func (p *PrefixPayload) Verify(v *Verifier, message []byte) (bool, error) {
	if uint64(len(message)) > uint64(p.maxMessageLength) {
		v.log().Debug("prefix message too long", "len", len(message), "max", p.maxMessageLength)
		return false, nil
	}
	prefixed := make([]byte, 0, len(p.prefix)+len(message))
	prefixed = append(prefixed, p.prefix...)
	prefixed = append(prefixed, message...)
	return v.verify(p.sub, p.sub.cond, prefixed)
}

func decodePrefixBody(body []byte, off int, depth int) (Payload, error) {
	r := newDERReader(body, off)
	prefix, _, err := r.readElement(derTagTagged + 0)
	if err != nil {
		return nil, err
	}
	maxBody, maxOff, err := r.readElement(derTagTagged + 1)
	if err != nil {
		return nil, err
	}
	maxLen, err := parseUintBody(maxBody, maxOff)
	if err != nil {
		return nil, err
	}
	subBody, subOff, err := r.readElement(derTagTagged + derTagConstructed + 2)
	if err != nil {
		return nil, err
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	sub, err := DecodeSubfulfillment(subBody, subOff, depth)
	if err != nil {
		return nil, err
	}
	return &PrefixPayload{
		prefix:           append([]byte{}, prefix...),
		maxMessageLength: uint32(maxLen),
		sub:              sub,
	}, nil
}
