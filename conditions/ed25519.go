package conditions

import "bytes"

type Ed25519Payload struct {
	publicKey []byte
	signature []byte
}

func NewEd25519SHA256Fulfillment(publicKey, signature []byte) (*Fulfillment, error) {
	if publicKey == nil {
		return nil, conderr(CC_ERR_NULL_INPUT, "public key is required")
	}
	if signature == nil {
		return nil, conderr(CC_ERR_NULL_INPUT, "signature is required")
	}
	if len(publicKey) != ed25519PublicKeyBytes {
		return nil, conderr(CC_ERR_PARAM, "ed25519 public key must be 32 bytes")
	}
	if len(signature) != ed25519SignatureBytes {
		return nil, conderr(CC_ERR_PARAM, "ed25519 signature must be 64 bytes")
	}
	return newFulfillment(&Ed25519Payload{
		publicKey: append([]byte{}, publicKey...),
		signature: append([]byte{}, signature...),
	})
}

func (p *Ed25519Payload) PublicKey() []byte { return bytes.Clone(p.publicKey) }

func (p *Ed25519Payload) Signature() []byte { return bytes.Clone(p.signature) }

func (p *Ed25519Payload) Type() TypeID { return ED25519_SHA256 }

func (p *Ed25519Payload) Cost() uint64 { return ed25519Cost }

func (p *Ed25519Payload) FingerprintContents() []byte {
	return appendSequence(nil, AppendTaggedObject(nil, 0, p.publicKey))
}

func (p *Ed25519Payload) Subtypes() TypeSet { return 0 }

func (p *Ed25519Payload) Depth() int { return 1 }

func (p *Ed25519Payload) AppendBody(dst []byte) []byte {
	dst = AppendTaggedObject(dst, 0, p.publicKey)
	return AppendTaggedObject(dst, 1, p.signature)
}

func (p *Ed25519Payload) Verify(v *Verifier, message []byte) (bool, error) {
	return v.provider.VerifyEd25519(p.publicKey, p.signature, message), nil
}

func decodeEd25519Body(body []byte, off int, _ int) (Payload, error) {
	r := newDERReader(body, off)
	pub, pubOff, err := r.readElement(derTagTagged + 0)
	if err != nil {
		return nil, err
	}
	if len(pub) != ed25519PublicKeyBytes {
		return nil, decodeErr(pubOff, "ed25519 public key must be 32 bytes")
	}
	sig, sigOff, err := r.readElement(derTagTagged + 1)
	if err != nil {
		return nil, err
	}
	if len(sig) != ed25519SignatureBytes {
		return nil, decodeErr(sigOff, "ed25519 signature must be 64 bytes")
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return &Ed25519Payload{
		publicKey: append([]byte{}, pub...),
		signature: append([]byte{}, sig...),
	}, nil
}
