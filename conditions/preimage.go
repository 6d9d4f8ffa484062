package conditions

import (
	"bytes"
	"encoding/base64"
)

// PreimagePayload proves knowledge of bytes whose SHA-256 is the fingerprint.
type PreimagePayload struct {
	preimage []byte
}

// NewPreimageFulfillment builds a PREIMAGE-SHA-256 fulfillment. An empty
// preimage is valid; a nil one is not.
func NewPreimageFulfillment(preimage []byte) (*Fulfillment, error) {
	if preimage == nil {
		return nil, conderr(CC_ERR_NULL_INPUT, "preimage is required")
	}
	return newFulfillment(&PreimagePayload{preimage: append([]byte{}, preimage...)})
}

func (p *PreimagePayload) Preimage() []byte { return bytes.Clone(p.preimage) }

// EncodedPreimage returns the preimage as padded Base64URL text.
func (p *PreimagePayload) EncodedPreimage() string {
	return base64.URLEncoding.EncodeToString(p.preimage)
}

func (p *PreimagePayload) Type() TypeID { return PREIMAGE_SHA256 }

func (p *PreimagePayload) Cost() uint64 { return uint64(len(p.preimage)) }

// The preimage is hashed as is, without a DER wrapper.
func (p *PreimagePayload) FingerprintContents() []byte { return bytes.Clone(p.preimage) }

func (p *PreimagePayload) Subtypes() TypeSet { return 0 }

func (p *PreimagePayload) Depth() int { return 1 }

func (p *PreimagePayload) AppendBody(dst []byte) []byte {
	return AppendTaggedObject(dst, 0, p.preimage)
}

// Verify has nothing left to check: matching the derived condition already
// re-hashed the preimage. The message is not part of the proof.
func (p *PreimagePayload) Verify(_ *Verifier, _ []byte) (bool, error) {
	return true, nil
}

func decodePreimageBody(body []byte, off int, _ int) (Payload, error) {
	r := newDERReader(body, off)
	pre, _, err := r.readElement(derTagTagged + 0)
	if err != nil {
		return nil, err
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return &PreimagePayload{preimage: append([]byte{}, pre...)}, nil
}
