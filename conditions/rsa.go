package conditions

import (
	"bytes"
	"fmt"
)

// RSAPayload carries an RSASSA-PSS (SHA-256) signature and the public
// modulus it verifies under. The public exponent is fixed at 65537.
type RSAPayload struct {
	modulus   []byte
	signature []byte
}

// NewRSASHA256Fulfillment validates sizes only; the signature itself is
// checked by Verify.
func NewRSASHA256Fulfillment(modulus, signature []byte) (*Fulfillment, error) {
	if modulus == nil {
		return nil, conderr(CC_ERR_NULL_INPUT, "modulus is required")
	}
	if signature == nil {
		return nil, conderr(CC_ERR_NULL_INPUT, "signature is required")
	}
	if problem := rsaParamProblem(modulus, signature); problem != "" {
		return nil, conderr(CC_ERR_PARAM, problem)
	}
	return newFulfillment(&RSAPayload{
		modulus:   append([]byte{}, modulus...),
		signature: append([]byte{}, signature...),
	})
}

// rsaParamProblem returns why modulus/signature are unusable, or "".
func rsaParamProblem(modulus, signature []byte) string {
	if len(modulus) < rsaMinModulusBytes || len(modulus) > rsaMaxModulusBytes {
		return fmt.Sprintf("modulus must be %d..%d bytes, got %d", rsaMinModulusBytes, rsaMaxModulusBytes, len(modulus))
	}
	if modulus[0] == 0 {
		return "modulus has a leading zero byte"
	}
	if len(signature) != len(modulus) {
		return "signature length must equal modulus length"
	}
	if bytes.Compare(signature, modulus) >= 0 {
		return "signature is not smaller than the modulus"
	}
	return ""
}

func (p *RSAPayload) Modulus() []byte { return bytes.Clone(p.modulus) }

func (p *RSAPayload) Signature() []byte { return bytes.Clone(p.signature) }

func (p *RSAPayload) Type() TypeID { return RSA_SHA256 }

func (p *RSAPayload) Cost() uint64 {
	n := uint64(len(p.modulus))
	return n * n
}

func (p *RSAPayload) FingerprintContents() []byte {
	return appendSequence(nil, AppendTaggedObject(nil, 0, p.modulus))
}

func (p *RSAPayload) Subtypes() TypeSet { return 0 }

func (p *RSAPayload) Depth() int { return 1 }

func (p *RSAPayload) AppendBody(dst []byte) []byte {
	dst = AppendTaggedObject(dst, 0, p.modulus)
	return AppendTaggedObject(dst, 1, p.signature)
}

func (p *RSAPayload) Verify(v *Verifier, message []byte) (bool, error) {
	return v.provider.VerifyRSASHA256(p.modulus, p.signature, message), nil
}

func decodeRSABody(body []byte, off int, _ int) (Payload, error) {
	r := newDERReader(body, off)
	modulus, _, err := r.readElement(derTagTagged + 0)
	if err != nil {
		return nil, err
	}
	signature, sigOff, err := r.readElement(derTagTagged + 1)
	if err != nil {
		return nil, err
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	if problem := rsaParamProblem(modulus, signature); problem != "" {
		return nil, decodeErr(sigOff, problem)
	}
	return &RSAPayload{
		modulus:   append([]byte{}, modulus...),
		signature: append([]byte{}, signature...),
	}, nil
}
