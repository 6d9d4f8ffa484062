// Package ops is the JSON request vocabulary shared by the command-line
// tools: one op per request, errors reported by CondError code and offset.
package ops

import (
	"encoding/hex"
	"errors"

	"github.com/cryptoconditions/cc-go/conditions"
)

type Request struct {
	Op string `json:"op"`

	PreimageHex       string   `json:"preimage_hex,omitempty"`
	PrefixHex         string   `json:"prefix_hex,omitempty"`
	MaxMessageLength  uint32   `json:"max_message_length,omitempty"`
	SubfulfillmentHex string   `json:"subfulfillment_hex,omitempty"`
	Threshold         int      `json:"threshold,omitempty"`
	Fulfillments      []string `json:"fulfillments,omitempty"`
	Conditions        []string `json:"conditions,omitempty"`
	PublicKeyHex      string   `json:"public_key_hex,omitempty"`
	ModulusHex        string   `json:"modulus_hex,omitempty"`
	SignatureHex      string   `json:"signature_hex,omitempty"`

	FulfillmentHex string  `json:"fulfillment_hex,omitempty"`
	ConditionHex   string  `json:"condition_hex,omitempty"`
	URI            string  `json:"uri,omitempty"`
	MessageHex     *string `json:"message_hex,omitempty"`
}

type Response struct {
	Ok             bool     `json:"ok"`
	Err            string   `json:"err,omitempty"`
	Offset         *int     `json:"offset,omitempty"`
	FulfillmentHex string   `json:"fulfillment_hex,omitempty"`
	ConditionHex   string   `json:"condition_hex,omitempty"`
	URI            string   `json:"uri,omitempty"`
	Type           string   `json:"type,omitempty"`
	Cost           *uint64  `json:"cost,omitempty"`
	Subtypes       []string `json:"subtypes,omitempty"`
	Verified       *bool    `json:"verified,omitempty"`
}

var errBadHex = errors.New("bad hex")

// decodeHex maps "" to an empty, non-nil slice; absent inputs are an
// error only where the op says so.
func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errBadHex
	}
	if b == nil {
		b = []byte{}
	}
	return b, nil
}

func errResp(err error) Response {
	var ce *conditions.CondError
	if errors.As(err, &ce) {
		resp := Response{Ok: false, Err: string(ce.Code)}
		if ce.Offset >= 0 {
			off := ce.Offset
			resp.Offset = &off
		}
		return resp
	}
	return Response{Ok: false, Err: err.Error()}
}

func conditionResp(c conditions.Condition) Response {
	cost := c.Cost()
	resp := Response{
		Ok:           true,
		ConditionHex: hex.EncodeToString(c.Encode()),
		Type:         c.Type().Name(),
		Cost:         &cost,
	}
	if !c.Unsupported() {
		resp.URI = c.URI()
	}
	for _, id := range c.Subtypes().IDs() {
		resp.Subtypes = append(resp.Subtypes, id.Name())
	}
	return resp
}

func fulfillmentResp(f *conditions.Fulfillment) Response {
	resp := conditionResp(f.Condition())
	resp.FulfillmentHex = hex.EncodeToString(f.Encode())
	return resp
}

// Run executes a single request.
func Run(req Request) Response {
	switch req.Op {
	case "preimage":
		pre, err := decodeHex(req.PreimageHex)
		if err != nil {
			return errResp(err)
		}
		f, err := conditions.NewPreimageFulfillment(pre)
		if err != nil {
			return errResp(err)
		}
		return fulfillmentResp(f)

	case "prefix":
		prefix, err := decodeHex(req.PrefixHex)
		if err != nil {
			return errResp(err)
		}
		sub, err := decodeFulfillmentHex(req.SubfulfillmentHex)
		if err != nil {
			return errResp(err)
		}
		f, err := conditions.NewPrefixFulfillment(prefix, req.MaxMessageLength, sub)
		if err != nil {
			return errResp(err)
		}
		return fulfillmentResp(f)

	case "threshold":
		fs := make([]*conditions.Fulfillment, 0, len(req.Fulfillments))
		for _, h := range req.Fulfillments {
			f, err := decodeFulfillmentHex(h)
			if err != nil {
				return errResp(err)
			}
			fs = append(fs, f)
		}
		cs := make([]conditions.Condition, 0, len(req.Conditions))
		for _, h := range req.Conditions {
			c, err := decodeConditionHex(h)
			if err != nil {
				return errResp(err)
			}
			cs = append(cs, c)
		}
		f, err := conditions.NewThresholdFulfillment(req.Threshold, fs, cs)
		if err != nil {
			return errResp(err)
		}
		return fulfillmentResp(f)

	case "ed25519":
		pub, err := decodeHex(req.PublicKeyHex)
		if err != nil {
			return errResp(err)
		}
		sig, err := decodeHex(req.SignatureHex)
		if err != nil {
			return errResp(err)
		}
		f, err := conditions.NewEd25519SHA256Fulfillment(pub, sig)
		if err != nil {
			return errResp(err)
		}
		return fulfillmentResp(f)

	case "rsa":
		modulus, err := decodeHex(req.ModulusHex)
		if err != nil {
			return errResp(err)
		}
		sig, err := decodeHex(req.SignatureHex)
		if err != nil {
			return errResp(err)
		}
		f, err := conditions.NewRSASHA256Fulfillment(modulus, sig)
		if err != nil {
			return errResp(err)
		}
		return fulfillmentResp(f)

	case "decode_fulfillment":
		f, err := decodeFulfillmentHex(req.FulfillmentHex)
		if err != nil {
			return errResp(err)
		}
		return fulfillmentResp(f)

	case "decode_condition":
		c, err := decodeConditionHex(req.ConditionHex)
		if err != nil {
			return errResp(err)
		}
		return conditionResp(c)

	case "parse_uri":
		c, err := conditions.ParseConditionURI(req.URI)
		if err != nil {
			return errResp(err)
		}
		return conditionResp(c)

	case "verify":
		f, err := decodeFulfillmentHex(req.FulfillmentHex)
		if err != nil {
			return errResp(err)
		}
		var c conditions.Condition
		if req.URI != "" {
			c, err = conditions.ParseConditionURI(req.URI)
		} else {
			c, err = decodeConditionHex(req.ConditionHex)
		}
		if err != nil {
			return errResp(err)
		}
		if req.MessageHex == nil {
			return errResp(errors.New("message_hex is required"))
		}
		msg, err := decodeHex(*req.MessageHex)
		if err != nil {
			return errResp(err)
		}
		ok, err := conditions.Verify(f, c, msg)
		if err != nil {
			return errResp(err)
		}
		return Response{Ok: true, Verified: &ok}

	default:
		return Response{Ok: false, Err: "unknown op"}
	}
}

func decodeFulfillmentHex(s string) (*conditions.Fulfillment, error) {
	b, err := decodeHex(s)
	if err != nil {
		return nil, err
	}
	return conditions.DecodeFulfillment(b)
}

func decodeConditionHex(s string) (conditions.Condition, error) {
	b, err := decodeHex(s)
	if err != nil {
		return conditions.Condition{}, err
	}
	return conditions.DecodeCondition(b)
}
