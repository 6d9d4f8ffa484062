package conditions

import (
	"log/slog"

	"github.com/cryptoconditions/cc-go/crypto"
)

// Verifier checks fulfillments using an injected crypto provider. It holds
// no mutable state and may be shared between goroutines.
type Verifier struct {
	provider crypto.CryptoProvider
	logger   *slog.Logger
}

// NewVerifier returns a verifier. A nil provider selects the standard
// library backend; a nil logger follows slog.Default().
func NewVerifier(provider crypto.CryptoProvider, logger *slog.Logger) *Verifier {
	if provider == nil {
		provider = defaultProvider
	}
	return &Verifier{provider: provider, logger: logger}
}

var defaultVerifier = NewVerifier(nil, nil)

// Verify reports whether f proves c for message using the default verifier.
func Verify(f *Fulfillment, c Condition, message []byte) (bool, error) {
	return defaultVerifier.Verify(f, c, message)
}

// Verify reports whether f proves c for message. A false result with a nil
// error is an ordinary failed proof; errors mean the inputs were unusable.
func (v *Verifier) Verify(f *Fulfillment, c Condition, message []byte) (bool, error) {
	if f == nil {
		return false, conderr(CC_ERR_NULL_INPUT, "fulfillment is required")
	}
	if c.IsZero() {
		return false, conderr(CC_ERR_NULL_INPUT, "condition is required")
	}
	if message == nil {
		return false, conderr(CC_ERR_NULL_INPUT, "message is required")
	}
	return v.verify(f, c, message)
}

func (v *Verifier) verify(f *Fulfillment, c Condition, message []byte) (bool, error) {
	if f.typ != c.typ {
		return false, conderr(CC_ERR_TYPE_MISMATCH, "fulfillment is "+f.typ.Name()+", condition is "+c.typ.Name())
	}
	derived, err := deriveCondition(f.payload, v.provider)
	if err != nil {
		return false, err
	}
	if !derived.Equal(c) {
		v.log().Debug("derived condition mismatch", "type", f.typ.Name())
		return false, nil
	}
	ok, err := f.payload.Verify(v, message)
	if err != nil {
		return false, err
	}
	if !ok {
		v.log().Debug("fulfillment rejected", "type", f.typ.Name())
	}
	return ok, nil
}

func (v *Verifier) log() *slog.Logger {
	if v.logger != nil {
		return v.logger
	}
	return slog.Default()
}

// Provider exposes the crypto backend to payloads registered outside this
// package.
func (v *Verifier) Provider() crypto.CryptoProvider { return v.provider }

// VerifySubfulfillment checks a nested fulfillment against its own derived
// condition. Payloads registered outside this package use it to recurse.
func (v *Verifier) VerifySubfulfillment(f *Fulfillment, message []byte) (bool, error) {
	if f == nil {
		return false, conderr(CC_ERR_NULL_INPUT, "subfulfillment is required")
	}
	return v.verify(f, f.cond, message)
}
