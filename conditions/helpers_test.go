package conditions

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"strings"
	"sync"
	"testing"

	"github.com/cryptoconditions/cc-go/crypto"
)

func mustCondErrCode(t *testing.T, err error) ErrorCode {
	t.Helper()
	ce, ok := err.(*CondError)
	if !ok {
		t.Fatalf("expected *CondError, got %T: %v", err, err)
	}
	return ce.Code
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func mustPreimage(t *testing.T, p string) *Fulfillment {
	t.Helper()
	f, err := NewPreimageFulfillment([]byte(p))
	if err != nil {
		t.Fatalf("NewPreimageFulfillment(%q): %v", p, err)
	}
	return f
}

// rfc8032Seed is the secret key of RFC 8032 section 7.1, test 1.
const rfc8032Seed = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"

func mustEd25519Key(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	return ed25519.NewKeyFromSeed(mustHex(t, rfc8032Seed))
}

func mustEd25519Fulfillment(t *testing.T, priv ed25519.PrivateKey, message []byte) *Fulfillment {
	t.Helper()
	pub := priv.Public().(ed25519.PublicKey)
	f, err := NewEd25519SHA256Fulfillment(pub, ed25519.Sign(priv, message))
	if err != nil {
		t.Fatalf("NewEd25519SHA256Fulfillment: %v", err)
	}
	return f
}

var (
	rsaKeyOnce sync.Once
	rsaKey     *rsa.PrivateKey
	rsaKeyErr  error
)

func mustRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	rsaKeyOnce.Do(func() {
		rsaKey, rsaKeyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	if rsaKeyErr != nil {
		t.Fatalf("rsa.GenerateKey: %v", rsaKeyErr)
	}
	return rsaKey
}

func mustRSAFulfillment(t *testing.T, message []byte) *Fulfillment {
	t.Helper()
	priv := mustRSAKey(t)
	sig, err := crypto.SignRSASHA256(priv, message)
	if err != nil {
		t.Fatalf("SignRSASHA256: %v", err)
	}
	f, err := NewRSASHA256Fulfillment(priv.N.Bytes(), sig)
	if err != nil {
		t.Fatalf("NewRSASHA256Fulfillment: %v", err)
	}
	return f
}

func mustVerify(t *testing.T, f *Fulfillment, c Condition, message []byte) bool {
	t.Helper()
	ok, err := Verify(f, c, message)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	return ok
}

func mustRoundTripFulfillment(t *testing.T, f *Fulfillment) *Fulfillment {
	t.Helper()
	got, err := DecodeFulfillment(f.Encode())
	if err != nil {
		t.Fatalf("DecodeFulfillment(%X): %v", f.Encode(), err)
	}
	if !got.Equal(f) {
		t.Fatalf("round trip mismatch:\n got %X\nwant %X", got.Encode(), f.Encode())
	}
	if !got.Condition().Equal(f.Condition()) {
		t.Fatalf("round trip changed the derived condition")
	}
	return got
}
