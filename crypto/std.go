package crypto

import (
	stdcrypto "crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"math/big"
)

const (
	RSAPublicExponent = 65537
	RSAPSSSaltLength  = 32
)

// StdCryptoProvider implements CryptoProvider with the Go standard library.
type StdCryptoProvider struct{}

func (StdCryptoProvider) SHA256(input []byte) [32]byte {
	return sha256.Sum256(input)
}

func (StdCryptoProvider) VerifyRSASHA256(modulus []byte, sig []byte, message []byte) bool {
	if len(modulus) == 0 || len(sig) != len(modulus) {
		return false
	}
	pub := &rsa.PublicKey{N: new(big.Int).SetBytes(modulus), E: RSAPublicExponent}
	digest := sha256.Sum256(message)
	err := rsa.VerifyPSS(pub, stdcrypto.SHA256, digest[:], sig, &rsa.PSSOptions{
		SaltLength: RSAPSSSaltLength,
		Hash:       stdcrypto.SHA256,
	})
	return err == nil
}

func (StdCryptoProvider) VerifyEd25519(pubkey []byte, sig []byte, message []byte) bool {
	if len(pubkey) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pubkey), message, sig)
}

// SignRSASHA256 produces a signature StdCryptoProvider accepts. Key
// management is the caller's concern; this exists for tooling and tests.
func SignRSASHA256(priv *rsa.PrivateKey, message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	return rsa.SignPSS(rand.Reader, priv, stdcrypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: RSAPSSSaltLength,
		Hash:       stdcrypto.SHA256,
	})
}
