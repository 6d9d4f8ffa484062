package crypto

// CryptoProvider is the narrow crypto interface used by the conditions
// package. Implementations must be safe for concurrent use.
type CryptoProvider interface {
	SHA256(input []byte) [32]byte
	// VerifyRSASHA256 checks an RSASSA-PSS signature (SHA-256, MGF1-SHA-256,
	// 32-byte salt) over message under the big-endian modulus with e=65537.
	VerifyRSASHA256(modulus []byte, sig []byte, message []byte) bool
	VerifyEd25519(pubkey []byte, sig []byte, message []byte) bool
}
