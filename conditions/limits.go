package conditions

import "math"

const (
	FingerprintSize = 32

	// MaxCost is the largest cost a condition can declare on the wire.
	MaxCost = math.MaxUint32

	// MaxNestingDepth bounds prefix/threshold nesting. A lone preimage is
	// depth 1.
	MaxNestingDepth = 16

	MaxThreshold = 65535

	prefixCostOverhead    = 1024
	thresholdCostPerChild = 1024
	ed25519Cost           = 131072

	rsaMinModulusBytes = 128
	rsaMaxModulusBytes = 512

	ed25519PublicKeyBytes = 32
	ed25519SignatureBytes = 64
)
