package conditions

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Variant is the dispatch entry for one condition type. Fingerprint, cost,
// encoding and verification live on the Payload it decodes to.
type Variant struct {
	ID       TypeID
	Name     string
	Compound bool

	// Decode parses the contents of a fulfillment of this type. off is the
	// absolute offset of body in the outer input and depth the nesting level
	// of the fulfillment being decoded. Compound variants decode children
	// with DecodeSubfulfillment. The payload must report ID as its type.
	Decode func(body []byte, off int, depth int) (Payload, error)
}

var (
	registryMu sync.Mutex
	registry   = map[TypeID]Variant{}
	sealed     atomic.Bool
)

// Register adds a variant. It must be called from package init; once any
// lookup has happened the table is read-only and Register panics.
func Register(v Variant) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if sealed.Load() {
		panic("conditions: Register called after the registry was sealed")
	}
	if v.ID > maxWireTypeID {
		panic(fmt.Sprintf("conditions: type id %d does not fit a context tag", v.ID))
	}
	if v.Decode == nil || v.Name == "" {
		panic(fmt.Sprintf("conditions: incomplete variant %d", v.ID))
	}
	if _, ok := registry[v.ID]; ok {
		panic(fmt.Sprintf("conditions: type id %d registered twice", v.ID))
	}
	registry[v.ID] = v
}

func seal() {
	if sealed.Load() {
		return
	}
	registryMu.Lock()
	sealed.Store(true)
	registryMu.Unlock()
}

func lookupVariant(id TypeID) (Variant, bool) {
	seal()
	v, ok := registry[id]
	return v, ok
}

// LookupVariantByName resolves a type name such as "preimage-sha-256".
func LookupVariantByName(name string) (Variant, bool) {
	seal()
	for _, v := range registry {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// Variants returns the registered variants ordered by id.
func Variants() []Variant {
	seal()
	out := make([]Variant, 0, len(registry))
	for _, v := range registry {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func init() {
	Register(Variant{ID: PREIMAGE_SHA256, Name: "preimage-sha-256", Decode: decodePreimageBody})
	Register(Variant{ID: PREFIX_SHA256, Name: "prefix-sha-256", Compound: true, Decode: decodePrefixBody})
	Register(Variant{ID: THRESHOLD_SHA256, Name: "threshold-sha-256", Compound: true, Decode: decodeThresholdBody})
	Register(Variant{ID: RSA_SHA256, Name: "rsa-sha-256", Decode: decodeRSABody})
	Register(Variant{ID: ED25519_SHA256, Name: "ed25519-sha-256", Decode: decodeEd25519Body})
}
