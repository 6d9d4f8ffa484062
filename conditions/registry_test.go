package conditions

import "testing"

// mislabeledSHA256 decodes with the preimage decoder, so its payloads
// report the wrong type.
const mislabeledSHA256 TypeID = 8

func init() {
	Register(Variant{ID: mislabeledSHA256, Name: "mislabeled-sha-256", Decode: decodePreimageBody})
}

func TestVariants_Builtin(t *testing.T) {
	want := []struct {
		id       TypeID
		name     string
		compound bool
	}{
		{PREIMAGE_SHA256, "preimage-sha-256", false},
		{PREFIX_SHA256, "prefix-sha-256", true},
		{THRESHOLD_SHA256, "threshold-sha-256", true},
		{RSA_SHA256, "rsa-sha-256", false},
		{ED25519_SHA256, "ed25519-sha-256", false},
	}
	// Variants registered by tests follow the builtins.
	got := Variants()
	if len(got) < len(want) {
		t.Fatalf("variants=%d, want at least %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].ID != w.id || got[i].Name != w.name || got[i].Compound != w.compound {
			t.Fatalf("variant %d = %+v, want %+v", i, got[i], w)
		}
		v, ok := LookupVariantByName(w.name)
		if !ok || v.ID != w.id {
			t.Fatalf("LookupVariantByName(%q) = %+v, %v", w.name, v, ok)
		}
		if w.id.String() != w.name {
			t.Fatalf("String()=%q", w.id.String())
		}
	}
	if _, ok := LookupVariantByName("sha-512"); ok {
		t.Fatalf("unknown name resolved")
	}
}

func TestRegister_AfterSealPanics(t *testing.T) {
	_ = Variants()
	defer func() {
		if recover() == nil {
			t.Fatalf("Register after first lookup did not panic")
		}
	}()
	Register(Variant{
		ID:   9,
		Name: "late-sha-256",
		Decode: func([]byte, int, int) (Payload, error) {
			return nil, nil
		},
	})
}

func TestDecodeFulfillment_PayloadTypeMustMatchTag(t *testing.T) {
	_, err := DecodeFulfillment(mustHex(t, "A80480026869"))
	if code := mustCondErrCode(t, err); code != CC_ERR_TYPE_MISMATCH {
		t.Fatalf("code=%s", code)
	}
	if ce := err.(*CondError); ce.Offset != 0 {
		t.Fatalf("offset=%d", ce.Offset)
	}

	// Nested inside a prefix the offset points at the inner fulfillment.
	_, err = DecodeFulfillment(mustHex(t, "A10D8000810100A206A80480026869"))
	if code := mustCondErrCode(t, err); code != CC_ERR_TYPE_MISMATCH {
		t.Fatalf("code=%s", code)
	}
	if ce := err.(*CondError); ce.Offset != 9 {
		t.Fatalf("offset=%d", ce.Offset)
	}
}

func TestTypeSet(t *testing.T) {
	s := TypeSetOf(ED25519_SHA256, PREIMAGE_SHA256)
	if s.Len() != 2 || !s.Has(PREIMAGE_SHA256) || s.Has(PREFIX_SHA256) {
		t.Fatalf("unexpected set %v", s)
	}
	if got := s.String(); got != "{preimage-sha-256,ed25519-sha-256}" {
		t.Fatalf("String()=%q", got)
	}
	if s.Remove(PREIMAGE_SHA256) != TypeSetOf(ED25519_SHA256) {
		t.Fatalf("Remove failed")
	}
	if s.Add(40) != s || s.Has(40) {
		t.Fatalf("ids beyond the bit set must be ignored")
	}
}
