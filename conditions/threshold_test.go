package conditions

import (
	"bytes"
	"strings"
	"testing"
)

func TestThresholdFulfillment_MinimalVector(t *testing.T) {
	sub, err := NewPreimageFulfillment([]byte{})
	if err != nil {
		t.Fatalf("NewPreimageFulfillment: %v", err)
	}
	f, err := NewThresholdFulfillment(1, []*Fulfillment{sub}, nil)
	if err != nil {
		t.Fatalf("NewThresholdFulfillment: %v", err)
	}
	if got, want := f.Encode(), mustHex(t, "A208A004A0028000A100"); !bytes.Equal(got, want) {
		t.Fatalf("fulfillment=%X, want %X", got, want)
	}
	want := mustHex(t, "A22A8020B4B84136DF48A71D73F4985C04C6767A778ECB65BA7023B4506823BEEE7631B98102040082020780")
	if got := f.Condition().Encode(); !bytes.Equal(got, want) {
		t.Fatalf("condition=%X, want %X", got, want)
	}
	if !mustVerify(t, f, f.Condition(), []byte{}) {
		t.Fatalf("minimal threshold rejected")
	}
	mustRoundTripFulfillment(t, f)
}

type thresholdFixture struct {
	msg   []byte
	alpha *Fulfillment
	sig   *Fulfillment
	gamma *Fulfillment
}

func newThresholdFixture(t *testing.T) thresholdFixture {
	t.Helper()
	msg := []byte("transfer 10 to bob")
	return thresholdFixture{
		msg:   msg,
		alpha: mustPreimage(t, "alpha"),
		sig:   mustEd25519Fulfillment(t, mustEd25519Key(t), msg),
		gamma: mustPreimage(t, "gamma"),
	}
}

func mustThreshold(t *testing.T, n int, fs []*Fulfillment, cs []Condition) *Fulfillment {
	t.Helper()
	f, err := NewThresholdFulfillment(n, fs, cs)
	if err != nil {
		t.Fatalf("NewThresholdFulfillment(%d): %v", n, err)
	}
	return f
}

func TestThresholdFulfillment_CostSumsMostExpensiveChildren(t *testing.T) {
	small := mustPreimage(t, "a")
	medium := mustPreimage(t, strings.Repeat("b", 10))
	large := mustPreimage(t, strings.Repeat("c", 100))

	cases := []struct {
		name string
		n    int
		fs   []*Fulfillment
		cs   []Condition
		want uint64
	}{
		// The unfulfilled 100-byte child still counts: any two children
		// could be the ones presented.
		{"two_of_three", 2, []*Fulfillment{small, medium}, []Condition{large.Condition()}, 100 + 10 + 3*thresholdCostPerChild},
		{"one_of_three", 1, []*Fulfillment{small}, []Condition{medium.Condition(), large.Condition()}, 100 + 3*thresholdCostPerChild},
		{"three_of_three", 3, []*Fulfillment{small, medium, large}, nil, 1 + 10 + 100 + 3*thresholdCostPerChild},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := mustThreshold(t, tc.n, tc.fs, tc.cs)
			if f.Cost() != tc.want {
				t.Fatalf("cost=%d, want %d", f.Cost(), tc.want)
			}
			if got := mustRoundTripFulfillment(t, f).Cost(); got != tc.want {
				t.Fatalf("decoded cost=%d, want %d", got, tc.want)
			}
		})
	}
}

func TestThresholdFulfillment_TwoOfThree(t *testing.T) {
	fx := newThresholdFixture(t)
	full := mustThreshold(t, 2, []*Fulfillment{fx.alpha, fx.sig}, []Condition{fx.gamma.Condition()})
	cond := full.Condition()

	if want := uint64(ed25519Cost + 5 + 3*thresholdCostPerChild); cond.Cost() != want {
		t.Fatalf("cost=%d, want %d", cond.Cost(), want)
	}
	if want := TypeSetOf(PREIMAGE_SHA256, ED25519_SHA256); cond.Subtypes() != want {
		t.Fatalf("subtypes=%v, want %v", cond.Subtypes(), want)
	}
	if !mustVerify(t, full, cond, fx.msg) {
		t.Fatalf("2-of-3 with two valid children rejected")
	}
	mustRoundTripFulfillment(t, full)

	t.Run("one_valid", func(t *testing.T) {
		// Only alpha is fulfilled: the encoding commits to threshold 1, so
		// it cannot match the 2-of-3 condition.
		under := mustThreshold(t, 1, []*Fulfillment{fx.alpha}, []Condition{fx.sig.Condition(), fx.gamma.Condition()})
		if mustVerify(t, under, cond, fx.msg) {
			t.Fatalf("1-of-3 proof accepted for a 2-of-3 condition")
		}
	})

	t.Run("bad_signature", func(t *testing.T) {
		forged := mustEd25519Fulfillment(t, mustEd25519Key(t), []byte("transfer 99 to eve"))
		f := mustThreshold(t, 2, []*Fulfillment{fx.alpha, forged}, []Condition{fx.gamma.Condition()})
		if !f.Condition().Equal(cond) {
			t.Fatalf("same key must yield the same condition")
		}
		if mustVerify(t, f, cond, fx.msg) {
			t.Fatalf("threshold accepted an invalid signature")
		}
	})

	t.Run("other_children", func(t *testing.T) {
		f := mustThreshold(t, 2, []*Fulfillment{fx.alpha, fx.sig}, []Condition{mustPreimage(t, "delta").Condition()})
		if mustVerify(t, f, cond, fx.msg) {
			t.Fatalf("different child set satisfied the condition")
		}
	})
}

func TestThresholdFulfillment_OrderIndependent(t *testing.T) {
	fx := newThresholdFixture(t)
	a := mustThreshold(t, 2, []*Fulfillment{fx.alpha, fx.sig}, []Condition{fx.gamma.Condition()})
	b := mustThreshold(t, 2, []*Fulfillment{fx.sig, fx.alpha}, []Condition{fx.gamma.Condition()})
	if !a.Equal(b) {
		t.Fatalf("encoding depends on argument order:\n%X\n%X", a.Encode(), b.Encode())
	}
	if !a.Condition().Equal(b.Condition()) {
		t.Fatalf("condition depends on argument order")
	}
}

func TestThresholdFulfillment_OverSupplyKeepsShortest(t *testing.T) {
	fx := newThresholdFixture(t)
	f := mustThreshold(t, 2, []*Fulfillment{fx.sig, fx.gamma, fx.alpha}, nil)

	p := f.Payload().(*ThresholdPayload)
	if p.Threshold() != 2 {
		t.Fatalf("threshold=%d", p.Threshold())
	}
	subs := p.Subfulfillments()
	if len(subs) != 2 || subs[0].Type() != PREIMAGE_SHA256 || subs[1].Type() != PREIMAGE_SHA256 {
		t.Fatalf("expected the two preimages to be kept, got %v", subs)
	}
	if cs := p.Subconditions(); len(cs) != 1 || !cs[0].Equal(fx.sig.Condition()) {
		t.Fatalf("signature must be demoted to a bare condition")
	}

	explicit := mustThreshold(t, 2, []*Fulfillment{fx.alpha, fx.gamma}, []Condition{fx.sig.Condition()})
	if !f.Equal(explicit) {
		t.Fatalf("normalised encoding differs:\n%X\n%X", f.Encode(), explicit.Encode())
	}
	if !mustVerify(t, f, f.Condition(), []byte("any message")) {
		t.Fatalf("normalised threshold rejected")
	}
}

func TestThresholdFulfillment_Rejects(t *testing.T) {
	fx := newThresholdFixture(t)
	cases := []struct {
		name string
		n    int
		fs   []*Fulfillment
		cs   []Condition
		want ErrorCode
	}{
		{"zero_threshold", 0, []*Fulfillment{fx.alpha}, nil, CC_ERR_STRUCTURAL},
		{"threshold_above_children", 3, []*Fulfillment{fx.alpha}, []Condition{fx.gamma.Condition()}, CC_ERR_STRUCTURAL},
		{"too_few_fulfillments", 2, []*Fulfillment{fx.alpha}, []Condition{fx.gamma.Condition()}, CC_ERR_STRUCTURAL},
		{"threshold_too_large", MaxThreshold + 1, []*Fulfillment{fx.alpha}, nil, CC_ERR_STRUCTURAL},
		{"duplicate_child", 1, []*Fulfillment{fx.alpha}, []Condition{fx.alpha.Condition()}, CC_ERR_STRUCTURAL},
		{"duplicate_fulfillment", 2, []*Fulfillment{fx.alpha, mustPreimage(t, "alpha")}, nil, CC_ERR_STRUCTURAL},
		{"nil_fulfillment", 1, []*Fulfillment{nil}, nil, CC_ERR_NULL_INPUT},
		{"zero_condition", 1, []*Fulfillment{fx.alpha}, []Condition{{}}, CC_ERR_NULL_INPUT},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewThresholdFulfillment(tc.n, tc.fs, tc.cs)
			if got := mustCondErrCode(t, err); got != tc.want {
				t.Fatalf("code=%s, want %s (%v)", got, tc.want, err)
			}
		})
	}
}

func TestThresholdFulfillment_NestedRoundTrip(t *testing.T) {
	fx := newThresholdFixture(t)
	prefix := []byte("memo:")
	signed := mustEd25519Fulfillment(t, mustEd25519Key(t), append(append([]byte{}, prefix...), fx.msg...))
	pf, err := NewPrefixFulfillment(prefix, 64, signed)
	if err != nil {
		t.Fatalf("NewPrefixFulfillment: %v", err)
	}
	inner := mustThreshold(t, 1, []*Fulfillment{fx.gamma}, []Condition{fx.alpha.Condition()})
	outer := mustThreshold(t, 2, []*Fulfillment{pf, inner}, []Condition{mustRSAFulfillment(t, fx.msg).Condition()})

	if outer.Depth() != 3 {
		t.Fatalf("depth=%d, want 3", outer.Depth())
	}
	want := TypeSetOf(PREFIX_SHA256, PREIMAGE_SHA256, RSA_SHA256, ED25519_SHA256)
	if got := outer.Condition().Subtypes(); got != want {
		t.Fatalf("subtypes=%v, want %v", got, want)
	}
	got := mustRoundTripFulfillment(t, outer)
	if !mustVerify(t, got, outer.Condition(), fx.msg) {
		t.Fatalf("decoded nested threshold rejected")
	}
	if mustVerify(t, got, outer.Condition(), []byte("transfer 11 to bob")) {
		t.Fatalf("nested threshold accepted a different message")
	}
}

func unknownCondition(t *testing.T) Condition {
	t.Helper()
	body := AppendTaggedObject(nil, 0, bytes.Repeat([]byte{0x11}, 32))
	body = AppendTaggedObject(body, 1, appendUintBody(nil, 65536))
	raw := AppendTaggedConstructedObject(nil, 5, body)
	c, err := DecodeCondition(raw)
	if err != nil {
		t.Fatalf("DecodeCondition(%X): %v", raw, err)
	}
	return c
}

func TestThresholdFulfillment_UnknownSubcondition(t *testing.T) {
	unk := unknownCondition(t)
	if !unk.Unsupported() || unk.Type() != 5 || unk.Cost() != 65536 {
		t.Fatalf("unexpected opaque condition %+v", unk)
	}
	if unk.Type().Name() != "unknown-5" {
		t.Fatalf("name=%q", unk.Type().Name())
	}

	alpha := mustPreimage(t, "alpha")
	f := mustThreshold(t, 1, []*Fulfillment{alpha}, []Condition{unk})
	if want := uint64(65536 + 2*thresholdCostPerChild); f.Cost() != want {
		t.Fatalf("cost=%d, want %d", f.Cost(), want)
	}
	got := mustRoundTripFulfillment(t, f)
	cs := got.Payload().(*ThresholdPayload).Subconditions()
	if len(cs) != 1 || !cs[0].Equal(unk) || !cs[0].Unsupported() {
		t.Fatalf("opaque subcondition not preserved")
	}
	if !mustVerify(t, got, f.Condition(), []byte("m")) {
		t.Fatalf("threshold with an opaque child rejected")
	}
}

func TestDecodeFulfillment_UnknownType(t *testing.T) {
	_, err := DecodeFulfillment(mustHex(t, "A5028000"))
	if got := mustCondErrCode(t, err); got != CC_ERR_UNSUPPORTED_TYPE {
		t.Fatalf("code=%s, want %s", got, CC_ERR_UNSUPPORTED_TYPE)
	}
	if !IsDecodeError(err) {
		t.Fatalf("unknown fulfillment type must count as a decode error")
	}

	// Nested inside a threshold the offset points at the inner element.
	_, err = DecodeFulfillment(mustHex(t, "A208A004A5028000A100"))
	if got := mustCondErrCode(t, err); got != CC_ERR_UNSUPPORTED_TYPE {
		t.Fatalf("code=%s, want %s", got, CC_ERR_UNSUPPORTED_TYPE)
	}
	if off := err.(*CondError).Offset; off != 4 {
		t.Fatalf("offset=%d, want 4", off)
	}
}

func TestDecodeThreshold_SetOrder(t *testing.T) {
	alpha := mustPreimage(t, "alpha")
	short := mustPreimage(t, "x").Condition()
	long := mustEd25519Fulfillment(t, mustEd25519Key(t), []byte{}).Condition()

	build := func(first, second Condition) []byte {
		body := AppendTaggedConstructedObject(nil, 0, alpha.Encode())
		body = AppendTaggedConstructedObject(body, 1, append(first.Encode(), second.Encode()...))
		return AppendTaggedConstructedObject(nil, int(THRESHOLD_SHA256), body)
	}

	if _, err := DecodeFulfillment(build(short, long)); err != nil {
		t.Fatalf("sorted set rejected: %v", err)
	}
	_, err := DecodeFulfillment(build(long, short))
	if got := mustCondErrCode(t, err); got != CC_ERR_DECODE {
		t.Fatalf("code=%s, want %s", got, CC_ERR_DECODE)
	}
}

func TestDecodeThreshold_NoSubfulfillments(t *testing.T) {
	_, err := DecodeFulfillment(mustHex(t, "A204A000A100"))
	if got := mustCondErrCode(t, err); got != CC_ERR_STRUCTURAL {
		t.Fatalf("code=%s, want %s", got, CC_ERR_STRUCTURAL)
	}
}
