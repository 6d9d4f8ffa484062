package main

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cryptoconditions/cc-go/crypto"
	"github.com/cryptoconditions/cc-go/internal/ops"
)

const fixtureGate = "CC-VECTORS"

type fixtureFile struct {
	Gate    string   `json:"gate"`
	Vectors []vector `json:"vectors"`
}

// vector pairs a cc-cli request with the response it must produce.
type vector struct {
	ID      string       `json:"id"`
	Request ops.Request  `json:"request"`
	Expect  ops.Response `json:"expect"`
}

// rfc8032Seed is the RFC 8032 section 7.1 test 1 secret key.
const rfc8032Seed = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"

func hexPtr(b []byte) *string {
	s := hex.EncodeToString(b)
	return &s
}

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		fatalf("bad hex %q: %v", s, err)
	}
	return b
}

type generator struct {
	out *fixtureFile
	err error
}

// ok records a request that must succeed and returns its response.
func (g *generator) ok(id string, req ops.Request) ops.Response {
	resp := ops.Run(req)
	if !resp.Ok && g.err == nil {
		g.err = fmt.Errorf("%s: %s", id, resp.Err)
	}
	g.out.Vectors = append(g.out.Vectors, vector{ID: id, Request: req, Expect: resp})
	return resp
}

// fails records a request that must be rejected.
func (g *generator) fails(id string, req ops.Request) {
	resp := ops.Run(req)
	if resp.Ok && g.err == nil {
		g.err = fmt.Errorf("%s: expected an error", id)
	}
	g.out.Vectors = append(g.out.Vectors, vector{ID: id, Request: req, Expect: resp})
}

func (g *generator) verify(id string, built ops.Response, msg []byte) {
	g.ok(id, ops.Request{Op: "verify", FulfillmentHex: built.FulfillmentHex, ConditionHex: built.ConditionHex, MessageHex: hexPtr(msg)})
}

func generate() (*fixtureFile, error) {
	g := &generator{out: &fixtureFile{Gate: fixtureGate}}

	empty := g.ok("CC-PRE-01", ops.Request{Op: "preimage"})
	hello := g.ok("CC-PRE-02", ops.Request{Op: "preimage", PreimageHex: hex.EncodeToString([]byte("hello"))})

	pfxEmpty := g.ok("CC-PFX-01", ops.Request{Op: "prefix", SubfulfillmentHex: empty.FulfillmentHex})
	pfxShort := g.ok("CC-PFX-02", ops.Request{Op: "prefix", PrefixHex: "61", MaxMessageLength: 1, SubfulfillmentHex: hello.FulfillmentHex})

	priv := ed25519.NewKeyFromSeed(mustDecodeHex(rfc8032Seed))
	pub := priv.Public().(ed25519.PublicKey)
	sigEmpty := g.ok("CC-ED-01", ops.Request{
		Op:           "ed25519",
		PublicKeyHex: hex.EncodeToString(pub),
		SignatureHex: hex.EncodeToString(ed25519.Sign(priv, []byte{})),
	})

	msg := []byte("crypto-conditions")
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	rsaSig, err := crypto.SignRSASHA256(rsaKey, msg)
	if err != nil {
		return nil, err
	}
	rsaF := g.ok("CC-RSA-01", ops.Request{
		Op:           "rsa",
		ModulusHex:   hex.EncodeToString(rsaKey.N.Bytes()),
		SignatureHex: hex.EncodeToString(rsaSig),
	})

	thrOne := g.ok("CC-THR-01", ops.Request{Op: "threshold", Threshold: 1, Fulfillments: []string{empty.FulfillmentHex}})
	thrTwo := g.ok("CC-THR-02", ops.Request{
		Op:           "threshold",
		Threshold:    2,
		Fulfillments: []string{rsaF.FulfillmentHex, hello.FulfillmentHex},
		Conditions:   []string{sigEmpty.ConditionHex},
	})

	g.verify("CC-VER-01", empty, nil)
	g.verify("CC-VER-02", hello, []byte("any"))
	g.verify("CC-VER-03", pfxEmpty, nil)
	g.verify("CC-VER-04", pfxShort, []byte("too long"))
	g.verify("CC-VER-05", sigEmpty, nil)
	g.verify("CC-VER-06", sigEmpty, msg)
	g.verify("CC-VER-07", rsaF, msg)
	g.verify("CC-VER-08", thrOne, nil)
	g.verify("CC-VER-09", thrTwo, msg)
	g.fails("CC-VER-10", ops.Request{Op: "verify", FulfillmentHex: hello.FulfillmentHex, ConditionHex: sigEmpty.ConditionHex, MessageHex: hexPtr(nil)})

	g.ok("CC-URI-01", ops.Request{Op: "parse_uri", URI: thrTwo.URI})
	g.ok("CC-URI-02", ops.Request{Op: "decode_condition", ConditionHex: pfxEmpty.ConditionHex})

	for _, r := range []struct{ id, enc string }{
		{"CC-DEC-01", "a0028000" + "00"},
		{"CC-DEC-02", "a08103800100"},
		{"CC-DEC-03", "a5028000"},
		{"CC-DEC-04", "a204a000a100"},
	} {
		g.fails(r.id, ops.Request{Op: "decode_fulfillment", FulfillmentHex: r.enc})
	}

	if g.err != nil {
		return nil, g.err
	}
	return g.out, nil
}

// checkFixture replays every request and returns one line per response that
// differs from the recorded one.
func checkFixture(f *fixtureFile) []string {
	var problems []string
	for _, v := range f.Vectors {
		want, err := json.Marshal(v.Expect)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", v.ID, err))
			continue
		}
		got, err := json.Marshal(ops.Run(v.Request))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", v.ID, err))
			continue
		}
		if !bytes.Equal(got, want) {
			problems = append(problems, fmt.Sprintf("%s: got %s, want %s", v.ID, got, want))
		}
	}
	return problems
}

func mustLoadFixture(path string) *fixtureFile {
	b, err := os.ReadFile(path)
	if err != nil {
		fatalf("read %s: %v", path, err)
	}
	var f fixtureFile
	if err := json.Unmarshal(b, &f); err != nil {
		fatalf("parse %s: %v", path, err)
	}
	return &f
}

func mustWriteFixture(path string, f *fixtureFile) {
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		fatalf("marshal %s: %v", path, err)
	}
	b = append(b, '\n')
	if err := os.WriteFile(path, b, 0o600); err != nil {
		fatalf("write %s: %v", path, err)
	}
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "fatal: "+format+"\n", args...)
	os.Exit(1)
}
