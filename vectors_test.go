package argon2

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// referenceVector is one RFC 9106 section 5 known-answer test. All
// three share the same inputs and differ only in variant.
type referenceVector struct {
	name    string
	variant Variant
	tag     string
}

// The section 5 inputs: password 0x01*32, salt 0x02*16, secret 0x03*8,
// associated data 0x04*12, m=32 KiB, t=3, p=4, 32-byte tag.
var (
	refPassword = bytes.Repeat([]byte{0x01}, 32)
	refSalt     = bytes.Repeat([]byte{0x02}, 16)
	refSecret   = bytes.Repeat([]byte{0x03}, 8)
	refData     = bytes.Repeat([]byte{0x04}, 12)

	referenceVectors = []referenceVector{
		{"argon2d", Argon2d, "512b391b6f1162975371d30919734294f868e3be3984f3c1a13a4db9fabe4acb"},
		{"argon2i", Argon2i, "c814d9d1dc7f37aa13f0d77f2494bda1c8de6b016dd388d29952a4c4672b6ce8"},
		{"argon2id", Argon2id, "0d640df58d78766c08c037a34a8b53c9d01ef0452d75b65eb52520e96b01e659"},
	}
)

func refParams(t *testing.T, v Variant) Params {
	t.Helper()
	p, err := NewBuilder().
		Variant(v).
		Memory(32).
		Time(3).
		Parallelism(4).
		TagLength(32).
		Salt(refSalt).
		Secret(refSecret).
		AssociatedData(refData).
		Build()
	if err != nil {
		t.Fatalf("building reference params: %v", err)
	}
	return p
}

// TestReferenceVectors validates the full public path against the
// RFC 9106 known answers, byte for byte.
func TestReferenceVectors(t *testing.T) {
	for _, tv := range referenceVectors {
		t.Run(tv.name, func(t *testing.T) {
			h, err := New(refParams(t, tv.variant))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			tag, err := h.Hash(refPassword)
			if err != nil {
				t.Fatalf("Hash() error = %v", err)
			}
			want, _ := hex.DecodeString(tv.tag)
			if !bytes.Equal(tag, want) {
				t.Errorf("tag = %x\nwant %s", tag, tv.tag)
			}
		})
	}
}

// TestReferenceVectors_Verify runs the same vectors through Verify.
func TestReferenceVectors_Verify(t *testing.T) {
	for _, tv := range referenceVectors {
		t.Run(tv.name, func(t *testing.T) {
			h, err := New(refParams(t, tv.variant))
			if err != nil {
				t.Fatal(err)
			}
			want, _ := hex.DecodeString(tv.tag)
			ok, err := h.Verify(refPassword, want)
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if !ok {
				t.Error("Verify() = false for the reference tag")
			}
		})
	}
}

// TestReferenceVectors_PhcRoundTrip encodes each reference result as a
// PHC string and checks decode restores the exact parameters and bytes.
func TestReferenceVectors_PhcRoundTrip(t *testing.T) {
	for _, tv := range referenceVectors {
		t.Run(tv.name, func(t *testing.T) {
			want, _ := hex.DecodeString(tv.tag)
			ph := PhcHash{
				Variant:     tv.variant,
				Version:     Version13,
				Memory:      32,
				Time:        3,
				Parallelism: 4,
				Salt:        refSalt,
				Tag:         want,
			}
			encoded := Encode(ph)
			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode(%q) error = %v", encoded, err)
			}
			if decoded.Variant != tv.variant || decoded.Version != Version13 ||
				decoded.Memory != 32 || decoded.Time != 3 || decoded.Parallelism != 4 {
				t.Errorf("decoded parameters differ: %+v", decoded)
			}
			if !bytes.Equal(decoded.Salt, refSalt) || !bytes.Equal(decoded.Tag, want) {
				t.Error("decoded salt or tag differs")
			}
			if re := Encode(decoded); re != encoded {
				t.Errorf("re-encode is not canonical:\n%s\n%s", encoded, re)
			}
		})
	}
}
