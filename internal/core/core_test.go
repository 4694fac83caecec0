package core

import (
	"bytes"
	"context"
	"encoding/hex"
	"testing"
)

var (
	vecPassword = bytes.Repeat([]byte{0x01}, 32)
	vecSalt     = bytes.Repeat([]byte{0x02}, 16)
	vecSecret   = bytes.Repeat([]byte{0x03}, 8)
	vecData     = bytes.Repeat([]byte{0x04}, 12)
)

func vecParams(mode uint32) Params {
	return Params{
		Mode:    mode,
		Version: Version13,
		Time:    3,
		Memory:  32,
		Threads: 4,
	}
}

// TestHash_RFC9106Vectors checks the engine against the RFC 9106
// section 5 known-answer vectors for all three variants.
func TestHash_RFC9106Vectors(t *testing.T) {
	tests := []struct {
		name string
		mode uint32
		want string
	}{
		{"argon2d", ModeArgon2d, "512b391b6f1162975371d30919734294f868e3be3984f3c1a13a4db9fabe4acb"},
		{"argon2i", ModeArgon2i, "c814d9d1dc7f37aa13f0d77f2494bda1c8de6b016dd388d29952a4c4672b6ce8"},
		{"argon2id", ModeArgon2id, "0d640df58d78766c08c037a34a8b53c9d01ef0452d75b65eb52520e96b01e659"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := make([]byte, 32)
			err := Hash(nil, out, vecPassword, vecSalt, vecSecret, vecData, vecParams(tt.mode))
			if err != nil {
				t.Fatalf("Hash() error = %v", err)
			}
			want, _ := hex.DecodeString(tt.want)
			if !bytes.Equal(out, want) {
				t.Errorf("tag = %x, want %s", out, tt.want)
			}
		})
	}
}

// TestHash_Deterministic verifies repeated hashes agree. With four
// lanes this also exercises the goroutine scheduler: lane interleaving
// must not leak into the output.
func TestHash_Deterministic(t *testing.T) {
	p := vecParams(ModeArgon2id)
	a := make([]byte, 64)
	b := make([]byte, 64)
	if err := Hash(nil, a, vecPassword, vecSalt, nil, nil, p); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 8; i++ {
		if err := Hash(nil, b, vecPassword, vecSalt, nil, nil, p); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a, b) {
			t.Fatalf("run %d: output differs between runs", i)
		}
	}
}

// TestHash_SingleLaneInline drives the inline single-lane path (p=1)
// twice, once with a nil context and once with context.Background(),
// and verifies both runs produce the same tag.
func TestHash_SingleLaneInline(t *testing.T) {
	p := Params{Mode: ModeArgon2id, Version: Version13, Time: 2, Memory: 64, Threads: 1}
	a := make([]byte, 32)
	b := make([]byte, 32)
	if err := Hash(nil, a, []byte("password"), []byte("somesalt"), nil, nil, p); err != nil {
		t.Fatal(err)
	}
	if err := Hash(context.Background(), b, []byte("password"), []byte("somesalt"), nil, nil, p); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("nil-context and Background-context paths disagree")
	}
}

// TestHash_VersionAffectsOutput verifies version 1.0 and 1.3 produce
// different tags once a second pass rewrites memory.
func TestHash_VersionAffectsOutput(t *testing.T) {
	p10 := Params{Mode: ModeArgon2d, Version: Version10, Time: 2, Memory: 64, Threads: 2}
	p13 := p10
	p13.Version = Version13

	a := make([]byte, 32)
	b := make([]byte, 32)
	if err := Hash(nil, a, []byte("password"), []byte("somesalt"), nil, nil, p10); err != nil {
		t.Fatal(err)
	}
	if err := Hash(nil, b, []byte("password"), []byte("somesalt"), nil, nil, p13); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, b) {
		t.Error("version 0x10 and 0x13 produced the same tag")
	}
}

// TestHash_Cancellation verifies a cancelled context surfaces at a
// slice boundary and that the matrix is still wiped on that path.
func TestHash_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var observed []Block
	retireHook = func(b []Block) { observed = b }
	defer func() { retireHook = nil }()

	out := make([]byte, 32)
	err := Hash(ctx, out, []byte("password"), []byte("somesalt"), nil, nil,
		Params{Mode: ModeArgon2id, Version: Version13, Time: 4, Memory: 1024, Threads: 4})
	if err == nil {
		t.Fatal("Hash() with cancelled context succeeded")
	}
	if observed == nil {
		t.Fatal("retire hook not invoked on the cancellation path")
	}
	for i := range observed {
		for j, w := range observed[i] {
			if w != 0 {
				t.Fatalf("block %d word %d not wiped after cancellation", i, j)
			}
		}
	}
}

// TestHash_Zeroization verifies the matrix backing a successful hash is
// all-zero by the time it is released.
func TestHash_Zeroization(t *testing.T) {
	var observed []Block
	retireHook = func(b []Block) { observed = b }
	defer func() { retireHook = nil }()

	out := make([]byte, 32)
	err := Hash(nil, out, []byte("password"), []byte("somesalt"), nil, nil,
		Params{Mode: ModeArgon2id, Version: Version13, Time: 1, Memory: 64, Threads: 2})
	if err != nil {
		t.Fatal(err)
	}
	if observed == nil {
		t.Fatal("retire hook not invoked")
	}
	for i := range observed {
		for j, w := range observed[i] {
			if w != 0 {
				t.Fatalf("block %d word %d not wiped", i, j)
			}
		}
	}
}

// TestBlockCount verifies m' is memory rounded down to a multiple of
// 4*threads with an 8*threads floor.
func TestBlockCount(t *testing.T) {
	tests := []struct {
		memory, threads, want uint32
	}{
		{32, 4, 32},
		{33, 4, 32},
		{47, 4, 32},
		{48, 4, 48},
		{8, 1, 8},
		{7, 1, 8},   // below the floor
		{100, 3, 96},
		{65536, 4, 65536},
	}
	for _, tt := range tests {
		if got := BlockCount(tt.memory, tt.threads); got != tt.want {
			t.Errorf("BlockCount(%d, %d) = %d, want %d", tt.memory, tt.threads, got, tt.want)
		}
	}
}

// TestHash_SecretAndDataChangeTag verifies K and X are bound into H0.
func TestHash_SecretAndDataChangeTag(t *testing.T) {
	base := Params{Mode: ModeArgon2id, Version: Version13, Time: 1, Memory: 64, Threads: 2}
	plain := make([]byte, 32)
	withSecret := make([]byte, 32)
	withData := make([]byte, 32)

	if err := Hash(nil, plain, []byte("pw"), []byte("somesalt"), nil, nil, base); err != nil {
		t.Fatal(err)
	}
	if err := Hash(nil, withSecret, []byte("pw"), []byte("somesalt"), []byte("pepper"), nil, base); err != nil {
		t.Fatal(err)
	}
	if err := Hash(nil, withData, []byte("pw"), []byte("somesalt"), nil, []byte("ad"), base); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(plain, withSecret) {
		t.Error("secret did not change the tag")
	}
	if bytes.Equal(plain, withData) {
		t.Error("associated data did not change the tag")
	}
}
