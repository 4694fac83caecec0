package core

import "math/bits"

// blamkaG is the Blake2b G mixing function with Argon2's multiplicative
// addition fBlaMka: a + b + 2 * low32(a) * low32(b). The extra
// multiplication forces latency through the multiplier on every step,
// which is what makes time-memory tradeoffs expensive in hardware.
func blamkaG(a, b, c, d uint64) (uint64, uint64, uint64, uint64) {
	a = a + b + 2*uint64(uint32(a))*uint64(uint32(b))
	d = bits.RotateLeft64(d^a, -32)
	c = c + d + 2*uint64(uint32(c))*uint64(uint32(d))
	b = bits.RotateLeft64(b^c, -24)

	a = a + b + 2*uint64(uint32(a))*uint64(uint32(b))
	d = bits.RotateLeft64(d^a, -16)
	c = c + d + 2*uint64(uint32(c))*uint64(uint32(d))
	b = bits.RotateLeft64(b^c, -63)

	return a, b, c, d
}

// permute applies the Argon2 permutation P to a 16-word vector in
// place: the Blake2b round pattern of four column mixes followed by
// four diagonal mixes, with blamkaG as the quarter function.
func permute(v []uint64) {
	v[0], v[4], v[8], v[12] = blamkaG(v[0], v[4], v[8], v[12])
	v[1], v[5], v[9], v[13] = blamkaG(v[1], v[5], v[9], v[13])
	v[2], v[6], v[10], v[14] = blamkaG(v[2], v[6], v[10], v[14])
	v[3], v[7], v[11], v[15] = blamkaG(v[3], v[7], v[11], v[15])

	v[0], v[5], v[10], v[15] = blamkaG(v[0], v[5], v[10], v[15])
	v[1], v[6], v[11], v[12] = blamkaG(v[1], v[6], v[11], v[12])
	v[2], v[7], v[8], v[13] = blamkaG(v[2], v[7], v[8], v[13])
	v[3], v[4], v[9], v[14] = blamkaG(v[3], v[4], v[9], v[14])
}

// compress is the Argon2 compression function G. It computes
// Z = P(R) XOR R with R = in1 XOR in2, where P is applied first to the
// eight rows and then to the eight column groups of R interpreted as
// an 8x8 matrix of 16-byte registers.
//
// With xor set the result is additionally XORed into the existing
// contents of out, which is the write rule for second and later passes.
func compress(out, in1, in2 *Block, xor bool) {
	var t Block
	for i := range t {
		t[i] = in1[i] ^ in2[i]
	}
	r := t

	// Row-wise: each row is 16 consecutive words.
	for i := 0; i < blockWords; i += 16 {
		permute(t[i : i+16])
	}

	// Column-wise: column group i collects the word pair (2i, 2i+1)
	// from every row.
	var q [16]uint64
	for i := 0; i < 8; i++ {
		base := 2 * i
		for j := 0; j < 8; j++ {
			q[2*j] = t[16*j+base]
			q[2*j+1] = t[16*j+base+1]
		}
		permute(q[:])
		for j := 0; j < 8; j++ {
			t[16*j+base] = q[2*j]
			t[16*j+base+1] = q[2*j+1]
		}
	}

	if xor {
		for i := range t {
			out[i] ^= r[i] ^ t[i]
		}
	} else {
		for i := range t {
			out[i] = r[i] ^ t[i]
		}
	}
}

// processBlock writes G(in1, in2) to out.
func processBlock(out, in1, in2 *Block) {
	compress(out, in1, in2, false)
}

// processBlockXOR XORs G(in1, in2) into out.
func processBlockXOR(out, in1, in2 *Block) {
	compress(out, in1, in2, true)
}
