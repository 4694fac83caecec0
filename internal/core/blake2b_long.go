package core

import (
	"encoding/binary"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// blake2bLong implements the Argon2 variable-length hash H'. It writes
// exactly len(out) bytes derived from in.
//
// For len(out) <= 64 this is a single Blake2b invocation over
// LE32(len(out)) || in. Longer outputs are produced in 32-byte chunks:
// V1 = Blake2b-512(LE32(len) || in), Vi+1 = Blake2b-512(Vi), with the
// first 32 bytes of each Vi emitted and a final short hash covering
// the remainder.
//
// The function writes only into out; the caller owns the buffer.
func blake2bLong(out, in []byte) {
	var b2 hash.Hash
	if len(out) < blake2b.Size {
		b2, _ = blake2b.New(len(out), nil)
	} else {
		b2, _ = blake2b.New512(nil)
	}

	var buffer [blake2b.Size]byte
	binary.LittleEndian.PutUint32(buffer[:4], uint32(len(out)))
	b2.Write(buffer[:4])
	b2.Write(in)

	if len(out) <= blake2b.Size {
		b2.Sum(out[:0])
		return
	}

	outLen := len(out)
	b2.Sum(buffer[:0])
	b2.Reset()
	copy(out, buffer[:32])
	out = out[32:]
	for len(out) > blake2b.Size {
		b2.Write(buffer[:])
		b2.Sum(buffer[:0])
		b2.Reset()
		copy(out, buffer[:32])
		out = out[32:]
	}

	if outLen%blake2b.Size > 0 {
		// The final chunk is shorter than a full digest. Its Blake2b
		// instance is parameterized with the exact remaining length, as
		// the Argon2 H' construction requires.
		r := ((outLen + 31) / 32) - 2
		b2, _ = blake2b.New(outLen-32*r, nil)
	}
	b2.Write(buffer[:])
	b2.Sum(out[:0])
}
