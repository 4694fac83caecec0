// Package core implements the Argon2 memory-filling engine defined by
// RFC 9106: the H0 seed, the two-dimensional block matrix, the
// variant-specific reference indexing, the fBlaMka compression
// function, and the pass/slice scheduler with its lane barrier.
//
// The package deals only in validated numeric parameters. Range
// checking, salt policy, and the PHC text format live in the public
// package; callers here are trusted to pass sane values.
package core

import (
	"context"
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Argon2 variant identifiers as encoded into H0 and the PHC format.
const (
	ModeArgon2d  = 0
	ModeArgon2i  = 1
	ModeArgon2id = 2
)

// Supported algorithm versions.
const (
	Version10 = 0x10
	Version13 = 0x13
)

// Params carries the numeric inputs of one hashing call. Memory is the
// requested m_cost in KiB exactly as it entered H0; the engine derives
// the effective block count internally.
type Params struct {
	Mode    uint32
	Version uint32
	Time    uint32
	Memory  uint32
	Threads uint32
}

// retireHook, when set, observes the block matrix after it has been
// wiped and before it is released. Tests use it to prove zeroization.
var retireHook func([]Block)

// BlockCount returns m', the effective number of blocks: memory rounded
// down to a multiple of 4*threads, with a floor of 8*threads.
func BlockCount(memory, threads uint32) uint32 {
	m := memory / (syncPoints * threads) * (syncPoints * threads)
	if m < 2*syncPoints*threads {
		m = 2 * syncPoints * threads
	}
	return m
}

// Hash fills the memory matrix for the given password and parameters
// and writes the len(out)-byte tag into out.
//
// ctx is polled at slice boundaries only; the inner mixing loops never
// block. On cancellation the matrix is wiped and ctx.Err() is returned.
// Every other exit path wipes the matrix and the H0 seed as well: the
// tag is the only data that survives the call.
func Hash(ctx context.Context, out, password, salt, secret, data []byte, p Params) error {
	h0 := initHash(password, salt, secret, data, p, uint32(len(out)))

	B := make([]Block, BlockCount(p.Memory, p.Threads))
	defer func() {
		wipeBlocks(B)
		if retireHook != nil {
			retireHook(B)
		}
	}()

	initBlocks(&h0, B, p.Threads)
	for i := range h0 {
		h0[i] = 0
	}

	if err := fillMemory(ctx, B, p); err != nil {
		return err
	}
	extractKey(B, p.Threads, out)
	return nil
}

// initHash computes the 64-byte seed H0 over every parameter and input
// of the call, per RFC 9106 section 3.2. The trailing 8 bytes of the
// returned buffer are scratch for the block and lane counters appended
// during lane seeding.
func initHash(password, salt, secret, data []byte, p Params, tagLen uint32) [blake2b.Size + 8]byte {
	var (
		h0     [blake2b.Size + 8]byte
		params [24]byte
		tmp    [4]byte
	)

	b2, _ := blake2b.New512(nil)
	binary.LittleEndian.PutUint32(params[0:4], p.Threads)
	binary.LittleEndian.PutUint32(params[4:8], tagLen)
	binary.LittleEndian.PutUint32(params[8:12], p.Memory)
	binary.LittleEndian.PutUint32(params[12:16], p.Time)
	binary.LittleEndian.PutUint32(params[16:20], p.Version)
	binary.LittleEndian.PutUint32(params[20:24], p.Mode)
	b2.Write(params[:])
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(password)))
	b2.Write(tmp[:])
	b2.Write(password)
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(salt)))
	b2.Write(tmp[:])
	b2.Write(salt)
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(secret)))
	b2.Write(tmp[:])
	b2.Write(secret)
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(data)))
	b2.Write(tmp[:])
	b2.Write(data)
	b2.Sum(h0[:0])
	return h0
}

// initBlocks seeds columns 0 and 1 of every lane:
//
//	B[lane][0] = H'(1024, H0 || LE32(0) || LE32(lane))
//	B[lane][1] = H'(1024, H0 || LE32(1) || LE32(lane))
func initBlocks(h0 *[blake2b.Size + 8]byte, B []Block, threads uint32) {
	var block0 [BlockSize]byte
	laneLen := uint32(len(B)) / threads
	for lane := uint32(0); lane < threads; lane++ {
		j := lane * laneLen
		binary.LittleEndian.PutUint32(h0[blake2b.Size+4:], lane)

		binary.LittleEndian.PutUint32(h0[blake2b.Size:], 0)
		blake2bLong(block0[:], h0[:])
		B[j].setBytes(block0[:])

		binary.LittleEndian.PutUint32(h0[blake2b.Size:], 1)
		blake2bLong(block0[:], h0[:])
		B[j+1].setBytes(block0[:])
	}
	for i := range block0 {
		block0[i] = 0
	}
}

// fillMemory drives Time passes of syncPoints slices over the matrix.
// Within a slice every lane's segment is independent, so with more than
// one lane each segment runs on its own goroutine and the WaitGroup
// join is the slice barrier. The single-lane path stays inline and
// produces bit-identical output.
func fillMemory(ctx context.Context, B []Block, p Params) error {
	laneLen := uint32(len(B)) / p.Threads
	segLen := laneLen / syncPoints

	for pass := uint32(0); pass < p.Time; pass++ {
		for slice := uint32(0); slice < syncPoints; slice++ {
			if ctx != nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
			}
			if p.Threads == 1 {
				fillSegment(B, p, pass, 0, slice, laneLen, segLen)
				continue
			}
			var wg sync.WaitGroup
			for lane := uint32(0); lane < p.Threads; lane++ {
				wg.Add(1)
				go func(lane uint32) {
					defer wg.Done()
					fillSegment(B, p, pass, lane, slice, laneLen, segLen)
				}(lane)
			}
			wg.Wait()
		}
	}
	return nil
}

// fillSegment fills one segment: the columns of lane inside slice, in
// increasing order. Argon2i segments (and the first half of the first
// Argon2id pass) draw their (J1, J2) pairs from an address block
// refreshed every 128 columns; Argon2d segments read them from the
// previous block's first word.
func fillSegment(B []Block, p Params, pass, lane, slice, laneLen, segLen uint32) {
	var addresses, in, zero Block
	dataIndependent := p.Mode == ModeArgon2i ||
		(p.Mode == ModeArgon2id && pass == 0 && slice < syncPoints/2)
	if dataIndependent {
		in[0] = uint64(pass)
		in[1] = uint64(lane)
		in[2] = uint64(slice)
		in[3] = uint64(len(B))
		in[4] = uint64(p.Time)
		in[5] = uint64(p.Mode)
	}

	index := uint32(0)
	if pass == 0 && slice == 0 {
		index = 2 // columns 0 and 1 are seeded from H0
		if dataIndependent {
			in[6]++
			processBlock(&addresses, &in, &zero)
			processBlock(&addresses, &addresses, &zero)
		}
	}

	offset := lane*laneLen + slice*segLen + index
	var random uint64
	for index < segLen {
		prev := offset - 1
		if index == 0 && slice == 0 {
			prev += laneLen // wrap to the last block of the lane
		}
		if dataIndependent {
			if index%blockWords == 0 {
				in[6]++
				processBlock(&addresses, &in, &zero)
				processBlock(&addresses, &addresses, &zero)
			}
			random = addresses[index%blockWords]
		} else {
			random = B[prev][0]
		}
		ref := indexAlpha(random, laneLen, segLen, p.Threads, pass, slice, lane, index)
		if pass > 0 && p.Version == Version10 {
			// Version 1.0 overwrites on later passes instead of XORing.
			processBlock(&B[offset], &B[prev], &B[ref])
		} else {
			processBlockXOR(&B[offset], &B[prev], &B[ref])
		}
		index, offset = index+1, offset+1
	}
	addresses.wipe()
	in.wipe()
}

// extractKey XORs the last column of every lane into the final block
// and expands it through H' into the tag.
func extractKey(B []Block, threads uint32, out []byte) {
	memory := uint32(len(B))
	laneLen := memory / threads
	for lane := uint32(0); lane < threads-1; lane++ {
		B[memory-1].xorWith(&B[lane*laneLen+laneLen-1])
	}

	var final [BlockSize]byte
	B[memory-1].putBytes(final[:])
	blake2bLong(out, final[:])
	for i := range final {
		final[i] = 0
	}
}
