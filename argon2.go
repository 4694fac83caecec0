// Package argon2 provides a pure-Go implementation of the Argon2
// password-hashing and key-derivation function standardized in
// RFC 9106, covering all three variants: Argon2d, Argon2i, and
// Argon2id.
//
// Beyond raw hashing it implements the PHC string format for
// interoperable password storage, constant-time verification,
// latency-targeted parameter tuning, a rehash-policy check, and batch
// hashing with progress reporting.
//
// Example usage:
//
//	params, err := argon2.NewBuilder().
//	    RandomSalt(16).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	hasher, err := argon2.New(params)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tag, err := hasher.Hash([]byte("correct horse battery staple"))
//
// For password storage prefer the PHC helpers, which handle salts and
// encoding:
//
//	encoded, err := argon2.HashPHC([]byte("password"), argon2.DefaultParams())
//	ok, _, err := argon2.VerifyPHC([]byte("password"), encoded)
package argon2

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/opd-ai/go-argon2/internal/core"
)

// Hasher computes Argon2 tags for one fixed parameter set. It holds no
// per-call state and is safe for concurrent use; every Hash call owns
// its memory matrix exclusively and wipes it before returning.
type Hasher struct {
	params Params
}

// New creates a Hasher from validated parameters. The Params must carry
// a concrete salt: direct hashing is deterministic by construction, and
// per-hash salts belong to the PHC helpers.
func New(params Params) (*Hasher, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if params.Salt == nil {
		return nil, &InvalidParameterError{Field: "salt", Reason: "required for direct hashing"}
	}
	return &Hasher{params: params}, nil
}

// Params returns the hasher's parameter set.
func (h *Hasher) Params() Params { return h.params }

// Hash computes the tag for password, allocating the output buffer.
func (h *Hasher) Hash(password []byte) ([]byte, error) {
	out := make([]byte, h.params.TagLength)
	if err := h.HashInto(password, out); err != nil {
		return nil, err
	}
	return out, nil
}

// HashInto computes the tag into out, which must be exactly TagLength
// bytes. No other allocation outlives the call.
func (h *Hasher) HashInto(password, out []byte) error {
	return h.hashInto(nil, password, out)
}

// HashContext computes the tag like Hash but polls ctx at slice
// boundaries. On cancellation the matrix is wiped and ErrCancelled is
// returned (wrapping the ctx cause).
func (h *Hasher) HashContext(ctx context.Context, password []byte) ([]byte, error) {
	out := make([]byte, h.params.TagLength)
	if err := h.hashInto(ctx, password, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *Hasher) hashInto(ctx context.Context, password, out []byte) error {
	if uint32(len(out)) != h.params.TagLength {
		return &InvalidParameterError{
			Field:  "out",
			Reason: fmt.Sprintf("buffer is %d bytes, tag length is %d", len(out), h.params.TagLength),
		}
	}
	err := core.Hash(ctx, out, password, h.params.Salt, h.params.Secret, h.params.AssociatedData, h.params.coreParams())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		return err
	}
	return nil
}

// Verify recomputes the tag for password and compares it against tag in
// constant time. Mismatched lengths return false immediately; for
// equal-length tags the comparison touches every byte regardless of
// where the first difference sits.
func (h *Hasher) Verify(password, tag []byte) (bool, error) {
	return h.VerifyContext(nil, password, tag)
}

// VerifyContext is Verify with cooperative cancellation at slice
// boundaries.
func (h *Hasher) VerifyContext(ctx context.Context, password, tag []byte) (bool, error) {
	if uint32(len(tag)) != h.params.TagLength {
		return false, nil
	}
	computed := make([]byte, h.params.TagLength)
	defer WipeBytes(computed)
	if err := h.hashInto(ctx, password, computed); err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(computed, tag) == 1, nil
}

// DeriveKey derives keyLen bytes of key material from password and
// salt. It is identical to hashing with TagLength = keyLen; variant,
// version, and cost parameters are taken from params, whose salt and
// tag length are ignored.
func DeriveKey(password, salt []byte, keyLen uint32, params Params) ([]byte, error) {
	params.Salt = append([]byte(nil), salt...)
	params.SaltLength = len(salt)
	params.TagLength = keyLen
	h, err := New(params)
	if err != nil {
		return nil, err
	}
	return h.Hash(password)
}

// WipeBytes overwrites b with zeros. Callers that own password buffers
// can use it to drop plaintext material once hashing is done. Go makes
// no guarantee that other copies do not exist, but wiping the buffers
// under our control is cheap and removes the obvious ones.
func WipeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
