package argon2

import (
	"crypto/rand"
	"fmt"
	"math"

	"github.com/opd-ai/go-argon2/internal/core"
)

// Variant selects one of the three Argon2 functions of RFC 9106. The
// numeric values are the ones encoded into H0 and the PHC string.
type Variant int

const (
	// Argon2d uses data-dependent memory access throughout. Fastest and
	// the most GPU-resistant, but leaks addresses through cache timing.
	Argon2d Variant = 0

	// Argon2i uses a data-independent pseudo-random address stream,
	// trading some tradeoff resistance for side-channel immunity.
	Argon2i Variant = 1

	// Argon2id runs the Argon2i schedule for the first half of the
	// first pass and Argon2d afterwards. The recommended default.
	Argon2id Variant = 2
)

// String returns the lowercase PHC identifier of the variant.
func (v Variant) String() string {
	switch v {
	case Argon2d:
		return "argon2d"
	case Argon2i:
		return "argon2i"
	case Argon2id:
		return "argon2id"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant maps a PHC identifier ("argon2d", "argon2i", "argon2id")
// to its Variant.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "argon2d":
		return Argon2d, nil
	case "argon2i":
		return Argon2i, nil
	case "argon2id":
		return Argon2id, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedVariant, s)
	}
}

// Version identifies the Argon2 algorithm revision.
type Version int

const (
	// Version10 is the legacy 1.0 revision. Later passes overwrite
	// blocks instead of XORing. Kept for decoding old PHC strings.
	Version10 Version = 0x10

	// Version13 is the 1.3 revision standardized by RFC 9106.
	Version13 Version = 0x13
)

// Limits enforced by Builder.Build.
const (
	// MinSaltLength is the smallest salt accepted, in bytes.
	MinSaltLength = 8

	// MinTagLength is the smallest output tag accepted, in bytes.
	MinTagLength = 4

	// MaxParallelism is the practical lane cap. RFC 9106 allows up to
	// 2^24-1 lanes; this implementation rejects more than 255.
	MaxParallelism = 255
)

// Params is the immutable parameter set of a hashing call. Build it
// through a Builder; the fields are exported for inspection only and
// must not be mutated after construction.
type Params struct {
	// Variant selects Argon2d, Argon2i, or Argon2id.
	Variant Variant

	// Version is the algorithm revision, Version13 unless decoding
	// legacy material.
	Version Version

	// Memory is m_cost in KiB. The effective block count is Memory
	// rounded down to a multiple of 4*Parallelism.
	Memory uint32

	// Time is t_cost, the number of passes over the matrix.
	Time uint32

	// Parallelism is p, the number of lanes.
	Parallelism uint8

	// TagLength is the output length in bytes.
	TagLength uint32

	// Salt is the concrete salt. May be nil when SaltLength is set, in
	// which case the PHC helpers draw a fresh random salt per hash.
	Salt []byte

	// SaltLength is the number of random salt bytes to draw when Salt
	// is nil.
	SaltLength int

	// Secret is the optional pepper K mixed into H0.
	Secret []byte

	// AssociatedData is the optional X input mixed into H0.
	AssociatedData []byte
}

// DefaultParams returns the common interactive-login configuration:
// Argon2id, version 1.3, 64 MiB, one pass, four lanes, a 32-byte tag,
// and 16-byte random salts. Memory-constrained deployments should tune
// down with Tune rather than guessing.
func DefaultParams() Params {
	return Params{
		Variant:     Argon2id,
		Version:     Version13,
		Memory:      64 * 1024,
		Time:        1,
		Parallelism: 4,
		TagLength:   32,
		SaltLength:  16,
	}
}

// BlockCount returns m', the effective number of 1024-byte blocks.
func (p Params) BlockCount() uint32 {
	return core.BlockCount(p.Memory, uint32(p.Parallelism))
}

// String renders a compact diagnostic form such as
// "argon2id(v=19, m=65536, t=1, p=4)". Salt and secret never appear.
func (p Params) String() string {
	return fmt.Sprintf("%s(v=%d, m=%d, t=%d, p=%d)",
		p.Variant, int(p.Version), p.Memory, p.Time, p.Parallelism)
}

func (p Params) coreParams() core.Params {
	return core.Params{
		Mode:    uint32(p.Variant),
		Version: uint32(p.Version),
		Time:    p.Time,
		Memory:  p.Memory,
		Threads: uint32(p.Parallelism),
	}
}

// validate applies every bound of RFC 9106 plus this implementation's
// practical caps. Called by Build, New, and HashPHC; Hash and HashInto
// do not re-check.
func (p Params) validate() error {
	switch p.Variant {
	case Argon2d, Argon2i, Argon2id:
	default:
		return &InvalidParameterError{Field: "variant", Reason: "must be argon2d, argon2i, or argon2id"}
	}
	switch p.Version {
	case Version10, Version13:
	default:
		return &InvalidParameterError{Field: "version", Reason: "must be 0x10 or 0x13"}
	}
	if p.Parallelism < 1 {
		return &InvalidParameterError{Field: "parallelism", Reason: "must be at least 1"}
	}
	if p.Time < 1 {
		return &InvalidParameterError{Field: "time", Reason: "must be at least 1"}
	}
	if p.Memory < 8*uint32(p.Parallelism) {
		return &InvalidParameterError{
			Field:  "memory",
			Reason: fmt.Sprintf("must be at least 8*parallelism = %d KiB", 8*uint32(p.Parallelism)),
		}
	}
	if p.TagLength < MinTagLength {
		return &InvalidParameterError{Field: "tagLength", Reason: "must be at least 4 bytes"}
	}
	if p.Salt == nil && p.SaltLength == 0 {
		return &InvalidParameterError{Field: "salt", Reason: "salt or salt length required"}
	}
	if p.Salt != nil && len(p.Salt) < MinSaltLength {
		return &InvalidParameterError{Field: "salt", Reason: "must be at least 8 bytes"}
	}
	if p.Salt == nil && p.SaltLength != 0 && p.SaltLength < MinSaltLength {
		return &InvalidParameterError{Field: "saltLength", Reason: "must be at least 8 bytes"}
	}
	if uint64(p.BlockCount())*1024 > uint64(math.MaxInt) {
		return fmt.Errorf("%w: %d KiB", ErrOutOfMemory, p.Memory)
	}
	return nil
}

// Builder assembles a Params value. A Builder from NewBuilder starts
// from DefaultParams; every setter returns the receiver for chaining and
// Build performs all validation in one place.
type Builder struct {
	p       Params
	saltErr error
}

// NewBuilder returns a Builder seeded with DefaultParams.
func NewBuilder() *Builder {
	return &Builder{p: DefaultParams()}
}

// Variant sets the Argon2 variant.
func (b *Builder) Variant(v Variant) *Builder { b.p.Variant = v; return b }

// Version sets the algorithm revision.
func (b *Builder) Version(v Version) *Builder { b.p.Version = v; return b }

// Memory sets m_cost in KiB.
func (b *Builder) Memory(kib uint32) *Builder { b.p.Memory = kib; return b }

// Time sets t_cost, the pass count.
func (b *Builder) Time(passes uint32) *Builder { b.p.Time = passes; return b }

// Parallelism sets p, the lane count.
func (b *Builder) Parallelism(lanes uint8) *Builder { b.p.Parallelism = lanes; return b }

// TagLength sets the output length in bytes.
func (b *Builder) TagLength(n uint32) *Builder { b.p.TagLength = n; return b }

// Salt sets a concrete salt.
func (b *Builder) Salt(salt []byte) *Builder {
	b.p.Salt = append([]byte(nil), salt...)
	b.p.SaltLength = len(salt)
	return b
}

// RandomSalt draws n bytes from crypto/rand and uses them as the salt.
// Subsequent hashes built from the resulting Params reuse this salt;
// the PHC helpers draw a fresh one per call when only the length is
// configured via SaltLength.
func (b *Builder) RandomSalt(n int) *Builder {
	salt := make([]byte, n)
	if _, err := rand.Read(salt); err != nil {
		b.saltErr = fmt.Errorf("argon2: reading random salt: %w", err)
		return b
	}
	b.p.Salt = salt
	b.p.SaltLength = n
	return b
}

// SaltLength configures PHC-helper salts without fixing the bytes: each
// HashPHC call draws a fresh n-byte random salt.
func (b *Builder) SaltLength(n int) *Builder {
	b.p.Salt = nil
	b.p.SaltLength = n
	return b
}

// Secret sets the optional pepper K.
func (b *Builder) Secret(k []byte) *Builder {
	b.p.Secret = append([]byte(nil), k...)
	return b
}

// AssociatedData sets the optional input X.
func (b *Builder) AssociatedData(x []byte) *Builder {
	b.p.AssociatedData = append([]byte(nil), x...)
	return b
}

// Build validates every bound and returns the finished Params.
func (b *Builder) Build() (Params, error) {
	if b.saltErr != nil {
		return Params{}, b.saltErr
	}
	if err := b.p.validate(); err != nil {
		return Params{}, err
	}
	return b.p, nil
}
