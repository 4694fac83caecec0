package argon2

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// phcEncoding is RFC 4648 base64 without padding, as the PHC format
// requires. Strict mode rejects non-canonical trailing bits.
var phcEncoding = base64.RawStdEncoding.Strict()

// PhcHash is the decoded form of a PHC string: the parameters, salt,
// and tag of one stored hash, plus the optional keyid and data
// attributes. It is an immutable value; Decode and Encode round-trip
// it exactly.
type PhcHash struct {
	Variant     Variant
	Version     Version
	Memory      uint32
	Time        uint32
	Parallelism uint8

	// KeyID is the optional keyid attribute, carried verbatim. Core
	// does not resolve key identifiers to secrets; callers that pepper
	// their hashes look the secret up by this value.
	KeyID []byte

	// Data is the optional data attribute. VerifyPHC feeds it back as
	// the associated-data input.
	Data []byte

	Salt []byte
	Tag  []byte
}

// Params reconstructs the parameter set this hash was produced with.
// The secret K is not stored in PHC strings and is left empty.
func (ph PhcHash) Params() Params {
	return Params{
		Variant:        ph.Variant,
		Version:        ph.Version,
		Memory:         ph.Memory,
		Time:           ph.Time,
		Parallelism:    ph.Parallelism,
		TagLength:      uint32(len(ph.Tag)),
		Salt:           ph.Salt,
		SaltLength:     len(ph.Salt),
		AssociatedData: ph.Data,
	}
}

// Encode renders the canonical PHC string:
//
//	$argon2{d,i,id}$v=<ver>$m=<m>,t=<t>,p=<p>[,keyid=<b64>][,data=<b64>]$<salt>$<tag>
//
// The v= segment is always emitted and base64 carries no padding.
func Encode(ph PhcHash) string {
	var sb strings.Builder
	sb.Grow(64 + phcEncoding.EncodedLen(len(ph.Salt)) + phcEncoding.EncodedLen(len(ph.Tag)))

	sb.WriteByte('$')
	sb.WriteString(ph.Variant.String())
	sb.WriteString("$v=")
	sb.WriteString(strconv.Itoa(int(ph.Version)))
	sb.WriteString("$m=")
	sb.WriteString(strconv.FormatUint(uint64(ph.Memory), 10))
	sb.WriteString(",t=")
	sb.WriteString(strconv.FormatUint(uint64(ph.Time), 10))
	sb.WriteString(",p=")
	sb.WriteString(strconv.FormatUint(uint64(ph.Parallelism), 10))
	if ph.KeyID != nil {
		sb.WriteString(",keyid=")
		sb.WriteString(phcEncoding.EncodeToString(ph.KeyID))
	}
	if ph.Data != nil {
		sb.WriteString(",data=")
		sb.WriteString(phcEncoding.EncodeToString(ph.Data))
	}
	sb.WriteByte('$')
	sb.WriteString(phcEncoding.EncodeToString(ph.Salt))
	sb.WriteByte('$')
	sb.WriteString(phcEncoding.EncodeToString(ph.Tag))
	return sb.String()
}

// phcParser walks a PHC string left to right. Every helper advances the
// offset so syntax errors can point at the exact byte.
type phcParser struct {
	s   string
	off int
}

func (p *phcParser) fail(reason string) error {
	return &PhcSyntaxError{Offset: p.off, Reason: reason}
}

// literal consumes the exact string lit.
func (p *phcParser) literal(lit string) bool {
	if strings.HasPrefix(p.s[p.off:], lit) {
		p.off += len(lit)
		return true
	}
	return false
}

// decimal consumes a canonical base-10 integer: digits only, no sign,
// no leading zero unless the value is exactly "0", fitting in 32 bits.
func (p *phcParser) decimal() (uint32, error) {
	start := p.off
	for p.off < len(p.s) && p.s[p.off] >= '0' && p.s[p.off] <= '9' {
		p.off++
	}
	tok := p.s[start:p.off]
	if tok == "" {
		return 0, p.fail("expected decimal integer")
	}
	if len(tok) > 1 && tok[0] == '0' {
		p.off = start
		return 0, p.fail("leading zeros not allowed")
	}
	v, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		p.off = start
		return 0, p.fail("integer out of range")
	}
	return uint32(v), nil
}

// base64Field consumes base64 characters up to the next '$', ',' or end
// of string and decodes them.
func (p *phcParser) base64Field() ([]byte, error) {
	start := p.off
	for p.off < len(p.s) && p.s[p.off] != '$' && p.s[p.off] != ',' {
		p.off++
	}
	tok := p.s[start:p.off]
	if tok == "" {
		p.off = start
		return nil, p.fail("expected base64 data")
	}
	raw, err := phcEncoding.DecodeString(tok)
	if err != nil {
		p.off = start
		return nil, p.fail("invalid unpadded base64")
	}
	return raw, nil
}

// Decode parses a PHC string under the strict grammar: fixed segment
// order, canonical decimals, unpadded base64, no whitespace, no
// trailing bytes. A missing v= segment is accepted for compatibility
// with hashes produced before the version field existed and decodes as
// Version10; callers can inspect PhcHash.Version and refuse legacy
// material if they want to.
func Decode(encoded string) (PhcHash, error) {
	p := &phcParser{s: encoded}
	var ph PhcHash

	if !p.literal("$argon2") {
		return PhcHash{}, p.fail(`expected "$argon2" prefix`)
	}
	switch {
	case p.literal("id$"):
		ph.Variant = Argon2id
	case p.literal("i$"):
		ph.Variant = Argon2i
	case p.literal("d$"):
		ph.Variant = Argon2d
	default:
		return PhcHash{}, p.fail("unknown variant suffix")
	}

	if p.literal("v=") {
		v, err := p.decimal()
		if err != nil {
			return PhcHash{}, err
		}
		switch Version(v) {
		case Version10, Version13:
			ph.Version = Version(v)
		default:
			return PhcHash{}, fmt.Errorf("%w: v=%d", ErrUnsupportedVersion, v)
		}
		if !p.literal("$") {
			return PhcHash{}, p.fail(`expected "$" after version`)
		}
	} else {
		// Legacy strings predate the v= segment and are version 1.0.
		ph.Version = Version10
	}

	if !p.literal("m=") {
		return PhcHash{}, p.fail(`expected "m="`)
	}
	m, err := p.decimal()
	if err != nil {
		return PhcHash{}, err
	}
	ph.Memory = m

	if !p.literal(",t=") {
		return PhcHash{}, p.fail(`expected ",t="`)
	}
	t, err := p.decimal()
	if err != nil {
		return PhcHash{}, err
	}
	ph.Time = t

	if !p.literal(",p=") {
		return PhcHash{}, p.fail(`expected ",p="`)
	}
	lanes, err := p.decimal()
	if err != nil {
		return PhcHash{}, err
	}
	if lanes < 1 || lanes > MaxParallelism {
		return PhcHash{}, &InvalidParameterError{
			Field:  "parallelism",
			Reason: fmt.Sprintf("p=%d outside supported range [1,%d]", lanes, MaxParallelism),
		}
	}
	ph.Parallelism = uint8(lanes)

	if p.literal(",keyid=") {
		ph.KeyID, err = p.base64Field()
		if err != nil {
			return PhcHash{}, err
		}
	}
	if p.literal(",data=") {
		ph.Data, err = p.base64Field()
		if err != nil {
			return PhcHash{}, err
		}
	}

	if !p.literal("$") {
		return PhcHash{}, p.fail(`expected "$" before salt`)
	}
	ph.Salt, err = p.base64Field()
	if err != nil {
		return PhcHash{}, err
	}
	if !p.literal("$") {
		return PhcHash{}, p.fail(`expected "$" before tag`)
	}
	ph.Tag, err = p.base64Field()
	if err != nil {
		return PhcHash{}, err
	}
	if p.off != len(p.s) {
		return PhcHash{}, p.fail("trailing characters")
	}
	return ph, nil
}

// HashPHC hashes password under params and returns the encoded PHC
// string. When params carries no concrete salt, a fresh random salt of
// params.SaltLength bytes is drawn for this call, so repeated calls
// yield distinct strings for the same password.
func HashPHC(password []byte, params Params) (string, error) {
	if err := params.validate(); err != nil {
		return "", err
	}
	salt := params.Salt
	if salt == nil {
		salt = make([]byte, params.SaltLength)
		if _, err := rand.Read(salt); err != nil {
			return "", fmt.Errorf("argon2: reading random salt: %w", err)
		}
		params.Salt = salt
	}

	h, err := New(params)
	if err != nil {
		return "", err
	}
	tag, err := h.Hash(password)
	if err != nil {
		return "", err
	}
	return Encode(PhcHash{
		Variant:     params.Variant,
		Version:     params.Version,
		Memory:      params.Memory,
		Time:        params.Time,
		Parallelism: params.Parallelism,
		Data:        params.AssociatedData,
		Salt:        salt,
		Tag:         tag,
	}), nil
}

// VerifyPHC decodes a PHC string, recomputes the hash of password under
// the decoded parameters, and compares in constant time. The decoded
// value is returned alongside the result so callers can apply rehash
// policy or inspect the version without parsing twice.
func VerifyPHC(password []byte, encoded string) (bool, PhcHash, error) {
	ph, err := Decode(encoded)
	if err != nil {
		return false, PhcHash{}, err
	}

	h, err := New(ph.Params())
	if err != nil {
		return false, ph, err
	}
	computed := make([]byte, len(ph.Tag))
	defer WipeBytes(computed)
	if err := h.HashInto(password, computed); err != nil {
		return false, ph, err
	}
	return subtle.ConstantTimeCompare(computed, ph.Tag) == 1, ph, nil
}
