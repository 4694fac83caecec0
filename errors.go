package argon2

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by this package. Wrapped errors carry more
// detail; match with errors.Is.
var (
	// ErrInvalidParameter reports a bounds violation detected by
	// Builder.Build. The concrete error is an *InvalidParameterError
	// naming the offending field.
	ErrInvalidParameter = errors.New("argon2: invalid parameter")

	// ErrInvalidPhcFormat reports a malformed PHC string. The concrete
	// error is a *PhcSyntaxError carrying the byte offset.
	ErrInvalidPhcFormat = errors.New("argon2: invalid PHC format")

	// ErrUnsupportedVariant reports a variant value outside
	// {Argon2d, Argon2i, Argon2id}.
	ErrUnsupportedVariant = errors.New("argon2: unsupported variant")

	// ErrUnsupportedVersion reports a version other than 0x10 or 0x13.
	ErrUnsupportedVersion = errors.New("argon2: unsupported version")

	// ErrCancelled reports that a cooperative cancellation was observed
	// at a slice boundary. The memory matrix has been wiped.
	ErrCancelled = errors.New("argon2: cancelled")

	// ErrOutOfMemory reports that the requested matrix cannot be
	// represented in the address space of this process.
	ErrOutOfMemory = errors.New("argon2: memory matrix too large")
)

// InvalidParameterError describes which parameter failed validation and
// the bound it violated. It unwraps to ErrInvalidParameter.
type InvalidParameterError struct {
	Field  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("argon2: invalid parameter %s: %s", e.Field, e.Reason)
}

func (e *InvalidParameterError) Unwrap() error { return ErrInvalidParameter }

// PhcSyntaxError describes where a PHC string stopped parsing. It
// unwraps to ErrInvalidPhcFormat.
type PhcSyntaxError struct {
	Offset int
	Reason string
}

func (e *PhcSyntaxError) Error() string {
	return fmt.Sprintf("argon2: invalid PHC format at offset %d: %s", e.Offset, e.Reason)
}

func (e *PhcSyntaxError) Unwrap() error { return ErrInvalidPhcFormat }
