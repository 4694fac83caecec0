package argon2

import (
	"context"
	"fmt"
	"time"
)

// TuneConfig bounds the parameter search performed by Tune.
type TuneConfig struct {
	// Target is the wall-clock latency one hash should cost.
	Target time.Duration

	// MaxMemoryMB caps m_cost at MaxMemoryMB*1024 KiB.
	MaxMemoryMB uint32

	// Parallelism is the lane count to tune for. Defaults to 1.
	Parallelism uint8

	// Variant to tune. The zero value is Argon2d; Tune substitutes no
	// other default.
	Variant Variant

	// TagLength of the tuned parameters. Defaults to 32.
	TagLength uint32

	// SaltLength of the tuned parameters. Defaults to 16.
	SaltLength int
}

// tuneSample is the fixed measurement input. Tuning measures the cost
// of the parameters, not of any particular password.
var tuneSample = []byte("argon2 calibration sample password")

// Tune searches for parameters whose single-hash latency lands near
// cfg.Target on this machine. Memory is grown first - doubling while a
// measured hash stays under half the target, up to the configured cap -
// and only then does the pass count grow, following the RFC 9106
// guidance to spend memory before time.
//
// The returned parameters are the measured candidate inside
// [0.9*Target, 1.5*Target] when one exists, otherwise the closest
// candidate seen. Each measurement is one real hash; ctx is checked
// between measurements (and, within one, at slice boundaries), so
// cancellation never leaves a partially built matrix behind.
func Tune(ctx context.Context, cfg TuneConfig) (Params, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Target <= 0 {
		return Params{}, &InvalidParameterError{Field: "target", Reason: "must be positive"}
	}
	if cfg.MaxMemoryMB < 1 {
		return Params{}, &InvalidParameterError{Field: "maxMemoryMB", Reason: "must be at least 1 MiB"}
	}
	if cfg.Parallelism == 0 {
		cfg.Parallelism = 1
	}
	if cfg.TagLength == 0 {
		cfg.TagLength = 32
	}
	if cfg.SaltLength == 0 {
		cfg.SaltLength = 16
	}
	switch cfg.Variant {
	case Argon2d, Argon2i, Argon2id:
	default:
		return Params{}, fmt.Errorf("%w: %v", ErrUnsupportedVariant, cfg.Variant)
	}

	memCap := cfg.MaxMemoryMB * 1024
	memory := 8 * uint32(cfg.Parallelism)
	if memory > memCap {
		memory = memCap
	}
	timeCost := uint32(1)

	build := func(memory, timeCost uint32) (Params, error) {
		return NewBuilder().
			Variant(cfg.Variant).
			Memory(memory).
			Time(timeCost).
			Parallelism(cfg.Parallelism).
			TagLength(cfg.TagLength).
			RandomSalt(cfg.SaltLength).
			Build()
	}

	measure := func(p Params) (time.Duration, error) {
		h, err := New(p)
		if err != nil {
			return 0, err
		}
		start := time.Now()
		tag, err := h.HashContext(ctx, tuneSample)
		if err != nil {
			return 0, err
		}
		WipeBytes(tag)
		return time.Since(start), nil
	}

	var (
		best     Params
		bestDist time.Duration = -1
	)
	note := func(p Params, elapsed time.Duration) {
		dist := elapsed - cfg.Target
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = p, dist
		}
	}

	// Phase 1: grow memory while a hash stays under half the target.
	var elapsed time.Duration
	for {
		if err := ctx.Err(); err != nil {
			return Params{}, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		p, err := build(memory, timeCost)
		if err != nil {
			return Params{}, err
		}
		elapsed, err = measure(p)
		if err != nil {
			return Params{}, err
		}
		note(p, elapsed)
		if memory >= memCap || elapsed >= cfg.Target/2 {
			break
		}
		memory *= 2
		if memory > memCap {
			memory = memCap
		}
	}

	// Phase 2: with memory settled, add passes until the target is met.
	for elapsed < cfg.Target {
		if err := ctx.Err(); err != nil {
			return Params{}, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		timeCost++
		p, err := build(memory, timeCost)
		if err != nil {
			return Params{}, err
		}
		elapsed, err = measure(p)
		if err != nil {
			return Params{}, err
		}
		note(p, elapsed)
	}

	// Prefer the last candidate when it landed inside the acceptance
	// window; otherwise fall back to the closest one seen.
	if elapsed >= cfg.Target*9/10 && elapsed <= cfg.Target*3/2 {
		p, err := build(memory, timeCost)
		if err != nil {
			return Params{}, err
		}
		return p, nil
	}
	return best, nil
}
